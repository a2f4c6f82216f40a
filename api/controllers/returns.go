package controllers

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/go-chi/chi/v5"

	"github.com/fitlinehq/fitline-backend/api/responses"
	"github.com/fitlinehq/fitline-backend/api/validators"
	returnsvc "github.com/fitlinehq/fitline-backend/internal/returns"
	"github.com/fitlinehq/fitline-backend/pkg/db/models"
	"github.com/fitlinehq/fitline-backend/pkg/enums"
	pkgerrors "github.com/fitlinehq/fitline-backend/pkg/errors"
	"github.com/fitlinehq/fitline-backend/pkg/logger"
	"github.com/fitlinehq/fitline-backend/pkg/types"
)

type createReturnRequest struct {
	OrderID     uuid.UUID             `json:"order_id" validate:"required"`
	Reason      string                `json:"reason" validate:"required"`
	Description string                `json:"description" validate:"required"`
	Method      string                `json:"method" validate:"required"`
	PickupDate  *string               `json:"pickup_date,omitempty"`
	Carrier     *string               `json:"carrier,omitempty"`
	Address     types.ShippingAddress `json:"address"`
}

type returnRequestResponse struct {
	ID          uuid.UUID               `json:"id"`
	OrderID     uuid.UUID               `json:"order_id"`
	OrderNumber string                  `json:"order_number"`
	Line        types.OrderLineSnapshot `json:"line"`
	Reason      string                  `json:"reason"`
	Description string                  `json:"description"`
	Method      string                  `json:"method"`
	PickupDate  *time.Time              `json:"pickup_date,omitempty"`
	Carrier     *string                 `json:"carrier,omitempty"`
	Address     types.ShippingAddress   `json:"address"`
	Refund      types.Money             `json:"refund"`
	Status      string                  `json:"status"`
	CreatedAt   time.Time               `json:"created_at"`
}

type returnListResponse struct {
	Requests   []returnRequestResponse `json:"requests"`
	NextCursor string                  `json:"next_cursor,omitempty"`
}

// CreateReturn files a return against a completed order, one request
// per line item.
func CreateReturn(svc returnsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "returns service unavailable"))
			return
		}

		userID, err := userIDFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		token, err := validators.IdempotencyToken(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload createReturnRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input, err := payload.toInput(userID, token)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		requests, err := svc.Request(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		out := make([]returnRequestResponse, 0, len(requests))
		for _, req := range requests {
			out = append(out, newReturnResponse(req))
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, returnListResponse{Requests: out})
	}
}

// CancelReturn withdraws a pending return request.
func CancelReturn(svc returnsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := userIDFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		requestID, err := uuid.Parse(chi.URLParam(r, "requestId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid return request id"))
			return
		}

		if err := svc.CancelRequest(r.Context(), userID, requestID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]string{"status": "cancelled"})
	}
}

// ListReturns pages the caller's return requests, newest first.
func ListReturns(svc returnsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := userIDFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		params, err := validators.ParsePageParams(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		page, err := svc.List(r.Context(), userID, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		out := make([]returnRequestResponse, 0, len(page.Requests))
		for _, req := range page.Requests {
			out = append(out, newReturnResponse(req))
		}
		responses.WriteSuccess(w, returnListResponse{Requests: out, NextCursor: page.NextCursor})
	}
}

func (p createReturnRequest) toInput(userID uuid.UUID, token string) (returnsvc.ReturnInput, error) {
	reason, err := enums.ParseReturnReason(p.Reason)
	if err != nil {
		return returnsvc.ReturnInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid return reason")
	}

	method := enums.ReturnMethod(p.Method)
	if !method.IsValid() {
		return returnsvc.ReturnInput{}, pkgerrors.New(pkgerrors.CodeValidation, "invalid return method").
			WithDetails(map[string]any{"method": p.Method})
	}

	var pickupDate *time.Time
	if p.PickupDate != nil {
		parsed, err := time.Parse("2006-01-02", *p.PickupDate)
		if err != nil {
			return returnsvc.ReturnInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "pickup date must be YYYY-MM-DD")
		}
		pickupDate = &parsed
	}

	return returnsvc.ReturnInput{
		UserID:      userID,
		OrderID:     p.OrderID,
		Reason:      reason,
		Description: p.Description,
		Method:      method,
		PickupDate:  pickupDate,
		Carrier:     p.Carrier,
		Address:     p.Address,
		Token:       token,
	}, nil
}

func newReturnResponse(req models.ReturnRequest) returnRequestResponse {
	return returnRequestResponse{
		ID:          req.ID,
		OrderID:     req.OrderID,
		OrderNumber: req.OrderNumber,
		Line:        req.Line,
		Reason:      string(req.Reason),
		Description: req.Description,
		Method:      string(req.Method),
		PickupDate:  req.PickupDate,
		Carrier:     req.Carrier,
		Address:     req.Address,
		Refund:      types.NewMoney(req.RefundCents),
		Status:      string(req.Status),
		CreatedAt:   req.CreatedAt,
	}
}
