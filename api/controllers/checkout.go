package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/fitlinehq/fitline-backend/api/responses"
	"github.com/fitlinehq/fitline-backend/api/validators"
	ordersvc "github.com/fitlinehq/fitline-backend/internal/orders"
	pkgerrors "github.com/fitlinehq/fitline-backend/pkg/errors"
	"github.com/fitlinehq/fitline-backend/pkg/logger"
)

type checkoutRequest struct {
	AddressID *uuid.UUID `json:"address_id,omitempty" validate:"omitempty,uuid4"`
}

type checkoutResponse struct {
	Orders []ordersvc.PlacedOrder `json:"orders"`
}

// Checkout submits the selected cart rows. The Idempotency-Key header
// doubles as the transition receipt token, so retries replay the
// original placement instead of placing twice.
func Checkout(svc ordersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "order service unavailable"))
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

		var payload checkoutRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		placed, err := svc.Checkout(r.Context(), ordersvc.CheckoutInput{
			UserID:    userID,
			AddressID: payload.AddressID,
			Token:     token,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, checkoutResponse{Orders: placed})
	}
}
