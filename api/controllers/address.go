package controllers

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/go-chi/chi/v5"

	"github.com/fitlinehq/fitline-backend/api/responses"
	"github.com/fitlinehq/fitline-backend/api/validators"
	addresssvc "github.com/fitlinehq/fitline-backend/internal/address"
	pkgerrors "github.com/fitlinehq/fitline-backend/pkg/errors"
	"github.com/fitlinehq/fitline-backend/pkg/logger"
)

type addressRequest struct {
	RecipientName string  `json:"recipient_name" validate:"required,max=120"`
	Phone         string  `json:"phone" validate:"required,max=32"`
	Line1         string  `json:"line1" validate:"required,max=200"`
	Line2         *string `json:"line2,omitempty" validate:"omitempty,max=200"`
	City          string  `json:"city" validate:"required,max=80"`
	Province      string  `json:"province" validate:"required,max=80"`
	PostalCode    string  `json:"postal_code" validate:"required,max=16"`
	IsDefault     bool    `json:"is_default"`
}

func (p addressRequest) toInput() addresssvc.AddressInput {
	return addresssvc.AddressInput{
		RecipientName: p.RecipientName,
		Phone:         p.Phone,
		Line1:         p.Line1,
		Line2:         p.Line2,
		City:          p.City,
		Province:      p.Province,
		PostalCode:    p.PostalCode,
		IsDefault:     p.IsDefault,
	}
}

// ListAddresses returns the caller's address book, default first.
func ListAddresses(svc addresssvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := userIDFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		addrs, err := svc.ListAddresses(r.Context(), userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]any{"addresses": addrs})
	}
}

// CreateAddress adds an address to the book.
func CreateAddress(svc addresssvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := userIDFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload addressRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		addr, err := svc.CreateAddress(r.Context(), userID, payload.toInput())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, addr)
	}
}

// UpdateAddress edits an owned address. Orders keep their snapshots.
func UpdateAddress(svc addresssvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := userIDFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		addressID, err := addressIDParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload addressRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		addr, err := svc.UpdateAddress(r.Context(), userID, addressID, payload.toInput())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, addr)
	}
}

// DeleteAddress removes an owned address.
func DeleteAddress(svc addresssvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := userIDFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		addressID, err := addressIDParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.DeleteAddress(r.Context(), userID, addressID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]string{"status": "deleted"})
	}
}

func addressIDParam(r *http.Request) (uuid.UUID, error) {
	addressID, err := uuid.Parse(chi.URLParam(r, "addressId"))
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid address id")
	}
	return addressID, nil
}
