package controllers

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/go-chi/chi/v5"

	"github.com/fitlinehq/fitline-backend/api/responses"
	"github.com/fitlinehq/fitline-backend/api/validators"
	cartsvc "github.com/fitlinehq/fitline-backend/internal/cart"
	pkgerrors "github.com/fitlinehq/fitline-backend/pkg/errors"
	"github.com/fitlinehq/fitline-backend/pkg/logger"
)

// CartFetch returns the caller's cart with live stock annotations.
func CartFetch(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := userIDFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		cart, err := svc.GetCart(r.Context(), userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, cart)
	}
}

type addCartItemRequest struct {
	ProductID uuid.UUID `json:"product_id" validate:"required"`
	SizeLabel string    `json:"size_label" validate:"required"`
	Qty       int       `json:"qty" validate:"required,min=1"`
}

// CartAddItem adds a product size to the cart, merging with an
// existing row when one exists.
func CartAddItem(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := userIDFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload addCartItemRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		cart, err := svc.AddItem(r.Context(), userID, payload.ProductID, payload.SizeLabel, payload.Qty)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, cart)
	}
}

type changeQuantityRequest struct {
	Delta int `json:"delta" validate:"required"`
}

// CartChangeQuantity applies a +1/-1 style delta to a cart row.
func CartChangeQuantity(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := userIDFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		itemID, err := cartItemID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload changeQuantityRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		cart, err := svc.ChangeQuantity(r.Context(), userID, itemID, payload.Delta)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, cart)
	}
}

type setSelectedRequest struct {
	Selected *bool `json:"selected" validate:"required"`
}

// CartSetSelected toggles whether a row prices into checkout.
func CartSetSelected(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := userIDFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		itemID, err := cartItemID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload setSelectedRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		cart, err := svc.SetSelected(r.Context(), userID, itemID, *payload.Selected)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, cart)
	}
}

// CartRemoveItem deletes a cart row.
func CartRemoveItem(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := userIDFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		itemID, err := cartItemID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		cart, err := svc.RemoveItem(r.Context(), userID, itemID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, cart)
	}
}

func cartItemID(r *http.Request) (uuid.UUID, error) {
	itemID, err := uuid.Parse(chi.URLParam(r, "itemId"))
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cart item id")
	}
	return itemID, nil
}
