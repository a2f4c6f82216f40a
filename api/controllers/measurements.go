package controllers

import (
	"net/http"
	"time"

	"github.com/fitlinehq/fitline-backend/api/responses"
	"github.com/fitlinehq/fitline-backend/api/validators"
	measurementsvc "github.com/fitlinehq/fitline-backend/internal/measurements"
	"github.com/fitlinehq/fitline-backend/pkg/db/models"
	pkgerrors "github.com/fitlinehq/fitline-backend/pkg/errors"
	"github.com/fitlinehq/fitline-backend/pkg/logger"
)

type measurementResponse struct {
	HeightCM   float64    `json:"height_cm"`
	WeightKG   float64    `json:"weight_kg"`
	WaistCM    float64    `json:"waist_cm"`
	ShoulderCM float64    `json:"shoulder_cm"`
	ChestCM    float64    `json:"chest_cm"`
	HipsCM     float64    `json:"hips_cm"`
	BustCM     float64    `json:"bust_cm"`
	TopSize    string     `json:"top_size"`
	BottomSize string     `json:"bottom_size"`
	UpdatedAt  *time.Time `json:"updated_at,omitempty"`
	Measured   bool       `json:"measured"`
}

// GetMeasurements returns the stored measurement set, or the default
// recommendations when the user has never measured.
func GetMeasurements(svc measurementsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := userIDFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		m, err := svc.Get(r.Context(), userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newMeasurementResponse(m))
	}
}

// SaveMeasurements stores a capture-flow payload and recomputes the
// recommended sizes.
func SaveMeasurements(svc measurementsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "measurement service unavailable"))
			return
		}

		userID, err := userIDFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload measurementsvc.SavePayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		m, err := svc.Save(r.Context(), userID, payload)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newMeasurementResponse(m))
	}
}

func newMeasurementResponse(m *models.Measurement) measurementResponse {
	resp := measurementResponse{
		HeightCM:   m.HeightCM,
		WeightKG:   m.WeightKG,
		WaistCM:    m.WaistCM,
		ShoulderCM: m.ShoulderCM,
		ChestCM:    m.ChestCM,
		HipsCM:     m.HipsCM,
		BustCM:     m.BustCM,
		TopSize:    m.TopSize,
		BottomSize: m.BottomSize,
		Measured:   m.HeightCM > 0,
	}
	if !m.UpdatedAt.IsZero() {
		updated := m.UpdatedAt
		resp.UpdatedAt = &updated
	}
	return resp
}
