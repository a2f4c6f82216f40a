package measurements

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/fitlinehq/fitline-backend/internal/sizing"
	"github.com/fitlinehq/fitline-backend/pkg/db/models"
	"github.com/fitlinehq/fitline-backend/pkg/enums"
	pkgerrors "github.com/fitlinehq/fitline-backend/pkg/errors"
	"github.com/fitlinehq/fitline-backend/pkg/logger"
)

const sizingCacheTTL = 24 * time.Hour

// SavePayload is the measurement set produced by the capture flow.
// All values are centimeters except WeightKG.
type SavePayload struct {
	HeightCM   float64 `json:"height_cm" validate:"required,gt=0"`
	WeightKG   float64 `json:"weight_kg" validate:"required,gt=0"`
	WaistCM    float64 `json:"waist_cm" validate:"required,gt=0"`
	ShoulderCM float64 `json:"shoulder_cm" validate:"required,gt=0"`
	ChestCM    float64 `json:"chest_cm" validate:"required,gt=0"`
	HipsCM     float64 `json:"hips_cm" validate:"required,gt=0"`
	BustCM     float64 `json:"bust_cm" validate:"required,gt=0"`
}

// SizeCache is the slice of the redis client this service uses to
// memoize recommendations.
type SizeCache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
	SizingCacheKey(userID string) string
}

type cachedSizes struct {
	Top    string `json:"top"`
	Bottom string `json:"bottom"`
}

// ServiceParams groups dependencies for the measurements service.
// Cache may be nil; recommendations then always hit the database.
type ServiceParams struct {
	Repo   *Repository
	Cache  SizeCache
	Logger *logger.Logger
}

// Service stores measurement sets and answers size recommendations.
type Service interface {
	Save(ctx context.Context, userID uuid.UUID, payload SavePayload) (*models.Measurement, error)
	Get(ctx context.Context, userID uuid.UUID) (*models.Measurement, error)
	RecommendedSize(ctx context.Context, userID uuid.UUID, class enums.GarmentClass) (string, error)
}

type service struct {
	repo  *Repository
	cache SizeCache
	logg  *logger.Logger
}

func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "measurement repo is required")
	}
	if params.Logger == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "logger is required")
	}
	return &service{repo: params.Repo, cache: params.Cache, logg: params.Logger}, nil
}

// Save validates the payload, recomputes both recommended sizes and
// upserts the row. The cached recommendation is rewritten, not just
// invalidated, so the next product view never pays the db read.
func (s *service) Save(ctx context.Context, userID uuid.UUID, payload SavePayload) (*models.Measurement, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	if payload.BustCM <= 0 || math.IsNaN(payload.BustCM) || math.IsInf(payload.BustCM, 0) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "measurement out of range").
			WithDetails(map[string]any{"field": "bust_cm"})
	}

	recommendation, err := sizing.Recommend(sizing.Measurements{
		HeightCM:   payload.HeightCM,
		WeightKG:   payload.WeightKG,
		ShoulderCM: payload.ShoulderCM,
		ChestCM:    payload.ChestCM,
		WaistCM:    payload.WaistCM,
		HipsCM:     payload.HipsCM,
	})
	if err != nil {
		return nil, err
	}

	row := models.Measurement{
		UserID:     userID,
		HeightCM:   payload.HeightCM,
		WeightKG:   payload.WeightKG,
		WaistCM:    payload.WaistCM,
		ShoulderCM: payload.ShoulderCM,
		ChestCM:    payload.ChestCM,
		HipsCM:     payload.HipsCM,
		BustCM:     payload.BustCM,
		TopSize:    recommendation.TopSize,
		BottomSize: recommendation.BottomSize,
	}
	if err := s.repo.Upsert(ctx, &row); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save measurements")
	}

	s.writeCache(ctx, userID, cachedSizes{Top: row.TopSize, Bottom: row.BottomSize})
	return &row, nil
}

// Get returns the stored measurement set, or a default-sized empty set
// when the user has never measured.
func (s *service) Get(ctx context.Context, userID uuid.UUID) (*models.Measurement, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	row, err := s.repo.Find(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &models.Measurement{
				UserID:     userID,
				TopSize:    sizing.DefaultSize,
				BottomSize: sizing.DefaultSize,
			}, nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load measurements")
	}
	return row, nil
}

// RecommendedSize answers from the cache when it can; otherwise it
// reads the stored row and refills the cache. Users without
// measurements get the default size.
func (s *service) RecommendedSize(ctx context.Context, userID uuid.UUID, class enums.GarmentClass) (string, error) {
	if userID == uuid.Nil {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	if !class.IsValid() {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "unknown garment class")
	}

	if s.cache != nil {
		if raw, err := s.cache.Get(ctx, s.cache.SizingCacheKey(userID.String())); err == nil {
			var sizes cachedSizes
			if json.Unmarshal([]byte(raw), &sizes) == nil {
				return sizeFor(sizes, class), nil
			}
		}
	}

	row, err := s.Get(ctx, userID)
	if err != nil {
		return "", err
	}
	sizes := cachedSizes{Top: row.TopSize, Bottom: row.BottomSize}
	s.writeCache(ctx, userID, sizes)
	return sizeFor(sizes, class), nil
}

func (s *service) writeCache(ctx context.Context, userID uuid.UUID, sizes cachedSizes) {
	if s.cache == nil {
		return
	}
	raw, err := json.Marshal(sizes)
	if err != nil {
		return
	}
	key := s.cache.SizingCacheKey(userID.String())
	if err := s.cache.Set(ctx, key, string(raw), sizingCacheTTL); err != nil {
		// recommendation reads fall back to the database
		s.logg.Warn(s.logg.WithField(ctx, "user_id", userID.String()), "sizing cache write failed")
	}
}

func sizeFor(sizes cachedSizes, class enums.GarmentClass) string {
	if class == enums.GarmentClassBottom {
		return sizes.Bottom
	}
	return sizes.Top
}
