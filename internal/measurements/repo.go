package measurements

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/fitlinehq/fitline-backend/pkg/db/models"
)

// Repository is the data access layer for body measurements. One row
// per user, upserted in place.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Upsert(ctx context.Context, row *models.Measurement) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"height_cm", "weight_kg", "waist_cm", "shoulder_cm",
				"chest_cm", "hips_cm", "bust_cm",
				"top_size", "bottom_size", "updated_at",
			}),
		}).
		Create(row).Error
}

func (r *Repository) Find(ctx context.Context, userID uuid.UUID) (*models.Measurement, error) {
	var row models.Measurement
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		First(&row).Error
	if err != nil {
		return nil, err
	}
	return &row, nil
}
