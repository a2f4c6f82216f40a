package returns

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/fitlinehq/fitline-backend/pkg/db/models"
	"github.com/fitlinehq/fitline-backend/pkg/enums"
)

// Repository is the data access layer for return requests.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a copy bound to the given transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

func (r *Repository) Create(ctx context.Context, request *models.ReturnRequest) error {
	return r.db.WithContext(ctx).Create(request).Error
}

func (r *Repository) FindOwned(ctx context.Context, userID, requestID uuid.UUID) (*models.ReturnRequest, error) {
	var request models.ReturnRequest
	err := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", requestID, userID).
		First(&request).Error
	if err != nil {
		return nil, err
	}
	return &request, nil
}

// DeletePending removes a still-pending request. Settled requests are
// immutable.
func (r *Repository) DeletePending(ctx context.Context, userID, requestID uuid.UUID) error {
	result := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ? AND status = ?", requestID, userID, enums.ReturnStatusPending).
		Delete(&models.ReturnRequest{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *Repository) List(ctx context.Context, userID uuid.UUID, limit int, after *time.Time, afterID *uuid.UUID) ([]models.ReturnRequest, error) {
	query := r.db.WithContext(ctx).Where("user_id = ?", userID)
	if after != nil && afterID != nil {
		query = query.Where("(created_at, id) < (?, ?)", *after, *afterID)
	}
	var rows []models.ReturnRequest
	err := query.Order("created_at DESC, id DESC").Limit(limit).Find(&rows).Error
	return rows, err
}
