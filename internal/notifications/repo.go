package notifications

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/fitlinehq/fitline-backend/pkg/db/models"
)

// Repository is the data access layer for in-app notifications.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Create(ctx context.Context, notification *models.Notification) error {
	return r.db.WithContext(ctx).Create(notification).Error
}

func (r *Repository) ListByUser(ctx context.Context, userID uuid.UUID, limit int, after *time.Time, afterID *uuid.UUID) ([]models.Notification, error) {
	query := r.db.WithContext(ctx).Where("user_id = ?", userID)
	if after != nil && afterID != nil {
		query = query.Where("(created_at, id) < (?, ?)", *after, *afterID)
	}
	var rows []models.Notification
	err := query.Order("created_at DESC, id DESC").Limit(limit).Find(&rows).Error
	return rows, err
}

func (r *Repository) CountUnread(ctx context.Context, userID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Notification{}).
		Where("user_id = ? AND read_at IS NULL", userID).
		Count(&count).Error
	return count, err
}

// MarkRead stamps one owned notification. Re-reading keeps the
// original timestamp.
func (r *Repository) MarkRead(ctx context.Context, userID, notificationID uuid.UUID, at time.Time) error {
	result := r.db.WithContext(ctx).
		Model(&models.Notification{}).
		Where("id = ? AND user_id = ?", notificationID, userID).
		Update("read_at", gorm.Expr("COALESCE(read_at, ?)", at))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *Repository) MarkAllRead(ctx context.Context, userID uuid.UUID, at time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Notification{}).
		Where("user_id = ? AND read_at IS NULL", userID).
		Update("read_at", at)
	return result.RowsAffected, result.Error
}
