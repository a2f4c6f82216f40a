package orders

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/fitlinehq/fitline-backend/pkg/db/models"
	"github.com/fitlinehq/fitline-backend/pkg/enums"
)

// Repository is the data access layer for live orders, the terminal
// projections and transition receipts.
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

func (r *Repository) Create(ctx context.Context, order *models.Order) error {
	return r.db.WithContext(ctx).Create(order).Error
}

// FindOwned loads a live order with its lines, scoped to the owner.
func (r *Repository) FindOwned(ctx context.Context, userID, orderID uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Preload("Items").
		Where("id = ? AND user_id = ?", orderID, userID).
		First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *Repository) FindByNumbers(ctx context.Context, userID uuid.UUID, numbers []string) ([]models.Order, error) {
	var rows []models.Order
	err := r.db.WithContext(ctx).
		Preload("Items").
		Where("user_id = ? AND order_number IN ?", userID, numbers).
		Find(&rows).Error
	return rows, err
}

// ListByStatus pages live orders for one user and status, newest first.
func (r *Repository) ListByStatus(ctx context.Context, userID uuid.UUID, status enums.OrderStatus, limit int, after *time.Time, afterID *uuid.UUID) ([]models.Order, error) {
	query := r.db.WithContext(ctx).
		Preload("Items").
		Where("user_id = ? AND status = ?", userID, status)
	if after != nil && afterID != nil {
		query = query.Where("(created_at, id) < (?, ?)", *after, *afterID)
	}
	var rows []models.Order
	err := query.
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&rows).Error
	return rows, err
}

// AdvanceStatus is a guarded UPDATE: the row moves only if it is still
// in the expected source state. The caller reads RowsAffected through
// the bool return.
func (r *Repository) AdvanceStatus(ctx context.Context, orderID uuid.UUID, from, to enums.OrderStatus, stampCol string, stamp time.Time) (bool, error) {
	updates := map[string]any{"status": to}
	if stampCol != "" {
		updates[stampCol] = stamp
	}
	result := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ? AND status = ?", orderID, from).
		Updates(updates)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

// Delete removes the live order and its lines. Used by the terminal
// transitions after the projection copy is written.
func (r *Repository) Delete(ctx context.Context, orderID uuid.UUID) error {
	if err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Delete(&models.OrderLineItem{}).Error; err != nil {
		return err
	}
	return r.db.WithContext(ctx).
		Where("id = ?", orderID).
		Delete(&models.Order{}).Error
}

func (r *Repository) InsertCancelled(ctx context.Context, row *models.CancelledOrder) error {
	return r.db.WithContext(ctx).Create(row).Error
}

func (r *Repository) InsertCompleted(ctx context.Context, row *models.CompletedOrder) error {
	return r.db.WithContext(ctx).Create(row).Error
}

func (r *Repository) FindCancelled(ctx context.Context, userID, orderID uuid.UUID) (*models.CancelledOrder, error) {
	var row models.CancelledOrder
	err := r.db.WithContext(ctx).
		Where("order_id = ? AND user_id = ?", orderID, userID).
		First(&row).Error
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *Repository) FindCompleted(ctx context.Context, userID, orderID uuid.UUID) (*models.CompletedOrder, error) {
	var row models.CompletedOrder
	err := r.db.WithContext(ctx).
		Where("order_id = ? AND user_id = ?", orderID, userID).
		First(&row).Error
	if err != nil {
		return nil, err
	}
	return &row, nil
}

// DeleteCompleted removes a completed projection. The returns flow
// consumes the projection when a return is filed against it.
func (r *Repository) DeleteCompleted(ctx context.Context, orderID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Delete(&models.CompletedOrder{}).Error
}

func (r *Repository) ListCancelled(ctx context.Context, userID uuid.UUID, limit int, after *time.Time, afterID *uuid.UUID) ([]models.CancelledOrder, error) {
	query := r.db.WithContext(ctx).Where("user_id = ?", userID)
	if after != nil && afterID != nil {
		query = query.Where("(created_at, id) < (?, ?)", *after, *afterID)
	}
	var rows []models.CancelledOrder
	err := query.Order("created_at DESC, id DESC").Limit(limit).Find(&rows).Error
	return rows, err
}

func (r *Repository) ListCompleted(ctx context.Context, userID uuid.UUID, limit int, after *time.Time, afterID *uuid.UUID) ([]models.CompletedOrder, error) {
	query := r.db.WithContext(ctx).Where("user_id = ?", userID)
	if after != nil && afterID != nil {
		query = query.Where("(created_at, id) < (?, ?)", *after, *afterID)
	}
	var rows []models.CompletedOrder
	err := query.Order("created_at DESC, id DESC").Limit(limit).Find(&rows).Error
	return rows, err
}

func (r *Repository) InsertReceipt(ctx context.Context, receipt *models.TransitionReceipt) error {
	return r.db.WithContext(ctx).Create(receipt).Error
}

// FindReceipt loads an applied transition by its client token.
func (r *Repository) FindReceipt(ctx context.Context, token string) (*models.TransitionReceipt, error) {
	var receipt models.TransitionReceipt
	err := r.db.WithContext(ctx).
		Where("token = ?", token).
		First(&receipt).Error
	if err != nil {
		return nil, err
	}
	return &receipt, nil
}
