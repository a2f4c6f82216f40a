package cart

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/fitlinehq/fitline-backend/pkg/db/models"
)

// Repository encapsulates cart persistence.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a cart repository bound to the provided gorm DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository scoped to the given transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

// FindByID loads an owned cart row.
func (r *Repository) FindByID(ctx context.Context, userID, itemID uuid.UUID) (*models.CartItem, error) {
	var item models.CartItem
	err := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", itemID, userID).
		First(&item).Error
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// FindByProductSize loads the user's row for a (product, size) pair if present.
func (r *Repository) FindByProductSize(ctx context.Context, userID, productID uuid.UUID, sizeLabel string) (*models.CartItem, error) {
	var item models.CartItem
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND product_id = ? AND size_label = ?", userID, productID, sizeLabel).
		First(&item).Error
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// Create inserts a new cart row.
func (r *Repository) Create(ctx context.Context, item *models.CartItem) error {
	return r.db.WithContext(ctx).Create(item).Error
}

// UpdateQuantity rewrites the quantity of an owned row.
func (r *Repository) UpdateQuantity(ctx context.Context, userID, itemID uuid.UUID, qty int) error {
	res := r.db.WithContext(ctx).
		Model(&models.CartItem{}).
		Where("id = ? AND user_id = ?", itemID, userID).
		Update("quantity", qty)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// UpdateSelected toggles whether a row participates in checkout.
func (r *Repository) UpdateSelected(ctx context.Context, userID, itemID uuid.UUID, selected bool) error {
	res := r.db.WithContext(ctx).
		Model(&models.CartItem{}).
		Where("id = ? AND user_id = ?", itemID, userID).
		Update("selected", selected)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// Delete removes an owned row.
func (r *Repository) Delete(ctx context.Context, userID, itemID uuid.UUID) error {
	res := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", itemID, userID).
		Delete(&models.CartItem{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// DeleteByIDs removes the given rows; checkout uses it after purchase.
func (r *Repository) DeleteByIDs(ctx context.Context, userID uuid.UUID, itemIDs []uuid.UUID) error {
	if len(itemIDs) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Where("user_id = ? AND id IN ?", userID, itemIDs).
		Delete(&models.CartItem{}).Error
}

// ListByUser returns the user's cart rows, oldest first.
func (r *Repository) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.CartItem, error) {
	var rows []models.CartItem
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at ASC").Order("id ASC").
		Find(&rows).Error
	return rows, err
}

// ListSelected returns only the rows flagged for checkout.
func (r *Repository) ListSelected(ctx context.Context, userID uuid.UUID) ([]models.CartItem, error) {
	var rows []models.CartItem
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND selected", userID).
		Order("created_at ASC").Order("id ASC").
		Find(&rows).Error
	return rows, err
}
