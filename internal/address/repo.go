package address

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/fitlinehq/fitline-backend/pkg/db/models"
)

// Repository encapsulates address book persistence.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs an address repository bound to the provided gorm DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts the address. When it is flagged default, the previous
// default is demoted in the same transaction.
func (r *Repository) Create(ctx context.Context, addr *models.Address) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if addr.IsDefault {
			if err := clearDefault(tx, addr.UserID); err != nil {
				return err
			}
		}
		return tx.Create(addr).Error
	})
}

// Update rewrites the mutable fields of an owned address.
func (r *Repository) Update(ctx context.Context, addr *models.Address) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if addr.IsDefault {
			if err := clearDefault(tx, addr.UserID); err != nil {
				return err
			}
		}
		res := tx.Model(&models.Address{}).
			Where("id = ? AND user_id = ?", addr.ID, addr.UserID).
			Updates(map[string]any{
				"recipient_name": addr.RecipientName,
				"phone":          addr.Phone,
				"line1":          addr.Line1,
				"line2":          addr.Line2,
				"city":           addr.City,
				"province":       addr.Province,
				"postal_code":    addr.PostalCode,
				"is_default":     addr.IsDefault,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}

// Delete removes an owned address.
func (r *Repository) Delete(ctx context.Context, userID, id uuid.UUID) error {
	res := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		Delete(&models.Address{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// FindByID loads an owned address.
func (r *Repository) FindByID(ctx context.Context, userID, id uuid.UUID) (*models.Address, error) {
	var addr models.Address
	err := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		First(&addr).Error
	if err != nil {
		return nil, err
	}
	return &addr, nil
}

// FindDefault returns the user's default address, or nil when none is set.
func (r *Repository) FindDefault(ctx context.Context, userID uuid.UUID) (*models.Address, error) {
	var addr models.Address
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND is_default", userID).
		First(&addr).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &addr, nil
}

// List returns all addresses for a user, default first.
func (r *Repository) List(ctx context.Context, userID uuid.UUID) ([]models.Address, error) {
	var rows []models.Address
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("is_default DESC").
		Order("created_at DESC").
		Find(&rows).Error
	return rows, err
}

func clearDefault(tx *gorm.DB, userID uuid.UUID) error {
	return tx.Model(&models.Address{}).
		Where("user_id = ? AND is_default", userID).
		Update("is_default", false).Error
}
