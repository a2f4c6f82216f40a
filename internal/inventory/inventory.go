package inventory

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/fitlinehq/fitline-backend/pkg/db/models"
	pkgerrors "github.com/fitlinehq/fitline-backend/pkg/errors"
)

// ReservationRequest asks for qty units of a product size to move from
// available to reserved.
type ReservationRequest struct {
	CartItemID uuid.UUID
	ProductID  uuid.UUID
	SizeLabel  string
	Qty        int
}

// ReservationResult reports the per-request outcome. Reason is set only
// when Reserved is false.
type ReservationResult struct {
	CartItemID uuid.UUID
	ProductID  uuid.UUID
	SizeLabel  string
	Reserved   bool
	Reason     string
}

// Movement identifies reserved units to release or commit.
type Movement struct {
	ProductID uuid.UUID
	SizeLabel string
	Qty       int
}

// Reserve moves stock from available to reserved with one guarded
// UPDATE per request. The guard makes the read-check-write a single
// atomic statement, so two concurrent checkouts can never both take
// the last unit. Results are positional with the requests.
func Reserve(ctx context.Context, tx *gorm.DB, requests []ReservationRequest) ([]ReservationResult, error) {
	if tx == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "transaction required")
	}

	results := make([]ReservationResult, 0, len(requests))
	for _, req := range requests {
		if req.Qty <= 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "reservation qty must be positive").
				WithDetails(map[string]any{"product_id": req.ProductID, "size": req.SizeLabel})
		}
		if req.ProductID == uuid.Nil || req.SizeLabel == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "reservation target is required")
		}

		res := tx.WithContext(ctx).
			Model(&models.ProductSize{}).
			Where("product_id = ? AND size_label = ? AND available_qty >= ?", req.ProductID, req.SizeLabel, req.Qty).
			Updates(map[string]any{
				"available_qty": gorm.Expr("available_qty - ?", req.Qty),
				"reserved_qty":  gorm.Expr("reserved_qty + ?", req.Qty),
				"updated_at":    time.Now(),
			})
		if res.Error != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, res.Error, "reserve inventory")
		}

		result := ReservationResult{
			CartItemID: req.CartItemID,
			ProductID:  req.ProductID,
			SizeLabel:  req.SizeLabel,
			Reserved:   res.RowsAffected == 1,
		}
		if !result.Reserved {
			result.Reason = "insufficient stock"
		}
		results = append(results, result)
	}
	return results, nil
}

// Release returns reserved units to available stock. Failures are
// accumulated so one bad row does not strand the rest of the release.
func Release(ctx context.Context, tx *gorm.DB, movements []Movement) error {
	if tx == nil {
		return pkgerrors.New(pkgerrors.CodeInternal, "transaction required")
	}

	var errs error
	for _, m := range movements {
		if m.Qty <= 0 {
			errs = multierr.Append(errs, fmt.Errorf("release %s/%s: qty must be positive", m.ProductID, m.SizeLabel))
			continue
		}
		res := tx.WithContext(ctx).
			Model(&models.ProductSize{}).
			Where("product_id = ? AND size_label = ? AND reserved_qty >= ?", m.ProductID, m.SizeLabel, m.Qty).
			Updates(map[string]any{
				"available_qty": gorm.Expr("available_qty + ?", m.Qty),
				"reserved_qty":  gorm.Expr("reserved_qty - ?", m.Qty),
				"updated_at":    time.Now(),
			})
		if res.Error != nil {
			errs = multierr.Append(errs, fmt.Errorf("release %s/%s: %w", m.ProductID, m.SizeLabel, res.Error))
			continue
		}
		if res.RowsAffected == 0 {
			errs = multierr.Append(errs, fmt.Errorf("release %s/%s: reserved below requested qty", m.ProductID, m.SizeLabel))
		}
	}
	return errs
}

// CommitSold burns reserved units after delivery is confirmed and bumps
// the product sold counter.
func CommitSold(ctx context.Context, tx *gorm.DB, movements []Movement) error {
	if tx == nil {
		return pkgerrors.New(pkgerrors.CodeInternal, "transaction required")
	}

	for _, m := range movements {
		if m.Qty <= 0 {
			return pkgerrors.New(pkgerrors.CodeValidation, "commit qty must be positive")
		}
		res := tx.WithContext(ctx).
			Model(&models.ProductSize{}).
			Where("product_id = ? AND size_label = ? AND reserved_qty >= ?", m.ProductID, m.SizeLabel, m.Qty).
			Updates(map[string]any{
				"reserved_qty": gorm.Expr("reserved_qty - ?", m.Qty),
				"updated_at":   time.Now(),
			})
		if res.Error != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, res.Error, "commit sold inventory")
		}
		if res.RowsAffected == 0 {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "reserved stock below committed qty").
				WithDetails(map[string]any{"product_id": m.ProductID, "size": m.SizeLabel})
		}

		if err := tx.WithContext(ctx).
			Model(&models.Product{}).
			Where("id = ?", m.ProductID).
			Update("sold_count", gorm.Expr("sold_count + ?", m.Qty)).Error; err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "bump sold count")
		}
	}
	return nil
}

// Availability returns the current per-size stock for a product.
func Availability(ctx context.Context, db *gorm.DB, productID uuid.UUID) ([]models.ProductSize, error) {
	var rows []models.ProductSize
	err := db.WithContext(ctx).
		Where("product_id = ?", productID).
		Order("size_label ASC").
		Find(&rows).Error
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load availability")
	}
	return rows, nil
}
