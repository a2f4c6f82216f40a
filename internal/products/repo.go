package products

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/fitlinehq/fitline-backend/pkg/db/models"
	"github.com/fitlinehq/fitline-backend/pkg/pagination"
)

// Repository encapsulates catalog persistence.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a product repository bound to the provided gorm DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository scoped to the given transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

// FindByID loads an active product with its size rows.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	err := r.db.WithContext(ctx).
		Preload("Sizes").
		Where("id = ? AND is_active", id).
		First(&product).Error
	if err != nil {
		return nil, err
	}
	return &product, nil
}

// FindManyByIDs loads active products keyed by id.
func (r *Repository) FindManyByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]models.Product, error) {
	var rows []models.Product
	err := r.db.WithContext(ctx).
		Preload("Sizes").
		Where("id IN ? AND is_active", ids).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	byID := make(map[uuid.UUID]models.Product, len(rows))
	for _, row := range rows {
		byID[row.ID] = row
	}
	return byID, nil
}

// List returns a page of active products, newest first, optionally
// filtered by a case-insensitive name match.
func (r *Repository) List(ctx context.Context, search string, params pagination.Params) ([]models.Product, string, error) {
	limit := pagination.NormalizeLimit(params.Limit)
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, "", err
	}

	query := r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("is_active")
	if trimmed := strings.TrimSpace(search); trimmed != "" {
		query = query.Where("LOWER(name) LIKE ?", "%"+strings.ToLower(trimmed)+"%")
	}
	if cursor != nil {
		query = query.Where("(created_at < ?) OR (created_at = ? AND id < ?)", cursor.CreatedAt, cursor.CreatedAt, cursor.ID)
	}

	var rows []models.Product
	err = query.
		Order("created_at DESC").Order("id DESC").
		Limit(pagination.LimitWithBuffer(params.Limit)).
		Find(&rows).Error
	if err != nil {
		return nil, "", err
	}

	nextCursor := ""
	if len(rows) > limit {
		rows = rows[:limit]
		last := rows[len(rows)-1]
		nextCursor = pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
	}
	return rows, nextCursor, nil
}
