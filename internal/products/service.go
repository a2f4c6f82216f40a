package products

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/fitlinehq/fitline-backend/pkg/db/models"
	"github.com/fitlinehq/fitline-backend/pkg/enums"
	pkgerrors "github.com/fitlinehq/fitline-backend/pkg/errors"
	"github.com/fitlinehq/fitline-backend/pkg/pagination"
	"github.com/fitlinehq/fitline-backend/pkg/types"
)

// SizeHinter resolves the caller's recommended size for a garment
// class. Implemented by the measurements service; users without saved
// measurements get the default size.
type SizeHinter interface {
	RecommendedSize(ctx context.Context, userID uuid.UUID, class enums.GarmentClass) (string, error)
}

// ServiceParams groups dependencies for the catalog service.
type ServiceParams struct {
	ProductRepo *Repository
	SizeHinter  SizeHinter
}

// Service exposes catalog reads.
type Service interface {
	ListProducts(ctx context.Context, search string, params pagination.Params) (ProductPage, error)
	GetProduct(ctx context.Context, userID, productID uuid.UUID) (ProductDetail, error)
}

type service struct {
	productRepo *Repository
	sizeHinter  SizeHinter
}

// NewService builds a catalog service with the required dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.ProductRepo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product repo is required")
	}
	return &service{
		productRepo: params.ProductRepo,
		sizeHinter:  params.SizeHinter,
	}, nil
}

// ListProducts returns the storefront listing, newest first.
func (s *service) ListProducts(ctx context.Context, search string, params pagination.Params) (ProductPage, error) {
	rows, nextCursor, err := s.productRepo.List(ctx, search, params)
	if err != nil {
		return ProductPage{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list products")
	}

	items := make([]ProductSummary, 0, len(rows))
	for _, row := range rows {
		items = append(items, toSummary(row))
	}
	return ProductPage{Items: items, NextCursor: nextCursor}, nil
}

// GetProduct returns the product page projection. When the caller is
// known, the detail carries their recommended size for the product's
// garment class.
func (s *service) GetProduct(ctx context.Context, userID, productID uuid.UUID) (ProductDetail, error) {
	if productID == uuid.Nil {
		return ProductDetail{}, pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}

	product, err := s.productRepo.FindByID(ctx, productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ProductDetail{}, pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "product not found")
		}
		return ProductDetail{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}

	detail := toDetail(*product)
	if s.sizeHinter != nil && userID != uuid.Nil {
		size, err := s.sizeHinter.RecommendedSize(ctx, userID, product.GarmentClass)
		if err != nil {
			return ProductDetail{}, err
		}
		detail.RecommendedSize = size
	}
	return detail, nil
}

func toSummary(p models.Product) ProductSummary {
	return ProductSummary{
		ID:               p.ID,
		Name:             p.Name,
		ImageURL:         p.ImageURL,
		Price:            types.NewMoney(p.PriceCents),
		SoldCount:        p.SoldCount,
		DeliveryEstimate: p.DeliveryEstimate,
		CreatedAt:        p.CreatedAt,
	}
}

func toDetail(p models.Product) ProductDetail {
	sizes := make([]SizeAvailability, 0, len(p.Sizes))
	for _, size := range p.Sizes {
		sizes = append(sizes, SizeAvailability{
			SizeLabel:    size.SizeLabel,
			AvailableQty: size.AvailableQty,
		})
	}
	return ProductDetail{
		ID:               p.ID,
		Name:             p.Name,
		Description:      p.Description,
		ImageURL:         p.ImageURL,
		Price:            types.NewMoney(p.PriceCents),
		SoldCount:        p.SoldCount,
		DeliveryEstimate: p.DeliveryEstimate,
		Sizes:            sizes,
		CreatedAt:        p.CreatedAt,
	}
}
