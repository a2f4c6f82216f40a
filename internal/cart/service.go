package cart

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	products "github.com/fitlinehq/fitline-backend/internal/products"
	"github.com/fitlinehq/fitline-backend/pkg/db/models"
	pkgerrors "github.com/fitlinehq/fitline-backend/pkg/errors"
	"github.com/fitlinehq/fitline-backend/pkg/types"
)

// ServiceParams groups dependencies for the cart service.
type ServiceParams struct {
	CartRepo    *Repository
	ProductRepo *products.Repository
	MaxLineQty  int
}

// Service exposes business rules for cart management.
type Service interface {
	GetCart(ctx context.Context, userID uuid.UUID) (CartDTO, error)
	AddItem(ctx context.Context, userID, productID uuid.UUID, sizeLabel string, qty int) (CartDTO, error)
	ChangeQuantity(ctx context.Context, userID, itemID uuid.UUID, delta int) (CartDTO, error)
	SetSelected(ctx context.Context, userID, itemID uuid.UUID, selected bool) (CartDTO, error)
	RemoveItem(ctx context.Context, userID, itemID uuid.UUID) (CartDTO, error)
}

type service struct {
	cartRepo    *Repository
	productRepo *products.Repository
	maxLineQty  int
}

// NewService builds a cart service with the required dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.CartRepo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart repo is required")
	}
	if params.ProductRepo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product repo is required")
	}
	if params.MaxLineQty <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "max line qty must be positive")
	}
	return &service{
		cartRepo:    params.CartRepo,
		productRepo: params.ProductRepo,
		maxLineQty:  params.MaxLineQty,
	}, nil
}

// GetCart returns the cart joined with live product data.
func (s *service) GetCart(ctx context.Context, userID uuid.UUID) (CartDTO, error) {
	if userID == uuid.Nil {
		return CartDTO{}, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	return s.buildCart(ctx, userID)
}

// AddItem puts qty units of a product size into the cart. An existing
// row for the same (product, size) merges by incrementing its quantity.
func (s *service) AddItem(ctx context.Context, userID, productID uuid.UUID, sizeLabel string, qty int) (CartDTO, error) {
	if userID == uuid.Nil {
		return CartDTO{}, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	if productID == uuid.Nil || sizeLabel == "" {
		return CartDTO{}, pkgerrors.New(pkgerrors.CodeValidation, "product and size are required")
	}
	if qty < 1 {
		return CartDTO{}, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be at least 1")
	}

	product, size, err := s.loadProductSize(ctx, productID, sizeLabel)
	if err != nil {
		return CartDTO{}, err
	}

	existing, err := s.cartRepo.FindByProductSize(ctx, userID, productID, sizeLabel)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return CartDTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart row")
	}

	current := 0
	if existing != nil {
		current = existing.Quantity
	}
	next, err := s.checkQuantity(current+qty, size.AvailableQty)
	if err != nil {
		return CartDTO{}, err
	}

	if existing != nil {
		if err := s.cartRepo.UpdateQuantity(ctx, userID, existing.ID, next); err != nil {
			return CartDTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update cart row")
		}
	} else {
		row := models.CartItem{
			UserID:         userID,
			ProductID:      productID,
			SizeLabel:      sizeLabel,
			Quantity:       next,
			UnitPriceCents: product.PriceCents,
			Selected:       true,
		}
		if err := s.cartRepo.Create(ctx, &row); err != nil {
			return CartDTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create cart row")
		}
	}
	return s.buildCart(ctx, userID)
}

// ChangeQuantity adjusts an owned row by delta. Decrementing below one
// is a no-op so a tap-happy user never deletes a row by accident;
// removal is its own operation.
func (s *service) ChangeQuantity(ctx context.Context, userID, itemID uuid.UUID, delta int) (CartDTO, error) {
	if userID == uuid.Nil || itemID == uuid.Nil {
		return CartDTO{}, pkgerrors.New(pkgerrors.CodeValidation, "user id and item id are required")
	}
	if delta == 0 {
		return s.buildCart(ctx, userID)
	}

	item, err := s.cartRepo.FindByID(ctx, userID, itemID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return CartDTO{}, pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "cart item not found")
		}
		return CartDTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart row")
	}

	next := item.Quantity + delta
	if next < 1 {
		// decrement floor: leave the row at its current quantity
		return s.buildCart(ctx, userID)
	}

	if delta > 0 {
		_, size, err := s.loadProductSize(ctx, item.ProductID, item.SizeLabel)
		if err != nil {
			return CartDTO{}, err
		}
		if next, err = s.checkQuantity(next, size.AvailableQty); err != nil {
			return CartDTO{}, err
		}
	}

	if err := s.cartRepo.UpdateQuantity(ctx, userID, itemID, next); err != nil {
		return CartDTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update cart row")
	}
	return s.buildCart(ctx, userID)
}

// SetSelected toggles checkout participation for a row.
func (s *service) SetSelected(ctx context.Context, userID, itemID uuid.UUID, selected bool) (CartDTO, error) {
	if userID == uuid.Nil || itemID == uuid.Nil {
		return CartDTO{}, pkgerrors.New(pkgerrors.CodeValidation, "user id and item id are required")
	}
	if err := s.cartRepo.UpdateSelected(ctx, userID, itemID, selected); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return CartDTO{}, pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "cart item not found")
		}
		return CartDTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update cart row")
	}
	return s.buildCart(ctx, userID)
}

// RemoveItem deletes a row outright.
func (s *service) RemoveItem(ctx context.Context, userID, itemID uuid.UUID) (CartDTO, error) {
	if userID == uuid.Nil || itemID == uuid.Nil {
		return CartDTO{}, pkgerrors.New(pkgerrors.CodeValidation, "user id and item id are required")
	}
	if err := s.cartRepo.Delete(ctx, userID, itemID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return CartDTO{}, pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "cart item not found")
		}
		return CartDTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete cart row")
	}
	return s.buildCart(ctx, userID)
}

// checkQuantity enforces the two ceilings separately so the client can
// tell "we are out of stock" apart from "that is more than one order
// may carry".
func (s *service) checkQuantity(next, available int) (int, error) {
	if available < 1 {
		return 0, pkgerrors.New(pkgerrors.CodeInsufficientStock, "size is out of stock")
	}
	if next > s.maxLineQty {
		return 0, pkgerrors.New(pkgerrors.CodeQuantityLimit, "quantity limit reached").
			WithDetails(map[string]any{"max_qty": s.maxLineQty})
	}
	if next > available {
		return 0, pkgerrors.New(pkgerrors.CodeInsufficientStock, "not enough stock for requested quantity").
			WithDetails(map[string]any{"available_qty": available})
	}
	return next, nil
}

func (s *service) loadProductSize(ctx context.Context, productID uuid.UUID, sizeLabel string) (*models.Product, *models.ProductSize, error) {
	product, err := s.productRepo.FindByID(ctx, productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "product not found")
		}
		return nil, nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	for i := range product.Sizes {
		if product.Sizes[i].SizeLabel == sizeLabel {
			return product, &product.Sizes[i], nil
		}
	}
	return nil, nil, pkgerrors.New(pkgerrors.CodeValidation, "size not offered for this product").
		WithDetails(map[string]any{"size": sizeLabel})
}

func (s *service) buildCart(ctx context.Context, userID uuid.UUID) (CartDTO, error) {
	rows, err := s.cartRepo.ListByUser(ctx, userID)
	if err != nil {
		return CartDTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list cart")
	}
	if len(rows) == 0 {
		return CartDTO{Items: []CartItemDTO{}}, nil
	}

	ids := make([]uuid.UUID, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, row.ProductID)
	}
	byID, err := s.productRepo.FindManyByIDs(ctx, ids)
	if err != nil {
		return CartDTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart products")
	}

	dto := CartDTO{Items: make([]CartItemDTO, 0, len(rows))}
	subtotal := 0
	for _, row := range rows {
		product, ok := byID[row.ProductID]
		if !ok {
			// product was retired after the row was added; keep the row
			// visible but unsellable
			continue
		}
		available := 0
		for _, size := range product.Sizes {
			if size.SizeLabel == row.SizeLabel {
				available = size.AvailableQty
				break
			}
		}
		lineTotal := row.Quantity * row.UnitPriceCents
		if row.Selected {
			subtotal += lineTotal
			dto.SelectedCount++
		}
		dto.Items = append(dto.Items, CartItemDTO{
			ID:           row.ID,
			ProductID:    row.ProductID,
			Name:         product.Name,
			ImageURL:     product.ImageURL,
			SizeLabel:    row.SizeLabel,
			Quantity:     row.Quantity,
			UnitPrice:    types.NewMoney(row.UnitPriceCents),
			LineTotal:    types.NewMoney(lineTotal),
			Selected:     row.Selected,
			AvailableQty: available,
			AddedAt:      row.CreatedAt,
		})
	}
	dto.Subtotal = types.NewMoney(subtotal)
	return dto, nil
}
