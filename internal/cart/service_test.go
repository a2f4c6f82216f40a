package cart

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	products "github.com/fitlinehq/fitline-backend/internal/products"
	"github.com/fitlinehq/fitline-backend/pkg/db/models"
	"github.com/fitlinehq/fitline-backend/pkg/enums"
	pkgerrors "github.com/fitlinehq/fitline-backend/pkg/errors"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:cart_%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.Product{}, &models.ProductSize{}, &models.CartItem{}))
	return db
}

func newTestService(t *testing.T, db *gorm.DB, maxLineQty int) Service {
	t.Helper()
	svc, err := NewService(ServiceParams{
		CartRepo:    NewRepository(db),
		ProductRepo: products.NewRepository(db),
		MaxLineQty:  maxLineQty,
	})
	require.NoError(t, err)
	return svc
}

func seedProduct(t *testing.T, db *gorm.DB, name string, priceCents int, sizes map[string]int) uuid.UUID {
	t.Helper()
	product := models.Product{
		ID:           uuid.New(),
		Name:         name,
		PriceCents:   priceCents,
		GarmentClass: enums.GarmentClassTop,
		IsActive:     true,
	}
	require.NoError(t, db.Create(&product).Error)
	for label, qty := range sizes {
		require.NoError(t, db.Create(&models.ProductSize{
			ProductID:    product.ID,
			SizeLabel:    label,
			AvailableQty: qty,
		}).Error)
	}
	return product.ID
}

func TestAddItemMergesSameProductSize(t *testing.T) {
	db := newTestDB(t)
	svc := newTestService(t, db, 20)
	userID := uuid.New()
	productID := seedProduct(t, db, "Linen Shirt", 25800, map[string]int{"M": 10})

	_, err := svc.AddItem(context.Background(), userID, productID, "M", 2)
	require.NoError(t, err)
	cart, err := svc.AddItem(context.Background(), userID, productID, "M", 3)
	require.NoError(t, err)

	require.Len(t, cart.Items, 1)
	assert.Equal(t, 5, cart.Items[0].Quantity)
	assert.Equal(t, 5*25800, cart.Subtotal.Cents)
}

func TestAddItemOverStock(t *testing.T) {
	db := newTestDB(t)
	svc := newTestService(t, db, 20)
	userID := uuid.New()
	productID := seedProduct(t, db, "Linen Shirt", 25800, map[string]int{"M": 3})

	_, err := svc.AddItem(context.Background(), userID, productID, "M", 4)
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeInsufficientStock))

	// merging past stock fails too
	_, err = svc.AddItem(context.Background(), userID, productID, "M", 2)
	require.NoError(t, err)
	_, err = svc.AddItem(context.Background(), userID, productID, "M", 2)
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeInsufficientStock))
}

func TestAddItemOverLineLimit(t *testing.T) {
	db := newTestDB(t)
	svc := newTestService(t, db, 5)
	userID := uuid.New()
	productID := seedProduct(t, db, "Linen Shirt", 25800, map[string]int{"M": 50})

	_, err := svc.AddItem(context.Background(), userID, productID, "M", 6)
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeQuantityLimit))
}

func TestAddItemUnknownSize(t *testing.T) {
	db := newTestDB(t)
	svc := newTestService(t, db, 20)
	userID := uuid.New()
	productID := seedProduct(t, db, "Linen Shirt", 25800, map[string]int{"M": 10})

	_, err := svc.AddItem(context.Background(), userID, productID, "XXL", 1)
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeValidation))
}

func TestChangeQuantityFloorsAtOne(t *testing.T) {
	db := newTestDB(t)
	svc := newTestService(t, db, 20)
	userID := uuid.New()
	productID := seedProduct(t, db, "Linen Shirt", 25800, map[string]int{"M": 10})

	cart, err := svc.AddItem(context.Background(), userID, productID, "M", 1)
	require.NoError(t, err)
	itemID := cart.Items[0].ID

	cart, err = svc.ChangeQuantity(context.Background(), userID, itemID, -1)
	require.NoError(t, err)
	require.Len(t, cart.Items, 1)
	assert.Equal(t, 1, cart.Items[0].Quantity)

	cart, err = svc.ChangeQuantity(context.Background(), userID, itemID, 3)
	require.NoError(t, err)
	assert.Equal(t, 4, cart.Items[0].Quantity)
}

func TestChangeQuantityCeilings(t *testing.T) {
	db := newTestDB(t)
	svc := newTestService(t, db, 5)
	userID := uuid.New()
	productID := seedProduct(t, db, "Linen Shirt", 25800, map[string]int{"M": 4})

	cart, err := svc.AddItem(context.Background(), userID, productID, "M", 3)
	require.NoError(t, err)
	itemID := cart.Items[0].ID

	_, err = svc.ChangeQuantity(context.Background(), userID, itemID, 2)
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeInsufficientStock))

	_, err = svc.ChangeQuantity(context.Background(), userID, uuid.New(), 1)
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeNotFound))
}

func TestSubtotalCoversSelectedRowsOnly(t *testing.T) {
	db := newTestDB(t)
	svc := newTestService(t, db, 20)
	userID := uuid.New()
	shirtID := seedProduct(t, db, "Linen Shirt", 25800, map[string]int{"M": 10})
	pantsID := seedProduct(t, db, "Chino Pants", 31200, map[string]int{"L": 10})

	_, err := svc.AddItem(context.Background(), userID, shirtID, "M", 2)
	require.NoError(t, err)
	cart, err := svc.AddItem(context.Background(), userID, pantsID, "L", 1)
	require.NoError(t, err)
	assert.Equal(t, 2, cart.SelectedCount)
	assert.Equal(t, 2*25800+31200, cart.Subtotal.Cents)

	var pantsItem uuid.UUID
	for _, item := range cart.Items {
		if item.ProductID == pantsID {
			pantsItem = item.ID
		}
	}
	cart, err = svc.SetSelected(context.Background(), userID, pantsItem, false)
	require.NoError(t, err)
	assert.Equal(t, 1, cart.SelectedCount)
	assert.Equal(t, 2*25800, cart.Subtotal.Cents)
	require.Len(t, cart.Items, 2)
}

func TestUnitPriceIsSnapshottedAtAddTime(t *testing.T) {
	db := newTestDB(t)
	svc := newTestService(t, db, 20)
	userID := uuid.New()
	productID := seedProduct(t, db, "Linen Shirt", 25800, map[string]int{"M": 10})

	_, err := svc.AddItem(context.Background(), userID, productID, "M", 1)
	require.NoError(t, err)

	require.NoError(t, db.Model(&models.Product{}).
		Where("id = ?", productID).
		Update("price_cents", 99900).Error)

	cart, err := svc.GetCart(context.Background(), userID)
	require.NoError(t, err)
	assert.Equal(t, 25800, cart.Items[0].UnitPrice.Cents)
}

func TestRemoveItemOwnedOnly(t *testing.T) {
	db := newTestDB(t)
	svc := newTestService(t, db, 20)
	userID := uuid.New()
	otherID := uuid.New()
	productID := seedProduct(t, db, "Linen Shirt", 25800, map[string]int{"M": 10})

	cart, err := svc.AddItem(context.Background(), userID, productID, "M", 1)
	require.NoError(t, err)
	itemID := cart.Items[0].ID

	_, err = svc.RemoveItem(context.Background(), otherID, itemID)
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeNotFound))

	cart, err = svc.RemoveItem(context.Background(), userID, itemID)
	require.NoError(t, err)
	assert.Empty(t, cart.Items)
}
