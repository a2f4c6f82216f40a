package orders

import (
	"context"
	"fmt"
	"io"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	glogger "gorm.io/gorm/logger"

	"github.com/fitlinehq/fitline-backend/internal/cart"
	"github.com/fitlinehq/fitline-backend/internal/products"
	"github.com/fitlinehq/fitline-backend/pkg/db/models"
	"github.com/fitlinehq/fitline-backend/pkg/enums"
	pkgerrors "github.com/fitlinehq/fitline-backend/pkg/errors"
	"github.com/fitlinehq/fitline-backend/pkg/logger"
	"github.com/fitlinehq/fitline-backend/pkg/outbox"
	"github.com/fitlinehq/fitline-backend/pkg/pagination"
	"github.com/fitlinehq/fitline-backend/pkg/types"
)

const testDeliveryFee = 5800

type stubShipping struct {
	addr types.ShippingAddress
	err  error
}

func (s stubShipping) ResolveShipping(context.Context, uuid.UUID, *uuid.UUID) (types.ShippingAddress, error) {
	return s.addr, s.err
}

type stubNumbers struct {
	n int
}

func (s *stubNumbers) Next() (string, error) {
	s.n++
	return fmt.Sprintf("FL-20260901-%04d", s.n), nil
}

type fixture struct {
	db      *gorm.DB
	service Service
	user    uuid.UUID
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	dsn := fmt.Sprintf("file:orders_%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: glogger.Default.LogMode(glogger.Silent)})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.Product{}, &models.ProductSize{}, &models.CartItem{},
		&models.Order{}, &models.OrderLineItem{},
		&models.CancelledOrder{}, &models.CompletedOrder{},
		&models.TransitionReceipt{}, &models.OutboxEvent{},
	))

	logg := logger.New(logger.Options{ServiceName: "orders-test", Output: io.Discard})
	svc, err := NewService(ServiceParams{
		DB:          db,
		OrderRepo:   NewRepository(db),
		CartRepo:    cart.NewRepository(db),
		ProductRepo: products.NewRepository(db),
		Shipping: stubShipping{addr: types.ShippingAddress{
			RecipientName: "Dana Cho",
			Phone:         "010-1234-5678",
			Line1:         "12 Maple Street",
			City:          "Springfield",
			PostalCode:    "04523",
		}},
		Outbox:           outbox.NewService(outbox.NewRepository(db), logg),
		Numbers:          &stubNumbers{},
		Logger:           logg,
		DeliveryFeeCents: testDeliveryFee,
	})
	require.NoError(t, err)

	return &fixture{db: db, service: svc, user: uuid.New()}
}

func (f *fixture) seedProduct(t *testing.T, name string, priceCents int, sizes map[string]int) uuid.UUID {
	t.Helper()
	product := models.Product{
		ID:           uuid.New(),
		Name:         name,
		PriceCents:   priceCents,
		GarmentClass: enums.GarmentClassTop,
		IsActive:     true,
	}
	require.NoError(t, f.db.Create(&product).Error)
	for label, qty := range sizes {
		require.NoError(t, f.db.Create(&models.ProductSize{
			ProductID:    product.ID,
			SizeLabel:    label,
			AvailableQty: qty,
		}).Error)
	}
	return product.ID
}

func (f *fixture) addToCart(t *testing.T, productID uuid.UUID, size string, qty, unitCents int) {
	t.Helper()
	require.NoError(t, f.db.Create(&models.CartItem{
		UserID:         f.user,
		ProductID:      productID,
		SizeLabel:      size,
		Quantity:       qty,
		UnitPriceCents: unitCents,
		Selected:       true,
	}).Error)
}

func (f *fixture) size(t *testing.T, productID uuid.UUID, label string) models.ProductSize {
	t.Helper()
	var size models.ProductSize
	require.NoError(t, f.db.First(&size, "product_id = ? AND size_label = ?", productID, label).Error)
	return size
}

func (f *fixture) outboxEvents(t *testing.T, eventType enums.OutboxEventType) []models.OutboxEvent {
	t.Helper()
	var rows []models.OutboxEvent
	require.NoError(t, f.db.Where("event_type = ?", eventType).Find(&rows).Error)
	return rows
}

func TestCheckoutPlacesOneOrderPerGroup(t *testing.T) {
	f := newFixture(t)
	shirtID := f.seedProduct(t, "Linen Shirt", 25800, map[string]int{"M": 5})
	pantsID := f.seedProduct(t, "Chino Pants", 31200, map[string]int{"L": 5})
	f.addToCart(t, shirtID, "M", 2, 25800)
	f.addToCart(t, pantsID, "L", 1, 31200)

	placed, err := f.service.Checkout(context.Background(), CheckoutInput{UserID: f.user, Token: "tok-checkout-1"})
	require.NoError(t, err)
	require.Len(t, placed, 2)
	totals := map[string]int{}
	for _, order := range placed {
		assert.NotEmpty(t, order.OrderNumber)
		totals[order.OrderNumber] = order.Total.Cents
	}
	assert.Contains(t, totals, "FL-20260901-0001")
	assert.Contains(t, totals, "FL-20260901-0002")

	// cart is consumed
	var cartCount int64
	require.NoError(t, f.db.Model(&models.CartItem{}).Where("user_id = ?", f.user).Count(&cartCount).Error)
	assert.Zero(t, cartCount)

	// stock moved from available to reserved
	shirt := f.size(t, shirtID, "M")
	assert.Equal(t, 3, shirt.AvailableQty)
	assert.Equal(t, 2, shirt.ReservedQty)

	// one placed event per order, committed with the orders
	assert.Len(t, f.outboxEvents(t, enums.EventOrderPlaced), 2)

	// totals freeze subtotal + delivery fee
	detail, err := f.service.Get(context.Background(), f.user, placed[0].OrderID)
	require.NoError(t, err)
	assert.Equal(t, detail.Subtotal.Cents+testDeliveryFee, detail.Total.Cents)
	assert.Equal(t, enums.OrderStatusPending, detail.Status)
}

func TestCheckoutTokenReplayDoesNotReapply(t *testing.T) {
	f := newFixture(t)
	shirtID := f.seedProduct(t, "Linen Shirt", 25800, map[string]int{"M": 5})
	f.addToCart(t, shirtID, "M", 1, 25800)

	first, err := f.service.Checkout(context.Background(), CheckoutInput{UserID: f.user, Token: "tok-replay"})
	require.NoError(t, err)
	require.Len(t, first, 1)

	second, err := f.service.Checkout(context.Background(), CheckoutInput{UserID: f.user, Token: "tok-replay"})
	require.NoError(t, err)
	require.Len(t, second, 1)
	assert.Equal(t, first[0].OrderNumber, second[0].OrderNumber)

	var orderCount int64
	require.NoError(t, f.db.Model(&models.Order{}).Count(&orderCount).Error)
	assert.EqualValues(t, 1, orderCount)
	assert.Equal(t, 4, f.size(t, shirtID, "M").AvailableQty)
}

func TestCheckoutIsAllOrNothing(t *testing.T) {
	f := newFixture(t)
	shirtID := f.seedProduct(t, "Linen Shirt", 25800, map[string]int{"M": 5})
	scarfID := f.seedProduct(t, "Wool Scarf", 9900, map[string]int{"S": 1})
	f.addToCart(t, shirtID, "M", 2, 25800)
	f.addToCart(t, scarfID, "S", 3, 9900)

	_, err := f.service.Checkout(context.Background(), CheckoutInput{UserID: f.user, Token: "tok-partial"})
	require.Error(t, err)
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeInsufficientStock))

	// nothing moved: no orders, cart intact, stock untouched
	var orderCount int64
	require.NoError(t, f.db.Model(&models.Order{}).Count(&orderCount).Error)
	assert.Zero(t, orderCount)
	var cartCount int64
	require.NoError(t, f.db.Model(&models.CartItem{}).Where("user_id = ?", f.user).Count(&cartCount).Error)
	assert.EqualValues(t, 2, cartCount)
	assert.Equal(t, 5, f.size(t, shirtID, "M").AvailableQty)
	assert.Equal(t, 0, f.size(t, shirtID, "M").ReservedQty)
}

func TestCheckoutRequiresSelectedItems(t *testing.T) {
	f := newFixture(t)
	shirtID := f.seedProduct(t, "Linen Shirt", 25800, map[string]int{"M": 5})
	require.NoError(t, f.db.Create(&models.CartItem{
		UserID:         f.user,
		ProductID:      shirtID,
		SizeLabel:      "M",
		Quantity:       1,
		UnitPriceCents: 25800,
		Selected:       false,
	}).Error)

	_, err := f.service.Checkout(context.Background(), CheckoutInput{UserID: f.user, Token: "tok-empty"})
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeValidation))
}

func TestAdvanceStampsAndEmitsShipped(t *testing.T) {
	f := newFixture(t)
	shirtID := f.seedProduct(t, "Linen Shirt", 25800, map[string]int{"M": 5})
	f.addToCart(t, shirtID, "M", 1, 25800)
	placed, err := f.service.Checkout(context.Background(), CheckoutInput{UserID: f.user, Token: "tok-adv"})
	require.NoError(t, err)
	orderID := placed[0].OrderID

	// skipping a state is rejected
	err = f.service.Advance(context.Background(), orderID, enums.OrderStatusToReceive)
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeStateConflict))

	require.NoError(t, f.service.Advance(context.Background(), orderID, enums.OrderStatusToShip))
	detail, err := f.service.Get(context.Background(), f.user, orderID)
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusToShip, detail.Status)
	assert.NotNil(t, detail.PackedAt)

	require.NoError(t, f.service.Advance(context.Background(), orderID, enums.OrderStatusToReceive))
	detail, err = f.service.Get(context.Background(), f.user, orderID)
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusToReceive, detail.Status)
	assert.NotNil(t, detail.ShippedAt)
	assert.Len(t, f.outboxEvents(t, enums.EventOrderShipped), 1)
}

func TestCancelRestoresStockAndProjects(t *testing.T) {
	f := newFixture(t)
	shirtID := f.seedProduct(t, "Linen Shirt", 25800, map[string]int{"M": 5})
	f.addToCart(t, shirtID, "M", 2, 25800)
	placed, err := f.service.Checkout(context.Background(), CheckoutInput{UserID: f.user, Token: "tok-c1"})
	require.NoError(t, err)
	orderID := placed[0].OrderID

	dto, err := f.service.Cancel(context.Background(), CancelInput{UserID: f.user, OrderID: orderID, Token: "tok-c2"})
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusCancelled, dto.Status)
	assert.NotNil(t, dto.CancelledAt)

	// the live row is gone and stock is back
	var liveCount int64
	require.NoError(t, f.db.Model(&models.Order{}).Count(&liveCount).Error)
	assert.Zero(t, liveCount)
	size := f.size(t, shirtID, "M")
	assert.Equal(t, 5, size.AvailableQty)
	assert.Equal(t, 0, size.ReservedQty)
	assert.Len(t, f.outboxEvents(t, enums.EventOrderCancelled), 1)

	// a second cancel finds the projection, not an error
	again, err := f.service.Cancel(context.Background(), CancelInput{UserID: f.user, OrderID: orderID, Token: "tok-c3"})
	require.NoError(t, err)
	assert.Equal(t, dto.OrderNumber, again.OrderNumber)
	assert.Len(t, f.outboxEvents(t, enums.EventOrderCancelled), 1)
}

func TestCancelAfterShipmentIsRejected(t *testing.T) {
	f := newFixture(t)
	shirtID := f.seedProduct(t, "Linen Shirt", 25800, map[string]int{"M": 5})
	f.addToCart(t, shirtID, "M", 1, 25800)
	placed, err := f.service.Checkout(context.Background(), CheckoutInput{UserID: f.user, Token: "tok-s1"})
	require.NoError(t, err)
	orderID := placed[0].OrderID
	require.NoError(t, f.service.Advance(context.Background(), orderID, enums.OrderStatusToShip))
	require.NoError(t, f.service.Advance(context.Background(), orderID, enums.OrderStatusToReceive))

	_, err = f.service.Cancel(context.Background(), CancelInput{UserID: f.user, OrderID: orderID, Token: "tok-s2"})
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeStateConflict))
}

func TestMarkReceivedBurnsStockOnce(t *testing.T) {
	f := newFixture(t)
	shirtID := f.seedProduct(t, "Linen Shirt", 25800, map[string]int{"M": 5})
	f.addToCart(t, shirtID, "M", 2, 25800)
	placed, err := f.service.Checkout(context.Background(), CheckoutInput{UserID: f.user, Token: "tok-r1"})
	require.NoError(t, err)
	orderID := placed[0].OrderID
	require.NoError(t, f.service.Advance(context.Background(), orderID, enums.OrderStatusToShip))
	require.NoError(t, f.service.Advance(context.Background(), orderID, enums.OrderStatusToReceive))

	dto, err := f.service.MarkReceived(context.Background(), ReceiveInput{UserID: f.user, OrderID: orderID, Token: "tok-r2"})
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusCompleted, dto.Status)
	assert.NotNil(t, dto.ReceivedAt)

	size := f.size(t, shirtID, "M")
	assert.Equal(t, 3, size.AvailableQty)
	assert.Equal(t, 0, size.ReservedQty)
	var product models.Product
	require.NoError(t, f.db.First(&product, "id = ?", shirtID).Error)
	assert.Equal(t, 2, product.SoldCount)

	// double confirm: projection returned, no second sold increment
	again, err := f.service.MarkReceived(context.Background(), ReceiveInput{UserID: f.user, OrderID: orderID, Token: "tok-r3"})
	require.NoError(t, err)
	assert.Equal(t, dto.OrderNumber, again.OrderNumber)
	require.NoError(t, f.db.First(&product, "id = ?", shirtID).Error)
	assert.Equal(t, 2, product.SoldCount)
	assert.Len(t, f.outboxEvents(t, enums.EventOrderCompleted), 1)
}

func TestMarkReceivedBeforeShipmentIsRejected(t *testing.T) {
	f := newFixture(t)
	shirtID := f.seedProduct(t, "Linen Shirt", 25800, map[string]int{"M": 5})
	f.addToCart(t, shirtID, "M", 1, 25800)
	placed, err := f.service.Checkout(context.Background(), CheckoutInput{UserID: f.user, Token: "tok-e1"})
	require.NoError(t, err)

	_, err = f.service.MarkReceived(context.Background(), ReceiveInput{UserID: f.user, OrderID: placed[0].OrderID, Token: "tok-e2"})
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeStateConflict))
}

func completeOrder(t *testing.T, f *fixture, orderID uuid.UUID, token string) {
	t.Helper()
	require.NoError(t, f.service.Advance(context.Background(), orderID, enums.OrderStatusToShip))
	require.NoError(t, f.service.Advance(context.Background(), orderID, enums.OrderStatusToReceive))
	_, err := f.service.MarkReceived(context.Background(), ReceiveInput{UserID: f.user, OrderID: orderID, Token: token})
	require.NoError(t, err)
}

func TestBuyAgainShowsCurrentPriceAndStock(t *testing.T) {
	f := newFixture(t)
	shirtID := f.seedProduct(t, "Linen Shirt", 25800, map[string]int{"M": 5})
	f.addToCart(t, shirtID, "M", 2, 25800)
	placed, err := f.service.Checkout(context.Background(), CheckoutInput{UserID: f.user, Token: "tok-b1"})
	require.NoError(t, err)
	orderID := placed[0].OrderID
	completeOrder(t, f, orderID, "tok-b2")

	// price changed since the purchase
	require.NoError(t, f.db.Model(&models.Product{}).Where("id = ?", shirtID).Update("price_cents", 27900).Error)

	draft, err := f.service.BuyAgain(context.Background(), f.user, orderID)
	require.NoError(t, err)
	require.Len(t, draft.Lines, 1)
	assert.Equal(t, 25800, draft.Lines[0].PaidUnit.Cents)
	assert.Equal(t, 27900, draft.Lines[0].CurrentUnit.Cents)
	assert.True(t, draft.Lines[0].InStock)
	assert.Equal(t, "Dana Cho", draft.Address.RecipientName)
}

func TestRepeatPlacesNewOrdersAtCurrentPrice(t *testing.T) {
	f := newFixture(t)
	shirtID := f.seedProduct(t, "Linen Shirt", 25800, map[string]int{"M": 5})
	f.addToCart(t, shirtID, "M", 2, 25800)
	placed, err := f.service.Checkout(context.Background(), CheckoutInput{UserID: f.user, Token: "tok-p1"})
	require.NoError(t, err)
	orderID := placed[0].OrderID
	completeOrder(t, f, orderID, "tok-p2")

	require.NoError(t, f.db.Model(&models.Product{}).Where("id = ?", shirtID).Update("price_cents", 27900).Error)

	repeated, err := f.service.Repeat(context.Background(), RepeatInput{UserID: f.user, OrderID: orderID, Token: "tok-p3"})
	require.NoError(t, err)
	require.Len(t, repeated, 1)
	assert.NotEqual(t, placed[0].OrderNumber, repeated[0].OrderNumber)
	assert.Equal(t, 2*27900+testDeliveryFee, repeated[0].Total.Cents)

	// same token replays instead of re-placing
	again, err := f.service.Repeat(context.Background(), RepeatInput{UserID: f.user, OrderID: orderID, Token: "tok-p3"})
	require.NoError(t, err)
	assert.Equal(t, repeated[0].OrderNumber, again[0].OrderNumber)
	var liveCount int64
	require.NoError(t, f.db.Model(&models.Order{}).Count(&liveCount).Error)
	assert.EqualValues(t, 1, liveCount)
}

func TestListByStatusSpansProjections(t *testing.T) {
	f := newFixture(t)
	shirtID := f.seedProduct(t, "Linen Shirt", 25800, map[string]int{"M": 10})
	f.addToCart(t, shirtID, "M", 1, 25800)
	placed, err := f.service.Checkout(context.Background(), CheckoutInput{UserID: f.user, Token: "tok-l1"})
	require.NoError(t, err)
	completeOrder(t, f, placed[0].OrderID, "tok-l2")

	f.addToCart(t, shirtID, "M", 1, 25800)
	pending, err := f.service.Checkout(context.Background(), CheckoutInput{UserID: f.user, Token: "tok-l3"})
	require.NoError(t, err)

	page, err := f.service.ListByStatus(context.Background(), f.user, enums.OrderStatusPending, pagination.Params{})
	require.NoError(t, err)
	require.Len(t, page.Orders, 1)
	assert.Equal(t, pending[0].OrderNumber, page.Orders[0].OrderNumber)

	page, err = f.service.ListByStatus(context.Background(), f.user, enums.OrderStatusCompleted, pagination.Params{})
	require.NoError(t, err)
	require.Len(t, page.Orders, 1)
	assert.Equal(t, placed[0].OrderNumber, page.Orders[0].OrderNumber)
	assert.Equal(t, enums.OrderStatusCompleted, page.Orders[0].Status)
}
