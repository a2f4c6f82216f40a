package returns

import (
	"context"
	"fmt"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	glogger "gorm.io/gorm/logger"

	"github.com/fitlinehq/fitline-backend/internal/orders"
	"github.com/fitlinehq/fitline-backend/pkg/config"
	"github.com/fitlinehq/fitline-backend/pkg/db/models"
	"github.com/fitlinehq/fitline-backend/pkg/enums"
	pkgerrors "github.com/fitlinehq/fitline-backend/pkg/errors"
	"github.com/fitlinehq/fitline-backend/pkg/logger"
	"github.com/fitlinehq/fitline-backend/pkg/outbox"
	"github.com/fitlinehq/fitline-backend/pkg/pagination"
	"github.com/fitlinehq/fitline-backend/pkg/types"
)

var testAddress = types.ShippingAddress{
	RecipientName: "Dana Cho",
	Phone:         "010-1234-5678",
	Line1:         "12 Maple Street",
	City:          "Springfield",
	PostalCode:    "04523",
}

type fixture struct {
	db      *gorm.DB
	service *service
	user    uuid.UUID
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	dsn := fmt.Sprintf("file:returns_%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: glogger.Default.LogMode(glogger.Silent)})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.CompletedOrder{}, &models.ReturnRequest{},
		&models.TransitionReceipt{}, &models.OutboxEvent{},
	))

	logg := logger.New(logger.Options{ServiceName: "returns-test", Output: io.Discard})
	svc, err := NewService(ServiceParams{
		DB:        db,
		Repo:      NewRepository(db),
		OrderRepo: orders.NewRepository(db),
		Outbox:    outbox.NewService(outbox.NewRepository(db), logg),
		Logger:    logg,
		Config:    config.ReturnsConfig{MinDescriptionLen: 30, PickupWindowDays: 3},
	})
	require.NoError(t, err)
	return &fixture{db: db, service: svc.(*service), user: uuid.New()}
}

func (f *fixture) seedCompleted(t *testing.T, lines ...types.OrderLineSnapshot) uuid.UUID {
	t.Helper()
	orderID := uuid.New()
	subtotal := 0
	for _, line := range lines {
		subtotal += line.TotalCents
	}
	require.NoError(t, f.db.Create(&models.CompletedOrder{
		OrderID:          orderID,
		OrderNumber:      "FL-20260815-ab12",
		UserID:           f.user,
		ShippingAddress:  testAddress,
		DeliveryFeeCents: 5800,
		SubtotalCents:    subtotal,
		TotalCents:       subtotal + 5800,
		Items:            lines,
		PlacedAt:         time.Now().UTC().Add(-96 * time.Hour),
		ReceivedAt:       time.Now().UTC().Add(-24 * time.Hour),
	}).Error)
	return orderID
}

func line(name, size string, qty, unitCents int) types.OrderLineSnapshot {
	return types.OrderLineSnapshot{
		ProductID:      uuid.New(),
		Name:           name,
		SizeLabel:      size,
		Qty:            qty,
		UnitPriceCents: unitCents,
		TotalCents:     qty * unitCents,
	}
}

func pickupInput(userID, orderID uuid.UUID, token string) ReturnInput {
	pickup := time.Now().UTC().Add(48 * time.Hour)
	return ReturnInput{
		UserID:      userID,
		OrderID:     orderID,
		Reason:      enums.ReturnReasonWrongSize,
		Description: "The shoulders are far too tight to wear comfortably.",
		Method:      enums.ReturnMethodPickup,
		PickupDate:  &pickup,
		Address:     testAddress,
		Token:       token,
	}
}

func TestRequestCreatesOnePendingRowPerLine(t *testing.T) {
	f := newFixture(t)
	orderID := f.seedCompleted(t,
		line("Linen Shirt", "M", 2, 25800),
		line("Chino Pants", "L", 1, 31200),
	)

	created, err := f.service.Request(context.Background(), pickupInput(f.user, orderID, "tok-ret-1"))
	require.NoError(t, err)
	require.Len(t, created, 2)
	refunds := map[string]int{}
	for _, request := range created {
		assert.Equal(t, enums.ReturnStatusPending, request.Status)
		refunds[request.Line.Name] = request.RefundCents
	}
	assert.Equal(t, 2*25800, refunds["Linen Shirt"])
	assert.Equal(t, 31200, refunds["Chino Pants"])

	// the completed projection is consumed
	var count int64
	require.NoError(t, f.db.Model(&models.CompletedOrder{}).Where("order_id = ?", orderID).Count(&count).Error)
	assert.Zero(t, count)

	// one event per return request
	var events int64
	require.NoError(t, f.db.Model(&models.OutboxEvent{}).
		Where("event_type = ?", enums.EventReturnRequested).Count(&events).Error)
	assert.EqualValues(t, 2, events)
}

func TestRequestTokenReplay(t *testing.T) {
	f := newFixture(t)
	orderID := f.seedCompleted(t, line("Linen Shirt", "M", 1, 25800))

	first, err := f.service.Request(context.Background(), pickupInput(f.user, orderID, "tok-ret-2"))
	require.NoError(t, err)
	second, err := f.service.Request(context.Background(), pickupInput(f.user, orderID, "tok-ret-2"))
	require.NoError(t, err)

	require.Len(t, second, 1)
	assert.Equal(t, first[0].ID, second[0].ID)
	var count int64
	require.NoError(t, f.db.Model(&models.ReturnRequest{}).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestRequestValidation(t *testing.T) {
	f := newFixture(t)
	orderID := f.seedCompleted(t, line("Linen Shirt", "M", 1, 25800))

	cases := []struct {
		name   string
		mutate func(*ReturnInput)
	}{
		{"short description", func(in *ReturnInput) { in.Description = "too tight" }},
		{"unknown reason", func(in *ReturnInput) { in.Reason = "shrunk" }},
		{"pickup without date", func(in *ReturnInput) { in.PickupDate = nil }},
		{"pickup too far out", func(in *ReturnInput) {
			late := time.Now().UTC().AddDate(0, 0, 10)
			in.PickupDate = &late
		}},
		{"dropoff without carrier", func(in *ReturnInput) {
			in.Method = enums.ReturnMethodDropoff
			in.Carrier = nil
		}},
		{"missing address", func(in *ReturnInput) { in.Address = types.ShippingAddress{} }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			input := pickupInput(f.user, orderID, "tok-bad")
			tc.mutate(&input)
			_, err := f.service.Request(context.Background(), input)
			assert.True(t, pkgerrors.Is(err, pkgerrors.CodeValidation))
		})
	}
}

func TestRequestDropoffWithCarrier(t *testing.T) {
	f := newFixture(t)
	orderID := f.seedCompleted(t, line("Linen Shirt", "M", 1, 25800))

	carrier := "CJ Logistics"
	input := pickupInput(f.user, orderID, "tok-drop")
	input.Method = enums.ReturnMethodDropoff
	input.PickupDate = nil
	input.Carrier = &carrier

	created, err := f.service.Request(context.Background(), input)
	require.NoError(t, err)
	require.Len(t, created, 1)
	require.NotNil(t, created[0].Carrier)
	assert.Equal(t, carrier, *created[0].Carrier)
}

func TestRequestAgainstMissingOrder(t *testing.T) {
	f := newFixture(t)
	_, err := f.service.Request(context.Background(), pickupInput(f.user, uuid.New(), "tok-miss"))
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeNotFound))
}

func TestCancelRequestDeletesPendingOnly(t *testing.T) {
	f := newFixture(t)
	orderID := f.seedCompleted(t, line("Linen Shirt", "M", 1, 25800))
	created, err := f.service.Request(context.Background(), pickupInput(f.user, orderID, "tok-cx"))
	require.NoError(t, err)

	// someone else's id does not match
	err = f.service.CancelRequest(context.Background(), uuid.New(), created[0].ID)
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeNotFound))

	require.NoError(t, f.service.CancelRequest(context.Background(), f.user, created[0].ID))
	var count int64
	require.NoError(t, f.db.Model(&models.ReturnRequest{}).Count(&count).Error)
	assert.Zero(t, count)

	// a settled request cannot be withdrawn
	settled := models.ReturnRequest{
		UserID:      f.user,
		OrderID:     orderID,
		OrderNumber: "FL-20260815-ab12",
		Line:        line("Linen Shirt", "M", 1, 25800),
		Reason:      enums.ReturnReasonWrongSize,
		Description: "The shoulders are far too tight to wear comfortably.",
		Method:      enums.ReturnMethodPickup,
		Address:     testAddress,
		RefundCents: 25800,
		Status:      enums.ReturnStatusRefunded,
	}
	require.NoError(t, f.db.Create(&settled).Error)
	err = f.service.CancelRequest(context.Background(), f.user, settled.ID)
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeNotFound))
}

func TestListPagesNewestFirst(t *testing.T) {
	f := newFixture(t)
	for i := 0; i < 3; i++ {
		orderID := f.seedCompleted(t, line(fmt.Sprintf("Item %d", i), "M", 1, 10000))
		_, err := f.service.Request(context.Background(), pickupInput(f.user, orderID, fmt.Sprintf("tok-list-%d", i)))
		require.NoError(t, err)
	}

	page, err := f.service.List(context.Background(), f.user, pagination.Params{Limit: 2})
	require.NoError(t, err)
	require.Len(t, page.Requests, 2)
	require.NotEmpty(t, page.NextCursor)

	rest, err := f.service.List(context.Background(), f.user, pagination.Params{Limit: 2, Cursor: page.NextCursor})
	require.NoError(t, err)
	require.Len(t, rest.Requests, 1)
	assert.Empty(t, rest.NextCursor)
}
