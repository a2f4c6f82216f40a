package notifications

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	glogger "gorm.io/gorm/logger"

	"github.com/fitlinehq/fitline-backend/pkg/db/models"
	"github.com/fitlinehq/fitline-backend/pkg/enums"
	pkgerrors "github.com/fitlinehq/fitline-backend/pkg/errors"
	"github.com/fitlinehq/fitline-backend/pkg/pagination"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:notifications_%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: glogger.Default.LogMode(glogger.Silent)})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.Notification{}))
	return db
}

func seedNotification(t *testing.T, db *gorm.DB, userID uuid.UUID, title string) uuid.UUID {
	t.Helper()
	row := models.Notification{
		UserID:  userID,
		Type:    enums.NotificationTypeOrderPlaced,
		Title:   title,
		Message: "Your order has been placed.",
	}
	require.NoError(t, db.Create(&row).Error)
	return row.ID
}

func TestListPagesWithUnreadCount(t *testing.T) {
	db := newTestDB(t)
	svc, err := NewService(NewRepository(db))
	require.NoError(t, err)
	userID := uuid.New()
	for i := 0; i < 3; i++ {
		seedNotification(t, db, userID, fmt.Sprintf("Notification %d", i))
	}
	seedNotification(t, db, uuid.New(), "someone else's")

	page, err := svc.List(context.Background(), userID, pagination.Params{Limit: 2})
	require.NoError(t, err)
	require.Len(t, page.Notifications, 2)
	assert.EqualValues(t, 3, page.UnreadCount)
	require.NotEmpty(t, page.NextCursor)

	rest, err := svc.List(context.Background(), userID, pagination.Params{Limit: 2, Cursor: page.NextCursor})
	require.NoError(t, err)
	require.Len(t, rest.Notifications, 1)
	assert.Empty(t, rest.NextCursor)
}

func TestMarkReadIsIdempotent(t *testing.T) {
	db := newTestDB(t)
	svc, err := NewService(NewRepository(db))
	require.NoError(t, err)
	userID := uuid.New()
	id := seedNotification(t, db, userID, "Order placed")

	require.NoError(t, svc.MarkRead(context.Background(), userID, id))
	var row models.Notification
	require.NoError(t, db.First(&row, "id = ?", id).Error)
	require.NotNil(t, row.ReadAt)
	first := *row.ReadAt

	// a second read keeps the original timestamp
	require.NoError(t, svc.MarkRead(context.Background(), userID, id))
	require.NoError(t, db.First(&row, "id = ?", id).Error)
	require.NotNil(t, row.ReadAt)
	assert.True(t, row.ReadAt.Equal(first))

	// rows owned by someone else look like they do not exist
	err = svc.MarkRead(context.Background(), uuid.New(), id)
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeNotFound))
}

func TestMarkAllRead(t *testing.T) {
	db := newTestDB(t)
	svc, err := NewService(NewRepository(db))
	require.NoError(t, err)
	userID := uuid.New()
	for i := 0; i < 3; i++ {
		seedNotification(t, db, userID, fmt.Sprintf("Notification %d", i))
	}

	count, err := svc.MarkAllRead(context.Background(), userID)
	require.NoError(t, err)
	assert.EqualValues(t, 3, count)

	page, err := svc.List(context.Background(), userID, pagination.Params{})
	require.NoError(t, err)
	assert.Zero(t, page.UnreadCount)

	// nothing left to mark
	count, err = svc.MarkAllRead(context.Background(), userID)
	require.NoError(t, err)
	assert.Zero(t, count)
}
