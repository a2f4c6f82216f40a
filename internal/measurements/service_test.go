package measurements

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

	"github.com/fitlinehq/fitline-backend/pkg/db/models"
	"github.com/fitlinehq/fitline-backend/pkg/enums"
	pkgerrors "github.com/fitlinehq/fitline-backend/pkg/errors"
	"github.com/fitlinehq/fitline-backend/pkg/logger"
)

// memoryCache fakes the redis slice the service depends on.
type memoryCache struct {
	values map[string]string
	gets   int
	sets   int
}

func newMemoryCache() *memoryCache {
	return &memoryCache{values: map[string]string{}}
}

func (m *memoryCache) Get(_ context.Context, key string) (string, error) {
	m.gets++
	value, ok := m.values[key]
	if !ok {
		return "", fmt.Errorf("key not found")
	}
	return value, nil
}

func (m *memoryCache) Set(_ context.Context, key string, value any, _ time.Duration) error {
	m.sets++
	m.values[key] = fmt.Sprint(value)
	return nil
}

func (m *memoryCache) Del(_ context.Context, keys ...string) error {
	for _, key := range keys {
		delete(m.values, key)
	}
	return nil
}

func (m *memoryCache) SizingCacheKey(userID string) string {
	return "fl:cache:sizing:" + userID
}

func newTestService(t *testing.T, cache SizeCache) (Service, *gorm.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:measurements_%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: glogger.Default.LogMode(glogger.Silent)})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.Measurement{}))

	svc, err := NewService(ServiceParams{
		Repo:   NewRepository(db),
		Cache:  cache,
		Logger: logger.New(logger.Options{ServiceName: "measurements-test", Output: io.Discard}),
	})
	require.NoError(t, err)
	return svc, db
}

func validPayload() SavePayload {
	return SavePayload{
		HeightCM:   168,
		WeightKG:   65,
		WaistCM:    70,
		ShoulderCM: 45,
		ChestCM:    93,
		HipsCM:     95,
		BustCM:     90,
	}
}

func TestSaveRecomputesSizes(t *testing.T) {
	svc, _ := newTestService(t, newMemoryCache())
	userID := uuid.New()

	saved, err := svc.Save(context.Background(), userID, validPayload())
	require.NoError(t, err)
	assert.Equal(t, "M", saved.TopSize)
	assert.Equal(t, "M", saved.BottomSize)

	// a new capture replaces the row and the derived sizes
	larger := validPayload()
	larger.HeightCM = 180
	larger.WeightKG = 82
	larger.ShoulderCM = 51
	larger.ChestCM = 106
	larger.WaistCM = 86
	larger.HipsCM = 108
	saved, err = svc.Save(context.Background(), userID, larger)
	require.NoError(t, err)
	assert.Equal(t, "XL", saved.TopSize)
	assert.Equal(t, "XL", saved.BottomSize)

	got, err := svc.Get(context.Background(), userID)
	require.NoError(t, err)
	assert.Equal(t, "XL", got.TopSize)
	assert.Equal(t, 180.0, got.HeightCM)
}

func TestSaveRejectsInvalidValues(t *testing.T) {
	svc, _ := newTestService(t, nil)
	userID := uuid.New()

	bad := validPayload()
	bad.WaistCM = 0
	_, err := svc.Save(context.Background(), userID, bad)
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeValidation))

	bad = validPayload()
	bad.BustCM = -5
	_, err = svc.Save(context.Background(), userID, bad)
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeValidation))
}

func TestGetDefaultsWhenUnmeasured(t *testing.T) {
	svc, _ := newTestService(t, nil)

	got, err := svc.Get(context.Background(), uuid.New())
	require.NoError(t, err)
	assert.Equal(t, "M", got.TopSize)
	assert.Equal(t, "M", got.BottomSize)
	assert.Zero(t, got.HeightCM)
}

func TestRecommendedSizePerClass(t *testing.T) {
	svc, db := newTestService(t, nil)
	userID := uuid.New()
	require.NoError(t, db.Create(&models.Measurement{
		UserID: userID, HeightCM: 168, WeightKG: 65, WaistCM: 62,
		ShoulderCM: 45, ChestCM: 93, HipsCM: 85, BustCM: 90,
		TopSize: "M", BottomSize: "S",
	}).Error)

	top, err := svc.RecommendedSize(context.Background(), userID, enums.GarmentClassTop)
	require.NoError(t, err)
	assert.Equal(t, "M", top)

	bottom, err := svc.RecommendedSize(context.Background(), userID, enums.GarmentClassBottom)
	require.NoError(t, err)
	assert.Equal(t, "S", bottom)

	_, err = svc.RecommendedSize(context.Background(), userID, "outerwear")
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeValidation))
}

func TestRecommendedSizeUsesCache(t *testing.T) {
	cache := newMemoryCache()
	svc, db := newTestService(t, cache)
	userID := uuid.New()

	_, err := svc.Save(context.Background(), userID, validPayload())
	require.NoError(t, err)
	require.Equal(t, 1, cache.sets)

	// drop the row under the cache; the cached answer still serves
	require.NoError(t, db.Where("user_id = ?", userID).Delete(&models.Measurement{}).Error)
	size, err := svc.RecommendedSize(context.Background(), userID, enums.GarmentClassTop)
	require.NoError(t, err)
	assert.Equal(t, "M", size)
	assert.Equal(t, 1, cache.sets)

	// a cold cache falls back to the default and refills
	require.NoError(t, cache.Del(context.Background(), cache.SizingCacheKey(userID.String())))
	size, err = svc.RecommendedSize(context.Background(), userID, enums.GarmentClassTop)
	require.NoError(t, err)
	assert.Equal(t, "M", size)
	assert.Equal(t, 2, cache.sets)
}
