package products

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/fitlinehq/fitline-backend/pkg/db/models"
	"github.com/fitlinehq/fitline-backend/pkg/enums"
	pkgerrors "github.com/fitlinehq/fitline-backend/pkg/errors"
	"github.com/fitlinehq/fitline-backend/pkg/pagination"
)

type stubSizeHinter struct {
	size      string
	lastClass enums.GarmentClass
}

func (s *stubSizeHinter) RecommendedSize(_ context.Context, _ uuid.UUID, class enums.GarmentClass) (string, error) {
	s.lastClass = class
	return s.size, nil
}

func TestListProductsSearchAndPaging(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := newTestService(t, db, nil)
	ctx := context.Background()

	seedCatalogProduct(t, db, "linen shirt", enums.GarmentClassTop, 12000)
	seedCatalogProduct(t, db, "linen trousers", enums.GarmentClassBottom, 15000)
	seedCatalogProduct(t, db, "wool coat", enums.GarmentClassTop, 30000)

	page, err := svc.ListProducts(ctx, "linen", pagination.Params{Limit: 10})
	require.NoError(t, err)
	assert.Len(t, page.Items, 2)
	assert.Empty(t, page.NextCursor)

	page, err = svc.ListProducts(ctx, "", pagination.Params{Limit: 2})
	require.NoError(t, err)
	assert.Len(t, page.Items, 2)
	assert.NotEmpty(t, page.NextCursor)

	rest, err := svc.ListProducts(ctx, "", pagination.Params{Limit: 2, Cursor: page.NextCursor})
	require.NoError(t, err)
	assert.Len(t, rest.Items, 1)
	assert.Empty(t, rest.NextCursor)
}

func TestGetProductDetailWithSizeHint(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	hinter := &stubSizeHinter{size: "L"}
	svc := newTestService(t, db, hinter)
	ctx := context.Background()

	productID := seedCatalogProduct(t, db, "denim jacket", enums.GarmentClassTop, 25000)
	require.NoError(t, db.Create(&models.ProductSize{ProductID: productID, SizeLabel: "M", AvailableQty: 4}).Error)
	require.NoError(t, db.Create(&models.ProductSize{ProductID: productID, SizeLabel: "L", AvailableQty: 2}).Error)

	detail, err := svc.GetProduct(ctx, uuid.New(), productID)
	require.NoError(t, err)
	assert.Equal(t, "denim jacket", detail.Name)
	assert.Equal(t, 25000, detail.Price.Cents)
	assert.Len(t, detail.Sizes, 2)
	assert.Equal(t, "L", detail.RecommendedSize)
	assert.Equal(t, enums.GarmentClassTop, hinter.lastClass)
}

func TestGetProductNotFound(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := newTestService(t, db, nil)

	_, err := svc.GetProduct(context.Background(), uuid.Nil, uuid.New())
	require.Error(t, err)
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeNotFound))
}

func TestGetProductHidesInactive(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := newTestService(t, db, nil)

	product := models.Product{Name: "retired tee", PriceCents: 9000, IsActive: false}
	require.NoError(t, db.Create(&product).Error)

	_, err := svc.GetProduct(context.Background(), uuid.Nil, product.ID)
	require.Error(t, err)
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeNotFound))
}

func newTestService(t *testing.T, db *gorm.DB, hinter SizeHinter) Service {
	t.Helper()
	svc, err := NewService(ServiceParams{
		ProductRepo: NewRepository(db),
		SizeHinter:  hinter,
	})
	require.NoError(t, err)
	return svc
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:products_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.Product{}, &models.ProductSize{}))
	return db
}

func seedCatalogProduct(t *testing.T, db *gorm.DB, name string, class enums.GarmentClass, priceCents int) uuid.UUID {
	t.Helper()
	product := models.Product{
		Name:         name,
		PriceCents:   priceCents,
		GarmentClass: class,
		IsActive:     true,
	}
	require.NoError(t, db.Create(&product).Error)
	return product.ID
}
