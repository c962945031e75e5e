package catalog

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront/internal/domain"
	"storefront/internal/remote"
)

type stubCatalogAPI struct {
	products   []domain.Product
	product    *domain.Product
	productErr error
	getCalls   int
	categories []domain.Category
}

func (s *stubCatalogAPI) ListProducts(_ context.Context, _ remote.ProductQuery) ([]domain.Product, error) {
	return s.products, nil
}

func (s *stubCatalogAPI) GetProduct(_ context.Context, _ int64) (*domain.Product, error) {
	s.getCalls++
	return s.product, s.productErr
}

func (s *stubCatalogAPI) ListCategories(_ context.Context) ([]domain.Category, error) {
	return s.categories, nil
}

func TestGetProductCaches(t *testing.T) {
	api := &stubCatalogAPI{product: &domain.Product{ID: 3, Name: "Lamp", Price: 1999}}
	svc, err := New(api, 8, time.Minute)
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		p, err := svc.GetProduct(context.Background(), 3)
		require.NoError(t, err)
		assert.Equal(t, "Lamp", p.Name)
	}
	assert.Equal(t, 1, api.getCalls)
}

func TestGetProductRefetchesAfterTTL(t *testing.T) {
	api := &stubCatalogAPI{product: &domain.Product{ID: 3, Name: "Lamp", Price: 1999}}
	svc, err := New(api, 8, 20*time.Millisecond)
	require.NoError(t, err)

	_, err = svc.GetProduct(context.Background(), 3)
	require.NoError(t, err)

	api.product = &domain.Product{ID: 3, Name: "Lamp", Price: 2499}
	time.Sleep(50 * time.Millisecond)

	p, err := svc.GetProduct(context.Background(), 3)
	require.NoError(t, err)
	assert.Equal(t, domain.Price(2499), p.Price)
	assert.Equal(t, 2, api.getCalls)
}

func TestListProductsWarmsCache(t *testing.T) {
	api := &stubCatalogAPI{products: []domain.Product{{ID: 1, Name: "A"}, {ID: 2, Name: "B"}}}
	svc, err := New(api, 8, time.Minute)
	require.NoError(t, err)

	_, err = svc.ListProducts(context.Background(), remote.ProductQuery{})
	require.NoError(t, err)
	p, err := svc.GetProduct(context.Background(), 2)
	require.NoError(t, err)
	assert.Equal(t, "B", p.Name)
	assert.Zero(t, api.getCalls)
}

func TestGetProductNotFound(t *testing.T) {
	api := &stubCatalogAPI{productErr: &remote.APIError{StatusCode: http.StatusNotFound}}
	svc, err := New(api, 8, time.Minute)
	require.NoError(t, err)

	_, err = svc.GetProduct(context.Background(), 99)
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestNewRejectsBadCacheSettings(t *testing.T) {
	_, err := New(&stubCatalogAPI{}, 0, time.Minute)
	assert.Error(t, err)
	_, err = New(&stubCatalogAPI{}, 8, 0)
	assert.Error(t, err)
}
