package catalog

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"storefront/internal/domain"
	"storefront/internal/remote"
)

type catalogAPI interface {
	ListProducts(ctx context.Context, q remote.ProductQuery) ([]domain.Product, error)
	GetProduct(ctx context.Context, id int64) (*domain.Product, error)
	ListCategories(ctx context.Context) ([]domain.Category, error)
}

// Service reads the remote catalog. Product details are cached for ttl so
// cart prices follow remote changes; listings always go to the remote and
// refresh the cache entries they return.
type Service struct {
	api   catalogAPI
	cache *expirable.LRU[int64, domain.Product]
}

func New(api catalogAPI, cacheSize int, ttl time.Duration) (*Service, error) {
	if cacheSize < 1 {
		return nil, fmt.Errorf("catalog cache size must be positive, got %d", cacheSize)
	}
	if ttl <= 0 {
		return nil, fmt.Errorf("catalog cache ttl must be positive, got %s", ttl)
	}
	return &Service{api: api, cache: expirable.NewLRU[int64, domain.Product](cacheSize, nil, ttl)}, nil
}

func (s *Service) ListProducts(ctx context.Context, q remote.ProductQuery) ([]domain.Product, error) {
	products, err := s.api.ListProducts(ctx, q)
	if err != nil {
		return nil, err
	}
	for _, p := range products {
		s.cache.Add(p.ID, p)
	}
	return products, nil
}

// GetProduct returns domain.ErrNotFound when the remote has no such product.
func (s *Service) GetProduct(ctx context.Context, id int64) (*domain.Product, error) {
	if p, ok := s.cache.Get(id); ok {
		return &p, nil
	}
	p, err := s.api.GetProduct(ctx, id)
	if err != nil {
		var apiErr *remote.APIError
		if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	s.cache.Add(p.ID, *p)
	return p, nil
}

func (s *Service) ListCategories(ctx context.Context) ([]domain.Category, error) {
	return s.api.ListCategories(ctx)
}
