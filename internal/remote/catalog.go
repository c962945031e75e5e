package remote

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"storefront/internal/domain"
)

// ProductQuery filters the product listing.
type ProductQuery struct {
	Search   string
	Category int64
}

func (q ProductQuery) encode() string {
	v := url.Values{}
	if q.Search != "" {
		v.Set("search", q.Search)
	}
	if q.Category > 0 {
		v.Set("category", strconv.FormatInt(q.Category, 10))
	}
	if len(v) == 0 {
		return ""
	}
	return "?" + v.Encode()
}

func (c *Client) ListProducts(ctx context.Context, q ProductQuery) ([]domain.Product, error) {
	var raw json.RawMessage
	if err := c.do(ctx, http.MethodGet, "/products/"+q.encode(), "", nil, &raw); err != nil {
		return nil, err
	}
	return decodeList[domain.Product](raw)
}

func (c *Client) GetProduct(ctx context.Context, id int64) (*domain.Product, error) {
	var out domain.Product
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/products/%d/", id), "", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) ListCategories(ctx context.Context) ([]domain.Category, error) {
	var raw json.RawMessage
	if err := c.do(ctx, http.MethodGet, "/categories/", "", nil, &raw); err != nil {
		return nil, err
	}
	return decodeList[domain.Category](raw)
}
