package remote

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"storefront/internal/domain"
)

// OrderRequest is the body of an order submission.
type OrderRequest struct {
	FullName      string             `json:"full_name"`
	Phone         string             `json:"phone"`
	Address       string             `json:"address"`
	City          string             `json:"city"`
	District      string             `json:"district"`
	PostalCode    string             `json:"postal_code"`
	PaymentMethod string             `json:"payment_method"`
	Items         []OrderRequestItem `json:"items"`
}

type OrderRequestItem struct {
	ProductID int64          `json:"product_id"`
	Quantity  int            `json:"quantity"`
	Variant   domain.Variant `json:"variant"`
}

func (c *Client) CreateOrder(ctx context.Context, accessToken string, in OrderRequest) (*domain.Order, error) {
	var out domain.Order
	if err := c.do(ctx, http.MethodPost, "/orders/", accessToken, in, &out); err != nil {
		return nil, err
	}
	if out.OrderNumber == "" {
		return nil, fmt.Errorf("%w: order without number", ErrMalformedResponse)
	}
	return &out, nil
}

func (c *Client) ListOrders(ctx context.Context, accessToken string) ([]domain.Order, error) {
	var raw json.RawMessage
	if err := c.do(ctx, http.MethodGet, "/orders/", accessToken, nil, &raw); err != nil {
		return nil, err
	}
	return decodeList[domain.Order](raw)
}

func (c *Client) GetOrder(ctx context.Context, accessToken string, id int64) (*domain.Order, error) {
	var out domain.Order
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/orders/%d/", id), accessToken, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) CancelOrder(ctx context.Context, accessToken string, id int64) error {
	return c.do(ctx, http.MethodPost, fmt.Sprintf("/orders/%d/cancel/", id), accessToken, nil, nil)
}
