package order

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"

	"storefront/internal/domain"
	"storefront/internal/remote"
)

var (
	// ErrNotAuthenticated is returned when an order operation needs a signed-in user.
	ErrNotAuthenticated = errors.New("not authenticated")
	// ErrEmptySelection is returned when checkout has no selected cart lines.
	ErrEmptySelection = errors.New("no cart lines selected")
	// ErrInvalidCheckout wraps shipping or payment validation failures.
	ErrInvalidCheckout = errors.New("invalid checkout")
)

const (
	// FreeShippingThreshold is the subtotal from which shipping is free.
	FreeShippingThreshold domain.Price = 20000
	// ShippingFee applies below FreeShippingThreshold.
	ShippingFee domain.Price = 3000

	defaultCity     = "กรุงเทพมหานคร"
	msgOrderFailed  = "could not place the order"
	msgOrderPlaced  = "order placed"
	msgSignInNeeded = "sign in before placing an order"
	msgNoSelection  = "select at least one item to check out"
)

type orderAPI interface {
	CreateOrder(ctx context.Context, accessToken string, in remote.OrderRequest) (*domain.Order, error)
	ListOrders(ctx context.Context, accessToken string) ([]domain.Order, error)
	GetOrder(ctx context.Context, accessToken string, id int64) (*domain.Order, error)
	CancelOrder(ctx context.Context, accessToken string, id int64) error
}

type cartLines interface {
	SelectedLines() []domain.CartLine
	Deduct(ctx context.Context, ordered map[string]int) error
}

type sessionTokens interface {
	AccessToken() string
	Invalidate(ctx context.Context, accessToken string)
}

// Service prices the selected cart lines and turns them into orders.
type Service struct {
	api     orderAPI
	cart    cartLines
	session sessionTokens
	logger  *log.Logger
}

func New(api orderAPI, cart cartLines, session sessionTokens, logger *log.Logger) *Service {
	return &Service{api: api, cart: cart, session: session, logger: logger}
}

// CheckoutInput is what the checkout form submits.
type CheckoutInput struct {
	Shipping      domain.ShippingInfo `json:"shipping"`
	PaymentMethod string              `json:"paymentMethod"`
}

// CheckoutResult reports the outcome of Checkout. Err carries the failure
// class for callers that need to map it, e.g. to an HTTP status.
type CheckoutResult struct {
	Success     bool          `json:"success"`
	Message     string        `json:"message"`
	OrderNumber string        `json:"orderNumber,omitempty"`
	Total       domain.Price  `json:"total,omitempty"`
	Order       *domain.Order `json:"order,omitempty"`
	Err         error         `json:"-"`
}

// Quote prices the currently selected lines.
func (s *Service) Quote() domain.Quote {
	return quoteLines(s.cart.SelectedLines())
}

func quoteLines(lines []domain.CartLine) domain.Quote {
	var q domain.Quote
	for _, l := range lines {
		q.Subtotal += l.Subtotal()
		q.ItemCount += l.Quantity
	}
	if len(lines) > 0 && q.Subtotal < FreeShippingThreshold {
		q.ShippingFee = ShippingFee
	}
	q.Total = q.Subtotal + q.ShippingFee - q.Discount
	return q
}

// Checkout submits the selected cart lines as an order. On success the
// ordered quantities leave the cart; unselected lines and units added while
// the order was in flight stay.
func (s *Service) Checkout(ctx context.Context, in CheckoutInput) CheckoutResult {
	token := s.session.AccessToken()
	if token == "" {
		return CheckoutResult{Message: msgSignInNeeded, Err: ErrNotAuthenticated}
	}
	lines := s.cart.SelectedLines()
	if len(lines) == 0 {
		return CheckoutResult{Message: msgNoSelection, Err: ErrEmptySelection}
	}
	shipping, method, err := normalize(in)
	if err != nil {
		return CheckoutResult{Message: err.Error(), Err: err}
	}

	req := remote.OrderRequest{
		FullName:      shipping.FullName,
		Phone:         shipping.Phone,
		Address:       shipping.Address,
		City:          shipping.City,
		District:      shipping.District,
		PostalCode:    shipping.PostalCode,
		PaymentMethod: method,
		Items:         make([]remote.OrderRequestItem, 0, len(lines)),
	}
	ordered := make(map[string]int, len(lines))
	for _, l := range lines {
		req.Items = append(req.Items, remote.OrderRequestItem{
			ProductID: l.ProductID,
			Quantity:  l.Quantity,
			Variant:   l.Variant,
		})
		ordered[l.LineID] = l.Quantity
	}

	placed, err := s.api.CreateOrder(ctx, token, req)
	if err != nil {
		s.logger.Printf("order: submit failed: %v", err)
		if remote.IsUnauthorized(err) {
			s.session.Invalidate(ctx, token)
			return CheckoutResult{Message: msgSignInNeeded, Err: ErrNotAuthenticated}
		}
		return CheckoutResult{Message: remoteMessage(err, msgOrderFailed), Err: err}
	}

	if err := s.cart.Deduct(ctx, ordered); err != nil {
		s.logger.Printf("order: %s placed but cart cleanup failed: %v", placed.OrderNumber, err)
	}
	s.logger.Printf("order: placed %s with %d lines", placed.OrderNumber, len(lines))
	return CheckoutResult{
		Success:     true,
		Message:     msgOrderPlaced,
		OrderNumber: placed.OrderNumber,
		Total:       placed.Total,
		Order:       placed,
	}
}

func normalize(in CheckoutInput) (domain.ShippingInfo, string, error) {
	sh := domain.ShippingInfo{
		FullName:   strings.TrimSpace(in.Shipping.FullName),
		Phone:      strings.TrimSpace(in.Shipping.Phone),
		Address:    strings.TrimSpace(in.Shipping.Address),
		City:       strings.TrimSpace(in.Shipping.City),
		District:   strings.TrimSpace(in.Shipping.District),
		PostalCode: strings.TrimSpace(in.Shipping.PostalCode),
	}
	if sh.City == "" {
		sh.City = defaultCity
	}
	var missing []string
	for _, f := range []struct{ name, value string }{
		{"fullName", sh.FullName},
		{"phone", sh.Phone},
		{"address", sh.Address},
		{"district", sh.District},
		{"postalCode", sh.PostalCode},
	} {
		if f.value == "" {
			missing = append(missing, f.name)
		}
	}
	if len(missing) > 0 {
		return sh, "", fmt.Errorf("%w: missing %s", ErrInvalidCheckout, strings.Join(missing, ", "))
	}

	method := strings.ToLower(strings.TrimSpace(in.PaymentMethod))
	if method == "" {
		method = domain.PaymentCOD
	}
	if !domain.ValidPaymentMethod(method) {
		return sh, "", fmt.Errorf("%w: unsupported payment method %q", ErrInvalidCheckout, method)
	}
	return sh, method, nil
}

// ListOrders returns the signed-in user's orders.
func (s *Service) ListOrders(ctx context.Context) ([]domain.Order, error) {
	token, err := s.token()
	if err != nil {
		return nil, err
	}
	orders, err := s.api.ListOrders(ctx, token)
	if err != nil {
		return nil, s.mapErr(ctx, token, err)
	}
	return orders, nil
}

func (s *Service) GetOrder(ctx context.Context, id int64) (*domain.Order, error) {
	token, err := s.token()
	if err != nil {
		return nil, err
	}
	o, err := s.api.GetOrder(ctx, token, id)
	if err != nil {
		return nil, s.mapErr(ctx, token, err)
	}
	return o, nil
}

func (s *Service) CancelOrder(ctx context.Context, id int64) error {
	token, err := s.token()
	if err != nil {
		return err
	}
	if err := s.api.CancelOrder(ctx, token, id); err != nil {
		return s.mapErr(ctx, token, err)
	}
	s.logger.Printf("order: cancelled %d", id)
	return nil
}

func (s *Service) token() (string, error) {
	token := s.session.AccessToken()
	if token == "" {
		return "", ErrNotAuthenticated
	}
	return token, nil
}

func (s *Service) mapErr(ctx context.Context, token string, err error) error {
	if remote.IsUnauthorized(err) {
		s.session.Invalidate(ctx, token)
		return ErrNotAuthenticated
	}
	var apiErr *remote.APIError
	if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound {
		return domain.ErrNotFound
	}
	return err
}

// RemoteMessage extracts the remote's display message from err, empty when
// the remote gave none.
func RemoteMessage(err error) string {
	return remoteMessage(err, "")
}

func remoteMessage(err error, fallback string) string {
	var apiErr *remote.APIError
	if errors.As(err, &apiErr) {
		if msg := apiErr.Message("detail", "error"); msg != "" {
			return msg
		}
	}
	return fallback
}
