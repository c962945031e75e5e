package order

import (
	"context"
	"errors"
	"io"
	"log"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront/internal/domain"
	"storefront/internal/remote"
	cartsvc "storefront/internal/service/cart"
	"storefront/internal/storage"
)

type stubOrderAPI struct {
	beforeCreate func()

	created   *domain.Order
	createErr error
	lastReq   remote.OrderRequest
	lastToken string

	orders    []domain.Order
	listErr   error
	getErr    error
	cancelErr error
	cancelID  int64
}

func (s *stubOrderAPI) CreateOrder(_ context.Context, token string, in remote.OrderRequest) (*domain.Order, error) {
	s.lastToken = token
	s.lastReq = in
	if s.beforeCreate != nil {
		s.beforeCreate()
	}
	return s.created, s.createErr
}

func (s *stubOrderAPI) ListOrders(_ context.Context, token string) ([]domain.Order, error) {
	s.lastToken = token
	return s.orders, s.listErr
}

func (s *stubOrderAPI) GetOrder(_ context.Context, _ string, id int64) (*domain.Order, error) {
	if s.getErr != nil {
		return nil, s.getErr
	}
	return &domain.Order{ID: id}, nil
}

func (s *stubOrderAPI) CancelOrder(_ context.Context, _ string, id int64) error {
	s.cancelID = id
	return s.cancelErr
}

type stubSession struct {
	token       string
	invalidated string
}

func (s *stubSession) AccessToken() string { return s.token }

func (s *stubSession) Invalidate(_ context.Context, token string) {
	s.invalidated = token
	if s.token == token {
		s.token = ""
	}
}

func discardLogger() *log.Logger {
	return log.New(io.Discard, "", 0)
}

func newFixture(t *testing.T, token string) (*Service, *cartsvc.Manager, *stubOrderAPI, *stubSession) {
	t.Helper()
	cart := cartsvc.New(storage.NewMemory(), discardLogger())
	cart.Load(context.Background())
	api := &stubOrderAPI{}
	sess := &stubSession{token: token}
	return New(api, cart, sess, discardLogger()), cart, api, sess
}

func validInput() CheckoutInput {
	return CheckoutInput{
		Shipping: domain.ShippingInfo{
			FullName:   "Somchai Jaidee",
			Phone:      "0812345678",
			Address:    "99 Sukhumvit Rd",
			District:   "Watthana",
			PostalCode: "10110",
		},
		PaymentMethod: "cod",
	}
}

func TestQuoteShippingThreshold(t *testing.T) {
	ctx := context.Background()
	svc, cart, _, _ := newFixture(t, "tok")

	assert.Equal(t, domain.Quote{}, svc.Quote(), "empty selection has no fees")

	_, err := cart.AddItem(ctx, &domain.Product{ID: 1, Price: 5000}, 2, nil)
	require.NoError(t, err)
	q := svc.Quote()
	assert.Equal(t, domain.Price(10000), q.Subtotal)
	assert.Equal(t, ShippingFee, q.ShippingFee)
	assert.Equal(t, domain.Price(13000), q.Total)
	assert.Equal(t, 2, q.ItemCount)

	_, err = cart.AddItem(ctx, &domain.Product{ID: 1, Price: 5000}, 2, nil)
	require.NoError(t, err)
	q = svc.Quote()
	assert.Equal(t, FreeShippingThreshold, q.Subtotal)
	assert.Zero(t, q.ShippingFee)
	assert.Equal(t, FreeShippingThreshold, q.Total)
}

func TestCheckoutRequiresSession(t *testing.T) {
	svc, cart, api, _ := newFixture(t, "")
	_, err := cart.AddItem(context.Background(), &domain.Product{ID: 1, Price: 100}, 1, nil)
	require.NoError(t, err)

	res := svc.Checkout(context.Background(), validInput())
	assert.False(t, res.Success)
	assert.ErrorIs(t, res.Err, ErrNotAuthenticated)
	assert.Empty(t, api.lastToken)
}

func TestCheckoutRequiresSelection(t *testing.T) {
	ctx := context.Background()
	svc, cart, _, _ := newFixture(t, "tok")
	line, err := cart.AddItem(ctx, &domain.Product{ID: 1, Price: 100}, 1, nil)
	require.NoError(t, err)
	require.NoError(t, cart.ToggleSelect(ctx, line.LineID))

	res := svc.Checkout(ctx, validInput())
	assert.ErrorIs(t, res.Err, ErrEmptySelection)
}

func TestCheckoutValidatesShipping(t *testing.T) {
	ctx := context.Background()
	svc, cart, api, _ := newFixture(t, "tok")
	_, err := cart.AddItem(ctx, &domain.Product{ID: 1, Price: 100}, 1, nil)
	require.NoError(t, err)

	in := validInput()
	in.Shipping.Phone = "  "
	in.Shipping.PostalCode = ""
	res := svc.Checkout(ctx, in)
	assert.ErrorIs(t, res.Err, ErrInvalidCheckout)
	assert.Contains(t, res.Message, "phone")
	assert.Contains(t, res.Message, "postalCode")

	in = validInput()
	in.PaymentMethod = "bitcoin"
	res = svc.Checkout(ctx, in)
	assert.ErrorIs(t, res.Err, ErrInvalidCheckout)
	assert.Empty(t, api.lastToken, "invalid input must not reach the remote")
}

func TestCheckoutSubmitsSelectedLinesAndRemovesThem(t *testing.T) {
	ctx := context.Background()
	svc, cart, api, _ := newFixture(t, "tok")
	api.created = &domain.Order{ID: 1, OrderNumber: "ORD-20240101-0001", Total: 23000}

	ordered, err := cart.AddItem(ctx, &domain.Product{ID: 1, Price: 10000}, 2, domain.Variant{"size": "M"})
	require.NoError(t, err)
	kept, err := cart.AddItem(ctx, &domain.Product{ID: 2, Price: 500}, 1, nil)
	require.NoError(t, err)
	require.NoError(t, cart.ToggleSelect(ctx, kept.LineID))

	in := validInput()
	in.PaymentMethod = ""
	res := svc.Checkout(ctx, in)
	require.True(t, res.Success, res.Message)
	assert.Equal(t, "ORD-20240101-0001", res.OrderNumber)
	assert.Equal(t, domain.Price(23000), res.Total)

	assert.Equal(t, "tok", api.lastToken)
	assert.Equal(t, domain.PaymentCOD, api.lastReq.PaymentMethod)
	assert.Equal(t, "กรุงเทพมหานคร", api.lastReq.City)
	require.Len(t, api.lastReq.Items, 1)
	assert.Equal(t, remote.OrderRequestItem{ProductID: 1, Quantity: 2, Variant: domain.Variant{"size": "M"}}, api.lastReq.Items[0])

	lines := cart.Lines()
	require.Len(t, lines, 1)
	assert.Equal(t, kept.LineID, lines[0].LineID)
	assert.NotEqual(t, ordered.LineID, lines[0].LineID)
}

func TestCheckoutAcceptsRemotePaymentMethods(t *testing.T) {
	for _, method := range []string{domain.PaymentCOD, domain.PaymentBank, domain.PaymentCredit, " Bank "} {
		t.Run(method, func(t *testing.T) {
			ctx := context.Background()
			svc, cart, api, _ := newFixture(t, "tok")
			api.created = &domain.Order{ID: 1, OrderNumber: "ORD-1"}
			_, err := cart.AddItem(ctx, &domain.Product{ID: 1, Price: 100}, 1, nil)
			require.NoError(t, err)

			in := validInput()
			in.PaymentMethod = method
			res := svc.Checkout(ctx, in)
			require.True(t, res.Success, res.Message)
			assert.Equal(t, strings.ToLower(strings.TrimSpace(method)), api.lastReq.PaymentMethod)
		})
	}

	svc, cart, api, _ := newFixture(t, "tok")
	_, err := cart.AddItem(context.Background(), &domain.Product{ID: 1, Price: 100}, 1, nil)
	require.NoError(t, err)
	in := validInput()
	in.PaymentMethod = "bank_transfer"
	res := svc.Checkout(context.Background(), in)
	assert.ErrorIs(t, res.Err, ErrInvalidCheckout)
	assert.Empty(t, api.lastToken)
}

func TestCheckoutKeepsUnitsAddedWhileSubmitting(t *testing.T) {
	ctx := context.Background()
	svc, cart, api, _ := newFixture(t, "tok")
	api.created = &domain.Order{ID: 1, OrderNumber: "ORD-1"}

	mug := &domain.Product{ID: 1, Price: 100}
	line, err := cart.AddItem(ctx, mug, 2, nil)
	require.NoError(t, err)
	api.beforeCreate = func() {
		_, err := cart.AddItem(ctx, mug, 3, nil)
		require.NoError(t, err)
	}

	res := svc.Checkout(ctx, validInput())
	require.True(t, res.Success, res.Message)
	assert.Equal(t, 2, api.lastReq.Items[0].Quantity)

	lines := cart.Lines()
	require.Len(t, lines, 1)
	assert.Equal(t, line.LineID, lines[0].LineID)
	assert.Equal(t, 3, cart.ItemCount())
}

func TestCheckoutRemoteFailureKeepsCart(t *testing.T) {
	ctx := context.Background()
	svc, cart, api, _ := newFixture(t, "tok")
	api.createErr = &remote.APIError{StatusCode: http.StatusBadRequest, Body: map[string]any{"detail": "out of stock"}}
	_, err := cart.AddItem(ctx, &domain.Product{ID: 1, Price: 100}, 1, nil)
	require.NoError(t, err)

	res := svc.Checkout(ctx, validInput())
	assert.False(t, res.Success)
	assert.Equal(t, "out of stock", res.Message)
	assert.Len(t, cart.Lines(), 1)

	api.createErr = errors.New("connection reset")
	res = svc.Checkout(ctx, validInput())
	assert.Equal(t, msgOrderFailed, res.Message)
}

func TestCheckoutUnauthorizedInvalidatesSession(t *testing.T) {
	ctx := context.Background()
	svc, cart, api, sess := newFixture(t, "tok")
	api.createErr = &remote.APIError{StatusCode: http.StatusUnauthorized}
	_, err := cart.AddItem(ctx, &domain.Product{ID: 1, Price: 100}, 1, nil)
	require.NoError(t, err)

	res := svc.Checkout(ctx, validInput())
	assert.ErrorIs(t, res.Err, ErrNotAuthenticated)
	assert.Equal(t, "tok", sess.invalidated)
}

func TestOrderHistory(t *testing.T) {
	ctx := context.Background()

	t.Run("anonymous", func(t *testing.T) {
		svc, _, _, _ := newFixture(t, "")
		_, err := svc.ListOrders(ctx)
		assert.ErrorIs(t, err, ErrNotAuthenticated)
		assert.ErrorIs(t, svc.CancelOrder(ctx, 1), ErrNotAuthenticated)
	})

	t.Run("list and not found", func(t *testing.T) {
		svc, _, api, _ := newFixture(t, "tok")
		api.orders = []domain.Order{{ID: 1}, {ID: 2}}
		orders, err := svc.ListOrders(ctx)
		require.NoError(t, err)
		assert.Len(t, orders, 2)

		api.getErr = &remote.APIError{StatusCode: http.StatusNotFound}
		_, err = svc.GetOrder(ctx, 5)
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("cancel refused by remote", func(t *testing.T) {
		svc, _, api, _ := newFixture(t, "tok")
		api.cancelErr = &remote.APIError{StatusCode: http.StatusBadRequest, Body: map[string]any{"error": "already delivered"}}
		err := svc.CancelOrder(ctx, 7)
		require.Error(t, err)
		assert.Equal(t, int64(7), api.cancelID)
		assert.Equal(t, "already delivered", RemoteMessage(err))
	})
}
