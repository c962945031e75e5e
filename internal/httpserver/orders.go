package httpserver

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"storefront/internal/domain"
	"storefront/internal/remote"
	ordersvc "storefront/internal/service/order"
)

type orderHandlers struct {
	orders OrderService
}

func (h *orderHandlers) quote(c *gin.Context) {
	c.JSON(http.StatusOK, h.orders.Quote())
}

func (h *orderHandlers) checkout(c *gin.Context) {
	var in ordersvc.CheckoutInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "invalid checkout payload"})
		return
	}
	res := h.orders.Checkout(c.Request.Context(), in)
	if !res.Success {
		c.JSON(statusFor(res.Err), res)
		return
	}
	c.JSON(http.StatusCreated, res)
}

func (h *orderHandlers) list(c *gin.Context) {
	orders, err := h.orders.ListOrders(c.Request.Context())
	if err != nil {
		writeOrderError(c, err)
		return
	}
	if orders == nil {
		orders = []domain.Order{}
	}
	c.JSON(http.StatusOK, gin.H{"results": orders, "count": len(orders)})
}

func (h *orderHandlers) get(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	o, err := h.orders.GetOrder(c.Request.Context(), id)
	if err != nil {
		writeOrderError(c, err)
		return
	}
	c.JSON(http.StatusOK, o)
}

func (h *orderHandlers) cancel(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := h.orders.CancelOrder(c.Request.Context(), id); err != nil {
		writeOrderError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "cancelled"})
}

func writeOrderError(c *gin.Context, err error) {
	msg := ordersvc.RemoteMessage(err)
	switch {
	case msg != "":
	case errors.Is(err, ordersvc.ErrNotAuthenticated):
		msg = "authentication required"
	case errors.Is(err, domain.ErrNotFound):
		msg = "order not found"
	default:
		msg = "order service unavailable"
	}
	c.JSON(statusFor(err), gin.H{"error": msg})
}

// statusFor maps order failures onto HTTP statuses. Remote 4xx answers pass
// through; anything else from the remote is a bad gateway.
func statusFor(err error) int {
	var apiErr *remote.APIError
	switch {
	case err == nil:
		return http.StatusInternalServerError
	case errors.Is(err, ordersvc.ErrNotAuthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, ordersvc.ErrEmptySelection), errors.Is(err, ordersvc.ErrInvalidCheckout):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.As(err, &apiErr) && apiErr.StatusCode >= 400 && apiErr.StatusCode < 500:
		return apiErr.StatusCode
	default:
		return http.StatusBadGateway
	}
}
