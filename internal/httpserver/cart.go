package httpserver

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"storefront/internal/domain"
)

type cartHandlers struct {
	cart    CartManager
	catalog CatalogService
	logger  *log.Logger
}

type addItemRequest struct {
	ProductID int64          `json:"productId" binding:"required"`
	Quantity  int            `json:"quantity"`
	Variant   domain.Variant `json:"variant"`
}

type quantityRequest struct {
	Quantity *int `json:"quantity" binding:"required"`
}

type selectRequest struct {
	Selected *bool `json:"selected" binding:"required"`
}

func (h *cartHandlers) get(c *gin.Context) {
	c.JSON(http.StatusOK, h.cart.Snapshot())
}

// add prices the line from the catalog, never from the request body.
func (h *cartHandlers) add(c *gin.Context) {
	var req addItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "productId required"})
		return
	}
	product, err := h.catalog.GetProduct(c.Request.Context(), req.ProductID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "product not found"})
			return
		}
		h.logger.Printf("cart: lookup product %d: %v", req.ProductID, err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "catalog unavailable"})
		return
	}
	if _, err := h.cart.AddItem(c.Request.Context(), product, req.Quantity, req.Variant); err != nil {
		h.persistFailed(c, err)
		return
	}
	c.JSON(http.StatusCreated, h.cart.Snapshot())
}

func (h *cartHandlers) updateQuantity(c *gin.Context) {
	var req quantityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "quantity required"})
		return
	}
	if err := h.cart.UpdateQuantity(c.Request.Context(), c.Param("lineId"), *req.Quantity); err != nil {
		h.persistFailed(c, err)
		return
	}
	c.JSON(http.StatusOK, h.cart.Snapshot())
}

func (h *cartHandlers) remove(c *gin.Context) {
	if err := h.cart.RemoveItem(c.Request.Context(), c.Param("lineId")); err != nil {
		h.persistFailed(c, err)
		return
	}
	c.JSON(http.StatusOK, h.cart.Snapshot())
}

func (h *cartHandlers) toggle(c *gin.Context) {
	if err := h.cart.ToggleSelect(c.Request.Context(), c.Param("lineId")); err != nil {
		h.persistFailed(c, err)
		return
	}
	c.JSON(http.StatusOK, h.cart.Snapshot())
}

func (h *cartHandlers) selectAll(c *gin.Context) {
	var req selectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "selected required"})
		return
	}
	if err := h.cart.SelectAll(c.Request.Context(), *req.Selected); err != nil {
		h.persistFailed(c, err)
		return
	}
	c.JSON(http.StatusOK, h.cart.Snapshot())
}

func (h *cartHandlers) clear(c *gin.Context) {
	if err := h.cart.Clear(c.Request.Context()); err != nil {
		h.persistFailed(c, err)
		return
	}
	c.JSON(http.StatusOK, h.cart.Snapshot())
}

// persistFailed answers with the in-memory cart, which already holds the
// change, and flags that it was not saved.
func (h *cartHandlers) persistFailed(c *gin.Context, err error) {
	h.logger.Printf("cart: %v", err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": "cart change not saved", "cart": h.cart.Snapshot()})
}
