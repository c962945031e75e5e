package httpserver

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"storefront/internal/domain"
	"storefront/internal/remote"
	cartsvc "storefront/internal/service/cart"
	ordersvc "storefront/internal/service/order"
	"storefront/internal/service/session"
)

// SessionManager is the session surface the UI routes need.
type SessionManager interface {
	State() session.State
	Snapshot() session.Snapshot
	Login(ctx context.Context, email, password string) session.Result
	Register(ctx context.Context, in remote.RegisterInput) session.Result
	Logout(ctx context.Context) error
	Subscribe() (<-chan session.Snapshot, func())
}

// CartManager is the cart surface the UI routes need.
type CartManager interface {
	Snapshot() cartsvc.Snapshot
	AddItem(ctx context.Context, product *domain.Product, quantity int, variant domain.Variant) (domain.CartLine, error)
	RemoveItem(ctx context.Context, lineID string) error
	UpdateQuantity(ctx context.Context, lineID string, quantity int) error
	ToggleSelect(ctx context.Context, lineID string) error
	SelectAll(ctx context.Context, selected bool) error
	Clear(ctx context.Context) error
	Subscribe() (<-chan cartsvc.Snapshot, func())
}

type CatalogService interface {
	ListProducts(ctx context.Context, q remote.ProductQuery) ([]domain.Product, error)
	GetProduct(ctx context.Context, id int64) (*domain.Product, error)
	ListCategories(ctx context.Context) ([]domain.Category, error)
}

type OrderService interface {
	Quote() domain.Quote
	Checkout(ctx context.Context, in ordersvc.CheckoutInput) ordersvc.CheckoutResult
	ListOrders(ctx context.Context) ([]domain.Order, error)
	GetOrder(ctx context.Context, id int64) (*domain.Order, error)
	CancelOrder(ctx context.Context, id int64) error
}

// Pinger reports storage health for /readyz.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Deps bundles the managers and services injected at the root.
type Deps struct {
	Session SessionManager
	Cart    CartManager
	Catalog CatalogService
	Orders  OrderService
	Store   Pinger

	// AuthLimiter throttles login and register; nil disables throttling.
	AuthLimiter *rate.Limiter
}

func (d Deps) validate() error {
	switch {
	case d.Session == nil:
		return errors.New("session manager required")
	case d.Cart == nil:
		return errors.New("cart manager required")
	case d.Catalog == nil:
		return errors.New("catalog service required")
	case d.Orders == nil:
		return errors.New("order service required")
	}
	return nil
}

// buildRouter wires routes for the storefront UI. Event streams end when
// closing is closed.
func buildRouter(logger *log.Logger, deps Deps, allowedOrigins []string, closing <-chan struct{}) (*gin.Engine, error) {
	if err := deps.validate(); err != nil {
		return nil, err
	}
	if gin.Mode() != gin.TestMode {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.LoggerWithWriter(logger.Writer()), gin.Recovery())
	if len(allowedOrigins) > 0 {
		router.Use(cors.New(cors.Config{
			AllowOrigins:     allowedOrigins,
			AllowMethods:     []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Cache-Control"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}

	router.GET("/healthz", healthHandler)
	router.GET("/readyz", readyHandler(deps.Store))

	api := router.Group("/api")

	sessions := &sessionHandlers{session: deps.Session}
	api.GET("/session", sessions.get)
	api.GET("/session/events", streamHandler(closing, deps.Session.Subscribe, deps.Session.Snapshot))
	resolved := api.Group("/session", requireResolved(deps.Session))
	attempts := limitAttempts(deps.AuthLimiter)
	resolved.POST("/login", attempts, sessions.login)
	resolved.POST("/register", attempts, sessions.register)
	resolved.POST("/logout", sessions.logout)

	carts := &cartHandlers{cart: deps.Cart, catalog: deps.Catalog, logger: logger}
	api.GET("/cart", carts.get)
	api.GET("/cart/events", streamHandler(closing, deps.Cart.Subscribe, deps.Cart.Snapshot))
	api.POST("/cart/items", carts.add)
	api.PATCH("/cart/items/:lineId", carts.updateQuantity)
	api.DELETE("/cart/items/:lineId", carts.remove)
	api.POST("/cart/items/:lineId/toggle", carts.toggle)
	api.POST("/cart/select", carts.selectAll)
	api.DELETE("/cart", carts.clear)

	catalog := &catalogHandlers{catalog: deps.Catalog}
	api.GET("/products", catalog.listProducts)
	api.GET("/products/:id", catalog.getProduct)
	api.GET("/categories", catalog.listCategories)

	orders := &orderHandlers{orders: deps.Orders}
	api.GET("/checkout/quote", orders.quote)
	authed := api.Group("", requireResolved(deps.Session), requireAuthenticated(deps.Session))
	authed.POST("/checkout", orders.checkout)
	authed.GET("/orders", orders.list)
	authed.GET("/orders/:id", orders.get)
	authed.POST("/orders/:id/cancel", orders.cancel)

	return router, nil
}
