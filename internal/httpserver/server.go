package httpserver

import (
	"context"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

// Server wraps the HTTP server the storefront UI talks to.
type Server struct {
	httpServer *http.Server
	logger     *log.Logger
	closing    chan struct{}
}

// New builds a Server with all UI routes.
func New(addr string, logger *log.Logger, deps Deps, allowedOrigins []string) (*Server, error) {
	closing := make(chan struct{})
	router, err := buildRouter(logger, deps, allowedOrigins, closing)
	if err != nil {
		return nil, err
	}

	// no WriteTimeout: the event streams stay open for the page's lifetime
	httpSrv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}
	// Shutdown waits for handlers but never cancels their contexts, so open
	// event streams are told to finish here.
	var once sync.Once
	httpSrv.RegisterOnShutdown(func() {
		once.Do(func() { close(closing) })
	})

	return &Server{
		httpServer: httpSrv,
		logger:     logger,
		closing:    closing,
	}, nil
}

// ListenAndServe starts the HTTP server.
func (s *Server) ListenAndServe() error {
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully stops the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func healthHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func readyHandler(store Pinger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if store == nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "reason": "storage not configured"})
			return
		}
		ctx, cancel := context.WithTimeout(c.Request.Context(), time.Second)
		defer cancel()
		if err := store.Ping(ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "reason": "storage not reachable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	}
}
