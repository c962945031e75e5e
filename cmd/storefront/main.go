package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"storefront/internal/config"
	"storefront/internal/httpserver"
	"storefront/internal/remote"
	cartsvc "storefront/internal/service/cart"
	catalogsvc "storefront/internal/service/catalog"
	ordersvc "storefront/internal/service/order"
	"storefront/internal/service/session"
	"storefront/internal/storage"
)

func main() {
	cfg := config.FromEnv()
	logger := log.New(os.Stdout, "[storefront] ", log.LstdFlags|log.LUTC|log.Lshortfile)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, closeStore, err := storage.Open(ctx, cfg, logger)
	if err != nil {
		logger.Fatalf("open storage: %v", err)
	}
	defer closeStore()

	api := remote.New(cfg.APIBaseURL, cfg.APITimeout, logger)

	sessionManager := session.New(api, store, logger)
	cartManager := cartsvc.New(store, logger)
	cartManager.Load(ctx)
	catalogService, err := catalogsvc.New(api, cfg.CatalogCacheSize, cfg.CatalogCacheTTL)
	if err != nil {
		logger.Fatalf("init catalog: %v", err)
	}
	orderService := ordersvc.New(api, cartManager, sessionManager, logger)

	srv, err := httpserver.New(cfg.HTTPAddr, logger, httpserver.Deps{
		Session: sessionManager,
		Cart:    cartManager,
		Catalog: catalogService,
		Orders:  orderService,
		Store:   store,

		AuthLimiter: rate.NewLimiter(rate.Limit(cfg.AuthRatePerSec), cfg.AuthRateBurst),
	}, cfg.AllowedOrigins)
	if err != nil {
		logger.Fatalf("init server: %v", err)
	}

	g, gctx := errgroup.WithContext(ctx)

	// routes that depend on the session answer 503 until this finishes
	g.Go(func() error {
		sessionManager.Restore(gctx)
		logger.Printf("session resolved: %s", sessionManager.State())
		return nil
	})

	g.Go(func() error {
		logger.Printf("starting http server on %s", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Printf("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Printf("graceful shutdown failed: %v", err)
			return err
		}
		logger.Printf("server stopped")
		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Printf("server error: %v", err)
	}
}
