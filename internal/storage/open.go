package storage

import (
	"context"
	"fmt"
	"log"

	"storefront/internal/config"
	"storefront/internal/db"
	"storefront/internal/migrate"
)

// Open builds the store selected by cfg.StorageDriver. The returned close
// func releases backend resources and is safe to call once.
func Open(ctx context.Context, cfg config.Config, logger *log.Logger) (Store, func(), error) {
	switch cfg.StorageDriver {
	case config.StorageMemory:
		logger.Printf("using in-memory storage; state will not survive restarts")
		return NewMemory(), func() {}, nil
	case config.StorageFile:
		store, err := NewFile(cfg.StorageDir)
		if err != nil {
			return nil, nil, err
		}
		logger.Printf("using file storage in %s", cfg.StorageDir)
		return store, func() {}, nil
	case config.StoragePostgres:
		pool, err := db.Connect(ctx, cfg.DBConnString)
		if err != nil {
			return nil, nil, fmt.Errorf("connect to db: %w", err)
		}
		if err := migrate.Apply(ctx, pool); err != nil {
			pool.Close()
			return nil, nil, fmt.Errorf("apply migrations: %w", err)
		}
		logger.Printf("using postgres storage, namespace %q", cfg.StorageNamespace)
		return NewPostgres(pool, cfg.StorageNamespace), pool.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown storage driver %q", cfg.StorageDriver)
	}
}
