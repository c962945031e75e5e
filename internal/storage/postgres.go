package storage

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"storefront/internal/domain"
)

// Postgres keeps records in the local_state table, scoped by namespace so
// several storefront installs can share one database.
type Postgres struct {
	pool      *pgxpool.Pool
	namespace string
}

func NewPostgres(pool *pgxpool.Pool, namespace string) *Postgres {
	return &Postgres{pool: pool, namespace: namespace}
}

func (p *Postgres) Get(ctx context.Context, key string) ([]byte, error) {
	if err := p.usable(key); err != nil {
		return nil, err
	}
	const q = `
SELECT value
FROM local_state
WHERE namespace = $1 AND key = $2
LIMIT 1
`
	var value []byte
	if err := p.pool.QueryRow(ctx, q, p.namespace, key).Scan(&value); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return value, nil
}

func (p *Postgres) Put(ctx context.Context, key string, value []byte) error {
	if err := p.usable(key); err != nil {
		return err
	}
	const q = `
INSERT INTO local_state (namespace, key, value, updated_at)
VALUES ($1, $2, $3, now())
ON CONFLICT (namespace, key) DO UPDATE
SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at
`
	_, err := p.pool.Exec(ctx, q, p.namespace, key, value)
	return err
}

func (p *Postgres) Delete(ctx context.Context, key string) error {
	if err := p.usable(key); err != nil {
		return err
	}
	_, err := p.pool.Exec(ctx, `DELETE FROM local_state WHERE namespace = $1 AND key = $2`, p.namespace, key)
	return err
}

func (p *Postgres) Ping(ctx context.Context) error {
	if p.pool == nil {
		return ErrNoPool
	}
	return p.pool.Ping(ctx)
}

func (p *Postgres) usable(key string) error {
	if p.pool == nil {
		return ErrNoPool
	}
	return validKey(key)
}
