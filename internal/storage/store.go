// Package storage persists the storefront's local state records.
//
// Records are opaque byte slices addressed by a short key. The session and
// cart managers use independent keys; no cross-key transaction is offered.
package storage

import (
	"context"
	"errors"
	"regexp"
)

// Keys of the records written by the storefront.
const (
	KeyCredentials = "credentials"
	KeyCart        = "cart"
)

var (
	// ErrInvalidKey is returned for keys outside [a-z0-9_-].
	ErrInvalidKey = errors.New("invalid storage key")
	// ErrNoPool is returned by a Postgres store built without a pool.
	ErrNoPool = errors.New("storage: no database pool")
)

var keyPattern = regexp.MustCompile(`^[a-z0-9_-]{1,64}$`)

// Store is a durable key/value store for local state records.
type Store interface {
	// Get returns the record for key, or domain.ErrNotFound when absent.
	Get(ctx context.Context, key string) ([]byte, error)
	// Put stores value under key, replacing any previous record.
	Put(ctx context.Context, key string, value []byte) error
	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
	// Ping reports whether the backend is usable.
	Ping(ctx context.Context) error
}

func validKey(key string) error {
	if !keyPattern.MatchString(key) {
		return ErrInvalidKey
	}
	return nil
}
