package domain

import "errors"

var (
	// ErrNotFound indicates the requested entity was not found.
	ErrNotFound = errors.New("not found")
	// ErrInvalidPrice is returned when a price value cannot be decoded.
	ErrInvalidPrice = errors.New("invalid price")
)
