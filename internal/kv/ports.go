// Package kv defines the persistent slot store: whole-value get and set of
// named keys, nothing else.
package kv

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Get when the key has never been written.
var ErrNotFound = errors.New("kv: key not found")

// Ports for storage adapters.
type (
	Store interface {
		// Get returns the whole value stored under key or ErrNotFound.
		Get(ctx context.Context, key string) ([]byte, error)
		// Set replaces the whole value stored under key.
		Set(ctx context.Context, key string, value []byte) error
	}

	// Closer is implemented by stores holding connections.
	Closer interface {
		Close() error
	}
)
