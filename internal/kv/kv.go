package kv

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/coursefinder/internal/shared"
)

// ErrNotFound is returned by [Store.Get] when the key is absent.
var ErrNotFound = errors.New("key not found")

// Store is an asynchronous, process-surviving string key-value store.
type Store interface {
	Get(ctx context.Context, key string) (string, error) // Get returns [ErrNotFound] for absent keys
	Set(ctx context.Context, key, value string) error    // Set creates or overwrites key
	Delete(ctx context.Context, key string) error        // Delete removes key; absent keys are not an error
	MultiDelete(ctx context.Context, keys ...string) error
	Close() error
}

// Open builds the [Store] selected by cfg.Driver.
func Open(ctx context.Context, cfg shared.StorageConfig) (Store, error) {
	switch cfg.Driver {
	case "", "sqlite":
		return OpenSQLite(ctx, cfg)
	case "redis":
		return OpenRedis(ctx, cfg)
	case "memory":
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("%w: %q", shared.ErrUnknownDriver, cfg.Driver)
	}
}

// Lookup reads key and reports whether it holds a value.
//
// Any error, including a backend failure, is reported as absence.
func Lookup(ctx context.Context, s Store, key string) (string, bool) {
	v, err := s.Get(ctx, key)
	if err != nil {
		return "", false
	}
	return v, true
}

// withTimeout bounds ctx by d when d is positive.
func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}
