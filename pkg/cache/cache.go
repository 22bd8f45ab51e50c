// Package cache provides a small key-value store abstraction used for
// ephemeral state (presence records). Values expire; nothing stored here is
// authoritative application data beyond its TTL.
package cache

import (
	"context"
	"time"
)

// Cache defines the interface for ephemeral key-value storage.
// Get returns ("", nil) for a missing key; absence is not an error.
type Cache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value string, expiration time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
}
