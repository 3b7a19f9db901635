package domain

import (
	"context"
	"time"
)

// CacheError represents an error originating from the cache.
type CacheError string

func (e CacheError) Error() string {
	return string(e)
}

// ErrCacheMiss is returned when a key or field is not found in the cache.
const ErrCacheMiss = CacheError("cache: key not found")

// Cache is the key/hash store behind the credential store.
type Cache interface {
	// Delete removes a key. A missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Ping checks the health of the cache service.
	Ping(ctx context.Context) error

	// HGet returns ErrCacheMiss if the key or field is missing.
	HGet(ctx context.Context, key, field string) (string, error)

	// HGetAll returns an empty map for a missing key.
	HGetAll(ctx context.Context, key string) (map[string]string, error)

	HSet(ctx context.Context, key string, field string, value string) error

	// Expire sets a time to live on key.
	Expire(ctx context.Context, key string, expiration time.Duration) error
}
