package services

import (
	"context"
	"time"
)

// KeyValueStore is the contract the idempotency guard and the session
// issuer rely on. A ttl of zero means the entry does not expire.
//
// SetIfAbsent must be atomic with respect to the backing store: of N
// concurrent calls for the same key, exactly one observes inserted == true.
// Read-then-write emulation is not an acceptable implementation.
//
// Implementations wrap transport failures with ErrUpstreamUnavailable so
// callers can fail closed without inspecting driver errors.
type KeyValueStore interface {
	SetIfAbsent(ctx context.Context, key string, value []byte, ttl time.Duration) (inserted bool, err error)
	Get(ctx context.Context, key string) (value []byte, found bool, err error)
	Exists(ctx context.Context, key string) (bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}
