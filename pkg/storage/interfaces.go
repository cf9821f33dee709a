package storage

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned by Get when the key does not exist. Callers use
// it to distinguish "record absent" from store connectivity failures, which
// surface as other errors.
var ErrNotFound = errors.New("storage: key not found")

// KVStore is the flat key-value store shared by all tenants.
//
// Every method takes a context so request-scoped deadlines propagate into
// the store; implementations must honor cancellation.
type KVStore interface {
	// Get returns the value at key, or ErrNotFound.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set writes the value at key.
	Set(ctx context.Context, key string, value []byte) error

	// Keys returns all keys matching a glob-style pattern. Patterns are
	// expected to be tenant-prefix scoped; a bare "*" scan is a bug in the
	// caller.
	Keys(ctx context.Context, pattern string) ([]string, error)

	// SMembers returns the members of the set at key. A missing key is an
	// empty set, not an error.
	SMembers(ctx context.Context, key string) ([]string, error)

	// TxSet writes several keys atomically. Used by record writers so a
	// membership and its index entries never exist half-created.
	TxSet(ctx context.Context, values map[string][]byte) error

	// Ping checks connectivity.
	Ping(ctx context.Context) error

	// Close releases the underlying connections.
	Close() error
}

// Config holds store connection settings.
type Config struct {
	RedisURL        string
	RedisPassword   string
	RedisDB         int
	RedisMaxRetries int
	RedisPoolSize   int

	// OpTimeout bounds every individual store operation.
	OpTimeout time.Duration
}

// DefaultConfig returns sensible defaults for local development.
func DefaultConfig() Config {
	return Config{
		RedisURL:        "redis://localhost:6379",
		RedisDB:         0,
		RedisMaxRetries: 3,
		RedisPoolSize:   10,
		OpTimeout:       3 * time.Second,
	}
}
