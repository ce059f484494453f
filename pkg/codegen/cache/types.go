package cache

import (
	"context"
	"time"

	"github.com/platinummonkey/avrobuild/pkg/codegen/config"
)

// Store is a key-value persistence backend for build state. Values are opaque
// bytes; callers usually go through GetJSON and PutJSON.
type Store interface {
	// Get returns the value for key or ErrCacheMiss
	Get(ctx context.Context, key string) ([]byte, error)

	// Put stores value under key, replacing any previous value
	Put(ctx context.Context, key string, value []byte) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases resources
	Close() error
}

// Store types accepted by Config.Type
const (
	TypeFile   = "file"
	TypeSQLite = "sqlite"
	TypeRedis  = "redis"
)

// Stats represents cache statistics
type Stats struct {
	Hits      int64
	Misses    int64
	HitRate   float64
	ItemCount int64
}

// Config holds cache configuration
type Config struct {
	Type string // "file", "sqlite" or "redis"

	// Dir is the cache root supplied by the host build tool. File stores live
	// in Dir/<name>, SQLite databases in Dir/<name>.db.
	Dir string

	// Redis
	RedisURL    string
	RedisPrefix string

	// In-memory front layer; disabled when L1Entries is zero
	L1Entries int
	L1TTL     time.Duration
}

// DefaultConfig returns default cache configuration
func DefaultConfig() *Config {
	return &Config{
		Type:        TypeFile,
		Dir:         config.DefaultCacheDir,
		RedisPrefix: config.DefaultRedisPrefix,
		L1Entries:   config.DefaultL1Entries,
		L1TTL:       config.DefaultL1TTL,
	}
}
