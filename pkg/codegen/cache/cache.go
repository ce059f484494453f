package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru/v2/expirable"
)

// LayeredStore fronts a backing store with an in-memory LRU. Writes go
// through to the backing store; reads are served from memory when possible.
type LayeredStore struct {
	l1      *lru.LRU[string, []byte]
	backing Store
	metrics *metrics
}

// NewLayeredStore creates a layered store over backing
func NewLayeredStore(backing Store, config *Config) *LayeredStore {
	if config == nil {
		config = DefaultConfig()
	}

	entries := config.L1Entries
	if entries < 10 {
		entries = 10 // Minimum 10 entries
	}

	return &LayeredStore{
		l1:      lru.NewLRU[string, []byte](entries, nil, config.L1TTL),
		backing: backing,
		metrics: newMetrics(),
	}
}

// Get implements Store.Get
func (s *LayeredStore) Get(ctx context.Context, key string) ([]byte, error) {
	if err := ValidateKey(key); err != nil {
		return nil, err
	}

	if value, ok := s.l1.Get(key); ok {
		s.metrics.recordHit()
		return value, nil
	}

	value, err := s.backing.Get(ctx, key)
	if err != nil {
		if errors.Is(err, ErrCacheMiss) {
			s.metrics.recordMiss()
		}
		return nil, err
	}

	s.metrics.recordHit()
	s.l1.Add(key, value)
	return value, nil
}

// Put implements Store.Put
func (s *LayeredStore) Put(ctx context.Context, key string, value []byte) error {
	if err := s.backing.Put(ctx, key, value); err != nil {
		return err
	}
	s.l1.Add(key, value)
	return nil
}

// Delete implements Store.Delete
func (s *LayeredStore) Delete(ctx context.Context, key string) error {
	s.l1.Remove(key)
	return s.backing.Delete(ctx, key)
}

// Stats returns cache statistics
func (s *LayeredStore) Stats() *Stats {
	stats := &Stats{
		Hits:      s.metrics.getHits(),
		Misses:    s.metrics.getMisses(),
		ItemCount: int64(s.l1.Len()),
	}

	total := stats.Hits + stats.Misses
	if total > 0 {
		stats.HitRate = float64(stats.Hits) / float64(total)
	}
	return stats
}

// Close releases resources
func (s *LayeredStore) Close() error {
	s.l1.Purge()
	return s.backing.Close()
}

// Open builds the store called name from config. Stores with different names
// never see each other's keys.
func Open(config *Config, name string) (Store, error) {
	if config == nil {
		config = DefaultConfig()
	}

	var (
		backing Store
		err     error
	)
	switch config.Type {
	case TypeFile, "":
		backing, err = NewFileStore(filepath.Join(config.Dir, name))
	case TypeSQLite:
		backing, err = OpenSQLite(filepath.Join(config.Dir, name+".db"))
	case TypeRedis:
		backing, err = OpenRedis(config.RedisURL, config.RedisPrefix+name+":")
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownStoreType, config.Type)
	}
	if err != nil {
		return nil, err
	}

	if config.L1Entries > 0 {
		return NewLayeredStore(backing, config), nil
	}
	return backing, nil
}

// GetJSON reads key from s and decodes it into v
func GetJSON(ctx context.Context, s Store, key string, v any) error {
	data, err := s.Get(ctx, key)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to decode cache entry %s: %w", key, err)
	}
	return nil
}

// PutJSON encodes v and stores it under key
func PutJSON(ctx context.Context, s Store, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode cache entry %s: %w", key, err)
	}
	return s.Put(ctx, key, data)
}

// metrics tracks cache metrics
type metrics struct {
	hits   atomic.Int64
	misses atomic.Int64
}

func newMetrics() *metrics {
	return &metrics{}
}

func (m *metrics) recordHit() {
	m.hits.Add(1)
}

func (m *metrics) recordMiss() {
	m.misses.Add(1)
}

func (m *metrics) getHits() int64 {
	return m.hits.Load()
}

func (m *metrics) getMisses() int64 {
	return m.misses.Load()
}
