package rates

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrCacheMiss is returned by Cache.Load when no snapshot is stored.
var ErrCacheMiss = errors.New("exchange rate snapshot not cached")

// Cache keeps the last good exchange rate snapshot so a restart does not
// leave the service without rates while the source is unreachable.
type Cache interface {
	Load(ctx context.Context) (*Table, error)
	Store(ctx context.Context, table *Table) error
}

// MemoryCache is an in-process Cache.
type MemoryCache struct {
	mu    sync.RWMutex
	table *Table
}

// NewMemoryCache returns an empty MemoryCache.
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{}
}

// Load returns the stored snapshot.
func (m *MemoryCache) Load(ctx context.Context) (*Table, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.table == nil {
		return nil, ErrCacheMiss
	}
	return m.table, nil
}

// Store replaces the stored snapshot.
func (m *MemoryCache) Store(ctx context.Context, table *Table) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.table = table
	return nil
}

// RedisCache stores the snapshot as JSON under a single key.
type RedisCache struct {
	client *redis.Client
	key    string
	ttl    time.Duration
}

// NewRedisCache connects to the Redis server at addr. A ttl of zero keeps the key forever.
func NewRedisCache(addr, key string, ttl time.Duration) *RedisCache {
	rdb := redis.NewClient(&redis.Options{
		Addr: addr,
	})
	return &RedisCache{
		client: rdb,
		key:    key,
		ttl:    ttl,
	}
}

// Ping checks the connection to Redis.
func (r *RedisCache) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// Load reads and decodes the stored snapshot.
func (r *RedisCache) Load(ctx context.Context) (*Table, error) {
	val, err := r.client.Get(ctx, r.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read exchange rates from redis: %w", err)
	}

	var table Table
	if err := json.Unmarshal(val, &table); err != nil {
		return nil, fmt.Errorf("failed to decode cached exchange rates: %w", err)
	}
	return &table, nil
}

// Store encodes and writes the snapshot.
func (r *RedisCache) Store(ctx context.Context, table *Table) error {
	data, err := json.Marshal(table)
	if err != nil {
		return fmt.Errorf("failed to encode exchange rates: %w", err)
	}
	return r.client.Set(ctx, r.key, data, r.ttl).Err()
}

// Close releases the Redis connection pool.
func (r *RedisCache) Close() error {
	return r.client.Close()
}
