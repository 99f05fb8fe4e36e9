// Package redis provides a Redis-backed content cache shared between processes.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/lessonkit/refpipe/internal/core/domain"
	"github.com/lessonkit/refpipe/internal/core/ports/driven"
)

// DefaultPrefix namespaces cache keys when none is configured.
const DefaultPrefix = "refpipe:cache:"

// Ensure CacheStore implements the interface.
var _ driven.CacheStore = (*CacheStore)(nil)

// Config holds Redis connection configuration.
type Config struct {
	Addr     string
	Password string
	DB       int
	Prefix   string
	// TTL expires entries. Zero keeps them until the server evicts them.
	TTL time.Duration
}

// CacheStore implements driven.CacheStore using Redis.
// Entries are written with SETNX so the first extraction of a hash wins.
type CacheStore struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewCacheStore connects to Redis and verifies the connection.
func NewCacheStore(ctx context.Context, cfg Config) (*CacheStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return NewCacheStoreWithClient(client, cfg.Prefix, cfg.TTL), nil
}

// NewCacheStoreWithClient wraps an existing client.
func NewCacheStoreWithClient(client *redis.Client, prefix string, ttl time.Duration) *CacheStore {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return &CacheStore{
		client: client,
		prefix: prefix,
		ttl:    ttl,
	}
}

// Get returns the entry for a hash.
func (s *CacheStore) Get(ctx context.Context, hash string) (*domain.CacheEntry, error) {
	val, err := s.client.Get(ctx, s.key(hash)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis get: %w", err)
	}

	var entry domain.CacheEntry
	if err := json.Unmarshal(val, &entry); err != nil {
		return nil, fmt.Errorf("decoding cache entry %s: %w", hash, err)
	}
	return &entry, nil
}

// Put stores an entry if none exists for the hash.
func (s *CacheStore) Put(ctx context.Context, hash string, entry *domain.CacheEntry) error {
	if entry == nil || hash == "" {
		return domain.ErrInvalidInput
	}

	stored := *entry
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = time.Now().UTC()
	}
	data, err := json.Marshal(stored)
	if err != nil {
		return fmt.Errorf("encoding cache entry: %w", err)
	}

	if err := s.client.SetNX(ctx, s.key(hash), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("redis setnx: %w", err)
	}
	return nil
}

// Close closes the Redis connection.
func (s *CacheStore) Close() error {
	return s.client.Close()
}

func (s *CacheStore) key(hash string) string {
	return s.prefix + hash
}
