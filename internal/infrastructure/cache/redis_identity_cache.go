package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopsync/backend/internal/domain/assistant"
)

// identityTTL bounds how long a cached identity survives without a refresh.
// Thread ids in particular go stale on the provider side, so the cache is
// deliberately short-lived compared to the durable store.
const identityTTL = 7 * 24 * time.Hour

// RedisIdentityCache implements the ephemeral assistant.IdentityStore using
// Redis. Unlike the durable store it also holds thread ids.
type RedisIdentityCache struct {
	client    *redis.Client
	keyPrefix string
	ttl       time.Duration
}

// RedisConfig holds Redis connection configuration
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// NewRedisIdentityCache creates a new Redis-backed identity cache
func NewRedisIdentityCache(cfg RedisConfig) (*RedisIdentityCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return NewRedisIdentityCacheWithClient(client, ""), nil
}

// NewRedisIdentityCacheWithClient creates a cache with an existing Redis
// client, useful for testing or when sharing a client across components.
func NewRedisIdentityCacheWithClient(client *redis.Client, keyPrefix string) *RedisIdentityCache {
	if keyPrefix == "" {
		keyPrefix = "assistant:identity:"
	}
	return &RedisIdentityCache{
		client:    client,
		keyPrefix: keyPrefix,
		ttl:       identityTTL,
	}
}

// Load returns the cached identity for a session type
func (c *RedisIdentityCache) Load(ctx context.Context, sessionType string) (assistant.Identity, error) {
	data, err := c.client.Get(ctx, c.keyPrefix+sessionType).Bytes()
	if errors.Is(err, redis.Nil) {
		return assistant.Identity{}, assistant.ErrIdentityNotFound
	}
	if err != nil {
		return assistant.Identity{}, fmt.Errorf("failed to load cached identity: %w", err)
	}

	var id assistant.Identity
	if err := json.Unmarshal(data, &id); err != nil {
		return assistant.Identity{}, fmt.Errorf("failed to decode cached identity: %w", err)
	}
	return id, nil
}

// Save stores the identity for a session type with the cache TTL
func (c *RedisIdentityCache) Save(ctx context.Context, sessionType string, id assistant.Identity) error {
	data, err := json.Marshal(id)
	if err != nil {
		return fmt.Errorf("failed to encode identity: %w", err)
	}
	if err := c.client.Set(ctx, c.keyPrefix+sessionType, data, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to cache identity: %w", err)
	}
	return nil
}

// Clear removes the cached identity for a session type
func (c *RedisIdentityCache) Clear(ctx context.Context, sessionType string) error {
	if err := c.client.Del(ctx, c.keyPrefix+sessionType).Err(); err != nil {
		return fmt.Errorf("failed to clear cached identity: %w", err)
	}
	return nil
}

// Close closes the Redis client
func (c *RedisIdentityCache) Close() error {
	return c.client.Close()
}

var _ assistant.IdentityStore = (*RedisIdentityCache)(nil)
