package cache

import (
	"fmt"

	"github.com/shopsync/backend/internal/domain/assistant"
	"github.com/shopsync/backend/internal/infrastructure/config"
	"go.uber.org/zap"
)

// IdentityCacheFactory creates identity caches based on configuration
type IdentityCacheFactory struct {
	redisConfig           config.RedisConfig
	logger                *zap.Logger
	allowInMemoryFallback bool
}

// IdentityCacheFactoryOption is a functional option for configuring the factory
type IdentityCacheFactoryOption func(*IdentityCacheFactory)

// WithLogger sets the logger for the factory
func WithLogger(logger *zap.Logger) IdentityCacheFactoryOption {
	return func(f *IdentityCacheFactory) {
		f.logger = logger
	}
}

// WithInMemoryFallback controls whether to fall back to an in-memory cache
// when Redis is unavailable. Default is true.
func WithInMemoryFallback(allow bool) IdentityCacheFactoryOption {
	return func(f *IdentityCacheFactory) {
		f.allowInMemoryFallback = allow
	}
}

// NewIdentityCacheFactory creates a new factory
func NewIdentityCacheFactory(cfg config.RedisConfig, opts ...IdentityCacheFactoryOption) *IdentityCacheFactory {
	f := &IdentityCacheFactory{
		redisConfig:           cfg,
		logger:                zap.NewNop(),
		allowInMemoryFallback: true,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// CreateRedisCache creates a Redis-backed identity cache
func (f *IdentityCacheFactory) CreateRedisCache() (assistant.IdentityStore, error) {
	cache, err := NewRedisIdentityCache(RedisConfig{
		Host:     f.redisConfig.Host,
		Port:     f.redisConfig.Port,
		Password: f.redisConfig.Password,
		DB:       f.redisConfig.DB,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Redis identity cache: %w", err)
	}
	return cache, nil
}

// CreateCache creates an identity cache, preferring Redis when enabled and
// reachable and falling back to in-memory otherwise.
func (f *IdentityCacheFactory) CreateCache() (assistant.IdentityStore, error) {
	if f.redisConfig.Enabled {
		cache, err := f.CreateRedisCache()
		if err == nil {
			f.logger.Info("using Redis identity cache")
			return cache, nil
		}
		if !f.allowInMemoryFallback {
			return nil, fmt.Errorf("Redis required for identity cache but unavailable: %w", err)
		}
		f.logger.Warn("Redis unavailable, falling back to in-memory identity cache",
			zap.Error(err),
		)
	}
	return NewInMemoryIdentityCache(), nil
}
