package cache

import (
	"context"
	"sync"
	"time"

	"github.com/shopsync/backend/internal/domain/assistant"
)

// InMemoryIdentityCache is a process-local identity cache.
// Suitable for single-instance deployments and testing; state is lost on
// restart, which is acceptable because the durable store remains the
// source of truth for file and assistant ids.
type InMemoryIdentityCache struct {
	mu      sync.RWMutex
	entries map[string]inMemoryEntry
	ttl     time.Duration
	now     func() time.Time
}

type inMemoryEntry struct {
	identity  assistant.Identity
	expiresAt time.Time
}

// NewInMemoryIdentityCache creates a new in-memory identity cache
func NewInMemoryIdentityCache() *InMemoryIdentityCache {
	return &InMemoryIdentityCache{
		entries: make(map[string]inMemoryEntry),
		ttl:     identityTTL,
		now:     time.Now,
	}
}

// Load returns the cached identity for a session type
func (c *InMemoryIdentityCache) Load(_ context.Context, sessionType string) (assistant.Identity, error) {
	c.mu.RLock()
	entry, ok := c.entries[sessionType]
	c.mu.RUnlock()

	if !ok || c.now().After(entry.expiresAt) {
		return assistant.Identity{}, assistant.ErrIdentityNotFound
	}
	return entry.identity, nil
}

// Save stores the identity for a session type with the cache TTL
func (c *InMemoryIdentityCache) Save(_ context.Context, sessionType string, id assistant.Identity) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[sessionType] = inMemoryEntry{
		identity:  id,
		expiresAt: c.now().Add(c.ttl),
	}
	return nil
}

// Clear removes the cached identity for a session type
func (c *InMemoryIdentityCache) Clear(_ context.Context, sessionType string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, sessionType)
	return nil
}

var _ assistant.IdentityStore = (*InMemoryIdentityCache)(nil)
