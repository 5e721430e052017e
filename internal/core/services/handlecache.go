package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/docask/docask-cli/internal/core/ports/driven"
	"github.com/docask/docask-cli/internal/logger"
)

// DefaultHandleTTL is how long a resolved file handle stays fresh.
const DefaultHandleTTL = time.Hour

// cacheEntry is one resolved handle with its fetch time.
type cacheEntry struct {
	handle    driven.FileHandle
	fetchedAt time.Time
}

// HandleCache caches resolved remote file handles to avoid a backend
// round-trip per document per query. Entries older than the TTL are
// refreshed transparently on the next resolve; they are never expired
// out of the map on their own.
type HandleCache struct {
	mu      sync.Mutex
	backend driven.GenerativeBackend
	clock   driven.Clock
	ttl     time.Duration
	entries map[string]cacheEntry
}

// NewHandleCache creates a handle cache. A zero ttl means
// DefaultHandleTTL; a nil clock means the system clock.
func NewHandleCache(backend driven.GenerativeBackend, clock driven.Clock, ttl time.Duration) *HandleCache {
	if clock == nil {
		clock = driven.SystemClock{}
	}
	if ttl <= 0 {
		ttl = DefaultHandleTTL
	}
	return &HandleCache{
		backend: backend,
		clock:   clock,
		ttl:     ttl,
		entries: make(map[string]cacheEntry),
	}
}

// Resolve returns the cached handle when fresh, otherwise fetches from
// the backend and stores the result with a new timestamp. A fetch
// failure propagates and leaves the cache unmodified.
func (c *HandleCache) Resolve(ctx context.Context, handleID string) (*driven.FileHandle, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.clock.Now()
	if entry, ok := c.entries[handleID]; ok {
		if now.Sub(entry.fetchedAt) < c.ttl {
			logger.Debug("Handle cache hit: %s", handleID)
			handle := entry.handle
			return &handle, nil
		}
		logger.Debug("Handle cache stale: %s (age %s)", handleID, now.Sub(entry.fetchedAt))
	}

	if c.backend == nil {
		return nil, fmt.Errorf("resolve handle %s: backend unavailable", handleID)
	}

	handle, err := c.backend.GetFile(ctx, handleID)
	if err != nil {
		return nil, fmt.Errorf("resolve handle %s: %w", handleID, err)
	}

	c.entries[handleID] = cacheEntry{handle: *handle, fetchedAt: now}
	logger.Debug("Handle cache filled: %s", handleID)
	return handle, nil
}

// Clear drops all entries unconditionally.
func (c *HandleCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]cacheEntry)
	logger.Info("Handle cache cleared")
}

// Len returns the number of cached entries, fresh or stale.
func (c *HandleCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
