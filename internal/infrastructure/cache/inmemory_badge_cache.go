package cache

import (
	"context"
	"sync"
	"time"

	appnotification "github.com/clinicore/backend/internal/application/notification"
	"github.com/google/uuid"
)

// badgeEntry represents a stored unread count with expiration
type badgeEntry struct {
	count     int64
	expiresAt time.Time
}

// InMemoryBadgeCache implements BadgeCache using an in-memory map.
// This is suitable for single-instance deployments and testing; multi-instance
// deployments should use the Redis cache so invalidations are shared.
type InMemoryBadgeCache struct {
	mu        sync.RWMutex
	entries   map[string]badgeEntry
	stopChan  chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once
}

// NewInMemoryBadgeCache creates a new in-memory badge cache
// It starts a background goroutine to clean up expired entries
func NewInMemoryBadgeCache() *InMemoryBadgeCache {
	cache := &InMemoryBadgeCache{
		entries:  make(map[string]badgeEntry),
		stopChan: make(chan struct{}),
	}

	cache.wg.Add(1)
	go cache.cleanupLoop()

	return cache
}

func badgeKey(clinicID uuid.UUID, department string) string {
	return clinicID.String() + ":" + department
}

// GetUnreadCount returns the cached unread count and whether it was found
func (c *InMemoryBadgeCache) GetUnreadCount(ctx context.Context, clinicID uuid.UUID, department string) (int64, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, exists := c.entries[badgeKey(clinicID, department)]
	if !exists {
		return 0, false, nil
	}

	if time.Now().After(e.expiresAt) {
		return 0, false, nil // Expired, treat as a miss
	}

	return e.count, true, nil
}

// SetUnreadCount stores the unread count with a TTL
func (c *InMemoryBadgeCache) SetUnreadCount(ctx context.Context, clinicID uuid.UUID, department string, count int64, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[badgeKey(clinicID, department)] = badgeEntry{
		count:     count,
		expiresAt: time.Now().Add(ttl),
	}

	return nil
}

// Invalidate drops the cached count so the next read recomputes it
func (c *InMemoryBadgeCache) Invalidate(ctx context.Context, clinicID uuid.UUID, department string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.entries, badgeKey(clinicID, department))
	return nil
}

// Close stops the cleanup goroutine and releases resources
// Safe to call multiple times
func (c *InMemoryBadgeCache) Close() error {
	c.closeOnce.Do(func() {
		close(c.stopChan)
		c.wg.Wait()
	})
	return nil
}

// cleanupLoop periodically removes expired entries
func (c *InMemoryBadgeCache) cleanupLoop() {
	defer c.wg.Done()

	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-c.stopChan:
			return
		case <-ticker.C:
			c.cleanup()
		}
	}
}

// cleanup removes expired entries from the cache
func (c *InMemoryBadgeCache) cleanup() {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	for key, e := range c.entries {
		if now.After(e.expiresAt) {
			delete(c.entries, key)
		}
	}
}

// Size returns the number of entries in the cache (for testing/monitoring)
func (c *InMemoryBadgeCache) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Ensure InMemoryBadgeCache implements BadgeCache
var _ appnotification.BadgeCache = (*InMemoryBadgeCache)(nil)
