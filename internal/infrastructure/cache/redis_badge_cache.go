package cache

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	appnotification "github.com/clinicore/backend/internal/application/notification"
	"github.com/clinicore/backend/internal/infrastructure/config"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// RedisBadgeCache implements the notification BadgeCache using Redis.
// Badge counts are cache-aside: a miss falls back to the database and the
// TTL bounds staleness when an invalidation is lost.
type RedisBadgeCache struct {
	client    *redis.Client
	keyPrefix string
}

// NewRedisBadgeCache creates a badge cache with its own Redis connection
func NewRedisBadgeCache(cfg config.RedisConfig) (*RedisBadgeCache, error) {
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

	return NewRedisBadgeCacheWithClient(client), nil
}

// NewRedisBadgeCacheWithClient creates a badge cache with an existing Redis client
func NewRedisBadgeCacheWithClient(client *redis.Client) *RedisBadgeCache {
	return &RedisBadgeCache{
		client:    client,
		keyPrefix: "notification:badge:",
	}
}

func (c *RedisBadgeCache) key(clinicID uuid.UUID, department string) string {
	return c.keyPrefix + clinicID.String() + ":" + department
}

// GetUnreadCount returns the cached unread count and whether it was found
func (c *RedisBadgeCache) GetUnreadCount(ctx context.Context, clinicID uuid.UUID, department string) (int64, bool, error) {
	value, err := c.client.Get(ctx, c.key(clinicID, department)).Result()
	if errors.Is(err, redis.Nil) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("failed to read badge count: %w", err)
	}

	count, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return 0, false, fmt.Errorf("failed to parse badge count: %w", err)
	}
	return count, true, nil
}

// SetUnreadCount stores the unread count with the given TTL
func (c *RedisBadgeCache) SetUnreadCount(ctx context.Context, clinicID uuid.UUID, department string, count int64, ttl time.Duration) error {
	if err := c.client.Set(ctx, c.key(clinicID, department), count, ttl).Err(); err != nil {
		return fmt.Errorf("failed to store badge count: %w", err)
	}
	return nil
}

// Invalidate drops the cached count so the next read recomputes it
func (c *RedisBadgeCache) Invalidate(ctx context.Context, clinicID uuid.UUID, department string) error {
	if err := c.client.Del(ctx, c.key(clinicID, department)).Err(); err != nil {
		return fmt.Errorf("failed to invalidate badge count: %w", err)
	}
	return nil
}

// Close closes the Redis client
func (c *RedisBadgeCache) Close() error {
	return c.client.Close()
}

// Ensure RedisBadgeCache implements BadgeCache
var _ appnotification.BadgeCache = (*RedisBadgeCache)(nil)
