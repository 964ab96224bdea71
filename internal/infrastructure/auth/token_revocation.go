package auth

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// TokenRevoker invalidates JWTs before their natural expiry, either a single
// token by its JTI (logout) or every token a user holds (forced logout of all
// sessions, via an invalidation timestamp).
type TokenRevoker interface {
	// Revoke marks a single token's JTI as revoked. The ttl should match the
	// token's remaining lifetime so the entry expires with the token.
	Revoke(ctx context.Context, jti string, ttl time.Duration) error

	// IsRevoked reports whether the JTI has been revoked.
	IsRevoked(ctx context.Context, jti string) (bool, error)

	// RevokeUser invalidates every token the user currently holds. Tokens
	// issued before the call are rejected from then on.
	RevokeUser(ctx context.Context, userID string, ttl time.Duration) error

	// IsUserRevoked reports whether a token issued at the given time falls
	// before the user's invalidation point.
	IsUserRevoked(ctx context.Context, userID string, issuedAt time.Time) (bool, error)
}

// RedisTokenRevoker stores revocations in Redis so they are shared across
// server instances.
type RedisTokenRevoker struct {
	client    *redis.Client
	keyPrefix string
}

// RedisTokenRevokerConfig holds Redis connection settings for the revoker.
type RedisTokenRevokerConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// NewRedisTokenRevoker connects to Redis and verifies the connection.
func NewRedisTokenRevoker(cfg RedisTokenRevokerConfig) (*RedisTokenRevoker, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     10,
		MinIdleConns: 3,
		MaxRetries:   3,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis for token revocation: %w", err)
	}

	return NewRedisTokenRevokerWithClient(client), nil
}

// NewRedisTokenRevokerWithClient wraps an existing Redis client.
func NewRedisTokenRevokerWithClient(client *redis.Client) *RedisTokenRevoker {
	return &RedisTokenRevoker{
		client:    client,
		keyPrefix: "token:revoked:",
	}
}

func (r *RedisTokenRevoker) jtiKey(jti string) string {
	return r.keyPrefix + "jti:" + jti
}

func (r *RedisTokenRevoker) userKey(userID string) string {
	return r.keyPrefix + "user:" + userID
}

func (r *RedisTokenRevoker) Revoke(ctx context.Context, jti string, ttl time.Duration) error {
	if err := r.client.Set(ctx, r.jtiKey(jti), "1", ttl).Err(); err != nil {
		return fmt.Errorf("failed to revoke token: %w", err)
	}
	return nil
}

func (r *RedisTokenRevoker) IsRevoked(ctx context.Context, jti string) (bool, error) {
	exists, err := r.client.Exists(ctx, r.jtiKey(jti)).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check token revocation: %w", err)
	}
	return exists > 0, nil
}

func (r *RedisTokenRevoker) RevokeUser(ctx context.Context, userID string, ttl time.Duration) error {
	now := time.Now().Unix()
	if err := r.client.Set(ctx, r.userKey(userID), now, ttl).Err(); err != nil {
		return fmt.Errorf("failed to revoke user tokens: %w", err)
	}
	return nil
}

func (r *RedisTokenRevoker) IsUserRevoked(ctx context.Context, userID string, issuedAt time.Time) (bool, error) {
	raw, err := r.client.Get(ctx, r.userKey(userID)).Result()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check user revocation: %w", err)
	}

	revokedAt, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return false, fmt.Errorf("failed to parse revocation timestamp: %w", err)
	}

	return issuedAt.Unix() <= revokedAt, nil
}

// Close closes the Redis client.
func (r *RedisTokenRevoker) Close() error {
	return r.client.Close()
}

var _ TokenRevoker = (*RedisTokenRevoker)(nil)

// InMemoryTokenRevoker keeps revocations in process memory. Suitable for a
// single instance and for tests; revocations are lost on restart.
type InMemoryTokenRevoker struct {
	mu          sync.RWMutex
	revokedJTIs map[string]time.Time // jti -> entry expiry
	userRevoked map[string]time.Time // userID -> revocation point
}

// NewInMemoryTokenRevoker creates an empty in-memory revoker.
func NewInMemoryTokenRevoker() *InMemoryTokenRevoker {
	return &InMemoryTokenRevoker{
		revokedJTIs: make(map[string]time.Time),
		userRevoked: make(map[string]time.Time),
	}
}

func (r *InMemoryTokenRevoker) Revoke(_ context.Context, jti string, ttl time.Duration) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.revokedJTIs[jti] = time.Now().Add(ttl)
	return nil
}

func (r *InMemoryTokenRevoker) IsRevoked(_ context.Context, jti string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	expiry, ok := r.revokedJTIs[jti]
	if !ok {
		return false, nil
	}
	// Expired entries match a token that has expired anyway; drop them.
	if time.Now().After(expiry) {
		delete(r.revokedJTIs, jti)
		return false, nil
	}
	return true, nil
}

func (r *InMemoryTokenRevoker) RevokeUser(_ context.Context, userID string, _ time.Duration) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.userRevoked[userID] = time.Now()
	return nil
}

func (r *InMemoryTokenRevoker) IsUserRevoked(_ context.Context, userID string, issuedAt time.Time) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	revokedAt, ok := r.userRevoked[userID]
	if !ok {
		return false, nil
	}
	return issuedAt.UnixNano() <= revokedAt.UnixNano(), nil
}

var _ TokenRevoker = (*InMemoryTokenRevoker)(nil)
