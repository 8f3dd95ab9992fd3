package cache

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// RedisCache is a Redis-backed store shared by engines in one session.
// Keys are namespaced by session so that separate sessions never see each
// other's translations.
type RedisCache struct {
	client    *redis.Client
	ttl       time.Duration
	keyPrefix string
}

// RedisConfig holds configuration for the Redis cache.
type RedisConfig struct {
	URL       string // Redis connection URL (e.g., "redis://localhost:6379")
	TTL       int    // TTL in seconds (0 = no expiration)
	KeyPrefix string // Prefix for all keys (default: "gotlive:")
	Session   string // Session namespace (default: random UUID)
}

// NewRedisCache creates a new Redis cache with the given configuration.
func NewRedisCache(cfg RedisConfig) (*RedisCache, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, err
	}

	client := redis.NewClient(opts)

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	session := cfg.Session
	if session == "" {
		session = uuid.NewString()
	}

	return NewRedisCacheFromClient(client, cfg.TTL, sessionPrefix(cfg.KeyPrefix, session)), nil
}

// NewRedisCacheFromClient creates a RedisCache from an existing Redis client.
// keyPrefix is used verbatim.
func NewRedisCacheFromClient(client *redis.Client, ttlSeconds int, keyPrefix string) *RedisCache {
	if keyPrefix == "" {
		keyPrefix = "gotlive:"
	}

	ttl := time.Duration(ttlSeconds) * time.Second
	if ttlSeconds <= 0 {
		ttl = 0
	}

	return &RedisCache{
		client:    client,
		ttl:       ttl,
		keyPrefix: keyPrefix,
	}
}

// Get retrieves a value from Redis. Errors are reported as misses.
func (c *RedisCache) Get(key string) (string, bool) {
	ctx := context.Background()
	val, err := c.client.Get(ctx, c.keyPrefix+key).Result()
	if err != nil {
		return "", false
	}
	return val, true
}

// SetIfAbsent stores value with SETNX so an existing translation is never replaced.
func (c *RedisCache) SetIfAbsent(key string, value string) (bool, error) {
	ctx := context.Background()
	return c.client.SetNX(ctx, c.keyPrefix+key, value, c.ttl).Result()
}

// Prefix returns the key prefix including the session namespace.
func (c *RedisCache) Prefix() string {
	return c.keyPrefix
}

// Close closes the Redis connection.
func (c *RedisCache) Close() error {
	return c.client.Close()
}

// Ping tests the Redis connection.
func (c *RedisCache) Ping() error {
	ctx := context.Background()
	return c.client.Ping(ctx).Err()
}

func sessionPrefix(prefix, session string) string {
	if prefix == "" {
		prefix = "gotlive:"
	}
	return prefix + session + ":"
}

// Verify RedisCache implements Backend
var _ Backend = (*RedisCache)(nil)
