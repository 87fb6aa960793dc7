package redis

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"time"

	"moodlog/internal/config"

	redis "github.com/redis/go-redis/v9"
)

const (
	keyPrefix   = "moodlog:"
	defaultHost = "127.0.0.1"
	defaultPort = 6379
	pingTimeout = 3 * time.Second
)

// Client caches small id lookups under the moodlog: namespace.
// A nil *Client is valid and behaves as an always-missing cache.
type Client struct {
	inner *redis.Client
}

// ErrCacheMiss mirrors redis.Nil for callers.
var ErrCacheMiss = redis.Nil

var errNotInitialized = errors.New("redis client not initialized")

// Enabled reports whether the config asks for a redis cache.
func Enabled(cfg *config.Config) bool {
	return cfg != nil && cfg.Redis.Host != ""
}

// NewRedisClient connects with the configured options and verifies the
// connection with a ping.
func NewRedisClient(cfg *config.Config) (*Client, error) {
	if cfg == nil {
		return nil, errors.New("config required")
	}
	client := redis.NewClient(options(cfg.Redis))
	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return &Client{inner: client}, nil
}

func options(rc config.RedisConfig) *redis.Options {
	host, port := rc.Host, rc.Port
	if host == "" {
		host = defaultHost
	}
	if port == 0 {
		port = defaultPort
	}
	return &redis.Options{
		Addr:     net.JoinHostPort(host, strconv.Itoa(port)),
		Username: rc.Username,
		Password: rc.Password,
		DB:       rc.DB,
	}
}

// Key returns the namespaced form of key.
func Key(key string) string {
	return keyPrefix + key
}

// SetID stores id under key until ttl elapses.
func (c *Client) SetID(ctx context.Context, key string, id int64, ttl time.Duration) error {
	if c == nil || c.inner == nil {
		return errNotInitialized
	}
	return c.inner.Set(ctx, Key(key), strconv.FormatInt(id, 10), ttl).Err()
}

// ID returns the id stored under key. Missing keys, non-numeric values and a
// nil client all report ErrCacheMiss.
func (c *Client) ID(ctx context.Context, key string) (int64, error) {
	if c == nil || c.inner == nil {
		return 0, ErrCacheMiss
	}
	raw, err := c.inner.Get(ctx, Key(key)).Result()
	if err != nil {
		return 0, err
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, ErrCacheMiss
	}
	return id, nil
}

// Del removes the provided keys.
func (c *Client) Del(ctx context.Context, keys ...string) error {
	if c == nil || c.inner == nil || len(keys) == 0 {
		return nil
	}
	full := make([]string, len(keys))
	for i, k := range keys {
		full[i] = Key(k)
	}
	return c.inner.Del(ctx, full...).Err()
}

// Close closes client.
func (c *Client) Close() error {
	if c == nil || c.inner == nil {
		return nil
	}
	return c.inner.Close()
}

// Raw exposes underlying go-redis client.
func (c *Client) Raw() *redis.Client {
	if c == nil {
		return nil
	}
	return c.inner
}
