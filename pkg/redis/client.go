package redis

import (
	"context"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/openpantry/vouchers-backend/pkg/config"
)

const keyPrefix = "vb"

// Client wraps the shared go-redis connection and centralizes key naming so
// the submission guards never disagree on key shape.
type Client struct {
	rdb *goredis.Client
}

// New builds a Client from configuration and verifies connectivity.
func New(ctx context.Context, cfg config.RedisConfig) (*Client, error) {
	opts, err := goredis.ParseURL(cfg.URL)
	if err != nil {
		if cfg.Address == "" {
			return nil, fmt.Errorf("parsing redis url: %w", err)
		}
		opts = &goredis.Options{
			Addr:     cfg.Address,
			Password: cfg.Password,
			DB:       cfg.DB,
		}
	}

	opts.PoolSize = cfg.PoolSize
	opts.MinIdleConns = cfg.MinIdleConns
	opts.DialTimeout = cfg.DialTimeout
	opts.ReadTimeout = cfg.ReadTimeout
	opts.WriteTimeout = cfg.WriteTimeout

	rdb := goredis.NewClient(opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("pinging redis: %w", err)
	}

	return &Client{rdb: rdb}, nil
}

// SubmissionLockKey serializes concurrent submissions for one participant.
func SubmissionLockKey(participantID string) string {
	return fmt.Sprintf("%s:submission:lock:%s", keyPrefix, participantID)
}

// IdempotencyKey marks a participant+cart fingerprint as recently attempted.
func IdempotencyKey(fingerprint string) string {
	return fmt.Sprintf("%s:submission:dedup:%s", keyPrefix, fingerprint)
}

// ThrottleCountKey tracks consecutive failed attempts for a participant.
func ThrottleCountKey(participantID string) string {
	return fmt.Sprintf("%s:throttle:count:%s", keyPrefix, participantID)
}

// ThrottleDeadlineKey stores the earliest next allowed attempt.
func ThrottleDeadlineKey(participantID string) string {
	return fmt.Sprintf("%s:throttle:until:%s", keyPrefix, participantID)
}

// SetNX sets a key only when absent, returning whether it was set.
func (c *Client) SetNX(ctx context.Context, key, value string, ttl time.Duration) (bool, error) {
	return c.rdb.SetNX(ctx, key, value, ttl).Result()
}

// Get fetches a key, returning "" with no error when the key is absent.
func (c *Client) Get(ctx context.Context, key string) (string, error) {
	val, err := c.rdb.Get(ctx, key).Result()
	if err == goredis.Nil {
		return "", nil
	}
	return val, err
}

// Set writes a key with a TTL.
func (c *Client) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	return c.rdb.Set(ctx, key, value, ttl).Err()
}

// Del removes keys.
func (c *Client) Del(ctx context.Context, keys ...string) error {
	return c.rdb.Del(ctx, keys...).Err()
}

// IncrWithTTL increments a counter and refreshes its TTL in one round trip.
func (c *Client) IncrWithTTL(ctx context.Context, key string, ttl time.Duration) (int64, error) {
	pipe := c.rdb.TxPipeline()
	incr := pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, err
	}
	return incr.Val(), nil
}

// Eval runs a Lua script. Used by the lock release so owner check and delete
// happen atomically.
func (c *Client) Eval(ctx context.Context, script string, keys []string, args ...interface{}) (interface{}, error) {
	return c.rdb.Eval(ctx, script, keys, args...).Result()
}

// Ping verifies the connection is healthy.
func (c *Client) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}

// Close releases the underlying pool.
func (c *Client) Close() error {
	return c.rdb.Close()
}
