// Package store is the document store backing usage counters, persisted
// analyses, and long-term agent memory. Documents are JSON values under
// "users:{id}:..." keys; counters live in hashes so increments stay atomic.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Client holds the Redis client
type Client struct {
	Redis *redis.Client
}

// NewClient creates a new Redis client
func NewClient(redisURL string) (*Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed parsing redis URL: %w", err)
	}

	client := redis.NewClient(opts)

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed connecting to redis: %w", err)
	}

	return &Client{
		Redis: client,
	}, nil
}

// Close closes the Redis connection
func (c *Client) Close() error {
	return c.Redis.Close()
}

// Document keys, mirroring the users/{userId} collection layout.

// UsageKey addresses the counter hash for one (user, usage type) pair.
func UsageKey(userID, usageType string) string {
	return fmt.Sprintf("users:%s:usage:%s", userID, usageType)
}

// AnalysisKey addresses the "latest" analysis slot for a user.
func AnalysisKey(userID string) string {
	return fmt.Sprintf("users:%s:analysis:latest", userID)
}

// MemoryKey addresses the long-term memory list for a user.
func MemoryKey(userID string) string {
	return fmt.Sprintf("users:%s:memory", userID)
}

// PlanKey addresses the subscription plan document for a user.
func PlanKey(userID string) string {
	return fmt.Sprintf("users:%s:plan", userID)
}

// GetJSON reads a JSON document into dest. Returns false when the document
// does not exist.
func (c *Client) GetJSON(ctx context.Context, key string, dest any) (bool, error) {
	raw, err := c.Redis.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to get document %s: %w", key, err)
	}
	if err := json.Unmarshal([]byte(raw), dest); err != nil {
		return false, fmt.Errorf("failed to decode document %s: %w", key, err)
	}
	return true, nil
}

// SetJSON writes a JSON document. A zero expiration persists indefinitely.
func (c *Client) SetJSON(ctx context.Context, key string, value any, expiration time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode document %s: %w", key, err)
	}
	if err := c.Redis.Set(ctx, key, raw, expiration).Err(); err != nil {
		return fmt.Errorf("failed to set document %s: %w", key, err)
	}
	return nil
}

// Delete deletes documents
func (c *Client) Delete(ctx context.Context, keys ...string) error {
	return c.Redis.Del(ctx, keys...).Err()
}

// HGetAll reads every field of a counter hash. Missing keys return an empty
// map, not an error.
func (c *Client) HGetAll(ctx context.Context, key string) (map[string]string, error) {
	fields, err := c.Redis.HGetAll(ctx, key).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read hash %s: %w", key, err)
	}
	return fields, nil
}

// HSet writes fields of a counter hash.
func (c *Client) HSet(ctx context.Context, key string, values ...any) error {
	return c.Redis.HSet(ctx, key, values...).Err()
}

// Eval runs a Lua script. Counter mutations that must not tear (window reset
// plus increment) go through here so concurrent requests serialize in Redis.
func (c *Client) Eval(ctx context.Context, script string, keys []string, args ...any) (any, error) {
	res, err := c.Redis.Eval(ctx, script, keys, args...).Result()
	if err != nil {
		return nil, fmt.Errorf("script failed on %v: %w", keys, err)
	}
	return res, nil
}

// PushCapped appends a JSON item to a list and trims it to the newest limit
// entries, both in one pipeline. With limit <= 0 the list is left unwritten.
func (c *Client) PushCapped(ctx context.Context, key string, item any, limit int) error {
	if limit <= 0 {
		return nil
	}
	raw, err := json.Marshal(item)
	if err != nil {
		return fmt.Errorf("failed to encode list item for %s: %w", key, err)
	}
	pipe := c.Redis.TxPipeline()
	pipe.RPush(ctx, key, raw)
	pipe.LTrim(ctx, key, int64(-limit), -1)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to push to %s: %w", key, err)
	}
	return nil
}

// ListJSON reads the whole list at key, decoding each entry into T.
func ListJSON[T any](ctx context.Context, c *Client, key string) ([]T, error) {
	raws, err := c.Redis.LRange(ctx, key, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read list %s: %w", key, err)
	}
	items := make([]T, 0, len(raws))
	for _, raw := range raws {
		var item T
		if err := json.Unmarshal([]byte(raw), &item); err != nil {
			return nil, fmt.Errorf("failed to decode list item in %s: %w", key, err)
		}
		items = append(items, item)
	}
	return items, nil
}

// ScanKeys collects all keys matching a pattern using SCAN.
func (c *Client) ScanKeys(ctx context.Context, pattern string) ([]string, error) {
	var cursor uint64
	var out []string

	for {
		keys, next, err := c.Redis.Scan(ctx, cursor, pattern, 100).Result()
		if err != nil {
			return nil, fmt.Errorf("failed to scan keys: %w", err)
		}
		out = append(out, keys...)
		if next == 0 {
			return out, nil
		}
		cursor = next
	}
}

// DeletePattern deletes all keys matching a pattern using SCAN, for explicit
// account resets.
func (c *Client) DeletePattern(ctx context.Context, pattern string) (int, error) {
	var cursor uint64
	deleted := 0

	for {
		var keys []string
		var err error
		keys, cursor, err = c.Redis.Scan(ctx, cursor, pattern, 100).Result()
		if err != nil {
			return deleted, fmt.Errorf("failed to scan keys: %w", err)
		}

		if len(keys) > 0 {
			if err := c.Redis.Del(ctx, keys...).Err(); err != nil {
				return deleted, fmt.Errorf("failed to delete keys: %w", err)
			}
			deleted += len(keys)
		}

		if cursor == 0 {
			break
		}
	}

	return deleted, nil
}
