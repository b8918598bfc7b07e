package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultTTL keeps suggestion entries fresh enough that newly indexed items
// appear in typeahead within a minute.
const DefaultTTL = time.Minute

// RedisCache is the Redis-backed SuggestionCache. Failures are logged and
// reported as misses; the cache never fails a request.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

func NewRedisCache(client *redis.Client, ttl time.Duration, logger *slog.Logger) *RedisCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RedisCache{
		client: client,
		ttl:    ttl,
		logger: logger,
	}
}

func suggestionKey(term string, limit int) string {
	return fmt.Sprintf("suggest:%s:%d", strings.ToLower(term), limit)
}

func (c *RedisCache) Get(ctx context.Context, term string, limit int) ([]string, bool) {
	data, err := c.client.Get(ctx, suggestionKey(term, limit)).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.logger.Warn("suggestion cache read failed", "error", err)
		}
		return nil, false
	}

	var suggestions []string
	if err := json.Unmarshal(data, &suggestions); err != nil {
		c.logger.Warn("suggestion cache entry corrupt", "error", err)
		return nil, false
	}
	return suggestions, true
}

func (c *RedisCache) Set(ctx context.Context, term string, limit int, suggestions []string) {
	data, err := json.Marshal(suggestions)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, suggestionKey(term, limit), data, c.ttl).Err(); err != nil {
		c.logger.Warn("suggestion cache write failed", "error", err)
	}
}
