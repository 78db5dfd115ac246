// Package cache keeps fetched box scores in Redis. Box scores of final games
// never change, so entries only expire to bound memory.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/okian/bullpen/internal/domain/model"
	"github.com/okian/bullpen/pkg/logger"
	"github.com/okian/bullpen/pkg/metrics"
)

// Default cache constants.
const (
	DefaultTTL    = 30 * 24 * time.Hour
	DefaultPrefix = "bullpen:boxscore:"
)

// Fetcher loads a box score from the source of truth.
type Fetcher interface {
	BoxScore(ctx context.Context, gameID int) (*model.BoxScore, error)
}

// BoxScoreCache is a read-through Fetcher. Redis failures are logged and the
// request falls through to the wrapped fetcher.
type BoxScoreCache struct {
	redis  *redis.Client
	next   Fetcher
	ttl    time.Duration
	prefix string
	logger logger.Logger
}

// New wraps next with a Redis cache.
func New(client *redis.Client, next Fetcher, opts ...Option) *BoxScoreCache {
	c := &BoxScoreCache{
		redis:  client,
		next:   next,
		ttl:    DefaultTTL,
		prefix: DefaultPrefix,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = logger.Get().Named("cache")
	}
	return c
}

// BoxScore returns the cached box score or fetches and stores it.
func (c *BoxScoreCache) BoxScore(ctx context.Context, gameID int) (*model.BoxScore, error) {
	key := c.key(gameID)
	raw, err := c.redis.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var box model.BoxScore
		if derr := json.Unmarshal(raw, &box); derr == nil {
			metrics.RecordCacheRequest("hit")
			return &box, nil
		}
		metrics.RecordCacheRequest("corrupt")
	case errors.Is(err, redis.Nil):
		metrics.RecordCacheRequest("miss")
	default:
		metrics.RecordCacheRequest("error")
		c.logger.Warn(ctx, "cache read failed", logger.Int("game_id", gameID), logger.Error(err))
	}

	box, err := c.next.BoxScore(ctx, gameID)
	if err != nil {
		return nil, err
	}
	if err := c.Store(ctx, box); err != nil {
		c.logger.Warn(ctx, "cache write failed", logger.Int("game_id", gameID), logger.Error(err))
	}
	return box, nil
}

// Lookup returns every cached box score among ids in one round trip.
// Missing or unreadable entries are absent from the result.
func (c *BoxScoreCache) Lookup(ctx context.Context, ids []int) (map[int]*model.BoxScore, error) {
	out := make(map[int]*model.BoxScore)
	if len(ids) == 0 {
		return out, nil
	}
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = c.key(id)
	}
	values, err := c.redis.MGet(ctx, keys...).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return out, fmt.Errorf("redis mget: %w", err)
	}
	for i, v := range values {
		s, ok := v.(string)
		if !ok {
			continue
		}
		var box model.BoxScore
		if err := json.Unmarshal([]byte(s), &box); err != nil {
			continue
		}
		out[ids[i]] = &box
	}
	return out, nil
}

// Store writes box scores through a single pipeline.
func (c *BoxScoreCache) Store(ctx context.Context, boxes ...*model.BoxScore) error {
	if len(boxes) == 0 {
		return nil
	}
	pipe := c.redis.Pipeline()
	for _, box := range boxes {
		if box == nil {
			continue
		}
		data, err := json.Marshal(box)
		if err != nil {
			return fmt.Errorf("marshal box score %d: %w", box.GameID, err)
		}
		pipe.Set(ctx, c.key(box.GameID), data, c.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis pipeline exec: %w", err)
	}
	return nil
}

func (c *BoxScoreCache) key(gameID int) string {
	return c.prefix + strconv.Itoa(gameID)
}
