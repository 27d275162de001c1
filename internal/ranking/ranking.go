// Package ranking maintains the keyword popularity ranking in a Redis
// sorted set. The relational store is the source of truth; the sorted set
// is a cache-aside accelerant rebuilt lazily when empty.
package ranking

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"jobwatch/notify-service/internal/model"
)

// ErrCacheUnavailable is returned when Redis cannot serve the ranking.
// Callers treat the ranking as best-effort and must not fail subscription
// operations on it.
var ErrCacheUnavailable = errors.New("ranking cache unavailable")

const rankingKey = "keyword_ranking"

// CountSource supplies absolute subscriber counts for the rebuild path.
type CountSource interface {
	AggregateCounts(ctx context.Context) ([]model.KeywordCount, error)
}

// SortedSet is the slice of the Redis command surface the ranking needs.
// Satisfied by *redis.Client.
type SortedSet interface {
	ZIncrBy(ctx context.Context, key string, increment float64, member string) *redis.FloatCmd
	ZRem(ctx context.Context, key string, members ...interface{}) *redis.IntCmd
	ZRevRangeWithScores(ctx context.Context, key string, start, stop int64) *redis.ZSliceCmd
	ZAdd(ctx context.Context, key string, members ...redis.Z) *redis.IntCmd
}

// Cache is the cache-aside ranking over a Redis sorted set.
type Cache struct {
	rdb    SortedSet
	source CountSource
}

// New returns a Cache backed by rdb, rebuilding from source on miss.
func New(rdb SortedSet, source CountSource) *Cache {
	return &Cache{rdb: rdb, source: source}
}

// Bump atomically adjusts a keyword's score by delta. When a decrement
// drives the score to zero or below, the member is evicted from the set.
// The item's own lifecycle is governed by the subscription store, not by
// this eviction.
func (c *Cache) Bump(ctx context.Context, keyword string, delta int64) error {
	score, err := c.rdb.ZIncrBy(ctx, rankingKey, float64(delta), keyword).Result()
	if err != nil {
		return fmt.Errorf("%w: zincrby: %v", ErrCacheUnavailable, err)
	}
	if score <= 0 {
		if err := c.rdb.ZRem(ctx, rankingKey, keyword).Err(); err != nil {
			return fmt.Errorf("%w: zrem: %v", ErrCacheUnavailable, err)
		}
	}
	return nil
}

// TopN returns up to limit keywords ordered by subscriber count, highest
// first. An empty sorted set triggers a one-shot rebuild from the count
// source: scores are set absolutely (ZADD, not bumps), so two concurrent
// rebuilds cannot double-count.
func (c *Cache) TopN(ctx context.Context, limit int64) ([]model.KeywordCount, error) {
	entries, err := c.topEntries(ctx, limit)
	if err != nil {
		return nil, err
	}
	if len(entries) > 0 {
		return entries, nil
	}

	if err := c.rebuild(ctx); err != nil {
		return nil, err
	}
	return c.topEntries(ctx, limit)
}

func (c *Cache) topEntries(ctx context.Context, limit int64) ([]model.KeywordCount, error) {
	zs, err := c.rdb.ZRevRangeWithScores(ctx, rankingKey, 0, limit-1).Result()
	if err != nil {
		return nil, fmt.Errorf("%w: zrevrange: %v", ErrCacheUnavailable, err)
	}

	entries := make([]model.KeywordCount, 0, len(zs))
	for _, z := range zs {
		keyword, ok := z.Member.(string)
		if !ok {
			continue
		}
		entries = append(entries, model.KeywordCount{Keyword: keyword, Count: int64(z.Score)})
	}
	return entries, nil
}

// rebuild repopulates the sorted set from aggregated subscriber counts.
// Keywords without subscribers are skipped — they carry no ranking weight.
func (c *Cache) rebuild(ctx context.Context) error {
	counts, err := c.source.AggregateCounts(ctx)
	if err != nil {
		return fmt.Errorf("ranking rebuild: %w", err)
	}

	members := make([]redis.Z, 0, len(counts))
	for _, kc := range counts {
		if kc.Count <= 0 {
			continue
		}
		members = append(members, redis.Z{Score: float64(kc.Count), Member: kc.Keyword})
	}
	if len(members) == 0 {
		return nil
	}

	if err := c.rdb.ZAdd(ctx, rankingKey, members...).Err(); err != nil {
		return fmt.Errorf("%w: zadd: %v", ErrCacheUnavailable, err)
	}
	return nil
}
