package cache

import (
	"context"
	"errors"
	"time"
)

type Cache interface {
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Get(ctx context.Context, key string, dest interface{}) error
	Delete(ctx context.Context, key string) error
	DeletePattern(ctx context.Context, pattern string) error
	Exists(ctx context.Context, key string) (bool, error)
	Stats() map[string]interface{}
	Health(ctx context.Context) error
	Close() error
}

var (
	_ Cache = (*MemoryCache)(nil)
	_ Cache = (*RedisCache)(nil)
	_ Cache = (*MultiLevelCache)(nil)
)

// MultiLevelCache reads through a local L1 to an optional shared Redis L2.
// L1 entries never outlive localTTL so instances converge after a write
// elsewhere.
type MultiLevelCache struct {
	l1       *MemoryCache
	l2       *RedisCache
	localTTL time.Duration
	metrics  *CacheMetrics
}

func NewMultiLevelCache(redisCache *RedisCache, localTTL time.Duration) *MultiLevelCache {
	return &MultiLevelCache{
		l1:       NewMemoryCache(),
		l2:       redisCache,
		localTTL: localTTL,
		metrics:  NewCacheMetrics(),
	}
}

func (c *MultiLevelCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	c.metrics.RecordSet()

	if err := c.l1.Set(ctx, key, value, c.capLocal(ttl)); err != nil {
		c.metrics.RecordError()
		return err
	}

	if c.l2 != nil {
		if err := c.l2.Set(ctx, key, value, ttl); err != nil {
			c.metrics.RecordError()
			return err
		}
	}

	return nil
}

func (c *MultiLevelCache) Get(ctx context.Context, key string, dest interface{}) error {
	err := c.l1.Get(ctx, key, dest)
	if err == nil {
		c.metrics.RecordHit()
		return nil
	}
	if !errors.Is(err, ErrCacheMiss) {
		c.metrics.RecordError()
	}

	if c.l2 == nil {
		c.metrics.RecordMiss()
		return ErrCacheMiss
	}

	err = c.l2.Get(ctx, key, dest)
	switch {
	case err == nil:
		c.metrics.RecordHit()
		_ = c.l1.Set(ctx, key, dest, c.capLocal(c.localTTL))
		return nil
	case errors.Is(err, ErrCacheMiss):
		c.metrics.RecordMiss()
	default:
		c.metrics.RecordError()
	}
	return err
}

func (c *MultiLevelCache) Delete(ctx context.Context, key string) error {
	c.metrics.RecordDelete()
	_ = c.l1.Delete(ctx, key)

	if c.l2 != nil {
		if err := c.l2.Delete(ctx, key); err != nil {
			c.metrics.RecordError()
			return err
		}
	}

	return nil
}

func (c *MultiLevelCache) DeletePattern(ctx context.Context, pattern string) error {
	c.metrics.RecordDelete()
	if err := c.l1.DeletePattern(ctx, pattern); err != nil {
		return err
	}

	if c.l2 != nil {
		if err := c.l2.DeletePattern(ctx, pattern); err != nil {
			c.metrics.RecordError()
			return err
		}
	}

	return nil
}

func (c *MultiLevelCache) Exists(ctx context.Context, key string) (bool, error) {
	if found, _ := c.l1.Exists(ctx, key); found {
		return true, nil
	}

	if c.l2 != nil {
		return c.l2.Exists(ctx, key)
	}

	return false, nil
}

// Cleanup evicts expired L1 entries. Redis expires L2 keys on its own.
func (c *MultiLevelCache) Cleanup() int {
	return c.l1.Cleanup()
}

func (c *MultiLevelCache) Metrics() *CacheMetrics {
	return c.metrics
}

func (c *MultiLevelCache) Stats() map[string]interface{} {
	snapshot := c.metrics.Snapshot()
	stats := map[string]interface{}{
		"l1":       c.l1.Stats(),
		"metrics":  snapshot,
		"hit_rate": snapshot.HitRate(),
	}

	if c.l2 != nil {
		stats["l2"] = c.l2.Stats()
	}

	return stats
}

func (c *MultiLevelCache) Health(ctx context.Context) error {
	if c.l2 != nil {
		return c.l2.Health(ctx)
	}

	return nil
}

func (c *MultiLevelCache) Close() error {
	_ = c.l1.Close()

	if c.l2 != nil {
		return c.l2.Close()
	}

	return nil
}

func (c *MultiLevelCache) capLocal(ttl time.Duration) time.Duration {
	if c.localTTL > 0 && (ttl <= 0 || ttl > c.localTTL) {
		return c.localTTL
	}
	return ttl
}
