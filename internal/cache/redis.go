package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"task-tracker/backend/internal/config"

	"github.com/redis/go-redis/v9"
)

var (
	ErrCacheMiss = errors.New("cache miss")
	ErrCacheDown = errors.New("cache unavailable")
)

const (
	opTimeout   = 3 * time.Second
	scanTimeout = 10 * time.Second
	scanBatch   = 100
)

// RedisCache stores JSON values in Redis. Calls go through a circuit breaker
// so an unreachable server fails fast with ErrCacheDown.
type RedisCache struct {
	client  *redis.Client
	breaker *CircuitBreaker
}

type CacheConfig struct {
	Addr         string
	Password     string
	DB           int
	PoolSize     int
	MinIdleConns int
	MaxRetries   int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	Breaker      *CircuitBreakerConfig
	Logger       *slog.Logger
}

func DefaultCacheConfig() *CacheConfig {
	return &CacheConfig{
		Addr:         "localhost:6379",
		Password:     "",
		DB:           0,
		PoolSize:     10,
		MinIdleConns: 5,
		MaxRetries:   3,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	}
}

func CacheConfigFromConfig(cfg *config.Config) *CacheConfig {
	return &CacheConfig{
		Addr:         cfg.GetRedisAddr(),
		Password:     cfg.Redis.Password,
		DB:           cfg.Redis.DB,
		PoolSize:     cfg.Redis.PoolSize,
		MinIdleConns: cfg.Redis.MinIdleConns,
		MaxRetries:   cfg.Redis.MaxRetries,
		DialTimeout:  cfg.Redis.DialTimeout,
		ReadTimeout:  cfg.Redis.ReadTimeout,
		WriteTimeout: cfg.Redis.WriteTimeout,
	}
}

func NewRedisCache(config *CacheConfig) *RedisCache {
	if config == nil {
		config = DefaultCacheConfig()
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:         config.Addr,
		Password:     config.Password,
		DB:           config.DB,
		PoolSize:     config.PoolSize,
		MinIdleConns: config.MinIdleConns,
		MaxRetries:   config.MaxRetries,
		DialTimeout:  config.DialTimeout,
		ReadTimeout:  config.ReadTimeout,
		WriteTimeout: config.WriteTimeout,
	})

	breakerConfig := DefaultCircuitBreakerConfig()
	if config.Breaker != nil {
		*breakerConfig = *config.Breaker
	}
	if config.Logger != nil && breakerConfig.OnStateChange == nil {
		log := config.Logger.With(slog.String("addr", config.Addr))
		breakerConfig.OnStateChange = func(from, to CircuitBreakerState) {
			log.Warn("redis circuit breaker changed state",
				slog.String("from", from.String()),
				slog.String("to", to.String()),
			)
		}
	}

	return &RedisCache{
		client:  rdb,
		breaker: NewCircuitBreaker(breakerConfig),
	}
}

// Client exposes the underlying connection for components that share it,
// such as the rate limiter.
func (r *RedisCache) Client() *redis.Client {
	return r.client
}

func (r *RedisCache) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal value: %w", err)
	}

	return r.execute(func() error {
		ctx, cancel := context.WithTimeout(ctx, opTimeout)
		defer cancel()

		if err := r.client.Set(ctx, key, data, expiration).Err(); err != nil {
			return fmt.Errorf("failed to set cache: %w", err)
		}
		return nil
	})
}

func (r *RedisCache) Get(ctx context.Context, key string, dest interface{}) error {
	var data []byte
	err := r.execute(func() error {
		ctx, cancel := context.WithTimeout(ctx, opTimeout)
		defer cancel()

		b, err := r.client.Get(ctx, key).Bytes()
		if errors.Is(err, redis.Nil) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to get from cache: %w", err)
		}
		data = b
		return nil
	})
	if err != nil {
		return err
	}
	if data == nil {
		return ErrCacheMiss
	}

	if err := json.Unmarshal(data, dest); err != nil {
		return fmt.Errorf("failed to unmarshal cached data: %w", err)
	}

	return nil
}

func (r *RedisCache) Delete(ctx context.Context, key string) error {
	return r.execute(func() error {
		ctx, cancel := context.WithTimeout(ctx, opTimeout)
		defer cancel()

		return r.client.Del(ctx, key).Err()
	})
}

// DeletePattern removes every key matching a Redis glob. It walks the
// keyspace with SCAN rather than KEYS.
func (r *RedisCache) DeletePattern(ctx context.Context, pattern string) error {
	return r.execute(func() error {
		ctx, cancel := context.WithTimeout(ctx, scanTimeout)
		defer cancel()

		iter := r.client.Scan(ctx, 0, pattern, scanBatch).Iterator()
		batch := make([]string, 0, scanBatch)
		for iter.Next(ctx) {
			batch = append(batch, iter.Val())
			if len(batch) == scanBatch {
				if err := r.client.Del(ctx, batch...).Err(); err != nil {
					return err
				}
				batch = batch[:0]
			}
		}
		if err := iter.Err(); err != nil {
			return fmt.Errorf("failed to scan keys for pattern %s: %w", pattern, err)
		}

		if len(batch) > 0 {
			return r.client.Del(ctx, batch...).Err()
		}
		return nil
	})
}

func (r *RedisCache) Exists(ctx context.Context, key string) (bool, error) {
	var found bool
	err := r.execute(func() error {
		ctx, cancel := context.WithTimeout(ctx, opTimeout)
		defer cancel()

		result, err := r.client.Exists(ctx, key).Result()
		if err != nil {
			return err
		}
		found = result > 0
		return nil
	})
	return found, err
}

func (r *RedisCache) Health(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	return r.client.Ping(ctx).Err()
}

func (r *RedisCache) Stats() map[string]interface{} {
	poolStats := r.client.PoolStats()

	return map[string]interface{}{
		"pool_hits":       poolStats.Hits,
		"pool_misses":     poolStats.Misses,
		"pool_timeouts":   poolStats.Timeouts,
		"pool_total":      poolStats.TotalConns,
		"pool_idle":       poolStats.IdleConns,
		"pool_stale":      poolStats.StaleConns,
		"circuit_breaker": r.breaker.Stats(),
	}
}

func (r *RedisCache) Close() error {
	return r.client.Close()
}

func (r *RedisCache) execute(fn func() error) error {
	err := r.breaker.Execute(fn)
	if errors.Is(err, ErrCircuitBreakerOpen) {
		return fmt.Errorf("%w: %w", ErrCacheDown, err)
	}
	return err
}
