package cache

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"
)

// l1PromoteTTL bounds how long a value read from redis is kept in memory.
const l1PromoteTTL = time.Minute

// MultiLevelCache keeps an in-process L1 in front of an optional redis L2.
// Calls to L2 go through a circuit breaker; while it is open the cache keeps
// serving from L1.
type MultiLevelCache struct {
	l1      *MemoryCache
	l2      *RedisCache
	breaker *CircuitBreaker
	metrics *CacheMetrics
	logger  logrus.FieldLogger
}

func NewMultiLevelCache(redisCache *RedisCache, breakerConfig *CircuitBreakerConfig, log logrus.FieldLogger) *MultiLevelCache {
	if log == nil {
		log = logrus.StandardLogger()
	}
	if breakerConfig == nil {
		breakerConfig = DefaultCircuitBreakerConfig()
	}
	if breakerConfig.OnStateChange == nil {
		breakerConfig.OnStateChange = func(from, to CircuitBreakerState) {
			log.WithFields(logrus.Fields{"from": from.String(), "to": to.String()}).Warn("redis circuit breaker changed state")
		}
	}
	return &MultiLevelCache{
		l1:      NewMemoryCache(),
		l2:      redisCache,
		breaker: NewCircuitBreaker(breakerConfig),
		metrics: NewCacheMetrics(),
		logger:  log,
	}
}

type Options struct {
	RedisEnabled bool
	Redis        *CacheConfig
	Breaker      *CircuitBreakerConfig
}

// New builds the cache described by opts. When redis is disabled or does not
// answer a ping the cache runs memory-only.
func New(ctx context.Context, opts Options, log logrus.FieldLogger) *MultiLevelCache {
	if log == nil {
		log = logrus.StandardLogger()
	}
	if !opts.RedisEnabled {
		log.Info("cache running memory-only")
		return NewMultiLevelCache(nil, opts.Breaker, log)
	}

	redisCache := NewRedisCache(opts.Redis)
	if err := redisCache.Health(ctx); err != nil {
		log.WithError(err).Warn("redis unreachable, cache running memory-only")
		redisCache.Close()
		return NewMultiLevelCache(nil, opts.Breaker, log)
	}

	log.Info("cache running with redis second level")
	return NewMultiLevelCache(redisCache, opts.Breaker, log)
}

func (c *MultiLevelCache) l2Call(fn func() error) error {
	if c.l2 == nil {
		return ErrCacheDown
	}
	err := c.breaker.Execute(fn)
	if err != nil && !errors.Is(err, ErrCacheMiss) {
		c.metrics.RecordError()
	}
	return err
}

func (c *MultiLevelCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if err := c.l1.Set(ctx, key, value, ttl); err != nil {
		return err
	}
	c.metrics.RecordSet()

	err := c.l2Call(func() error { return c.l2.Set(ctx, key, value, ttl) })
	if err != nil && !errors.Is(err, ErrCacheDown) {
		c.logger.WithError(err).WithField("key", key).Debug("redis set skipped")
	}
	return nil
}

func (c *MultiLevelCache) Get(ctx context.Context, key string, dest interface{}) error {
	if err := c.l1.Get(ctx, key, dest); err == nil {
		c.metrics.RecordHit()
		return nil
	}

	err := c.l2Call(func() error { return c.l2.Get(ctx, key, dest) })
	if err == nil {
		c.metrics.RecordHit()
		c.l1.Set(ctx, key, dest, l1PromoteTTL)
		return nil
	}

	c.metrics.RecordMiss()
	return ErrCacheMiss
}

// Take removes key from both levels and returns the value from whichever level
// still had it. With redis reachable the redis GETDEL decides first.
func (c *MultiLevelCache) Take(ctx context.Context, key string, dest interface{}) error {
	if err := c.l2Call(func() error { return c.l2.Take(ctx, key, dest) }); err == nil {
		c.l1.Delete(ctx, key)
		c.metrics.RecordHit()
		return nil
	}

	if err := c.l1.Take(ctx, key, dest); err != nil {
		c.metrics.RecordMiss()
		return ErrCacheMiss
	}
	c.metrics.RecordHit()
	return nil
}

func (c *MultiLevelCache) Delete(ctx context.Context, key string) error {
	c.l1.Delete(ctx, key)
	c.metrics.RecordDelete()

	err := c.l2Call(func() error { return c.l2.Delete(ctx, key) })
	if err != nil && !errors.Is(err, ErrCacheDown) {
		return err
	}
	return nil
}

func (c *MultiLevelCache) DeletePattern(ctx context.Context, pattern string) error {
	if err := c.l1.DeletePattern(ctx, pattern); err != nil {
		return err
	}

	err := c.l2Call(func() error { return c.l2.DeletePattern(ctx, pattern) })
	if err != nil && !errors.Is(err, ErrCacheDown) {
		return err
	}
	return nil
}

func (c *MultiLevelCache) Exists(ctx context.Context, key string) (bool, error) {
	if ok, _ := c.l1.Exists(ctx, key); ok {
		return true, nil
	}

	var exists bool
	err := c.l2Call(func() error {
		var err error
		exists, err = c.l2.Exists(ctx, key)
		return err
	})
	if err != nil {
		return false, nil
	}
	return exists, nil
}

func (c *MultiLevelCache) Stats() map[string]interface{} {
	stats := map[string]interface{}{
		"l1":       c.l1.Stats(),
		"metrics":  c.metrics.GetStats(),
		"hit_rate": c.metrics.HitRate(),
		"breaker":  c.breaker.GetStats(),
	}
	if c.l2 != nil {
		stats["l2"] = c.l2.Stats()
	}
	return stats
}

// Health reports the redis level only. A memory-only cache is always healthy.
func (c *MultiLevelCache) Health(ctx context.Context) error {
	if c.l2 == nil {
		return nil
	}
	return c.l2.Health(ctx)
}

func (c *MultiLevelCache) Close() error {
	c.l1.Close()
	if c.l2 != nil {
		return c.l2.Close()
	}
	return nil
}
