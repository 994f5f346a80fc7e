package middleware

import (
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"task-tracker/backend/internal/config"
	"task-tracker/backend/internal/logger"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis_rate/v10"
	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"
)

const visitorIdleTimeout = 3 * time.Minute

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter limits requests per client IP. With a Redis client the budget
// is shared by every instance through redis_rate; without one each process
// keeps its own token buckets.
type RateLimiter struct {
	redisLimiter *redis_rate.Limiter
	limit        redis_rate.Limit

	mu          sync.Mutex
	visitors    map[string]*visitor
	lastCleanup time.Time
	now         func() time.Time

	log *slog.Logger
}

func NewRateLimiter(cfg config.RateLimitConfig, rdb *redis.Client, log *slog.Logger) *RateLimiter {
	if log == nil {
		log = logger.Discard()
	}

	perMinute := cfg.RequestsPerMin
	if perMinute < 1 {
		perMinute = 1
	}
	burst := cfg.BurstSize
	if burst < 1 {
		burst = perMinute
	}

	rl := &RateLimiter{
		limit:    redis_rate.Limit{Rate: perMinute, Burst: burst, Period: time.Minute},
		visitors: make(map[string]*visitor),
		now:      time.Now,
		log:      log,
	}
	if rdb != nil {
		rl.redisLimiter = redis_rate.NewLimiter(rdb)
	}
	rl.lastCleanup = rl.now()
	return rl
}

func (rl *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		ip := c.ClientIP()

		allowed, remaining, retryAfter, err := rl.allow(c, ip)
		if err != nil {
			rl.log.Error("rate limiter error", logger.Err(err))
			c.Next()
			return
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(rl.limit.Rate))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(remaining))

		if !allowed {
			rl.log.Warn("rate limit exceeded", slog.String("ip", ip))
			c.Header("Retry-After", strconv.Itoa(int(math.Ceil(retryAfter.Seconds()))))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"detail": "Too Many Requests"})
			return
		}

		c.Next()
	}
}

func (rl *RateLimiter) allow(c *gin.Context, ip string) (bool, int, time.Duration, error) {
	if rl.redisLimiter != nil {
		res, err := rl.redisLimiter.Allow(c.Request.Context(), fmt.Sprintf("rate_limit:%s", ip), rl.limit)
		if err != nil {
			return true, 0, 0, err
		}
		return res.Allowed > 0, res.Remaining, res.RetryAfter, nil
	}

	limiter := rl.visitorLimiter(ip)
	now := rl.now()
	reservation := limiter.ReserveN(now, 1)
	if delay := reservation.DelayFrom(now); delay > 0 {
		reservation.CancelAt(now)
		return false, 0, delay, nil
	}
	return true, int(limiter.TokensAt(now)), 0, nil
}

func (rl *RateLimiter) visitorLimiter(ip string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	if now.Sub(rl.lastCleanup) > visitorIdleTimeout {
		rl.sweepLocked(now)
	}

	v, ok := rl.visitors[ip]
	if !ok {
		perSecond := rate.Limit(float64(rl.limit.Rate) / rl.limit.Period.Seconds())
		v = &visitor{limiter: rate.NewLimiter(perSecond, rl.limit.Burst)}
		rl.visitors[ip] = v
	}
	v.lastSeen = now
	return v.limiter
}

// Sweep drops visitors idle for longer than visitorIdleTimeout and returns
// how many were removed.
func (rl *RateLimiter) Sweep() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return rl.sweepLocked(rl.now())
}

func (rl *RateLimiter) sweepLocked(now time.Time) int {
	removed := 0
	for key, v := range rl.visitors {
		if now.Sub(v.lastSeen) > visitorIdleTimeout {
			delete(rl.visitors, key)
			removed++
		}
	}
	rl.lastCleanup = now
	return removed
}

func (rl *RateLimiter) visitorCount() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.visitors)
}
