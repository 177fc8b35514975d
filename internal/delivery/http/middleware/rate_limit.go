package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"food-expose-backend/internal/delivery/http/response"
	"food-expose-backend/internal/domain"
	"food-expose-backend/pkg/logger"
	"food-expose-backend/pkg/redis"

	"github.com/gin-gonic/gin"
	goredis "github.com/redis/go-redis/v9"
)

// RateLimitConfig describes one fixed-window limit.
type RateLimitConfig struct {
	Limit  int
	Window time.Duration
	// KeyFunc extracts the subject; defaults to the client IP.
	KeyFunc   func(*gin.Context) string
	KeyPrefix string
	// FailClosed rejects requests when Redis is configured but unreachable.
	// Otherwise the in-memory window takes over.
	FailClosed bool
	// Client overrides the shared client from pkg/redis.
	Client *goredis.Client
}

// GlobalRateLimitConfig limits every route per client IP and fails open.
func GlobalRateLimitConfig(limit int, window time.Duration) RateLimitConfig {
	return RateLimitConfig{
		Limit:     limit,
		Window:    window,
		KeyPrefix: "rl:ip:",
	}
}

// AuthRateLimitConfig is the strict limit for sign-in and sign-up.
func AuthRateLimitConfig(limit int, window time.Duration) RateLimitConfig {
	return RateLimitConfig{
		Limit:      limit,
		Window:     window,
		KeyPrefix:  "rl:auth:",
		FailClosed: true,
	}
}

// windowCounter increments key and returns the count within the current window
// and when that window ends.
type windowCounter interface {
	Hit(ctx context.Context, key string, window time.Duration) (int, time.Time, error)
}

// KEYS[1] = counter key, ARGV[1] = window in seconds. Returns {count, ttl}.
const windowHitScript = `
local count = redis.call('INCR', KEYS[1])
if count == 1 then
    redis.call('EXPIRE', KEYS[1], ARGV[1])
end
return {count, redis.call('TTL', KEYS[1])}
`

type redisCounter struct {
	client *goredis.Client
}

func (r redisCounter) Hit(ctx context.Context, key string, window time.Duration) (int, time.Time, error) {
	res, err := r.client.Eval(ctx, windowHitScript, []string{key}, int(window.Seconds())).Int64Slice()
	if err != nil {
		return 0, time.Time{}, fmt.Errorf("rate limit eval: %w", err)
	}
	if len(res) != 2 {
		return 0, time.Time{}, fmt.Errorf("rate limit eval: unexpected reply %v", res)
	}
	return int(res[0]), time.Now().Add(time.Duration(res[1]) * time.Second), nil
}

type memoryWindow struct {
	mu      sync.Mutex
	count   int
	resetAt time.Time
}

// memoryCounter is the process-local fallback. Expired windows are swept
// lazily every sweepEvery hits.
type memoryCounter struct {
	windows sync.Map
	mu      sync.Mutex
	hits    int
}

const sweepEvery = 1024

func (m *memoryCounter) Hit(_ context.Context, key string, window time.Duration) (int, time.Time, error) {
	now := time.Now()
	m.maybeSweep(now)

	v, _ := m.windows.LoadOrStore(key, &memoryWindow{resetAt: now.Add(window)})
	w := v.(*memoryWindow)

	w.mu.Lock()
	defer w.mu.Unlock()
	if !now.Before(w.resetAt) {
		w.count = 0
		w.resetAt = now.Add(window)
	}
	w.count++
	return w.count, w.resetAt, nil
}

func (m *memoryCounter) maybeSweep(now time.Time) {
	m.mu.Lock()
	m.hits++
	sweep := m.hits%sweepEvery == 0
	m.mu.Unlock()
	if !sweep {
		return
	}

	m.windows.Range(func(k, v interface{}) bool {
		w := v.(*memoryWindow)
		w.mu.Lock()
		expired := now.After(w.resetAt)
		w.mu.Unlock()
		if expired {
			m.windows.Delete(k)
		}
		return true
	})
}

var fallbackCounter = &memoryCounter{}

// RateLimitMiddleware enforces config per subject, in Redis when available.
func RateLimitMiddleware(config RateLimitConfig) gin.HandlerFunc {
	keyFunc := config.KeyFunc
	if keyFunc == nil {
		keyFunc = func(c *gin.Context) string { return c.ClientIP() }
	}

	return func(c *gin.Context) {
		key := config.KeyPrefix + keyFunc(c)

		client := config.Client
		if client == nil {
			client = redis.Client()
		}

		var (
			count   int
			resetAt time.Time
			err     error
		)
		if client != nil {
			count, resetAt, err = redisCounter{client: client}.Hit(c.Request.Context(), key, config.Window)
			if err != nil {
				logger.Log.Warn("Rate limit store unavailable",
					"key", key, "fail_closed", config.FailClosed, "error", err)
				if config.FailClosed {
					response.Error(c, http.StatusServiceUnavailable, "Service temporarily unavailable. Please try again.", nil)
					c.Abort()
					return
				}
			}
		}
		if client == nil || err != nil {
			count, resetAt, _ = fallbackCounter.Hit(c.Request.Context(), key, config.Window)
		}

		remaining := config.Limit - count
		if remaining < 0 {
			remaining = 0
		}
		c.Header("X-RateLimit-Limit", strconv.Itoa(config.Limit))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(remaining))
		c.Header("X-RateLimit-Reset", resetAt.UTC().Format(time.RFC3339))

		if count > config.Limit {
			retryAfter := int(time.Until(resetAt).Seconds())
			if retryAfter < 1 {
				retryAfter = 1
			}
			c.Header("Retry-After", strconv.Itoa(retryAfter))

			logger.Log.Warn("Rate limit exceeded",
				"key", key,
				"path", c.FullPath(),
				"request_id", c.GetString(string(domain.KeyRequestID)))

			response.Error(c, http.StatusTooManyRequests, "Rate limit exceeded. Please try again later.", nil)
			c.Abort()
			return
		}

		c.Next()
	}
}
