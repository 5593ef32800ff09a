package middleware

import (
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RateLimit is a per-client in-memory token bucket.
func RateLimit(rps int, burst int) gin.HandlerFunc {
	l := newMemoryLimiter(rps, burst)
	return func(c *gin.Context) {
		if !l.allow(clientKey(c), time.Now()) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "rate limit exceeded"})
			return
		}
		c.Next()
	}
}

type bucket struct {
	tokens float64
	last   time.Time
}

// memoryLimiter drops a client's bucket once it has been idle long enough to
// refill completely, since a fresh bucket behaves the same.
type memoryLimiter struct {
	mu        sync.Mutex
	buckets   map[string]*bucket
	refill    float64
	burst     float64
	idle      time.Duration
	lastSweep time.Time
}

func newMemoryLimiter(rps int, burst int) *memoryLimiter {
	if rps <= 0 {
		rps = 1
	}
	idle := time.Duration(burst) * time.Second / time.Duration(rps)
	if idle < time.Second {
		idle = time.Second
	}
	return &memoryLimiter{
		buckets: map[string]*bucket{},
		refill:  float64(rps),
		burst:   float64(burst),
		idle:    idle,
	}
}

func (l *memoryLimiter) allow(key string, now time.Time) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	if now.Sub(l.lastSweep) >= l.idle {
		l.sweep(now)
	}
	b := l.buckets[key]
	if b == nil {
		b = &bucket{tokens: l.burst, last: now}
		l.buckets[key] = b
	}
	elapsed := now.Sub(b.last).Seconds()
	b.tokens = min(l.burst, b.tokens+elapsed*l.refill)
	b.last = now
	if b.tokens < 1 {
		return false
	}
	b.tokens -= 1
	return true
}

func (l *memoryLimiter) sweep(now time.Time) {
	for k, b := range l.buckets {
		if now.Sub(b.last) >= l.idle {
			delete(l.buckets, k)
		}
	}
	l.lastSweep = now
}

func (l *memoryLimiter) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.buckets)
}

func clientKey(c *gin.Context) string {
	host, _, _ := net.SplitHostPort(c.Request.RemoteAddr)
	if host == "" {
		host = c.ClientIP()
	}
	if host == "" {
		host = "unknown"
	}
	return host
}

// Sliding window log: one sorted-set member per admitted request, scored by
// its arrival time in milliseconds.
var slidingWindow = redis.NewScript(`
local key = KEYS[1]
local window = tonumber(ARGV[1])
local limit = tonumber(ARGV[2])
local now = tonumber(ARGV[3])

redis.call('ZREMRANGEBYSCORE', key, 0, now - window)
local current = redis.call('ZCARD', key)
if current < limit then
	redis.call('ZADD', key, now, ARGV[4])
	redis.call('PEXPIRE', key, window)
	return {1, limit - current - 1}
end
return {0, 0}
`)

// RedisRateLimit admits at most burst requests per client within a window of
// burst/rps seconds, shared across every instance using the same Redis.
// Redis errors fail open.
func RedisRateLimit(log *zap.Logger, client *redis.Client, rps int, burst int) gin.HandlerFunc {
	return redisRateLimit(log, client, rps, burst, nil)
}

func redisRateLimit(log *zap.Logger, client *redis.Client, rps int, burst int, fallback gin.HandlerFunc) gin.HandlerFunc {
	if rps <= 0 {
		rps = 1
	}
	window := time.Duration(burst) * time.Second / time.Duration(rps)
	windowMs := window.Milliseconds()
	return func(c *gin.Context) {
		key := "ratelimit:" + clientKey(c)
		now := time.Now().UnixMilli()

		res, err := slidingWindow.Run(c.Request.Context(), client, []string{key}, windowMs, burst, now, uuid.NewString()).Int64Slice()
		if err != nil || len(res) < 2 {
			log.Warn("redis rate limit unavailable", zap.Error(err))
			if fallback != nil {
				fallback(c)
				return
			}
			c.Next()
			return
		}
		allowed, remaining := res[0], res[1]

		c.Header("X-RateLimit-Limit", strconv.Itoa(burst))
		c.Header("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))
		if allowed == 0 {
			retry := int(window.Seconds())
			if retry < 1 {
				retry = 1
			}
			c.Header("Retry-After", strconv.Itoa(retry))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error":       "rate limit exceeded",
				"retry_after": retry,
			})
			return
		}
		c.Next()
	}
}

// HybridRateLimit prefers Redis and drops to the in-memory bucket whenever
// Redis is missing or failing.
func HybridRateLimit(log *zap.Logger, client *redis.Client, rps int, burst int) gin.HandlerFunc {
	memory := RateLimit(rps, burst)
	if client == nil {
		return memory
	}
	return redisRateLimit(log, client, rps, burst, memory)
}
