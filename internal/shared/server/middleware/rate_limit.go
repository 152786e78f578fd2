package middleware

import (
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"mockmate/internal/shared/server/respond"
)

// pruneThreshold is the bucket count above which refilled buckets are dropped.
const pruneThreshold = 4096

// Limit is a token bucket refilled at Rate tokens per second up to Burst.
type Limit struct {
	Rate  float64
	Burst int
}

// PerMinute spreads n requests over a minute with a burst of n/6, at least one.
func PerMinute(n int) (Limit, bool) {
	if n <= 0 {
		return Limit{}, false
	}
	return Limit{Rate: float64(n) / 60, Burst: max(1, n/6)}, true
}

// RateLimitConfig selects a limit per request. Classify returns the group name and
// requests whose group has no entry in Limits pass untouched.
type RateLimitConfig struct {
	Limits   map[string]Limit
	Classify func(*gin.Context) string
	// OnReject is called with the group of every rejected request.
	OnReject func(group string)
	Limiter  *Limiter
}

// Limiter keeps one bucket per client and group.
type Limiter struct {
	mu      sync.Mutex
	buckets map[string]*bucket
	now     func() time.Time
}

type bucket struct {
	tokens float64
	last   time.Time
	limit  Limit
}

func NewLimiter(now func() time.Time) *Limiter {
	if now == nil {
		now = time.Now
	}
	return &Limiter{buckets: make(map[string]*bucket), now: now}
}

// RateLimit answers over-budget requests with 429, a Retry-After header and the error envelope.
func RateLimit(cfg RateLimitConfig) gin.HandlerFunc {
	if cfg.Limiter == nil {
		cfg.Limiter = NewLimiter(nil)
	}
	return func(c *gin.Context) {
		if cfg.Classify == nil {
			c.Next()
			return
		}
		group := cfg.Classify(c)
		limit, ok := cfg.Limits[group]
		if !ok {
			c.Next()
			return
		}
		allowed, wait := cfg.Limiter.Allow(group+"|"+c.ClientIP(), limit)
		if allowed {
			c.Next()
			return
		}
		if cfg.OnReject != nil {
			cfg.OnReject(group)
		}
		waitMs := max(wait.Milliseconds(), 1)
		c.Header("Retry-After", strconv.FormatInt((waitMs+999)/1000, 10))
		respond.Error(c, http.StatusTooManyRequests, "RATE_LIMITED", "Too many requests", gin.H{"retryAfterMs": waitMs})
	}
}

// Allow takes one token from key's bucket. When none is left it reports how long
// until the next token.
func (l *Limiter) Allow(key string, limit Limit) (bool, time.Duration) {
	if l == nil || limit.Rate <= 0 || limit.Burst <= 0 {
		return true, 0
	}
	now := l.now()
	l.mu.Lock()
	defer l.mu.Unlock()

	b, ok := l.buckets[key]
	if !ok {
		if len(l.buckets) >= pruneThreshold {
			l.prune(now)
		}
		b = &bucket{tokens: float64(limit.Burst), last: now, limit: limit}
		l.buckets[key] = b
	}
	b.refill(now)
	if b.tokens >= 1 {
		b.tokens--
		return true, 0
	}
	wait := (1 - b.tokens) / limit.Rate
	return false, time.Duration(math.Ceil(wait*1000)) * time.Millisecond
}

// Len reports the number of tracked buckets.
func (l *Limiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.buckets)
}

func (b *bucket) refill(now time.Time) {
	if elapsed := now.Sub(b.last).Seconds(); elapsed > 0 {
		b.tokens = math.Min(float64(b.limit.Burst), b.tokens+elapsed*b.limit.Rate)
		b.last = now
	}
}

// prune drops buckets that have refilled completely; they behave like new ones.
func (l *Limiter) prune(now time.Time) {
	for key, b := range l.buckets {
		b.refill(now)
		if b.tokens >= float64(b.limit.Burst) {
			delete(l.buckets, key)
		}
	}
}
