package middleware

import (
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/time/rate"
)

// IPLimiter hands out one token bucket per client address.
type IPLimiter struct {
	mu       sync.Mutex
	limiters map[string]*ipEntry
	limit    rate.Limit
	burst    int
	idle     time.Duration
}

type ipEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewIPLimiter allows perMinute requests per address with the given burst.
func NewIPLimiter(perMinute, burst int) *IPLimiter {
	return &IPLimiter{
		limiters: make(map[string]*ipEntry),
		limit:    rate.Limit(float64(perMinute) / 60),
		burst:    burst,
		idle:     10 * time.Minute,
	}
}

func (l *IPLimiter) get(ip string, now time.Time) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	if e, ok := l.limiters[ip]; ok {
		e.lastSeen = now
		return e.limiter
	}

	// Drop buckets nobody used recently before adding a new one
	for key, e := range l.limiters {
		if now.Sub(e.lastSeen) > l.idle {
			delete(l.limiters, key)
		}
	}
	e := &ipEntry{limiter: rate.NewLimiter(l.limit, l.burst), lastSeen: now}
	l.limiters[ip] = e
	return e.limiter
}

// Allow reports whether ip may make another request now.
func (l *IPLimiter) Allow(ip string) bool {
	now := time.Now()
	return l.get(ip, now).AllowN(now, 1)
}

// Handler rejects requests over the limit with 429
func (l *IPLimiter) Handler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !l.Allow(c.IP()) {
			c.Set(fiber.HeaderRetryAfter, "60")
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{"error": "Too many login attempts, slow down"})
		}
		return c.Next()
	}
}
