package middleware

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"golang.org/x/time/rate"
)

// Tier is a rate limit policy.
type Tier struct {
	Name  string
	Limit rate.Limit
	Burst int
}

var (
	// login, register and password reset
	TierStrict  = Tier{Name: "strict", Limit: rate.Limit(2), Burst: 5}
	TierGeneral = Tier{Name: "general", Limit: rate.Limit(10), Burst: 20}
)

const visitorTTL = 3 * time.Minute

// visitor holds the rate limiter and the last time it was seen.
type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

type Limiter struct {
	mu       sync.Mutex
	visitors map[string]*visitor
	now      func() time.Time
}

// NewLimiter starts a cleanup loop that stops when ctx is done.
func NewLimiter(ctx context.Context) *Limiter {
	l := &Limiter{visitors: make(map[string]*visitor), now: time.Now}
	go l.cleanupLoop(ctx, time.Minute)
	return l
}

func (l *Limiter) get(key string, tier Tier) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	v, exists := l.visitors[key]
	if !exists {
		v = &visitor{limiter: rate.NewLimiter(tier.Limit, tier.Burst)}
		l.visitors[key] = v
	}
	v.lastSeen = l.now()
	return v.limiter
}

func (l *Limiter) cleanupLoop(ctx context.Context, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			l.cleanup()
		}
	}
}

// cleanup removes visitors idle for longer than visitorTTL.
func (l *Limiter) cleanup() {
	l.mu.Lock()
	defer l.mu.Unlock()

	for key, v := range l.visitors {
		if l.now().Sub(v.lastSeen) > visitorTTL {
			delete(l.visitors, key)
		}
	}
}

// Middleware throttles per client IP. It runs ahead of authentication, so
// signed-in callers share their address's bucket. Each tier has its own bucket.
func (l *Limiter) Middleware(tier Tier) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !l.get("ip:"+c.RealIP()+":"+tier.Name, tier).Allow() {
				return echo.NewHTTPError(http.StatusTooManyRequests, "too many requests, please try again later")
			}
			return next(c)
		}
	}
}
