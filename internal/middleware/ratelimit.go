package middleware

import (
	"math"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const (
	authPathPrefix   = "/api/v1/auth"
	defaultAuthRPM   = 10
	limiterPoolSweep = 1000
	limiterIdleTTL   = 10 * time.Minute
)

// limiterPool hands out one token bucket per client key, all refilling at
// the same per-minute rate.
type limiterPool struct {
	rpm int

	mu      sync.Mutex
	buckets map[string]*bucket
}

type bucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

func newLimiterPool(rpm int) *limiterPool {
	return &limiterPool{rpm: rpm, buckets: map[string]*bucket{}}
}

func (p *limiterPool) unlimited() bool { return p.rpm <= 0 }

// take consumes a token for key. When none is available it reports how long
// the client has to wait; the reservation is released so a rejected call
// does not push the next slot further out.
func (p *limiterPool) take(key string, now time.Time) (bool, time.Duration) {
	if p.unlimited() {
		return true, 0
	}

	lim := p.get(key, now)
	res := lim.ReserveN(now, 1)
	if !res.OK() {
		return false, time.Minute
	}
	delay := res.DelayFrom(now)
	if delay == 0 {
		return true, 0
	}
	res.CancelAt(now)
	return false, delay
}

func (p *limiterPool) get(key string, now time.Time) *rate.Limiter {
	p.mu.Lock()
	defer p.mu.Unlock()

	b, ok := p.buckets[key]
	if !ok {
		b = &bucket{limiter: rate.NewLimiter(rate.Every(time.Minute/time.Duration(p.rpm)), p.rpm)}
		p.buckets[key] = b
	}
	b.lastSeen = now

	if len(p.buckets) >= limiterPoolSweep {
		cutoff := now.Add(-limiterIdleTTL)
		for k, idle := range p.buckets {
			if idle.lastSeen.Before(cutoff) {
				delete(p.buckets, k)
			}
		}
	}
	return b.limiter
}

func (p *limiterPool) size() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.buckets)
}

// RateLimitMiddleware limits each client IP. Login, signup and the password
// flows draw from a separate, stricter auth budget.
type RateLimitMiddleware struct {
	general *limiterPool
	auth    *limiterPool
	now     func() time.Time
}

// NewRateLimitMiddleware treats generalRPM <= 0 as unlimited. The auth
// budget always applies and falls back to 10 per minute.
func NewRateLimitMiddleware(generalRPM int, authRPM int) *RateLimitMiddleware {
	if authRPM <= 0 {
		authRPM = defaultAuthRPM
	}
	return &RateLimitMiddleware{
		general: newLimiterPool(generalRPM),
		auth:    newLimiterPool(authRPM),
		now:     time.Now,
	}
}

func (m *RateLimitMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		pool := m.general
		if strings.HasPrefix(strings.ToLower(r.URL.Path), authPathPrefix) {
			pool = m.auth
		}

		if !pool.unlimited() {
			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(pool.rpm))
		}

		ok, wait := pool.take(ClientIPFromRequest(r), m.now())
		if !ok {
			w.Header().Set("Retry-After", strconv.Itoa(retryAfterSeconds(wait)))
			writeJSONError(w, http.StatusTooManyRequests, "RATE_LIMITED", "Too many requests")
			return
		}

		next.ServeHTTP(w, r)
	})
}

func retryAfterSeconds(wait time.Duration) int {
	secs := int(math.Ceil(wait.Seconds()))
	if secs < 1 {
		return 1
	}
	return secs
}
