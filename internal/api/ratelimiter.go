package api

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const (
	clientIdleTTL      = 10 * time.Minute
	clientSweepEvery   = 1024
	retryAfterFallback = time.Second
)

// rateLimiter decides whether a request from the client identified by key
// may proceed.
type rateLimiter interface {
	Allow(key string) bool
}

type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// perClientLimiter keeps one token bucket per client so a single noisy
// visitor cannot starve the others. Idle buckets are dropped periodically.
type perClientLimiter struct {
	rate  rate.Limit
	burst int
	clock func() time.Time

	mu      sync.Mutex
	clients map[string]*clientLimiter
	calls   int
}

func newTokenBucketLimiter(ratePerSecond float64, burst int) *perClientLimiter {
	if ratePerSecond <= 0 {
		ratePerSecond = 1
	}
	if burst <= 0 {
		burst = 1
	}

	return &perClientLimiter{
		rate:    rate.Limit(ratePerSecond),
		burst:   burst,
		clock:   time.Now,
		clients: make(map[string]*clientLimiter),
	}
}

func (l *perClientLimiter) Allow(key string) bool {
	if l == nil {
		return true
	}

	now := l.clock()

	l.mu.Lock()
	c, ok := l.clients[key]
	if !ok {
		c = &clientLimiter{limiter: rate.NewLimiter(l.rate, l.burst)}
		l.clients[key] = c
	}
	c.lastSeen = now
	l.calls++
	if l.calls%clientSweepEvery == 0 {
		l.sweep(now)
	}
	l.mu.Unlock()

	return c.limiter.AllowN(now, 1)
}

// sweep drops clients idle for longer than clientIdleTTL. Callers hold mu.
func (l *perClientLimiter) sweep(now time.Time) {
	for key, c := range l.clients {
		if now.Sub(c.lastSeen) > clientIdleTTL {
			delete(l.clients, key)
		}
	}
}

func (l *perClientLimiter) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.clients)
}

func (l *perClientLimiter) retryAfter() time.Duration {
	if l == nil || l.rate <= 0 {
		return retryAfterFallback
	}
	wait := time.Duration(float64(time.Second) / float64(l.rate))
	if wait < retryAfterFallback {
		return retryAfterFallback
	}
	return wait
}

func rateLimitMiddleware(limiter rateLimiter, resolver *ClientIPResolver, next http.Handler) http.Handler {
	if limiter == nil {
		return next
	}
	retryAfter := retryAfterFallback
	if l, ok := limiter.(*perClientLimiter); ok {
		retryAfter = l.retryAfter()
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if limiter.Allow(resolver.ClientIP(r)) {
			next.ServeHTTP(w, r)
			return
		}
		w.Header().Set("Retry-After", strconv.Itoa(int(retryAfter.Round(time.Second)/time.Second)))
		writeError(w, http.StatusTooManyRequests, "Too many requests", "rate limit exceeded, please retry shortly")
	})
}
