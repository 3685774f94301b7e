package http

import (
	"net"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/mkrupp/jwtauth/internal/infra/logging"
)

const (
	rateLimiterIdleTTL    = 10 * time.Minute
	rateLimiterSweepEvery = 256
)

// RateLimiter hands out one token bucket per client key.
type RateLimiter struct {
	limit rate.Limit
	burst int

	mu      sync.Mutex
	clients map[string]*rateLimitedClient
	calls   int
}

type rateLimitedClient struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewRateLimiter allows perSecond requests per client with the given burst.
// perSecond <= 0 disables limiting.
func NewRateLimiter(perSecond float64, burst int) *RateLimiter {
	limit := rate.Limit(perSecond)
	if perSecond <= 0 {
		limit = rate.Inf
	}

	return &RateLimiter{
		limit:   limit,
		burst:   max(burst, 1),
		clients: make(map[string]*rateLimitedClient),
	}
}

// Allow reports whether key may make a request at now.
func (l *RateLimiter) Allow(key string, now time.Time) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.calls++
	if l.calls%rateLimiterSweepEvery == 0 {
		for k, c := range l.clients {
			if now.Sub(c.lastSeen) > rateLimiterIdleTTL {
				delete(l.clients, k)
			}
		}
	}

	c, ok := l.clients[key]
	if !ok {
		c = &rateLimitedClient{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.clients[key] = c
	}

	c.lastSeen = now

	return c.limiter.AllowN(now, 1)
}

// RateLimitingMiddleware answers 429 once a client exceeds the limiter.
// Clients are keyed by remote IP.
func RateLimitingMiddleware(next http.Handler, limiter *RateLimiter, log logging.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := clientIP(r)

		if !limiter.Allow(key, time.Now()) {
			log.WarnContext(r.Context(), "rate limited", "client", key)

			w.Header().Set("Retry-After", "1")
			WriteError(w, http.StatusTooManyRequests, http.StatusText(http.StatusTooManyRequests))

			return
		}

		next.ServeHTTP(w, r)
	})
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}

	return host
}
