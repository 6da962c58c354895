package http

import (
	"math"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"

	domainhttp "github.com/damianoneill/user-service/pkg/domain/http"
	"github.com/damianoneill/user-service/pkg/domain/logging"
)

const limiterIdleTTL = 3 * time.Minute

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// clientLimiter keeps one token bucket per client address.
type clientLimiter struct {
	limit rate.Limit
	burst int
	ttl   time.Duration
	now   func() time.Time

	mu        sync.Mutex
	visitors  map[string]*visitor
	lastSweep time.Time
}

func newClientLimiter(cfg domainhttp.RateLimit) *clientLimiter {
	return &clientLimiter{
		limit:    rate.Limit(cfg.RequestsPerSecond),
		burst:    cfg.Burst,
		ttl:      limiterIdleTTL,
		now:      time.Now,
		visitors: make(map[string]*visitor),
	}
}

func (l *clientLimiter) allow(client string) bool {
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	if now.Sub(l.lastSweep) > l.ttl {
		for k, v := range l.visitors {
			if now.Sub(v.lastSeen) > l.ttl {
				delete(l.visitors, k)
			}
		}
		l.lastSweep = now
	}

	v, ok := l.visitors[client]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.visitors[client] = v
	}
	v.lastSeen = now
	return v.limiter.AllowN(now, 1)
}

// RateLimitMiddleware rejects requests over the per-client budget with 429
// and a Retry-After header. Paths covered by exempt bypass the limiter.
func RateLimitMiddleware(cfg domainhttp.RateLimit, logger logging.Logger, exempt ...string) func(http.Handler) http.Handler {
	if cfg.RequestsPerSecond <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	limiter := newClientLimiter(cfg)
	skip := newMatcher(exempt)
	// seconds until the next token, at least one
	retryAfter := strconv.Itoa(int(math.Max(1, math.Ceil(1/cfg.RequestsPerSecond))))

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			if skip.Matches(req.URL.Path) {
				next.ServeHTTP(w, req)
				return
			}

			client := clientAddr(req)
			if limiter.allow(client) {
				next.ServeHTTP(w, req)
				return
			}

			if logger != nil {
				logger.WarnWith("Rate limit exceeded", logging.Fields{
					"client": client,
					"path":   req.URL.Path,
				})
			}
			w.Header().Set("Retry-After", retryAfter)
			_ = writeDetail(w, http.StatusTooManyRequests, "Too many requests")
		})
	}
}

// clientAddr strips the port from RemoteAddr, which RealIP has already
// replaced with the forwarded address when one is present.
func clientAddr(req *http.Request) string {
	host, _, err := net.SplitHostPort(req.RemoteAddr)
	if err != nil {
		return req.RemoteAddr
	}
	return host
}
