package api

import (
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/ethpandaops/perfsummary/pkg/config"
	"golang.org/x/time/rate"
)

const (
	// tierPublic limits the metadata routes.
	tierPublic = "public"
	// tierRender limits the routes that render widgets from the source.
	tierRender = "render"

	limiterSweepInterval = 5 * time.Minute
	limiterIdleTTL       = 10 * time.Minute
)

type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// tierLimiter keeps one token bucket per client IP for a named tier.
type tierLimiter struct {
	name    string
	limit   rate.Limit
	burst   int
	mu      sync.Mutex
	clients map[string]*clientLimiter
}

// newTierLimiter allows a burst of the per-minute budget, refilled evenly
// over the minute. A non-positive budget does not limit.
func newTierLimiter(name string, tier config.RateLimitTier) *tierLimiter {
	t := &tierLimiter{
		name:    name,
		limit:   rate.Inf,
		clients: make(map[string]*clientLimiter, 64),
	}

	if tier.RequestsPerMinute > 0 {
		t.limit = rate.Every(time.Minute / time.Duration(tier.RequestsPerMinute))
		t.burst = tier.RequestsPerMinute
	}

	return t
}

// allow reports whether ip may make a request at now.
func (t *tierLimiter) allow(ip string, now time.Time) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	c, ok := t.clients[ip]
	if !ok {
		c = &clientLimiter{limiter: rate.NewLimiter(t.limit, t.burst)}
		t.clients[ip] = c
	}

	c.lastSeen = now

	return c.limiter.AllowN(now, 1)
}

// sweep drops clients idle for longer than limiterIdleTTL.
func (t *tierLimiter) sweep(now time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()

	for ip, c := range t.clients {
		if now.Sub(c.lastSeen) > limiterIdleTTL {
			delete(t.clients, ip)
		}
	}
}

func (t *tierLimiter) size() int {
	t.mu.Lock()
	defer t.mu.Unlock()

	return len(t.clients)
}

// sweepLimiters evicts idle clients of every tier until done is closed.
func sweepLimiters(done <-chan struct{}, tiers ...*tierLimiter) {
	ticker := time.NewTicker(limiterSweepInterval)
	defer ticker.Stop()

	for {
		select {
		case now := <-ticker.C:
			for _, t := range tiers {
				t.sweep(now)
			}
		case <-done:
			return
		}
	}
}

// rateLimiters builds the public and render tier middlewares. Both return
// nil when rate limiting is disabled.
func (s *server) rateLimiters() (public, render func(http.Handler) http.Handler) {
	rl := s.cfg.API.Server.RateLimit
	if !rl.Enabled {
		return nil, nil
	}

	pub := newTierLimiter(tierPublic, rl.Public)
	ren := newTierLimiter(tierRender, rl.Render)

	go sweepLimiters(s.done, pub, ren)

	return s.limitBy(pub), s.limitBy(ren)
}

// limitBy rejects requests over the tier's per-IP budget with 429.
func (s *server) limitBy(t *tierLimiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := extractIP(r)

			if !t.allow(ip, time.Now()) {
				if s.httpMetric != nil {
					s.httpMetric.rateLimited.WithLabelValues(t.name).Inc()
				}

				s.log.WithField("tier", t.name).
					WithField("remote", ip).
					Debug("Request rate limited")

				w.Header().Set("Retry-After", "60")
				writeJSON(w, http.StatusTooManyRequests,
					errorResponse{"rate limit exceeded"})

				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// extractIP returns the client's IP address from the request.
func extractIP(r *http.Request) string {
	// Check X-Forwarded-For first (common with reverse proxies).
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")

		return strings.TrimSpace(first)
	}

	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}

	return ip
}
