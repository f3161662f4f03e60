package middleware

import (
	"context"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const (
	headerXContentTypeOptions     = "X-Content-Type-Options"
	headerXFrameOptions           = "X-Frame-Options"
	headerXXSSProtection          = "X-XSS-Protection"
	headerContentSecurityPolicy   = "Content-Security-Policy"
	headerStrictTransportSecurity = "Strict-Transport-Security"
	headerReferrerPolicy          = "Referrer-Policy"
)

// SecurityHeaders sets security-related response headers. Uploaded media is
// embedded by the web client from another origin, so resources may be
// loaded cross-origin but never framed.
func SecurityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(headerXContentTypeOptions, "nosniff")
		w.Header().Set(headerXFrameOptions, "DENY")
		w.Header().Set(headerXXSSProtection, "1; mode=block")
		w.Header().Set(headerContentSecurityPolicy, "default-src 'self'; frame-ancestors 'none'")
		w.Header().Set(headerStrictTransportSecurity, "max-age=31536000; includeSubDomains")
		w.Header().Set(headerReferrerPolicy, "strict-origin-when-cross-origin")
		next.ServeHTTP(w, r)
	})
}

// HostCheck returns 403 when r.Host does not match allowedHost (e.g. api.pashubazaar.in).
// allowedHost should be the bare hostname without scheme or port.
func HostCheck(allowedHost string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if allowedHost == "" {
				next.ServeHTTP(w, r)
				return
			}
			reqHost := r.Host
			if host, _, err := net.SplitHostPort(reqHost); err == nil {
				reqHost = host
			}
			if !strings.EqualFold(strings.TrimSpace(reqHost), strings.TrimSpace(allowedHost)) {
				writeError(w, http.StatusForbidden, "Forbidden")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// ClientIP is the caller's address after chi's RealIP middleware has
// rewritten RemoteAddr from proxy headers.
func ClientIP(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}

type limiterEntry struct {
	limiter *rate.Limiter
	lastUse time.Time
}

// IPRateLimiter hands out one token bucket per key (usually a client IP).
// Idle buckets are dropped by Sweep.
type IPRateLimiter struct {
	mu      sync.Mutex
	entries map[string]*limiterEntry
	limit   rate.Limit
	burst   int
	ttl     time.Duration
}

func NewIPRateLimiter(limit rate.Limit, burst int) *IPRateLimiter {
	return &IPRateLimiter{
		entries: make(map[string]*limiterEntry),
		limit:   limit,
		burst:   burst,
		ttl:     30 * time.Minute,
	}
}

func (l *IPRateLimiter) Allow(key string) bool {
	l.mu.Lock()
	e, ok := l.entries[key]
	if !ok {
		e = &limiterEntry{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.entries[key] = e
	}
	e.lastUse = time.Now()
	l.mu.Unlock()
	return e.limiter.Allow()
}

func (l *IPRateLimiter) Burst() int { return l.burst }

// Sweep drops buckets unused for longer than the idle TTL.
func (l *IPRateLimiter) Sweep(now time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for k, e := range l.entries {
		if now.Sub(e.lastUse) > l.ttl {
			delete(l.entries, k)
		}
	}
}

// RunSweeper sweeps every interval until ctx is done.
func (l *IPRateLimiter) RunSweeper(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			l.Sweep(now)
		}
	}
}

func (l *IPRateLimiter) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

// Limiters used by ProductionSecurity.
type Limiters struct {
	Global *IPRateLimiter
	Login  *IPRateLimiter
}

// DefaultLimiters: 5 req/s burst 20 per IP overall; 1 req/5s burst 3 on login.
func DefaultLimiters() Limiters {
	return Limiters{
		Global: NewIPRateLimiter(rate.Limit(5), 20),
		Login:  NewIPRateLimiter(rate.Every(5*time.Second), 3),
	}
}

// GlobalRateLimit limits each IP with l. Returns 429 when exceeded.
func GlobalRateLimit(l *IPRateLimiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !l.Allow(ClientIP(r)) {
				writeError(w, http.StatusTooManyRequests, "Too many requests. Please slow down.")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

var loginPaths = map[string]bool{
	"/api/login":    true,
	"/api/register": true,
}

// LoginRateLimit applies a stricter limit to the credential routes only.
func LoginRateLimit(l *IPRateLimiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost || !loginPaths[r.URL.Path] {
				next.ServeHTTP(w, r)
				return
			}
			if !l.Allow(ClientIP(r)) {
				writeError(w, http.StatusTooManyRequests, "Too many login attempts. Please try again later.")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// ProductionSecurity returns middlewares for production: SecurityHeaders → HostCheck → GlobalRateLimit → LoginRateLimit.
func ProductionSecurity(allowedHost string, l Limiters) []func(http.Handler) http.Handler {
	return []func(http.Handler) http.Handler{
		SecurityHeaders,
		HostCheck(allowedHost),
		GlobalRateLimit(l.Global),
		LoginRateLimit(l.Login),
	}
}
