package middleware

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

// Upload rate limit: per-IP, different limits for bearer vs anonymous callers.
// Auth: 30/min, burst 10. Anonymous: 6/min, burst 3.
const (
	uploadAuthEvery = 2 * time.Second
	uploadAuthBurst = 10
	uploadAnonEvery = 10 * time.Second
	uploadAnonBurst = 3
)

// UploadLimiters holds the two upload buckets.
type UploadLimiters struct {
	Auth *IPRateLimiter
	Anon *IPRateLimiter
}

func DefaultUploadLimiters() UploadLimiters {
	return UploadLimiters{
		Auth: NewIPRateLimiter(rate.Every(uploadAuthEvery), uploadAuthBurst),
		Anon: NewIPRateLimiter(rate.Every(uploadAnonEvery), uploadAnonBurst),
	}
}

func hasBearer(r *http.Request) bool {
	auth := r.Header.Get("Authorization")
	return strings.HasPrefix(auth, "Bearer ") && strings.TrimSpace(strings.TrimPrefix(auth, "Bearer ")) != ""
}

// UploadRateLimit guards the upload route. The bearer check is only a
// bucket selector; the token itself is validated downstream.
func UploadRateLimit(l UploadLimiters) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			limiter := l.Anon
			if hasBearer(r) {
				limiter = l.Auth
			}
			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(limiter.Burst()))

			if !limiter.Allow(ClientIP(r)) {
				w.Header().Set("X-RateLimit-Remaining", "0")
				writeError(w, http.StatusTooManyRequests, "Too many uploads. Please slow down.")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
