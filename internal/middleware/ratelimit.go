package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	// RateLimitKeyPrefix is the Redis key prefix for rate limiting
	RateLimitKeyPrefix = "ratelimit:"
	// BlockedIPKeyPrefix is the Redis key prefix for blocked IPs
	BlockedIPKeyPrefix = "blocked_ip:"
)

// RedisRateLimit counts requests per IP in a fixed Redis window shared by
// every instance, and blocks an IP for BlockFor once it exceeds Max.
type RedisRateLimit struct {
	Client   *redis.Client
	Window   time.Duration
	Max      int
	BlockFor time.Duration
}

// Middleware fails open: without a client or on a Redis error the request
// is let through.
func (rl RedisRateLimit) Middleware(next http.Handler) http.Handler {
	if rl.Client == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		ip := ClientIP(r)

		blockedKey := BlockedIPKeyPrefix + ip
		if n, err := rl.Client.Exists(ctx, blockedKey).Result(); err == nil && n > 0 {
			writeError(w, http.StatusTooManyRequests, "Your IP has been temporarily blocked due to excessive requests. Please try again later.")
			return
		}

		key := RateLimitKeyPrefix + ip
		count, err := rl.hit(ctx, key)
		if err != nil {
			slog.Warn("redis rate limit unavailable", slog.String("error", err.Error()))
			next.ServeHTTP(w, r)
			return
		}

		if count > int64(rl.Max) {
			if rl.BlockFor > 0 {
				rl.Client.Set(ctx, blockedKey, "1", rl.BlockFor)
			}
			w.Header().Set("Retry-After", strconv.Itoa(int(rl.Window.Seconds())))
			writeError(w, http.StatusTooManyRequests, fmt.Sprintf("Rate limit exceeded. Try again in %d seconds.", int(rl.Window.Seconds())))
			return
		}

		w.Header().Set("X-RateLimit-Limit", strconv.Itoa(rl.Max))
		w.Header().Set("X-RateLimit-Remaining", strconv.FormatInt(int64(rl.Max)-count, 10))
		next.ServeHTTP(w, r)
	})
}

// hit counts one request against key and returns the new count. The window
// TTL is set whenever the key has none, so a counter whose first EXPIRE was
// lost still expires on the next request.
func (rl RedisRateLimit) hit(ctx context.Context, key string) (int64, error) {
	var incr *redis.IntCmd
	var ttl *redis.DurationCmd
	_, err := rl.Client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, key)
		ttl = pipe.TTL(ctx, key)
		return nil
	})
	if err != nil {
		return 0, err
	}
	if needsExpiry(ttl.Val()) {
		if err := rl.Client.Expire(ctx, key, rl.Window).Err(); err != nil {
			return 0, fmt.Errorf("set rate limit window: %w", err)
		}
	}
	return incr.Val(), nil
}

// needsExpiry reports whether a TTL reply means the key never expires.
func needsExpiry(ttl time.Duration) bool {
	return ttl < 0
}
