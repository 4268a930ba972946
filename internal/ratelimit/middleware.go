package ratelimit

import (
	"net/http"
	"strconv"
	"time"

	"github.com/nvoropaev/venue-till/internal/common"
)

// Config describes how to derive a rate limit key and thresholds.
type Config struct {
	Key    func(*http.Request) string
	Window time.Duration
	Max    int
}

// Guard enforces rate limits before delegating to the next handler. The
// limiter fails open: a Redis error never blocks a legitimate login.
type Guard struct {
	Limiter SlidingWindow
	Config  Config
	OnError func(error)
}

// ByClientIP keys the limit on the caller's IP address.
func ByClientIP(r *http.Request) string {
	return common.ClientIP(r)
}

// Middleware implements the http.Handler middleware interface.
func (g Guard) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if g.Config.Key == nil {
			next.ServeHTTP(w, r)
			return
		}
		key := g.Config.Key(r)
		allowed, remaining, resetAt, err := g.Limiter.Allow(r.Context(), key, g.Config.Window, g.Config.Max)
		if err != nil {
			if g.OnError != nil {
				g.OnError(err)
			}
			next.ServeHTTP(w, r)
			return
		}

		limitValue := g.Config.Max
		if limitValue < 0 {
			limitValue = 0
		}
		headers := w.Header()
		headers.Set("X-RateLimit-Limit", strconv.Itoa(limitValue))
		headers.Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
		headers.Set("X-RateLimit-Reset", strconv.FormatInt(resetAt.Unix(), 10))

		if !allowed {
			retryAfter := int(time.Until(resetAt).Seconds())
			if retryAfter < 0 {
				retryAfter = 0
			}
			headers.Set("Retry-After", strconv.Itoa(retryAfter))
			http.Error(w, "rate limit exceeded", http.StatusTooManyRequests)
			return
		}

		next.ServeHTTP(w, r)
	})
}
