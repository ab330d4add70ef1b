package security

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/pocketbase/pocketbase/apis"
	"github.com/pocketbase/pocketbase/core"
	"github.com/redis/go-redis/v9"
)

// RateLimiter is a fixed-window request counter kept in Redis, so the limit
// holds across every app instance.
type RateLimiter struct {
	redis  redis.Cmdable
	limit  int64
	window time.Duration
	logger *slog.Logger
}

func NewRateLimiter(redisClient redis.Cmdable, limit int, window time.Duration, logger *slog.Logger) *RateLimiter {
	return &RateLimiter{
		redis:  redisClient,
		limit:  int64(limit),
		window: window,
		logger: logger,
	}
}

// Allow counts one request for key and reports whether it is within the
// limit for the current window.
func (r *RateLimiter) Allow(ctx context.Context, key string) (bool, error) {
	count, err := r.redis.Incr(ctx, key).Result()
	if err != nil {
		return false, fmt.Errorf("rate limit incr: %w", err)
	}
	if count == 1 {
		if err := r.redis.Expire(ctx, key, r.window).Err(); err != nil {
			return false, fmt.Errorf("rate limit expire: %w", err)
		}
	}
	return count <= r.limit, nil
}

// AllocationRateLimit limits allocation requests per participant, falling
// back to the client IP for anonymous calls. Redis errors let the request
// through.
func (r *RateLimiter) AllocationRateLimit() func(e *core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		id := "ip:" + e.RealIP()
		if e.Auth != nil {
			id = "user:" + e.Auth.Id
		}
		key := fmt.Sprintf("ratelimit:allocation:%s", id)

		ok, err := r.Allow(e.Request.Context(), key)
		if err != nil {
			r.logger.Warn("rate limiter unavailable", "key", key, "error", err)
			return e.Next()
		}
		if !ok {
			return apis.NewApiError(http.StatusTooManyRequests, "Rate limit exceeded. Please try again later.", nil)
		}
		return e.Next()
	}
}

// AntiBotMiddleware rejects obvious crawlers before they reach the raffle
// endpoints.
func (r *RateLimiter) AntiBotMiddleware() func(e *core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		if isSuspiciousUserAgent(e.Request.Header.Get("User-Agent")) {
			return apis.NewForbiddenError("Access denied", nil)
		}
		return e.Next()
	}
}

func isSuspiciousUserAgent(ua string) bool {
	suspicious := []string{"bot", "crawler", "spider", "scraper"}
	for _, pattern := range suspicious {
		if strings.Contains(strings.ToLower(ua), pattern) {
			return true
		}
	}
	return false
}
