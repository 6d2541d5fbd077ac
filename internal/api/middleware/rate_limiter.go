package middleware

import (
	"log/slog"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/saturnino-fabrica-de-software/classroll/internal/domain"
	"github.com/saturnino-fabrica-de-software/classroll/internal/ratelimit"
)

// RateLimiterConfig holds configuration for rate limiting
type RateLimiterConfig struct {
	// Max requests per window
	Max int
	// Scope prefixes every key so separate route groups keep separate counters
	Scope string
	// Counter stores the windows; its window length applies
	Counter ratelimit.Counter
	// Key generator function - returns the caller's user ID by default
	KeyGenerator func(c *fiber.Ctx) string
	Logger       *slog.Logger
}

// CallerKey keys the limit by authenticated user. Must run after Auth.
func CallerKey(c *fiber.Ctx) string {
	caller, err := GetCaller(c)
	if err != nil {
		return ""
	}
	return caller.UserID
}

// RateLimit rejects requests above Max per window with RATE_LIMIT_EXCEEDED.
// Counter failures let the request through.
func RateLimit(config RateLimiterConfig) fiber.Handler {
	if config.Max <= 0 {
		config.Max = 60
	}
	if config.KeyGenerator == nil {
		config.KeyGenerator = CallerKey
	}
	if config.Logger == nil {
		config.Logger = slog.Default()
	}

	return func(c *fiber.Ctx) error {
		key := config.KeyGenerator(c)
		if key == "" {
			// Anonymous requests fail at auth anyway
			return c.Next()
		}

		window, err := config.Counter.Increment(c.UserContext(), config.Scope+":"+key)
		if err != nil {
			config.Logger.Warn("rate limit counter failed", "error", err, "scope", config.Scope)
			return c.Next()
		}

		remaining := config.Max - window.Count
		if remaining < 0 {
			remaining = 0
		}

		// Set rate limit headers
		c.Set("X-RateLimit-Limit", strconv.Itoa(config.Max))
		c.Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
		c.Set("X-RateLimit-Reset", window.ResetAt.UTC().Format(time.RFC3339))

		if window.Count > config.Max {
			retry := int(time.Until(window.ResetAt).Seconds())
			if retry < 1 {
				retry = 1
			}
			c.Set("Retry-After", strconv.Itoa(retry))
			return domain.ErrRateLimitExceeded
		}

		return c.Next()
	}
}
