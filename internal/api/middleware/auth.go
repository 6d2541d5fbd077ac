package middleware

import (
	"log/slog"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/saturnino-fabrica-de-software/classroll/internal/auth"
	"github.com/saturnino-fabrica-de-software/classroll/internal/domain"
)

// LocalCaller is the key to retrieve the authenticated caller from context
const LocalCaller = "caller"

// TokenValidator checks access tokens
type TokenValidator interface {
	ValidateToken(token string) (*auth.Claims, error)
}

type AuthDependencies struct {
	Tokens TokenValidator
	Logger *slog.Logger
	// AllowQueryToken accepts ?token= for clients that cannot set headers (websockets)
	AllowQueryToken bool
}

// Auth creates an authentication middleware for bearer access tokens
func Auth(deps AuthDependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		// 1. Extract Bearer token
		token := extractBearerToken(c)
		if token == "" && deps.AllowQueryToken {
			token = strings.TrimSpace(c.Query("token"))
		}
		if token == "" {
			return domain.ErrUnauthorized
		}

		// 2. Validate signature, issuer and expiry
		claims, err := deps.Tokens.ValidateToken(token)
		if err != nil {
			deps.Logger.Debug("invalid access token", "error", err, "path", c.Path())
			return domain.ErrUnauthorized
		}

		// 3. Set caller in context
		c.Locals(LocalCaller, claims.Caller())

		return c.Next()
	}
}

// extractBearerToken extracts token from Authorization header
func extractBearerToken(c *fiber.Ctx) string {
	header := c.Get("Authorization")
	if header == "" {
		return ""
	}

	// Expected format: "Bearer <token>"
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}

	return strings.TrimSpace(parts[1])
}

// GetCaller retrieves the authenticated caller from Fiber context
func GetCaller(c *fiber.Ctx) (domain.Caller, error) {
	caller, ok := c.Locals(LocalCaller).(domain.Caller)
	if !ok || caller.UserID == "" {
		return domain.Caller{}, domain.ErrUnauthorized
	}
	return caller, nil
}
