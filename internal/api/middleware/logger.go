package middleware

import (
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"
)

func Logger(logger *slog.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()

		// Process request
		err := c.Next()

		latency := time.Since(start)

		// A returned error has not been rendered yet; the error handler decides the status
		status := c.Response().StatusCode()
		if err != nil {
			status = fiber.StatusInternalServerError
			if code := errorStatus(err); code != 0 {
				status = code
			}
		}

		// Log level based on status
		logLevel := slog.LevelInfo
		if status >= 500 {
			logLevel = slog.LevelError
		} else if status >= 400 {
			logLevel = slog.LevelWarn
		}

		attrs := []any{
			slog.String("method", c.Method()),
			slog.String("path", c.Path()),
			slog.Int("status", status),
			slog.Duration("latency", latency),
			slog.String("ip", c.IP()),
			slog.String("user_agent", c.Get("User-Agent")),
		}
		if id, ok := c.Locals("requestid").(string); ok {
			attrs = append(attrs, slog.String("request_id", id))
		}
		if caller, err := GetCaller(c); err == nil {
			attrs = append(attrs, slog.String("user_id", caller.UserID))
		}

		logger.Log(c.UserContext(), logLevel, "http request", attrs...)

		return err
	}
}
