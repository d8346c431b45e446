// Package middleware provides HTTP middleware for the GroupMapper service.
package middleware

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/avissapr/groupmapper/internal/logging"
)

// RequestLogger logs every HTTP request with a generated request id, the
// response status, and the latency. The request id is echoed back in the
// X-Request-ID header so clients can correlate log lines.
func RequestLogger(logger *logging.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()

		requestID := c.Get("X-Request-ID")
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Set("X-Request-ID", requestID)
		c.Locals("request_id", requestID)

		err := c.Next()

		logger.Request(
			requestID,
			c.Method(),
			c.Path(),
			c.Response().StatusCode(),
			time.Since(start).Milliseconds(),
			c.IP(),
		)

		return err
	}
}

// SecureHeaders adds the response headers appropriate for a JSON API.
func SecureHeaders() fiber.Handler {
	return func(c *fiber.Ctx) error {
		c.Set("X-Content-Type-Options", "nosniff")
		c.Set("X-Frame-Options", "DENY")
		c.Set("Cache-Control", "no-store")
		return c.Next()
	}
}
