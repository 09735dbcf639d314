package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
)

// RequestIDLogMiddleware stores a request-scoped zerolog logger carrying the
// Fiber request ID in the user context. Services and repositories pick it up
// with logging.FromContext.
func RequestIDLogMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		rid, ok := c.Locals("requestid").(string)
		if !ok || rid == "" {
			return c.Next()
		}

		reqLogger := log.With().Str("request_id", rid).Logger()
		c.SetUserContext(reqLogger.WithContext(c.UserContext()))

		return c.Next()
	}
}
