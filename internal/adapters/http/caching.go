package http

import (
	"strings"

	"github.com/gofiber/fiber/v2"
)

// CachingMiddleware sets Cache-Control headers on GET responses based on endpoint.
// Handlers that set their own header win.
func CachingMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		err := c.Next()

		if c.Method() != fiber.MethodGet {
			return err
		}
		if c.Response().StatusCode() >= 400 {
			return err
		}
		if existing := c.GetRespHeader(fiber.HeaderCacheControl); existing != "" {
			return err
		}

		if ttl := cacheControlFor(c.Path()); ttl != "" {
			c.Set(fiber.HeaderCacheControl, ttl)
		}
		return err
	}
}

func cacheControlFor(path string) string {
	switch {
	case path == "/v1/health" || path == "/v1/ready":
		return "public, max-age=10"
	case path == "/metrics":
		return "no-cache"
	case strings.HasPrefix(path, "/v1/favorites"):
		return "private, no-store"

	// "now"-relative answers go stale within a minute
	case strings.HasPrefix(path, "/v1/minyanim/today"),
		strings.HasPrefix(path, "/v1/minyanim/next"),
		strings.HasSuffix(path, "/next"),
		strings.HasSuffix(path, "/calendar"):
		return "public, max-age=30"

	case strings.HasSuffix(path, "/schedule.ics"):
		return "public, max-age=3600"
	case strings.HasPrefix(path, "/v1/zmanim/"):
		return "public, max-age=3600"
	case strings.HasSuffix(path, "/nearby"):
		return "public, max-age=300"
	case strings.HasPrefix(path, "/v1/synagogues/"),
		strings.HasPrefix(path, "/v1/minyanim/"):
		return "public, max-age=600"
	case strings.HasPrefix(path, "/v1/"):
		return "public, max-age=300"
	}
	return ""
}
