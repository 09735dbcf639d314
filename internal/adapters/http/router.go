package http

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/fiber/v2/middleware/timeout"
	"github.com/gofiber/websocket/v2"

	"github.com/samirrijal/kehillah/internal/pkg/metrics"
)

const (
	defaultRateLimit = 120
	requestTimeout   = 15 * time.Second
)

// SetupRoutes registers all REST, GraphQL, and WebSocket routes.
func SetupRoutes(app *fiber.App, deps *Dependencies) {
	// Prometheus metrics
	app.Use(metrics.Middleware())
	app.Get("/metrics", metrics.Handler())

	app.Use(compress.New(compress.Config{
		Level: compress.LevelBestSpeed,
	}))

	app.Use(requestid.New())

	// Request-scoped zerolog logger carrying the request ID
	app.Use(RequestIDLogMiddleware())

	app.Use(AccessLogMiddleware())

	rate := deps.RateLimit
	if rate <= 0 {
		rate = defaultRateLimit
	}
	app.Use(limiter.New(limiter.Config{
		Max:        rate,
		Expiration: 1 * time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return newError(c, fiber.StatusTooManyRequests, "rate_limited",
				"too many requests, please try again later")
		},
	}))

	// Security headers + API version
	app.Use(func(c *fiber.Ctx) error {
		c.Set("X-Content-Type-Options", "nosniff")
		c.Set("X-Frame-Options", "DENY")
		c.Set("X-XSS-Protection", "1; mode=block")
		c.Set("Referrer-Policy", "strict-origin-when-cross-origin")
		c.Set("X-API-Version", "1.0.0")
		return c.Next()
	})

	app.Use(DeprecationMiddleware(deprecatedRoutes))

	app.Use(ETagMiddleware())
	app.Use(CachingMiddleware())

	// Health & readiness (no timeout, fast internal checks)
	app.Get("/v1/health", HealthHandler(deps))
	app.Get("/v1/ready", ReadyHandler(deps))

	v1 := app.Group("/v1")

	v1.Get("/minyanim/today", withTimeout(TodayMinyanimHandler(deps)))
	v1.Get("/minyanim/next", withTimeout(NextMinyanHandler(deps)))
	v1.Post("/minyanim", withTimeout(SaveMinyanHandler(deps)))
	v1.Get("/minyanim/:id", withTimeout(GetMinyanHandler(deps)))
	v1.Delete("/minyanim/:id", withTimeout(DeleteMinyanHandler(deps)))
	v1.Get("/minyanim/:id/calendar", withTimeout(MinyanCalendarHandler(deps)))
	v1.Post("/minyanim/:id/reminders", withTimeout(ScheduleReminderHandler(deps)))

	v1.Get("/synagogues", withTimeout(ListSynagoguesHandler(deps)))
	v1.Get("/synagogues/nearby", withTimeout(NearbySynagoguesHandler(deps)))
	v1.Get("/shuls/nearby", withTimeout(NearbySynagoguesHandler(deps)))
	v1.Get("/synagogues/:id", withTimeout(GetSynagogueHandler(deps)))
	v1.Get("/synagogues/:id/next", withTimeout(SynagogueNextHandler(deps)))
	v1.Get("/synagogues/:id/schedule.ics", withTimeout(SynagogueScheduleHandler(deps)))

	v1.Get("/restaurants", withTimeout(ListRestaurantsHandler(deps)))

	v1.Get("/favorites", withTimeout(ListFavoritesHandler(deps)))
	v1.Post("/favorites/toggle", withTimeout(ToggleFavoriteHandler(deps)))

	v1.Get("/zmanim/:date", withTimeout(GetZmanimHandler(deps)))
	v1.Put("/zmanim/:date", withTimeout(PutZmanimHandler(deps)))

	// GraphQL
	app.Post("/graphql", withTimeout(GraphQLHandler(deps)))

	// API documentation (Swagger UI)
	SetupDocs(app)

	// WebSocket
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws", websocket.New(WebSocketHandler(deps.NATS)))
}

// withTimeout bounds a handler; its UserContext is cancelled on expiry.
func withTimeout(h fiber.Handler) fiber.Handler {
	return timeout.NewWithContext(h, requestTimeout)
}
