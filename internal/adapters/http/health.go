package http

import (
	"context"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/samirrijal/kehillah/internal/pkg/metrics"
)

// probe is one readiness dependency. A nil check means not configured.
type probe struct {
	name     string
	required bool
	check    func(ctx context.Context) error
}

// HealthHandler returns a basic liveness check plus the community clock,
// which clients use to confirm which day "today" resolves to.
func HealthHandler(deps *Dependencies) fiber.Handler {
	startedAt := time.Now()
	version := deps.Version
	if version == "" {
		version = "dev"
	}

	return func(c *fiber.Ctx) error {
		body := fiber.Map{
			"status":  "healthy",
			"uptime":  time.Since(startedAt).Round(time.Second).String(),
			"version": version,
		}
		if deps.Minyanim != nil {
			loc := deps.Minyanim.Resolver().Location()
			body["timezone"] = loc.String()
			body["local_time"] = time.Now().In(loc).Format(time.RFC3339)
		}
		return c.JSON(body)
	}
}

func readinessProbes(deps *Dependencies) []probe {
	probes := []probe{{name: "database", required: true}}
	if deps.DB != nil {
		probes[0].check = func(ctx context.Context) error {
			if err := deps.DB.Ping(ctx); err != nil {
				return err
			}
			metrics.UpdateDBPoolMetrics(deps.DB.Pool.Stat())
			return nil
		}
	}

	nats := probe{name: "nats"}
	if deps.NATS != nil {
		nats.check = func(context.Context) error {
			if !deps.NATS.IsConnected() {
				return errors.New("disconnected")
			}
			return nil
		}
	}

	cache := probe{name: "cache"}
	if deps.Cache != nil {
		cache.check = deps.Cache.Ping
	}
	return append(probes, nats, cache)
}

// ReadyHandler checks database, NATS and cache connectivity. The database is
// required; NATS and the cache are optional but must be healthy when configured.
func ReadyHandler(deps *Dependencies) fiber.Handler {
	probes := readinessProbes(deps)

	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), 3*time.Second)
		defer cancel()

		checks := make(map[string]string, len(probes))
		ready := true
		for _, p := range probes {
			switch {
			case p.check == nil:
				checks[p.name] = "not configured"
				if p.required {
					ready = false
				}
			default:
				if err := p.check(ctx); err != nil {
					checks[p.name] = "error: " + err.Error()
					ready = false
				} else {
					checks[p.name] = "ok"
				}
			}
		}

		if !ready {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"status": "not ready", "checks": checks})
		}
		return c.JSON(fiber.Map{"status": "ready", "checks": checks})
	}
}
