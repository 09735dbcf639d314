package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/rs/zerolog/log"
	"go.temporal.io/sdk/client"

	"github.com/samirrijal/kehillah/internal/adapters/http"
	natsadapter "github.com/samirrijal/kehillah/internal/adapters/nats"
	"github.com/samirrijal/kehillah/internal/adapters/postgres"
	"github.com/samirrijal/kehillah/internal/adapters/valkey"
	"github.com/samirrijal/kehillah/internal/core/ports"
	"github.com/samirrijal/kehillah/internal/core/usecases"
	"github.com/samirrijal/kehillah/internal/pkg/config"
	"github.com/samirrijal/kehillah/internal/pkg/logging"
	"github.com/samirrijal/kehillah/internal/pkg/signals"
	"github.com/samirrijal/kehillah/internal/pkg/telemetry"
	"github.com/samirrijal/kehillah/internal/workflows"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	cfg, err := config.Load("kehillah-api")
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	logging.Setup(cfg.Log.Level, cfg.Log.Format)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Telemetry
	if cfg.Telemetry.Enabled {
		shutdown, err := telemetry.InitTracer(ctx, cfg.Telemetry.ServiceName, cfg.Telemetry.OTLPEndpoint)
		if err != nil {
			log.Warn().Err(err).Msg("telemetry init failed")
		} else {
			defer shutdown()
		}
	}

	// Database
	db, err := postgres.New(ctx, cfg.Database.DSN())
	if err != nil {
		log.Fatal().Err(err).Msg("database")
	}
	defer db.Close()

	// Cache; the interface stays nil unless the client connected
	var cache ports.CacheService
	cacheClient, err := valkey.New(cfg.Valkey.Addr)
	if err != nil {
		log.Warn().Err(err).Msg("valkey unavailable")
		cacheClient = nil
	} else {
		cache = cacheClient
		defer cacheClient.Close()
	}

	// NATS
	var publisher ports.EventPublisher
	pub, err := natsadapter.NewPublisher(cfg.NATS.URL)
	if err != nil {
		log.Warn().Err(err).Msg("nats unavailable")
	} else {
		publisher = pub
		defer pub.Close()
	}

	// Raw NATS connection for WebSocket relay
	natsConn, err := natsadapter.RawConn(cfg.NATS.URL)
	if err != nil {
		log.Warn().Err(err).Msg("nats ws conn unavailable")
		natsConn = nil
	} else {
		defer natsConn.Close()
	}

	// Schedule
	resolver, err := cfg.Schedule.Resolver()
	if err != nil {
		log.Fatal().Err(err).Msg("schedule")
	}
	policy := cfg.Proximity.Policy()

	// Repos
	minyanRepo := postgres.NewMinyanRepo(db)
	synagogueRepo := postgres.NewSynagogueRepo(db)
	restaurantRepo := postgres.NewRestaurantRepo(db)
	favoriteRepo := postgres.NewFavoriteRepo(db)
	zmanimRepo := postgres.NewZmanimRepo(db)

	// Use cases
	minyanSvc := usecases.NewMinyanService(minyanRepo, favoriteRepo, cache, usecases.MinyanOptions{
		Resolver:      resolver,
		Policy:        policy,
		NearbyRadius:  cfg.Proximity.NearbyRadiusMiles,
		SoonWindow:    cfg.Schedule.SoonWindow(),
		EventDuration: cfg.Schedule.EventDuration(),
	})
	synagogueSvc := usecases.NewSynagogueService(synagogueRepo, cache, policy,
		cfg.Proximity.NearbyRadiusMiles, cfg.Proximity.MaxRadiusMiles)
	restaurantSvc := usecases.NewRestaurantService(restaurantRepo, favoriteRepo, policy)
	favoriteSvc := usecases.NewFavoriteService(favoriteRepo)
	zmanimSvc := usecases.NewZmanimService(zmanimRepo, cache)

	// Reminders run on Temporal when enabled
	var scheduler ports.ReminderScheduler
	if cfg.Temporal.Enabled {
		tc, err := client.Dial(client.Options{
			HostPort:  cfg.Temporal.HostPort,
			Namespace: cfg.Temporal.Namespace,
			Logger:    workflows.NewLogger(logging.For("temporal")),
		})
		if err != nil {
			log.Warn().Err(err).Msg("temporal unavailable, reminders disabled")
		} else {
			defer tc.Close()
			scheduler = workflows.NewReminderScheduler(tc, cfg.Temporal.TaskQueue)
		}
	}
	reminderSvc := usecases.NewReminderService(minyanRepo, scheduler, cfg.Reminder.LeadMinutes)

	// Fan local minyan edits out to the other replicas
	if publisher != nil {
		signals.OnMinyanChanged(func(ctx context.Context, change ports.MinyanChange) {
			if err := publisher.PublishMinyanChanged(ctx, &change); err != nil {
				logging.FromContext(ctx).Warn().Err(err).Str("minyan_id", change.MinyanID).Msg("publish minyan change")
			}
		}, "nats-fanout")
		defer signals.RemoveMinyanChanged("nats-fanout")
	}

	// Drop cached schedules when any replica edits a minyan
	if cache != nil {
		sub, err := natsadapter.NewSubscriber(cfg.NATS.URL)
		if err != nil {
			log.Warn().Err(err).Msg("nats subscriber unavailable, cross-replica invalidation off")
		} else {
			defer sub.Close()
			err := sub.SubscribeMinyanChanges(ctx, func(ctx context.Context, change *ports.MinyanChange) error {
				minyanSvc.Invalidate(ctx, change.MinyanID)
				return nil
			})
			if err != nil {
				log.Warn().Err(err).Msg("subscribe minyan changes")
			}
		}
	}

	deps := &http.Dependencies{
		Minyanim:    minyanSvc,
		Synagogues:  synagogueSvc,
		Restaurants: restaurantSvc,
		Favorites:   favoriteSvc,
		Zmanim:      zmanimSvc,
		Reminders:   reminderSvc,
		NATS:        natsConn,
		DB:          db,
		Cache:       cacheClient,
		RateLimit:   cfg.Server.RateLimit,
		Version:     version,
	}

	// Fiber
	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		BodyLimit:    1024 * 1024, // 1 MB max request body
		AppName:      "Kehillah API",
	})
	app.Use(recover.New())
	app.Use(logger.New(logger.Config{
		Format: "${time} ${status} ${method} ${path} ${latency}\n",
		Next: func(c *fiber.Ctx) bool {
			return cfg.Log.Format != "console"
		},
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.Server.AllowedOrigins,
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowCredentials: false,
		MaxAge:           3600,
	}))

	http.SetupRoutes(app, deps)

	// Graceful shutdown
	go func() {
		addr := fmt.Sprintf(":%d", cfg.Server.Port)
		log.Info().Str("addr", addr).Str("version", version).Msg("API server starting")
		if err := app.Listen(addr); err != nil {
			log.Fatal().Err(err).Msg("listen")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	log.Info().Str("signal", sig.String()).Msg("shutdown signal received, draining connections...")

	// Give in-flight requests up to 10s to complete
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("forced shutdown")
	}

	log.Info().Msg("server stopped")
}
