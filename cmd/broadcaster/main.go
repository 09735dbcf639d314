package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"

	natsadapter "github.com/samirrijal/kehillah/internal/adapters/nats"
	"github.com/samirrijal/kehillah/internal/adapters/postgres"
	"github.com/samirrijal/kehillah/internal/core/usecases"
	"github.com/samirrijal/kehillah/internal/pkg/config"
	"github.com/samirrijal/kehillah/internal/pkg/logging"
	"github.com/samirrijal/kehillah/internal/pkg/telemetry"
)

func main() {
	cfg, err := config.Load("kehillah-broadcaster")
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	logging.Setup(cfg.Log.Level, cfg.Log.Format)
	logger := logging.For("broadcaster")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	ctx = logger.WithContext(ctx)

	if cfg.Telemetry.Enabled {
		shutdown, err := telemetry.InitTracer(ctx, cfg.Telemetry.ServiceName, cfg.Telemetry.OTLPEndpoint)
		if err != nil {
			logger.Warn().Err(err).Msg("telemetry init failed")
		} else {
			defer shutdown()
		}
	}

	// Database
	db, err := postgres.New(ctx, cfg.Database.DSN())
	if err != nil {
		log.Fatal().Err(err).Msg("db")
	}
	defer db.Close()

	// NATS
	pub, err := natsadapter.NewPublisher(cfg.NATS.URL)
	if err != nil {
		log.Fatal().Err(err).Msg("nats")
	}
	defer pub.Close()

	resolver, err := cfg.Schedule.Resolver()
	if err != nil {
		log.Fatal().Err(err).Msg("schedule")
	}

	// Reads go straight to the database so every tick sees the latest edits
	minyanSvc := usecases.NewMinyanService(postgres.NewMinyanRepo(db), postgres.NewFavoriteRepo(db), nil, usecases.MinyanOptions{
		Resolver: resolver,
		Policy:   cfg.Proximity.Policy(),
	})
	broadcaster := usecases.NewBroadcastService(minyanSvc, pub, cfg.Schedule.Nusachs)

	tick := func() {
		tickCtx, tickCancel := context.WithTimeout(ctx, 30*time.Second)
		defer tickCancel()
		if err := broadcaster.Broadcast(tickCtx); err != nil {
			logger.Error().Err(err).Msg("broadcast failed")
		}
	}

	c := cron.New(
		cron.WithLocation(resolver.Location()),
		cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)),
	)
	if _, err := c.AddFunc(cfg.Schedule.Tick, tick); err != nil {
		log.Fatal().Err(err).Str("tick", cfg.Schedule.Tick).Msg("invalid schedule.tick")
	}

	logger.Info().
		Str("tick", cfg.Schedule.Tick).
		Strs("nusachs", cfg.Schedule.Nusachs).
		Str("timezone", resolver.Location().String()).
		Msg("Kehillah broadcaster started")

	// Run once immediately
	tick()
	c.Start()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	logger.Info().Str("signal", sig.String()).Msg("shutting down broadcaster")
	cancel()
	// Wait for an in-flight tick to finish
	<-c.Stop().Done()
}
