package main

import (
	"context"
	"fmt"
	"os"

	"github.com/rs/zerolog/log"
	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/worker"

	"github.com/samirrijal/kehillah/internal/adapters/postgres"
	"github.com/samirrijal/kehillah/internal/core/usecases"
	"github.com/samirrijal/kehillah/internal/pkg/config"
	"github.com/samirrijal/kehillah/internal/pkg/logging"
	"github.com/samirrijal/kehillah/internal/workflows"
)

func main() {
	cfg, err := config.Load("kehillah-reminder")
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	logging.Setup(cfg.Log.Level, cfg.Log.Format)

	ctx := context.Background()

	db, err := postgres.New(ctx, cfg.Database.DSN())
	if err != nil {
		log.Fatal().Err(err).Msg("db")
	}
	defer db.Close()

	resolver, err := cfg.Schedule.Resolver()
	if err != nil {
		log.Fatal().Err(err).Msg("schedule")
	}

	// Connect to Temporal
	c, err := client.Dial(client.Options{
		HostPort:  cfg.Temporal.HostPort,
		Namespace: cfg.Temporal.Namespace,
		Logger:    workflows.NewLogger(logging.For("temporal")),
	})
	if err != nil {
		log.Fatal().Err(err).Msg("temporal client")
	}
	defer c.Close()

	w := worker.New(c, cfg.Temporal.TaskQueue, worker.Options{})

	// Register workflow & activities
	w.RegisterWorkflow(workflows.MinyanReminderWorkflow)
	w.RegisterActivity(&workflows.ReminderActivities{
		Minyanim: postgres.NewMinyanRepo(db),
		Resolver: resolver,
		// No push provider is wired yet; reminders are logged.
		Notifier: usecases.NewLogNotifier(),
	})

	log.Info().Str("task_queue", cfg.Temporal.TaskQueue).Msg("reminder worker started")
	if err := w.Run(worker.InterruptCh()); err != nil {
		log.Fatal().Err(err).Msg("worker")
	}
}
