package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/samirrijal/kehillah/internal/adapters/postgres"
	"github.com/samirrijal/kehillah/internal/pkg/config"
	"github.com/samirrijal/kehillah/internal/pkg/logging"
	"github.com/samirrijal/kehillah/internal/seed"
)

func main() {
	cfg, err := config.Load("kehillah-seed")
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	logging.Setup(cfg.Log.Level, cfg.Log.Format)
	logger := logging.For("seed")

	// Load manifest
	manifestPath := "manifest.yaml"
	if len(os.Args) > 1 {
		manifestPath = os.Args[1]
	}

	data, err := os.ReadFile(manifestPath)
	if err != nil {
		log.Fatal().Err(err).Msg("read manifest")
	}

	manifest, err := seed.Parse(data)
	if err != nil {
		log.Fatal().Err(err).Str("path", manifestPath).Msg("parse manifest")
	}

	// Validate everything before touching the database
	ds, err := manifest.Build()
	if err != nil {
		log.Fatal().Err(err).Str("path", manifestPath).Msg("invalid manifest")
	}

	logger.Info().
		Str("source", manifest.Source).
		Int("synagogues", len(ds.Synagogues)).
		Int("minyanim", len(ds.Minyanim)).
		Int("restaurants", len(ds.Restaurants)).
		Int("zmanim", len(ds.Zmanim)).
		Msg("Kehillah seed")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()
	ctx = logger.WithContext(ctx)

	db, err := postgres.New(ctx, cfg.Database.DSN())
	if err != nil {
		log.Fatal().Err(err).Msg("db")
	}
	defer db.Close()

	counts, err := seed.Apply(ctx, seed.Repos{
		Synagogues:  postgres.NewSynagogueRepo(db),
		Minyanim:    postgres.NewMinyanRepo(db),
		Restaurants: postgres.NewRestaurantRepo(db),
		Zmanim:      postgres.NewZmanimRepo(db),
	}, ds)
	if err != nil {
		logger.Error().Err(err).Msg("seed failed")
		db.Close()
		os.Exit(1)
	}

	logger.Info().Interface("counts", counts).Msg("seed complete")
}
