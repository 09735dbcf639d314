package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/rs/zerolog/log"

	"github.com/samirrijal/kehillah/internal/adapters/postgres"
	"github.com/samirrijal/kehillah/internal/pkg/config"
	"github.com/samirrijal/kehillah/internal/pkg/logging"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "usage: migrate <up|down [steps]|version>")
		os.Exit(2)
	}

	cfg, err := config.Load("kehillah-migrate")
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	logging.Setup(cfg.Log.Level, cfg.Log.Format)

	mg, err := postgres.NewMigrator(cfg.Database.DSN())
	if err != nil {
		log.Fatal().Err(err).Msg("migrator")
	}
	defer mg.Close()

	switch os.Args[1] {
	case "up":
		err = mg.Up()
	case "down":
		steps := 1
		if len(os.Args) > 2 {
			if steps, err = strconv.Atoi(os.Args[2]); err != nil {
				log.Fatal().Str("steps", os.Args[2]).Msg("steps must be a number")
			}
		}
		err = mg.Down(steps)
		if err == nil {
			log.Info().Int("steps", steps).Msg("migrations rolled back")
		}
	case "version":
		v, dirty, verr := mg.Version()
		err = verr
		if err == nil {
			log.Info().Uint("version", v).Bool("dirty", dirty).Msg("schema version")
		}
	default:
		log.Fatal().Str("command", os.Args[1]).Msg("unknown command")
	}

	if err != nil {
		log.Error().Err(err).Msg("migrate")
		mg.Close()
		os.Exit(1)
	}
}
