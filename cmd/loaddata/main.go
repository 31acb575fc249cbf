// Command loaddata bulk-loads the ingredient catalog from INGREDIENTS_DATA_CSV.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"foodgram/internal/config"
	"foodgram/internal/database"
	"foodgram/internal/logger"
	"foodgram/internal/repositories"
	"foodgram/internal/services"

	"github.com/rs/zerolog/log"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	logger.Init(logger.Config{Level: cfg.LogLevel, Pretty: cfg.LogPretty})

	path := flag.String("file", cfg.IngredientsDataCSV, "CSV file with a name,measurement_unit header")
	flag.Parse()

	db, err := database.Open(cfg.DatabaseDriver, cfg.DatabaseDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open database")
	}
	if err := database.Migrate(db); err != nil {
		log.Fatal().Err(err).Msg("failed to migrate database")
	}

	f, err := os.Open(*path)
	if err != nil {
		log.Fatal().Err(err).Str("file", *path).Msg("failed to open ingredient data")
	}
	defer f.Close()

	svc := services.NewIngredientService(repositories.NewGORMIngredientRepository(db))
	n, err := svc.BulkLoad(context.Background(), f)
	if err != nil {
		log.Fatal().Err(err).Str("file", *path).Msg("failed to load ingredients")
	}
	log.Info().Int64("inserted", n).Str("file", *path).Msg("ingredients loaded")
}
