package main

// Load the exported document collection into the database:
//   go run ./cmd/seed -data ./Analytics_Test_Data.json

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"invoice-dashboard/internal/documents"
	"invoice-dashboard/internal/ingest"
	"invoice-dashboard/internal/shared/config"
	"invoice-dashboard/internal/shared/storage/db"
	"invoice-dashboard/internal/shared/telemetry"
)

func main() {
	os.Exit(run())
}

func run() int {
	appCfg := config.Load()
	seedCfg, err := loadSeedConfig()
	if err != nil {
		telemetry.Error("seed.config_failed", map[string]any{"error": err.Error()})
		return 1
	}

	dataPath := flag.String("data", seedCfg.DataPath, "path to the exported document JSON array")
	migrateFirst := flag.Bool("migrate", seedCfg.MigrateFirst, "apply migrations before loading")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	raws, err := ingest.ReadSource(*dataPath)
	if err != nil {
		telemetry.Error("seed.source_failed", map[string]any{"path": *dataPath, "error": err.Error()})
		return 1
	}

	sqlDB, err := db.Connect(ctx, appCfg.DatabaseURL, db.OptionsFromEnv(db.DefaultBatchOptions()))
	if err != nil {
		telemetry.Error("seed.connect_failed", map[string]any{"error": err.Error()})
		return 1
	}
	defer sqlDB.Close()

	if *migrateFirst {
		if err := db.RunMigrations(ctx, sqlDB); err != nil {
			telemetry.Error("seed.migrate_failed", map[string]any{"error": err.Error()})
			return 1
		}
	}

	driver := ingest.NewDriver(&documents.PGRepo{DB: sqlDB}, ingest.Options{
		ProgressEvery:   seedCfg.ProgressEvery,
		ObservedTenancy: seedCfg.ObservedTenancy,
	})
	res, err := driver.Run(ctx, raws)
	if err != nil {
		telemetry.Error("seed.failed", map[string]any{"error": err.Error(), "processed": res.Processed})
		return 1
	}

	telemetry.Info("seed.done", map[string]any{
		"path":      *dataPath,
		"processed": res.Processed,
		"failed":    len(res.Failures),
		"total":     res.Total,
	})
	return 0
}
