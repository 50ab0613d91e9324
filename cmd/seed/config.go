package main

import (
	"fmt"

	"github.com/ilyakaznacheev/cleanenv"
)

// seedConfig holds ingestion settings read from the environment.
type seedConfig struct {
	DataPath        string `env:"SEED_DATA_PATH"        env-default:"../../Analytics_Test_Data.json"`
	ProgressEvery   int    `env:"SEED_PROGRESS_EVERY"   env-default:"10"`
	ObservedTenancy bool   `env:"SEED_OBSERVED_TENANCY" env-default:"false"`
	MigrateFirst    bool   `env:"SEED_MIGRATE"          env-default:"false"`
}

func loadSeedConfig() (seedConfig, error) {
	var cfg seedConfig
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return seedConfig{}, fmt.Errorf("seed config: read env: %w", err)
	}
	return cfg, nil
}
