package bootstrap

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"

	"invoice-dashboard/internal/analytics"
	"invoice-dashboard/internal/chat"
	"invoice-dashboard/internal/documents"
	"invoice-dashboard/internal/services/health"
	"invoice-dashboard/internal/shared/config"
	"invoice-dashboard/internal/shared/server"
	"invoice-dashboard/internal/shared/storage/db"
	"invoice-dashboard/internal/shared/telemetry"
)

// App holds the API process dependencies.
type App struct {
	Config           config.Config
	Router           *gin.Engine
	DB               *sql.DB
	Repo             documents.Repo
	AnalyticsService *analytics.Service
	ChatClient       *chat.Client
	AnalyticsHandler *analytics.Handler
	ChatHandler      *chat.Handler
}

// Build connects the store and wires services, handlers and routes. In dev
// and local environments a missing or unreachable database falls back to
// the in-memory repository.
func Build(ctx context.Context, cfg config.Config) (*App, error) {
	if strings.TrimSpace(cfg.Env) == "" {
		cfg.Env = "dev"
	}

	sqlDB, err := buildDB(ctx, cfg)
	if err != nil {
		return nil, err
	}

	app := &App{Config: cfg, DB: sqlDB}
	if sqlDB != nil {
		app.Repo = &documents.PGRepo{DB: sqlDB}
	} else {
		app.Repo = documents.NewMemoryRepo()
	}

	app.AnalyticsService = analytics.NewService(app.Repo)
	app.ChatClient = chat.NewClient(cfg.VannaBaseURL, cfg.ChatTimeout)
	app.AnalyticsHandler = analytics.NewHandler(app.AnalyticsService)
	app.ChatHandler = chat.NewHandler(app.ChatClient)

	app.Router = server.NewRouter(server.RouterDeps{
		Config:           cfg,
		Health:           health.NewService(),
		AnalyticsHandler: app.AnalyticsHandler,
		ChatHandler:      app.ChatHandler,
	})
	return app, nil
}

// Close releases the database handle, if any.
func (a *App) Close() error {
	if a == nil || a.DB == nil {
		return nil
	}
	return a.DB.Close()
}

func buildDB(ctx context.Context, cfg config.Config) (*sql.DB, error) {
	devLike := config.IsDevLike(cfg.Env)
	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		if devLike {
			telemetry.Warn("bootstrap.memory_store", map[string]any{"reason": "DATABASE_URL empty"})
			return nil, nil
		}
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	sqlDB, err := db.Connect(ctx, cfg.DatabaseURL, db.OptionsFromEnv(db.DefaultServerOptions()))
	if err != nil {
		if devLike {
			telemetry.Warn("bootstrap.memory_store", map[string]any{"reason": "connect failed", "error": err.Error()})
			return nil, nil
		}
		return nil, err
	}

	if cfg.AutoMigrate {
		if err := db.RunMigrations(ctx, sqlDB); err != nil {
			_ = sqlDB.Close()
			return nil, fmt.Errorf("run migrations: %w", err)
		}
	}
	return sqlDB, nil
}
