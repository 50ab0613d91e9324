package bootstrap

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"invoice-dashboard/internal/documents"
	"invoice-dashboard/internal/shared/config"
	"invoice-dashboard/internal/shared/telemetry"
)

func TestBuildFallsBackToMemoryInDev(t *testing.T) {
	gin.SetMode(gin.TestMode)
	var logs bytes.Buffer
	t.Cleanup(telemetry.SetOutput(&logs))

	app, err := Build(context.Background(), config.Config{Env: "dev", VannaBaseURL: "http://localhost:8000"})
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	defer app.Close()

	if app.DB != nil {
		t.Fatalf("expected no database handle")
	}
	if _, ok := app.Repo.(*documents.MemoryRepo); !ok {
		t.Fatalf("expected memory repo, got %T", app.Repo)
	}

	resp := httptest.NewRecorder()
	app.Router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/stats", nil))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
}

func TestBuildRequiresDatabaseOutsideDev(t *testing.T) {
	if _, err := Build(context.Background(), config.Config{Env: "production"}); err == nil {
		t.Fatalf("expected error without DATABASE_URL")
	}
}
