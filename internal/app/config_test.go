package app

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/yungbote/coursetrack-backend/internal/platform/logger"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.DBDriver != "postgres" {
		t.Fatalf("DBDriver = %q, want postgres", cfg.DBDriver)
	}
	if cfg.ReconcileInterval != 30*time.Second {
		t.Fatalf("ReconcileInterval = %s", cfg.ReconcileInterval)
	}
	if cfg.ReconcileFullInterval != time.Hour {
		t.Fatalf("ReconcileFullInterval = %s", cfg.ReconcileFullInterval)
	}
	if cfg.ToggleMaxAttempts != 4 || cfg.ReconcileBatchSize != 100 || cfg.ReconcileConcurrency != 4 {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if cfg.Address() != ":8080" {
		t.Fatalf("Address() = %q", cfg.Address())
	}
}

func TestLoadConfigOverrides(t *testing.T) {
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("SQLITE_PATH", "/tmp/ct.db")
	t.Setenv("PORT", "127.0.0.1:9000")
	t.Setenv("CORS_ORIGINS", "https://a.example,https://b.example")
	t.Setenv("RECONCILE_INTERVAL", "5s")
	t.Setenv("RECONCILE_FULL_INTERVAL", "0s")
	t.Setenv("OTEL_ENABLED", "true")
	t.Setenv("OTEL_SERVICE_NAME", "ct-test")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if got := cfg.DB(); got.Driver != "sqlite" || got.SQLitePath != "/tmp/ct.db" {
		t.Fatalf("DB() = %+v", got)
	}
	if cfg.Address() != "127.0.0.1:9000" {
		t.Fatalf("Address() = %q", cfg.Address())
	}
	if len(cfg.CORSOrigins) != 2 || cfg.CORSOrigins[1] != "https://b.example" {
		t.Fatalf("CORSOrigins = %v", cfg.CORSOrigins)
	}
	if cfg.ReconcileInterval != 5*time.Second || cfg.ReconcileFullInterval != 0 {
		t.Fatalf("ReconcileInterval = %s, ReconcileFullInterval = %s", cfg.ReconcileInterval, cfg.ReconcileFullInterval)
	}
	if !cfg.Otel.Enabled || cfg.Otel.ServiceName != "ct-test" {
		t.Fatalf("Otel = %+v", cfg.Otel)
	}
}

func TestLoadConfigRejectsInvalid(t *testing.T) {
	cases := map[string]string{
		"DB_DRIVER":               "mysql",
		"RECONCILE_BATCH_SIZE":    "0",
		"RECONCILE_CONCURRENCY":   "-1",
		"TOGGLE_MAX_ATTEMPTS":     "0",
		"RECONCILE_INTERVAL":      "soon",
		"RECONCILE_FULL_INTERVAL": "-1m",
	}
	for key, val := range cases {
		t.Run(key, func(t *testing.T) {
			t.Setenv(key, val)
			if _, err := LoadConfig(); err == nil {
				t.Fatalf("expected error for %s=%s", key, val)
			}
		})
	}
}

func TestNewWiresSQLiteApp(t *testing.T) {
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("SQLITE_PATH", filepath.Join(t.TempDir(), "app.db"))
	t.Setenv("METRICS_ENABLED", "false")
	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}

	a, err := New(context.Background(), logger.Nop(), cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer a.Close()

	if err := a.Migrate(); err != nil {
		t.Fatalf("Migrate: %v", err)
	}
	if a.Services.Progress == nil || a.Services.Reconcile == nil || a.Services.ReconcileWorker == nil {
		t.Fatalf("services not wired: %+v", a.Services)
	}
	if a.Services.Identity != nil {
		t.Fatalf("identity should be nil without JWT_SECRET_KEY")
	}
	if len(a.Repos.Favorites) != len(favoriteKinds) {
		t.Fatalf("favorite ledgers = %d", len(a.Repos.Favorites))
	}
	if err := a.Run(context.Background()); err == nil {
		t.Fatalf("Run should refuse to serve without JWT_SECRET_KEY")
	}
	if n, err := a.Services.ReconcileWorker.RunOnce(context.Background()); err != nil || n != 0 {
		t.Fatalf("RunOnce on empty queue = %d, %v", n, err)
	}
}
