package app

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/yungbote/coursetrack-backend/internal/data/db"
	httpapi "github.com/yungbote/coursetrack-backend/internal/http"
	"github.com/yungbote/coursetrack-backend/internal/observability"
	"github.com/yungbote/coursetrack-backend/internal/platform/logger"
)

type App struct {
	Log      *logger.Logger
	DB       *gorm.DB
	Cfg      Config
	Metrics  *observability.Metrics
	Clients  Clients
	Repos    Repos
	Services Services
	Server   *httpapi.Server

	shutdownOtel func(context.Context) error
	cancel       context.CancelFunc
}

// New connects storage and wires every layer. It does not start background
// work; see Start.
func New(ctx context.Context, log *logger.Logger, cfg Config) (*App, error) {
	shutdownOtel := observability.InitOTel(ctx, log, cfg.Otel)
	metrics := observability.Init(log, cfg.MetricsEnabled)

	theDB, err := db.Open(log, cfg.DB())
	if err != nil {
		_ = shutdownOtel(ctx)
		return nil, fmt.Errorf("open database: %w", err)
	}

	clients, err := wireClients(log, cfg)
	if err != nil {
		_ = shutdownOtel(ctx)
		return nil, err
	}
	reposet, err := wireRepos(theDB, log)
	if err != nil {
		clients.Close()
		_ = shutdownOtel(ctx)
		return nil, err
	}
	queue, err := wireReconcileQueue(log, cfg, clients)
	if err != nil {
		clients.Close()
		_ = shutdownOtel(ctx)
		return nil, err
	}
	serviceset, err := wireServices(theDB, log, cfg, reposet, queue, metrics)
	if err != nil {
		clients.Close()
		_ = shutdownOtel(ctx)
		return nil, err
	}

	return &App{
		Log:          log,
		DB:           theDB,
		Cfg:          cfg,
		Metrics:      metrics,
		Clients:      clients,
		Repos:        reposet,
		Services:     serviceset,
		Server:       wireHTTP(theDB, log, cfg, serviceset, metrics),
		shutdownOtel: shutdownOtel,
	}, nil
}

func (a *App) Migrate() error {
	if a == nil || a.DB == nil {
		return fmt.Errorf("app not initialized")
	}
	a.Log.Info("Running auto-migrations...")
	return db.AutoMigrateAll(a.DB)
}

// Start launches the reconcile worker and metrics collectors.
func (a *App) Start(ctx context.Context) {
	if a == nil || a.cancel != nil {
		return
	}
	ctx, cancel := context.WithCancel(ctx)
	a.cancel = cancel

	if a.Services.ReconcileWorker != nil {
		a.Services.ReconcileWorker.Start(ctx)
	}
	if a.Metrics != nil {
		a.Metrics.StartServer(ctx, a.Log, a.Cfg.MetricsAddr)
		a.Metrics.StartDBCollector(ctx, a.Log, a.DB, 15*time.Second)
		if a.Clients.Redis != nil {
			a.Metrics.StartRedisCollector(ctx, a.Log, a.Clients.Redis, 15*time.Second)
		}
	}
}

// Run serves HTTP until ctx is done.
func (a *App) Run(ctx context.Context) error {
	if a == nil || a.Server == nil {
		return fmt.Errorf("app not initialized")
	}
	if a.Services.Identity == nil {
		return fmt.Errorf("JWT_SECRET_KEY is required to serve the API")
	}
	addr := a.Cfg.Address()
	a.Log.Info("Server listening", "addr", addr)
	return a.Server.Run(ctx, addr, a.Cfg.ShutdownTimeout)
}

func (a *App) Close() {
	if a == nil {
		return
	}
	if a.cancel != nil {
		a.cancel()
		a.cancel = nil
	}
	a.Clients.Close()
	if a.DB != nil {
		if sqlDB, err := a.DB.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}
	if a.shutdownOtel != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := a.shutdownOtel(ctx); err != nil {
			a.Log.Warn("otel shutdown failed", "error", err)
		}
		cancel()
	}
	if a.Log != nil {
		a.Log.Sync()
	}
}
