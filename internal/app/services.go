package app

import (
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/yungbote/coursetrack-backend/internal/data/aggregates"
	domainagg "github.com/yungbote/coursetrack-backend/internal/domain/aggregates"
	"github.com/yungbote/coursetrack-backend/internal/observability"
	"github.com/yungbote/coursetrack-backend/internal/platform/logger"
	"github.com/yungbote/coursetrack-backend/internal/progress"
	"github.com/yungbote/coursetrack-backend/internal/services"
)

type Services struct {
	Shapes     *progress.Shapes
	Aggregator *progress.Aggregator

	ProgressAggregate domainagg.ProgressAggregate
	FavoriteAggregate domainagg.FavoriteAggregate

	Queue     services.ReconcileQueue
	Catalog   services.CatalogService
	Progress  services.ProgressService
	Favorite  services.FavoriteService
	Reconcile services.ReconcileService
	// Identity is nil when JWT_SECRET_KEY is unset.
	Identity services.IdentityService

	ReconcileWorker *services.ReconcileWorker
}

func wireServices(db *gorm.DB, log *logger.Logger, cfg Config, reposet Repos, queue services.ReconcileQueue, metrics *observability.Metrics) (Services, error) {
	log.Info("Wiring services...")

	shapes, err := progress.LoadShapes(cfg.TreeShapesFile)
	if err != nil {
		return Services{}, fmt.Errorf("load tree shapes: %w", err)
	}
	aggregator := progress.NewAggregator(reposet.ContentNode, reposet.CompletionMark, shapes)

	base := aggregates.BaseDeps{
		DB:    db,
		Log:   log,
		Hooks: aggregates.NewObservabilityHooks(metrics),
		Retry: aggregates.RetryPolicy{MaxAttempts: cfg.ToggleMaxAttempts},
	}
	progressAgg := aggregates.NewProgressAggregate(aggregates.ProgressAggregateDeps{
		Base:        base,
		Tree:        reposet.ContentNode,
		Completions: reposet.CompletionMark,
		DoneMarks:   reposet.DerivedDone,
		Shapes:      shapes,
	})
	favoriteAgg := aggregates.NewFavoriteAggregate(aggregates.FavoriteAggregateDeps{
		Base:    base,
		Items:   reposet.ContentItem,
		Ledgers: reposet.Favorites,
	})

	reconcileSvc := services.NewReconcileService(
		log,
		progressAgg,
		reposet.CompletionMark,
		reposet.DerivedDone,
		metrics,
		services.ReconcileOptions{Concurrency: cfg.ReconcileConcurrency},
	)

	var identity services.IdentityService
	if strings.TrimSpace(cfg.JWTSecretKey) != "" {
		identity, err = services.NewIdentityService(log, cfg.JWTSecretKey)
		if err != nil {
			return Services{}, err
		}
	}

	return Services{
		Shapes:            shapes,
		Aggregator:        aggregator,
		ProgressAggregate: progressAgg,
		FavoriteAggregate: favoriteAgg,
		Queue:             queue,
		Catalog:           services.NewCatalogService(log, reposet.ContentNode, aggregator, reposet.DerivedDone),
		Progress:          services.NewProgressService(log, progressAgg, aggregator, queue, metrics),
		Favorite:          services.NewFavoriteService(log, favoriteAgg, reposet.ContentItem, reposet.Favorites, metrics),
		Reconcile:         reconcileSvc,
		Identity:          identity,
		ReconcileWorker: services.NewReconcileWorker(
			log,
			reconcileSvc,
			queue,
			metrics,
			cfg.ReconcileInterval,
			cfg.ReconcileFullInterval,
			cfg.ReconcileBatchSize,
		),
	}, nil
}
