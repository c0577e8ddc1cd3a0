package app

import (
	"gorm.io/gorm"

	httpapi "github.com/yungbote/coursetrack-backend/internal/http"
	httpH "github.com/yungbote/coursetrack-backend/internal/http/handlers"
	httpMW "github.com/yungbote/coursetrack-backend/internal/http/middleware"
	"github.com/yungbote/coursetrack-backend/internal/observability"
	"github.com/yungbote/coursetrack-backend/internal/platform/logger"
)

func wireHTTP(db *gorm.DB, log *logger.Logger, cfg Config, svc Services, metrics *observability.Metrics) *httpapi.Server {
	log.Info("Wiring handlers...")
	var auth *httpMW.AuthMiddleware
	if svc.Identity != nil {
		auth = httpMW.NewAuthMiddleware(log, svc.Identity)
	}
	serviceName := ""
	if cfg.Otel.Enabled {
		serviceName = cfg.Otel.ServiceName
	}
	return httpapi.NewServer(httpapi.RouterConfig{
		Log:             log,
		Metrics:         metrics,
		ServiceName:     serviceName,
		CORSOrigins:     cfg.CORSOrigins,
		AuthMiddleware:  auth,
		HealthHandler:   httpH.NewHealthHandler(db),
		ProgressHandler: httpH.NewProgressHandler(svc.Progress, svc.Catalog, svc.Reconcile),
		FavoriteHandler: httpH.NewFavoriteHandler(svc.Favorite),
		CatalogHandler:  httpH.NewCatalogHandler(svc.Catalog),
	})
}
