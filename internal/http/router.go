package http

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	httpH "github.com/yungbote/coursetrack-backend/internal/http/handlers"
	httpMW "github.com/yungbote/coursetrack-backend/internal/http/middleware"
	"github.com/yungbote/coursetrack-backend/internal/observability"
	"github.com/yungbote/coursetrack-backend/internal/platform/logger"
)

type RouterConfig struct {
	Log            *logger.Logger
	Metrics        *observability.Metrics
	ServiceName    string
	CORSOrigins    []string
	AuthMiddleware *httpMW.AuthMiddleware

	HealthHandler   *httpH.HealthHandler
	ProgressHandler *httpH.ProgressHandler
	FavoriteHandler *httpH.FavoriteHandler
	CatalogHandler  *httpH.CatalogHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	if cfg.ServiceName != "" {
		r.Use(otelgin.Middleware(cfg.ServiceName))
	}
	r.Use(httpMW.AttachTraceContext())
	r.Use(httpMW.RequestLogger(cfg.Log))
	r.Use(httpMW.Metrics(cfg.Metrics))
	r.Use(httpMW.CORS(cfg.CORSOrigins))

	// Health
	if cfg.HealthHandler != nil {
		r.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
		r.GET("/readyz", cfg.HealthHandler.Ready)
	}
	if cfg.Metrics != nil {
		r.GET("/metrics", gin.WrapF(cfg.Metrics.WriteHTTP))
	}

	protected := r.Group("/api")
	if cfg.AuthMiddleware != nil {
		protected.Use(cfg.AuthMiddleware.RequireAuth())
	}

	// Progress
	if cfg.ProgressHandler != nil {
		protected.POST("/progress/toggle", cfg.ProgressHandler.Toggle)
		protected.GET("/progress/done", cfg.ProgressHandler.ListDone)
		protected.GET("/progress/audit", cfg.ProgressHandler.Audit)
		protected.POST("/progress/reconcile", cfg.ProgressHandler.Reconcile)
	}

	// Favorites
	if cfg.FavoriteHandler != nil {
		protected.GET("/favorites/:kind", cfg.FavoriteHandler.List)
		protected.POST("/favorites/:kind/toggle", cfg.FavoriteHandler.Toggle)
		protected.GET("/nodes/:id/items", cfg.FavoriteHandler.ListNodeItems)
	}

	// Catalog with progress
	if cfg.CatalogHandler != nil {
		protected.GET("/trees/:variant/courses", cfg.CatalogHandler.ListCourses)
		protected.GET("/nodes/:id", cfg.CatalogHandler.GetNode)
		protected.GET("/nodes/:id/children", cfg.CatalogHandler.ListChildren)
	}

	return r
}
