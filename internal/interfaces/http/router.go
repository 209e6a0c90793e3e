// Package http assembles the gin route tree and the HTTP server around it.
package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/turtacn/RxMatch-Intelligence/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/RxMatch-Intelligence/internal/interfaces/http/handlers"
	"github.com/turtacn/RxMatch-Intelligence/internal/interfaces/http/middleware"
)

// RouterConfig aggregates the handlers and cross-cutting collaborators the
// route tree needs.
type RouterConfig struct {
	MatchHandler  *handlers.MatchHandler
	HealthHandler *handlers.HealthHandler

	// MetricsHandler serves the Prometheus scrape endpoint; nil disables it.
	MetricsHandler http.Handler
	// HTTPMetrics feeds per-request observations; nil disables them.
	HTTPMetrics middleware.HTTPMetrics

	Logger logging.Logger
	Mode   string
}

// NewRouter builds the complete route tree.
func NewRouter(cfg RouterConfig) *gin.Engine {
	if cfg.Logger == nil {
		cfg.Logger = logging.NewNopLogger()
	}

	switch cfg.Mode {
	case "debug":
		gin.SetMode(gin.DebugMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	engine.Use(middleware.Recovery(cfg.Logger))
	engine.Use(middleware.RequestID())
	engine.Use(middleware.RequestLogging(cfg.Logger, cfg.HTTPMetrics))

	if cfg.HealthHandler != nil {
		engine.GET("/healthz", cfg.HealthHandler.Liveness)
		engine.GET("/readyz", cfg.HealthHandler.Readiness)
	}
	if cfg.MetricsHandler != nil {
		engine.GET("/metrics", gin.WrapH(cfg.MetricsHandler))
	}

	api := engine.Group("/api/v1")
	if cfg.MatchHandler != nil {
		api.POST("/match", cfg.MatchHandler.Match)
	}

	return engine
}
