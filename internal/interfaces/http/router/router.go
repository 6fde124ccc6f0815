// Package router 提供 HTTP 路由配置
package router

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"ai-picbook-api/internal/config"
	"ai-picbook-api/internal/interfaces/http/handler"
	"ai-picbook-api/internal/interfaces/http/middleware"
)

// Handlers 路由所需的全部处理器
type Handlers struct {
	Health   *handler.HealthHandler
	Outline  *handler.OutlineHandler
	Generate *handler.GenerateHandler
	History  *handler.HistoryHandler
	Image    *handler.ImageHandler
	Config   *handler.ConfigHandler
}

// Router HTTP 路由器
type Router struct {
	engine   *gin.Engine
	cfg      *config.Config
	handlers Handlers
}

// New 创建新的路由器
func New(cfg *config.Config, handlers Handlers) *Router {
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := &Router{
		engine:   gin.New(),
		cfg:      cfg,
		handlers: handlers,
	}

	r.setupMiddleware()
	r.setupRoutes()

	return r
}

// Engine 返回 Gin Engine
func (r *Router) Engine() *gin.Engine {
	return r.engine
}

// setupMiddleware 配置中间件
func (r *Router) setupMiddleware() {
	r.engine.Use(middleware.Recovery())
	r.engine.Use(middleware.RequestID())

	r.engine.Use(middleware.CORS(middleware.CORSConfig{
		AllowedOrigins: r.cfg.Security.CORS.AllowedOrigins,
		AllowedMethods: r.cfg.Security.CORS.AllowedMethods,
		AllowedHeaders: r.cfg.Security.CORS.AllowedHeaders,
	}))

	if r.cfg.Observability.Tracing.Enabled {
		r.engine.Use(middleware.Trace(r.cfg.App.Name))
		r.engine.Use(middleware.TraceContext())
	}

	if r.cfg.Observability.Metrics.Enabled {
		r.engine.Use(middleware.Metrics())
	}
}

// setupRoutes 配置路由
func (r *Router) setupRoutes() {
	r.engine.GET("/health", r.handlers.Health.Health)
	r.engine.GET("/ready", r.handlers.Health.Ready)
	r.engine.GET("/live", r.handlers.Health.Live)

	if r.cfg.Observability.Metrics.Enabled {
		path := r.cfg.Observability.Metrics.Path
		if path == "" {
			path = "/metrics"
		}
		r.engine.GET(path, gin.WrapH(promhttp.Handler()))
	}

	v1 := r.engine.Group("/v1")
	{
		v1.POST("/outline", r.handlers.Outline.Generate)
		v1.POST("/generate", r.handlers.Generate.Generate)

		tasks := v1.Group("/tasks")
		{
			tasks.POST("/:taskID/retry", r.handlers.Generate.RetryPage)
			tasks.POST("/:taskID/retry-failed", r.handlers.Generate.RetryFailed)
		}

		history := v1.Group("/history")
		{
			history.GET("", r.handlers.History.List)
			history.POST("", r.handlers.History.Create)
			history.GET("/search", r.handlers.History.Search)
			history.POST("/scan", r.handlers.History.Scan)
			history.GET("/:id", r.handlers.History.Get)
			history.PUT("/:id", r.handlers.History.Update)
			history.DELETE("/:id", r.handlers.History.Delete)
			history.GET("/:id/export", r.handlers.History.Export)
		}

		v1.GET("/images/:taskID/:index", r.handlers.Image.Get)

		cfg := v1.Group("/config")
		{
			cfg.GET("/:kind", r.handlers.Config.Get)
			cfg.PUT("/:kind", r.handlers.Config.Put)
			cfg.POST("/:kind/test", r.handlers.Config.Test)
		}
	}
}
