// Package wire 提供依赖装配
package wire

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"

	"ai-picbook-api/internal/application/export"
	"ai-picbook-api/internal/application/generation"
	"ai-picbook-api/internal/config"
	"ai-picbook-api/internal/infrastructure/persistence/file"
	"ai-picbook-api/internal/infrastructure/provider"
	"ai-picbook-api/internal/interfaces/http/handler"
	"ai-picbook-api/internal/interfaces/http/router"
	"ai-picbook-api/pkg/logger"
)

// App 装配完成的应用容器
type App struct {
	router *router.Router

	tasks       *generation.TaskStore
	sweepCancel context.CancelFunc
}

// Engine 返回 HTTP 引擎
func (a *App) Engine() *gin.Engine {
	return a.router.Engine()
}

// InitializeApp 装配全部依赖，返回应用与清理函数
func InitializeApp(ctx context.Context, cfg *config.Config) (*App, func(), error) {
	// 持久化层
	historyStore, err := file.NewHistoryStore(cfg.Storage.HistoryDir, cfg.Storage.TasksDir)
	if err != nil {
		return nil, nil, err
	}
	imageStore, err := file.NewImageStore(cfg.Storage.TasksDir, cfg.Generation.ThumbnailBudget)
	if err != nil {
		return nil, nil, err
	}
	providerStore, err := file.NewProviderStore(cfg.Storage.ProviderDir)
	if err != nil {
		return nil, nil, err
	}

	// 提供商层
	registry := provider.NewRegistry()
	factory := provider.NewFactory(providerStore, registry, provider.Options{
		StreamMaxChunks: cfg.Generation.StreamMaxChunks,
	}, cfg.Generation.TextMaxRetries)

	// 应用层
	tasks := generation.NewTaskStore(cfg.Generation.TaskTTL)
	orch := generation.NewOrchestrator(imageStore, historyStore, tasks, generation.Options{
		MaxAttempts:     cfg.Generation.MaxAttempts,
		InitialBackoff:  cfg.Generation.InitialBackoff,
		MaxBackoff:      cfg.Generation.MaxBackoff,
		HighConcurrency: cfg.Generation.HighConcurrency,
		ReferenceBudget: cfg.Generation.ReferenceBudget,
	})
	exporter := export.NewService(historyStore, imageStore)

	// 接口层
	handlers := router.Handlers{
		Health:   handler.NewHealthHandler(cfg.Storage.DataDir, cfg.App.Version),
		Outline:  handler.NewOutlineHandler(factory),
		Generate: handler.NewGenerateHandler(factory, orch),
		History:  handler.NewHistoryHandler(historyStore, exporter),
		Image:    handler.NewImageHandler(imageStore),
		Config:   handler.NewConfigHandler(providerStore, factory),
	}

	app := &App{
		router: router.New(cfg, handlers),
		tasks:  tasks,
	}

	sweepCtx, cancel := context.WithCancel(context.Background())
	app.sweepCancel = cancel
	go sweepLoop(sweepCtx, tasks, cfg.Generation.TaskTTL)

	cleanup := func() {
		app.sweepCancel()
	}
	return app, cleanup, nil
}

// sweepLoop 周期清理过期任务上下文
func sweepLoop(ctx context.Context, tasks *generation.TaskStore, ttl time.Duration) {
	interval := ttl / 4
	if interval < time.Minute {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if removed := tasks.Sweep(); removed > 0 {
				logger.Debug(ctx, "task store sweep", "removed", removed)
			}
		}
	}
}
