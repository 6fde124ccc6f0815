package provider

import (
	"fmt"
	"net/http"
	"time"

	"ai-picbook-api/internal/config"
	"ai-picbook-api/internal/domain/repository"
	"ai-picbook-api/pkg/errors"
)

// Options 生成器的公共运行参数
type Options struct {
	// Client 下载与直连请求使用的 HTTP 客户端，为空时使用默认客户端
	Client *http.Client
	// StreamMaxChunks 流式模式的分块数上限
	StreamMaxChunks int
}

func (o Options) httpClient() *http.Client {
	if o.Client != nil {
		return o.Client
	}
	return &http.Client{Timeout: 120 * time.Second}
}

func (o Options) streamMaxChunks() int {
	if o.StreamMaxChunks > 0 {
		return o.StreamMaxChunks
	}
	return 2048
}

// Constructor 按配置构造一个图像生成器
type Constructor func(cfg config.ProviderSettings, opts Options) (repository.ImageGenerator, error)

// Registry 提供商类型到构造函数的显式映射
// 在装配阶段构建并注入，避免包级可变注册表
type Registry struct {
	constructors map[string]Constructor
}

// NewRegistry 创建内置提供商类型的注册表
func NewRegistry() *Registry {
	return &Registry{
		constructors: map[string]Constructor{
			config.ProviderTypeOpenAI: NewOpenAIImageGenerator,
			config.ProviderTypeHTTP:   NewHTTPImageGenerator,
			config.ProviderTypeCompat: NewCompatImageGenerator,
		},
	}
}

// Register 登记自定义提供商类型
func (r *Registry) Register(providerType string, ctor Constructor) {
	r.constructors[providerType] = ctor
}

// Create 按配置中的类型构造图像生成器
func (r *Registry) Create(cfg config.ProviderSettings, opts Options) (repository.ImageGenerator, error) {
	ctor, ok := r.constructors[cfg.Type]
	if !ok {
		return nil, errors.New(errors.CodeProviderConfig,
			fmt.Sprintf("unknown image provider type: %q", cfg.Type)).
			WithDetail("支持的类型：openai、http、openai-compat")
	}
	return ctor(cfg, opts)
}
