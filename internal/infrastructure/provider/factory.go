package provider

import (
	"context"

	"ai-picbook-api/internal/config"
	"ai-picbook-api/internal/domain/repository"
)

// 提供商配置文档类别
const (
	KindText  = "text"
	KindImage = "image"
)

// SettingsSource 按类别解析提供商配置
// name 为空时返回文档中 active 指向的提供商
type SettingsSource interface {
	Resolve(ctx context.Context, kind, name string) (string, config.ProviderSettings, error)
}

// Factory 按当前配置构造提供商客户端
// 配置可在运行期被修改，因此每次调用都重新解析，不做缓存
type Factory struct {
	source      SettingsSource
	registry    *Registry
	opts        Options
	textRetries uint64
}

// NewFactory 创建提供商工厂
func NewFactory(source SettingsSource, registry *Registry, opts Options, textRetries uint64) *Factory {
	return &Factory{
		source:      source,
		registry:    registry,
		opts:        opts,
		textRetries: textRetries,
	}
}

// Image 构造图像生成器，返回解析出的提供商名
func (f *Factory) Image(ctx context.Context, name string) (repository.ImageGenerator, string, error) {
	resolved, cfg, err := f.source.Resolve(ctx, KindImage, name)
	if err != nil {
		return nil, "", err
	}
	gen, err := f.registry.Create(cfg, f.opts)
	if err != nil {
		return nil, "", err
	}
	return gen, resolved, nil
}

// Text 构造带限流重试的文本生成器，返回解析出的提供商名
func (f *Factory) Text(ctx context.Context, name string) (repository.TextGenerator, string, error) {
	resolved, cfg, err := f.source.Resolve(ctx, KindText, name)
	if err != nil {
		return nil, "", err
	}
	gen, err := NewTextGenerator(cfg)
	if err != nil {
		return nil, "", err
	}
	return WithRateLimitRetry(gen, f.textRetries), resolved, nil
}
