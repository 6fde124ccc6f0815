package file

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"

	"ai-picbook-api/internal/config"
	"ai-picbook-api/pkg/errors"
)

// ProviderStore 文本/图像两份提供商 YAML 配置文档的存储
// API Key 读取时掩码，写入时仅在客户端明确给出新值时覆盖
type ProviderStore struct {
	mu  sync.Mutex
	dir string
}

// NewProviderStore 创建提供商配置存储
func NewProviderStore(dir string) (*ProviderStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrap(err, errors.CodeConfigStoreError, "failed to create provider config directory")
	}
	return &ProviderStore{dir: dir}, nil
}

func (s *ProviderStore) path(kind string) string {
	return filepath.Join(s.dir, kind+"_providers.yaml")
}

// Load 读取配置文档，文件缺失返回空文档
func (s *ProviderStore) Load(ctx context.Context, kind string) (*config.ProviderDocument, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load(kind)
}

func (s *ProviderStore) load(kind string) (*config.ProviderDocument, error) {
	data, err := os.ReadFile(s.path(kind))
	if err != nil {
		if os.IsNotExist(err) {
			return &config.ProviderDocument{Providers: map[string]config.ProviderSettings{}}, nil
		}
		return nil, errors.Wrap(err, errors.CodeConfigStoreError, "failed to read provider config")
	}

	var doc config.ProviderDocument
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, errors.Wrap(err, errors.CodeConfigStoreError, "failed to parse provider config")
	}
	if doc.Providers == nil {
		doc.Providers = map[string]config.ProviderSettings{}
	}
	return &doc, nil
}

func (s *ProviderStore) save(kind string, doc *config.ProviderDocument) error {
	data, err := yaml.Marshal(doc)
	if err != nil {
		return errors.Wrap(err, errors.CodeConfigStoreError, "failed to marshal provider config")
	}
	if err := writeFileAtomic(s.path(kind), data); err != nil {
		return errors.Wrap(err, errors.CodeConfigStoreError, "failed to write provider config")
	}
	return nil
}

// Masked 返回 API Key 已掩码的文档副本，供配置读取接口使用
func (s *ProviderStore) Masked(ctx context.Context, kind string) (*config.ProviderDocument, error) {
	doc, err := s.Load(ctx, kind)
	if err != nil {
		return nil, err
	}
	return doc.Masked(), nil
}

// Apply 合并客户端提交的文档并持久化
// 掩码回传或留空的 API Key 保留存储中的原值
func (s *ProviderStore) Apply(ctx context.Context, kind string, incoming *config.ProviderDocument) (*config.ProviderDocument, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, err := s.load(kind)
	if err != nil {
		return nil, err
	}

	merged := &config.ProviderDocument{
		Active:    incoming.Active,
		Providers: make(map[string]config.ProviderSettings, len(incoming.Providers)),
	}
	for name, p := range incoming.Providers {
		if p.APIKey == "" || config.IsMaskedKey(p.APIKey) {
			if prev, ok := current.Providers[name]; ok {
				p.APIKey = prev.APIKey
			} else {
				p.APIKey = ""
			}
		}
		merged.Providers[name] = p
	}

	if merged.Active != "" {
		if _, ok := merged.Providers[merged.Active]; !ok {
			return nil, errors.New(errors.CodeInvalidParam,
				fmt.Sprintf("active provider %q not present in providers", merged.Active))
		}
	}

	if err := s.save(kind, merged); err != nil {
		return nil, err
	}
	return merged.Masked(), nil
}

// Resolve 按类别解析提供商配置，name 为空时取 active
// 实现 provider.SettingsSource
func (s *ProviderStore) Resolve(ctx context.Context, kind, name string) (string, config.ProviderSettings, error) {
	doc, err := s.Load(ctx, kind)
	if err != nil {
		return "", config.ProviderSettings{}, err
	}

	if name == "" {
		name = doc.Active
	}
	if name == "" {
		return "", config.ProviderSettings{}, errors.New(errors.CodeProviderConfig,
			fmt.Sprintf("no active %s provider configured", kind)).
			WithDetail("在配置接口中设置 active 提供商")
	}

	settings, ok := doc.Providers[name]
	if !ok {
		return "", config.ProviderSettings{}, errors.New(errors.CodeProviderConfig,
			fmt.Sprintf("%s provider %q not found", kind, name))
	}
	return name, settings, nil
}
