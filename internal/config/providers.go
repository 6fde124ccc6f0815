package config

import "strings"

// 提供商类型枚举，注册表据此选择构造函数
const (
	ProviderTypeOpenAI = "openai"
	ProviderTypeHTTP   = "http"
	ProviderTypeCompat = "openai-compat"
)

// 生成模式枚举：单次图像端点或流式对话端点
const (
	ModeImage = "image"
	ModeChat  = "chat"
)

// ProviderSettings 单个提供商的运行时配置
type ProviderSettings struct {
	Type     string `yaml:"type" json:"type"`
	APIKey   string `yaml:"api_key,omitempty" json:"api_key,omitempty"`
	BaseURL  string `yaml:"base_url,omitempty" json:"base_url,omitempty"`
	Endpoint string `yaml:"endpoint,omitempty" json:"endpoint,omitempty"`
	Model    string `yaml:"model,omitempty" json:"model,omitempty"`
	Mode     string `yaml:"mode,omitempty" json:"mode,omitempty"`
}

// ProviderDocument 一类提供商（文本或图像）的配置文档
// 以 YAML 形式持久化，active 指向当前启用的提供商
type ProviderDocument struct {
	Active    string                      `yaml:"active" json:"active"`
	Providers map[string]ProviderSettings `yaml:"providers" json:"providers"`
}

const maskFill = "****"

// MaskKey 掩码 API Key，只保留前后缀
func MaskKey(key string) string {
	if key == "" {
		return ""
	}
	if len(key) <= 8 {
		return maskFill
	}
	return key[:4] + maskFill + key[len(key)-4:]
}

// IsMaskedKey 判断值是否是掩码后的 Key（客户端原样回传时不应覆盖存储值）
func IsMaskedKey(key string) bool {
	return strings.Contains(key, maskFill)
}

// Masked 返回 API Key 已掩码的文档副本
func (d *ProviderDocument) Masked() *ProviderDocument {
	out := &ProviderDocument{
		Active:    d.Active,
		Providers: make(map[string]ProviderSettings, len(d.Providers)),
	}
	for name, p := range d.Providers {
		p.APIKey = MaskKey(p.APIKey)
		out.Providers[name] = p
	}
	return out
}
