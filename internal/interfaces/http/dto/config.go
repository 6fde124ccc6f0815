package dto

import "ai-picbook-api/internal/config"

// ProviderSettings 提供商配置
type ProviderSettings struct {
	Type     string `json:"type" binding:"required"`
	APIKey   string `json:"api_key,omitempty"`
	BaseURL  string `json:"base_url,omitempty"`
	Endpoint string `json:"endpoint,omitempty"`
	Model    string `json:"model,omitempty"`
	Mode     string `json:"mode,omitempty"`
}

// ProviderConfigRequest 提供商配置写入请求
type ProviderConfigRequest struct {
	Active    string                      `json:"active"`
	Providers map[string]ProviderSettings `json:"providers" binding:"required"`
}

// ProviderConfigResponse 提供商配置响应，API Key 已掩码
type ProviderConfigResponse struct {
	Active    string                      `json:"active"`
	Providers map[string]ProviderSettings `json:"providers"`
}

// ProviderTestRequest 提供商连通性测试请求，provider 缺省时测 active
type ProviderTestRequest struct {
	Provider string `json:"provider"`
}

// ProviderTestResponse 提供商连通性测试结果
type ProviderTestResponse struct {
	OK        bool   `json:"ok"`
	Provider  string `json:"provider"`
	Message   string `json:"message,omitempty"`
	LatencyMs int64  `json:"latency_ms"`
}

// ToProviderDocument 把请求转换为配置文档
func (r *ProviderConfigRequest) ToProviderDocument() *config.ProviderDocument {
	doc := &config.ProviderDocument{
		Active:    r.Active,
		Providers: make(map[string]config.ProviderSettings, len(r.Providers)),
	}
	for name, p := range r.Providers {
		doc.Providers[name] = config.ProviderSettings{
			Type:     p.Type,
			APIKey:   p.APIKey,
			BaseURL:  p.BaseURL,
			Endpoint: p.Endpoint,
			Model:    p.Model,
			Mode:     p.Mode,
		}
	}
	return doc
}

// FromProviderDocument 把配置文档转换为响应
func FromProviderDocument(doc *config.ProviderDocument) ProviderConfigResponse {
	out := ProviderConfigResponse{
		Active:    doc.Active,
		Providers: make(map[string]ProviderSettings, len(doc.Providers)),
	}
	for name, p := range doc.Providers {
		out.Providers[name] = ProviderSettings{
			Type:     p.Type,
			APIKey:   p.APIKey,
			BaseURL:  p.BaseURL,
			Endpoint: p.Endpoint,
			Model:    p.Model,
			Mode:     p.Mode,
		}
	}
	return out
}
