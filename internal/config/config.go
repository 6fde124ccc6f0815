// Package config 提供配置加载和管理功能
package config

import (
	"time"
)

// Config 应用配置根结构
type Config struct {
	App           AppConfig           `yaml:"app" mapstructure:"app"`
	Server        ServerConfig        `yaml:"server" mapstructure:"server"`
	Storage       StorageConfig       `yaml:"storage" mapstructure:"storage"`
	Generation    GenerationConfig    `yaml:"generation" mapstructure:"generation"`
	Observability ObservabilityConfig `yaml:"observability" mapstructure:"observability"`
	Security      SecurityConfig      `yaml:"security" mapstructure:"security"`
}

// AppConfig 应用基础配置
type AppConfig struct {
	Name    string `yaml:"name" mapstructure:"name"`
	Version string `yaml:"version" mapstructure:"version"`
	Env     string `yaml:"env" mapstructure:"env"`
}

// ServerConfig 服务器配置
type ServerConfig struct {
	HTTP HTTPServerConfig `yaml:"http" mapstructure:"http"`
}

// HTTPServerConfig HTTP 服务器配置
type HTTPServerConfig struct {
	Host         string        `yaml:"host" mapstructure:"host"`
	Port         int           `yaml:"port" mapstructure:"port"`
	ReadTimeout  time.Duration `yaml:"read_timeout" mapstructure:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout" mapstructure:"write_timeout"`
	IdleTimeout  time.Duration `yaml:"idle_timeout" mapstructure:"idle_timeout"`
}

// StorageConfig 文件存储配置
type StorageConfig struct {
	// DataDir 数据根目录，其余目录默认挂在其下
	DataDir string `yaml:"data_dir" mapstructure:"data_dir"`
	// HistoryDir 历史记录索引与详情文件目录
	HistoryDir string `yaml:"history_dir" mapstructure:"history_dir"`
	// TasksDir 任务图片目录，每个任务一个子目录
	TasksDir string `yaml:"tasks_dir" mapstructure:"tasks_dir"`
	// ProviderDir 提供商 YAML 配置文档目录
	ProviderDir string `yaml:"provider_dir" mapstructure:"provider_dir"`
}

// GenerationConfig 图像生成编排配置
type GenerationConfig struct {
	// MaxAttempts 单页生成的尝试上限
	MaxAttempts uint64 `yaml:"max_attempts" mapstructure:"max_attempts"`
	// InitialBackoff 重试退避起始间隔
	InitialBackoff time.Duration `yaml:"initial_backoff" mapstructure:"initial_backoff"`
	// MaxBackoff 重试退避间隔上限
	MaxBackoff time.Duration `yaml:"max_backoff" mapstructure:"max_backoff"`
	// HighConcurrency 为真时内容页并发生成，完成顺序不保证
	HighConcurrency bool `yaml:"high_concurrency" mapstructure:"high_concurrency"`
	// ReferenceBudget 封面参考图压缩字节预算
	ReferenceBudget int `yaml:"reference_budget" mapstructure:"reference_budget"`
	// ThumbnailBudget 缩略图字节预算
	ThumbnailBudget int `yaml:"thumbnail_budget" mapstructure:"thumbnail_budget"`
	// StreamMaxChunks 流式提供商的分块数上限，超限视为流超时
	StreamMaxChunks int `yaml:"stream_max_chunks" mapstructure:"stream_max_chunks"`
	// TextMaxRetries 文本客户端限流重试上限
	TextMaxRetries uint64 `yaml:"text_max_retries" mapstructure:"text_max_retries"`
	// TaskTTL 任务上下文的内存保留时长
	TaskTTL time.Duration `yaml:"task_ttl" mapstructure:"task_ttl"`
}

// ObservabilityConfig 可观测性配置
type ObservabilityConfig struct {
	Logging LoggingConfig `yaml:"logging" mapstructure:"logging"`
	Tracing TracingConfig `yaml:"tracing" mapstructure:"tracing"`
	Metrics MetricsConfig `yaml:"metrics" mapstructure:"metrics"`
}

// LoggingConfig 日志配置
type LoggingConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// TracingConfig 追踪配置
type TracingConfig struct {
	Enabled    bool    `yaml:"enabled" mapstructure:"enabled"`
	Endpoint   string  `yaml:"endpoint" mapstructure:"endpoint"`
	SampleRate float64 `yaml:"sample_rate" mapstructure:"sample_rate"`
}

// MetricsConfig 指标配置
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled" mapstructure:"enabled"`
	Path    string `yaml:"path" mapstructure:"path"`
}

// SecurityConfig 安全配置
type SecurityConfig struct {
	CORS CORSConfig `yaml:"cors" mapstructure:"cors"`
}

// CORSConfig CORS 配置
type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins" mapstructure:"allowed_origins"`
	AllowedMethods []string `yaml:"allowed_methods" mapstructure:"allowed_methods"`
	AllowedHeaders []string `yaml:"allowed_headers" mapstructure:"allowed_headers"`
}
