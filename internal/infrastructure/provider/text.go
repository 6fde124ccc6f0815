package provider

import (
	"context"
	"strings"

	"github.com/cenkalti/backoff/v4"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"ai-picbook-api/internal/config"
	"ai-picbook-api/internal/domain/repository"
	"ai-picbook-api/pkg/errors"
	"ai-picbook-api/pkg/logger"
)

// openaiTextGenerator 基于 chat completions 的文本生成器
type openaiTextGenerator struct {
	client openai.Client
	model  string
}

// NewTextGenerator 创建文本生成器，构造时校验凭证
func NewTextGenerator(cfg config.ProviderSettings) (repository.TextGenerator, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, errors.New(errors.CodeProviderConfig, "text provider api key missing").
			WithDetail("在文本提供商配置中填写 api_key")
	}
	if strings.TrimSpace(cfg.Model) == "" {
		return nil, errors.New(errors.CodeProviderConfig, "text provider model missing").
			WithDetail("在文本提供商配置中填写 model")
	}

	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	return &openaiTextGenerator{
		client: openai.NewClient(opts...),
		model:  cfg.Model,
	}, nil
}

// Complete 执行一次对话补全
func (g *openaiTextGenerator) Complete(ctx context.Context, system, user string) (string, error) {
	resp, err := g.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(g.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(system),
			openai.UserMessage(user),
		},
	})
	if err != nil {
		return "", Explain(err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New(errors.CodeProviderMalformed, "chat completion returned no choices")
	}
	return resp.Choices[0].Message.Content, nil
}

// retryTextGenerator 仅针对限流错误做指数退避重试的装饰器
type retryTextGenerator struct {
	inner      repository.TextGenerator
	maxRetries uint64
}

// WithRateLimitRetry 包装文本生成端口，限流之外的错误立即返回
func WithRateLimitRetry(inner repository.TextGenerator, maxRetries uint64) repository.TextGenerator {
	return &retryTextGenerator{inner: inner, maxRetries: maxRetries}
}

// Complete 执行补全，429 时退避重试
func (g *retryTextGenerator) Complete(ctx context.Context, system, user string) (string, error) {
	b := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), g.maxRetries), ctx)
	return backoff.RetryWithData(func() (string, error) {
		out, err := g.inner.Complete(ctx, system, user)
		if err != nil && !IsRateLimited(err) {
			return "", backoff.Permanent(err)
		}
		if err != nil {
			logger.Warn(ctx, "text provider rate limited, backing off")
		}
		return out, err
	}, b)
}
