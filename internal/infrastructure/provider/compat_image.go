package provider

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"ai-picbook-api/internal/config"
	"ai-picbook-api/internal/domain/repository"
	"ai-picbook-api/pkg/errors"
)

// compatImageGenerator OpenAI 兼容接口的图像生成器
// 与通用 HTTP 生成器的双模式行为一致，但复用 SDK 的请求编解码
type compatImageGenerator struct {
	client    openai.Client
	model     string
	mode      string
	http      *http.Client
	maxChunks int
}

// NewCompatImageGenerator 创建 OpenAI 兼容图像生成器
// 兼容模式必须显式给出 base_url，构造时校验
func NewCompatImageGenerator(cfg config.ProviderSettings, opts Options) (repository.ImageGenerator, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, errors.New(errors.CodeProviderConfig, "compat provider api key missing").
			WithDetail("在图像提供商配置中填写 api_key")
	}
	if strings.TrimSpace(cfg.BaseURL) == "" {
		return nil, errors.New(errors.CodeProviderConfig, "compat provider base url missing").
			WithDetail("OpenAI 兼容模式必须填写 base_url")
	}

	mode := cfg.Mode
	if mode == "" {
		mode = config.ModeChat
	}

	return &compatImageGenerator{
		client: openai.NewClient(
			option.WithAPIKey(cfg.APIKey),
			option.WithBaseURL(cfg.BaseURL),
		),
		model:     cfg.Model,
		mode:      mode,
		http:      opts.httpClient(),
		maxChunks: opts.streamMaxChunks(),
	}, nil
}

// Generate 生成单张图像
func (g *compatImageGenerator) Generate(ctx context.Context, req repository.ImageRequest) (*repository.ImageResult, error) {
	if g.mode == config.ModeImage {
		resp, err := g.client.Images.Generate(ctx, openai.ImageGenerateParams{
			Prompt:         req.Prompt,
			Model:          openai.ImageModel(g.model),
			ResponseFormat: openai.ImageGenerateParamsResponseFormatB64JSON,
			Size:           generateSize(req),
		})
		if err != nil {
			return nil, Explain(err)
		}
		return decodeImageData(resp)
	}
	return g.generateChat(ctx, req)
}

// generateChat 走流式对话端点，拼接增量输出后提取图片
func (g *compatImageGenerator) generateChat(ctx context.Context, req repository.ImageRequest) (*repository.ImageResult, error) {
	parts := []openai.ChatCompletionContentPartUnionParam{
		openai.TextContentPart(req.Prompt),
	}
	for _, ref := range req.References {
		parts = append(parts, openai.ImageContentPart(openai.ChatCompletionContentPartImageImageURLParam{
			URL: "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(ref),
		}))
	}

	stream := g.client.Chat.Completions.NewStreaming(ctx, openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(g.model),
		Messages: []openai.ChatCompletionMessageParamUnion{openai.UserMessage(parts)},
	})
	defer stream.Close()

	var sb strings.Builder
	chunks := 0
	for stream.Next() {
		chunks++
		if chunks > g.maxChunks {
			return nil, errors.New(errors.CodeProviderStreamTimeout, "stream exceeded max chunk count").
				WithDetail(fmt.Sprintf("读取了超过 %d 个分块仍未收到终止标记", g.maxChunks))
		}
		chunk := stream.Current()
		for _, c := range chunk.Choices {
			sb.WriteString(c.Delta.Content)
		}
	}
	if err := stream.Err(); err != nil {
		return nil, Explain(err)
	}

	extracted, err := ExtractImage(sb.String())
	if err != nil {
		return nil, err
	}
	if extracted.Data != nil {
		return &repository.ImageResult{Data: extracted.Data, MimeType: "image/png"}, nil
	}
	data, mime, err := fetchImage(ctx, g.http, extracted.URL)
	if err != nil {
		return nil, err
	}
	return &repository.ImageResult{Data: data, MimeType: mime}, nil
}
