package provider

import (
	"bytes"
	"context"
	"encoding/base64"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"ai-picbook-api/internal/config"
	"ai-picbook-api/internal/domain/repository"
	"ai-picbook-api/pkg/errors"
)

// openaiImageGenerator 基于官方 SDK 的图像生成器
type openaiImageGenerator struct {
	client openai.Client
	model  string
}

// NewOpenAIImageGenerator 创建 SDK 图像生成器，构造时校验凭证
func NewOpenAIImageGenerator(cfg config.ProviderSettings, _ Options) (repository.ImageGenerator, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, errors.New(errors.CodeProviderConfig, "openai api key missing").
			WithDetail("在图像提供商配置中填写 api_key")
	}

	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	model := cfg.Model
	if model == "" {
		model = "dall-e-3"
	}

	return &openaiImageGenerator{
		client: openai.NewClient(opts...),
		model:  model,
	}, nil
}

// Generate 生成单张图像；携带参考图时走编辑端点以保持画风
func (g *openaiImageGenerator) Generate(ctx context.Context, req repository.ImageRequest) (*repository.ImageResult, error) {
	if len(req.References) > 0 {
		return g.edit(ctx, req)
	}

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

func (g *openaiImageGenerator) edit(ctx context.Context, req repository.ImageRequest) (*repository.ImageResult, error) {
	resp, err := g.client.Images.Edit(ctx, openai.ImageEditParams{
		Image: openai.ImageEditParamsImageUnion{
			OfFile: openai.File(bytes.NewReader(req.References[0]), "reference.png", "image/png"),
		},
		Prompt: req.Prompt,
		Model:  openai.ImageModel(g.model),
	})
	if err != nil {
		return nil, Explain(err)
	}
	return decodeImageData(resp)
}

// generateSize 将请求的尺寸/宽高比映射到 SDK 的尺寸枚举
func generateSize(req repository.ImageRequest) openai.ImageGenerateParamsSize {
	switch req.Size {
	case "1792x1024":
		return openai.ImageGenerateParamsSize1792x1024
	case "1024x1792":
		return openai.ImageGenerateParamsSize1024x1792
	case "1024x1024":
		return openai.ImageGenerateParamsSize1024x1024
	}
	switch req.AspectRatio {
	case "16:9":
		return openai.ImageGenerateParamsSize1792x1024
	case "9:16":
		return openai.ImageGenerateParamsSize1024x1792
	default:
		return openai.ImageGenerateParamsSize1024x1024
	}
}

// decodeImageData 解出响应中的第一张图片
func decodeImageData(resp *openai.ImagesResponse) (*repository.ImageResult, error) {
	if resp == nil || len(resp.Data) == 0 {
		return nil, errors.New(errors.CodeProviderMalformed, "image response contained no data")
	}
	img := resp.Data[0]
	if img.B64JSON == "" {
		return nil, errors.New(errors.CodeProviderMalformed, "image response missing b64_json payload")
	}
	data, err := base64.StdEncoding.DecodeString(img.B64JSON)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeProviderMalformed, "invalid base64 in image response")
	}
	return &repository.ImageResult{Data: data, MimeType: "image/png"}, nil
}
