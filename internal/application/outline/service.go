package outline

import (
	"context"
	"fmt"

	"ai-picbook-api/internal/domain/entity"
	"ai-picbook-api/internal/domain/repository"
	"ai-picbook-api/pkg/errors"
	"ai-picbook-api/pkg/logger"
	"ai-picbook-api/pkg/metrics"
	"ai-picbook-api/pkg/tracer"
)

const systemPrompt = `你是一位绘本策划师。请根据用户给出的主题，产出一份分页大纲。
要求：
1. 每页之间用 <page> 分隔；
2. 第一页以 [封面] 开头，中间页以 [内容] 开头，最后一页以 [总结] 开头；
3. 每页内容是一段可直接用于绘图的画面描述，不要输出多余解释。`

// Service 大纲生成服务
type Service struct {
	text repository.TextGenerator
}

// NewService 创建大纲生成服务
func NewService(text repository.TextGenerator) *Service {
	return &Service{text: text}
}

// Generate 根据主题生成并解析大纲
// 零页面视为生成失败
func (s *Service) Generate(ctx context.Context, topic string, pageCount int, useReference bool) (*entity.OutlineResult, error) {
	ctx, span := tracer.Start(ctx, "outline.Service.Generate")
	defer span.End()

	if pageCount <= 0 {
		pageCount = 6
	}
	user := fmt.Sprintf("主题：%s\n页数：%d", topic, pageCount)

	raw, err := s.text.Complete(ctx, systemPrompt, user)
	if err != nil {
		metrics.OutlineGenerationTotal.WithLabelValues("text", "error").Inc()
		return nil, errors.Wrap(err, errors.CodeGenerationFailed, "outline generation failed")
	}

	pages := Parse(raw)
	if len(pages) == 0 {
		metrics.OutlineGenerationTotal.WithLabelValues("text", "empty").Inc()
		return nil, errors.New(errors.CodeOutlineEmpty, "outline produced no pages").
			WithDetail("model output contained no parsable pages")
	}

	logger.Info(ctx, "outline generated", "topic", topic, "pages", len(pages))
	metrics.OutlineGenerationTotal.WithLabelValues("text", "ok").Inc()

	return &entity.OutlineResult{
		Outline:       raw,
		Pages:         pages,
		UsedReference: useReference,
	}, nil
}
