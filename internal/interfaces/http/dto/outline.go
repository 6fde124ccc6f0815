package dto

import "ai-picbook-api/internal/domain/entity"

// OutlineRequest 大纲生成请求
type OutlineRequest struct {
	Topic        string `json:"topic" binding:"required"`
	PageCount    int    `json:"page_count"`
	UseReference bool   `json:"use_reference"`
	Provider     string `json:"provider"`
}

// OutlinePage 大纲页面
type OutlinePage struct {
	Index   int    `json:"index"`
	Type    string `json:"type"`
	Content string `json:"content"`
}

// OutlineResponse 大纲生成响应
type OutlineResponse struct {
	Outline       string        `json:"outline"`
	Pages         []OutlinePage `json:"pages"`
	UsedReference bool          `json:"used_reference"`
}

// FromOutlineResult 把领域大纲结果转换为响应
func FromOutlineResult(r *entity.OutlineResult) OutlineResponse {
	pages := make([]OutlinePage, len(r.Pages))
	for i, p := range r.Pages {
		pages[i] = OutlinePage{Index: p.Index, Type: string(p.Type), Content: p.Content}
	}
	return OutlineResponse{Outline: r.Outline, Pages: pages, UsedReference: r.UsedReference}
}

// ToOutlinePages 把请求中的页面转换为领域实体
func ToOutlinePages(pages []OutlinePage) []entity.OutlinePage {
	out := make([]entity.OutlinePage, len(pages))
	for i, p := range pages {
		t := entity.PageType(p.Type)
		switch t {
		case entity.PageTypeCover, entity.PageTypeContent, entity.PageTypeSummary:
		default:
			t = entity.PageTypeContent
		}
		out[i] = entity.OutlinePage{Index: p.Index, Type: t, Content: p.Content}
	}
	return out
}
