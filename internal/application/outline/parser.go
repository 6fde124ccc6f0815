// Package outline 提供大纲生成与解析功能
package outline

import (
	"regexp"
	"strings"

	"ai-picbook-api/internal/domain/entity"
)

// 分页标记：优先使用 <page>，兼容旧版 ---page---
const (
	PageMarker       = "<page>"
	legacyPageMarker = "---page---"
)

// labelTypes 页首方括号标签到页面类型的固定映射
var labelTypes = map[string]entity.PageType{
	"封面":      entity.PageTypeCover,
	"内容":      entity.PageTypeContent,
	"总结":      entity.PageTypeSummary,
	"cover":   entity.PageTypeCover,
	"content": entity.PageTypeContent,
	"summary": entity.PageTypeSummary,
}

// labelRe 匹配页首的 [标签] 或 【标签】
var labelRe = regexp.MustCompile(`^\s*[\[【]([^\]】]+)[\]】]\s*`)

// Parse 将原始大纲文本切分为有序页面
// 按分页标记切分、去除空段、分配从零开始的顺序索引，并从可选的
// 方括号标签推断页面类型，无标签或标签无法识别时默认为内容页。
// 退化输入会产生零个页面，调用方需将其视为错误。
func Parse(raw string) []entity.OutlinePage {
	marker := PageMarker
	if !strings.Contains(raw, PageMarker) && strings.Contains(raw, legacyPageMarker) {
		marker = legacyPageMarker
	}

	segments := strings.Split(raw, marker)
	pages := make([]entity.OutlinePage, 0, len(segments))
	for _, seg := range segments {
		content := strings.TrimSpace(seg)
		if content == "" {
			continue
		}

		pageType := entity.PageTypeContent
		if m := labelRe.FindStringSubmatch(content); m != nil {
			label := strings.ToLower(strings.TrimSpace(m[1]))
			if t, ok := labelTypes[label]; ok {
				pageType = t
			}
			content = strings.TrimSpace(content[len(m[0]):])
		}
		if content == "" {
			continue
		}

		pages = append(pages, entity.OutlinePage{
			Index:   len(pages),
			Type:    pageType,
			Content: content,
		})
	}
	return pages
}
