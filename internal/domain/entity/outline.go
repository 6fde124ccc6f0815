// Package entity 定义领域实体
package entity

// PageType 大纲页面类型
type PageType string

// 页面类型枚举
const (
	PageTypeCover   PageType = "cover"
	PageTypeContent PageType = "content"
	PageTypeSummary PageType = "summary"
)

// OutlinePage 大纲中的一页
// 由大纲解析器按分页标记切分产生，创建后不再修改
type OutlinePage struct {
	Index   int      `json:"index"`
	Type    PageType `json:"type"`
	Content string   `json:"content"`
}

// OutlineResult 一次大纲生成的结果
type OutlineResult struct {
	Outline       string        `json:"outline"`
	Pages         []OutlinePage `json:"pages"`
	UsedReference bool          `json:"used_reference"`
}

// CoverIndex 返回封面页在提交顺序中的位置
// 没有显式标记为封面的页面时，首页被提升为封面
func CoverIndex(pages []OutlinePage) int {
	for i, p := range pages {
		if p.Type == PageTypeCover {
			return i
		}
	}
	return 0
}
