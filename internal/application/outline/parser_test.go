package outline

import (
	"strings"
	"testing"

	"ai-picbook-api/internal/domain/entity"
)

func TestParseLabeledPages(t *testing.T) {
	raw := "[封面]\n一只小狐狸站在山丘上\n<page>[内容]\n小狐狸走进森林\n<page>[总结]\n小狐狸学会了分享"

	pages := Parse(raw)
	if len(pages) != 3 {
		t.Fatalf("got %d pages, want 3", len(pages))
	}

	wantTypes := []entity.PageType{entity.PageTypeCover, entity.PageTypeContent, entity.PageTypeSummary}
	for i, p := range pages {
		if p.Index != i {
			t.Errorf("page %d index = %d", i, p.Index)
		}
		if p.Type != wantTypes[i] {
			t.Errorf("page %d type = %s, want %s", i, p.Type, wantTypes[i])
		}
		if strings.ContainsAny(p.Content, "[]【】") {
			t.Errorf("page %d content keeps label: %q", i, p.Content)
		}
	}
}

func TestParse(t *testing.T) {
	tests := []struct {
		name      string
		raw       string
		wantCount int
		wantTypes []entity.PageType
	}{
		{
			name:      "english labels",
			raw:       "[cover] a cat\n<page>[content] the cat runs\n<page>[summary] the end",
			wantCount: 3,
			wantTypes: []entity.PageType{entity.PageTypeCover, entity.PageTypeContent, entity.PageTypeSummary},
		},
		{
			name:      "legacy marker",
			raw:       "[封面] 海边\n---page---[内容] 浪花",
			wantCount: 2,
			wantTypes: []entity.PageType{entity.PageTypeCover, entity.PageTypeContent},
		},
		{
			name:      "unlabeled defaults to content",
			raw:       "第一幕<page>第二幕",
			wantCount: 2,
			wantTypes: []entity.PageType{entity.PageTypeContent, entity.PageTypeContent},
		},
		{
			name:      "unknown label defaults to content",
			raw:       "[序章] 开始",
			wantCount: 1,
			wantTypes: []entity.PageType{entity.PageTypeContent},
		},
		{
			name:      "fullwidth brackets",
			raw:       "【封面】 夜空",
			wantCount: 1,
			wantTypes: []entity.PageType{entity.PageTypeCover},
		},
		{
			name:      "empty segments dropped and reindexed",
			raw:       "<page>\n\n<page>[内容] 有内容的页<page>  <page>[总结] 结尾",
			wantCount: 2,
			wantTypes: []entity.PageType{entity.PageTypeContent, entity.PageTypeSummary},
		},
		{
			name:      "label only segment dropped",
			raw:       "[内容]<page>[内容] 真正的页",
			wantCount: 1,
			wantTypes: []entity.PageType{entity.PageTypeContent},
		},
		{
			name:      "empty input",
			raw:       "",
			wantCount: 0,
		},
		{
			name:      "whitespace only",
			raw:       "  \n\t ",
			wantCount: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pages := Parse(tt.raw)
			if len(pages) != tt.wantCount {
				t.Fatalf("got %d pages, want %d: %+v", len(pages), tt.wantCount, pages)
			}
			for i, p := range pages {
				if p.Index != i {
					t.Errorf("page %d has index %d", i, p.Index)
				}
				if tt.wantTypes != nil && p.Type != tt.wantTypes[i] {
					t.Errorf("page %d type = %s, want %s", i, p.Type, tt.wantTypes[i])
				}
			}
		})
	}
}

func TestParsePrefersNewMarker(t *testing.T) {
	// 两种标记同时出现时只认 <page>，旧标记留在内容里
	raw := "甲<page>乙---page---丙"
	pages := Parse(raw)
	if len(pages) != 2 {
		t.Fatalf("got %d pages, want 2", len(pages))
	}
	if !strings.Contains(pages[1].Content, "---page---") {
		t.Fatalf("page 1 content = %q, want legacy marker kept verbatim", pages[1].Content)
	}
}
