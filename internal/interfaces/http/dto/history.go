package dto

import (
	"time"

	"ai-picbook-api/internal/domain/entity"
)

// SaveHistoryRequest 保存历史记录请求
// 通常在拿到大纲后立即保存为 draft，生成过程中由服务端回写进度
type SaveHistoryRequest struct {
	Title        string        `json:"title" binding:"required"`
	Outline      string        `json:"outline"`
	Pages        []OutlinePage `json:"pages"`
	UseReference bool          `json:"use_reference"`
	TaskID       string        `json:"task_id"`
}

// UpdateHistoryRequest 更新历史记录请求，零值字段不修改
type UpdateHistoryRequest struct {
	Title string `json:"title"`
}

// HistoryItem 历史列表项
type HistoryItem struct {
	ID         string    `json:"id"`
	Title      string    `json:"title"`
	TaskID     string    `json:"task_id,omitempty"`
	Status     string    `json:"status"`
	PageCount  int       `json:"page_count"`
	ImageCount int       `json:"image_count"`
	Thumbnail  string    `json:"thumbnail,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// HistoryDetail 历史记录详情
type HistoryDetail struct {
	ID        string          `json:"id"`
	Title     string          `json:"title"`
	Status    string          `json:"status"`
	Outline   OutlineResponse `json:"outline"`
	TaskID    string          `json:"task_id,omitempty"`
	Files     []string        `json:"files"`
	Thumbnail string          `json:"thumbnail,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// FromIndexEntry 把索引摘要转换为列表项
func FromIndexEntry(e entity.HistoryIndexEntry) HistoryItem {
	return HistoryItem{
		ID:         e.ID,
		Title:      e.Title,
		TaskID:     e.TaskID,
		Status:     string(e.Status),
		PageCount:  e.PageCount,
		ImageCount: e.ImageCount,
		Thumbnail:  e.Thumbnail,
		CreatedAt:  e.CreatedAt,
		UpdatedAt:  e.UpdatedAt,
	}
}

// FromRecord 把历史记录实体转换为详情响应
func FromRecord(r *entity.HistoryRecord) HistoryDetail {
	return HistoryDetail{
		ID:        r.ID,
		Title:     r.Title,
		Status:    string(r.Status),
		Outline:   FromOutlineResult(&r.Outline),
		TaskID:    r.Images.TaskID,
		Files:     r.Images.Files,
		Thumbnail: r.Thumbnail,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}
