package entity

import "time"

// RecordStatus 历史记录状态
type RecordStatus string

// 状态枚举：状态必须与已生成图片数和期望页数保持一致
const (
	StatusDraft      RecordStatus = "draft"
	StatusGenerating RecordStatus = "generating"
	StatusCompleted  RecordStatus = "completed"
	StatusPartial    RecordStatus = "partial"
)

// ImageSet 一次生成任务产出的图片集合
// Files 按页索引排列，未生成的页对应空字符串
type ImageSet struct {
	TaskID string   `json:"task_id"`
	Files  []string `json:"files"`
}

// Count 返回已生成的图片数
func (s ImageSet) Count() int {
	n := 0
	for _, f := range s.Files {
		if f != "" {
			n++
		}
	}
	return n
}

// HistoryRecord 历史记录详情
type HistoryRecord struct {
	ID        string        `json:"id"`
	Title     string        `json:"title"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
	Outline   OutlineResult `json:"outline"`
	Images    ImageSet      `json:"images"`
	Status    RecordStatus  `json:"status"`
	Thumbnail string        `json:"thumbnail,omitempty"`
}

// HistoryIndexEntry 聚合索引文件中的记录摘要
// 反范式化字段，必须在每次变更后与详情记录保持一致
type HistoryIndexEntry struct {
	ID         string       `json:"id"`
	Title      string       `json:"title"`
	TaskID     string       `json:"task_id,omitempty"`
	Status     RecordStatus `json:"status"`
	PageCount  int          `json:"page_count"`
	ImageCount int          `json:"image_count"`
	Thumbnail  string       `json:"thumbnail,omitempty"`
	CreatedAt  time.Time    `json:"created_at"`
	UpdatedAt  time.Time    `json:"updated_at"`
}

// Summary 生成该记录的索引摘要
func (r *HistoryRecord) Summary() HistoryIndexEntry {
	return HistoryIndexEntry{
		ID:         r.ID,
		Title:      r.Title,
		TaskID:     r.Images.TaskID,
		Status:     r.Status,
		PageCount:  len(r.Outline.Pages),
		ImageCount: r.Images.Count(),
		Thumbnail:  r.Thumbnail,
		CreatedAt:  r.CreatedAt,
		UpdatedAt:  r.UpdatedAt,
	}
}

// DeriveStatus 按已生成图片数与期望页数推导记录状态
// completed 当且仅当全部页面已生成；partial 表示部分生成；draft 表示尚无图片
func DeriveStatus(generated, expected int) RecordStatus {
	switch {
	case expected > 0 && generated >= expected:
		return StatusCompleted
	case generated > 0:
		return StatusPartial
	default:
		return StatusDraft
	}
}

// ScanReport 任务目录巡检结果
type ScanReport struct {
	Repaired []string `json:"repaired"`
	Orphans  []string `json:"orphans"`
}
