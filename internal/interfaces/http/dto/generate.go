package dto

// GenerateRequest 图像生成请求
// record_id 关联历史记录，进度在生成过程中回写；task_id 缺省时由服务端分配
type GenerateRequest struct {
	TaskID          string        `json:"task_id"`
	RecordID        string        `json:"record_id"`
	Topic           string        `json:"topic" binding:"required"`
	Outline         string        `json:"outline"`
	Pages           []OutlinePage `json:"pages" binding:"required,min=1"`
	UseReference    bool          `json:"use_reference"`
	HighConcurrency bool          `json:"high_concurrency"`
	AspectRatio     string        `json:"aspect_ratio"`
	Provider        string        `json:"provider"`
}

// RetryRequest 单页重试请求
type RetryRequest struct {
	PageIndex int    `json:"page_index"`
	Force     bool   `json:"force"`
	Provider  string `json:"provider"`
}

// RetryFailedRequest 批量失败重试请求
type RetryFailedRequest struct {
	Provider string `json:"provider"`
}
