// Package generation 提供图像生成编排功能
package generation

import "ai-picbook-api/internal/domain/entity"

// EventType 生成事件类型
type EventType string

// 事件类型枚举
const (
	EventProgress    EventType = "progress"
	EventComplete    EventType = "complete"
	EventError       EventType = "error"
	EventFinish      EventType = "finish"
	EventRetryStart  EventType = "retry_start"
	EventRetryFinish EventType = "retry_finish"
)

// Event 生成流水线对外发布的事件
// 通过只读通道按序消费，通道在 finish/retry_finish 之后关闭；
// 同一页的 complete/error 事件保证出现在其 progress 之后
type Event struct {
	Type      EventType       `json:"type"`
	TaskID    string          `json:"task_id"`
	PageIndex int             `json:"page_index"`
	PageType  entity.PageType `json:"page_type,omitempty"`
	File      string          `json:"file,omitempty"`
	Message   string          `json:"message,omitempty"`

	// finish/retry_finish 专用的汇总字段
	Completed     int                 `json:"completed,omitempty"`
	Failed        int                 `json:"failed,omitempty"`
	FailedIndices []int               `json:"failed_indices,omitempty"`
	Status        entity.RecordStatus `json:"status,omitempty"`
}

func progressEvent(taskID string, page entity.OutlinePage) Event {
	return Event{Type: EventProgress, TaskID: taskID, PageIndex: page.Index, PageType: page.Type}
}

func completeEvent(taskID string, page entity.OutlinePage, file string) Event {
	return Event{Type: EventComplete, TaskID: taskID, PageIndex: page.Index, PageType: page.Type, File: file}
}

func errorEvent(taskID string, page entity.OutlinePage, msg string) Event {
	return Event{Type: EventError, TaskID: taskID, PageIndex: page.Index, PageType: page.Type, Message: msg}
}
