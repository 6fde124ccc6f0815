// Package repository 定义领域仓储与外部端口
package repository

import (
	"context"

	"ai-picbook-api/internal/domain/entity"
)

// HistoryRepository 历史记录仓储
// 实现必须保证聚合索引与详情记录在每次变更后保持一致
type HistoryRepository interface {
	// Create 创建记录并置入索引首位
	Create(ctx context.Context, record *entity.HistoryRecord) error

	// GetByID 按 ID 获取详情，未找到时返回 errors.ErrRecordNotFound
	GetByID(ctx context.Context, id string) (*entity.HistoryRecord, error)

	// Update 重写详情并修补对应索引摘要
	Update(ctx context.Context, record *entity.HistoryRecord) error

	// Delete 删除详情、任务图片目录并从索引中过滤
	Delete(ctx context.Context, id string) error

	// List 仅读取索引，按创建时间倒序返回摘要
	List(ctx context.Context) ([]entity.HistoryIndexEntry, error)

	// Search 在索引内按标题关键字过滤
	Search(ctx context.Context, keyword string) ([]entity.HistoryIndexEntry, error)

	// FindByTaskID 返回第一条任务 ID 匹配的记录
	FindByTaskID(ctx context.Context, taskID string) (*entity.HistoryRecord, error)

	// ScanTasks 巡检任务目录，修复图片列表/状态/缩略图漂移并报告孤儿任务
	ScanTasks(ctx context.Context) (*entity.ScanReport, error)
}
