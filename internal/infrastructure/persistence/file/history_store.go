package file

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"ai-picbook-api/internal/domain/entity"
	"ai-picbook-api/pkg/errors"
	"ai-picbook-api/pkg/logger"
	"ai-picbook-api/pkg/tracer"
)

// HistoryStore 基于文件系统的历史记录仓储
// 一个聚合索引文件加每条记录一个详情文件；所有变更操作持有
// 存储级互斥锁，保证索引与详情不会在并发任务下漂移
type HistoryStore struct {
	mu       sync.Mutex
	baseDir  string
	tasksDir string
}

const (
	indexFile  = "index.json"
	recordsDir = "records"
)

// NewHistoryStore 创建历史记录仓储并准备目录
func NewHistoryStore(baseDir, tasksDir string) (*HistoryStore, error) {
	if err := os.MkdirAll(filepath.Join(baseDir, recordsDir), 0o755); err != nil {
		return nil, errors.Wrap(err, errors.CodeStorageError, "failed to create history directory")
	}
	if err := os.MkdirAll(tasksDir, 0o755); err != nil {
		return nil, errors.Wrap(err, errors.CodeStorageError, "failed to create tasks directory")
	}
	return &HistoryStore{baseDir: baseDir, tasksDir: tasksDir}, nil
}

func (s *HistoryStore) indexPath() string {
	return filepath.Join(s.baseDir, indexFile)
}

func (s *HistoryStore) recordPath(id string) string {
	return filepath.Join(s.baseDir, recordsDir, id+".json")
}

// Create 写入详情文件并把摘要置入索引首位
func (s *HistoryStore) Create(ctx context.Context, record *entity.HistoryRecord) error {
	ctx, span := tracer.Start(ctx, "file.HistoryStore.Create")
	defer span.End()

	s.mu.Lock()
	defer s.mu.Unlock()

	if record.ID == "" {
		record.ID = uuid.New().String()
	}
	now := time.Now()
	record.CreatedAt = now
	record.UpdatedAt = now
	if record.Status == "" {
		record.Status = entity.DeriveStatus(record.Images.Count(), len(record.Outline.Pages))
	}

	if err := writeJSONAtomic(s.recordPath(record.ID), record); err != nil {
		return errors.Wrap(err, errors.CodeStorageError, "failed to write history record")
	}

	index, err := s.readIndex()
	if err != nil {
		return err
	}
	index = append([]entity.HistoryIndexEntry{record.Summary()}, index...)
	return s.writeIndex(index)
}

// GetByID 读取详情文件
func (s *HistoryStore) GetByID(ctx context.Context, id string) (*entity.HistoryRecord, error) {
	_, span := tracer.Start(ctx, "file.HistoryStore.GetByID")
	defer span.End()

	var record entity.HistoryRecord
	if err := readJSON(s.recordPath(id), &record); err != nil {
		if os.IsNotExist(err) {
			return nil, errors.ErrRecordNotFound
		}
		return nil, errors.Wrap(err, errors.CodeStorageError, "failed to read history record")
	}
	return &record, nil
}

// Update 重写详情并修补索引中对应条目的反范式化字段
func (s *HistoryStore) Update(ctx context.Context, record *entity.HistoryRecord) error {
	ctx, span := tracer.Start(ctx, "file.HistoryStore.Update")
	defer span.End()

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := os.Stat(s.recordPath(record.ID)); os.IsNotExist(err) {
		return errors.ErrRecordNotFound
	}

	record.UpdatedAt = time.Now()
	if err := writeJSONAtomic(s.recordPath(record.ID), record); err != nil {
		return errors.Wrap(err, errors.CodeStorageError, "failed to write history record")
	}

	index, err := s.readIndex()
	if err != nil {
		return err
	}
	patched := false
	for i := range index {
		if index[i].ID == record.ID {
			index[i] = record.Summary()
			patched = true
			break
		}
	}
	if !patched {
		// 索引缺失该条目说明曾经写入失败，补回首位
		index = append([]entity.HistoryIndexEntry{record.Summary()}, index...)
	}
	return s.writeIndex(index)
}

// Delete 删除详情文件与任务图片目录，并从索引过滤
func (s *HistoryStore) Delete(ctx context.Context, id string) error {
	ctx, span := tracer.Start(ctx, "file.HistoryStore.Delete")
	defer span.End()

	s.mu.Lock()
	defer s.mu.Unlock()

	var record entity.HistoryRecord
	if err := readJSON(s.recordPath(id), &record); err != nil {
		if os.IsNotExist(err) {
			return errors.ErrRecordNotFound
		}
		return errors.Wrap(err, errors.CodeStorageError, "failed to read history record")
	}

	if err := os.Remove(s.recordPath(id)); err != nil && !os.IsNotExist(err) {
		return errors.Wrap(err, errors.CodeStorageError, "failed to remove history record")
	}
	// 任务 ID 不可信时绝不拼路径删除，宁可留下孤儿目录
	if taskID := record.Images.TaskID; taskID != "" {
		if !entity.ValidTaskID(taskID) {
			logger.Warn(ctx, "skipping task directory removal for unsafe task id", "task_id", taskID)
		} else if err := os.RemoveAll(filepath.Join(s.tasksDir, taskID)); err != nil {
			logger.Warn(ctx, "failed to remove task directory", "task_id", taskID, "error", err)
		}
	}

	index, err := s.readIndex()
	if err != nil {
		return err
	}
	filtered := index[:0]
	for _, e := range index {
		if e.ID != id {
			filtered = append(filtered, e)
		}
	}
	return s.writeIndex(filtered)
}

// List 仅读取索引
func (s *HistoryStore) List(ctx context.Context) ([]entity.HistoryIndexEntry, error) {
	_, span := tracer.Start(ctx, "file.HistoryStore.List")
	defer span.End()

	return s.readIndex()
}

// Search 在索引内按标题关键字过滤
func (s *HistoryStore) Search(ctx context.Context, keyword string) ([]entity.HistoryIndexEntry, error) {
	entries, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	keyword = strings.ToLower(strings.TrimSpace(keyword))
	if keyword == "" {
		return entries, nil
	}
	matched := make([]entity.HistoryIndexEntry, 0, len(entries))
	for _, e := range entries {
		if strings.Contains(strings.ToLower(e.Title), keyword) {
			matched = append(matched, e)
		}
	}
	return matched, nil
}

// FindByTaskID 返回第一条任务 ID 匹配的记录
func (s *HistoryStore) FindByTaskID(ctx context.Context, taskID string) (*entity.HistoryRecord, error) {
	entries, err := s.readIndex()
	if err != nil {
		return nil, err
	}
	for _, e := range entries {
		if e.TaskID == taskID {
			return s.GetByID(ctx, e.ID)
		}
	}
	return nil, errors.ErrRecordNotFound
}

// readIndex 读取聚合索引，文件缺失视为空索引
func (s *HistoryStore) readIndex() ([]entity.HistoryIndexEntry, error) {
	var index []entity.HistoryIndexEntry
	if err := readJSON(s.indexPath(), &index); err != nil {
		if os.IsNotExist(err) {
			return []entity.HistoryIndexEntry{}, nil
		}
		return nil, errors.Wrap(err, errors.CodeStorageError, "failed to read history index")
	}
	return index, nil
}

func (s *HistoryStore) writeIndex(index []entity.HistoryIndexEntry) error {
	if err := writeJSONAtomic(s.indexPath(), index); err != nil {
		return errors.Wrap(err, errors.CodeStorageError, "failed to write history index")
	}
	return nil
}
