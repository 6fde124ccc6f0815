package file

import (
	"context"
	"os"
	"path/filepath"

	"ai-picbook-api/internal/domain/entity"
	"ai-picbook-api/pkg/errors"
	"ai-picbook-api/pkg/logger"
	"ai-picbook-api/pkg/tracer"
)

// ScanTasks 巡检任务目录并修复记录漂移
// 对每个任务子目录统计实际图片，与第一条任务 ID 匹配的记录比对，
// 修复图片列表/状态/缩略图；没有对应记录的任务作为孤儿上报
func (s *HistoryStore) ScanTasks(ctx context.Context) (*entity.ScanReport, error) {
	ctx, span := tracer.Start(ctx, "file.HistoryStore.ScanTasks")
	defer span.End()

	s.mu.Lock()
	defer s.mu.Unlock()

	dirEntries, err := os.ReadDir(s.tasksDir)
	if err != nil {
		if os.IsNotExist(err) {
			return &entity.ScanReport{Repaired: []string{}, Orphans: []string{}}, nil
		}
		return nil, errors.Wrap(err, errors.CodeStorageError, "failed to read tasks directory")
	}

	index, err := s.readIndex()
	if err != nil {
		return nil, err
	}

	report := &entity.ScanReport{Repaired: []string{}, Orphans: []string{}}
	for _, dir := range dirEntries {
		if !dir.IsDir() {
			continue
		}
		taskID := dir.Name()

		entryIdx := -1
		for i, e := range index {
			if e.TaskID == taskID {
				entryIdx = i
				break
			}
		}
		if entryIdx < 0 {
			report.Orphans = append(report.Orphans, taskID)
			continue
		}

		var record entity.HistoryRecord
		if err := readJSON(s.recordPath(index[entryIdx].ID), &record); err != nil {
			logger.Warn(ctx, "scan: failed to read record for task", "task_id", taskID, "error", err)
			continue
		}

		repaired, changed := s.reconcile(taskID, &record)
		if !changed {
			continue
		}
		if err := writeJSONAtomic(s.recordPath(record.ID), repaired); err != nil {
			return nil, errors.Wrap(err, errors.CodeStorageError, "failed to write repaired record")
		}
		index[entryIdx] = repaired.Summary()
		report.Repaired = append(report.Repaired, repaired.ID)
	}

	if len(report.Repaired) > 0 {
		if err := s.writeIndex(index); err != nil {
			return nil, err
		}
	}
	return report, nil
}

// reconcile 按目录中的实际文件重建图片列表与状态
func (s *HistoryStore) reconcile(taskID string, record *entity.HistoryRecord) (*entity.HistoryRecord, bool) {
	expected := len(record.Outline.Pages)
	files := make([]string, expected)
	generated := 0
	for i := 0; i < expected; i++ {
		if _, err := os.Stat(filepath.Join(s.tasksDir, taskID, ImageFileName(i))); err == nil {
			files[i] = ImageFileName(i)
			generated++
		}
	}

	// 缩略图跟随封面页的索引，封面不一定是第 0 页
	thumbnail := ""
	if expected > 0 {
		coverIdx := record.Outline.Pages[entity.CoverIndex(record.Outline.Pages)].Index
		if _, err := os.Stat(filepath.Join(s.tasksDir, taskID, ThumbFileName(coverIdx))); err == nil {
			thumbnail = ThumbFileName(coverIdx)
		}
	}

	status := entity.DeriveStatus(generated, expected)

	changed := record.Status != status ||
		record.Thumbnail != thumbnail ||
		len(record.Images.Files) != len(files)
	if !changed {
		for i := range files {
			if record.Images.Files[i] != files[i] {
				changed = true
				break
			}
		}
	}
	if !changed {
		return record, false
	}

	record.Images.Files = files
	record.Status = status
	record.Thumbnail = thumbnail
	return record, true
}
