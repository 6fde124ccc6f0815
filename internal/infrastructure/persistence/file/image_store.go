package file

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"ai-picbook-api/internal/application/imageutil"
	"ai-picbook-api/internal/domain/entity"
	"ai-picbook-api/pkg/errors"
	"ai-picbook-api/pkg/logger"
)

// ImageStore 任务图片的文件系统存储
// 每个任务一个子目录，原图 {index}.png，缩略图 thumb_{index}.png
type ImageStore struct {
	tasksDir        string
	thumbnailBudget int
}

// NewImageStore 创建任务图片存储
func NewImageStore(tasksDir string, thumbnailBudget int) (*ImageStore, error) {
	if err := os.MkdirAll(tasksDir, 0o755); err != nil {
		return nil, errors.Wrap(err, errors.CodeStorageError, "failed to create tasks directory")
	}
	return &ImageStore{tasksDir: tasksDir, thumbnailBudget: thumbnailBudget}, nil
}

// ImageFileName 返回页索引对应的原图文件名
func ImageFileName(index int) string {
	return fmt.Sprintf("%d.png", index)
}

// ThumbFileName 返回页索引对应的缩略图文件名
func ThumbFileName(index int) string {
	return fmt.Sprintf("thumb_%d.png", index)
}

// Save 写入原图与缩略图，返回原图文件名
// 缩略图生成失败只告警不中断，原图是唯一的正源
func (s *ImageStore) Save(ctx context.Context, taskID string, index int, data []byte) (string, error) {
	if !entity.ValidTaskID(taskID) {
		return "", errors.New(errors.CodeInvalidParam, fmt.Sprintf("unsafe task id %q", taskID))
	}
	dir := filepath.Join(s.tasksDir, taskID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", errors.Wrap(err, errors.CodeStorageError, "failed to create task directory")
	}

	name := ImageFileName(index)
	if err := writeFileAtomic(filepath.Join(dir, name), data); err != nil {
		return "", errors.Wrap(err, errors.CodeStorageError, "failed to write image")
	}

	thumb, err := imageutil.Thumbnail(data, s.thumbnailBudget)
	if err != nil {
		logger.Warn(ctx, "failed to build thumbnail", "task_id", taskID, "index", index, "error", err)
		return name, nil
	}
	if err := writeFileAtomic(filepath.Join(dir, ThumbFileName(index)), thumb); err != nil {
		logger.Warn(ctx, "failed to write thumbnail", "task_id", taskID, "index", index, "error", err)
	}
	return name, nil
}

// Load 读取原图或缩略图
func (s *ImageStore) Load(ctx context.Context, taskID string, index int, thumb bool) ([]byte, error) {
	if !entity.ValidTaskID(taskID) {
		return nil, errors.New(errors.CodeInvalidParam, fmt.Sprintf("unsafe task id %q", taskID))
	}
	name := ImageFileName(index)
	if thumb {
		name = ThumbFileName(index)
	}
	data, err := os.ReadFile(filepath.Join(s.tasksDir, taskID, name))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.ErrImageNotFound
		}
		return nil, errors.Wrap(err, errors.CodeStorageError, "failed to read image")
	}
	return data, nil
}
