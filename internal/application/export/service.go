// Package export 提供绘本打包导出功能
package export

import (
	"archive/zip"
	"context"
	"fmt"
	"io"
	"strings"

	"ai-picbook-api/internal/domain/entity"
	"ai-picbook-api/internal/domain/repository"
	"ai-picbook-api/pkg/errors"
	"ai-picbook-api/pkg/logger"
	"ai-picbook-api/pkg/tracer"
)

// Service 把一条历史记录的大纲与图片打包成 ZIP
type Service struct {
	history repository.HistoryRepository
	images  repository.ImageStore
}

// NewService 创建导出服务
func NewService(history repository.HistoryRepository, images repository.ImageStore) *Service {
	return &Service{history: history, images: images}
}

// Archive 把记录内容写入 w，返回建议的下载文件名
// 缺失的页面图片跳过不报错，导出的是当前实际产出
func (s *Service) Archive(ctx context.Context, recordID string, w io.Writer) (string, error) {
	ctx, span := tracer.Start(ctx, "export.Service.Archive")
	defer span.End()

	record, err := s.history.GetByID(ctx, recordID)
	if err != nil {
		return "", err
	}

	zw := zip.NewWriter(w)
	if err := s.writeOutline(zw, record); err != nil {
		return "", err
	}
	if err := s.writeImages(ctx, zw, record); err != nil {
		return "", err
	}
	if err := zw.Close(); err != nil {
		return "", errors.Wrap(err, errors.CodeExportFailed, "failed to finalize archive")
	}

	name := record.Title
	if name == "" {
		name = record.ID
	}
	return fmt.Sprintf("%s.zip", name), nil
}

func (s *Service) writeOutline(zw *zip.Writer, record *entity.HistoryRecord) error {
	f, err := zw.Create("outline.txt")
	if err != nil {
		return errors.Wrap(err, errors.CodeExportFailed, "failed to create outline entry")
	}

	var b strings.Builder
	b.WriteString(record.Title)
	b.WriteString("\n\n")
	for _, p := range record.Outline.Pages {
		b.WriteString(fmt.Sprintf("[%s] 第 %d 页\n%s\n\n", pageLabel(p.Type), p.Index+1, p.Content))
	}
	if _, err := io.WriteString(f, b.String()); err != nil {
		return errors.Wrap(err, errors.CodeExportFailed, "failed to write outline entry")
	}
	return nil
}

func (s *Service) writeImages(ctx context.Context, zw *zip.Writer, record *entity.HistoryRecord) error {
	taskID := record.Images.TaskID
	if taskID == "" {
		return nil
	}
	for i, file := range record.Images.Files {
		if file == "" {
			continue
		}
		data, err := s.images.Load(ctx, taskID, i, false)
		if err != nil {
			logger.Warn(ctx, "export: skipping missing image", "task_id", taskID, "index", i)
			continue
		}
		f, err := zw.Create(fmt.Sprintf("images/%s", file))
		if err != nil {
			return errors.Wrap(err, errors.CodeExportFailed, "failed to create image entry")
		}
		if _, err := f.Write(data); err != nil {
			return errors.Wrap(err, errors.CodeExportFailed, "failed to write image entry")
		}
	}
	return nil
}

func pageLabel(t entity.PageType) string {
	switch t {
	case entity.PageTypeCover:
		return "封面"
	case entity.PageTypeSummary:
		return "总结"
	default:
		return "内容"
	}
}
