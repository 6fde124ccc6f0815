package generation

import (
	"context"
	"fmt"

	"ai-picbook-api/internal/application/imageutil"
	"ai-picbook-api/internal/domain/entity"
	"ai-picbook-api/internal/domain/repository"
	"ai-picbook-api/pkg/errors"
	"ai-picbook-api/pkg/logger"
	"ai-picbook-api/pkg/metrics"
)

// RetryPage 重试指定页的生成
// 该页已有图片且 force 为假时不重新生成，直接回放 complete 事件
func (o *Orchestrator) RetryPage(ctx context.Context, gen repository.ImageGenerator, taskID string, pageIndex int, force bool) <-chan Event {
	ch := make(chan Event, 16)
	go func() {
		defer close(ch)
		metrics.PageRetryTotal.WithLabelValues("single").Inc()

		task, err := o.rebuildTask(ctx, taskID)
		if err != nil {
			ch <- Event{Type: EventError, TaskID: taskID, PageIndex: pageIndex, Message: Explain(err)}
			return
		}

		page, ok := findPage(task.Pages, pageIndex)
		if !ok {
			ch <- Event{Type: EventError, TaskID: taskID, PageIndex: pageIndex,
				Message: fmt.Sprintf("page %d not found in outline", pageIndex)}
			return
		}

		ch <- Event{Type: EventRetryStart, TaskID: taskID, PageIndex: pageIndex, PageType: page.Type}

		generated, _ := o.tasks.Snapshot(taskID)
		if file, done := generated[pageIndex]; done && !force {
			ch <- completeEvent(taskID, page, file)
			o.finish(ctx, task, ch, EventRetryFinish)
			return
		}

		var ref []byte
		if task.UseReference && page.Type != entity.PageTypeCover {
			ref = o.resolveReference(ctx, task)
		}
		o.generateOne(ctx, gen, task, page, ref, ch)

		if page.Type == entity.PageTypeCover {
			o.refreshCoverReference(ctx, task)
		}
		o.finish(ctx, task, ch, EventRetryFinish)
	}()
	return ch
}

// RetryFailed 重试任务中所有缺图的页面
// 封面缺失时先补封面，保持封面先行的顺序约束
func (o *Orchestrator) RetryFailed(ctx context.Context, gen repository.ImageGenerator, taskID string) <-chan Event {
	ch := make(chan Event, 16)
	go func() {
		defer close(ch)
		metrics.PageRetryTotal.WithLabelValues("batch").Inc()

		task, err := o.rebuildTask(ctx, taskID)
		if err != nil {
			ch <- Event{Type: EventError, TaskID: taskID, Message: Explain(err)}
			return
		}

		ch <- Event{Type: EventRetryStart, TaskID: taskID}

		generated, _ := o.tasks.Snapshot(taskID)
		missing := make([]entity.OutlinePage, 0, len(task.Pages))
		for _, p := range task.Pages {
			if _, ok := generated[p.Index]; !ok {
				missing = append(missing, p)
			}
		}
		if len(missing) == 0 {
			o.finish(ctx, task, ch, EventRetryFinish)
			return
		}

		coverIdx := entity.CoverIndex(task.Pages)
		var ref []byte
		if task.UseReference {
			ref = o.resolveReference(ctx, task)
		}

		for _, page := range missing {
			if page.Index == task.Pages[coverIdx].Index {
				if fresh := o.generateCover(ctx, gen, task, page, ch); fresh != nil && task.UseReference {
					ref = fresh
				}
				continue
			}
			o.generateOne(ctx, gen, task, page, ref, ch)
		}

		o.finish(ctx, task, ch, EventRetryFinish)
	}()
	return ch
}

// rebuildTask 从历史记录重建任务输入，内存上下文缺失时以持久化状态补齐
func (o *Orchestrator) rebuildTask(ctx context.Context, taskID string) (Task, error) {
	record, err := o.history.FindByTaskID(ctx, taskID)
	if err != nil {
		if errors.AsAppError(err).Code == errors.CodeRecordNotFound {
			return Task{}, errors.New(errors.CodeTaskNotFound,
				fmt.Sprintf("task %s has no associated record", taskID))
		}
		return Task{}, err
	}

	task := Task{
		TaskID:       taskID,
		RecordID:     record.ID,
		Topic:        record.Title,
		Outline:      record.Outline.Outline,
		Pages:        record.Outline.Pages,
		UseReference: record.Outline.UsedReference,
	}
	o.tasks.SetContext(taskID, task.Topic, task.Outline)

	// 重启后内存状态丢失，用记录中的文件列表恢复已生成页
	generated, _ := o.tasks.Snapshot(taskID)
	for i, f := range record.Images.Files {
		if f == "" {
			continue
		}
		if _, ok := generated[i]; !ok {
			o.tasks.MarkGenerated(taskID, i, f)
		}
	}
	return task, nil
}

// resolveReference 解析封面参考图
// 优先取内存缓存，其次从磁盘读封面原图并压缩，两者都缺则不带参考
func (o *Orchestrator) resolveReference(ctx context.Context, task Task) []byte {
	if ref, ok := o.tasks.Cover(task.TaskID); ok {
		return ref
	}

	coverIdx := entity.CoverIndex(task.Pages)
	data, err := o.images.Load(ctx, task.TaskID, task.Pages[coverIdx].Index, false)
	if err != nil {
		logger.Debug(ctx, "no cover image on disk for reference", "task_id", task.TaskID)
		return nil
	}
	ref, err := imageutil.CompressJPEG(data, o.opts.ReferenceBudget)
	if err != nil {
		logger.Warn(ctx, "failed to compress cover reference from disk", "error", err)
		return nil
	}
	o.tasks.SetCover(task.TaskID, ref)
	return ref
}

// refreshCoverReference 封面重生成后更新缓存的参考图
func (o *Orchestrator) refreshCoverReference(ctx context.Context, task Task) {
	coverIdx := entity.CoverIndex(task.Pages)
	data, err := o.images.Load(ctx, task.TaskID, task.Pages[coverIdx].Index, false)
	if err != nil {
		return
	}
	if ref, err := imageutil.CompressJPEG(data, o.opts.ReferenceBudget); err == nil {
		o.tasks.SetCover(task.TaskID, ref)
	}
}

func findPage(pages []entity.OutlinePage, index int) (entity.OutlinePage, bool) {
	for _, p := range pages {
		if p.Index == index {
			return p, true
		}
	}
	return entity.OutlinePage{}, false
}
