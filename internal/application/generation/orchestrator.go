package generation

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/cenkalti/backoff/v4"
	"golang.org/x/sync/errgroup"

	"ai-picbook-api/internal/application/imageutil"
	"ai-picbook-api/internal/domain/entity"
	"ai-picbook-api/internal/domain/repository"
	"ai-picbook-api/pkg/errors"
	"ai-picbook-api/pkg/logger"
	"ai-picbook-api/pkg/metrics"
)

// Options 编排器行为配置
type Options struct {
	// MaxAttempts 单页生成的尝试上限
	MaxAttempts uint64
	// InitialBackoff 重试退避起始间隔
	InitialBackoff time.Duration
	// MaxBackoff 重试退避间隔上限
	MaxBackoff time.Duration
	// HighConcurrency 为真时内容页整批并发提交，完成顺序不保证
	HighConcurrency bool
	// ReferenceBudget 封面参考图的压缩字节预算
	ReferenceBudget int
}

// Task 一次生成任务的输入
type Task struct {
	TaskID   string
	RecordID string
	Topic    string
	Outline  string
	Pages    []entity.OutlinePage
	// UseReference 为真时内容页携带封面参考图
	UseReference bool
	// HighConcurrency 为真时本次任务的内容页并发生成
	HighConcurrency bool
	AspectRatio     string
	// Provider 指标标签用的提供商名
	Provider string
}

// Orchestrator 驱动一次任务的整本图像生成
// 封面严格先于内容页生成；每页成功后立即落盘并尽力回写历史记录，
// 任务中途崩溃只会留下部分但一致的持久化进度
type Orchestrator struct {
	images  repository.ImageStore
	history repository.HistoryRepository
	tasks   *TaskStore
	opts    Options
}

// NewOrchestrator 创建图像生成编排器
func NewOrchestrator(images repository.ImageStore, history repository.HistoryRepository, tasks *TaskStore, opts Options) *Orchestrator {
	if opts.MaxAttempts == 0 {
		opts.MaxAttempts = 3
	}
	if opts.InitialBackoff <= 0 {
		opts.InitialBackoff = 2 * time.Second
	}
	if opts.MaxBackoff <= 0 {
		opts.MaxBackoff = 30 * time.Second
	}
	return &Orchestrator{images: images, history: history, tasks: tasks, opts: opts}
}

// Run 启动生成流水线，返回有序事件通道
// 通道在 finish 事件之后关闭；单页失败不会中止整个任务
func (o *Orchestrator) Run(ctx context.Context, gen repository.ImageGenerator, task Task) <-chan Event {
	ch := make(chan Event, 16)
	go func() {
		defer close(ch)
		o.run(ctx, gen, task, ch)
	}()
	return ch
}

func (o *Orchestrator) run(ctx context.Context, gen repository.ImageGenerator, task Task, ch chan<- Event) {
	metrics.TasksActive.Inc()
	defer metrics.TasksActive.Dec()

	ctx = logger.WithContext(ctx, logger.TaskIDKey, task.TaskID)
	o.tasks.SetContext(task.TaskID, task.Topic, task.Outline)

	if len(task.Pages) == 0 {
		ch <- Event{Type: EventFinish, TaskID: task.TaskID, Status: entity.StatusDraft,
			FailedIndices: []int{}, Message: "no pages to generate"}
		return
	}

	// 封面先行：产出的参考图用于约束后续页面的画风
	coverIdx := entity.CoverIndex(task.Pages)
	cover := task.Pages[coverIdx]
	ref := o.generateCover(ctx, gen, task, cover, ch)
	if !task.UseReference {
		ref = nil
	}

	rest := make([]entity.OutlinePage, 0, len(task.Pages)-1)
	for i, p := range task.Pages {
		if i != coverIdx {
			rest = append(rest, p)
		}
	}

	if task.HighConcurrency || o.opts.HighConcurrency {
		// 整批并发提交，没有额外的并发上限，这是接受的简化
		g, gctx := errgroup.WithContext(ctx)
		for _, page := range rest {
			g.Go(func() error {
				o.generateOne(gctx, gen, task, page, ref, ch)
				return nil
			})
		}
		_ = g.Wait()
	} else {
		for _, page := range rest {
			o.generateOne(ctx, gen, task, page, ref, ch)
		}
	}

	o.finish(ctx, task, ch, EventFinish)
}

// generateCover 生成封面并返回压缩后的参考图，失败不中止流水线
func (o *Orchestrator) generateCover(ctx context.Context, gen repository.ImageGenerator, task Task, cover entity.OutlinePage, ch chan<- Event) []byte {
	ch <- progressEvent(task.TaskID, cover)

	data, err := o.generatePage(ctx, gen, task, cover, nil)
	if err != nil {
		o.tasks.MarkFailed(task.TaskID, cover.Index, err.Error())
		ch <- errorEvent(task.TaskID, cover, Explain(err))
		logger.Warn(ctx, "cover generation failed, continuing without style reference",
			"index", cover.Index, "error", err)
		return nil
	}

	file, err := o.persistPage(ctx, task, cover, data)
	if err != nil {
		o.tasks.MarkFailed(task.TaskID, cover.Index, err.Error())
		ch <- errorEvent(task.TaskID, cover, err.Error())
		return nil
	}
	ch <- completeEvent(task.TaskID, cover, file)

	ref, err := imageutil.CompressJPEG(data, o.opts.ReferenceBudget)
	if err != nil {
		logger.Warn(ctx, "failed to compress cover reference", "error", err)
		return nil
	}
	o.tasks.SetCover(task.TaskID, ref)
	return ref
}

// generateOne 生成单个内容页：progress 先行，complete/error 随后
func (o *Orchestrator) generateOne(ctx context.Context, gen repository.ImageGenerator, task Task, page entity.OutlinePage, ref []byte, ch chan<- Event) {
	ch <- progressEvent(task.TaskID, page)

	data, err := o.generatePage(ctx, gen, task, page, ref)
	if err != nil {
		o.tasks.MarkFailed(task.TaskID, page.Index, err.Error())
		ch <- errorEvent(task.TaskID, page, Explain(err))
		return
	}

	file, err := o.persistPage(ctx, task, page, data)
	if err != nil {
		o.tasks.MarkFailed(task.TaskID, page.Index, err.Error())
		ch <- errorEvent(task.TaskID, page, err.Error())
		return
	}
	ch <- completeEvent(task.TaskID, page, file)
}

// generatePage 带退避重试的单页生成
// 配置/凭证/安全过滤类错误不可重试，立即终止该页
func (o *Orchestrator) generatePage(ctx context.Context, gen repository.ImageGenerator, task Task, page entity.OutlinePage, ref []byte) ([]byte, error) {
	req := repository.ImageRequest{
		Prompt:      pagePrompt(task, page),
		AspectRatio: task.AspectRatio,
	}
	if len(ref) > 0 {
		req.References = [][]byte{ref}
	}

	expo := backoff.NewExponentialBackOff()
	expo.InitialInterval = o.opts.InitialBackoff
	expo.MaxInterval = o.opts.MaxBackoff
	b := backoff.WithContext(backoff.WithMaxRetries(expo, o.opts.MaxAttempts-1), ctx)

	start := time.Now()
	result, err := backoff.RetryWithData(func() (*repository.ImageResult, error) {
		res, genErr := gen.Generate(ctx, req)
		if genErr != nil {
			if !retryable(genErr) {
				return nil, backoff.Permanent(genErr)
			}
			logger.Warn(ctx, "page generation attempt failed, will retry",
				"index", page.Index, "error", genErr)
			return nil, genErr
		}
		return res, nil
	}, b)

	provider := task.Provider
	if provider == "" {
		provider = "default"
	}
	if err != nil {
		metrics.ImageGenerationTotal.WithLabelValues(provider, "error").Inc()
		return nil, err
	}
	metrics.ImageGenerationTotal.WithLabelValues(provider, "ok").Inc()
	metrics.ImageGenerationDuration.WithLabelValues(provider).Observe(time.Since(start).Seconds())
	return result.Data, nil
}

// persistPage 落盘并尽力回写历史记录
func (o *Orchestrator) persistPage(ctx context.Context, task Task, page entity.OutlinePage, data []byte) (string, error) {
	file, err := o.images.Save(ctx, task.TaskID, page.Index, data)
	if err != nil {
		return "", err
	}
	o.tasks.MarkGenerated(task.TaskID, page.Index, file)
	o.patchRecord(ctx, task, entity.StatusGenerating)
	return file, nil
}

// finish 汇总并发出终止事件
func (o *Orchestrator) finish(ctx context.Context, task Task, ch chan<- Event, terminal EventType) {
	generated, failed := o.tasks.Snapshot(task.TaskID)

	completed := 0
	failedIndices := []int{}
	for _, p := range task.Pages {
		if _, ok := generated[p.Index]; ok {
			completed++
		} else if _, ok := failed[p.Index]; ok {
			failedIndices = append(failedIndices, p.Index)
		} else {
			failedIndices = append(failedIndices, p.Index)
		}
	}
	sort.Ints(failedIndices)

	status := entity.DeriveStatus(completed, len(task.Pages))
	o.patchRecord(ctx, task, status)

	logger.Info(ctx, "generation task finished",
		"completed", completed, "failed", len(failedIndices), "status", string(status))

	ch <- Event{
		Type:          terminal,
		TaskID:        task.TaskID,
		Completed:     completed,
		Failed:        len(failedIndices),
		FailedIndices: failedIndices,
		Status:        status,
	}
}

// patchRecord 尽力把当前进度写入关联的历史记录
// 回写失败只告警：持久化进度是尽力而为，事件流才是权威进度源
func (o *Orchestrator) patchRecord(ctx context.Context, task Task, status entity.RecordStatus) {
	if task.RecordID == "" {
		return
	}

	record, err := o.history.GetByID(ctx, task.RecordID)
	if err != nil {
		logger.Warn(ctx, "failed to load record for progress update",
			"record_id", task.RecordID, "error", err)
		return
	}

	generated, _ := o.tasks.Snapshot(task.TaskID)
	files := make([]string, len(task.Pages))
	for i, p := range task.Pages {
		if f, ok := generated[p.Index]; ok && p.Index < len(files) {
			files[i] = f
		}
	}

	record.Images.TaskID = task.TaskID
	record.Images.Files = files
	record.Status = status
	coverIdx := entity.CoverIndex(task.Pages)
	if _, ok := generated[task.Pages[coverIdx].Index]; ok {
		record.Thumbnail = thumbName(task.Pages[coverIdx].Index)
	}

	if err := o.history.Update(ctx, record); err != nil {
		logger.Warn(ctx, "failed to update record progress",
			"record_id", task.RecordID, "error", err)
	}
}

// retryable 判断错误是否值得在本页的重试预算内再次尝试
func retryable(err error) bool {
	appErr := errors.AsAppError(err)
	switch appErr.Code {
	case errors.CodeProviderConfig, errors.CodeProviderAuth, errors.CodeProviderSafety:
		return false
	default:
		return true
	}
}

// Explain 提取面向用户的错误信息
func Explain(err error) string {
	appErr := errors.AsAppError(err)
	if appErr.Detail != "" {
		return fmt.Sprintf("%s (%s)", appErr.Message, appErr.Detail)
	}
	return appErr.Message
}
