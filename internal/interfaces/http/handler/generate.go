package handler

import (
	"context"
	"io"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"ai-picbook-api/internal/application/generation"
	"ai-picbook-api/internal/domain/entity"
	"ai-picbook-api/internal/infrastructure/provider"
	"ai-picbook-api/internal/interfaces/http/dto"
	"ai-picbook-api/pkg/logger"
)

// GenerateHandler 图像生成处理器，事件通过 SSE 推送
type GenerateHandler struct {
	factory *provider.Factory
	orch    *generation.Orchestrator
}

// NewGenerateHandler 创建图像生成处理器
func NewGenerateHandler(factory *provider.Factory, orch *generation.Orchestrator) *GenerateHandler {
	return &GenerateHandler{factory: factory, orch: orch}
}

// Generate 启动整本生成并流式推送进度
// @Summary 生成绘本图像
// @Description 按大纲逐页生成图像，通过 SSE 推送进度事件
// @Tags Generation
// @Accept json
// @Produce text/event-stream
// @Param request body dto.GenerateRequest true "生成请求"
// @Success 200 "SSE stream"
// @Failure 400 {object} dto.ErrorResponse
// @Router /v1/generate [post]
func (h *GenerateHandler) Generate(c *gin.Context) {
	var req dto.GenerateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.BadRequest(c, "invalid request: "+err.Error())
		return
	}

	taskID := req.TaskID
	if taskID == "" {
		taskID = uuid.New().String()
	} else if !entity.ValidTaskID(taskID) {
		dto.BadRequest(c, "task_id may only contain letters, digits, '-' and '_'")
		return
	}

	ctx := c.Request.Context()
	gen, provName, err := h.factory.Image(ctx, req.Provider)
	if err != nil {
		dto.Fail(c, err)
		return
	}

	task := generation.Task{
		TaskID:          taskID,
		RecordID:        req.RecordID,
		Topic:           req.Topic,
		Outline:         req.Outline,
		Pages:           dto.ToOutlinePages(req.Pages),
		UseReference:    req.UseReference,
		HighConcurrency: req.HighConcurrency,
		AspectRatio:     req.AspectRatio,
		Provider:        provName,
	}

	// 客户端断开不中止在途的提供商调用
	events := h.orch.Run(context.WithoutCancel(ctx), gen, task)
	streamEvents(c, taskID, events)
}

// RetryPage 重试单页并流式推送进度
// @Summary 重试单页生成
// @Tags Generation
// @Accept json
// @Produce text/event-stream
// @Param taskID path string true "任务 ID"
// @Param request body dto.RetryRequest true "重试请求"
// @Success 200 "SSE stream"
// @Router /v1/tasks/{taskID}/retry [post]
func (h *GenerateHandler) RetryPage(c *gin.Context) {
	taskID := c.Param("taskID")
	if !entity.ValidTaskID(taskID) {
		dto.BadRequest(c, "invalid task id")
		return
	}
	var req dto.RetryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.BadRequest(c, "invalid request: "+err.Error())
		return
	}

	ctx := c.Request.Context()
	gen, _, err := h.factory.Image(ctx, req.Provider)
	if err != nil {
		dto.Fail(c, err)
		return
	}

	events := h.orch.RetryPage(context.WithoutCancel(ctx), gen, taskID, req.PageIndex, req.Force)
	streamEvents(c, taskID, events)
}

// RetryFailed 批量重试失败页并流式推送进度
// @Summary 批量重试失败页
// @Tags Generation
// @Produce text/event-stream
// @Param taskID path string true "任务 ID"
// @Success 200 "SSE stream"
// @Router /v1/tasks/{taskID}/retry-failed [post]
func (h *GenerateHandler) RetryFailed(c *gin.Context) {
	taskID := c.Param("taskID")
	if !entity.ValidTaskID(taskID) {
		dto.BadRequest(c, "invalid task id")
		return
	}
	var req dto.RetryFailedRequest
	// 请求体可选
	_ = c.ShouldBindJSON(&req)

	ctx := c.Request.Context()
	gen, _, err := h.factory.Image(ctx, req.Provider)
	if err != nil {
		dto.Fail(c, err)
		return
	}

	events := h.orch.RetryFailed(context.WithoutCancel(ctx), gen, taskID)
	streamEvents(c, taskID, events)
}

// streamEvents 把事件通道转发为 SSE 流
// 客户端断开后转入后台排空，保证生成协程不被通道发送阻塞
func streamEvents(c *gin.Context, taskID string, events <-chan generation.Event) {
	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	c.SSEvent("task", gin.H{"task_id": taskID})

	c.Stream(func(w io.Writer) bool {
		select {
		case ev, ok := <-events:
			if !ok {
				return false
			}
			c.SSEvent(string(ev.Type), ev)
			return true

		case <-c.Request.Context().Done():
			logger.Debug(c.Request.Context(), "sse client disconnected",
				"task_id", taskID, "buffered", len(events))
			go drainEvents(events)
			return false
		}
	})
}

func drainEvents(events <-chan generation.Event) {
	for range events {
	}
}
