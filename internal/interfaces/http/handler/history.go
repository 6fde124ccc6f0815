package handler

import (
	"fmt"
	"strconv"

	"github.com/gin-gonic/gin"

	"ai-picbook-api/internal/application/export"
	"ai-picbook-api/internal/domain/entity"
	"ai-picbook-api/internal/domain/repository"
	"ai-picbook-api/internal/interfaces/http/dto"
	"ai-picbook-api/pkg/logger"
)

// HistoryHandler 历史记录处理器
type HistoryHandler struct {
	repo     repository.HistoryRepository
	exporter *export.Service
}

// NewHistoryHandler 创建历史记录处理器
func NewHistoryHandler(repo repository.HistoryRepository, exporter *export.Service) *HistoryHandler {
	return &HistoryHandler{repo: repo, exporter: exporter}
}

// List 分页列出历史记录
// @Summary 历史记录列表
// @Tags History
// @Produce json
// @Param page query int false "页码"
// @Param page_size query int false "每页条数"
// @Success 200 {object} dto.Response[[]dto.HistoryItem]
// @Router /v1/history [get]
func (h *HistoryHandler) List(c *gin.Context) {
	entries, err := h.repo.List(c.Request.Context())
	if err != nil {
		dto.Fail(c, err)
		return
	}

	page, pageSize := pageParams(c)
	total := len(entries)
	start := (page - 1) * pageSize
	if start > total {
		start = total
	}
	end := start + pageSize
	if end > total {
		end = total
	}

	items := make([]dto.HistoryItem, 0, end-start)
	for _, e := range entries[start:end] {
		items = append(items, dto.FromIndexEntry(e))
	}
	dto.SuccessWithPage(c, items, dto.NewPageMeta(page, pageSize, total))
}

// Create 保存历史记录
// @Summary 保存历史记录
// @Tags History
// @Accept json
// @Produce json
// @Param request body dto.SaveHistoryRequest true "保存请求"
// @Success 201 {object} dto.Response[dto.HistoryDetail]
// @Router /v1/history [post]
func (h *HistoryHandler) Create(c *gin.Context) {
	var req dto.SaveHistoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	if req.TaskID != "" && !entity.ValidTaskID(req.TaskID) {
		dto.BadRequest(c, "task_id may only contain letters, digits, '-' and '_'")
		return
	}

	pages := dto.ToOutlinePages(req.Pages)
	record := &entity.HistoryRecord{
		Title: req.Title,
		Outline: entity.OutlineResult{
			Outline:       req.Outline,
			Pages:         pages,
			UsedReference: req.UseReference,
		},
		Images: entity.ImageSet{
			TaskID: req.TaskID,
			Files:  make([]string, len(pages)),
		},
	}

	if err := h.repo.Create(c.Request.Context(), record); err != nil {
		dto.Fail(c, err)
		return
	}
	dto.Created(c, dto.FromRecord(record))
}

// Get 获取历史记录详情
// @Summary 历史记录详情
// @Tags History
// @Produce json
// @Param id path string true "记录 ID"
// @Success 200 {object} dto.Response[dto.HistoryDetail]
// @Failure 404 {object} dto.ErrorResponse
// @Router /v1/history/{id} [get]
func (h *HistoryHandler) Get(c *gin.Context) {
	record, err := h.repo.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		dto.Fail(c, err)
		return
	}
	dto.Success(c, dto.FromRecord(record))
}

// Update 更新历史记录
// @Summary 更新历史记录
// @Tags History
// @Accept json
// @Produce json
// @Param id path string true "记录 ID"
// @Param request body dto.UpdateHistoryRequest true "更新请求"
// @Success 200 {object} dto.Response[dto.HistoryDetail]
// @Router /v1/history/{id} [put]
func (h *HistoryHandler) Update(c *gin.Context) {
	var req dto.UpdateHistoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.BadRequest(c, "invalid request: "+err.Error())
		return
	}

	ctx := c.Request.Context()
	record, err := h.repo.GetByID(ctx, c.Param("id"))
	if err != nil {
		dto.Fail(c, err)
		return
	}

	if req.Title != "" {
		record.Title = req.Title
	}
	if err := h.repo.Update(ctx, record); err != nil {
		dto.Fail(c, err)
		return
	}
	dto.Success(c, dto.FromRecord(record))
}

// Delete 删除历史记录及其任务图片目录
// @Summary 删除历史记录
// @Tags History
// @Param id path string true "记录 ID"
// @Success 204
// @Router /v1/history/{id} [delete]
func (h *HistoryHandler) Delete(c *gin.Context) {
	if err := h.repo.Delete(c.Request.Context(), c.Param("id")); err != nil {
		dto.Fail(c, err)
		return
	}
	dto.NoContent(c)
}

// Search 按标题关键字搜索
// @Summary 搜索历史记录
// @Tags History
// @Produce json
// @Param q query string true "关键字"
// @Success 200 {object} dto.Response[[]dto.HistoryItem]
// @Router /v1/history/search [get]
func (h *HistoryHandler) Search(c *gin.Context) {
	keyword := c.Query("q")
	if keyword == "" {
		dto.BadRequest(c, "query parameter q is required")
		return
	}

	entries, err := h.repo.Search(c.Request.Context(), keyword)
	if err != nil {
		dto.Fail(c, err)
		return
	}

	items := make([]dto.HistoryItem, 0, len(entries))
	for _, e := range entries {
		items = append(items, dto.FromIndexEntry(e))
	}
	dto.Success(c, items)
}

// Scan 巡检任务目录并修复记录漂移
// @Summary 巡检任务目录
// @Tags History
// @Produce json
// @Success 200 {object} dto.Response[entity.ScanReport]
// @Router /v1/history/scan [post]
func (h *HistoryHandler) Scan(c *gin.Context) {
	report, err := h.repo.ScanTasks(c.Request.Context())
	if err != nil {
		dto.Fail(c, err)
		return
	}
	dto.Success(c, report)
}

// Export 导出记录的图片与大纲为 ZIP
// @Summary 导出历史记录
// @Tags History
// @Produce application/zip
// @Param id path string true "记录 ID"
// @Success 200 "ZIP archive"
// @Failure 404 {object} dto.ErrorResponse
// @Router /v1/history/{id}/export [get]
func (h *HistoryHandler) Export(c *gin.Context) {
	ctx := c.Request.Context()
	id := c.Param("id")

	// 先确认记录存在再开始写响应体
	record, err := h.repo.GetByID(ctx, id)
	if err != nil {
		dto.Fail(c, err)
		return
	}

	name := record.Title
	if name == "" {
		name = record.ID
	}
	c.Header("Content-Type", "application/zip")
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s.zip"`, name))

	if _, err := h.exporter.Archive(ctx, id, c.Writer); err != nil {
		// 响应头已写出，只能记录日志并中断传输
		logger.Error(ctx, "export failed mid-stream", err, "record_id", id)
		c.Abort()
	}
}

func pageParams(c *gin.Context) (page, pageSize int) {
	page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	if page < 1 {
		page = 1
	}
	pageSize, _ = strconv.Atoi(c.DefaultQuery("page_size", "20"))
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}
	return page, pageSize
}
