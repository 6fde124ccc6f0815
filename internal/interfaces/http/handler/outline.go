// Package handler 提供 HTTP 请求处理器
package handler

import (
	"github.com/gin-gonic/gin"

	"ai-picbook-api/internal/application/outline"
	"ai-picbook-api/internal/infrastructure/provider"
	"ai-picbook-api/internal/interfaces/http/dto"
	"ai-picbook-api/pkg/logger"
)

// OutlineHandler 大纲生成处理器
type OutlineHandler struct {
	factory *provider.Factory
}

// NewOutlineHandler 创建大纲生成处理器
func NewOutlineHandler(factory *provider.Factory) *OutlineHandler {
	return &OutlineHandler{factory: factory}
}

// Generate 生成大纲
// @Summary 生成绘本大纲
// @Description 按主题调用文本提供商生成分页大纲
// @Tags Outline
// @Accept json
// @Produce json
// @Param request body dto.OutlineRequest true "大纲请求"
// @Success 200 {object} dto.Response[dto.OutlineResponse]
// @Failure 400 {object} dto.ErrorResponse
// @Router /v1/outline [post]
func (h *OutlineHandler) Generate(c *gin.Context) {
	var req dto.OutlineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.BadRequest(c, "invalid request: "+err.Error())
		return
	}

	ctx := c.Request.Context()
	text, name, err := h.factory.Text(ctx, req.Provider)
	if err != nil {
		dto.Fail(c, err)
		return
	}

	result, err := outline.NewService(text).Generate(ctx, req.Topic, req.PageCount, req.UseReference)
	if err != nil {
		logger.Warn(ctx, "outline generation failed", "provider", name, "error", err)
		dto.Fail(c, err)
		return
	}

	dto.Success(c, dto.FromOutlineResult(result))
}
