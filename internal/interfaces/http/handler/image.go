package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"ai-picbook-api/internal/domain/entity"
	"ai-picbook-api/internal/domain/repository"
	"ai-picbook-api/internal/interfaces/http/dto"
)

// ImageHandler 任务图片读取处理器
type ImageHandler struct {
	images repository.ImageStore
}

// NewImageHandler 创建任务图片读取处理器
func NewImageHandler(images repository.ImageStore) *ImageHandler {
	return &ImageHandler{images: images}
}

// Get 读取某页原图或缩略图
// @Summary 读取任务图片
// @Tags Images
// @Produce image/png
// @Param taskID path string true "任务 ID"
// @Param index path int true "页索引"
// @Param thumb query int false "为 1 时返回缩略图"
// @Success 200 "PNG image"
// @Failure 404 {object} dto.ErrorResponse
// @Router /v1/images/{taskID}/{index} [get]
func (h *ImageHandler) Get(c *gin.Context) {
	taskID := c.Param("taskID")
	if !entity.ValidTaskID(taskID) {
		dto.BadRequest(c, "invalid task id")
		return
	}
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil || index < 0 {
		dto.BadRequest(c, "index must be a non-negative integer")
		return
	}
	thumb := c.Query("thumb") == "1" || c.Query("thumb") == "true"

	data, err := h.images.Load(c.Request.Context(), taskID, index, thumb)
	if err != nil {
		dto.Fail(c, err)
		return
	}

	c.Header("Cache-Control", "private, max-age=86400")
	c.Data(200, "image/png", data)
}
