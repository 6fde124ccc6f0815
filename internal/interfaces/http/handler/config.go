package handler

import (
	"time"

	"github.com/gin-gonic/gin"

	"ai-picbook-api/internal/domain/repository"
	"ai-picbook-api/internal/infrastructure/persistence/file"
	"ai-picbook-api/internal/infrastructure/provider"
	"ai-picbook-api/internal/interfaces/http/dto"
	"ai-picbook-api/pkg/logger"
)

// ConfigHandler 提供商配置处理器
type ConfigHandler struct {
	store   *file.ProviderStore
	factory *provider.Factory
}

// NewConfigHandler 创建提供商配置处理器
func NewConfigHandler(store *file.ProviderStore, factory *provider.Factory) *ConfigHandler {
	return &ConfigHandler{store: store, factory: factory}
}

func validKind(kind string) bool {
	return kind == provider.KindText || kind == provider.KindImage
}

// Get 读取提供商配置，API Key 掩码返回
// @Summary 读取提供商配置
// @Tags Config
// @Produce json
// @Param kind path string true "配置类别 text|image"
// @Success 200 {object} dto.Response[dto.ProviderConfigResponse]
// @Router /v1/config/{kind} [get]
func (h *ConfigHandler) Get(c *gin.Context) {
	kind := c.Param("kind")
	if !validKind(kind) {
		dto.BadRequest(c, "kind must be text or image")
		return
	}

	doc, err := h.store.Masked(c.Request.Context(), kind)
	if err != nil {
		dto.Fail(c, err)
		return
	}
	dto.Success(c, dto.FromProviderDocument(doc))
}

// Put 写入提供商配置
// 掩码回传或留空的 API Key 保留存储中的原值
// @Summary 写入提供商配置
// @Tags Config
// @Accept json
// @Produce json
// @Param kind path string true "配置类别 text|image"
// @Param request body dto.ProviderConfigRequest true "配置文档"
// @Success 200 {object} dto.Response[dto.ProviderConfigResponse]
// @Router /v1/config/{kind} [put]
func (h *ConfigHandler) Put(c *gin.Context) {
	kind := c.Param("kind")
	if !validKind(kind) {
		dto.BadRequest(c, "kind must be text or image")
		return
	}

	var req dto.ProviderConfigRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.BadRequest(c, "invalid request: "+err.Error())
		return
	}

	merged, err := h.store.Apply(c.Request.Context(), kind, req.ToProviderDocument())
	if err != nil {
		dto.Fail(c, err)
		return
	}
	dto.Success(c, dto.FromProviderDocument(merged))
}

// Test 对指定提供商做一次最小调用验证连通性
// @Summary 测试提供商连通性
// @Tags Config
// @Accept json
// @Produce json
// @Param kind path string true "配置类别 text|image"
// @Param request body dto.ProviderTestRequest false "测试请求"
// @Success 200 {object} dto.Response[dto.ProviderTestResponse]
// @Router /v1/config/{kind}/test [post]
func (h *ConfigHandler) Test(c *gin.Context) {
	kind := c.Param("kind")
	if !validKind(kind) {
		dto.BadRequest(c, "kind must be text or image")
		return
	}

	var req dto.ProviderTestRequest
	// 请求体可选
	_ = c.ShouldBindJSON(&req)

	ctx := c.Request.Context()
	start := time.Now()

	var name string
	var err error
	switch kind {
	case provider.KindText:
		var text repository.TextGenerator
		text, name, err = h.factory.Text(ctx, req.Provider)
		if err == nil {
			_, err = text.Complete(ctx, "你是连通性测试助手。", "请回复 ok。")
		}
	case provider.KindImage:
		var gen repository.ImageGenerator
		gen, name, err = h.factory.Image(ctx, req.Provider)
		if err == nil {
			_, err = gen.Generate(ctx, repository.ImageRequest{Prompt: "一个简单的蓝色圆形图标"})
		}
	}

	resp := dto.ProviderTestResponse{
		OK:        err == nil,
		Provider:  name,
		LatencyMs: time.Since(start).Milliseconds(),
	}
	if err != nil {
		resp.Message = provider.Explain(err).Message
		logger.Warn(ctx, "provider connectivity test failed", "kind", kind, "provider", name, "error", err)
	}
	dto.Success(c, resp)
}
