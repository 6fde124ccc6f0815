// Package provider 提供文本与图像生成提供商客户端
package provider

import (
	stderrors "errors"
	"net/http"
	"strings"

	"github.com/openai/openai-go"

	"ai-picbook-api/pkg/errors"
)

// statusOf 提取提供商错误携带的 HTTP 状态码，无法提取时返回 0
// 优先使用 SDK 的结构化错误，消息子串匹配仅作兜底（尽力而为，不是契约）
func statusOf(err error) int {
	var apiErr *openai.Error
	if stderrors.As(err, &apiErr) {
		return apiErr.StatusCode
	}

	msg := err.Error()
	switch {
	case strings.Contains(msg, "401"):
		return http.StatusUnauthorized
	case strings.Contains(msg, "429"):
		return http.StatusTooManyRequests
	case strings.Contains(msg, "404"):
		return http.StatusNotFound
	}
	return 0
}

// IsRateLimited 判断错误是否为限流
func IsRateLimited(err error) bool {
	if err == nil {
		return false
	}
	if statusOf(err) == http.StatusTooManyRequests {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "rate limit") || strings.Contains(msg, "too many requests")
}

// Explain 将提供商错误翻译为带原因与修复建议的应用错误
func Explain(err error) *errors.AppError {
	if err == nil {
		return nil
	}
	if appErr, ok := err.(*errors.AppError); ok {
		return appErr
	}

	msg := strings.ToLower(err.Error())
	switch {
	case statusOf(err) == http.StatusUnauthorized || strings.Contains(msg, "invalid api key") || strings.Contains(msg, "unauthorized"):
		return errors.Wrap(err, errors.CodeProviderAuth, "provider rejected credentials").
			WithDetail("检查 API Key 是否有效，或在配置接口中重新填写密钥")
	case IsRateLimited(err):
		return errors.Wrap(err, errors.CodeProviderRateLimit, "provider rate limit reached").
			WithDetail("请求频率超过限额，稍后重试或降低并发")
	case statusOf(err) == http.StatusNotFound || strings.Contains(msg, "model not found") || strings.Contains(msg, "does not exist"):
		return errors.Wrap(err, errors.CodeProviderNotFound, "provider model or endpoint not found").
			WithDetail("检查模型名称与接口地址是否匹配当前提供商")
	case strings.Contains(msg, "safety") || strings.Contains(msg, "content_policy") || strings.Contains(msg, "content policy"):
		return errors.Wrap(err, errors.CodeProviderSafety, "prompt blocked by safety filter").
			WithDetail("提示词触发内容安全策略，调整描述后重试")
	default:
		return errors.Wrap(err, errors.CodeGenerationFailed, "provider call failed").
			WithDetail("提供商返回未知错误，查看日志中的原始错误信息")
	}
}
