// Package errors 提供统一的错误定义
package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
)

// ErrorCode 错误码类型
type ErrorCode string

// 预定义错误码
const (
	// 通用错误 (1xxx)
	CodeSuccess            ErrorCode = "0"
	CodeUnknown            ErrorCode = "1000"
	CodeInvalidParam       ErrorCode = "1001"
	CodeNotFound           ErrorCode = "1004"
	CodeTooManyRequests    ErrorCode = "1006"
	CodeInternalError      ErrorCode = "1007"
	CodeServiceUnavailable ErrorCode = "1008"

	// 提供商错误 (2xxx)
	CodeProviderConfig        ErrorCode = "2001"
	CodeProviderAuth          ErrorCode = "2002"
	CodeProviderRateLimit     ErrorCode = "2003"
	CodeProviderSafety        ErrorCode = "2004"
	CodeProviderMalformed     ErrorCode = "2005"
	CodeProviderStreamTimeout ErrorCode = "2006"
	CodeProviderNotFound      ErrorCode = "2007"

	// 资源错误 (3xxx)
	CodeRecordNotFound ErrorCode = "3001"
	CodeTaskNotFound   ErrorCode = "3002"
	CodeImageNotFound  ErrorCode = "3003"

	// 业务错误 (4xxx)
	CodeOutlineEmpty     ErrorCode = "4001"
	CodeGenerationFailed ErrorCode = "4002"
	CodeExportFailed     ErrorCode = "4003"

	// 存储错误 (5xxx)
	CodeStorageError     ErrorCode = "5001"
	CodeConfigStoreError ErrorCode = "5002"
)

// AppError 应用错误
type AppError struct {
	Code       ErrorCode `json:"code"`
	Message    string    `json:"message"`
	Detail     string    `json:"detail,omitempty"`
	HTTPStatus int       `json:"-"`
	Err        error     `json:"-"`
}

// Error 实现 error 接口
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap 返回底层错误
func (e *AppError) Unwrap() error {
	return e.Err
}

// WithDetail 添加详细信息
func (e *AppError) WithDetail(detail string) *AppError {
	e.Detail = detail
	return e
}

// WithError 添加底层错误
func (e *AppError) WithError(err error) *AppError {
	e.Err = err
	return e
}

// New 创建新的应用错误
func New(code ErrorCode, message string) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: codeToHTTPStatus(code),
	}
}

// Wrap 包装错误
func Wrap(err error, code ErrorCode, message string) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: codeToHTTPStatus(code),
		Err:        err,
	}
}

// codeToHTTPStatus 错误码转 HTTP 状态码
func codeToHTTPStatus(code ErrorCode) int {
	switch code {
	case CodeSuccess:
		return http.StatusOK
	case CodeInvalidParam, CodeOutlineEmpty:
		return http.StatusBadRequest
	case CodeProviderAuth:
		return http.StatusUnauthorized
	case CodeNotFound, CodeRecordNotFound, CodeTaskNotFound, CodeImageNotFound, CodeProviderNotFound:
		return http.StatusNotFound
	case CodeTooManyRequests, CodeProviderRateLimit:
		return http.StatusTooManyRequests
	case CodeProviderConfig:
		return http.StatusUnprocessableEntity
	case CodeServiceUnavailable:
		return http.StatusServiceUnavailable
	case CodeProviderStreamTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// 预定义错误
var (
	ErrInvalidParam       = New(CodeInvalidParam, "invalid parameter")
	ErrNotFound           = New(CodeNotFound, "resource not found")
	ErrTooManyRequests    = New(CodeTooManyRequests, "too many requests")
	ErrInternalError      = New(CodeInternalError, "internal server error")
	ErrServiceUnavailable = New(CodeServiceUnavailable, "service unavailable")

	ErrRecordNotFound = New(CodeRecordNotFound, "history record not found")
	ErrTaskNotFound   = New(CodeTaskNotFound, "generation task not found")
	ErrImageNotFound  = New(CodeImageNotFound, "image not found")

	ErrOutlineEmpty     = New(CodeOutlineEmpty, "outline produced no pages")
	ErrGenerationFailed = New(CodeGenerationFailed, "image generation failed")
)

// AsAppError 将错误转换为 AppError，沿错误链查找
func AsAppError(err error) *AppError {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr
	}
	return Wrap(err, CodeUnknown, "unknown error")
}
