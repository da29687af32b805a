// Package errors 提供统一的错误处理框架
package errors

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/paichan/paichan/pkg/model"
)

// Code 错误码
type Code string

const (
	// 通用错误码
	CodeUnknown      Code = "UNKNOWN"
	CodeInternal     Code = "INTERNAL_ERROR"
	CodeInvalidInput Code = "INVALID_INPUT"
	CodeNotFound     Code = "NOT_FOUND"
	CodeRateLimited  Code = "RATE_LIMITED"

	// 规划引擎相关
	CodeInsufficientData     Code = "INSUFFICIENT_DATA"     // 历史数据为空
	CodeCapacityExceeded     Code = "CAPACITY_EXCEEDED"     // 需求超出原始产能
	CodeSchedulingInfeasible Code = "SCHEDULING_INFEASIBLE" // 产能足够但受约束挤占无法排入
	CodeInvalidHorizon       Code = "INVALID_HORIZON"       // 规划周期无效

	// 数据相关
	CodeDatabaseError  Code = "DATABASE_ERROR"
	CodeValidationFail Code = "VALIDATION_FAILED"
)

// AppError 应用错误
type AppError struct {
	Code       Code                   `json:"code"`
	Message    string                 `json:"message"`
	Details    string                 `json:"details,omitempty"`
	HTTPStatus int                    `json:"-"`
	Cause      error                  `json:"-"`
	Fields     map[string]interface{} `json:"fields,omitempty"`
}

// Error 实现 error 接口
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap 返回底层错误
func (e *AppError) Unwrap() error {
	return e.Cause
}

// WithDetails 添加详细信息
func (e *AppError) WithDetails(details string) *AppError {
	e.Details = details
	return e
}

// WithCause 添加原因
func (e *AppError) WithCause(cause error) *AppError {
	e.Cause = cause
	return e
}

// WithField 添加字段
func (e *AppError) WithField(key string, value interface{}) *AppError {
	if e.Fields == nil {
		e.Fields = make(map[string]interface{})
	}
	e.Fields[key] = value
	return e
}

// New 创建新错误
func New(code Code, message string) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: codeToHTTPStatus(code),
	}
}

// Wrap 包装错误
func Wrap(err error, code Code, message string) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: codeToHTTPStatus(code),
		Cause:      err,
	}
}

// codeToHTTPStatus 错误码转HTTP状态码
func codeToHTTPStatus(code Code) int {
	switch code {
	case CodeInvalidInput, CodeValidationFail, CodeInvalidHorizon, CodeInsufficientData:
		return http.StatusBadRequest
	case CodeNotFound:
		return http.StatusNotFound
	case CodeRateLimited:
		return http.StatusTooManyRequests
	case CodeCapacityExceeded, CodeSchedulingInfeasible:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// Is 检查错误是否为特定类型
func Is(err error, code Code) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code == code
	}
	return false
}

// GetCode 获取错误码
func GetCode(err error) Code {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return CodeUnknown
}

// GetHTTPStatus 获取HTTP状态码
func GetHTTPStatus(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.HTTPStatus
	}
	return http.StatusInternalServerError
}

// InvalidInput 创建输入无效错误
func InvalidInput(field, reason string) *AppError {
	return New(CodeInvalidInput, fmt.Sprintf("字段 '%s' 无效: %s", field, reason)).
		WithField("field", field)
}

// InsufficientData 创建历史数据不足错误
func InsufficientData(reason string) *AppError {
	return New(CodeInsufficientData, fmt.Sprintf("历史数据不足: %s", reason))
}

// CapacityExceeded 创建产能超限错误
// 携带具体截止日与缺口，供调用方生成可操作提示
func CapacityExceeded(deadline model.Weekday, required, available float64) *AppError {
	return New(CodeCapacityExceeded,
		fmt.Sprintf("截止 %s 的需求 %.1f 小时超出可用产能 %.1f 小时，缺口 %.1f 小时",
			deadline, required, available, required-available)).
		WithField("deadline", string(deadline)).
		WithField("required_hours", required).
		WithField("available_hours", available).
		WithField("shortfall_hours", required-available)
}

// SchedulingInfeasible 创建排产不可行错误
// 产能校验通过但因人力密集/空闲产线约束无法排入时使用
func SchedulingInfeasible(product string, remaining float64, deadline model.Weekday) *AppError {
	return New(CodeSchedulingInfeasible,
		fmt.Sprintf("产品 '%s' 有 %.1f 小时无法在截止日 %s 前排入", product, remaining, deadline)).
		WithField("product", product).
		WithField("unplaced_hours", remaining).
		WithField("deadline", string(deadline))
}
