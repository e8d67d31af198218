package errors

import (
	stderrors "errors"
	"fmt"
	"runtime"
	"strings"
	"time"
)

// ErrorCode 错误码类型
type ErrorCode int

// 错误码定义（按模块分组）
const (
	// 通用错误 (1000-1999)
	ErrUnknown          ErrorCode = 1000
	ErrInvalidParam     ErrorCode = 1001
	ErrNotFound         ErrorCode = 1002
	ErrConflict         ErrorCode = 1003
	ErrValidation       ErrorCode = 1004
	ErrPermissionDenied ErrorCode = 1005
	ErrTimeout          ErrorCode = 1006
	ErrNotImplemented   ErrorCode = 1007

	// 游戏错误 (2000-2999)
	ErrPlayerNotFound         ErrorCode = 2000
	ErrSessionNotFound        ErrorCode = 2001
	ErrQuestionNotFound       ErrorCode = 2002
	ErrSettingNotFound        ErrorCode = 2003
	ErrSessionInProgress      ErrorCode = 2004
	ErrNotSessionOwner        ErrorCode = 2005
	ErrSessionNotInProgress   ErrorCode = 2006
	ErrAllQuestionsCompleted  ErrorCode = 2007
	ErrQuestionAnswered       ErrorCode = 2008
	ErrInsufficientData       ErrorCode = 2009
	ErrInsufficientSourceData ErrorCode = 2010
	ErrCatalogEmpty           ErrorCode = 2011
	ErrUnsupportedMode        ErrorCode = 2012
	ErrInvalidCoordinate      ErrorCode = 2013
	ErrInvalidTimeTaken       ErrorCode = 2014
	ErrSettingConflict        ErrorCode = 2015
	ErrInvalidSetting         ErrorCode = 2016

	// 数据库错误 (5000-5999)
	ErrDatabaseConnect ErrorCode = 5000
	ErrDatabaseQuery   ErrorCode = 5001
	ErrDatabaseInsert  ErrorCode = 5002
	ErrDatabaseUpdate  ErrorCode = 5003
	ErrDatabaseDelete  ErrorCode = 5004
	ErrTransaction     ErrorCode = 5005
	ErrDataIntegrity   ErrorCode = 5006

	// 配置错误 (6000-6999)
	ErrConfigLoad     ErrorCode = 6000
	ErrConfigParse    ErrorCode = 6001
	ErrConfigValidate ErrorCode = 6002
	ErrConfigMissing  ErrorCode = 6003

	// 安全错误 (7000-7999)
	ErrAuthentication    ErrorCode = 7000
	ErrAuthorization     ErrorCode = 7001
	ErrTokenExpired      ErrorCode = 7002
	ErrTokenInvalid      ErrorCode = 7003
	ErrRateLimitExceeded ErrorCode = 7004
)

// Kind 错误类别，调用方据此决定如何处理
type Kind string

const (
	KindNotFound   Kind = "NOT_FOUND"
	KindConflict   Kind = "CONFLICT"
	KindValidation Kind = "VALIDATION"
	KindInternal   Kind = "INTERNAL"
)

// 错误码消息映射
var errorMessages = map[ErrorCode]string{
	// 通用错误
	ErrUnknown:          "未知错误",
	ErrInvalidParam:     "无效的参数",
	ErrNotFound:         "资源未找到",
	ErrConflict:         "资源状态冲突",
	ErrValidation:       "请求无法被处理",
	ErrPermissionDenied: "权限不足",
	ErrTimeout:          "操作超时",
	ErrNotImplemented:   "功能未实现",

	// 游戏错误
	ErrPlayerNotFound:         "玩家不存在",
	ErrSessionNotFound:        "游戏会话不存在",
	ErrQuestionNotFound:       "题目不存在",
	ErrSettingNotFound:        "该模式没有启用的游戏设置",
	ErrSessionInProgress:      "already has an in-progress session",
	ErrNotSessionOwner:        "not your session",
	ErrSessionNotInProgress:   "游戏会话未在进行中",
	ErrAllQuestionsCompleted:  "all questions completed",
	ErrQuestionAnswered:       "题目已作答",
	ErrInsufficientData:       "数据不足，无法开始该模式",
	ErrInsufficientSourceData: "insufficient source data",
	ErrCatalogEmpty:           "reference catalog empty",
	ErrUnsupportedMode:        "不支持的游戏模式",
	ErrInvalidCoordinate:      "无效的坐标",
	ErrInvalidTimeTaken:       "无效的作答用时",
	ErrSettingConflict:        "该模式已有启用的游戏设置",
	ErrInvalidSetting:         "无效的游戏设置",

	// 数据库错误
	ErrDatabaseConnect: "数据库连接失败",
	ErrDatabaseQuery:   "数据库查询失败",
	ErrDatabaseInsert:  "数据库插入失败",
	ErrDatabaseUpdate:  "数据库更新失败",
	ErrDatabaseDelete:  "数据库删除失败",
	ErrTransaction:     "事务处理失败",
	ErrDataIntegrity:   "数据完整性错误",

	// 配置错误
	ErrConfigLoad:     "配置加载失败",
	ErrConfigParse:    "配置解析失败",
	ErrConfigValidate: "配置验证失败",
	ErrConfigMissing:  "配置项缺失",

	// 安全错误
	ErrAuthentication:    "认证失败",
	ErrAuthorization:     "授权失败",
	ErrTokenExpired:      "令牌已过期",
	ErrTokenInvalid:      "无效的令牌",
	ErrRateLimitExceeded: "请求频率超限",
}

// 错误码类别映射，未登记的错误码视为内部错误
var errorKinds = map[ErrorCode]Kind{
	ErrNotFound:               KindNotFound,
	ErrPlayerNotFound:         KindNotFound,
	ErrSessionNotFound:        KindNotFound,
	ErrQuestionNotFound:       KindNotFound,
	ErrSettingNotFound:        KindNotFound,
	ErrInsufficientSourceData: KindNotFound,
	ErrCatalogEmpty:           KindNotFound,

	ErrConflict:              KindConflict,
	ErrSessionInProgress:     KindConflict,
	ErrNotSessionOwner:       KindConflict,
	ErrAllQuestionsCompleted: KindConflict,
	ErrQuestionAnswered:      KindConflict,
	ErrSettingConflict:       KindConflict,

	ErrInvalidParam:         KindValidation,
	ErrValidation:           KindValidation,
	ErrSessionNotInProgress: KindValidation,
	ErrInsufficientData:     KindValidation,
	ErrUnsupportedMode:      KindValidation,
	ErrInvalidCoordinate:    KindValidation,
	ErrInvalidTimeTaken:     KindValidation,
	ErrInvalidSetting:       KindValidation,
}

// AppError 应用错误结构
type AppError struct {
	Code    ErrorCode    `json:"code"`            // 错误码
	Kind    Kind         `json:"kind"`            // 错误类别
	Message string       `json:"message"`         // 错误消息
	Details string       `json:"details"`         // 详细信息
	Cause   error        `json:"-"`               // 原始错误
	Stack   []StackFrame `json:"stack,omitempty"` // 调用栈
}

// StackFrame 调用栈帧
type StackFrame struct {
	Function string `json:"function"`
	File     string `json:"file"`
	Line     int    `json:"line"`
}

// Error 实现error接口
func (e *AppError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("[%d] %s: %s", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("[%d] %s", e.Code, e.Message)
}

// Unwrap 返回原始错误
func (e *AppError) Unwrap() error {
	return e.Cause
}

// WithDetails 添加详细信息
func (e *AppError) WithDetails(details string) *AppError {
	e.Details = details
	return e
}

// WithCause 添加原因错误
func (e *AppError) WithCause(cause error) *AppError {
	e.Cause = cause
	if cause != nil && e.Details == "" {
		e.Details = cause.Error()
	}
	return e
}

// New 创建新的应用错误
func New(code ErrorCode, details ...string) *AppError {
	message, ok := errorMessages[code]
	if !ok {
		message = errorMessages[ErrUnknown]
	}

	err := &AppError{
		Code:    code,
		Kind:    KindOfCode(code),
		Message: message,
	}

	if len(details) > 0 {
		err.Details = strings.Join(details, "; ")
	}

	// 捕获调用栈
	err.captureStack(2)

	return err
}

// Newf 创建格式化的应用错误
func Newf(code ErrorCode, format string, args ...interface{}) *AppError {
	details := fmt.Sprintf(format, args...)
	return New(code, details)
}

// Wrap 包装错误
func Wrap(err error, code ErrorCode, details ...string) *AppError {
	if err == nil {
		return nil
	}

	// 如果已经是AppError，保留原始错误码
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		if len(details) > 0 {
			appErr.Details = strings.Join(details, "; ") + "; " + appErr.Details
		}
		return appErr
	}

	appErr = New(code, details...)
	appErr.Cause = err
	if appErr.Details == "" {
		appErr.Details = err.Error()
	}

	return appErr
}

// Wrapf 包装格式化错误
func Wrapf(err error, code ErrorCode, format string, args ...interface{}) *AppError {
	details := fmt.Sprintf(format, args...)
	return Wrap(err, code, details)
}

// As 提取错误链中的AppError
func As(err error) (*AppError, bool) {
	var appErr *AppError
	if err == nil || !stderrors.As(err, &appErr) {
		return nil, false
	}
	return appErr, true
}

// Is 判断错误是否为指定错误码
func Is(err error, code ErrorCode) bool {
	appErr, ok := As(err)
	return ok && appErr.Code == code
}

// GetCode 获取错误码
func GetCode(err error) ErrorCode {
	if err == nil {
		return 0
	}

	if appErr, ok := As(err); ok {
		return appErr.Code
	}

	return ErrUnknown
}

// KindOfCode 获取错误码所属类别
func KindOfCode(code ErrorCode) Kind {
	if kind, ok := errorKinds[code]; ok {
		return kind
	}
	return KindInternal
}

// KindOf 获取错误所属类别
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	return KindOfCode(GetCode(err))
}

// IsNotFound 是否为资源不存在类错误
func IsNotFound(err error) bool {
	return KindOf(err) == KindNotFound
}

// IsConflict 是否为状态冲突类错误
func IsConflict(err error) bool {
	return KindOf(err) == KindConflict
}

// IsValidation 是否为校验类错误
func IsValidation(err error) bool {
	return KindOf(err) == KindValidation
}

// captureStack 捕获调用栈
func (e *AppError) captureStack(skip int) {
	pcs := make([]uintptr, 32)
	n := runtime.Callers(skip+1, pcs)

	if n > 0 {
		frames := runtime.CallersFrames(pcs[:n])
		for {
			frame, more := frames.Next()

			// 跳过runtime和本包的调用
			if strings.Contains(frame.Function, "runtime.") ||
				strings.Contains(frame.Function, "github.com/wfunc/geo-guess/internal/errors.") {
				if !more {
					break
				}
				continue
			}

			e.Stack = append(e.Stack, StackFrame{
				Function: frame.Function,
				File:     frame.File,
				Line:     frame.Line,
			})

			if !more {
				break
			}

			// 只保留前10个栈帧
			if len(e.Stack) >= 10 {
				break
			}
		}
	}
}

// GetStack 获取格式化的调用栈
func (e *AppError) GetStack() string {
	if len(e.Stack) == 0 {
		return ""
	}

	var builder strings.Builder
	for i, frame := range e.Stack {
		builder.WriteString(fmt.Sprintf("%d. %s\n   %s:%d\n",
			i+1, frame.Function, frame.File, frame.Line))
	}

	return builder.String()
}

// HTTPStatus 返回对应的HTTP状态码
func (e *AppError) HTTPStatus() int {
	switch {
	case e.Code == ErrInvalidParam:
		return 400 // Bad Request
	case e.Kind == KindNotFound:
		return 404 // Not Found
	case e.Kind == KindConflict:
		return 409 // Conflict
	case e.Kind == KindValidation:
		return 422 // Unprocessable Entity
	case e.Code == ErrPermissionDenied || e.Code == ErrAuthorization:
		return 403 // Forbidden
	case e.Code == ErrTimeout:
		return 408 // Request Timeout
	case e.Code == ErrAuthentication || e.Code == ErrTokenExpired || e.Code == ErrTokenInvalid:
		return 401 // Unauthorized
	case e.Code == ErrRateLimitExceeded:
		return 429 // Too Many Requests
	case e.Code >= 5000 && e.Code <= 5999:
		return 503 // Service Unavailable
	default:
		return 500 // Internal Server Error
	}
}

// IsRetryable 判断错误是否可重试
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}

	switch GetCode(err) {
	case ErrTimeout, ErrDatabaseConnect, ErrTransaction:
		return true
	default:
		return false
	}
}

// IsCritical 判断是否为严重错误
func IsCritical(err error) bool {
	if err == nil {
		return false
	}

	switch GetCode(err) {
	case ErrDatabaseConnect,
		ErrConfigLoad,
		ErrConfigMissing,
		ErrDataIntegrity:
		return true
	default:
		return false
	}
}

// ErrorResponse API错误响应结构
type ErrorResponse struct {
	Success   bool      `json:"success"`
	Error     *AppError `json:"error,omitempty"`
	RequestID string    `json:"request_id,omitempty"`
	Timestamp int64     `json:"timestamp"`
}

// NewErrorResponse 创建错误响应，调用栈不对外暴露
func NewErrorResponse(err *AppError, requestID string) *ErrorResponse {
	public := *err
	public.Stack = nil
	return &ErrorResponse{
		Success:   false,
		Error:     &public,
		RequestID: requestID,
		Timestamp: time.Now().Unix(),
	}
}
