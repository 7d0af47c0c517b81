package core

import "errors"

// DomainError 是领域层的统一错误类型。
//
// 设计原则：
//   - 所有领域层错误都使用此类型
//   - 提供错误代码（Code）和消息（Message）
//   - 可包裹底层错误（Err），errors.Is / errors.As 可以穿透
//
// 使用场景：
//   - 上游错误：UNAVAILABLE（事件服务/相似度服务不可达、超时）
//   - 上游响应错误：MALFORMED_RESPONSE（缺字段、并行数组长度不一致）
//   - 参数错误：INVALID_INPUT（k <= 0、user_id 非法）
//   - Store 错误：NOT_FOUND, NOT_SUPPORTED
type DomainError struct {
	Code    string // 错误代码（如 "UNAVAILABLE", "INVALID_INPUT"）
	Message string // 错误消息
	Module  string // 模块名称（如 "store", "events", "similarity"）
	Err     error  // 底层错误，可为空
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// Is 让同 Module、同 Code 的 DomainError 相互匹配，
// 便于 errors.Is(err, core.ErrStoreNotFound) 这类哨兵比较。
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Code == t.Code && e.Module == t.Module
}

// IsDomainError 检查错误链中是否存在 DomainError
func IsDomainError(err error) bool {
	return GetDomainError(err) != nil
}

// GetDomainError 获取错误链中第一个 DomainError，如果没有则返回 nil
func GetDomainError(err error) *DomainError {
	if err == nil {
		return nil
	}
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr
	}
	return nil
}

// NewDomainError 创建新的领域错误
func NewDomainError(module, code, message string) *DomainError {
	return &DomainError{
		Module:  module,
		Code:    code,
		Message: message,
	}
}

// WrapDomainError 创建包裹底层错误的领域错误
func WrapDomainError(module, code, message string, err error) *DomainError {
	return &DomainError{
		Module:  module,
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// NewUnavailableError 上游不可达、超时或返回非 2xx。
func NewUnavailableError(module, message string, err error) *DomainError {
	return WrapDomainError(module, ErrorCodeUnavailable, message, err)
}

// NewMalformedError 上游响应缺字段或并行数组长度不一致。
// 传播时等同于 UNAVAILABLE（IsUnavailable 返回 true）。
func NewMalformedError(module, message string, err error) *DomainError {
	return WrapDomainError(module, ErrorCodeMalformedResponse, message, err)
}

// NewInvalidInputError 请求参数非法，在任何上游调用之前返回。
func NewInvalidInputError(module, message string) *DomainError {
	return NewDomainError(module, ErrorCodeInvalidInput, message)
}

// 错误代码常量
const (
	ErrorCodeNotFound          = "NOT_FOUND"          // 资源不存在
	ErrorCodeNotSupported      = "NOT_SUPPORTED"      // 操作不支持
	ErrorCodeUnavailable       = "UNAVAILABLE"        // 上游不可用
	ErrorCodeMalformedResponse = "MALFORMED_RESPONSE" // 上游响应格式错误
	ErrorCodeInvalidInput      = "INVALID_INPUT"      // 输入无效
	ErrorCodeInternalError     = "INTERNAL_ERROR"     // 内部错误
)

// 模块名称常量
const (
	ModuleStore      = "store"      // 存储模块
	ModuleEvents     = "events"     // 事件服务
	ModuleSimilarity = "similarity" // 相似度/特征服务
	ModuleRecall     = "recall"     // 召回与融合
	ModuleService    = "service"    // 服务层
)

// IsNotFound 检查错误是否为 NOT_FOUND
func IsNotFound(err error) bool {
	return hasCode(err, ErrorCodeNotFound)
}

// IsNotSupported 检查错误是否为 NOT_SUPPORTED
func IsNotSupported(err error) bool {
	return hasCode(err, ErrorCodeNotSupported)
}

// IsUnavailable 检查错误是否应按上游不可用处理。
// MALFORMED_RESPONSE 同样视为不可用。
func IsUnavailable(err error) bool {
	return hasCode(err, ErrorCodeUnavailable) || hasCode(err, ErrorCodeMalformedResponse)
}

// IsMalformed 检查错误是否为 MALFORMED_RESPONSE
func IsMalformed(err error) bool {
	return hasCode(err, ErrorCodeMalformedResponse)
}

// IsInvalidInput 检查错误是否为 INVALID_INPUT
func IsInvalidInput(err error) bool {
	return hasCode(err, ErrorCodeInvalidInput)
}

func hasCode(err error, code string) bool {
	if domainErr := GetDomainError(err); domainErr != nil {
		return domainErr.Code == code
	}
	return false
}

// AsUnavailable 把上游调用返回的错误规整为可按 UNAVAILABLE 处理的 DomainError。
// 已经是 UNAVAILABLE / MALFORMED_RESPONSE 的错误原样返回，保留原始 Module。
func AsUnavailable(module, message string, err error) error {
	if err == nil {
		return nil
	}
	if IsUnavailable(err) {
		return err
	}
	return NewUnavailableError(module, message, err)
}
