package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind 对应对外暴露的错误大类。
type Kind int

const (
	KindServer Kind = iota
	KindValidation
	KindNotFound
	KindAccessDenied
	KindConflict
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindAccessDenied:
		return "access_denied"
	case KindConflict:
		return "conflict"
	default:
		return "server"
	}
}

// Error 是业务错误：Code 稳定、可被客户端识别，Msg 面向用户。
// 两个 *Error 的 Code 相同即认为 errors.Is 成立，因此 With/Withf 派生的错误
// 仍然能匹配原始哨兵错误。
type Error struct {
	Kind   Kind
	Code   string
	Msg    string
	Status int // 0 表示按 Kind 取默认 HTTP 状态码
}

func (e *Error) Error() string { return e.Msg }

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// With 返回同 Code、新文案的副本。
func (e *Error) With(msg string) *Error {
	cp := *e
	cp.Msg = msg
	return &cp
}

// Withf 同 With，支持格式化。
func (e *Error) Withf(format string, args ...any) *Error {
	return e.With(fmt.Sprintf(format, args...))
}

// HTTPStatus 返回该错误应映射的状态码。
func (e *Error) HTTPStatus() int {
	if e.Status != 0 {
		return e.Status
	}
	switch e.Kind {
	case KindValidation, KindConflict:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindAccessDenied:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

func Validation(code, msg string) *Error   { return &Error{Kind: KindValidation, Code: code, Msg: msg} }
func NotFound(code, msg string) *Error     { return &Error{Kind: KindNotFound, Code: code, Msg: msg} }
func AccessDenied(code, msg string) *Error { return &Error{Kind: KindAccessDenied, Code: code, Msg: msg} }
func Conflict(code, msg string) *Error     { return &Error{Kind: KindConflict, Code: code, Msg: msg} }

// ConflictStatus 用于需要 409 的冲突（状态机冲突、并发修改）。
func ConflictStatus(code, msg string, status int) *Error {
	return &Error{Kind: KindConflict, Code: code, Msg: msg, Status: status}
}

// ErrInternal 兜底错误，真实原因只写日志。
var ErrInternal = &Error{Kind: KindServer, Code: "internal_error", Msg: "Something went wrong, please contact support"}

// From 从错误链中提取 *Error，不是业务错误时返回 ErrInternal 与 false。
func From(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return ErrInternal, false
}

// KindOf 返回错误链中业务错误的 Kind，非业务错误视为 KindServer。
func KindOf(err error) Kind {
	e, _ := From(err)
	return e.Kind
}
