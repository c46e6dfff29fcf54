package apperr

import (
	"errors"
	"fmt"
)

// Kind 业务错误类别
type Kind string

const (
	NotFound          Kind = "NOT_FOUND"
	EmptyBOM          Kind = "EMPTY_BOM"
	InvalidTransition Kind = "INVALID_TRANSITION"
	Validation        Kind = "VALIDATION_ERROR"
	Computation       Kind = "COMPUTATION_ERROR"
)

// Error 结构化业务错误：类别 + 消息，可选包装底层错误
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// E 构造业务错误
func E(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap 包装底层错误为业务错误
func Wrap(kind Kind, err error, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Err: err}
}

// KindOf 提取错误类别，非业务错误返回空串
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// Is 判断错误是否属于指定类别
func Is(err error, kind Kind) bool {
	return KindOf(err) == kind
}
