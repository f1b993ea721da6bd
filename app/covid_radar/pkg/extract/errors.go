package extract

import (
	"errors"
	"fmt"
)

// 抽取失败的错误类型，均对本次运行致命，使用 errors.Is 判断
var (
	ErrMarkerNotFound     = errors.New("section marker not found")
	ErrInsufficientTokens = errors.New("insufficient tokens")
	ErrMalformedNumber    = errors.New("malformed number")
	ErrTotalNotFound      = errors.New("labeled total not found")
	ErrDuplicateRegion    = errors.New("duplicate region label")
	ErrUnknownRegion      = errors.New("unknown region label")
	ErrInvalidLayout      = errors.New("invalid layout")
)

// Error 携带错误类型和上下文的抽取错误
type Error struct {
	Kind   error
	Detail string
}

func (e *Error) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("extract: %v", e.Kind)
	}
	return fmt.Sprintf("extract: %v: %s", e.Kind, e.Detail)
}

func (e *Error) Unwrap() error {
	return e.Kind
}

func newError(kind error, format string, args ...any) *Error {
	return &Error{Kind: kind, Detail: fmt.Sprintf(format, args...)}
}

var (
	errEmptyPattern   = errors.New("pattern is empty")
	errNoCaptureGroup = errors.New("pattern needs a capturing group")
)
