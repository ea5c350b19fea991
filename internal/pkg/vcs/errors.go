package vcs

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrUnauthorized = errors.New("vcs: unauthorized")
	ErrNotFound     = errors.New("vcs: not found")
)

// APIError 远程接口的其他失败
// 5xx、网络错误和超时可重试，其余 4xx 不可重试
type APIError struct {
	Platform   Platform
	Op         string
	StatusCode int
	Retryable  bool
	Err        error
}

func (e *APIError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("vcs %s %s: status %d", e.Platform, e.Op, e.StatusCode)
	}
	return fmt.Sprintf("vcs %s %s: %v", e.Platform, e.Op, e.Err)
}

func (e *APIError) Unwrap() error {
	return e.Err
}

// IsRetryable 调用方据此决定是否提示用户重试
func IsRetryable(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Retryable
}

// statusError 将非 2xx 状态码映射为错误
func statusError(platform Platform, op string, status int) error {
	switch {
	case status == http.StatusUnauthorized:
		return ErrUnauthorized
	case status == http.StatusNotFound:
		return ErrNotFound
	case status >= 500:
		return &APIError{Platform: platform, Op: op, StatusCode: status, Retryable: true}
	default:
		return &APIError{Platform: platform, Op: op, StatusCode: status, Retryable: false}
	}
}

// transportError 网络层失败，包括 context 超时与取消
func transportError(platform Platform, op string, err error) error {
	return &APIError{Platform: platform, Op: op, Retryable: true, Err: err}
}

func isContextErr(err error) bool {
	return errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled)
}
