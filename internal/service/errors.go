package service

import (
	"errors"
	"fmt"

	"github.com/qs3c/coa_server/internal/pkg/vcs"
)

var (
	ErrMemberNotFound      = errors.New("会员不存在")
	ErrAccountLinkNotExist = errors.New("未关联该平台账号")
	ErrCodeNotFound        = errors.New("技能标签不存在")
	ErrInvalidRepoURL      = errors.New("仓库地址无效")
	ErrInvalidDate         = errors.New("日期格式错误")
)

// 第三方平台调用失败
var (
	ErrExternalUnauthorized = errors.New("第三方平台认证失败")
	ErrExternalNotFound     = errors.New("第三方平台资源不存在")
	ErrExternalAPI          = errors.New("第三方平台请求失败，请稍后重试")
	ErrExternalRejected     = errors.New("第三方平台拒绝了请求")
	ErrAIServer             = errors.New("AI 分析服务异常")
)

// mapVCSError 统一转换 VCS 客户端错误，保留原始错误供日志使用
func mapVCSError(err error) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, vcs.ErrUnauthorized):
		return fmt.Errorf("%w: %w", ErrExternalUnauthorized, err)
	case errors.Is(err, vcs.ErrNotFound):
		return fmt.Errorf("%w: %w", ErrExternalNotFound, err)
	case errors.Is(err, vcs.ErrInvalidRepoURL):
		return fmt.Errorf("%w: %w", ErrInvalidRepoURL, err)
	case vcs.IsRetryable(err):
		return fmt.Errorf("%w: %w", ErrExternalAPI, err)
	default:
		var apiErr *vcs.APIError
		if errors.As(err, &apiErr) {
			return fmt.Errorf("%w: %w", ErrExternalRejected, err)
		}
		// 未知错误按可重试处理
		return fmt.Errorf("%w: %w", ErrExternalAPI, err)
	}
}
