package handler

import (
	"errors"
	"log"

	"github.com/gin-gonic/gin"

	"github.com/qs3c/coa_server/internal/pkg/response"
	"github.com/qs3c/coa_server/internal/service"
)

// errorCodes 业务错误到响应码的映射，未列出的错误按服务器错误处理
var errorCodes = []struct {
	err  error
	code int
}{
	{service.ErrInvalidRepoURL, response.CodeParamError},
	{service.ErrInvalidDate, response.CodeParamError},
	{service.ErrInvalidStatus, response.CodeParamError},
	{service.ErrCannotBookmarkSelf, response.CodeParamError},
	{service.ErrInvalidJobCode, response.CodeParamError},
	{service.ErrInvalidOAuthState, response.CodeAuthFailed},
	{service.ErrRequesterMismatch, response.CodePermissionDenied},
	{service.ErrNotOwnRepoView, response.CodePermissionDenied},
	{service.ErrMemberNotFound, response.CodeResourceNotFound},
	{service.ErrRepoViewNotFound, response.CodeResourceNotFound},
	{service.ErrCodeNotFound, response.CodeResourceNotFound},
	{service.ErrAnalysisSaving, response.CodeDuplicateAction},
	{service.ErrAnalysisFinalized, response.CodeDuplicateAction},
	{service.ErrAnalysisNotExist, response.CodeAnalysisNotExist},
	{service.ErrRetryAnalysis, response.CodeRetryAnalysis},
	{service.ErrAnalysisNotDone, response.CodeAnalysisNotDone},
	{service.ErrCannotSaveOthersRepoView, response.CodeCannotSaveOthersRepo},
	{service.ErrAccountLinkNotExist, response.CodeAccountLinkNotExist},
	{service.ErrExternalUnauthorized, response.CodeExternalUnauthorized},
	{service.ErrExternalNotFound, response.CodeExternalNotFound},
	{service.ErrExternalAPI, response.CodeExternalAPIError},
	{service.ErrExternalRejected, response.CodeExternalRequestInvalid},
	{service.ErrAIServer, response.CodeAIServerError},
}

// handleServiceError 把服务层错误写成统一响应，内部错误只记录日志
func handleServiceError(c *gin.Context, err error) {
	for _, e := range errorCodes {
		if errors.Is(err, e.err) {
			if e.code >= response.CodeExternalUnauthorized {
				log.Printf("%s %s: %v", c.Request.Method, c.FullPath(), err)
			}
			response.Error(c, e.code, e.err.Error())
			return
		}
	}

	log.Printf("%s %s: %v", c.Request.Method, c.FullPath(), err)
	response.ServerError(c, "")
}
