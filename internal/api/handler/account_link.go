package handler

import (
	"errors"
	"log"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"

	"github.com/qs3c/coa_server/internal/api/middleware"
	"github.com/qs3c/coa_server/internal/model/dto"
	"github.com/qs3c/coa_server/internal/pkg/response"
	"github.com/qs3c/coa_server/internal/service"
)

type AccountLinkHandler struct {
	accountLinkService *service.AccountLinkService
	frontendURI        string
}

func NewAccountLinkHandler(accountLinkService *service.AccountLinkService, frontendURI string) *AccountLinkHandler {
	return &AccountLinkHandler{
		accountLinkService: accountLinkService,
		frontendURI:        frontendURI,
	}
}

// List 已关联的平台账号
// GET /api/v1/account-links
func (h *AccountLinkHandler) List(c *gin.Context) {
	memberID, ok := middleware.GetMemberID(c)
	if !ok {
		response.AuthError(c, "")
		return
	}

	items, err := h.accountLinkService.List(memberID)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.Success(c, items)
}

// LinkGitlab 关联 GitLab 账号
// PUT /api/v1/account-links/gitlab
func (h *AccountLinkHandler) LinkGitlab(c *gin.Context) {
	memberID, ok := middleware.GetMemberID(c)
	if !ok {
		response.AuthError(c, "")
		return
	}

	var req dto.LinkGitlabRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, err.Error())
		return
	}

	if err := h.accountLinkService.LinkGitlab(memberID, &req); err != nil {
		handleServiceError(c, err)
		return
	}

	response.SuccessWithMessage(c, "关联成功", nil)
}

// GithubAuthURL 返回 GitHub 授权地址，由前端跳转
// GET /api/v1/account-links/github
func (h *AccountLinkHandler) GithubAuthURL(c *gin.Context) {
	memberID, ok := middleware.GetMemberID(c)
	if !ok {
		response.AuthError(c, "")
		return
	}

	authURL, err := h.accountLinkService.GithubAuthURL(c.Request.Context(), memberID)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.Success(c, dto.GithubAuthURLResponse{URL: authURL})
}

// GithubCallback GitHub 授权回调，完成后重定向回前端
// GET /api/v1/account-links/github/callback
func (h *AccountLinkHandler) GithubCallback(c *gin.Context) {
	state := c.Query("state")
	code := c.Query("code")
	if code == "" {
		c.Redirect(http.StatusFound, h.redirectURL("missing_code"))
		return
	}

	if _, err := h.accountLinkService.GithubCallback(c.Request.Context(), state, code); err != nil {
		log.Printf("Github link callback failed: %v", err)
		reason := "link_failed"
		if errors.Is(err, service.ErrInvalidOAuthState) {
			reason = "invalid_state"
		}
		c.Redirect(http.StatusFound, h.redirectURL(reason))
		return
	}

	c.Redirect(http.StatusFound, h.redirectURL(""))
}

func (h *AccountLinkHandler) redirectURL(errReason string) string {
	q := url.Values{}
	q.Set("platform", "github")
	if errReason != "" {
		q.Set("error", errReason)
	} else {
		q.Set("linked", "true")
	}
	return h.frontendURI + "?" + q.Encode()
}
