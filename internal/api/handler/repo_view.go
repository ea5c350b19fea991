package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/qs3c/coa_server/internal/api/middleware"
	"github.com/qs3c/coa_server/internal/model/dto"
	"github.com/qs3c/coa_server/internal/pkg/response"
	"github.com/qs3c/coa_server/internal/service"
)

type RepoViewHandler struct {
	repoViewService *service.RepoViewService
}

func NewRepoViewHandler(repoViewService *service.RepoViewService) *RepoViewHandler {
	return &RepoViewHandler{
		repoViewService: repoViewService,
	}
}

// Read 仓库详情
// GET /api/v1/repos/:repoViewId
func (h *RepoViewHandler) Read(c *gin.Context) {
	memberID, ok := middleware.GetMemberID(c)
	if !ok {
		response.AuthError(c, "")
		return
	}

	viewID, ok := parseRepoViewID(c)
	if !ok {
		return
	}

	resp, err := h.repoViewService.Read(memberID, viewID)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.Success(c, resp)
}

// EditReadme PUT /api/v1/repos/readme/:repoViewId
func (h *RepoViewHandler) EditReadme(c *gin.Context) {
	memberID, ok := middleware.GetMemberID(c)
	if !ok {
		response.AuthError(c, "")
		return
	}

	viewID, ok := parseRepoViewID(c)
	if !ok {
		return
	}

	var req dto.EditReadmeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, err.Error())
		return
	}

	if err := h.repoViewService.EditReadme(memberID, viewID, req.Readme); err != nil {
		handleServiceError(c, err)
		return
	}

	response.SuccessWithMessage(c, "修改成功", nil)
}

// EditComments PUT /api/v1/repos/comments/:repoViewId
func (h *RepoViewHandler) EditComments(c *gin.Context) {
	memberID, ok := middleware.GetMemberID(c)
	if !ok {
		response.AuthError(c, "")
		return
	}

	viewID, ok := parseRepoViewID(c)
	if !ok {
		return
	}

	var req dto.EditCommentsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, err.Error())
		return
	}

	if err := h.repoViewService.EditComments(memberID, viewID, req.Comments); err != nil {
		handleServiceError(c, err)
		return
	}

	response.SuccessWithMessage(c, "修改成功", nil)
}

// EditRepoCard PUT /api/v1/repos/repoCard/:repoViewId
func (h *RepoViewHandler) EditRepoCard(c *gin.Context) {
	memberID, ok := middleware.GetMemberID(c)
	if !ok {
		response.AuthError(c, "")
		return
	}

	viewID, ok := parseRepoViewID(c)
	if !ok {
		return
	}

	var req dto.EditRepoCardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, err.Error())
		return
	}

	if err := h.repoViewService.EditRepoCard(memberID, viewID, &req); err != nil {
		handleServiceError(c, err)
		return
	}

	response.SuccessWithMessage(c, "修改成功", nil)
}

// ListByMember 会员的仓库卡片，未登录也可以查看
// GET /api/v1/members/:memberId/repos
func (h *RepoViewHandler) ListByMember(c *gin.Context) {
	viewerID, _ := middleware.GetMemberID(c)

	memberID, err := strconv.ParseInt(c.Param("memberId"), 10, 64)
	if err != nil {
		response.ParamError(c, "无效的会员ID")
		return
	}

	cards, err := h.repoViewService.ListByMember(viewerID, memberID)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.Success(c, cards)
}

func parseRepoViewID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("repoViewId"), 10, 64)
	if err != nil {
		response.ParamError(c, "无效的仓库ID")
		return 0, false
	}
	return id, true
}

// CountBySkill GET /api/v1/repos/skills/count
func (h *RepoViewHandler) CountBySkill(c *gin.Context) {
	items, err := h.repoViewService.CountBySkill()
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.Success(c, items)
}
