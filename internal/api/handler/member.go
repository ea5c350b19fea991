package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/qs3c/coa_server/internal/api/middleware"
	"github.com/qs3c/coa_server/internal/model/dto"
	"github.com/qs3c/coa_server/internal/pkg/response"
	"github.com/qs3c/coa_server/internal/service"
)

type MemberHandler struct {
	memberService *service.MemberService
}

func NewMemberHandler(memberService *service.MemberService) *MemberHandler {
	return &MemberHandler{
		memberService: memberService,
	}
}

// ListAlarms 通知列表
// GET /api/v1/members/alarms
func (h *MemberHandler) ListAlarms(c *gin.Context) {
	memberID, ok := middleware.GetMemberID(c)
	if !ok {
		response.AuthError(c, "")
		return
	}

	var req dto.AlarmListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.ParamError(c, err.Error())
		return
	}

	items, total, err := h.memberService.ListAlarms(memberID, req.Page, req.PageSize)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.SuccessPage(c, total, req.Page, req.PageSize, items)
}

// NewAlarmCount 未读通知数
// GET /api/v1/members/alarms/new
func (h *MemberHandler) NewAlarmCount(c *gin.Context) {
	memberID, ok := middleware.GetMemberID(c)
	if !ok {
		response.AuthError(c, "")
		return
	}

	count, err := h.memberService.NewAlarmCount(memberID)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.Success(c, dto.NewAlarmCountResponse{Count: count})
}

// ToggleBookmark POST /api/v1/members/bookmarks/:memberUuid
func (h *MemberHandler) ToggleBookmark(c *gin.Context) {
	memberID, ok := middleware.GetMemberID(c)
	if !ok {
		response.AuthError(c, "")
		return
	}

	resp, err := h.memberService.ToggleBookmark(memberID, c.Param("memberUuid"))
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.Success(c, resp)
}

// ListBookmarks GET /api/v1/members/bookmarks
func (h *MemberHandler) ListBookmarks(c *gin.Context) {
	memberID, ok := middleware.GetMemberID(c)
	if !ok {
		response.AuthError(c, "")
		return
	}

	items, err := h.memberService.ListBookmarks(memberID)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.Success(c, items)
}

// GetInfo GET /api/v1/members/me
func (h *MemberHandler) GetInfo(c *gin.Context) {
	memberID, ok := middleware.GetMemberID(c)
	if !ok {
		response.AuthError(c, "")
		return
	}

	info, err := h.memberService.GetInfo(memberID)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.Success(c, info)
}

// EditProfile 修改自我介绍、职业和技能
// PUT /api/v1/members/me
func (h *MemberHandler) EditProfile(c *gin.Context) {
	memberID, ok := middleware.GetMemberID(c)
	if !ok {
		response.AuthError(c, "")
		return
	}

	var req dto.EditMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, err.Error())
		return
	}

	if err := h.memberService.EditProfile(memberID, &req); err != nil {
		handleServiceError(c, err)
		return
	}

	response.Success(c, nil)
}

// Analysis 提交评分分析
// GET /api/v1/members/analysis
func (h *MemberHandler) Analysis(c *gin.Context) {
	memberID, ok := middleware.GetMemberID(c)
	if !ok {
		response.AuthError(c, "")
		return
	}

	resp, err := h.memberService.Analysis(memberID)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.Success(c, resp)
}

// CountBySkill GET /api/v1/members/skills/count
func (h *MemberHandler) CountBySkill(c *gin.Context) {
	items, err := h.memberService.CountBySkill()
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.Success(c, items)
}
