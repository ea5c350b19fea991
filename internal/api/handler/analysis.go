package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/qs3c/coa_server/internal/api/middleware"
	"github.com/qs3c/coa_server/internal/model/dto"
	"github.com/qs3c/coa_server/internal/pkg/response"
	"github.com/qs3c/coa_server/internal/service"
)

type AnalysisHandler struct {
	analysisService *service.AnalysisService
}

func NewAnalysisHandler(analysisService *service.AnalysisService) *AnalysisHandler {
	return &AnalysisHandler{
		analysisService: analysisService,
	}
}

// Start 发起仓库分析
// POST /api/v1/repos/analysis
func (h *AnalysisHandler) Start(c *gin.Context) {
	memberID, ok := middleware.GetMemberID(c)
	if !ok {
		response.AuthError(c, "")
		return
	}

	var req dto.StartAnalysisRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, err.Error())
		return
	}

	resp, err := h.analysisService.Start(c.Request.Context(), memberID, &req)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.SuccessWithMessage(c, "分析已开始", resp)
}

// Check 查询分析进度
// GET /api/v1/repos/analysis/:analysisId
func (h *AnalysisHandler) Check(c *gin.Context) {
	memberID, ok := middleware.GetMemberID(c)
	if !ok {
		response.AuthError(c, "")
		return
	}

	resp, err := h.analysisService.Check(c.Request.Context(), memberID, c.Param("analysisId"))
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.Success(c, resp)
}

// GetDoneResult 获取分析结果
// GET /api/v1/repos/analysis/done/:analysisId
func (h *AnalysisHandler) GetDoneResult(c *gin.Context) {
	memberID, ok := middleware.GetMemberID(c)
	if !ok {
		response.AuthError(c, "")
		return
	}

	resp, err := h.analysisService.GetDoneResult(c.Request.Context(), memberID, c.Param("analysisId"))
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.Success(c, resp)
}

// Save 保存分析结果
// POST /api/v1/repos/:analysisId
func (h *AnalysisHandler) Save(c *gin.Context) {
	memberID, ok := middleware.GetMemberID(c)
	if !ok {
		response.AuthError(c, "")
		return
	}

	var req dto.SaveAnalysisRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, err.Error())
		return
	}

	resp, err := h.analysisService.Save(c.Request.Context(), memberID, c.Param("analysisId"), &req)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.SuccessWithMessage(c, "保存成功", resp)
}
