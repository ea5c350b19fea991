package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/qs3c/coa_server/internal/model/dto"
	"github.com/qs3c/coa_server/internal/pkg/response"
	"github.com/qs3c/coa_server/internal/service"
)

// ProgressHandler AI 服务回写进度的内部接口
type ProgressHandler struct {
	progressService *service.ProgressService
}

func NewProgressHandler(progressService *service.ProgressService) *ProgressHandler {
	return &ProgressHandler{
		progressService: progressService,
	}
}

// Update PUT /internal/analyses/:analysisId/progress
func (h *ProgressHandler) Update(c *gin.Context) {
	var req dto.ProgressUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, err.Error())
		return
	}

	resp, err := h.progressService.Update(c.Request.Context(), c.Param("analysisId"), &req)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.Success(c, resp)
}
