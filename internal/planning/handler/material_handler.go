package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/stitchworks/capline/internal/planning/service"
)

type MaterialHandler struct {
	svc *service.MaterialCheckService
}

func NewMaterialHandler(svc *service.MaterialCheckService) *MaterialHandler {
	return &MaterialHandler{svc: svc}
}

type runCheckRequest struct {
	OrderIDs []string `json:"order_ids"`
}

// RunCheck POST /material-checks
func (h *MaterialHandler) RunCheck(c *gin.Context) {
	var req runCheckRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "Invalid request: "+err.Error())
		return
	}

	result, err := h.svc.RunCheck(c.Request.Context(), ClientID(c), req.OrderIDs)
	if err != nil {
		Fail(c, err)
		return
	}
	Created(c, result)
}

// GetRun GET /material-checks/:id
func (h *MaterialHandler) GetRun(c *gin.Context) {
	result, err := h.svc.GetRun(c.Request.Context(), ClientID(c), c.Param("id"))
	if err != nil {
		Fail(c, err)
		return
	}
	Success(c, result)
}

// ListRuns GET /material-checks
func (h *MaterialHandler) ListRuns(c *gin.Context) {
	page, pageSize := GetPagination(c)
	runs, total, err := h.svc.ListRuns(c.Request.Context(), ClientID(c), page, pageSize)
	if err != nil {
		Fail(c, err)
		return
	}
	Success(c, ListResponse{
		Items:      runs,
		Pagination: &Pagination{Page: page, PageSize: pageSize, Total: total},
	})
}

// ShortageTrend GET /material-checks/trend
func (h *MaterialHandler) ShortageTrend(c *gin.Context) {
	days, _ := strconv.Atoi(c.DefaultQuery("days", "30"))
	points, err := h.svc.ShortageTrend(c.Request.Context(), ClientID(c), days)
	if err != nil {
		Fail(c, err)
		return
	}
	Success(c, points)
}
