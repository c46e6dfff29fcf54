package handler

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stitchworks/capline/internal/planning/service"
)

type CapacityHandler struct {
	svc *service.CapacityService
}

func NewCapacityHandler(svc *service.CapacityService) *CapacityHandler {
	return &CapacityHandler{svc: svc}
}

type analyzeRequest struct {
	PeriodStart string   `json:"period_start" binding:"required"`
	PeriodEnd   string   `json:"period_end" binding:"required"`
	LineIDs     []string `json:"line_ids"`
	ScheduleID  string   `json:"schedule_id"`
}

// Analyze POST /capacity/analyze
func (h *CapacityHandler) Analyze(c *gin.Context) {
	var req analyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "Invalid request: "+err.Error())
		return
	}
	start, end, ok := parsePeriod(c, req.PeriodStart, req.PeriodEnd)
	if !ok {
		return
	}

	result, err := h.svc.Analyze(c.Request.Context(), ClientID(c), start, end, req.LineIDs, req.ScheduleID)
	if err != nil {
		Fail(c, err)
		return
	}
	Success(c, result)
}

// Bottlenecks GET /capacity/bottlenecks
func (h *CapacityHandler) Bottlenecks(c *gin.Context) {
	start, end, ok := parsePeriod(c, c.Query("start"), c.Query("end"))
	if !ok {
		return
	}
	threshold := decimal.Zero
	if t := c.Query("threshold"); t != "" {
		parsed, err := decimal.NewFromString(t)
		if err != nil {
			BadRequest(c, "Invalid threshold: "+t)
			return
		}
		threshold = parsed
	}

	rows, err := h.svc.Bottlenecks(c.Request.Context(), ClientID(c), start, end, threshold)
	if err != nil {
		Fail(c, err)
		return
	}
	Success(c, rows)
}

// Export GET /capacity/export
func (h *CapacityHandler) Export(c *gin.Context) {
	start, end, ok := parsePeriod(c, c.Query("start"), c.Query("end"))
	if !ok {
		return
	}

	f, filename, err := h.svc.ExportAnalysis(c.Request.Context(), ClientID(c), start, end)
	if err != nil {
		Fail(c, err)
		return
	}
	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	if err := f.Write(c.Writer); err != nil {
		InternalError(c, "write export: "+err.Error())
	}
}

// parsePeriod 解析期间参数，失败时直接写错误响应
func parsePeriod(c *gin.Context, startStr, endStr string) (time.Time, time.Time, bool) {
	start, err := time.Parse("2006-01-02", startStr)
	if err != nil {
		BadRequest(c, "Invalid period start: "+startStr)
		return time.Time{}, time.Time{}, false
	}
	end, err := time.Parse("2006-01-02", endStr)
	if err != nil {
		BadRequest(c, "Invalid period end: "+endStr)
		return time.Time{}, time.Time{}, false
	}
	return start, end, true
}
