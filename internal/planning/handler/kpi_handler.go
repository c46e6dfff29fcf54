package handler

import (
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stitchworks/capline/internal/planning/service"
)

type KPIHandler struct {
	svc *service.KPIService
}

func NewKPIHandler(svc *service.KPIService) *KPIHandler {
	return &KPIHandler{svc: svc}
}

type storeCommitmentsRequest struct {
	Targets map[string]decimal.Decimal `json:"targets" binding:"required"`
}

// StoreCommitments POST /kpi/schedules/:id/commitments
func (h *KPIHandler) StoreCommitments(c *gin.Context) {
	var req storeCommitmentsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "Invalid request: "+err.Error())
		return
	}

	if err := h.svc.StoreCommitments(c.Request.Context(), ClientID(c), c.Param("id"), req.Targets); err != nil {
		Fail(c, err)
		return
	}
	Created(c, nil)
}

// GetActuals GET /kpi/actuals
func (h *KPIHandler) GetActuals(c *gin.Context) {
	start, end, ok := parsePeriod(c, c.Query("start"), c.Query("end"))
	if !ok {
		return
	}
	var keys []string
	if raw := c.Query("keys"); raw != "" {
		keys = strings.Split(raw, ",")
	}

	actuals, err := h.svc.GetActuals(c.Request.Context(), ClientID(c), start, end, keys)
	if err != nil {
		Fail(c, err)
		return
	}
	Success(c, actuals)
}

// CalculateVariance POST /kpi/schedules/:id/variance
func (h *KPIHandler) CalculateVariance(c *gin.Context) {
	entries, err := h.svc.CalculateVariance(c.Request.Context(), ClientID(c), c.Param("id"))
	if err != nil {
		Fail(c, err)
		return
	}
	Success(c, entries)
}

// History GET /kpi/schedules/:id/history
func (h *KPIHandler) History(c *gin.Context) {
	commitments, err := h.svc.History(c.Request.Context(), ClientID(c), c.Param("id"))
	if err != nil {
		Fail(c, err)
		return
	}
	Success(c, commitments)
}

// Trending GET /kpi/trending/:key
func (h *KPIHandler) Trending(c *gin.Context) {
	periods, _ := strconv.Atoi(c.DefaultQuery("periods", "12"))
	points, err := h.svc.Trending(c.Request.Context(), ClientID(c), c.Param("key"), periods)
	if err != nil {
		Fail(c, err)
		return
	}
	Success(c, points)
}
