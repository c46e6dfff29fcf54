package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stitchworks/capline/internal/planning/service"
)

type ScheduleHandler struct {
	svc *service.ScheduleService
}

func NewScheduleHandler(svc *service.ScheduleService) *ScheduleHandler {
	return &ScheduleHandler{svc: svc}
}

type generateRequest struct {
	Name        string   `json:"name" binding:"required"`
	PeriodStart string   `json:"period_start" binding:"required"`
	PeriodEnd   string   `json:"period_end" binding:"required"`
	OrderIDs    []string `json:"order_ids"`
	LineIDs     []string `json:"line_ids"`
	SortKey     string   `json:"sort_key"`
}

// Generate POST /schedules/generate
func (h *ScheduleHandler) Generate(c *gin.Context) {
	var req generateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "Invalid request: "+err.Error())
		return
	}
	start, end, ok := parsePeriod(c, req.PeriodStart, req.PeriodEnd)
	if !ok {
		return
	}

	result, err := h.svc.Generate(c.Request.Context(), ClientID(c), req.Name, start, end, req.OrderIDs, req.LineIDs, req.SortKey)
	if err != nil {
		Fail(c, err)
		return
	}
	Created(c, result)
}

// Create POST /schedules
func (h *ScheduleHandler) Create(c *gin.Context) {
	var input service.CreateScheduleInput
	if err := c.ShouldBindJSON(&input); err != nil {
		BadRequest(c, "Invalid request: "+err.Error())
		return
	}

	schedule, err := h.svc.Create(c.Request.Context(), ClientID(c), &input)
	if err != nil {
		Fail(c, err)
		return
	}
	Created(c, schedule)
}

type commitRequest struct {
	KPITargets map[string]decimal.Decimal `json:"kpi_targets"`
}

// Commit POST /schedules/:id/commit
func (h *ScheduleHandler) Commit(c *gin.Context) {
	// kpi_targets 可选，不带请求体直接提交也允许
	var req commitRequest
	if err := bindOptionalJSON(c, &req); err != nil {
		BadRequest(c, "Invalid request: "+err.Error())
		return
	}

	committedBy, _ := c.Get("user_id")
	userID, _ := committedBy.(string)
	schedule, err := h.svc.Commit(c.Request.Context(), ClientID(c), c.Param("id"), userID, req.KPITargets)
	if err != nil {
		Fail(c, err)
		return
	}
	Success(c, schedule)
}

// Activate POST /schedules/:id/activate
func (h *ScheduleHandler) Activate(c *gin.Context) {
	schedule, err := h.svc.Activate(c.Request.Context(), ClientID(c), c.Param("id"))
	if err != nil {
		Fail(c, err)
		return
	}
	Success(c, schedule)
}

// Complete POST /schedules/:id/complete
func (h *ScheduleHandler) Complete(c *gin.Context) {
	schedule, err := h.svc.Complete(c.Request.Context(), ClientID(c), c.Param("id"))
	if err != nil {
		Fail(c, err)
		return
	}
	Success(c, schedule)
}

// Cancel POST /schedules/:id/cancel
func (h *ScheduleHandler) Cancel(c *gin.Context) {
	schedule, err := h.svc.Cancel(c.Request.Context(), ClientID(c), c.Param("id"))
	if err != nil {
		Fail(c, err)
		return
	}
	Success(c, schedule)
}

// Get GET /schedules/:id
func (h *ScheduleHandler) Get(c *gin.Context) {
	schedule, err := h.svc.Get(c.Request.Context(), ClientID(c), c.Param("id"))
	if err != nil {
		Fail(c, err)
		return
	}
	Success(c, schedule)
}

// List GET /schedules
func (h *ScheduleHandler) List(c *gin.Context) {
	page, pageSize := GetPagination(c)
	schedules, total, err := h.svc.List(c.Request.Context(), ClientID(c), c.Query("status"), page, pageSize)
	if err != nil {
		Fail(c, err)
		return
	}
	Success(c, ListResponse{
		Items:      schedules,
		Pagination: &Pagination{Page: page, PageSize: pageSize, Total: total},
	})
}
