package handler

import (
	"encoding/json"

	"github.com/gin-gonic/gin"
	"github.com/stitchworks/capline/internal/planning/service"
)

type ScenarioHandler struct {
	svc *service.ScenarioService
}

func NewScenarioHandler(svc *service.ScenarioService) *ScenarioHandler {
	return &ScenarioHandler{svc: svc}
}

// Create POST /scenarios
func (h *ScenarioHandler) Create(c *gin.Context) {
	var input service.CreateScenarioInput
	if err := c.ShouldBindJSON(&input); err != nil {
		BadRequest(c, "Invalid request: "+err.Error())
		return
	}

	scenario, err := h.svc.Create(c.Request.Context(), ClientID(c), &input)
	if err != nil {
		Fail(c, err)
		return
	}
	Created(c, scenario)
}

type runScenarioRequest struct {
	PeriodStart string `json:"period_start" binding:"required"`
	PeriodEnd   string `json:"period_end" binding:"required"`
}

// Run POST /scenarios/:id/run
func (h *ScenarioHandler) Run(c *gin.Context) {
	var req runScenarioRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "Invalid request: "+err.Error())
		return
	}
	start, end, ok := parsePeriod(c, req.PeriodStart, req.PeriodEnd)
	if !ok {
		return
	}

	impact, err := h.svc.Run(c.Request.Context(), ClientID(c), c.Param("id"), start, end)
	if err != nil {
		Fail(c, err)
		return
	}
	Success(c, impact)
}

type compareRequest struct {
	ScenarioIDs []string `json:"scenario_ids" binding:"required"`
	PeriodStart string   `json:"period_start" binding:"required"`
	PeriodEnd   string   `json:"period_end" binding:"required"`
}

// Compare POST /scenarios/compare
func (h *ScenarioHandler) Compare(c *gin.Context) {
	var req compareRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "Invalid request: "+err.Error())
		return
	}
	start, end, ok := parsePeriod(c, req.PeriodStart, req.PeriodEnd)
	if !ok {
		return
	}

	impacts, err := h.svc.Compare(c.Request.Context(), ClientID(c), req.ScenarioIDs, start, end)
	if err != nil {
		Fail(c, err)
		return
	}
	Success(c, impacts)
}

// Get GET /scenarios/:id
func (h *ScenarioHandler) Get(c *gin.Context) {
	scenario, err := h.svc.Get(c.Request.Context(), ClientID(c), c.Param("id"))
	if err != nil {
		Fail(c, err)
		return
	}
	Success(c, scenario)
}

// List GET /scenarios
func (h *ScenarioHandler) List(c *gin.Context) {
	page, pageSize := GetPagination(c)
	scenarios, total, err := h.svc.List(c.Request.Context(), ClientID(c), c.Query("type"), page, pageSize)
	if err != nil {
		Fail(c, err)
		return
	}
	Success(c, ListResponse{
		Items:      scenarios,
		Pagination: &Pagination{Page: page, PageSize: pageSize, Total: total},
	})
}

// DefaultParams GET /scenarios/defaults/:type
func (h *ScenarioHandler) DefaultParams(c *gin.Context) {
	params, err := h.svc.DefaultParams(c.Param("type"))
	if err != nil {
		Fail(c, err)
		return
	}
	Success(c, json.RawMessage(params))
}
