package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/stitchworks/capline/internal/planning/service"
)

type PlanningHandler struct {
	svc *service.PlanningService
}

func NewPlanningHandler(svc *service.PlanningService) *PlanningHandler {
	return &PlanningHandler{svc: svc}
}

// Dashboard GET /dashboard
func (h *PlanningHandler) Dashboard(c *gin.Context) {
	start, end, ok := parsePeriod(c, c.Query("start"), c.Query("end"))
	if !ok {
		return
	}

	dashboard, err := h.svc.Dashboard(c.Request.Context(), ClientID(c), start, end)
	if err != nil {
		Fail(c, err)
		return
	}
	Success(c, dashboard)
}
