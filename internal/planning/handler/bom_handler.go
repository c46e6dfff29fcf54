package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stitchworks/capline/internal/planning/service"
)

type BOMHandler struct {
	svc *service.BOMService
}

func NewBOMHandler(svc *service.BOMService) *BOMHandler {
	return &BOMHandler{svc: svc}
}

type explodeRequest struct {
	ParentItemCode string          `json:"parent_item_code" binding:"required"`
	Quantity       decimal.Decimal `json:"quantity" binding:"required"`
}

// Explode POST /bom/explode
func (h *BOMHandler) Explode(c *gin.Context) {
	var req explodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "Invalid request: "+err.Error())
		return
	}

	result, err := h.svc.Explode(c.Request.Context(), ClientID(c), req.ParentItemCode, req.Quantity)
	if err != nil {
		Fail(c, err)
		return
	}
	Success(c, result)
}

type explodeBatchRequest struct {
	Demands []service.StyleDemand `json:"demands" binding:"required"`
}

// ExplodeBatch POST /bom/explode-batch
func (h *BOMHandler) ExplodeBatch(c *gin.Context) {
	var req explodeBatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "Invalid request: "+err.Error())
		return
	}

	results, err := h.svc.ExplodeBatch(c.Request.Context(), ClientID(c), req.Demands)
	if err != nil {
		Fail(c, err)
		return
	}
	Success(c, gin.H{
		"results":      results,
		"requirements": h.svc.AggregateRequirements(results),
	})
}
