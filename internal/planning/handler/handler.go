package handler

import (
	"errors"
	"io"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/stitchworks/capline/internal/planning/apperr"
	"github.com/stitchworks/capline/internal/planning/service"
)

// Handlers 处理器集合
type Handlers struct {
	BOM      *BOMHandler
	Material *MaterialHandler
	Capacity *CapacityHandler
	Schedule *ScheduleHandler
	Scenario *ScenarioHandler
	KPI      *KPIHandler
	Planning *PlanningHandler
}

// NewHandlers 创建处理器集合
func NewHandlers(svc *service.Services) *Handlers {
	return &Handlers{
		BOM:      NewBOMHandler(svc.BOM),
		Material: NewMaterialHandler(svc.Material),
		Capacity: NewCapacityHandler(svc.Capacity),
		Schedule: NewScheduleHandler(svc.Schedule),
		Scenario: NewScenarioHandler(svc.Scenario),
		KPI:      NewKPIHandler(svc.KPI),
		Planning: NewPlanningHandler(svc.Planning),
	}
}

// Response 统一响应结构
type Response struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// ListResponse 列表响应结构
type ListResponse struct {
	Items      interface{} `json:"items"`
	Pagination *Pagination `json:"pagination"`
}

// Pagination 分页信息
type Pagination struct {
	Page     int   `json:"page"`
	PageSize int   `json:"page_size"`
	Total    int64 `json:"total"`
}

// Success 成功响应
func Success(c *gin.Context, data interface{}) {
	c.JSON(200, Response{
		Code:    0,
		Message: "success",
		Data:    data,
	})
}

// Created 创建成功响应
func Created(c *gin.Context, data interface{}) {
	c.JSON(201, Response{
		Code:    0,
		Message: "success",
		Data:    data,
	})
}

// Error 错误响应
func Error(c *gin.Context, code int, message string) {
	statusCode := code / 100
	if statusCode < 100 || statusCode > 599 {
		statusCode = 500
	}
	c.JSON(statusCode, Response{
		Code:    code,
		Message: message,
	})
}

// BadRequest 参数错误响应
func BadRequest(c *gin.Context, message string) {
	Error(c, 40000, message)
}

// NotFound 资源不存在响应
func NotFound(c *gin.Context, message string) {
	Error(c, 40400, message)
}

// Conflict 状态冲突响应
func Conflict(c *gin.Context, message string) {
	Error(c, 40900, message)
}

// InternalError 服务器错误响应
func InternalError(c *gin.Context, message string) {
	Error(c, 50000, message)
}

// Fail 按错误类别映射HTTP响应
func Fail(c *gin.Context, err error) {
	switch apperr.KindOf(err) {
	case apperr.NotFound:
		NotFound(c, err.Error())
	case apperr.Validation, apperr.EmptyBOM:
		BadRequest(c, err.Error())
	case apperr.InvalidTransition:
		Conflict(c, err.Error())
	default:
		InternalError(c, err.Error())
	}
}

// ClientID 从上下文取租户ID，认证中间件负责写入
func ClientID(c *gin.Context) string {
	clientID, _ := c.Get("client_id")
	if id, ok := clientID.(string); ok {
		return id
	}
	return ""
}

// bindOptionalJSON 绑定请求体，空请求体视为零值而非错误
func bindOptionalJSON(c *gin.Context, out interface{}) error {
	if err := c.ShouldBindJSON(out); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// GetPagination 从请求获取分页参数
func GetPagination(c *gin.Context) (int, int) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}
	return page, pageSize
}
