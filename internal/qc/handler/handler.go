package handler

import (
	"errors"
	"strconv"

	"github.com/dilanlakmal/YQMS-V0.1-sub013/internal/middleware"
	"github.com/dilanlakmal/YQMS-V0.1-sub013/internal/qc/quality"
	"github.com/dilanlakmal/YQMS-V0.1-sub013/internal/qc/repository"
	"github.com/dilanlakmal/YQMS-V0.1-sub013/internal/qc/service"
	"github.com/dilanlakmal/YQMS-V0.1-sub013/internal/qc/sse"
	"github.com/gin-gonic/gin"
)

// Handlers 处理器集合
type Handlers struct {
	AQL        *AQLHandler
	Inspection *InspectionHandler
	WashQty    *WashQtyHandler
	SSE        *SSEHandler
}

// NewHandlers 创建处理器集合
func NewHandlers(svc *service.Services, hub *sse.Hub) *Handlers {
	return &Handlers{
		AQL:        NewAQLHandler(svc.AQL, svc.Settings),
		Inspection: NewInspectionHandler(svc.Report, svc.Export, svc.Image),
		WashQty:    NewWashQtyHandler(svc.WashQty),
		SSE:        NewSSEHandler(hub),
	}
}

// RegisterRoutes 注册 QC 路由，api 组需已挂载 JWT 中间件
func RegisterRoutes(api *gin.RouterGroup, h *Handlers) {
	admin := middleware.RequirePermission(middleware.PermissionAdmin)

	api.GET("/buyers/resolve", h.AQL.ResolveBuyer)

	aql := api.Group("/aql")
	{
		aql.POST("/resolve", h.AQL.Resolve)
		aql.GET("/first-output", h.AQL.FirstOutput)
		aql.GET("/charts", h.AQL.ListCharts)
		aql.POST("/charts", admin, h.AQL.SaveChart)
		aql.DELETE("/charts/:id", admin, h.AQL.DeleteChart)
	}

	api.GET("/settings/first-output", h.AQL.GetFirstOutputSetting)
	api.PUT("/settings/first-output", admin, h.AQL.SetFirstOutputSetting)

	inspections := api.Group("/inspections")
	{
		inspections.GET("", h.Inspection.List)
		inspections.POST("", h.Inspection.SaveOrderData)
		inspections.GET("/submitted", h.Inspection.FindSubmitted)
		inspections.GET("/:id", h.Inspection.Get)
		inspections.PUT("/:id/measurements", h.Inspection.SaveMeasurement)
		inspections.PUT("/:id/defects", h.Inspection.SaveDefects)
		inspections.GET("/:id/summary", h.Inspection.GetSummary)
		inspections.POST("/:id/summary", h.Inspection.Recalculate)
		inspections.POST("/:id/submit", h.Inspection.Submit)
		inspections.POST("/:id/images", h.Inspection.UploadImage)
		inspections.GET("/:id/export", h.Inspection.Export)
	}

	washQty := api.Group("/wash-qty")
	{
		washQty.GET("", h.WashQty.List)
		washQty.POST("", h.WashQty.Import)
		washQty.POST("/import", h.WashQty.ImportFile)
	}

	api.GET("/sse/events", h.SSE.Stream)
}

// Response 通用响应结构
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
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	Total      int `json:"total"`
	TotalPages int `json:"total_pages"`
}

func newPagination(page, pageSize int, total int64) *Pagination {
	totalPages := int(total) / pageSize
	if int(total)%pageSize != 0 {
		totalPages++
	}
	return &Pagination{Page: page, PageSize: pageSize, Total: int(total), TotalPages: totalPages}
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

// ServiceError 按哨兵错误映射状态码
func ServiceError(c *gin.Context, prefix string, err error) {
	msg := prefix + ": " + err.Error()
	switch {
	case errors.Is(err, service.ErrInvalidInput),
		errors.Is(err, service.ErrInvalidDefectDetails),
		errors.Is(err, quality.ErrInvalidChart):
		BadRequest(c, msg)
	case errors.Is(err, repository.ErrNotFound),
		errors.Is(err, quality.ErrChartNotFound),
		errors.Is(err, quality.ErrLevelNotFound):
		NotFound(c, msg)
	case errors.Is(err, service.ErrAlreadySubmitted),
		errors.Is(err, repository.ErrDuplicate):
		Conflict(c, msg)
	case errors.Is(err, service.ErrStorageUnavailable):
		Error(c, 50300, msg)
	default:
		InternalError(c, msg)
	}
}

// GetUserID 从上下文获取用户ID
func GetUserID(c *gin.Context) string {
	return c.GetString(middleware.CtxUserID)
}

// GetPagination 从请求获取分页参数
func GetPagination(c *gin.Context) (page, pageSize int) {
	page = 1
	pageSize = 20

	if p := c.Query("page"); p != "" {
		if v, err := strconv.Atoi(p); err == nil && v > 0 {
			page = v
		}
	}

	if ps := c.Query("page_size"); ps != "" {
		if v, err := strconv.Atoi(ps); err == nil && v > 0 && v <= 100 {
			pageSize = v
		}
	}

	return page, pageSize
}

// queryFilters 收集非空查询参数
func queryFilters(c *gin.Context, keys ...string) map[string]string {
	filters := make(map[string]string)
	for _, k := range keys {
		if v := c.Query(k); v != "" {
			filters[k] = v
		}
	}
	return filters
}
