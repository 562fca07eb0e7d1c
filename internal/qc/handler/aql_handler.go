package handler

import (
	"github.com/dilanlakmal/YQMS-V0.1-sub013/internal/qc/service"
	"github.com/gin-gonic/gin"
)

// AQLHandler 抽样方案、买家识别与首件设置
type AQLHandler struct {
	svc      *service.AQLService
	settings *service.SettingsService
}

func NewAQLHandler(svc *service.AQLService, settings *service.SettingsService) *AQLHandler {
	return &AQLHandler{svc: svc, settings: settings}
}

// ResolveBuyer GET /buyers/resolve?mo_no=
func (h *AQLHandler) ResolveBuyer(c *gin.Context) {
	moNo := c.Query("mo_no")
	if moNo == "" {
		BadRequest(c, "mo_no 不能为空")
		return
	}
	Success(c, h.svc.ResolveBuyer(moNo))
}

// Resolve POST /aql/resolve
func (h *AQLHandler) Resolve(c *gin.Context) {
	var req service.AQLRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}
	res, err := h.svc.Resolve(c.Request.Context(), &req)
	if err != nil {
		ServiceError(c, "解析AQL失败", err)
		return
	}
	Success(c, res)
}

// FirstOutput GET /aql/first-output?order_no=
func (h *AQLHandler) FirstOutput(c *gin.Context) {
	res, err := h.svc.ResolveFirstOutput(c.Request.Context(), c.Query("order_no"))
	if err != nil {
		ServiceError(c, "获取首件抽样方案失败", err)
		return
	}
	Success(c, res)
}

// ListCharts GET /aql/charts?inspection_type=&level=
func (h *AQLHandler) ListCharts(c *gin.Context) {
	charts, err := h.svc.ListCharts(c.Request.Context(), c.Query("inspection_type"), c.Query("level"))
	if err != nil {
		InternalError(c, "获取抽样表失败: "+err.Error())
		return
	}
	Success(c, gin.H{"items": charts})
}

// SaveChart POST /aql/charts
func (h *AQLHandler) SaveChart(c *gin.Context) {
	var req service.SaveChartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}
	chart, err := h.svc.SaveChart(c.Request.Context(), &req)
	if err != nil {
		ServiceError(c, "保存抽样表失败", err)
		return
	}
	Created(c, chart)
}

// DeleteChart DELETE /aql/charts/:id
func (h *AQLHandler) DeleteChart(c *gin.Context) {
	if err := h.svc.DeleteChart(c.Request.Context(), c.Param("id")); err != nil {
		ServiceError(c, "删除抽样表失败", err)
		return
	}
	Success(c, nil)
}

// GetFirstOutputSetting GET /settings/first-output
func (h *AQLHandler) GetFirstOutputSetting(c *gin.Context) {
	setting, err := h.settings.GetFirstOutput(c.Request.Context())
	if err != nil {
		ServiceError(c, "获取首件设置失败", err)
		return
	}
	Success(c, setting)
}

// SetFirstOutputSetting PUT /settings/first-output
func (h *AQLHandler) SetFirstOutputSetting(c *gin.Context) {
	var req struct {
		Quantity int `json:"quantity" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}
	setting, err := h.settings.SetFirstOutput(c.Request.Context(), req.Quantity, GetUserID(c))
	if err != nil {
		ServiceError(c, "保存首件设置失败", err)
		return
	}
	Success(c, setting)
}
