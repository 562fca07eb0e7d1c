package handler

import (
	"github.com/dilanlakmal/YQMS-V0.1-sub013/internal/qc/service"
	"github.com/gin-gonic/gin"
)

// InspectionHandler 检验报告
type InspectionHandler struct {
	svc    *service.ReportService
	export *service.ExportService
	images *service.ImageService
}

func NewInspectionHandler(svc *service.ReportService, export *service.ExportService, images *service.ImageService) *InspectionHandler {
	return &InspectionHandler{svc: svc, export: export, images: images}
}

// List GET /inspections
func (h *InspectionHandler) List(c *gin.Context) {
	page, pageSize := GetPagination(c)
	filters := queryFilters(c, "order_no", "color", "status", "report_type", "factory_name", "inspector_id", "overall_final_result")

	reports, total, err := h.svc.List(c.Request.Context(), page, pageSize, filters)
	if err != nil {
		InternalError(c, "获取检验报告失败: "+err.Error())
		return
	}
	Success(c, ListResponse{Items: reports, Pagination: newPagination(page, pageSize, total)})
}

// SaveOrderData POST /inspections，表头自动保存
func (h *InspectionHandler) SaveOrderData(c *gin.Context) {
	var req service.SaveOrderDataRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}
	report, err := h.svc.SaveOrderData(c.Request.Context(), GetUserID(c), &req)
	if err != nil {
		ServiceError(c, "保存检验报告失败", err)
		return
	}
	Success(c, report)
}

// FindSubmitted GET /inspections/submitted?order_no=&color=
func (h *InspectionHandler) FindSubmitted(c *gin.Context) {
	reports, err := h.svc.FindSubmitted(c.Request.Context(), c.Query("order_no"), c.Query("color"))
	if err != nil {
		ServiceError(c, "查询已提交报告失败", err)
		return
	}
	Success(c, gin.H{"items": reports})
}

// Get GET /inspections/:id
func (h *InspectionHandler) Get(c *gin.Context) {
	report, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		ServiceError(c, "获取检验报告失败", err)
		return
	}
	Success(c, report)
}

// SaveMeasurement PUT /inspections/:id/measurements
func (h *InspectionHandler) SaveMeasurement(c *gin.Context) {
	var req service.SaveMeasurementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}
	res, err := h.svc.SaveMeasurement(c.Request.Context(), c.Param("id"), GetUserID(c), &req)
	if err != nil {
		ServiceError(c, "保存测量数据失败", err)
		return
	}
	Success(c, res)
}

// SaveDefects PUT /inspections/:id/defects
func (h *InspectionHandler) SaveDefects(c *gin.Context) {
	var req service.SaveDefectsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}
	report, err := h.svc.SaveDefects(c.Request.Context(), c.Param("id"), GetUserID(c), &req)
	if err != nil {
		ServiceError(c, "保存缺陷失败", err)
		return
	}
	Success(c, report)
}

// GetSummary GET /inspections/:id/summary
func (h *InspectionHandler) GetSummary(c *gin.Context) {
	view, err := h.svc.GetSummary(c.Request.Context(), c.Param("id"))
	if err != nil {
		ServiceError(c, "获取汇总失败", err)
		return
	}
	Success(c, view)
}

// Recalculate POST /inspections/:id/summary，body 可带 override: Pass/Fail
func (h *InspectionHandler) Recalculate(c *gin.Context) {
	var req struct {
		Override string `json:"override"`
	}
	// 空 body 合法
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			BadRequest(c, "参数错误: "+err.Error())
			return
		}
	}
	res, err := h.svc.RecalculateSummary(c.Request.Context(), c.Param("id"), GetUserID(c), req.Override)
	if err != nil {
		ServiceError(c, "重算汇总失败", err)
		return
	}
	Success(c, res)
}

// Submit POST /inspections/:id/submit
func (h *InspectionHandler) Submit(c *gin.Context) {
	report, err := h.svc.Submit(c.Request.Context(), c.Param("id"), GetUserID(c))
	if err != nil {
		ServiceError(c, "提交检验报告失败", err)
		return
	}
	Success(c, report)
}

// UploadImage POST /inspections/:id/images (multipart file)
func (h *InspectionHandler) UploadImage(c *gin.Context) {
	file, header, err := c.Request.FormFile("file")
	if err != nil {
		BadRequest(c, "请上传图片文件")
		return
	}
	defer file.Close()

	res, err := h.images.Upload(c.Request.Context(), c.Param("id"), header.Filename,
		header.Header.Get("Content-Type"), header.Size, file)
	if err != nil {
		ServiceError(c, "上传图片失败", err)
		return
	}
	Created(c, res)
}

// Export GET /inspections/:id/export
func (h *InspectionHandler) Export(c *gin.Context) {
	f, filename, err := h.export.ExportReport(c.Request.Context(), c.Param("id"))
	if err != nil {
		ServiceError(c, "导出失败", err)
		return
	}
	defer f.Close()

	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Header("Content-Disposition", "attachment; filename=\""+filename+"\"")
	c.Header("Content-Transfer-Encoding", "binary")

	if err := f.Write(c.Writer); err != nil {
		InternalError(c, "write excel: "+err.Error())
	}
}
