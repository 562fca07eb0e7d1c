package handler

import (
	"path/filepath"
	"strings"

	"github.com/dilanlakmal/YQMS-V0.1-sub013/internal/qc/service"
	"github.com/gin-gonic/gin"
)

// WashQtyHandler 洗水数量导入
type WashQtyHandler struct {
	svc *service.WashQtyService
}

func NewWashQtyHandler(svc *service.WashQtyService) *WashQtyHandler {
	return &WashQtyHandler{svc: svc}
}

// List GET /wash-qty
func (h *WashQtyHandler) List(c *gin.Context) {
	page, pageSize := GetPagination(c)
	filters := queryFilters(c, "style_no", "qc_id", "inspection_date")

	rows, total, err := h.svc.List(c.Request.Context(), page, pageSize, filters)
	if err != nil {
		InternalError(c, "获取洗水数量失败: "+err.Error())
		return
	}
	Success(c, ListResponse{Items: rows, Pagination: newPagination(page, pageSize, total)})
}

// Import POST /wash-qty，JSON 行
func (h *WashQtyHandler) Import(c *gin.Context) {
	var req struct {
		Rows []service.WashQtyRow `json:"rows" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}
	h.importRows(c, req.Rows)
}

// ImportFile POST /wash-qty/import，multipart file (.xlsx/.csv)
func (h *WashQtyHandler) ImportFile(c *gin.Context) {
	file, header, err := c.Request.FormFile("file")
	if err != nil {
		BadRequest(c, "请上传Excel或CSV文件")
		return
	}
	defer file.Close()

	var rows []service.WashQtyRow
	switch strings.ToLower(filepath.Ext(header.Filename)) {
	case ".xlsx":
		rows, err = h.svc.ParseXLSX(file)
	case ".csv":
		rows, err = h.svc.ParseCSV(file)
	default:
		BadRequest(c, "仅支持 .xlsx 或 .csv 文件")
		return
	}
	if err != nil {
		ServiceError(c, "解析文件失败", err)
		return
	}
	h.importRows(c, rows)
}

func (h *WashQtyHandler) importRows(c *gin.Context, rows []service.WashQtyRow) {
	res, err := h.svc.Import(c.Request.Context(), GetUserID(c), rows)
	if err != nil {
		ServiceError(c, "导入洗水数量失败", err)
		return
	}
	Success(c, res)
}
