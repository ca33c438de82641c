package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"shiftsync/backend/internal/service"
	"shiftsync/backend/pkg/apperrors"
	"shiftsync/backend/pkg/response"
)

// ExportHandler 导出模块 HTTP 处理器
type ExportHandler struct {
	exportSvc service.ExportService
}

// NewExportHandler 创建 ExportHandler
func NewExportHandler(exportSvc service.ExportService) *ExportHandler {
	return &ExportHandler{exportSvc: exportSvc}
}

// MonthExcel 导出整月解析结果为 Excel
// GET /api/v1/export/month.xlsx?year=&month=&staff_ids=a,b
func (h *ExportHandler) MonthExcel(c *gin.Context) {
	year, month, ok := parseYearMonth(c)
	if !ok {
		return
	}

	var staffIDs []string
	if raw := c.Query("staff_ids"); raw != "" {
		staffIDs = strings.Split(raw, ",")
	}

	buf, filename, err := h.exportSvc.ExportMonthExcel(c.Request.Context(), staffIDs, year, month)
	if err != nil {
		h.handleExportError(c, err)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(http.StatusOK,
		"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
		buf.Bytes())
}

// StaffICS 导出单人整月解析结果为 ICS 日历
// GET /api/v1/export/staff.ics?staff_id=&year=&month=
func (h *ExportHandler) StaffICS(c *gin.Context) {
	staffID := c.Query("staff_id")
	if staffID == "" {
		response.BadRequest(c, 22001, "staff_id不能为空")
		return
	}
	year, month, ok := parseYearMonth(c)
	if !ok {
		return
	}

	buf, filename, err := h.exportSvc.ExportStaffICS(c.Request.Context(), staffID, year, month)
	if err != nil {
		h.handleExportError(c, err)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(http.StatusOK, "text/calendar; charset=utf-8", buf.Bytes())
}

// handleExportError 导出模块错误归一化
func (h *ExportHandler) handleExportError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrStaffNotFound):
		response.NotFound(c, 22404, err.Error())
	case errors.Is(err, service.ErrExportNoData):
		response.NotFound(c, 22002, err.Error())
	case errors.Is(err, apperrors.ErrValidation):
		response.BadRequest(c, 22001, err.Error())
	case errors.Is(err, apperrors.ErrStoreUnavailable):
		response.ServiceUnavailable(c, 22503, "存储服务暂不可用，请稍后重试")
	default:
		response.InternalError(c)
	}
}
