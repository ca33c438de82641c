package handler

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"shiftsync/backend/internal/service"
	"shiftsync/backend/pkg/apperrors"
	"shiftsync/backend/pkg/response"
	"shiftsync/backend/pkg/wallclock"
)

// ScheduleHandler 排程解析模块 HTTP 处理器
type ScheduleHandler struct {
	resolutionSvc service.ResolutionService
}

// NewScheduleHandler 创建 ScheduleHandler
func NewScheduleHandler(resolutionSvc service.ResolutionService) *ScheduleHandler {
	return &ScheduleHandler{resolutionSvc: resolutionSvc}
}

// Resolve 解析单人单日时间线
// GET /api/v1/schedules/resolve?staff_id=&date=
func (h *ScheduleHandler) Resolve(c *gin.Context) {
	staffID := c.Query("staff_id")
	if staffID == "" {
		response.BadRequest(c, 20001, "staff_id不能为空")
		return
	}
	date, err := wallclock.ParseDate(c.Query("date"))
	if err != nil {
		response.BadRequest(c, 20001, "date格式无效，应为YYYY-MM-DD")
		return
	}

	timeline, err := h.resolutionSvc.ResolveDay(c.Request.Context(), staffID, date)
	if err != nil {
		h.handleScheduleError(c, err)
		return
	}

	response.OK(c, timeline)
}

// ResolveMonth 解析多人整月时间线
// GET /api/v1/schedules/month?year=&month=&staff_ids=a,b,c
func (h *ScheduleHandler) ResolveMonth(c *gin.Context) {
	year, month, ok := parseYearMonth(c)
	if !ok {
		return
	}

	var staffIDs []string
	if raw := c.Query("staff_ids"); raw != "" {
		staffIDs = strings.Split(raw, ",")
	}

	result, err := h.resolutionSvc.ResolveMonth(c.Request.Context(), staffIDs, year, month)
	if err != nil {
		h.handleScheduleError(c, err)
		return
	}

	response.OK(c, result)
}

// parseYearMonth 解析 year/month 查询参数（共用，失败时已写入 400 响应）
func parseYearMonth(c *gin.Context) (int, time.Month, bool) {
	year, err := strconv.Atoi(c.Query("year"))
	if err != nil || year < 2000 || year > 2100 {
		response.BadRequest(c, 20001, "year无效")
		return 0, 0, false
	}
	month, err := strconv.Atoi(c.Query("month"))
	if err != nil || month < 1 || month > 12 {
		response.BadRequest(c, 20001, "month无效")
		return 0, 0, false
	}
	return year, time.Month(month), true
}

// handleScheduleError 解析模块错误归一化
func (h *ScheduleHandler) handleScheduleError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrStaffNotFound):
		response.NotFound(c, 20404, err.Error())
	case errors.Is(err, apperrors.ErrValidation):
		response.BadRequest(c, 20001, err.Error())
	case errors.Is(err, apperrors.ErrStoreUnavailable):
		response.ServiceUnavailable(c, 20503, "存储服务暂不可用，请稍后重试")
	default:
		response.InternalError(c)
	}
}
