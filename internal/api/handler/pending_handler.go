package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"shiftsync/backend/internal/dto"
	"shiftsync/backend/internal/service"
	"shiftsync/backend/pkg/apperrors"
	"shiftsync/backend/pkg/response"
)

// PendingHandler 审批工作流模块 HTTP 处理器
type PendingHandler struct {
	pendingSvc service.PendingService
}

// NewPendingHandler 创建 PendingHandler
func NewPendingHandler(pendingSvc service.PendingService) *PendingHandler {
	return &PendingHandler{pendingSvc: pendingSvc}
}

// Submit 提交待审批调整
// POST /api/v1/pendings
func (h *PendingHandler) Submit(c *gin.Context) {
	var req dto.SubmitPendingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 21001, "参数校验失败")
		return
	}

	actor, ok := MustGetUserID(c)
	if !ok {
		return
	}

	result, err := h.pendingSvc.Submit(c.Request.Context(), &req, actor)
	if err != nil {
		h.handlePendingError(c, err)
		return
	}

	response.Created(c, result)
}

// Decide 裁决待审批记录
// POST /api/v1/pendings/:id/decision
func (h *PendingHandler) Decide(c *gin.Context) {
	var req dto.DecisionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 21001, "参数校验失败")
		return
	}

	actor, ok := MustGetUserID(c)
	if !ok {
		return
	}

	if err := h.pendingSvc.Decide(c.Request.Context(), c.Param("id"), &req, actor); err != nil {
		h.handlePendingError(c, err)
		return
	}

	response.OK(c, nil)
}

// List 查询待裁决记录
// GET /api/v1/pendings
func (h *PendingHandler) List(c *gin.Context) {
	var req dto.PendingListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 21001, "参数校验失败")
		return
	}

	list, err := h.pendingSvc.ListPending(c.Request.Context(), &req)
	if err != nil {
		h.handlePendingError(c, err)
		return
	}

	response.OK(c, gin.H{"list": list})
}

// History 查询审批日志
// GET /api/v1/pendings/:id/history
func (h *PendingHandler) History(c *gin.Context) {
	entries, err := h.pendingSvc.History(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.handlePendingError(c, err)
		return
	}

	response.OK(c, gin.H{"list": entries})
}

// Reconcile 收敛重复待审批记录
// POST /api/v1/pendings/reconcile
func (h *PendingHandler) Reconcile(c *gin.Context) {
	var req dto.ReconcileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 21001, "参数校验失败")
		return
	}

	actor, ok := MustGetUserID(c)
	if !ok {
		return
	}

	report, err := h.pendingSvc.Reconcile(c.Request.Context(), &req, actor)
	if err != nil {
		h.handlePendingError(c, err)
		return
	}

	response.OK(c, report)
}

// handlePendingError 审批模块错误归一化
func (h *PendingHandler) handlePendingError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrStaffNotFound):
		response.NotFound(c, 21404, err.Error())
	case errors.Is(err, service.ErrStaffInactive):
		response.BadRequest(c, 21002, err.Error())
	case errors.Is(err, apperrors.ErrValidation):
		response.BadRequest(c, 21001, err.Error())
	case errors.Is(err, apperrors.ErrDuplicateRequest):
		response.Conflict(c, 21409, err.Error())
	case errors.Is(err, apperrors.ErrAlreadyDecided):
		response.Conflict(c, 21410, err.Error())
	case errors.Is(err, apperrors.ErrNotFound):
		response.NotFound(c, 21404, err.Error())
	case errors.Is(err, apperrors.ErrStoreUnavailable):
		response.ServiceUnavailable(c, 21503, "存储服务暂不可用，请稍后重试")
	default:
		response.InternalError(c)
	}
}
