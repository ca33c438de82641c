package handler

import "shiftsync/backend/internal/service"

// Handler 所有 Handler 的聚合入口
type Handler struct {
	Schedule *ScheduleHandler
	Pending  *PendingHandler
	Export   *ExportHandler
}

// NewHandler 创建 Handler 聚合
func NewHandler(svc *service.Service) *Handler {
	return &Handler{
		Schedule: NewScheduleHandler(svc.Resolution),
		Pending:  NewPendingHandler(svc.Pending),
		Export:   NewExportHandler(svc.Export),
	}
}
