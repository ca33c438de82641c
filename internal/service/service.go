package service

import (
	"go.uber.org/zap"

	"shiftsync/backend/config"
	"shiftsync/backend/internal/repository"
	"shiftsync/backend/pkg/wallclock"
)

// Service 所有 Service 的聚合入口
type Service struct {
	Resolution ResolutionService
	Pending    PendingService
	Export     ExportService
}

// NewService 创建 Service 聚合
// locker 由调用方注入：Redis 可用时用 Redis 实现，否则用进程内实现
func NewService(
	cfg *config.Config,
	repo *repository.Repository,
	locker KeyLocker,
	logger *zap.Logger,
) *Service {
	conv := wallclock.NewConverter(cfg.Schedule.UTCOffsetMinutes)

	resolution := NewResolutionService(repo, conv, logger)
	return &Service{
		Resolution: resolution,
		Pending:    NewPendingService(repo, conv, locker, cfg.Schedule.SubmitLockTTL, logger),
		Export:     NewExportService(resolution, repo, conv, logger),
	}
}
