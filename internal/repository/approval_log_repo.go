package repository

import (
	"context"

	"gorm.io/gorm"

	"shiftsync/backend/internal/model"
)

// ApprovalLogRepository 审批日志数据访问接口（仅追加 + 只读查询）
// 与状态迁移同事务的追加发生在 AdjustmentRepository 内部；
// 本接口的 Create 仅用于不伴随状态变更的补录场景
type ApprovalLogRepository interface {
	Create(ctx context.Context, entry *model.ApprovalLog) error
	ListByAdjustment(ctx context.Context, adjustmentID string) ([]model.ApprovalLog, error)
}

type approvalLogRepo struct {
	db *gorm.DB
}

func NewApprovalLogRepo(db *gorm.DB) ApprovalLogRepository {
	return &approvalLogRepo{db: db}
}

func (r *approvalLogRepo) Create(ctx context.Context, entry *model.ApprovalLog) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *approvalLogRepo) ListByAdjustment(ctx context.Context, adjustmentID string) ([]model.ApprovalLog, error) {
	var entries []model.ApprovalLog
	err := r.db.WithContext(ctx).
		Where("adjustment_id = ?", adjustmentID).
		Order("created_at ASC, approval_log_id ASC").
		Find(&entries).Error
	return entries, err
}
