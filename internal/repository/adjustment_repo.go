package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"shiftsync/backend/internal/model"
	"shiftsync/backend/pkg/apperrors"
)

// PendingFilter 待审批记录查询条件
type PendingFilter struct {
	StaffID     string
	DateFrom    *time.Time
	DateTo      *time.Time
	PendingType string
}

// AdjustmentRepository 临时调整（Layer 3）数据访问接口
// 写入只由审批工作流发起；状态变更与审批日志在同一事务提交
type AdjustmentRepository interface {
	GetByID(ctx context.Context, id string) (*model.Adjustment, error)
	// ListByStaffAndDate 读取指定日期的调整记录
	// includePending=false 时仅返回参与权威解析的记录（已批准或直接覆盖）
	ListByStaffAndDate(ctx context.Context, staffID string, date time.Time, includePending bool) ([]model.Adjustment, error)
	ListByStaffAndRange(ctx context.Context, staffID string, from, to time.Time, includePending bool) ([]model.Adjustment, error)
	// ListAwaiting 列出待裁决记录（过滤条件可部分为空）
	ListAwaiting(ctx context.Context, filter PendingFilter) ([]model.Adjustment, error)
	// CreatePendingBatch 原子提交：插入一次提交的全部待审批记录，
	// 并为每条追加 draft→pending 审批日志；全部成功或全部回滚。
	// 命中存储层唯一索引时返回 apperrors.ErrDuplicateRequest
	CreatePendingBatch(ctx context.Context, adjs []*model.Adjustment, actor string, at time.Time) error
	// DecideWithLog 原子裁决：仅当记录仍待裁决时完成状态迁移并追加审批日志
	// 记录不存在返回 apperrors.ErrNotFound；已进入终态返回 apperrors.ErrAlreadyDecided
	DecideWithLog(ctx context.Context, id string, decision Decision) error
}

// Decision 裁决参数
type Decision struct {
	ToState   string // model.PendingStateApproved | model.PendingStateRejected
	DecidedAt time.Time
	Actor     string
	Reason    string
}

type adjustmentRepo struct {
	db *gorm.DB
}

func NewAdjustmentRepo(db *gorm.DB) AdjustmentRepository {
	return &adjustmentRepo{db: db}
}

func (r *adjustmentRepo) GetByID(ctx context.Context, id string) (*model.Adjustment, error) {
	var adj model.Adjustment
	err := r.db.WithContext(ctx).
		Where("adjustment_id = ?", id).
		First(&adj).Error
	if err != nil {
		return nil, err
	}
	return &adj, nil
}

// resolvable 限定参与权威解析的记录：非待审批且未被驳回
func resolvable(db *gorm.DB) *gorm.DB {
	return db.Where("NOT is_pending AND rejected_at IS NULL")
}

func (r *adjustmentRepo) ListByStaffAndDate(ctx context.Context, staffID string, date time.Time, includePending bool) ([]model.Adjustment, error) {
	q := r.db.WithContext(ctx).
		Where("staff_id = ? AND date = ?", staffID, date)
	if !includePending {
		q = resolvable(q)
	}
	var adjs []model.Adjustment
	err := q.Order("start_at ASC").Find(&adjs).Error
	return adjs, err
}

func (r *adjustmentRepo) ListByStaffAndRange(ctx context.Context, staffID string, from, to time.Time, includePending bool) ([]model.Adjustment, error) {
	q := r.db.WithContext(ctx).
		Where("staff_id = ? AND date >= ? AND date <= ?", staffID, from, to)
	if !includePending {
		q = resolvable(q)
	}
	var adjs []model.Adjustment
	err := q.Order("date ASC, start_at ASC").Find(&adjs).Error
	return adjs, err
}

func (r *adjustmentRepo) ListAwaiting(ctx context.Context, filter PendingFilter) ([]model.Adjustment, error) {
	q := r.db.WithContext(ctx).
		Where("is_pending AND approved_at IS NULL AND rejected_at IS NULL")
	if filter.StaffID != "" {
		q = q.Where("staff_id = ?", filter.StaffID)
	}
	if filter.DateFrom != nil {
		q = q.Where("date >= ?", *filter.DateFrom)
	}
	if filter.DateTo != nil {
		q = q.Where("date <= ?", *filter.DateTo)
	}
	if filter.PendingType != "" {
		q = q.Where("pending_type = ?", filter.PendingType)
	}
	var adjs []model.Adjustment
	err := q.Order("created_at ASC, adjustment_id ASC").Find(&adjs).Error
	return adjs, err
}

func (r *adjustmentRepo) CreatePendingBatch(ctx context.Context, adjs []*model.Adjustment, actor string, at time.Time) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, adj := range adjs {
			if err := tx.Create(adj).Error; err != nil {
				return err
			}
			entry := &model.ApprovalLog{
				AdjustmentID: adj.AdjustmentID,
				FromState:    model.PendingStateDraft,
				ToState:      model.PendingStatePending,
				Actor:        actor,
				CreatedAt:    at,
			}
			if err := tx.Create(entry).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return apperrors.ErrDuplicateRequest
		}
		return err
	}
	return nil
}

func (r *adjustmentRepo) DecideWithLog(ctx context.Context, id string, decision Decision) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		updates := map[string]interface{}{
			"updated_at": decision.DecidedAt,
			"updated_by": decision.Actor,
		}
		switch decision.ToState {
		case model.PendingStateApproved:
			// 物化：清除 is_pending 后即成为普通 Layer 3 记录
			updates["approved_at"] = decision.DecidedAt
			updates["is_pending"] = false
		case model.PendingStateRejected:
			updates["rejected_at"] = decision.DecidedAt
			updates["reason"] = decision.Reason
		default:
			return apperrors.Validationf("非法裁决状态: %q", decision.ToState)
		}

		// CAS：只允许从待裁决状态迁出，避免并发裁决双重物化
		result := tx.Model(&model.Adjustment{}).
			Where("adjustment_id = ? AND is_pending AND approved_at IS NULL AND rejected_at IS NULL", id).
			Updates(updates)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			var count int64
			if err := tx.Model(&model.Adjustment{}).
				Where("adjustment_id = ?", id).
				Count(&count).Error; err != nil {
				return err
			}
			if count == 0 {
				return apperrors.ErrNotFound
			}
			return apperrors.ErrAlreadyDecided
		}

		return tx.Create(&model.ApprovalLog{
			AdjustmentID: id,
			FromState:    model.PendingStatePending,
			ToState:      decision.ToState,
			Actor:        decision.Actor,
			CreatedAt:    decision.DecidedAt,
		}).Error
	})
}
