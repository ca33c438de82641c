package model

import "time"

// Adjustment 临时调整表（Layer 3 覆盖）— 对应 adjustments
// 同时承载审批工作流元数据：
//   - is_pending 且两个裁决时间戳均为空  → 待裁决（不参与权威解析）
//   - approved_at 非空                  → 已批准，作为普通 Layer 3 记录参与解析
//   - rejected_at 非空                  → 已驳回，仅供历史查询
//
// 任一裁决时间戳落定后记录即为终态，除审批日志追加外不可再变更
type Adjustment struct {
	AdjustmentID string     `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"adjustment_id"`
	StaffID      string     `gorm:"type:uuid;not null;index:idx_adjustments_staff_date" json:"staff_id"`
	Date         time.Time  `gorm:"type:date;not null;index:idx_adjustments_staff_date" json:"date"`
	Status       string     `gorm:"type:varchar(20);not null"                      json:"status"`
	StartAt      time.Time  `gorm:"not null"                                       json:"start_at"`
	EndAt        time.Time  `gorm:"not null"                                       json:"end_at"`
	Memo         string     `gorm:"type:varchar(500);not null;default:''"          json:"memo,omitempty"`
	Reason       string     `gorm:"type:varchar(500);not null;default:''"          json:"reason,omitempty"`
	IsPending    bool       `gorm:"not null;default:false"                         json:"is_pending"`
	PendingType  string     `gorm:"type:varchar(50);not null;default:''"           json:"pending_type,omitempty"`
	ApprovedAt   *time.Time `json:"approved_at,omitempty"`
	RejectedAt   *time.Time `json:"rejected_at,omitempty"`
	BatchID      *string    `gorm:"type:uuid"                                      json:"batch_id,omitempty"` // 批量导入标记，手工创建为空
	VersionedModel

	// 关联
	Staff *Staff `gorm:"foreignKey:StaffID;references:StaffID" json:"staff,omitempty"`
}

// TableName 指定表名
func (Adjustment) TableName() string { return "adjustments" }

// IsAwaitingDecision 是否处于待裁决状态
func (a *Adjustment) IsAwaitingDecision() bool {
	return a.IsPending && a.ApprovedAt == nil && a.RejectedAt == nil
}

// State 返回当前审批状态机状态
func (a *Adjustment) State() string {
	switch {
	case a.ApprovedAt != nil:
		return PendingStateApproved
	case a.RejectedAt != nil:
		return PendingStateRejected
	case a.IsPending:
		return PendingStatePending
	default:
		// 非工作流创建的直接覆盖记录，视同已批准
		return PendingStateApproved
	}
}
