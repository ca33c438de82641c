package model

import "time"

// ApprovalLog 审批日志表 — 对应 approval_logs（仅追加，纯审计）
// 每次工作流状态迁移写入一条，与状态变更在同一事务提交
type ApprovalLog struct {
	ApprovalLogID string    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"approval_log_id"`
	AdjustmentID  string    `gorm:"type:uuid;not null;index:idx_approval_logs_adjustment" json:"adjustment_id"`
	FromState     string    `gorm:"type:varchar(20);not null"                      json:"from_state"`
	ToState       string    `gorm:"type:varchar(20);not null"                      json:"to_state"`
	Actor         string    `gorm:"type:uuid;not null"                             json:"actor"`
	CreatedAt     time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"             json:"created_at"`
}

// TableName 指定表名
func (ApprovalLog) TableName() string { return "approval_logs" }
