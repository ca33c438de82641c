package model

// ── 工作状态码 ──
//
// 解析结果与各层记录共用同一套状态码；
// 基线（合同工时）段固定为 StatusOnline。

const (
	StatusOnline   = "online"
	StatusRemote   = "remote"
	StatusBreak    = "break"
	StatusMeeting  = "meeting"
	StatusTraining = "training"
	StatusTrip     = "trip"
	StatusOff      = "off"
	StatusVacation = "vacation"
	StatusNight    = "night"
)

var validStatuses = map[string]bool{
	StatusOnline:   true,
	StatusRemote:   true,
	StatusBreak:    true,
	StatusMeeting:  true,
	StatusTraining: true,
	StatusTrip:     true,
	StatusOff:      true,
	StatusVacation: true,
	StatusNight:    true,
}

// IsValidStatus 检查状态码是否在允许集合内
func IsValidStatus(s string) bool { return validStatuses[s] }

// ── 审批状态机 ──

const (
	// PendingStateDraft 尚未持久化（仅出现在审批日志的 from_state）
	PendingStateDraft = "draft"
	// PendingStatePending 已持久化、等待裁决
	PendingStatePending = "pending"
	// PendingStateApproved 已批准（终态）
	PendingStateApproved = "approved"
	// PendingStateRejected 已驳回（终态）
	PendingStateRejected = "rejected"
)

// DefaultPendingType pending_type 缺省分类
const DefaultPendingType = "monthly-planner"
