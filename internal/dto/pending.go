package dto

// ── 审批工作流模块 DTO ──

// SubmitPendingRequest 提交待审批调整请求
type SubmitPendingRequest struct {
	StaffID     string        `json:"staff_id"     binding:"required,uuid"`
	Date        string        `json:"date"         binding:"required"`
	Intervals   []IntervalDTO `json:"intervals"    binding:"required,min=1,dive"`
	Memo        string        `json:"memo"         binding:"max=500"`
	PendingType string        `json:"pending_type" binding:"max=50"` // 缺省 "monthly-planner"
}

// SubmitPendingResponse 提交成功响应
type SubmitPendingResponse struct {
	PendingIDs []string `json:"pending_ids"`
}

// DecisionRequest 裁决请求
type DecisionRequest struct {
	Decision string `json:"decision" binding:"required,oneof=approve reject"`
	Reason   string `json:"reason"   binding:"max=500"`
}

// PendingListRequest 待审批列表查询参数
type PendingListRequest struct {
	StaffID     string `form:"staff_id"     binding:"omitempty,uuid"`
	DateFrom    string `form:"date_from"`
	DateTo      string `form:"date_to"`
	PendingType string `form:"pending_type" binding:"max=50"`
}

// PendingRecordResponse 待审批/已裁决记录响应
type PendingRecordResponse struct {
	ID          string  `json:"id"`
	StaffID     string  `json:"staff_id"`
	Date        string  `json:"date"`
	Status      string  `json:"status"`
	Start       string  `json:"start"`
	End         string  `json:"end"`
	Memo        string  `json:"memo,omitempty"`
	Reason      string  `json:"reason,omitempty"`
	PendingType string  `json:"pending_type"`
	State       string  `json:"state"`
	BatchID     *string `json:"batch_id,omitempty"`
	ApprovedAt  *string `json:"approved_at,omitempty"`
	RejectedAt  *string `json:"rejected_at,omitempty"`
	CreatedAt   string  `json:"created_at"`
}

// ApprovalLogResponse 审批日志响应
type ApprovalLogResponse struct {
	FromState string `json:"from_state"`
	ToState   string `json:"to_state"`
	Actor     string `json:"actor"`
	CreatedAt string `json:"created_at"`
}

// ── 重复收敛 ──

// ReconcileRequest 重复待审批收敛请求（过滤条件均可为空 = 全量扫描）
type ReconcileRequest struct {
	StaffID string `json:"staff_id" binding:"omitempty,uuid"`
	Date    string `json:"date"`
}

// ReconcileEntry 单个重复键的收敛结果
type ReconcileEntry struct {
	StaffID     string   `json:"staff_id"`
	Date        string   `json:"date"`
	PendingType string   `json:"pending_type"`
	KeptID      string   `json:"kept_id"`
	RejectedIDs []string `json:"rejected_ids"`
	SkippedIDs  []string `json:"skipped_ids,omitempty"` // 与在途裁决竞争失败而跳过
}

// ReconciliationReport 收敛报告
type ReconciliationReport struct {
	Scanned         int              `json:"scanned"`
	DuplicateGroups int              `json:"duplicate_groups"`
	Rejected        int              `json:"rejected"`
	Skipped         int              `json:"skipped"`
	Entries         []ReconcileEntry `json:"entries"`
}
