package repository

import "gorm.io/gorm"

// Repository 所有 Repository 的聚合入口
// 解析引擎只使用读接口；写入只发生在审批工作流（Adjustment/ApprovalLog）
type Repository struct {
	Staff           StaffRepository
	Contract        ContractRepository
	MonthlySchedule MonthlyScheduleRepository
	Adjustment      AdjustmentRepository
	ApprovalLog     ApprovalLogRepository
}

// NewRepository 创建 Repository 聚合
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{
		Staff:           NewStaffRepo(db),
		Contract:        NewContractRepo(db),
		MonthlySchedule: NewMonthlyScheduleRepo(db),
		Adjustment:      NewAdjustmentRepo(db),
		ApprovalLog:     NewApprovalLogRepo(db),
	}
}
