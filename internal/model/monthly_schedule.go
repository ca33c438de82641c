package model

import "time"

// MonthlySchedule 月度排程表（Layer 2 周期性覆盖）— 对应 monthly_schedules
// 由排程生成器提前按月批量写入；在覆盖范围内取代合同基线
type MonthlySchedule struct {
	MonthlyScheduleID string    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"monthly_schedule_id"`
	StaffID           string    `gorm:"type:uuid;not null;index:idx_monthly_schedules_staff_date" json:"staff_id"`
	Date              time.Time `gorm:"type:date;not null;index:idx_monthly_schedules_staff_date" json:"date"`
	Status            string    `gorm:"type:varchar(20);not null"                      json:"status"`
	StartAt           time.Time `gorm:"not null"                                       json:"start_at"`
	EndAt             time.Time `gorm:"not null"                                       json:"end_at"`
	Source            string    `gorm:"type:varchar(50);not null;default:''"           json:"source,omitempty"`
	CreatedAt         time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"             json:"created_at"`
	UpdatedAt         time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"             json:"updated_at"`

	// 关联
	Staff *Staff `gorm:"foreignKey:StaffID;references:StaffID" json:"staff,omitempty"`
}

// TableName 指定表名
func (MonthlySchedule) TableName() string { return "monthly_schedules" }
