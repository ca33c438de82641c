package model

// Staff 员工表 — 对应 staffs
// 由外部花名册组件维护，本服务只读；is_active 为 false 的员工无可解析排程
type Staff struct {
	StaffID  string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"staff_id"`
	Name     string `gorm:"type:varchar(100);not null"                     json:"name"`
	IsActive bool   `gorm:"not null;default:true"                          json:"is_active"`
	BaseModel
}

// TableName 指定表名
func (Staff) TableName() string { return "staffs" }
