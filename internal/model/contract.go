package model

import "time"

// Contract 合同表（Layer 1 基线）— 对应 contracts
// 每位员工一条有效记录；七个 *_hours 列分别保存周日至周六的
// "HH:MM-HH:MM" 基线工时段，空表示当天无基线工作
type Contract struct {
	ContractID     string  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"contract_id"`
	StaffID        string  `gorm:"type:uuid;not null;uniqueIndex"                 json:"staff_id"`
	SundayHours    *string `gorm:"type:varchar(11)"                               json:"sunday_hours,omitempty"`
	MondayHours    *string `gorm:"type:varchar(11)"                               json:"monday_hours,omitempty"`
	TuesdayHours   *string `gorm:"type:varchar(11)"                               json:"tuesday_hours,omitempty"`
	WednesdayHours *string `gorm:"type:varchar(11)"                               json:"wednesday_hours,omitempty"`
	ThursdayHours  *string `gorm:"type:varchar(11)"                               json:"thursday_hours,omitempty"`
	FridayHours    *string `gorm:"type:varchar(11)"                               json:"friday_hours,omitempty"`
	SaturdayHours  *string `gorm:"type:varchar(11)"                               json:"saturday_hours,omitempty"`
	VersionedModel

	// 关联
	Staff *Staff `gorm:"foreignKey:StaffID;references:StaffID" json:"staff,omitempty"`
}

// TableName 指定表名
func (Contract) TableName() string { return "contracts" }

// WeekdayHours 按星期下标返回七天工时段数组（time.Sunday=0 ... time.Saturday=6）
// 取代按字符串拼接字段名的动态取值方式，拼写错误在编译期即暴露
func (c *Contract) WeekdayHours() [7]*string {
	return [7]*string{
		c.SundayHours,
		c.MondayHours,
		c.TuesdayHours,
		c.WednesdayHours,
		c.ThursdayHours,
		c.FridayHours,
		c.SaturdayHours,
	}
}

// HoursFor 返回指定星期的工时段，nil 表示当天无基线工作
func (c *Contract) HoursFor(weekday time.Weekday) *string {
	return c.WeekdayHours()[int(weekday)]
}
