package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"shiftsync/backend/internal/model"
)

// MonthlyScheduleRepository 月度排程（Layer 2）数据访问接口
// 记录由排程生成器提前批量写入，引擎侧只读
type MonthlyScheduleRepository interface {
	ListByStaffAndDate(ctx context.Context, staffID string, date time.Time) ([]model.MonthlySchedule, error)
	ListByStaffAndRange(ctx context.Context, staffID string, from, to time.Time) ([]model.MonthlySchedule, error)
}

type monthlyScheduleRepo struct {
	db *gorm.DB
}

func NewMonthlyScheduleRepo(db *gorm.DB) MonthlyScheduleRepository {
	return &monthlyScheduleRepo{db: db}
}

func (r *monthlyScheduleRepo) ListByStaffAndDate(ctx context.Context, staffID string, date time.Time) ([]model.MonthlySchedule, error) {
	var entries []model.MonthlySchedule
	err := r.db.WithContext(ctx).
		Where("staff_id = ? AND date = ?", staffID, date).
		Order("start_at ASC").
		Find(&entries).Error
	return entries, err
}

func (r *monthlyScheduleRepo) ListByStaffAndRange(ctx context.Context, staffID string, from, to time.Time) ([]model.MonthlySchedule, error) {
	var entries []model.MonthlySchedule
	err := r.db.WithContext(ctx).
		Where("staff_id = ? AND date >= ? AND date <= ?", staffID, from, to).
		Order("date ASC, start_at ASC").
		Find(&entries).Error
	return entries, err
}
