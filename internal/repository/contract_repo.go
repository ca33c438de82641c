package repository

import (
	"context"

	"gorm.io/gorm"

	"shiftsync/backend/internal/model"
)

// ContractRepository 合同（Layer 1 基线）数据访问接口
// 合同由外部合同管理维护，解析期间只读
type ContractRepository interface {
	GetByStaff(ctx context.Context, staffID string) (*model.Contract, error)
}

type contractRepo struct {
	db *gorm.DB
}

func NewContractRepo(db *gorm.DB) ContractRepository {
	return &contractRepo{db: db}
}

func (r *contractRepo) GetByStaff(ctx context.Context, staffID string) (*model.Contract, error) {
	var contract model.Contract
	err := r.db.WithContext(ctx).
		Where("staff_id = ?", staffID).
		First(&contract).Error
	if err != nil {
		return nil, err
	}
	return &contract, nil
}
