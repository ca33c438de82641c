package service

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"gorm.io/gorm"

	"shiftsync/backend/internal/model"
	"shiftsync/backend/internal/repository"
	"shiftsync/backend/pkg/apperrors"
)

// ── Mock StaffRepository ──

type mockStaffRepo struct {
	staffs map[string]*model.Staff
}

func newMockStaffRepo() *mockStaffRepo {
	return &mockStaffRepo{staffs: make(map[string]*model.Staff)}
}

func (m *mockStaffRepo) GetByID(_ context.Context, id string) (*model.Staff, error) {
	if s, ok := m.staffs[id]; ok {
		return s, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockStaffRepo) ListActive(_ context.Context) ([]model.Staff, error) {
	var result []model.Staff
	for _, s := range m.staffs {
		if s.IsActive {
			result = append(result, *s)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result, nil
}

// ── Mock ContractRepository ──

type mockContractRepo struct {
	contracts map[string]*model.Contract // key = staffID
}

func newMockContractRepo() *mockContractRepo {
	return &mockContractRepo{contracts: make(map[string]*model.Contract)}
}

func (m *mockContractRepo) GetByStaff(_ context.Context, staffID string) (*model.Contract, error) {
	if c, ok := m.contracts[staffID]; ok {
		return c, nil
	}
	return nil, gorm.ErrRecordNotFound
}

// ── Mock MonthlyScheduleRepository ──

type mockMonthlyScheduleRepo struct {
	entries []model.MonthlySchedule
}

func newMockMonthlyScheduleRepo() *mockMonthlyScheduleRepo {
	return &mockMonthlyScheduleRepo{}
}

func (m *mockMonthlyScheduleRepo) ListByStaffAndDate(_ context.Context, staffID string, date time.Time) ([]model.MonthlySchedule, error) {
	var result []model.MonthlySchedule
	for _, e := range m.entries {
		if e.StaffID == staffID && e.Date.Equal(date) {
			result = append(result, e)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].StartAt.Before(result[j].StartAt) })
	return result, nil
}

func (m *mockMonthlyScheduleRepo) ListByStaffAndRange(_ context.Context, staffID string, from, to time.Time) ([]model.MonthlySchedule, error) {
	var result []model.MonthlySchedule
	for _, e := range m.entries {
		if e.StaffID == staffID && !e.Date.Before(from) && !e.Date.After(to) {
			result = append(result, e)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].Date.Equal(result[j].Date) {
			return result[i].Date.Before(result[j].Date)
		}
		return result[i].StartAt.Before(result[j].StartAt)
	})
	return result, nil
}

// ── Mock AdjustmentRepository ──
//
// 行为对齐真实实现的事务语义：
//   - CreatePendingBatch 检查 (staff, date, pending_type, start_at) 的
//     活跃待裁决唯一约束，命中返回 ErrDuplicateRequest，并追加 draft→pending 日志
//   - DecideWithLog 在互斥锁内做 CAS：仅当记录仍待裁决时迁移状态 + 追加日志

type mockAdjustmentRepo struct {
	mu     sync.Mutex
	adjs   map[string]*model.Adjustment
	logs   *mockApprovalLogRepo
	nextID int
}

func newMockAdjustmentRepo(logs *mockApprovalLogRepo) *mockAdjustmentRepo {
	return &mockAdjustmentRepo{adjs: make(map[string]*model.Adjustment), logs: logs}
}

func (m *mockAdjustmentRepo) GetByID(_ context.Context, id string) (*model.Adjustment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if a, ok := m.adjs[id]; ok {
		cp := *a
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockAdjustmentRepo) ListByStaffAndDate(_ context.Context, staffID string, date time.Time, includePending bool) ([]model.Adjustment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []model.Adjustment
	for _, a := range m.adjs {
		if a.StaffID != staffID || !a.Date.Equal(date) {
			continue
		}
		if !includePending && (a.IsPending || a.RejectedAt != nil) {
			continue
		}
		result = append(result, *a)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].StartAt.Before(result[j].StartAt) })
	return result, nil
}

func (m *mockAdjustmentRepo) ListByStaffAndRange(_ context.Context, staffID string, from, to time.Time, includePending bool) ([]model.Adjustment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []model.Adjustment
	for _, a := range m.adjs {
		if a.StaffID != staffID || a.Date.Before(from) || a.Date.After(to) {
			continue
		}
		if !includePending && (a.IsPending || a.RejectedAt != nil) {
			continue
		}
		result = append(result, *a)
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].Date.Equal(result[j].Date) {
			return result[i].Date.Before(result[j].Date)
		}
		return result[i].StartAt.Before(result[j].StartAt)
	})
	return result, nil
}

func (m *mockAdjustmentRepo) ListAwaiting(_ context.Context, filter repository.PendingFilter) ([]model.Adjustment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []model.Adjustment
	for _, a := range m.adjs {
		if !a.IsAwaitingDecision() {
			continue
		}
		if filter.StaffID != "" && a.StaffID != filter.StaffID {
			continue
		}
		if filter.DateFrom != nil && a.Date.Before(*filter.DateFrom) {
			continue
		}
		if filter.DateTo != nil && a.Date.After(*filter.DateTo) {
			continue
		}
		if filter.PendingType != "" && a.PendingType != filter.PendingType {
			continue
		}
		result = append(result, *a)
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].CreatedAt.Before(result[j].CreatedAt)
		}
		return result[i].AdjustmentID < result[j].AdjustmentID
	})
	return result, nil
}

func (m *mockAdjustmentRepo) CreatePendingBatch(_ context.Context, adjs []*model.Adjustment, actor string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	// 部分唯一索引：(staff_id, date, pending_type, start_at) 且仍待裁决
	for _, adj := range adjs {
		for _, ex := range m.adjs {
			if ex.IsAwaitingDecision() &&
				ex.StaffID == adj.StaffID &&
				ex.Date.Equal(adj.Date) &&
				ex.PendingType == adj.PendingType &&
				ex.StartAt.Equal(adj.StartAt) {
				return apperrors.ErrDuplicateRequest
			}
		}
	}

	for _, adj := range adjs {
		m.nextID++
		adj.AdjustmentID = fmt.Sprintf("adj-%d", m.nextID)
		adj.CreatedAt = at
		adj.UpdatedAt = at
		cp := *adj
		m.adjs[adj.AdjustmentID] = &cp
		m.logs.append(model.ApprovalLog{
			AdjustmentID: adj.AdjustmentID,
			FromState:    model.PendingStateDraft,
			ToState:      model.PendingStatePending,
			Actor:        actor,
			CreatedAt:    at,
		})
	}
	return nil
}

func (m *mockAdjustmentRepo) DecideWithLog(_ context.Context, id string, decision repository.Decision) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	adj, ok := m.adjs[id]
	if !ok {
		return apperrors.ErrNotFound
	}
	if !adj.IsAwaitingDecision() {
		return apperrors.ErrAlreadyDecided
	}

	switch decision.ToState {
	case model.PendingStateApproved:
		t := decision.DecidedAt
		adj.ApprovedAt = &t
		adj.IsPending = false
	case model.PendingStateRejected:
		t := decision.DecidedAt
		adj.RejectedAt = &t
		adj.Reason = decision.Reason
	default:
		return apperrors.Validationf("非法裁决状态: %q", decision.ToState)
	}
	adj.UpdatedAt = decision.DecidedAt
	adj.UpdatedBy = &decision.Actor

	m.logs.append(model.ApprovalLog{
		AdjustmentID: id,
		FromState:    model.PendingStatePending,
		ToState:      decision.ToState,
		Actor:        decision.Actor,
		CreatedAt:    decision.DecidedAt,
	})
	return nil
}

// ── Mock ApprovalLogRepository ──

type mockApprovalLogRepo struct {
	mu      sync.Mutex
	entries []model.ApprovalLog
}

func newMockApprovalLogRepo() *mockApprovalLogRepo {
	return &mockApprovalLogRepo{}
}

func (m *mockApprovalLogRepo) append(entry model.ApprovalLog) {
	entry.ApprovalLogID = fmt.Sprintf("log-%d", len(m.entries)+1)
	m.entries = append(m.entries, entry)
}

func (m *mockApprovalLogRepo) Create(_ context.Context, entry *model.ApprovalLog) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.append(*entry)
	return nil
}

func (m *mockApprovalLogRepo) ListByAdjustment(_ context.Context, adjustmentID string) ([]model.ApprovalLog, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []model.ApprovalLog
	for _, e := range m.entries {
		if e.AdjustmentID == adjustmentID {
			result = append(result, e)
		}
	}
	return result, nil
}
