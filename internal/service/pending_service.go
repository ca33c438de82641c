package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"shiftsync/backend/internal/dto"
	"shiftsync/backend/internal/model"
	"shiftsync/backend/internal/repository"
	"shiftsync/backend/pkg/apperrors"
	"shiftsync/backend/pkg/wallclock"
)

// ── 审批工作流模块业务错误 ──

var (
	ErrStaffInactive = errors.New("员工已离职，不可提交调整")
)

// PendingService 审批工作流业务接口
//
// 状态机：Draft（未持久化）→ Pending → Approved | Rejected（终态不可变）。
// 每次状态迁移与审批日志在同一事务提交，保证全有或全无。
type PendingService interface {
	// Submit 提交待审批调整；同键已有待裁决记录时返回 apperrors.ErrDuplicateRequest
	Submit(ctx context.Context, req *dto.SubmitPendingRequest, actor string) (*dto.SubmitPendingResponse, error)
	// Decide 裁决待审批记录（approve 物化为普通 Layer 3 记录 / reject 仅存档）
	Decide(ctx context.Context, pendingID string, req *dto.DecisionRequest, actor string) error
	// ListPending 查询待裁决记录
	ListPending(ctx context.Context, req *dto.PendingListRequest) ([]dto.PendingRecordResponse, error)
	// Reconcile 收敛同键重复的待裁决记录：保留最早提交，其余以 duplicate 驳回；幂等
	Reconcile(ctx context.Context, req *dto.ReconcileRequest, actor string) (*dto.ReconciliationReport, error)
	// History 查询某条调整的审批日志
	History(ctx context.Context, adjustmentID string) ([]dto.ApprovalLogResponse, error)
}

type pendingService struct {
	repo     *repository.Repository
	conv     wallclock.Converter
	locker   KeyLocker
	fallback KeyLocker // locker 出错时的进程内兜底（单实例互斥仍然成立）
	lockTTL  time.Duration
	logger   *zap.Logger
}

// NewPendingService 创建 PendingService 实例
func NewPendingService(repo *repository.Repository, conv wallclock.Converter, locker KeyLocker, lockTTL time.Duration, logger *zap.Logger) PendingService {
	return &pendingService{
		repo:     repo,
		conv:     conv,
		locker:   locker,
		fallback: NewLocalKeyLocker(),
		lockTTL:  lockTTL,
		logger:   logger,
	}
}

// ════════════════════════════════════════════════════════════
// Submit — 提交待审批调整
// ════════════════════════════════════════════════════════════
//
// 流程：
//   1. 校验员工、日期与区间（格式 / 日界 / 互不重叠 / 状态码）
//   2. 以 (staff, date, pending_type) 为键获取互斥锁
//   3. 锁内查重：同键已有待裁决记录 → ErrDuplicateRequest
//   4. 单事务插入全部区间记录 + draft→pending 审批日志
//
// 锁服务出错时降级为进程内锁：跨实例互斥失效，但单实例内的
// "查重 + 插入"仍然串行；跨实例漏网的重复由存储层唯一索引
// （起始时刻不同时索引拦不住）和 Reconcile 共同收敛——绕过
// 本方法的写入路径（如批量导入）产生的重复同理

func (s *pendingService) Submit(ctx context.Context, req *dto.SubmitPendingRequest, actor string) (*dto.SubmitPendingResponse, error) {
	staff, err := s.repo.Staff.GetByID(ctx, req.StaffID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrStaffNotFound
		}
		s.logger.Error("查询员工失败", zap.Error(err))
		return nil, apperrors.StoreUnavailable(err)
	}
	if !staff.IsActive {
		return nil, ErrStaffInactive
	}

	date, err := wallclock.ParseDate(req.Date)
	if err != nil {
		return nil, err
	}

	pendingType := req.PendingType
	if pendingType == "" {
		pendingType = model.DefaultPendingType
	}

	ranges, err := s.validateIntervals(req.Intervals)
	if err != nil {
		return nil, err
	}

	// ── 按键互斥：并发同键提交只允许一个进入查重临界区 ──
	key := fmt.Sprintf("%s|%s|%s", req.StaffID, date, pendingType)
	locker := s.locker
	token, ok, lockErr := locker.TryLock(ctx, key, s.lockTTL)
	if lockErr != nil {
		s.logger.Warn("获取提交互斥锁失败，降级为进程内锁", zap.Error(lockErr))
		locker = s.fallback
		token, ok, _ = locker.TryLock(ctx, key, s.lockTTL)
	}
	if !ok {
		return nil, apperrors.ErrDuplicateRequest
	}
	defer func() {
		if err := locker.Unlock(ctx, key, token); err != nil {
			s.logger.Warn("释放提交互斥锁失败", zap.Error(err))
		}
	}()

	day := date.Time()
	existing, err := s.repo.Adjustment.ListAwaiting(ctx, repository.PendingFilter{
		StaffID:     req.StaffID,
		DateFrom:    &day,
		DateTo:      &day,
		PendingType: pendingType,
	})
	if err != nil {
		s.logger.Error("查重失败", zap.Error(err))
		return nil, apperrors.StoreUnavailable(err)
	}
	if len(existing) > 0 {
		return nil, apperrors.ErrDuplicateRequest
	}

	// 一次提交的多个区间共享 batch_id，整体落库
	var batchID *string
	if len(ranges) > 1 {
		id := uuid.New().String()
		batchID = &id
	}

	now := time.Now().UTC()
	adjs := make([]*model.Adjustment, 0, len(ranges))
	for i, r := range ranges {
		startAt, err := s.conv.ToInstant(date, r.Start)
		if err != nil {
			return nil, err
		}
		endAt, err := s.conv.ToInstant(date, r.End)
		if err != nil {
			return nil, err
		}
		adjs = append(adjs, &model.Adjustment{
			StaffID:     req.StaffID,
			Date:        day,
			Status:      req.Intervals[i].Status,
			StartAt:     startAt,
			EndAt:       endAt,
			Memo:        req.Memo,
			IsPending:   true,
			PendingType: pendingType,
			BatchID:     batchID,
			VersionedModel: model.VersionedModel{
				BaseModel: model.BaseModel{CreatedBy: &actor, UpdatedBy: &actor},
			},
		})
	}

	if err := s.repo.Adjustment.CreatePendingBatch(ctx, adjs, actor, now); err != nil {
		if errors.Is(err, apperrors.ErrDuplicateRequest) {
			return nil, err
		}
		s.logger.Error("提交待审批记录失败", zap.Error(err))
		return nil, apperrors.StoreUnavailable(err)
	}

	ids := make([]string, 0, len(adjs))
	for _, adj := range adjs {
		ids = append(ids, adj.AdjustmentID)
	}
	s.logger.Info("待审批调整已提交",
		zap.String("staff_id", req.StaffID),
		zap.String("date", date.String()),
		zap.String("pending_type", pendingType),
		zap.Int("intervals", len(ids)),
	)
	return &dto.SubmitPendingResponse{PendingIDs: ids}, nil
}

// validateIntervals 校验区间集合：格式合法、落在日界内、互不重叠、状态码合法
func (s *pendingService) validateIntervals(intervals []dto.IntervalDTO) ([]wallclock.Range, error) {
	if len(intervals) == 0 {
		return nil, apperrors.Validation("区间不能为空")
	}

	ranges := make([]wallclock.Range, 0, len(intervals))
	for _, iv := range intervals {
		if !model.IsValidStatus(iv.Status) {
			return nil, apperrors.Validationf("非法状态码: %q", iv.Status)
		}
		start, err := wallclock.ParseLocalTime(iv.Start)
		if err != nil {
			return nil, err
		}
		end, err := wallclock.ParseLocalTime(iv.End)
		if err != nil {
			return nil, err
		}
		if start >= end {
			return nil, apperrors.Validationf("区间起止颠倒或为空: %s-%s", iv.Start, iv.End)
		}
		ranges = append(ranges, wallclock.Range{Start: start, End: end})
	}

	// 半开区间互不重叠（端点相接合法）
	sorted := make([]wallclock.Range, len(ranges))
	copy(sorted, ranges)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Start < sorted[j].Start })
	for i := 1; i < len(sorted); i++ {
		if sorted[i].Start < sorted[i-1].End {
			return nil, apperrors.Validationf("区间重叠: %s 与 %s", sorted[i-1], sorted[i])
		}
	}

	return ranges, nil
}

// ════════════════════════════════════════════════════════════
// Decide — 裁决
// ════════════════════════════════════════════════════════════

func (s *pendingService) Decide(ctx context.Context, pendingID string, req *dto.DecisionRequest, actor string) error {
	var toState string
	switch req.Decision {
	case "approve":
		toState = model.PendingStateApproved
	case "reject":
		toState = model.PendingStateRejected
	default:
		return apperrors.Validationf("非法裁决动作: %q", req.Decision)
	}

	err := s.repo.Adjustment.DecideWithLog(ctx, pendingID, repository.Decision{
		ToState:   toState,
		DecidedAt: time.Now().UTC(),
		Actor:     actor,
		Reason:    req.Reason,
	})
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) || errors.Is(err, apperrors.ErrAlreadyDecided) {
			return err
		}
		s.logger.Error("裁决失败", zap.String("pending_id", pendingID), zap.Error(err))
		return apperrors.StoreUnavailable(err)
	}

	s.logger.Info("待审批调整已裁决",
		zap.String("pending_id", pendingID),
		zap.String("to_state", toState),
		zap.String("actor", actor),
	)
	return nil
}

// ════════════════════════════════════════════════════════════
// ListPending — 待裁决列表
// ════════════════════════════════════════════════════════════

func (s *pendingService) ListPending(ctx context.Context, req *dto.PendingListRequest) ([]dto.PendingRecordResponse, error) {
	filter := repository.PendingFilter{
		StaffID:     req.StaffID,
		PendingType: req.PendingType,
	}
	if req.DateFrom != "" {
		d, err := wallclock.ParseDate(req.DateFrom)
		if err != nil {
			return nil, err
		}
		t := d.Time()
		filter.DateFrom = &t
	}
	if req.DateTo != "" {
		d, err := wallclock.ParseDate(req.DateTo)
		if err != nil {
			return nil, err
		}
		t := d.Time()
		filter.DateTo = &t
	}

	adjs, err := s.repo.Adjustment.ListAwaiting(ctx, filter)
	if err != nil {
		s.logger.Error("查询待审批列表失败", zap.Error(err))
		return nil, apperrors.StoreUnavailable(err)
	}

	out := make([]dto.PendingRecordResponse, 0, len(adjs))
	for _, adj := range adjs {
		out = append(out, s.toPendingResponse(&adj))
	}
	return out, nil
}

// ════════════════════════════════════════════════════════════
// Reconcile — 重复待审批收敛
// ════════════════════════════════════════════════════════════
//
// 外部批量导入路径可能绕过 Submit 的查重产生同键重复。
// 收敛规则：按 (staff, date, pending_type) 分组，保留最早提交
// （created_at 最小，同批 batch_id 的兄弟行一并保留），
// 其余以 duplicate 驳回。驳回走与 Decide 相同的 CAS 路径，
// 与在途裁决竞争失败的记录计入 skipped。无重复时为空操作（幂等）。

func (s *pendingService) Reconcile(ctx context.Context, req *dto.ReconcileRequest, actor string) (*dto.ReconciliationReport, error) {
	filter := repository.PendingFilter{StaffID: req.StaffID}
	if req.Date != "" {
		d, err := wallclock.ParseDate(req.Date)
		if err != nil {
			return nil, err
		}
		t := d.Time()
		filter.DateFrom = &t
		filter.DateTo = &t
	}

	adjs, err := s.repo.Adjustment.ListAwaiting(ctx, filter)
	if err != nil {
		s.logger.Error("扫描待审批记录失败", zap.Error(err))
		return nil, apperrors.StoreUnavailable(err)
	}

	report := &dto.ReconciliationReport{Scanned: len(adjs), Entries: []dto.ReconcileEntry{}}

	// 按键分组（ListAwaiting 已按 created_at, id 升序返回）
	type group struct {
		key  [3]string
		rows []model.Adjustment
	}
	index := make(map[[3]string]int)
	groups := make([]group, 0)
	for _, adj := range adjs {
		k := [3]string{adj.StaffID, adj.Date.Format("2006-01-02"), adj.PendingType}
		i, ok := index[k]
		if !ok {
			i = len(groups)
			index[k] = i
			groups = append(groups, group{key: k})
		}
		groups[i].rows = append(groups[i].rows, adj)
	}

	for _, g := range groups {
		// 提交单位：同批 batch_id 视作一次提交，无批次的行各自成一次提交
		submissionOf := func(a *model.Adjustment) string {
			if a.BatchID != nil {
				return *a.BatchID
			}
			return a.AdjustmentID
		}
		keep := submissionOf(&g.rows[0])

		entry := dto.ReconcileEntry{
			StaffID:     g.key[0],
			Date:        g.key[1],
			PendingType: g.key[2],
			KeptID:      g.rows[0].AdjustmentID,
		}
		for i := range g.rows {
			row := &g.rows[i]
			if submissionOf(row) == keep {
				continue
			}
			err := s.repo.Adjustment.DecideWithLog(ctx, row.AdjustmentID, repository.Decision{
				ToState:   model.PendingStateRejected,
				DecidedAt: time.Now().UTC(),
				Actor:     actor,
				Reason:    "duplicate",
			})
			switch {
			case err == nil:
				entry.RejectedIDs = append(entry.RejectedIDs, row.AdjustmentID)
				report.Rejected++
			case errors.Is(err, apperrors.ErrAlreadyDecided), errors.Is(err, apperrors.ErrNotFound):
				// 与在途裁决竞争失败：裁决方已处理，跳过即可
				entry.SkippedIDs = append(entry.SkippedIDs, row.AdjustmentID)
				report.Skipped++
			default:
				s.logger.Error("收敛驳回失败", zap.String("adjustment_id", row.AdjustmentID), zap.Error(err))
				return nil, apperrors.StoreUnavailable(err)
			}
		}
		if len(entry.RejectedIDs) > 0 || len(entry.SkippedIDs) > 0 {
			report.DuplicateGroups++
			report.Entries = append(report.Entries, entry)
		}
	}

	if report.Rejected > 0 {
		s.logger.Info("重复待审批收敛完成",
			zap.Int("scanned", report.Scanned),
			zap.Int("rejected", report.Rejected),
			zap.Int("skipped", report.Skipped),
		)
	}
	return report, nil
}

// ════════════════════════════════════════════════════════════
// History — 审批日志
// ════════════════════════════════════════════════════════════

func (s *pendingService) History(ctx context.Context, adjustmentID string) ([]dto.ApprovalLogResponse, error) {
	if _, err := s.repo.Adjustment.GetByID(ctx, adjustmentID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		s.logger.Error("查询调整记录失败", zap.Error(err))
		return nil, apperrors.StoreUnavailable(err)
	}

	entries, err := s.repo.ApprovalLog.ListByAdjustment(ctx, adjustmentID)
	if err != nil {
		s.logger.Error("查询审批日志失败", zap.Error(err))
		return nil, apperrors.StoreUnavailable(err)
	}

	out := make([]dto.ApprovalLogResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, dto.ApprovalLogResponse{
			FromState: e.FromState,
			ToState:   e.ToState,
			Actor:     e.Actor,
			CreatedAt: e.CreatedAt.Format(time.RFC3339),
		})
	}
	return out, nil
}

// toPendingResponse 模型转响应
func (s *pendingService) toPendingResponse(adj *model.Adjustment) dto.PendingRecordResponse {
	_, startLocal := s.conv.FromInstant(adj.StartAt)
	end := s.endLocal(adj.EndAt)

	resp := dto.PendingRecordResponse{
		ID:          adj.AdjustmentID,
		StaffID:     adj.StaffID,
		Date:        adj.Date.Format("2006-01-02"),
		Status:      adj.Status,
		Start:       startLocal.String(),
		End:         end,
		Memo:        adj.Memo,
		Reason:      adj.Reason,
		PendingType: adj.PendingType,
		State:       adj.State(),
		BatchID:     adj.BatchID,
		CreatedAt:   adj.CreatedAt.Format(time.RFC3339),
	}
	if adj.ApprovedAt != nil {
		v := adj.ApprovedAt.Format(time.RFC3339)
		resp.ApprovedAt = &v
	}
	if adj.RejectedAt != nil {
		v := adj.RejectedAt.Format(time.RFC3339)
		resp.RejectedAt = &v
	}
	return resp
}

// endLocal 区间结束时刻的展示：次日 00:00 显示为 "24:00"
func (s *pendingService) endLocal(endAt time.Time) string {
	if _, t := s.conv.FromInstant(endAt); t != 0 {
		return t.String()
	}
	return wallclock.LocalTime(wallclock.MinutesPerDay).String()
}
