package service

import (
	"context"
	"errors"
	"sort"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"shiftsync/backend/internal/dto"
	"shiftsync/backend/internal/model"
	"shiftsync/backend/internal/repository"
	"shiftsync/backend/pkg/apperrors"
	"shiftsync/backend/pkg/wallclock"
)

// ── 解析模块业务错误 ──

var (
	ErrStaffNotFound = errors.New("员工不存在")
)

// ResolutionService 分层排程解析业务接口
//
// 设计说明：
//   - 三层数据（合同基线 → 月度排程 → 已批准调整）按覆盖优先级合并，
//     高层区间在其覆盖范围内完全取代低层，未覆盖的低层剩余部分在边界处切分保留。
//   - 全部区间为半开 [start, end)，结束时刻等于后继开始时刻不算重叠。
//   - 待审批调整绝不混入权威时间线，单独以 proposed 预览返回。
//   - 所有读操作无共享可变状态，可跨 (staff, date) 并行调用。
type ResolutionService interface {
	// ResolveDay 解析单人单日时间线
	ResolveDay(ctx context.Context, staffID string, date wallclock.Date) (*dto.ResolvedTimelineResponse, error)
	// ResolveMonth 解析多人整月时间线；staffIDs 为空时取全部在职员工
	ResolveMonth(ctx context.Context, staffIDs []string, year int, month time.Month) (*dto.MonthTimelineResponse, error)
}

type resolutionService struct {
	repo   *repository.Repository
	conv   wallclock.Converter
	logger *zap.Logger
}

// NewResolutionService 创建 ResolutionService 实例
func NewResolutionService(repo *repository.Repository, conv wallclock.Converter, logger *zap.Logger) ResolutionService {
	return &resolutionService{repo: repo, conv: conv, logger: logger}
}

// ── 内部区间表示 ──

// span 单日内的状态区间（本地分钟，半开）
type span struct {
	status  string
	start   wallclock.LocalTime
	end     wallclock.LocalTime
	updated time.Time // 同层重叠时后更新者胜出
}

// ════════════════════════════════════════════════════════════
// ResolveDay — 单人单日解析
// ════════════════════════════════════════════════════════════

func (s *resolutionService) ResolveDay(ctx context.Context, staffID string, date wallclock.Date) (*dto.ResolvedTimelineResponse, error) {
	staff, err := s.repo.Staff.GetByID(ctx, staffID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrStaffNotFound
		}
		s.logger.Error("查询员工失败", zap.Error(err))
		return nil, apperrors.StoreUnavailable(err)
	}

	// 离职员工无可解析排程
	if !staff.IsActive {
		return &dto.ResolvedTimelineResponse{
			StaffID:   staffID,
			Date:      date.String(),
			Intervals: []dto.IntervalDTO{},
		}, nil
	}

	contract, err := s.loadContract(ctx, staffID)
	if err != nil {
		return nil, err
	}

	day := date.Time()
	monthly, err := s.repo.MonthlySchedule.ListByStaffAndDate(ctx, staffID, day)
	if err != nil {
		s.logger.Error("查询月度排程失败", zap.Error(err))
		return nil, apperrors.StoreUnavailable(err)
	}
	adjustments, err := s.repo.Adjustment.ListByStaffAndDate(ctx, staffID, day, false)
	if err != nil {
		s.logger.Error("查询调整记录失败", zap.Error(err))
		return nil, apperrors.StoreUnavailable(err)
	}
	pendings, err := s.repo.Adjustment.ListAwaiting(ctx, repository.PendingFilter{
		StaffID:  staffID,
		DateFrom: &day,
		DateTo:   &day,
	})
	if err != nil {
		s.logger.Error("查询待审批记录失败", zap.Error(err))
		return nil, apperrors.StoreUnavailable(err)
	}

	return s.resolveOne(staffID, date, contract, monthly, adjustments, pendings), nil
}

// ════════════════════════════════════════════════════════════
// ResolveMonth — 多人整月解析
// ════════════════════════════════════════════════════════════
//
// 各层按 (staff, 月) 一次性读出后在内存中按日分组，避免逐日查询

func (s *resolutionService) ResolveMonth(ctx context.Context, staffIDs []string, year int, month time.Month) (*dto.MonthTimelineResponse, error) {
	staffs, err := s.resolveStaffList(ctx, staffIDs)
	if err != nil {
		return nil, err
	}

	first := wallclock.DateOf(year, month, 1)
	days := wallclock.DaysInMonth(year, month)
	from := first.Time()
	to := first.AddDays(days - 1).Time()

	resp := &dto.MonthTimelineResponse{
		Year:      year,
		Month:     int(month),
		Timelines: make([]dto.ResolvedTimelineResponse, 0, len(staffs)*days),
	}

	for _, staff := range staffs {
		// 批量解析只覆盖在职员工
		if !staff.IsActive {
			continue
		}

		contract, err := s.loadContract(ctx, staff.StaffID)
		if err != nil {
			return nil, err
		}
		monthly, err := s.repo.MonthlySchedule.ListByStaffAndRange(ctx, staff.StaffID, from, to)
		if err != nil {
			s.logger.Error("查询月度排程失败", zap.Error(err))
			return nil, apperrors.StoreUnavailable(err)
		}
		adjustments, err := s.repo.Adjustment.ListByStaffAndRange(ctx, staff.StaffID, from, to, false)
		if err != nil {
			s.logger.Error("查询调整记录失败", zap.Error(err))
			return nil, apperrors.StoreUnavailable(err)
		}

		monthlyByDate := make(map[string][]model.MonthlySchedule)
		for _, e := range monthly {
			k := e.Date.Format("2006-01-02")
			monthlyByDate[k] = append(monthlyByDate[k], e)
		}
		adjByDate := make(map[string][]model.Adjustment)
		for _, a := range adjustments {
			k := a.Date.Format("2006-01-02")
			adjByDate[k] = append(adjByDate[k], a)
		}

		for d := 0; d < days; d++ {
			date := first.AddDays(d)
			timeline := s.resolveOne(staff.StaffID, date,
				contract, monthlyByDate[date.String()], adjByDate[date.String()], nil)
			resp.Timelines = append(resp.Timelines, *timeline)
		}
	}

	return resp, nil
}

// resolveStaffList 取目标员工；staffIDs 为空时取全部在职员工
func (s *resolutionService) resolveStaffList(ctx context.Context, staffIDs []string) ([]model.Staff, error) {
	if len(staffIDs) == 0 {
		staffs, err := s.repo.Staff.ListActive(ctx)
		if err != nil {
			s.logger.Error("查询在职员工失败", zap.Error(err))
			return nil, apperrors.StoreUnavailable(err)
		}
		return staffs, nil
	}

	staffs := make([]model.Staff, 0, len(staffIDs))
	for _, id := range staffIDs {
		staff, err := s.repo.Staff.GetByID(ctx, id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrStaffNotFound
			}
			s.logger.Error("查询员工失败", zap.Error(err))
			return nil, apperrors.StoreUnavailable(err)
		}
		staffs = append(staffs, *staff)
	}
	return staffs, nil
}

// loadContract 读取合同；无合同不视为错误（即无 Layer 1 基线）
func (s *resolutionService) loadContract(ctx context.Context, staffID string) (*model.Contract, error) {
	contract, err := s.repo.Contract.GetByStaff(ctx, staffID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		s.logger.Error("查询合同失败", zap.Error(err))
		return nil, apperrors.StoreUnavailable(err)
	}
	return contract, nil
}

// ── 合并核心 ──

// resolveOne 将三层记录合并为单日权威时间线（纯内存运算）
func (s *resolutionService) resolveOne(
	staffID string,
	date wallclock.Date,
	contract *model.Contract,
	monthly []model.MonthlySchedule,
	adjustments []model.Adjustment,
	pendings []model.Adjustment,
) *dto.ResolvedTimelineResponse {
	// Layer 1：合同当日基线（0 或 1 个区间，状态固定 online）
	var timeline []span
	if contract != nil {
		if hours := contract.HoursFor(date.Weekday()); hours != nil {
			r, err := wallclock.ParseRange(*hours)
			if err != nil {
				// 合同数据缺陷：跳过基线，不让单条脏数据拖垮整日解析
				s.logger.Warn("合同工时段格式非法，跳过基线",
					zap.String("staff_id", staffID),
					zap.String("date", date.String()),
					zap.String("hours", *hours),
				)
			} else {
				timeline = []span{{
					status:  model.StatusOnline,
					start:   r.Start,
					end:     r.End,
					updated: contract.UpdatedAt,
				}}
			}
		}
	}

	// Layer 2：月度排程覆盖
	layer2 := make([]span, 0, len(monthly))
	for _, e := range monthly {
		if sp, ok := s.toSpan(date, e.Status, e.StartAt, e.EndAt, e.UpdatedAt); ok {
			layer2 = append(layer2, sp)
		}
	}
	timeline = s.overlayLayer(timeline, layer2, "monthly", staffID, date)

	// Layer 3：已批准调整覆盖
	layer3 := make([]span, 0, len(adjustments))
	for _, a := range adjustments {
		if sp, ok := s.toSpan(date, a.Status, a.StartAt, a.EndAt, a.UpdatedAt); ok {
			layer3 = append(layer3, sp)
		}
	}
	timeline = s.overlayLayer(timeline, layer3, "adjustment", staffID, date)

	resp := &dto.ResolvedTimelineResponse{
		StaffID:   staffID,
		Date:      date.String(),
		Intervals: make([]dto.IntervalDTO, 0, len(timeline)),
	}
	for _, sp := range timeline {
		resp.Intervals = append(resp.Intervals, dto.IntervalDTO{
			Status: sp.status,
			Start:  sp.start.String(),
			End:    sp.end.String(),
		})
	}

	// 待审批记录仅作为预览 overlay 返回，绝不合并进权威时间线
	for _, p := range pendings {
		sp, ok := s.toSpan(date, p.Status, p.StartAt, p.EndAt, p.UpdatedAt)
		if !ok {
			continue
		}
		resp.Proposed = append(resp.Proposed, dto.ProposedIntervalDTO{
			IntervalDTO: dto.IntervalDTO{
				Status: sp.status,
				Start:  sp.start.String(),
				End:    sp.end.String(),
			},
			PendingID:   p.AdjustmentID,
			PendingType: p.PendingType,
			Memo:        p.Memo,
		})
	}
	sort.Slice(resp.Proposed, func(i, j int) bool {
		return resp.Proposed[i].Start < resp.Proposed[j].Start
	})

	return resp
}

// toSpan 将绝对时刻记录换算为当日本地区间，越界部分裁剪到日界内
func (s *resolutionService) toSpan(date wallclock.Date, status string, startAt, endAt, updatedAt time.Time) (span, bool) {
	dayStart, err := s.conv.ToInstant(date, 0)
	if err != nil {
		return span{}, false
	}
	startMin := int(startAt.Sub(dayStart).Minutes())
	endMin := int(endAt.Sub(dayStart).Minutes())
	if startMin < 0 {
		startMin = 0
	}
	if endMin > wallclock.MinutesPerDay {
		endMin = wallclock.MinutesPerDay
	}
	if startMin >= endMin {
		return span{}, false
	}
	return span{
		status:  status,
		start:   wallclock.LocalTime(startMin),
		end:     wallclock.LocalTime(endMin),
		updated: updatedAt,
	}, true
}

// overlayLayer 将一整层覆盖到已合并结果上
// 同层内部先按 updated 升序依次覆盖（后更新者在重叠处胜出），
// 检测到同层重叠时记一条告警，不中断解析
func (s *resolutionService) overlayLayer(base []span, layer []span, layerName, staffID string, date wallclock.Date) []span {
	sort.SliceStable(layer, func(i, j int) bool {
		return layer[i].updated.Before(layer[j].updated)
	})

	merged := make([]span, 0, len(layer))
	for _, sp := range layer {
		if overlapsAny(merged, sp) {
			s.logger.Warn("同层区间重叠，按更新时间取后者",
				zap.String("layer", layerName),
				zap.String("staff_id", staffID),
				zap.String("date", date.String()),
				zap.String("range", sp.start.String()+"-"+sp.end.String()),
			)
		}
		merged = overlay(merged, sp)
	}

	for _, sp := range merged {
		base = overlay(base, sp)
	}
	return base
}

// overlapsAny 半开区间相交检测（端点相接不算重叠）
func overlapsAny(spans []span, sp span) bool {
	for _, ex := range spans {
		if sp.start < ex.end && ex.start < sp.end {
			return true
		}
	}
	return false
}

// overlay 将一个区间覆盖到非重叠有序序列上：
// 被覆盖范围内的既有区间整段移除或在边界处切分，其余保留
func overlay(base []span, over span) []span {
	out := make([]span, 0, len(base)+2)
	inserted := false
	for _, ex := range base {
		if ex.end <= over.start || ex.start >= over.end {
			// 与覆盖范围无交集，原样保留（顺带在正确位置插入覆盖区间）
			if !inserted && ex.start >= over.end {
				out = append(out, over)
				inserted = true
			}
			out = append(out, ex)
			continue
		}
		// 左侧剩余
		if ex.start < over.start {
			out = append(out, span{status: ex.status, start: ex.start, end: over.start, updated: ex.updated})
		}
		if !inserted {
			out = append(out, over)
			inserted = true
		}
		// 右侧剩余
		if ex.end > over.end {
			out = append(out, span{status: ex.status, start: over.end, end: ex.end, updated: ex.updated})
		}
	}
	if !inserted {
		out = append(out, over)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].start < out[j].start })
	return out
}
