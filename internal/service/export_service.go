package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	ics "github.com/arran4/golang-ical"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"shiftsync/backend/internal/dto"
	"shiftsync/backend/internal/repository"
	"shiftsync/backend/pkg/apperrors"
	"shiftsync/backend/pkg/wallclock"
)

// ── 导出模块业务错误 ──

var (
	ErrExportNoData       = errors.New("该月无可导出的排程数据")
	ErrExportGenerateFail = errors.New("生成导出文件失败")
)

// ExportService 导出业务接口
//
// 设计说明：
//   - Excel 导出按员工分 Sheet，行=日期，单元格=解析后的状态区间
//   - ICS 导出将单人整月的解析区间逐条转为 VEVENT（固定偏移绝对时刻）
//   - 均以 bytes.Buffer 返回，由 Handler 层设置响应头后写入 Response
type ExportService interface {
	// ExportMonthExcel 导出多人整月解析结果为 Excel
	ExportMonthExcel(ctx context.Context, staffIDs []string, year int, month time.Month) (*bytes.Buffer, string, error)
	// ExportStaffICS 导出单人整月解析结果为 ICS 日历
	ExportStaffICS(ctx context.Context, staffID string, year int, month time.Month) (*bytes.Buffer, string, error)
}

type exportService struct {
	resolution ResolutionService
	repo       *repository.Repository
	conv       wallclock.Converter
	logger     *zap.Logger
}

// NewExportService 创建 ExportService 实例
func NewExportService(resolution ResolutionService, repo *repository.Repository, conv wallclock.Converter, logger *zap.Logger) ExportService {
	return &exportService{resolution: resolution, repo: repo, conv: conv, logger: logger}
}

// ════════════════════════════════════════════════════════════
// ExportMonthExcel — 整月 Excel 导出
// ════════════════════════════════════════════════════════════
//
// 输出格式：
//   - 每位员工一个 Sheet（员工姓名）
//   - A 列日期，B 列起为该日各状态区间 "HH:MM-HH:MM status"

func (s *exportService) ExportMonthExcel(ctx context.Context, staffIDs []string, year int, month time.Month) (*bytes.Buffer, string, error) {
	result, err := s.resolution.ResolveMonth(ctx, staffIDs, year, month)
	if err != nil {
		return nil, "", err
	}
	if len(result.Timelines) == 0 {
		return nil, "", ErrExportNoData
	}

	// 按员工分组（ResolveMonth 按员工、日期有序返回）
	byStaff := make(map[string][]dto.ResolvedTimelineResponse)
	order := make([]string, 0)
	for _, tl := range result.Timelines {
		if _, ok := byStaff[tl.StaffID]; !ok {
			order = append(order, tl.StaffID)
		}
		byStaff[tl.StaffID] = append(byStaff[tl.StaffID], tl)
	}

	f := excelize.NewFile()
	defer f.Close()

	for i, staffID := range order {
		sheet, err := s.sheetName(ctx, staffID)
		if err != nil {
			return nil, "", err
		}

		idx, err := f.NewSheet(sheet)
		if err != nil {
			s.logger.Error("创建 Sheet 失败", zap.Error(err))
			return nil, "", ErrExportGenerateFail
		}
		if i == 0 {
			f.SetActiveSheet(idx)
		}

		_ = f.SetCellValue(sheet, "A1", "日期")
		_ = f.SetCellValue(sheet, "B1", "状态区间")

		row := 2
		for _, tl := range byStaff[staffID] {
			_ = f.SetCellValue(sheet, fmt.Sprintf("A%d", row), tl.Date)
			for col, iv := range tl.Intervals {
				cell, err := excelize.CoordinatesToCellName(col+2, row)
				if err != nil {
					return nil, "", ErrExportGenerateFail
				}
				_ = f.SetCellValue(sheet, cell, fmt.Sprintf("%s-%s %s", iv.Start, iv.End, iv.Status))
			}
			row++
		}
	}
	_ = f.DeleteSheet("Sheet1")

	buf, err := f.WriteToBuffer()
	if err != nil {
		s.logger.Error("写出 Excel 失败", zap.Error(err))
		return nil, "", ErrExportGenerateFail
	}

	filename := fmt.Sprintf("schedule_%04d-%02d.xlsx", year, int(month))
	return buf, filename, nil
}

// ════════════════════════════════════════════════════════════
// ExportStaffICS — 单人整月 ICS 导出
// ════════════════════════════════════════════════════════════

func (s *exportService) ExportStaffICS(ctx context.Context, staffID string, year int, month time.Month) (*bytes.Buffer, string, error) {
	result, err := s.resolution.ResolveMonth(ctx, []string{staffID}, year, month)
	if err != nil {
		return nil, "", err
	}

	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId("-//shiftsync//schedule//CN")

	now := time.Now().UTC()
	count := 0
	for _, tl := range result.Timelines {
		date, err := wallclock.ParseDate(tl.Date)
		if err != nil {
			continue
		}
		for i, iv := range tl.Intervals {
			start, err := wallclock.ParseLocalTime(iv.Start)
			if err != nil {
				continue
			}
			end, err := wallclock.ParseLocalTime(iv.End)
			if err != nil {
				continue
			}
			startAt, err := s.conv.ToInstant(date, start)
			if err != nil {
				continue
			}
			endAt, err := s.conv.ToInstant(date, end)
			if err != nil {
				continue
			}

			event := cal.AddEvent(fmt.Sprintf("%s-%s-%d@shiftsync", staffID, tl.Date, i))
			event.SetCreatedTime(now)
			event.SetDtStampTime(now)
			event.SetStartAt(startAt)
			event.SetEndAt(endAt)
			event.SetSummary(iv.Status)
			count++
		}
	}
	if count == 0 {
		return nil, "", ErrExportNoData
	}

	buf := bytes.NewBufferString(cal.Serialize())
	filename := fmt.Sprintf("schedule_%s_%04d-%02d.ics", staffID, year, int(month))
	return buf, filename, nil
}

// sheetName 以员工姓名作为 Sheet 名（非法字符替换，超长截断）
func (s *exportService) sheetName(ctx context.Context, staffID string) (string, error) {
	staff, err := s.repo.Staff.GetByID(ctx, staffID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return shortID(staffID), nil
		}
		s.logger.Error("查询员工失败", zap.Error(err))
		return "", apperrors.StoreUnavailable(err)
	}

	name := staff.Name
	for _, ch := range []string{":", "\\", "/", "?", "*", "[", "]"} {
		name = strings.ReplaceAll(name, ch, "_")
	}
	if len([]rune(name)) > 31 {
		name = string([]rune(name)[:31])
	}
	if name == "" {
		name = shortID(staffID)
	}
	return name, nil
}

// shortID 截取 UUID 前段作为兜底 Sheet 名
func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
