package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"shiftsync/backend/internal/dto"
	"shiftsync/backend/internal/service"
	"shiftsync/backend/pkg/apperrors"
	"shiftsync/backend/pkg/response"
	"shiftsync/backend/pkg/wallclock"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// ═══════════════════════════════════════════════════════════
// Mock Services
// ═══════════════════════════════════════════════════════════

// ── Mock ResolutionService ──

type mockResolutionService struct {
	dayResult   *dto.ResolvedTimelineResponse
	dayErr      error
	monthResult *dto.MonthTimelineResponse
	monthErr    error
}

func (m *mockResolutionService) ResolveDay(_ context.Context, _ string, _ wallclock.Date) (*dto.ResolvedTimelineResponse, error) {
	return m.dayResult, m.dayErr
}
func (m *mockResolutionService) ResolveMonth(_ context.Context, _ []string, _ int, _ time.Month) (*dto.MonthTimelineResponse, error) {
	return m.monthResult, m.monthErr
}

// ── Mock PendingService ──

type mockPendingService struct {
	submitResult    *dto.SubmitPendingResponse
	submitErr       error
	decideErr       error
	listResult      []dto.PendingRecordResponse
	listErr         error
	reconcileResult *dto.ReconciliationReport
	reconcileErr    error
	historyResult   []dto.ApprovalLogResponse
	historyErr      error
}

func (m *mockPendingService) Submit(_ context.Context, _ *dto.SubmitPendingRequest, _ string) (*dto.SubmitPendingResponse, error) {
	return m.submitResult, m.submitErr
}
func (m *mockPendingService) Decide(_ context.Context, _ string, _ *dto.DecisionRequest, _ string) error {
	return m.decideErr
}
func (m *mockPendingService) ListPending(_ context.Context, _ *dto.PendingListRequest) ([]dto.PendingRecordResponse, error) {
	return m.listResult, m.listErr
}
func (m *mockPendingService) Reconcile(_ context.Context, _ *dto.ReconcileRequest, _ string) (*dto.ReconciliationReport, error) {
	return m.reconcileResult, m.reconcileErr
}
func (m *mockPendingService) History(_ context.Context, _ string) ([]dto.ApprovalLogResponse, error) {
	return m.historyResult, m.historyErr
}

// ── Mock ExportService ──

type mockExportService struct {
	buf      *bytes.Buffer
	filename string
	err      error
}

func (m *mockExportService) ExportMonthExcel(_ context.Context, _ []string, _ int, _ time.Month) (*bytes.Buffer, string, error) {
	return m.buf, m.filename, m.err
}
func (m *mockExportService) ExportStaffICS(_ context.Context, _ string, _ int, _ time.Month) (*bytes.Buffer, string, error) {
	return m.buf, m.filename, m.err
}

// ═══════════════════════════════════════════════════════════
// Test Helpers
// ═══════════════════════════════════════════════════════════

func jsonBody(v interface{}) io.Reader {
	b, _ := json.Marshal(v)
	return bytes.NewReader(b)
}

func parseResponse(w *httptest.ResponseRecorder) response.Response {
	var resp response.Response
	json.Unmarshal(w.Body.Bytes(), &resp)
	return resp
}

// withAuth 模拟 JWT 中间件注入的上下文
func withAuth(next gin.HandlerFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("user_id", "test-user-id")
		c.Set("role", "admin")
		next(c)
	}
}

// ═══════════════════════════════════════════════════════════
// ScheduleHandler Tests
// ═══════════════════════════════════════════════════════════

func TestScheduleHandler_Resolve_Success(t *testing.T) {
	mock := &mockResolutionService{
		dayResult: &dto.ResolvedTimelineResponse{
			StaffID: "staff-1",
			Date:    "2025-04-07",
			Intervals: []dto.IntervalDTO{
				{Status: "online", Start: "09:00", End: "18:00"},
			},
		},
	}
	h := NewScheduleHandler(mock)

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/schedules/resolve?staff_id=staff-1&date=2025-04-07", nil)

	r := gin.New()
	r.GET("/schedules/resolve", h.Resolve)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", w.Code)
	}
	resp := parseResponse(w)
	if resp.Code != 0 {
		t.Errorf("expected code 0, got %d", resp.Code)
	}
}

func TestScheduleHandler_Resolve_BadParams(t *testing.T) {
	h := NewScheduleHandler(&mockResolutionService{})
	r := gin.New()
	r.GET("/schedules/resolve", h.Resolve)

	for _, url := range []string{
		"/schedules/resolve?date=2025-04-07",         // 缺 staff_id
		"/schedules/resolve?staff_id=s1",             // 缺 date
		"/schedules/resolve?staff_id=s1&date=bad",    // date 非法
		"/schedules/resolve?staff_id=s1&date=2025-4", // date 非法
	} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest("GET", url, nil))
		if w.Code != http.StatusBadRequest {
			t.Errorf("%s: expected 400, got %d", url, w.Code)
		}
	}
}

func TestScheduleHandler_Resolve_StaffNotFound(t *testing.T) {
	h := NewScheduleHandler(&mockResolutionService{dayErr: service.ErrStaffNotFound})

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/schedules/resolve?staff_id=nope&date=2025-04-07", nil)

	r := gin.New()
	r.GET("/schedules/resolve", h.Resolve)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", w.Code)
	}
	if resp := parseResponse(w); resp.Code != 20404 {
		t.Errorf("expected error code 20404, got %d", resp.Code)
	}
}

func TestScheduleHandler_ResolveMonth_BadYearMonth(t *testing.T) {
	h := NewScheduleHandler(&mockResolutionService{})
	r := gin.New()
	r.GET("/schedules/month", h.ResolveMonth)

	for _, url := range []string{
		"/schedules/month?month=4",
		"/schedules/month?year=2025",
		"/schedules/month?year=1999&month=4",
		"/schedules/month?year=2025&month=13",
	} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest("GET", url, nil))
		if w.Code != http.StatusBadRequest {
			t.Errorf("%s: expected 400, got %d", url, w.Code)
		}
	}
}

// ═══════════════════════════════════════════════════════════
// PendingHandler Tests
// ═══════════════════════════════════════════════════════════

func validSubmitBody() *dto.SubmitPendingRequest {
	return &dto.SubmitPendingRequest{
		StaffID: "5f0c1a4e-9a4b-4a61-89f2-1f2d3c4b5a69",
		Date:    "2025-04-07",
		Intervals: []dto.IntervalDTO{
			{Status: "vacation", Start: "09:00", End: "18:00"},
		},
	}
}

func TestPendingHandler_Submit_Success(t *testing.T) {
	mock := &mockPendingService{
		submitResult: &dto.SubmitPendingResponse{PendingIDs: []string{"adj-1"}},
	}
	h := NewPendingHandler(mock)

	w := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/pendings", jsonBody(validSubmitBody()))
	req.Header.Set("Content-Type", "application/json")

	r := gin.New()
	r.POST("/pendings", withAuth(h.Submit))
	r.ServeHTTP(w, req)

	if w.Code != http.StatusCreated {
		t.Errorf("expected 201, got %d", w.Code)
	}
	if resp := parseResponse(w); resp.Code != 0 {
		t.Errorf("expected code 0, got %d", resp.Code)
	}
}

func TestPendingHandler_Submit_BadJSON(t *testing.T) {
	h := NewPendingHandler(&mockPendingService{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/pendings", bytes.NewReader([]byte("not json")))
	req.Header.Set("Content-Type", "application/json")

	r := gin.New()
	r.POST("/pendings", withAuth(h.Submit))
	r.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
}

func TestPendingHandler_Submit_Unauthenticated(t *testing.T) {
	h := NewPendingHandler(&mockPendingService{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/pendings", jsonBody(validSubmitBody()))
	req.Header.Set("Content-Type", "application/json")

	// 未经过认证中间件 → 上下文中无 user_id
	r := gin.New()
	r.POST("/pendings", h.Submit)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", w.Code)
	}
	if resp := parseResponse(w); resp.Code != 10002 {
		t.Errorf("expected error code 10002, got %d", resp.Code)
	}
}

func TestPendingHandler_Submit_Duplicate(t *testing.T) {
	h := NewPendingHandler(&mockPendingService{submitErr: apperrors.ErrDuplicateRequest})

	w := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/pendings", jsonBody(validSubmitBody()))
	req.Header.Set("Content-Type", "application/json")

	r := gin.New()
	r.POST("/pendings", withAuth(h.Submit))
	r.ServeHTTP(w, req)

	if w.Code != http.StatusConflict {
		t.Errorf("expected 409, got %d", w.Code)
	}
	if resp := parseResponse(w); resp.Code != 21409 {
		t.Errorf("expected error code 21409, got %d", resp.Code)
	}
}

func TestPendingHandler_Decide_AlreadyDecided(t *testing.T) {
	h := NewPendingHandler(&mockPendingService{decideErr: apperrors.ErrAlreadyDecided})

	w := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/pendings/adj-1/decision",
		jsonBody(dto.DecisionRequest{Decision: "approve"}))
	req.Header.Set("Content-Type", "application/json")

	r := gin.New()
	r.POST("/pendings/:id/decision", withAuth(h.Decide))
	r.ServeHTTP(w, req)

	if w.Code != http.StatusConflict {
		t.Errorf("expected 409, got %d", w.Code)
	}
	if resp := parseResponse(w); resp.Code != 21410 {
		t.Errorf("expected error code 21410, got %d", resp.Code)
	}
}

func TestPendingHandler_Decide_NotFound(t *testing.T) {
	h := NewPendingHandler(&mockPendingService{decideErr: apperrors.ErrNotFound})

	w := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/pendings/nope/decision",
		jsonBody(dto.DecisionRequest{Decision: "reject"}))
	req.Header.Set("Content-Type", "application/json")

	r := gin.New()
	r.POST("/pendings/:id/decision", withAuth(h.Decide))
	r.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", w.Code)
	}
	if resp := parseResponse(w); resp.Code != 21404 {
		t.Errorf("expected error code 21404, got %d", resp.Code)
	}
}

func TestPendingHandler_Decide_InvalidAction(t *testing.T) {
	h := NewPendingHandler(&mockPendingService{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/pendings/adj-1/decision",
		jsonBody(map[string]string{"decision": "maybe"}))
	req.Header.Set("Content-Type", "application/json")

	r := gin.New()
	r.POST("/pendings/:id/decision", withAuth(h.Decide))
	r.ServeHTTP(w, req)

	// oneof 绑定校验直接拦截
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
}

func TestPendingHandler_List_Success(t *testing.T) {
	mock := &mockPendingService{
		listResult: []dto.PendingRecordResponse{
			{ID: "adj-1", StaffID: "staff-1", Date: "2025-04-07", State: "pending"},
		},
	}
	h := NewPendingHandler(mock)

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/pendings?date_from=2025-04-01", nil)

	r := gin.New()
	r.GET("/pendings", withAuth(h.List))
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", w.Code)
	}
}

func TestPendingHandler_Reconcile_Success(t *testing.T) {
	mock := &mockPendingService{
		reconcileResult: &dto.ReconciliationReport{Scanned: 3, DuplicateGroups: 1, Rejected: 1},
	}
	h := NewPendingHandler(mock)

	w := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/pendings/reconcile", jsonBody(dto.ReconcileRequest{}))
	req.Header.Set("Content-Type", "application/json")

	r := gin.New()
	r.POST("/pendings/reconcile", withAuth(h.Reconcile))
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", w.Code)
	}
	if resp := parseResponse(w); resp.Code != 0 {
		t.Errorf("expected code 0, got %d", resp.Code)
	}
}

// ═══════════════════════════════════════════════════════════
// ExportHandler Tests
// ═══════════════════════════════════════════════════════════

func TestExportHandler_MonthExcel_Success(t *testing.T) {
	mock := &mockExportService{
		buf:      bytes.NewBufferString("PK fake xlsx"),
		filename: "schedule_2025-04.xlsx",
	}
	h := NewExportHandler(mock)

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/export/month.xlsx?year=2025&month=4", nil)

	r := gin.New()
	r.GET("/export/month.xlsx", h.MonthExcel)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", w.Code)
	}
	if cd := w.Header().Get("Content-Disposition"); cd != `attachment; filename="schedule_2025-04.xlsx"` {
		t.Errorf("Content-Disposition = %s", cd)
	}
}

func TestExportHandler_MonthExcel_NoData(t *testing.T) {
	h := NewExportHandler(&mockExportService{err: service.ErrExportNoData})

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/export/month.xlsx?year=2025&month=4", nil)

	r := gin.New()
	r.GET("/export/month.xlsx", h.MonthExcel)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", w.Code)
	}
	if resp := parseResponse(w); resp.Code != 22002 {
		t.Errorf("expected error code 22002, got %d", resp.Code)
	}
}

func TestExportHandler_StaffICS_MissingStaffID(t *testing.T) {
	h := NewExportHandler(&mockExportService{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/export/staff.ics?year=2025&month=4", nil)

	r := gin.New()
	r.GET("/export/staff.ics", h.StaffICS)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
}

func TestExportHandler_StaffICS_Success(t *testing.T) {
	mock := &mockExportService{
		buf:      bytes.NewBufferString("BEGIN:VCALENDAR\r\nEND:VCALENDAR\r\n"),
		filename: "schedule_staff-1_2025-04.ics",
	}
	h := NewExportHandler(mock)

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/export/staff.ics?staff_id=staff-1&year=2025&month=4", nil)

	r := gin.New()
	r.GET("/export/staff.ics", h.StaffICS)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "text/calendar; charset=utf-8" {
		t.Errorf("Content-Type = %s", ct)
	}
}
