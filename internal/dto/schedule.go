package dto

// ── 排程解析模块 DTO ──

// IntervalDTO 单个状态区间（本地墙上时间，半开区间 [start, end)）
type IntervalDTO struct {
	Status string `json:"status"`
	Start  string `json:"start"` // "HH:MM"
	End    string `json:"end"`   // "HH:MM"（"24:00" 合法）
}

// ProposedIntervalDTO 待审批预览区间（不参与权威时间线）
type ProposedIntervalDTO struct {
	IntervalDTO
	PendingID   string `json:"pending_id"`
	PendingType string `json:"pending_type"`
	Memo        string `json:"memo,omitempty"`
}

// ResolvedTimelineResponse 单人单日解析结果
// intervals 按时间升序且互不重叠；未被任何层定义的时段不出现（留空，不合成）
type ResolvedTimelineResponse struct {
	StaffID   string                `json:"staff_id"`
	Date      string                `json:"date"`
	Intervals []IntervalDTO         `json:"intervals"`
	Proposed  []ProposedIntervalDTO `json:"proposed,omitempty"`
}

// MonthTimelineResponse 多人整月解析结果
type MonthTimelineResponse struct {
	Year      int                        `json:"year"`
	Month     int                        `json:"month"`
	Timelines []ResolvedTimelineResponse `json:"timelines"`
}
