package wallclock

import (
	"errors"
	"testing"
	"time"

	"shiftsync/backend/pkg/apperrors"
)

// 往返律：任意合法 (日期, 本地时刻) 经 ToInstant → FromInstant 后原样还原
func TestConverterRoundTrip(t *testing.T) {
	offsets := []int{540, 0, -300, 345} // UTC+9 / UTC / UTC-5 / UTC+5:45

	dates := []string{"2025-01-01", "2025-02-28", "2025-04-07", "2025-12-31", "2024-02-29"}
	times := []int{0, 1, 9 * 60, 12*60 + 30, 23*60 + 59}

	for _, offset := range offsets {
		conv := NewConverter(offset)
		for _, ds := range dates {
			d, err := ParseDate(ds)
			if err != nil {
				t.Fatalf("ParseDate(%q): %v", ds, err)
			}
			for _, m := range times {
				lt := LocalTime(m)
				instant, err := conv.ToInstant(d, lt)
				if err != nil {
					t.Fatalf("ToInstant(%s, %s): %v", d, lt, err)
				}
				gotD, gotT := conv.FromInstant(instant)
				if gotD != d || gotT != lt {
					t.Errorf("offset=%d: 往返失败 (%s, %s) → (%s, %s)", offset, d, lt, gotD, gotT)
				}
			}
		}
	}
}

// 24:00 转换为次日 00:00 的绝对时刻
func TestConverterMidnightEnd(t *testing.T) {
	conv := NewConverter(540)
	d, _ := ParseDate("2025-04-07")

	endOfDay, err := conv.ToInstant(d, LocalTime(MinutesPerDay))
	if err != nil {
		t.Fatalf("ToInstant(24:00): %v", err)
	}
	nextMidnight, _ := conv.ToInstant(d.AddDays(1), 0)
	if !endOfDay.Equal(nextMidnight) {
		t.Errorf("24:00 应等于次日 00:00: %v vs %v", endOfDay, nextMidnight)
	}
}

// UTC+9 下本地 09:00 应等于 UTC 00:00
func TestConverterFixedOffset(t *testing.T) {
	conv := NewConverter(540)
	d, _ := ParseDate("2025-04-07")

	instant, err := conv.ToInstant(d, 9*60)
	if err != nil {
		t.Fatal(err)
	}
	want := time.Date(2025, 4, 7, 0, 0, 0, 0, time.UTC)
	if !instant.Equal(want) {
		t.Errorf("UTC+9 本地 09:00 = %v, want %v", instant, want)
	}
}

func TestParseDateInvalid(t *testing.T) {
	cases := []string{"", "2025/04/07", "2025-13-01", "2025-04-32", "20250407", "2025-4-7"}
	for _, s := range cases {
		if _, err := ParseDate(s); !errors.Is(err, apperrors.ErrValidation) {
			t.Errorf("ParseDate(%q) 应返回校验错误, got %v", s, err)
		}
	}
}

func TestParseLocalTime(t *testing.T) {
	tests := []struct {
		in      string
		want    LocalTime
		wantErr bool
	}{
		{"00:00", 0, false},
		{"09:00", 540, false},
		{"23:59", 1439, false},
		{"24:00", 1440, false},
		{"24:01", 0, true},
		{"25:00", 0, true},
		{"09:60", 0, true},
		{"9:00", 0, true},
		{"0900", 0, true},
		{"ab:cd", 0, true},
		// 分钟位带非数字尾巴不得被静默接受
		{"09:5a", 0, true},
		{"09:0x", 0, true},
		{"0a:00", 0, true},
		{"+9:00", 0, true},
		{"09:+5", 0, true},
		{"09 00", 0, true},
	}
	for _, tt := range tests {
		got, err := ParseLocalTime(tt.in)
		if tt.wantErr {
			if !errors.Is(err, apperrors.ErrValidation) {
				t.Errorf("ParseLocalTime(%q) 应返回校验错误, got %v", tt.in, err)
			}
			continue
		}
		if err != nil || got != tt.want {
			t.Errorf("ParseLocalTime(%q) = %v, %v; want %v", tt.in, got, err, tt.want)
		}
	}
}

func TestParseRange(t *testing.T) {
	r, err := ParseRange("09:00-18:00")
	if err != nil {
		t.Fatal(err)
	}
	if r.Start != 540 || r.End != 1080 {
		t.Errorf("ParseRange = %+v", r)
	}

	for _, s := range []string{"18:00-09:00", "09:00-09:00", "09:00_18:00", "09:00-25:00", "bad"} {
		if _, err := ParseRange(s); !errors.Is(err, apperrors.ErrValidation) {
			t.Errorf("ParseRange(%q) 应返回校验错误, got %v", s, err)
		}
	}
}

func TestDateWeekdayAndMonth(t *testing.T) {
	d, _ := ParseDate("2025-04-07")
	if d.Weekday() != time.Monday {
		t.Errorf("2025-04-07 应为周一, got %v", d.Weekday())
	}
	if got := DaysInMonth(2025, time.April); got != 30 {
		t.Errorf("2025-04 天数 = %d", got)
	}
	if got := DaysInMonth(2024, time.February); got != 29 {
		t.Errorf("2024-02 天数 = %d", got)
	}
	if got := d.AddDays(24); got.String() != "2025-05-01" {
		t.Errorf("AddDays = %s", got)
	}
}
