package wallclock

import (
	"fmt"
	"time"

	"shiftsync/backend/pkg/apperrors"
)

// ── 固定时差本地时间模型 ──
//
// 设计说明：
//   - 存储侧统一使用绝对时刻（UTC instant），业务侧统一使用本地墙上时间
//     （日期 + "HH:MM"），两者之间只允许通过本包转换。
//   - 时差为固定偏移（默认 +09:00），不引入时区数据库，也不处理夏令时，
//     保证 ToInstant / FromInstant 严格互逆。
//   - 其他包一律不做偏移运算。

// MinutesPerDay 一天的分钟数，LocalTime 的上界（24:00 仅允许作为区间结束）
const MinutesPerDay = 24 * 60

// Date 业务日期，形如 "2025-04-01"
type Date string

const dateLayout = "2006-01-02"

// ParseDate 解析并校验业务日期
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return "", apperrors.Validation(fmt.Sprintf("日期格式无效: %q", s))
	}
	// time.Parse 接受 "2025-4-1" 之外的宽松写法较少，但仍需保证回写一致
	if t.Format(dateLayout) != s {
		return "", apperrors.Validation(fmt.Sprintf("日期格式无效: %q", s))
	}
	return Date(s), nil
}

// String 返回 "YYYY-MM-DD"
func (d Date) String() string { return string(d) }

// Time 返回该日期 00:00 对应的 time.Time（UTC 纪元中的裸日期，仅用于历法运算）
func (d Date) Time() time.Time {
	t, _ := time.Parse(dateLayout, string(d))
	return t
}

// Weekday 返回日期对应的星期（time.Sunday=0 ... time.Saturday=6）
func (d Date) Weekday() time.Weekday { return d.Time().Weekday() }

// AddDays 返回偏移 n 天后的日期
func (d Date) AddDays(n int) Date {
	return Date(d.Time().AddDate(0, 0, n).Format(dateLayout))
}

// DaysInMonth 返回指定年月的天数
func DaysInMonth(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// DateOf 由年月日构造 Date
func DateOf(year int, month time.Month, day int) Date {
	return Date(time.Date(year, month, day, 0, 0, 0, 0, time.UTC).Format(dateLayout))
}

// ── 本地墙上时间 ──

// LocalTime 自当日 00:00 起的分钟数，取值 0..1440（1440 即 24:00）
type LocalTime int

// ParseLocalTime 解析 "HH:MM"（"24:00" 合法，仅用于区间结束）
// 五个字符逐位校验，拒绝任何非 "两位数字:两位数字" 的写法
func ParseLocalTime(s string) (LocalTime, error) {
	if len(s) != 5 || s[2] != ':' ||
		!isDigit(s[0]) || !isDigit(s[1]) || !isDigit(s[3]) || !isDigit(s[4]) {
		return 0, apperrors.Validation(fmt.Sprintf("时刻格式无效: %q", s))
	}
	h := int(s[0]-'0')*10 + int(s[1]-'0')
	m := int(s[3]-'0')*10 + int(s[4]-'0')
	if m > 59 || h > 24 || (h == 24 && m != 0) {
		return 0, apperrors.Validation(fmt.Sprintf("时刻超出 00:00-24:00 范围: %q", s))
	}
	return LocalTime(h*60 + m), nil
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

// Valid 检查是否在 00:00-24:00 范围内
func (t LocalTime) Valid() bool { return t >= 0 && t <= MinutesPerDay }

// String 返回 "HH:MM"
func (t LocalTime) String() string {
	return fmt.Sprintf("%02d:%02d", int(t)/60, int(t)%60)
}

// Range 半开本地时间区间 [Start, End)
type Range struct {
	Start LocalTime
	End   LocalTime
}

// ParseRange 解析 "HH:MM-HH:MM"，要求 Start < End
func ParseRange(s string) (Range, error) {
	if len(s) != 11 || s[5] != '-' {
		return Range{}, apperrors.Validation(fmt.Sprintf("时间段格式无效: %q", s))
	}
	start, err := ParseLocalTime(s[:5])
	if err != nil {
		return Range{}, err
	}
	end, err := ParseLocalTime(s[6:])
	if err != nil {
		return Range{}, err
	}
	if start >= end {
		return Range{}, apperrors.Validation(fmt.Sprintf("时间段起止颠倒或为空: %q", s))
	}
	return Range{Start: start, End: end}, nil
}

// String 返回 "HH:MM-HH:MM"
func (r Range) String() string { return r.Start.String() + "-" + r.End.String() }

// ── 转换器 ──

// Converter 本地墙上时间与绝对时刻之间的唯一转换点
type Converter struct {
	offsetMinutes int
	loc           *time.Location
}

// NewConverter 创建固定偏移转换器（offsetMinutes 如 +540 表示 UTC+9）
func NewConverter(offsetMinutes int) Converter {
	sign := "+"
	abs := offsetMinutes
	if abs < 0 {
		sign = "-"
		abs = -abs
	}
	name := fmt.Sprintf("UTC%s%02d:%02d", sign, abs/60, abs%60)
	return Converter{
		offsetMinutes: offsetMinutes,
		loc:           time.FixedZone(name, offsetMinutes*60),
	}
}

// Offset 返回固定偏移的分钟数
func (c Converter) Offset() int { return c.offsetMinutes }

// Location 返回固定偏移对应的 time.Location（供序列化展示使用）
func (c Converter) Location() *time.Location { return c.loc }

// ToInstant 将 (日期, 本地时刻) 转换为绝对时刻（UTC）
// t 允许为 1440（24:00），落到次日 00:00
func (c Converter) ToInstant(d Date, t LocalTime) (time.Time, error) {
	if !t.Valid() {
		return time.Time{}, apperrors.Validation(fmt.Sprintf("时刻超出 00:00-24:00 范围: %d 分钟", int(t)))
	}
	base := d.Time()
	local := time.Date(base.Year(), base.Month(), base.Day(), 0, int(t), 0, 0, c.loc)
	return local.UTC(), nil
}

// FromInstant 将绝对时刻还原为 (日期, 本地时刻)，为 ToInstant 的严格逆运算
// 注意：次日 00:00 还原为次日的 00:00 而非前一日的 24:00
func (c Converter) FromInstant(instant time.Time) (Date, LocalTime) {
	local := instant.In(c.loc)
	d := Date(local.Format(dateLayout))
	return d, LocalTime(local.Hour()*60 + local.Minute())
}
