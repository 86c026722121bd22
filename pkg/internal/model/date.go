package model

import (
	"database/sql/driver"
	"fmt"
	"strings"
	"time"

	"gorm.io/datatypes"
)

// DateLayout 日期的文本格式.
const DateLayout = "2006-01-02"

// Date 不含时间部分的日历日期，JSON 中为 "YYYY-MM-DD".
type Date time.Time

// NewDate 以 UTC 零点构造日期.
func NewDate(year int, month time.Month, day int) Date {
	return Date(time.Date(year, month, day, 0, 0, 0, 0, time.UTC))
}

// ParseDate 解析 YYYY-MM-DD.
func ParseDate(s string) (Date, error) {
	t, err := time.ParseInLocation(DateLayout, strings.TrimSpace(s), time.UTC)
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q, want YYYY-MM-DD", s)
	}

	return Date(t), nil
}

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}

	return time.Time(d).Format(DateLayout)
}

// IsZero 是否为零值.
func (d Date) IsZero() bool {
	return time.Time(d).IsZero()
}

// Equal 按日历日期比较.
func (d Date) Equal(o Date) bool {
	return d.String() == o.String()
}

// GormDataType 列类型.
func (Date) GormDataType() string {
	return "date"
}

// Value 写库时截断为零点.
func (d Date) Value() (driver.Value, error) {
	return datatypes.Date(d.utcMidnight()).Value()
}

// Scan 兼容驱动返回的 time.Time 以及文本形式.
func (d *Date) Scan(value any) error {
	switch v := value.(type) {
	case nil:
		*d = Date{}
		return nil
	case time.Time:
		*d = NewDate(v.Date())
		return nil
	case string:
		return d.scanText(v)
	case []byte:
		return d.scanText(string(v))
	default:
		var dt datatypes.Date
		if err := dt.Scan(value); err != nil {
			return err
		}

		*d = NewDate(time.Time(dt).Date())

		return nil
	}
}

func (d *Date) scanText(s string) error {
	if len(s) >= len(DateLayout) {
		s = s[:len(DateLayout)]
	}

	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}

	*d = parsed

	return nil
}

func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}

	return []byte(`"` + d.String() + `"`), nil
}

func (d *Date) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		*d = Date{}
		return nil
	}

	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}

	*d = parsed

	return nil
}

func (d Date) utcMidnight() time.Time {
	y, m, day := time.Time(d).Date()
	return time.Date(y, m, day, 0, 0, 0, 0, time.UTC)
}
