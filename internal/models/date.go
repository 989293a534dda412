package models

import (
	"bytes"
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// DateLayout は task_date の入出力フォーマット (YYYY-MM-DD) です。
const DateLayout = "2006-01-02"

// Date は時刻を持たないカレンダー日付です。
// JSON では "YYYY-MM-DD" 文字列、DB では TEXT (SQLite) / DATE (MySQL) として扱います。
type Date struct {
	t time.Time
}

// NewDate は年月日から Date を作成します。範囲外の値は time.Date と同様に正規化されます。
func NewDate(year int, month time.Month, day int) Date {
	return Date{t: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// DateOf は t のロケーションにおける日付部分を返します。
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return NewDate(y, m, d)
}

// ParseDate は "YYYY-MM-DD" を厳密に解析します。存在しない日付 (2024-02-30 など) はエラーです。
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return Date{}, err
	}
	return Date{t: t}, nil
}

// MonthStart は指定月の1日を返します。
func MonthStart(year int, month time.Month) Date {
	return NewDate(year, month, 1)
}

func (d Date) Year() int         { return d.t.Year() }
func (d Date) Month() time.Month { return d.t.Month() }
func (d Date) Day() int          { return d.t.Day() }
func (d Date) IsZero() bool      { return d.t.IsZero() }

// AddMonths は months ヶ月後の同じ日を返します (12月は翌年1月に繰り上がります)。
func (d Date) AddMonths(months int) Date {
	return Date{t: d.t.AddDate(0, months, 0)}
}

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.t.Format(DateLayout)
}

// MarshalJSON implements json.Marshaler.
func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(d.String())
}

// UnmarshalJSON implements json.Unmarshaler. null はゼロ値として扱います。
func (d *Date) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		*d = Date{}
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("date must be a string: %w", err)
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return fmt.Errorf("invalid date %q, use YYYY-MM-DD: %w", s, err)
	}
	*d = parsed
	return nil
}

// Value implements driver.Valuer. SQLite の TEXT 比較と MySQL の DATE 比較の両方で使える形式で保存します。
func (d Date) Value() (driver.Value, error) {
	if d.IsZero() {
		return nil, nil
	}
	return d.String(), nil
}

// Scan implements sql.Scanner.
func (d *Date) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*d = Date{}
		return nil
	case time.Time:
		*d = DateOf(v)
		return nil
	case string:
		return d.scanString(v)
	case []byte:
		return d.scanString(string(v))
	default:
		return fmt.Errorf("cannot scan %T into Date", src)
	}
}

func (d *Date) scanString(s string) error {
	// DATE 型の列から "2024-01-02 00:00:00" のような値が返ることがある
	if len(s) > len(DateLayout) {
		s = s[:len(DateLayout)]
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return fmt.Errorf("scan date %q: %w", s, err)
	}
	*d = parsed
	return nil
}
