package models

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// DateLayout is the wire format of calendar dates.
const DateLayout = "2006-01-02"

// Date is a calendar date without a time component. The zero value means
// "no date".
type Date struct {
	t time.Time // midnight UTC
}

// MaxDate is the latest representable date. Absent dates order as MaxDate.
var MaxDate = NewDate(9999, time.December, 31)

// NewDate returns the date y-m-d.
func NewDate(year int, month time.Month, day int) Date {
	return Date{t: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// DateOf returns the calendar date of t in t's own location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return NewDate(y, m, d)
}

// ParseDate parses a YYYY-MM-DD date. An RFC 3339 value is truncated to its date.
func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(DateLayout, s); err == nil {
		return DateOf(t), nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q: want %s", s, DateLayout)
	}
	return DateOf(t), nil
}

// MustParseDate is ParseDate for literals; it panics on malformed input.
func MustParseDate(s string) Date {
	d, err := ParseDate(s)
	if err != nil {
		panic(err)
	}
	return d
}

// IsZero reports whether the date is absent.
func (d Date) IsZero() bool {
	return d.t.IsZero()
}

// Compare returns -1, 0 or +1 as d is before, equal to or after o.
func (d Date) Compare(o Date) int {
	return d.t.Compare(o.t)
}

// Before reports whether d is strictly earlier than o.
func (d Date) Before(o Date) bool {
	return d.t.Before(o.t)
}

// OrMax returns d, or MaxDate when d is absent.
func (d Date) OrMax() Date {
	if d.IsZero() {
		return MaxDate
	}
	return d
}

// String formats the date as YYYY-MM-DD, or "" when absent.
func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.t.Format(DateLayout)
}

// MarshalJSON encodes the date as "YYYY-MM-DD", or null when absent.
func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(d.String())
}

// UnmarshalJSON accepts null, "" or a date understood by ParseDate.
func (d *Date) UnmarshalJSON(data []byte) error {
	s, ok, err := jsonString(data)
	if err != nil {
		return err
	}
	if !ok {
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

// jsonString decodes a JSON string. ok is false for null and blank strings.
func jsonString(data []byte) (s string, ok bool, err error) {
	if string(data) == "null" {
		return "", false, nil
	}
	if err := json.Unmarshal(data, &s); err != nil {
		return "", false, err
	}
	if strings.TrimSpace(s) == "" {
		return "", false, nil
	}
	return s, true, nil
}
