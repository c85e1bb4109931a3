package model

import (
	"bytes"
	"database/sql/driver"
	"fmt"
	"strconv"
	"time"
)

// DateTime is a timezone-naive timestamp. The wall clock is always UTC.
type DateTime struct {
	time.Time
}

const naiveOutputLayout = "2006-01-02T15:04:05.999999"

var naiveInputLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04",
}

// NewDateTime drops t's zone by converting to UTC at microsecond precision.
func NewDateTime(t time.Time) DateTime {
	return DateTime{Time: t.UTC().Truncate(time.Microsecond)}
}

// ParseDateTime accepts a naive timestamp or RFC 3339 in UTC ("Z" or a zero
// offset). Any other offset is rejected.
func ParseDateTime(s string) (DateTime, error) {
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		if _, offset := t.Zone(); offset != 0 {
			return DateTime{}, fmt.Errorf("datetime %q must be UTC or carry no offset", s)
		}
		return NewDateTime(t), nil
	}
	for _, layout := range naiveInputLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return NewDateTime(t), nil
		}
	}
	return DateTime{}, fmt.Errorf("invalid datetime %q", s)
}

func (d DateTime) String() string {
	return d.Time.UTC().Format(naiveOutputLayout)
}

func (d DateTime) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return []byte(strconv.Quote(d.String())), nil
}

func (d *DateTime) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		return nil
	}
	s, err := strconv.Unquote(string(data))
	if err != nil {
		return fmt.Errorf("datetime must be a string: %w", err)
	}
	parsed, err := ParseDateTime(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Value stores the UTC wall clock.
func (d DateTime) Value() (driver.Value, error) {
	return d.Time.UTC(), nil
}

func (d *DateTime) Scan(src interface{}) error {
	switch v := src.(type) {
	case time.Time:
		// timestamp columns come back without a meaningful zone; keep the wall clock
		*d = NewDateTime(time.Date(v.Year(), v.Month(), v.Day(), v.Hour(), v.Minute(), v.Second(), v.Nanosecond(), time.UTC))
		return nil
	case []byte:
		return d.scanString(string(v))
	case string:
		return d.scanString(v)
	case nil:
		*d = DateTime{}
		return nil
	default:
		return fmt.Errorf("cannot scan %T into DateTime", src)
	}
}

func (d *DateTime) scanString(s string) error {
	parsed, err := ParseDateTime(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}
