package model

import (
	"fmt"
	"time"
)

// Accepted literal layouts for user-supplied dates. Date-only values are
// interpreted as midnight.
const (
	LayoutDateTime = "2006-01-02T15:04"
	LayoutDateOnly = "2006-01-02"
)

// ParseDateTime parses a form date, preferring date+time over date-only.
func ParseDateTime(value string) (time.Time, error) {
	if t, err := time.Parse(LayoutDateTime, value); err == nil {
		return t, nil
	}
	if t, err := time.Parse(LayoutDateOnly, value); err == nil {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("invalid date %q, expected %s or %s", value, LayoutDateTime, LayoutDateOnly)
}
