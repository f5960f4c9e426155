package domain

import (
	"fmt"
	"time"
)

// DateLayout is the calendar date format accepted for report ranges.
const DateLayout = "2006-01-02"

// DateRange is an inclusive range of calendar days, evaluated in UTC.
type DateRange struct {
	Start time.Time
	End   time.Time
}

// NewDateRange builds a range covering every day from start to end.
func NewDateRange(start, end time.Time) (*DateRange, error) {
	s := truncateDay(start)
	e := truncateDay(end)
	if s.After(e) {
		return nil, Reject(RejectionValidation, ErrInvalidDateRange,
			"start date %s is after end date %s", s.Format(DateLayout), e.Format(DateLayout))
	}
	return &DateRange{Start: s, End: e}, nil
}

// ParseDateRange parses two YYYY-MM-DD dates. Both empty means no range.
func ParseDateRange(start, end string) (*DateRange, error) {
	if start == "" && end == "" {
		return nil, nil
	}
	if start == "" || end == "" {
		return nil, Reject(RejectionValidation, ErrInvalidDateRange, "both start and end dates are required")
	}

	s, err := time.Parse(DateLayout, start)
	if err != nil {
		return nil, Reject(RejectionValidation, ErrInvalidDateRange, "invalid start date %q", start)
	}
	e, err := time.Parse(DateLayout, end)
	if err != nil {
		return nil, Reject(RejectionValidation, ErrInvalidDateRange, "invalid end date %q", end)
	}

	return NewDateRange(s, e)
}

// From is the first instant covered by the range.
func (r *DateRange) From() time.Time {
	return r.Start
}

// Until is the first instant after the range.
func (r *DateRange) Until() time.Time {
	return r.End.AddDate(0, 0, 1)
}

// Contains reports whether t falls on one of the covered days.
func (r *DateRange) Contains(t time.Time) bool {
	t = t.UTC()
	return !t.Before(r.From()) && t.Before(r.Until())
}

// String renders the range as "start..end".
func (r *DateRange) String() string {
	return fmt.Sprintf("%s..%s", r.Start.Format(DateLayout), r.End.Format(DateLayout))
}

func truncateDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
