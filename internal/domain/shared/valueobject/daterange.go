package valueobject

import (
	"errors"
	"fmt"
	"time"
)

// DateRange is a value object representing an inclusive date interval.
// It is immutable and normalized to dates (time component truncated).
type DateRange struct {
	start time.Time
	end   time.Time
}

// NewDateRange creates a DateRange with start before or equal to end
func NewDateRange(start, end time.Time) (DateRange, error) {
	start = truncateToDate(start)
	end = truncateToDate(end)
	if end.Before(start) {
		return DateRange{}, errors.New("end date cannot be before start date")
	}
	return DateRange{start: start, end: end}, nil
}

// NewStrictDateRange creates a DateRange where end must be strictly after start
func NewStrictDateRange(start, end time.Time) (DateRange, error) {
	start = truncateToDate(start)
	end = truncateToDate(end)
	if !end.After(start) {
		return DateRange{}, errors.New("end date must be after start date")
	}
	return DateRange{start: start, end: end}, nil
}

// Start returns the first day of the range
func (r DateRange) Start() time.Time {
	return r.start
}

// End returns the last day of the range
func (r DateRange) End() time.Time {
	return r.end
}

// IsZero returns true for the zero-value range
func (r DateRange) IsZero() bool {
	return r.start.IsZero() && r.end.IsZero()
}

// Days returns the number of calendar days in the range, inclusive
func (r DateRange) Days() int {
	return int(r.end.Sub(r.start).Hours()/24) + 1
}

// Contains reports whether the given date falls within the range, inclusive
func (r DateRange) Contains(t time.Time) bool {
	d := truncateToDate(t)
	return !d.Before(r.start) && !d.After(r.end)
}

// Overlaps reports whether two inclusive ranges share at least one day
func (r DateRange) Overlaps(other DateRange) bool {
	return !r.start.After(other.end) && !other.start.After(r.end)
}

// String returns a human-readable representation
func (r DateRange) String() string {
	return fmt.Sprintf("%s to %s", r.start.Format("2006-01-02"), r.end.Format("2006-01-02"))
}

func truncateToDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
