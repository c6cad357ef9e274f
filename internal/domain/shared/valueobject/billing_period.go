package valueobject

import (
	"fmt"
	"time"
)

// DateLayout is the wire and storage layout for calendar dates
const DateLayout = "2006-01-02"

// BillingPeriod is a calendar month represented as [first day, last day]
type BillingPeriod struct {
	start time.Time
	end   time.Time
}

// PeriodOf returns the billing period containing the given date
func PeriodOf(date time.Time) BillingPeriod {
	d := NormalizeDate(date)
	start := time.Date(d.Year(), d.Month(), 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 1, -1)
	return BillingPeriod{start: start, end: end}
}

// NewBillingPeriod rebuilds a period from stored bounds, checking they span exactly one month
func NewBillingPeriod(start, end time.Time) (BillingPeriod, error) {
	p := PeriodOf(start)
	if !p.start.Equal(NormalizeDate(start)) || !p.end.Equal(NormalizeDate(end)) {
		return BillingPeriod{}, fmt.Errorf("billing period %s..%s is not a calendar month",
			start.Format(DateLayout), end.Format(DateLayout))
	}
	return p, nil
}

// NormalizeDate drops the time of day, keeping the calendar date in UTC
func NormalizeDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Start returns the first day of the month
func (p BillingPeriod) Start() time.Time {
	return p.start
}

// End returns the last day of the month
func (p BillingPeriod) End() time.Time {
	return p.end
}

// IsZero returns true for an unset period
func (p BillingPeriod) IsZero() bool {
	return p.start.IsZero()
}

// Contains reports whether the date falls within the period
func (p BillingPeriod) Contains(date time.Time) bool {
	d := NormalizeDate(date)
	return !d.Before(p.start) && !d.After(p.end)
}

// Equals compares both bounds
func (p BillingPeriod) Equals(other BillingPeriod) bool {
	return p.start.Equal(other.start) && p.end.Equal(other.end)
}

// String returns the period as "2024-02"
func (p BillingPeriod) String() string {
	return p.start.Format("2006-01")
}
