package billing

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/diewo77/go-freelance/internal/models"
	"github.com/diewo77/go-freelance/validation"
)

const (
	minutesPerHour = 60
	// A billable day is eight hours.
	minutesPerDay = 8 * minutesPerHour
)

// TimeSummary aggregates the time entries of a project.
type TimeSummary struct {
	TotalMinutes    int
	BillableMinutes int
	Running         int
}

// EntryDuration resolves the duration in minutes of a time entry.
// With an end time it is the whole minutes between start and end; otherwise
// a manual, non negative duration is accepted. Nil means the entry is
// still running.
func EntryDuration(start time.Time, end *time.Time, manual *int) (*int, error) {
	if end != nil {
		if end.Before(start) {
			return nil, Invalid(validation.Violations{"end_time": "before_start"})
		}
		d := int(end.Sub(start) / time.Minute)
		return &d, nil
	}
	if manual != nil {
		if *manual < 0 {
			return nil, Invalid(validation.Violations{"duration": "must_not_be_negative"})
		}
		d := *manual
		return &d, nil
	}
	return nil, nil
}

// SummarizeTime adds up closed entries and counts running ones.
func SummarizeTime(entries []models.TimeEntry) TimeSummary {
	var s TimeSummary
	for _, e := range entries {
		if e.Duration == nil {
			if e.Running() {
				s.Running++
			}
			continue
		}
		s.TotalMinutes += *e.Duration
		if e.Billable {
			s.BillableMinutes += *e.Duration
		}
	}
	return s
}

// BillableValue prices minutes of work at the project's rate.
// Fixed fee projects and projects without a rate have no time based value.
func BillableValue(p models.Project, minutes int) (decimal.Decimal, error) {
	v := validation.Violations{}
	if !p.RateAmount.Valid {
		v["rate_amount"] = "required"
	}
	var per int64
	switch p.RateType {
	case models.RateTypeHourly:
		per = minutesPerHour
	case models.RateTypeDaily:
		per = minutesPerDay
	default:
		v["rate_type"] = "not_time_based"
	}
	if err := Invalid(v); err != nil {
		return decimal.Zero, err
	}
	return p.RateAmount.Decimal.Mul(decimal.NewFromInt(int64(minutes))).Div(decimal.NewFromInt(per)), nil
}
