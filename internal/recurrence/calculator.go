// Package recurrence expands recurrence rules into concrete due dates.
// All arithmetic operates on calendar dates (UTC midnight, no
// time-of-day component), so results never shift with DST.
package recurrence

import (
	"time"

	"github.com/Dan9191/finance-scheduler/internal/models"
)

// DateOf truncates t to its calendar date in UTC.
func DateOf(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DueDates returns the ordered due dates of def that are strictly after
// its last_generated_date cursor (the start date itself is due when the
// cursor is unset), no later than asOf, and no later than the
// definition's end date when one is set. Pure and deterministic: the
// same inputs always yield the same sequence.
func DueDates(def *models.RecurrenceDefinition, asOf time.Time) ([]time.Time, error) {
	if err := def.Validate(); err != nil {
		return nil, err
	}

	upper := DateOf(asOf)
	if def.EndDate != nil {
		if end := DateOf(*def.EndDate); end.Before(upper) {
			upper = end
		}
	}

	var cursor time.Time
	if def.LastGeneratedDate != nil {
		cursor = DateOf(*def.LastGeneratedDate)
	}

	anchor := DateOf(def.StartDate)
	var due []time.Time
	for k := 0; ; k++ {
		d := nthOccurrence(anchor, def.Frequency, k)
		if d.After(upper) {
			break
		}
		if def.LastGeneratedDate == nil || d.After(cursor) {
			due = append(due, d)
		}
	}
	return due, nil
}

// nthOccurrence computes the k-th scheduled date from the anchor. Month
// and year steps always re-anchor to the original day-of-month before
// clamping, so a clamped step (Jan 31 -> Feb 29) does not drift the
// following ones (Mar 31, not Mar 29).
func nthOccurrence(anchor time.Time, f models.Frequency, k int) time.Time {
	switch f.Kind {
	case models.FrequencyDaily, models.FrequencyCustomDays:
		return anchor.AddDate(0, 0, f.Interval*k)
	case models.FrequencyWeekly:
		return anchor.AddDate(0, 0, 7*f.Interval*k)
	case models.FrequencyMonthly:
		return addMonthsClamped(anchor, f.Interval*k)
	case models.FrequencyYearly:
		return addMonthsClamped(anchor, 12*f.Interval*k)
	}
	return anchor
}

// addMonthsClamped adds months to the anchor keeping its day-of-month,
// clamped to the last day of a shorter target month. time.AddDate is
// unsuitable here: it normalizes Jan 31 + 1 month into Mar 2/3.
func addMonthsClamped(anchor time.Time, months int) time.Time {
	y, m, d := anchor.Date()
	total := int(m) - 1 + months
	ty := y + total/12
	tm := time.Month(total%12 + 1)
	if last := daysInMonth(ty, tm); d > last {
		d = last
	}
	return time.Date(ty, tm, d, 0, 0, 0, 0, time.UTC)
}

func daysInMonth(y int, m time.Month) int {
	// Day 0 of the next month is the last day of this one.
	return time.Date(y, m+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
