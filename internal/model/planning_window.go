package model

import "time"

// DefaultWindowLengthDays is the span of the rolling planning window
// when no explicit configuration has been stored.
const DefaultWindowLengthDays = 7

// PlanningWindow is the process-wide configuration of the rolling
// horizon staff may see and claim into.  Dates outside
// [StartDate, StartDate+WindowLengthDays) are never offered, and
// dates in ExcludedDates are removed from visibility regardless of
// template recurrence.  There is exactly one planning window per
// deployment.
type PlanningWindow struct {
	StartDate        time.Time   `json:"start_date"`
	WindowLengthDays int         `json:"window_length_days"`
	ExcludedDates    []time.Time `json:"excluded_dates"`
}

// DefaultPlanningWindow returns the window used before any
// configuration call has been made: it opens tomorrow, spans the
// default length and excludes nothing.
func DefaultPlanningWindow(now time.Time) PlanningWindow {
	return PlanningWindow{
		StartDate:        CivilDate(now).AddDate(0, 0, 1),
		WindowLengthDays: DefaultWindowLengthDays,
	}
}

// Contains reports whether the date falls inside the half-open span
// [StartDate, StartDate+WindowLengthDays).
func (w PlanningWindow) Contains(date time.Time) bool {
	d := CivilDate(date)
	end := w.StartDate.AddDate(0, 0, w.WindowLengthDays)
	return !d.Before(w.StartDate) && d.Before(end)
}

// Excluded reports whether the date has been removed from visibility.
func (w PlanningWindow) Excluded(date time.Time) bool {
	d := CivilDate(date)
	for _, e := range w.ExcludedDates {
		if e.Equal(d) {
			return true
		}
	}
	return false
}

// CivilDate truncates a timestamp to its calendar date at UTC
// midnight.  All schedule dates in the system are normalized through
// this helper so that date comparison is plain time.Time equality.
func CivilDate(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
