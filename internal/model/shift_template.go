package model

import "time"

// ShiftTemplate is the reusable definition of a recurring work shift.
// A template describes when the shift runs within a day, how many
// people it needs, and on which weekdays it recurs.  Concrete
// occurrences on calendar dates are derived by the schedule package
// and are never persisted.
//
// Fields:
//  ID                 - primary key identifier.
//  Name               - display label shown to staff.
//  StartTime, EndTime - time of day in "15:04" form, minute precision.
//                       When EndTime <= StartTime the shift rolls over
//                       into the next calendar day (overnight shift).
//  MinStaff, MaxStaff - staffing bounds; 0 <= MinStaff <= MaxStaff.
//  BreakMinutes       - unpaid break length, informational only.
//  AvailableDays      - weekdays on which the template instantiates.
//                       A template with no days never instantiates.
//  EffectiveStart     - optional first date (inclusive) of validity.
//  EffectiveEnd       - optional last date (inclusive) of validity.
//  Active             - inactive templates are never instantiated but
//                       historical assignments referencing them stay valid.
//  DeactivatedAt      - set when Active transitions to false.
//  DeactivatedReason  - optional operator note recorded on deactivation.
type ShiftTemplate struct {
	ID                uint64         `json:"id"`
	Name              string         `json:"name"`
	StartTime         string         `json:"start_time"`
	EndTime           string         `json:"end_time"`
	MinStaff          int            `json:"min_staff"`
	MaxStaff          int            `json:"max_staff"`
	BreakMinutes      int            `json:"break_minutes"`
	AvailableDays     []time.Weekday `json:"available_days"`
	EffectiveStart    *time.Time     `json:"effective_start,omitempty"`
	EffectiveEnd      *time.Time     `json:"effective_end,omitempty"`
	Active            bool           `json:"active"`
	DeactivatedAt     *time.Time     `json:"deactivated_at,omitempty"`
	DeactivatedReason *string        `json:"deactivated_reason,omitempty"`
	CreatedAt         time.Time      `json:"created_at"`
	UpdatedAt         time.Time      `json:"updated_at"`
}

// RunsOn reports whether the template recurs on the given weekday.
func (t *ShiftTemplate) RunsOn(day time.Weekday) bool {
	for _, d := range t.AvailableDays {
		if d == day {
			return true
		}
	}
	return false
}
