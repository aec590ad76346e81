package schedule

import (
	"fmt"
	"strings"
	"time"

	"github.com/beanhaus/shift-scheduling/internal/model"
)

// weekdayNames maps the lowercase long form of each weekday to its
// time.Weekday value.  Input parsing is case-insensitive and also
// accepts the three-letter abbreviation.
var weekdayNames = map[string]time.Weekday{
	"sunday": time.Sunday, "monday": time.Monday, "tuesday": time.Tuesday,
	"wednesday": time.Wednesday, "thursday": time.Thursday,
	"friday": time.Friday, "saturday": time.Saturday,
	"sun": time.Sunday, "mon": time.Monday, "tue": time.Tuesday,
	"wed": time.Wednesday, "thu": time.Thursday, "fri": time.Friday,
	"sat": time.Saturday,
}

// ParseWeekday resolves a weekday name such as "monday" or "Mon".
func ParseWeekday(s string) (time.Weekday, error) {
	d, ok := weekdayNames[strings.ToLower(strings.TrimSpace(s))]
	if !ok {
		return 0, fmt.Errorf("%w: unknown weekday %q", ErrValidation, s)
	}
	return d, nil
}

// ParseWeekdays resolves a list of weekday names into a deduplicated
// set, preserving first-seen order.
func ParseWeekdays(names []string) ([]time.Weekday, error) {
	seen := make(map[time.Weekday]bool, len(names))
	days := make([]time.Weekday, 0, len(names))
	for _, n := range names {
		d, err := ParseWeekday(n)
		if err != nil {
			return nil, err
		}
		if !seen[d] {
			seen[d] = true
			days = append(days, d)
		}
	}
	return days, nil
}

// dateLayout is the wire and storage form of all civil dates.
const dateLayout = "2006-01-02"

// ParseDate converts a "2006-01-02" string into a UTC-midnight
// time.Time.  It returns ErrValidation when the string does not parse.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: invalid date %q", ErrValidation, s)
	}
	return t, nil
}

// FormatDate renders a civil date back into its wire form.
func FormatDate(t time.Time) string {
	return model.CivilDate(t).Format(dateLayout)
}

// ValidateTemplate checks the structural invariants of a shift
// template and returns ErrValidation describing the first violation.
// The same checks run on create and on update; a template that fails
// them is never written.
func ValidateTemplate(t *model.ShiftTemplate) error {
	if strings.TrimSpace(t.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrValidation)
	}
	startMin, err := ParseTimeOfDay(t.StartTime)
	if err != nil {
		return err
	}
	endMin, err := ParseTimeOfDay(t.EndTime)
	if err != nil {
		return err
	}
	if startMin == endMin {
		return fmt.Errorf("%w: start_time and end_time must differ", ErrValidation)
	}
	if t.MinStaff < 0 {
		return fmt.Errorf("%w: min_staff must not be negative", ErrValidation)
	}
	if t.MinStaff > t.MaxStaff {
		return fmt.Errorf("%w: min_staff %d exceeds max_staff %d", ErrValidation, t.MinStaff, t.MaxStaff)
	}
	if t.BreakMinutes < 0 {
		return fmt.Errorf("%w: break_minutes must not be negative", ErrValidation)
	}
	if len(t.AvailableDays) == 0 {
		return fmt.Errorf("%w: available_days must not be empty", ErrValidation)
	}
	if t.EffectiveStart != nil && t.EffectiveEnd != nil && t.EffectiveEnd.Before(*t.EffectiveStart) {
		return fmt.Errorf("%w: effective_end precedes effective_start", ErrValidation)
	}
	return nil
}
