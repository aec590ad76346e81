package schedule

import (
	"fmt"
	"time"

	"github.com/beanhaus/shift-scheduling/internal/model"
)

// timeOfDayLayout is the wire and storage form of a shift's start and
// end times.  Minute precision only.
const timeOfDayLayout = "15:04"

// ParseTimeOfDay converts a "15:04" string into minutes after
// midnight.  It returns ErrValidation when the string does not parse.
func ParseTimeOfDay(s string) (int, error) {
	t, err := time.Parse(timeOfDayLayout, s)
	if err != nil {
		return 0, fmt.Errorf("%w: invalid time of day %q", ErrValidation, s)
	}
	return t.Hour()*60 + t.Minute(), nil
}

// IsOvernight reports whether a shift running from start to end rolls
// into the next calendar day.  A shift whose end minute is less than
// or equal to its start minute ends on the following day; equal start
// and end is rejected at validation time, so the <= here only matters
// for already-stored templates.
func IsOvernight(startMin, endMin int) bool {
	return endMin <= startMin
}

// ShiftInterval resolves the absolute start and end instants of a
// template occurring on the given calendar date.  Overnight shifts
// get their end pushed to the next day, so the returned interval can
// be compared directly against intervals from adjacent dates.
func ShiftInterval(t *model.ShiftTemplate, date time.Time) (time.Time, time.Time, error) {
	startMin, err := ParseTimeOfDay(t.StartTime)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	endMin, err := ParseTimeOfDay(t.EndTime)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	day := model.CivilDate(date)
	start := day.Add(time.Duration(startMin) * time.Minute)
	end := day.Add(time.Duration(endMin) * time.Minute)
	if IsOvernight(startMin, endMin) {
		end = end.AddDate(0, 0, 1)
	}
	return start, end, nil
}

// Overlap reports whether two half-open intervals [aStart, aEnd) and
// [bStart, bEnd) share any wall-clock time.  Back-to-back shifts
// where one ends exactly when the other starts do not overlap.
func Overlap(aStart, aEnd, bStart, bEnd time.Time) bool {
	return aStart.Before(bEnd) && bStart.Before(aEnd)
}
