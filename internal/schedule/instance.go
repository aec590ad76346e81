package schedule

import (
	"sort"
	"time"

	"github.com/beanhaus/shift-scheduling/internal/model"
)

// Urgency classifies how understaffed an instance is.  The label is
// advisory, for operator triage and UI badges only; it never gates a
// claim.
type Urgency string

const (
	UrgencyUrgent Urgency = "urgent" // below minimum staffing
	UrgencyMedium Urgency = "medium" // minimum met, below 70% of capacity
	UrgencyLow    Urgency = "low"    // comfortably staffed
)

// UrgencyFor derives the advisory urgency from the current staffing
// count and the template's bounds.
func UrgencyFor(currentStaff, minStaff, maxStaff int) Urgency {
	switch {
	case currentStaff < minStaff:
		return UrgencyUrgent
	case float64(currentStaff) < 0.7*float64(maxStaff):
		return UrgencyMedium
	default:
		return UrgencyLow
	}
}

// InstanceKey identifies one concrete occurrence of a template on a
// calendar date.  The date is in "2006-01-02" form so the key is
// comparable and usable as a map key.
type InstanceKey struct {
	TemplateID uint64
	Date       string
}

// Key builds the InstanceKey for a template occurrence.
func Key(templateID uint64, date time.Time) InstanceKey {
	return InstanceKey{TemplateID: templateID, Date: FormatDate(date)}
}

// Instance is a derived, never-persisted occurrence of a shift
// template on a single date, annotated with live staffing counts.
type Instance struct {
	TemplateID   uint64    `json:"shift_template_id"`
	TemplateName string    `json:"name"`
	Date         time.Time `json:"date"`
	StartTime    string    `json:"start_time"`
	EndTime      string    `json:"end_time"`
	IsOvernight  bool      `json:"is_overnight"`
	MinStaff     int       `json:"min_staff"`
	MaxStaff     int       `json:"max_staff"`
	BreakMinutes int       `json:"break_minutes"`
	CurrentStaff int       `json:"current_staff"`
	SpotsLeft    int       `json:"spots_left"`
	Urgency      Urgency   `json:"urgency"`
}

// InstanceValid reports whether the template instantiates on the
// given date under the planning window: the template must be active,
// recur on that weekday, the date must sit inside the window, not be
// excluded, and fall within the template's effective range.  Claim
// validation and availability expansion share this single definition.
func InstanceValid(t *model.ShiftTemplate, window model.PlanningWindow, date time.Time) bool {
	d := model.CivilDate(date)
	if !t.Active || len(t.AvailableDays) == 0 {
		return false
	}
	if !t.RunsOn(d.Weekday()) {
		return false
	}
	if !window.Contains(d) || window.Excluded(d) {
		return false
	}
	if t.EffectiveStart != nil && d.Before(model.CivilDate(*t.EffectiveStart)) {
		return false
	}
	if t.EffectiveEnd != nil && d.After(model.CivilDate(*t.EffectiveEnd)) {
		return false
	}
	return true
}

// ExpandTemplates walks every date of the planning window for every
// template and materializes the valid (template, date) pairs as
// instances, annotated with the staffing counts supplied by the
// caller.  The result is ordered by date ascending, then template
// name ascending, then template ID, so repeated calls over the same
// inputs render identically.
func ExpandTemplates(templates []model.ShiftTemplate, window model.PlanningWindow, counts map[InstanceKey]int) []Instance {
	instances := make([]Instance, 0, len(templates)*window.WindowLengthDays)
	for i := range templates {
		t := &templates[i]
		startMin, err := ParseTimeOfDay(t.StartTime)
		if err != nil {
			continue // unparseable stored rows never instantiate
		}
		endMin, err := ParseTimeOfDay(t.EndTime)
		if err != nil {
			continue
		}
		for off := 0; off < window.WindowLengthDays; off++ {
			date := window.StartDate.AddDate(0, 0, off)
			if !InstanceValid(t, window, date) {
				continue
			}
			cur := counts[Key(t.ID, date)]
			instances = append(instances, Instance{
				TemplateID:   t.ID,
				TemplateName: t.Name,
				Date:         date,
				StartTime:    t.StartTime,
				EndTime:      t.EndTime,
				IsOvernight:  IsOvernight(startMin, endMin),
				MinStaff:     t.MinStaff,
				MaxStaff:     t.MaxStaff,
				BreakMinutes: t.BreakMinutes,
				CurrentStaff: cur,
				SpotsLeft:    t.MaxStaff - cur,
				Urgency:      UrgencyFor(cur, t.MinStaff, t.MaxStaff),
			})
		}
	}
	sort.Slice(instances, func(i, j int) bool {
		a, b := instances[i], instances[j]
		if !a.Date.Equal(b.Date) {
			return a.Date.Before(b.Date)
		}
		if a.TemplateName != b.TemplateName {
			return a.TemplateName < b.TemplateName
		}
		return a.TemplateID < b.TemplateID
	})
	return instances
}
