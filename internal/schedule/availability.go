package schedule

import (
	"context"
	"sort"
	"time"

	"github.com/beanhaus/shift-scheduling/internal/model"
)

// TemplateSource is the read surface of the shift template store
// consumed by the scheduling core.  GetByID must also return inactive
// templates: historical assignments keep referencing them.
type TemplateSource interface {
	GetByID(ctx context.Context, id uint64) (*model.ShiftTemplate, error)
	ListActive(ctx context.Context) ([]model.ShiftTemplate, error)
}

// WindowSource yields the current planning window configuration.  A
// single Get must return an internally consistent window (start date
// and exclusions from the same configuration write).
type WindowSource interface {
	Get(ctx context.Context) (model.PlanningWindow, error)
}

// Ledger is the assignment ledger: the source of truth for who is
// working when.  Implementations back it with a durable store; the
// in-memory variant used in tests lives next to the coordinator
// tests.
type Ledger interface {
	Insert(ctx context.Context, a *model.ScheduleAssignment) error
	GetByID(ctx context.Context, id uint64) (*model.ScheduleAssignment, error)
	// CountActive returns the number of capacity-holding rows
	// (scheduled or completed) for one (template, date) instance.
	CountActive(ctx context.Context, templateID uint64, date time.Time) (int, error)
	// CountActiveByInstance returns capacity-holding counts for every
	// instance with a schedule date in [from, to], keyed by instance.
	CountActiveByInstance(ctx context.Context, from, to time.Time) (map[InstanceKey]int, error)
	// ActiveByUserBetween returns the user's capacity-holding rows with
	// schedule dates in [from, to].
	ActiveByUserBetween(ctx context.Context, userID uint64, from, to time.Time) ([]model.ScheduleAssignment, error)
	ListByUser(ctx context.Context, userID uint64) ([]model.ScheduleAssignment, error)
	UpdateStatus(ctx context.Context, id uint64, status model.AssignmentStatus, at time.Time) error
}

// Computer derives shift availability from the template store, the
// planning window and the assignment ledger.  It never writes; the
// result is a live view, not a snapshot, and may change between calls
// as claims land.
type Computer struct {
	templates TemplateSource
	window    WindowSource
	ledger    Ledger
}

// NewComputer wires an availability computer over its three read-only
// inputs.
func NewComputer(templates TemplateSource, window WindowSource, ledger Ledger) *Computer {
	return &Computer{templates: templates, window: window, ledger: ledger}
}

// Available expands every active template across the planning window
// and returns the valid instances with live staffing counts, ordered
// by date then template name.
func (c *Computer) Available(ctx context.Context) ([]Instance, error) {
	window, err := c.window.Get(ctx)
	if err != nil {
		return nil, err
	}
	templates, err := c.templates.ListActive(ctx)
	if err != nil {
		return nil, err
	}
	from := window.StartDate
	to := window.StartDate.AddDate(0, 0, window.WindowLengthDays-1)
	counts, err := c.ledger.CountActiveByInstance(ctx, from, to)
	if err != nil {
		return nil, err
	}
	return ExpandTemplates(templates, window, counts), nil
}

// UserShift is one of a user's own assignments joined with enough
// template detail to render it without a second lookup.
type UserShift struct {
	model.ScheduleAssignment
	TemplateName string `json:"name"`
	StartTime    string `json:"start_time"`
	EndTime      string `json:"end_time"`
}

// DaySchedule groups a user's shifts on a single calendar date.
type DaySchedule struct {
	Date   time.Time   `json:"date"`
	Shifts []UserShift `json:"shifts"`
}

// UserSchedule returns all of the caller's assignments grouped by
// date, oldest date first.  Unlike Available it is deliberately
// independent of the planning window so staff can review shifts that
// have already happened or that lie beyond the rolling horizon.
func (c *Computer) UserSchedule(ctx context.Context, userID uint64) ([]DaySchedule, error) {
	rows, err := c.ledger.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	byTemplate := make(map[uint64]*model.ShiftTemplate)
	byDate := make(map[string]*DaySchedule)
	order := make([]string, 0)
	for _, a := range rows {
		t, ok := byTemplate[a.ShiftTemplateID]
		if !ok {
			t, err = c.templates.GetByID(ctx, a.ShiftTemplateID)
			if err != nil {
				return nil, err
			}
			byTemplate[a.ShiftTemplateID] = t
		}
		key := FormatDate(a.ScheduleDate)
		day, ok := byDate[key]
		if !ok {
			day = &DaySchedule{Date: model.CivilDate(a.ScheduleDate)}
			byDate[key] = day
			order = append(order, key)
		}
		day.Shifts = append(day.Shifts, UserShift{
			ScheduleAssignment: a,
			TemplateName:       t.Name,
			StartTime:          t.StartTime,
			EndTime:            t.EndTime,
		})
	}
	sort.Strings(order)
	out := make([]DaySchedule, 0, len(order))
	for _, key := range order {
		day := byDate[key]
		sort.Slice(day.Shifts, func(i, j int) bool {
			if day.Shifts[i].StartTime != day.Shifts[j].StartTime {
				return day.Shifts[i].StartTime < day.Shifts[j].StartTime
			}
			return day.Shifts[i].ID < day.Shifts[j].ID
		})
		out = append(out, *day)
	}
	return out, nil
}
