package schedule

// In-memory implementations of TemplateSource, WindowSource and
// Ledger used by the coordinator and availability tests.  The ledger
// guards its map with a mutex so the concurrency tests exercise the
// coordinator's serialization rather than racing the fake.

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/beanhaus/shift-scheduling/internal/model"
)

type memTemplates struct {
	byID map[uint64]*model.ShiftTemplate
}

func newMemTemplates(templates ...*model.ShiftTemplate) *memTemplates {
	m := &memTemplates{byID: make(map[uint64]*model.ShiftTemplate)}
	for _, t := range templates {
		m.byID[t.ID] = t
	}
	return m
}

func (m *memTemplates) GetByID(_ context.Context, id uint64) (*model.ShiftTemplate, error) {
	t, ok := m.byID[id]
	if !ok {
		return nil, fmt.Errorf("%w: shift template %d", ErrNotFound, id)
	}
	cp := *t
	return &cp, nil
}

func (m *memTemplates) ListActive(_ context.Context) ([]model.ShiftTemplate, error) {
	out := make([]model.ShiftTemplate, 0, len(m.byID))
	for _, t := range m.byID {
		if t.Active {
			out = append(out, *t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

type memWindow struct {
	w model.PlanningWindow
}

func (m *memWindow) Get(_ context.Context) (model.PlanningWindow, error) {
	return m.w, nil
}

type memLedger struct {
	mu     sync.Mutex
	nextID uint64
	rows   map[uint64]*model.ScheduleAssignment
}

func newMemLedger() *memLedger {
	return &memLedger{rows: make(map[uint64]*model.ScheduleAssignment)}
}

func (m *memLedger) Insert(_ context.Context, a *model.ScheduleAssignment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	a.ID = m.nextID
	cp := *a
	m.rows[a.ID] = &cp
	return nil
}

func (m *memLedger) GetByID(_ context.Context, id uint64) (*model.ScheduleAssignment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.rows[id]
	if !ok {
		return nil, fmt.Errorf("%w: schedule %d", ErrNotFound, id)
	}
	cp := *a
	return &cp, nil
}

func (m *memLedger) CountActive(_ context.Context, templateID uint64, date time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	day := model.CivilDate(date)
	n := 0
	for _, a := range m.rows {
		if a.ShiftTemplateID == templateID && a.ScheduleDate.Equal(day) && a.Status.CountsAgainstCapacity() {
			n++
		}
	}
	return n, nil
}

func (m *memLedger) CountActiveByInstance(_ context.Context, from, to time.Time) (map[InstanceKey]int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	counts := make(map[InstanceKey]int)
	for _, a := range m.rows {
		d := model.CivilDate(a.ScheduleDate)
		if d.Before(model.CivilDate(from)) || d.After(model.CivilDate(to)) {
			continue
		}
		if a.Status.CountsAgainstCapacity() {
			counts[Key(a.ShiftTemplateID, d)]++
		}
	}
	return counts, nil
}

func (m *memLedger) ActiveByUserBetween(_ context.Context, userID uint64, from, to time.Time) ([]model.ScheduleAssignment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]model.ScheduleAssignment, 0)
	for _, a := range m.rows {
		d := model.CivilDate(a.ScheduleDate)
		if a.UserID != userID || d.Before(model.CivilDate(from)) || d.After(model.CivilDate(to)) {
			continue
		}
		if a.Status.CountsAgainstCapacity() {
			out = append(out, *a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memLedger) ListByUser(_ context.Context, userID uint64) ([]model.ScheduleAssignment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]model.ScheduleAssignment, 0)
	for _, a := range m.rows {
		if a.UserID == userID {
			out = append(out, *a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memLedger) UpdateStatus(_ context.Context, id uint64, status model.AssignmentStatus, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.rows[id]
	if !ok {
		return fmt.Errorf("%w: schedule %d", ErrNotFound, id)
	}
	a.Status = status
	ts := at.UTC()
	switch status {
	case model.StatusCompleted, model.StatusAbsent:
		a.CompletedAt = &ts
	case model.StatusCancelled:
		a.CancelledAt = &ts
	}
	return nil
}

// statusCounts tallies ledger rows by status for assertions.
func (m *memLedger) statusCounts() map[model.AssignmentStatus]int {
	m.mu.Lock()
	defer m.mu.Unlock()
	counts := make(map[model.AssignmentStatus]int)
	for _, a := range m.rows {
		counts[a.Status]++
	}
	return counts
}

// date builds a UTC civil date for test inputs.
func date(y int, mo time.Month, d int) time.Time {
	return time.Date(y, mo, d, 0, 0, 0, 0, time.UTC)
}
