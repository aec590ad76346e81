package schedule

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/beanhaus/shift-scheduling/internal/model"
)

// testFixture bundles a coordinator over in-memory stores with the
// clock pinned to the evening before the planning window opens.
type testFixture struct {
	templates *memTemplates
	window    *memWindow
	ledger    *memLedger
	co        *Coordinator
}

func newFixture(templates ...*model.ShiftTemplate) *testFixture {
	f := &testFixture{
		templates: newMemTemplates(templates...),
		window: &memWindow{w: model.PlanningWindow{
			StartDate:        date(2026, time.September, 7), // Monday
			WindowLengthDays: 7,
		}},
		ledger: newMemLedger(),
	}
	f.co = NewCoordinator(f.templates, f.window, f.ledger)
	f.co.now = func() time.Time {
		return time.Date(2026, time.September, 6, 18, 0, 0, 0, time.UTC)
	}
	return f
}

func morningTemplate(id uint64, maxStaff int) *model.ShiftTemplate {
	return &model.ShiftTemplate{
		ID:            id,
		Name:          "Morning Bar",
		StartTime:     "06:00",
		EndTime:       "14:00",
		MinStaff:      1,
		MaxStaff:      maxStaff,
		AvailableDays: []time.Weekday{time.Monday},
		Active:        true,
	}
}

func TestClaim_FillsToCapacityThenConflicts(t *testing.T) {
	f := newFixture(morningTemplate(1, 2))
	ctx := context.Background()
	monday := date(2026, time.September, 7)

	for _, userID := range []uint64{10, 11} {
		res, err := f.co.Claim(ctx, userID, 1, monday)
		if err != nil {
			t.Fatalf("user %d claim: %v", userID, err)
		}
		if res.Assignment.Status != model.StatusScheduled {
			t.Errorf("user %d assignment status = %s", userID, res.Assignment.Status)
		}
	}

	_, err := f.co.Claim(ctx, 12, 1, monday)
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("Third claim on a full instance: expected ErrConflict, got %v", err)
	}
	if n := f.ledger.statusCounts()[model.StatusScheduled]; n != 2 {
		t.Errorf("Expected 2 scheduled rows in the ledger, got %d", n)
	}
}

func TestClaim_ResultReflectsStaffing(t *testing.T) {
	f := newFixture(morningTemplate(1, 3))
	ctx := context.Background()
	monday := date(2026, time.September, 7)

	res, err := f.co.Claim(ctx, 10, 1, monday)
	if err != nil {
		t.Fatalf("Claim: %v", err)
	}
	inst := res.Instance
	if inst.CurrentStaff != 1 || inst.SpotsLeft != 2 {
		t.Errorf("Instance counts after first claim: current=%d spots=%d", inst.CurrentStaff, inst.SpotsLeft)
	}
	if inst.Urgency != UrgencyMedium {
		t.Errorf("Urgency after meeting minimum = %s, want medium", inst.Urgency)
	}
	if inst.IsOvernight {
		t.Error("Same-day shift flagged overnight")
	}
	if len(res.Warnings) != 0 {
		t.Errorf("Unexpected warnings on a claim far in advance: %v", res.Warnings)
	}
}

func TestClaim_RejectsInstancesNotOffered(t *testing.T) {
	tpl := morningTemplate(1, 2)
	tpl.AvailableDays = []time.Weekday{time.Monday, time.Wednesday}
	inactive := morningTemplate(2, 2)
	inactive.Active = false
	f := newFixture(tpl, inactive)
	f.window.w.ExcludedDates = []time.Time{date(2026, time.September, 9)}
	ctx := context.Background()

	cases := []struct {
		name       string
		templateID uint64
		day        time.Time
	}{
		{"excluded date", 1, date(2026, time.September, 9)},
		{"weekday without recurrence", 1, date(2026, time.September, 8)},
		{"date outside window", 1, date(2026, time.September, 21)},
		{"inactive template", 2, date(2026, time.September, 7)},
	}
	for _, tc := range cases {
		if _, err := f.co.Claim(ctx, 10, tc.templateID, tc.day); !errors.Is(err, ErrNotFound) {
			t.Errorf("%s: expected ErrNotFound, got %v", tc.name, err)
		}
	}

	if _, err := f.co.Claim(ctx, 10, 99, date(2026, time.September, 7)); !errors.Is(err, ErrNotFound) {
		t.Errorf("Unknown template: expected ErrNotFound, got %v", err)
	}
}

func TestClaim_DuplicateByOneUserConflicts(t *testing.T) {
	f := newFixture(morningTemplate(1, 5))
	ctx := context.Background()
	monday := date(2026, time.September, 7)

	if _, err := f.co.Claim(ctx, 10, 1, monday); err != nil {
		t.Fatalf("First claim: %v", err)
	}
	_, err := f.co.Claim(ctx, 10, 1, monday)
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("Second claim of the same instance by the same user: expected ErrConflict, got %v", err)
	}
}

func TestClaim_OvernightOverlapAcrossDays(t *testing.T) {
	night := &model.ShiftTemplate{
		ID:            1,
		Name:          "Night Close",
		StartTime:     "22:00",
		EndTime:       "06:00",
		MinStaff:      1,
		MaxStaff:      2,
		AvailableDays: []time.Weekday{time.Monday},
		Active:        true,
	}
	earlyOpen := &model.ShiftTemplate{
		ID:            2,
		Name:          "Early Open",
		StartTime:     "05:00",
		EndTime:       "09:00",
		MinStaff:      1,
		MaxStaff:      2,
		AvailableDays: []time.Weekday{time.Tuesday},
		Active:        true,
	}
	lateOpen := &model.ShiftTemplate{
		ID:            3,
		Name:          "Late Open",
		StartTime:     "07:00",
		EndTime:       "12:00",
		MinStaff:      1,
		MaxStaff:      2,
		AvailableDays: []time.Weekday{time.Tuesday},
		Active:        true,
	}
	f := newFixture(night, earlyOpen, lateOpen)
	ctx := context.Background()
	monday := date(2026, time.September, 7)
	tuesday := date(2026, time.September, 8)

	res, err := f.co.Claim(ctx, 10, 1, monday)
	if err != nil {
		t.Fatalf("Overnight claim: %v", err)
	}
	if !res.Instance.IsOvernight {
		t.Error("22:00-06:00 claim not flagged overnight")
	}

	// Tuesday 05:00 starts while Monday's night shift is still running.
	if _, err := f.co.Claim(ctx, 10, 2, tuesday); !errors.Is(err, ErrConflict) {
		t.Fatalf("Overlapping next-day claim: expected ErrConflict, got %v", err)
	}
	// Tuesday 07:00 starts after the 06:00 spillover ends.
	if _, err := f.co.Claim(ctx, 10, 3, tuesday); err != nil {
		t.Fatalf("Non-overlapping next-day claim: %v", err)
	}
	// A different user is unaffected by the first user's night shift.
	if _, err := f.co.Claim(ctx, 11, 2, tuesday); err != nil {
		t.Fatalf("Other user's early claim: %v", err)
	}
}

func TestClaim_ReleaseReopensSlot(t *testing.T) {
	f := newFixture(morningTemplate(1, 1))
	ctx := context.Background()
	monday := date(2026, time.September, 7)

	first, err := f.co.Claim(ctx, 10, 1, monday)
	if err != nil {
		t.Fatalf("Claim: %v", err)
	}
	if _, err := f.co.Claim(ctx, 11, 1, monday); !errors.Is(err, ErrConflict) {
		t.Fatalf("Claim on full instance: expected ErrConflict, got %v", err)
	}

	released, err := f.co.Release(ctx, first.Assignment.ID, 10, model.RoleStaff)
	if err != nil {
		t.Fatalf("Release: %v", err)
	}
	if released.Status != model.StatusCancelled || released.CancelledAt == nil {
		t.Errorf("Released assignment: status=%s cancelled_at=%v", released.Status, released.CancelledAt)
	}

	// The freed slot can be claimed again, by the releaser too.
	res, err := f.co.Claim(ctx, 10, 1, monday)
	if err != nil {
		t.Fatalf("Re-claim after release: %v", err)
	}
	if res.Instance.CurrentStaff != 1 {
		t.Errorf("CurrentStaff after re-claim = %d, want 1", res.Instance.CurrentStaff)
	}

	// The cancelled row stays in the ledger as history.
	counts := f.ledger.statusCounts()
	if counts[model.StatusCancelled] != 1 || counts[model.StatusScheduled] != 1 {
		t.Errorf("Ledger after release and re-claim: %v", counts)
	}
}

func TestRelease_Authorization(t *testing.T) {
	f := newFixture(morningTemplate(1, 3))
	ctx := context.Background()
	monday := date(2026, time.September, 7)

	res, err := f.co.Claim(ctx, 10, 1, monday)
	if err != nil {
		t.Fatalf("Claim: %v", err)
	}

	if _, err := f.co.Release(ctx, res.Assignment.ID, 11, model.RoleStaff); !errors.Is(err, ErrForbidden) {
		t.Fatalf("Staff releasing another user's shift: expected ErrForbidden, got %v", err)
	}
	if _, err := f.co.Release(ctx, res.Assignment.ID, 11, model.RoleManager); err != nil {
		t.Fatalf("Manager releasing another user's shift: %v", err)
	}
}

func TestRelease_PastAndNonScheduledRowsConflict(t *testing.T) {
	f := newFixture(morningTemplate(1, 3))
	ctx := context.Background()
	monday := date(2026, time.September, 7)

	res, err := f.co.Claim(ctx, 10, 1, monday)
	if err != nil {
		t.Fatalf("Claim: %v", err)
	}

	// Same calendar day is still releasable.
	f.co.now = func() time.Time {
		return time.Date(2026, time.September, 7, 3, 0, 0, 0, time.UTC)
	}
	second, err := f.co.Claim(ctx, 11, 1, monday)
	if err != nil {
		t.Fatalf("Second claim: %v", err)
	}
	if _, err := f.co.Release(ctx, second.Assignment.ID, 11, model.RoleStaff); err != nil {
		t.Fatalf("Same-day release: %v", err)
	}
	if _, err := f.co.Release(ctx, second.Assignment.ID, 11, model.RoleStaff); !errors.Is(err, ErrConflict) {
		t.Fatalf("Repeated release: expected ErrConflict, got %v", err)
	}

	// Once the date has passed the remaining row can no longer be released.
	f.co.now = func() time.Time {
		return time.Date(2026, time.September, 8, 9, 0, 0, 0, time.UTC)
	}
	if _, err := f.co.Release(ctx, res.Assignment.ID, 10, model.RoleStaff); !errors.Is(err, ErrConflict) {
		t.Fatalf("Release after the shift date: expected ErrConflict, got %v", err)
	}

	if _, err := f.co.Release(ctx, 999, 10, model.RoleStaff); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Release of unknown id: expected ErrNotFound, got %v", err)
	}
}

func TestMarkOutcome(t *testing.T) {
	f := newFixture(morningTemplate(1, 3))
	ctx := context.Background()
	monday := date(2026, time.September, 7)

	res, err := f.co.Claim(ctx, 10, 1, monday)
	if err != nil {
		t.Fatalf("Claim: %v", err)
	}
	id := res.Assignment.ID

	if _, err := f.co.MarkOutcome(ctx, id, model.StatusCompleted, model.RoleStaff); !errors.Is(err, ErrForbidden) {
		t.Fatalf("Staff recording outcome: expected ErrForbidden, got %v", err)
	}
	if _, err := f.co.MarkOutcome(ctx, id, model.StatusCancelled, model.RoleManager); !errors.Is(err, ErrValidation) {
		t.Fatalf("Cancelled is not a recordable outcome: expected ErrValidation, got %v", err)
	}

	marked, err := f.co.MarkOutcome(ctx, id, model.StatusCompleted, model.RoleManager)
	if err != nil {
		t.Fatalf("MarkOutcome: %v", err)
	}
	if marked.Status != model.StatusCompleted || marked.CompletedAt == nil {
		t.Errorf("Marked assignment: status=%s completed_at=%v", marked.Status, marked.CompletedAt)
	}

	// Terminal rows reject further transitions.
	if _, err := f.co.MarkOutcome(ctx, id, model.StatusAbsent, model.RoleManager); !errors.Is(err, ErrConflict) {
		t.Fatalf("Outcome on a terminal row: expected ErrConflict, got %v", err)
	}
	if _, err := f.co.Release(ctx, id, 10, model.RoleStaff); !errors.Is(err, ErrConflict) {
		t.Fatalf("Release of a completed row: expected ErrConflict, got %v", err)
	}
}

func TestMarkOutcome_CompletedStillHoldsCapacity(t *testing.T) {
	f := newFixture(morningTemplate(1, 1))
	ctx := context.Background()
	monday := date(2026, time.September, 7)

	res, err := f.co.Claim(ctx, 10, 1, monday)
	if err != nil {
		t.Fatalf("Claim: %v", err)
	}
	if _, err := f.co.MarkOutcome(ctx, res.Assignment.ID, model.StatusCompleted, model.RoleManager); err != nil {
		t.Fatalf("MarkOutcome: %v", err)
	}
	if _, err := f.co.Claim(ctx, 11, 1, monday); !errors.Is(err, ErrConflict) {
		t.Fatalf("Claim over a completed assignment: expected ErrConflict, got %v", err)
	}
}

func TestClaim_WarnsWhenShiftStartsSoon(t *testing.T) {
	f := newFixture(morningTemplate(1, 3))
	f.window.w.StartDate = date(2026, time.September, 7)
	f.co.now = func() time.Time {
		return time.Date(2026, time.September, 7, 5, 0, 0, 0, time.UTC)
	}
	ctx := context.Background()

	res, err := f.co.Claim(ctx, 10, 1, date(2026, time.September, 7))
	if err != nil {
		t.Fatalf("Claim: %v", err)
	}
	if len(res.Warnings) != 1 || !strings.Contains(res.Warnings[0], "under 2 hours") {
		t.Fatalf("Expected a starts-soon warning, got %v", res.Warnings)
	}
}

func TestClaim_ConcurrentRaceForLastSlot(t *testing.T) {
	const contenders = 16
	const capacity = 3
	f := newFixture(morningTemplate(1, capacity))
	ctx := context.Background()
	monday := date(2026, time.September, 7)

	var wg sync.WaitGroup
	errs := make([]error, contenders)
	for i := 0; i < contenders; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.co.Claim(ctx, uint64(100+i), 1, monday)
		}(i)
	}
	wg.Wait()

	won := 0
	for i, err := range errs {
		switch {
		case err == nil:
			won++
		case errors.Is(err, ErrConflict):
		default:
			t.Errorf("contender %d: unexpected error %v", i, err)
		}
	}
	if won != capacity {
		t.Errorf("Expected exactly %d winning claims, got %d", capacity, won)
	}
	if n := f.ledger.statusCounts()[model.StatusScheduled]; n != capacity {
		t.Errorf("Ledger holds %d scheduled rows, want %d", n, capacity)
	}
}
