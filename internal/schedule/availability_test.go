package schedule

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/beanhaus/shift-scheduling/internal/model"
)

func TestAvailable_ReflectsClaimsAndReleases(t *testing.T) {
	f := newFixture(morningTemplate(1, 2))
	computer := NewComputer(f.templates, f.window, f.ledger)
	ctx := context.Background()
	monday := date(2026, time.September, 7)

	before, err := computer.Available(ctx)
	if err != nil {
		t.Fatalf("Available: %v", err)
	}
	if len(before) != 1 {
		t.Fatalf("Expected 1 instance in the window, got %d", len(before))
	}
	if before[0].CurrentStaff != 0 || before[0].Urgency != UrgencyUrgent {
		t.Errorf("Fresh instance: current=%d urgency=%s", before[0].CurrentStaff, before[0].Urgency)
	}

	res, err := f.co.Claim(ctx, 10, 1, monday)
	if err != nil {
		t.Fatalf("Claim: %v", err)
	}

	after, err := computer.Available(ctx)
	if err != nil {
		t.Fatalf("Available after claim: %v", err)
	}
	if after[0].CurrentStaff != 1 || after[0].SpotsLeft != 1 {
		t.Errorf("Instance after claim: current=%d spots=%d", after[0].CurrentStaff, after[0].SpotsLeft)
	}
	if after[0].Urgency != UrgencyMedium {
		t.Errorf("Urgency after meeting minimum = %s, want medium", after[0].Urgency)
	}

	if _, err := f.co.Release(ctx, res.Assignment.ID, 10, model.RoleStaff); err != nil {
		t.Fatalf("Release: %v", err)
	}
	freed, err := computer.Available(ctx)
	if err != nil {
		t.Fatalf("Available after release: %v", err)
	}
	if freed[0].CurrentStaff != 0 || freed[0].Urgency != UrgencyUrgent {
		t.Errorf("Instance after release: current=%d urgency=%s", freed[0].CurrentStaff, freed[0].Urgency)
	}
}

func TestAvailable_ExclusionHidesDateButKeepsAssignments(t *testing.T) {
	f := newFixture(morningTemplate(1, 2))
	computer := NewComputer(f.templates, f.window, f.ledger)
	ctx := context.Background()
	monday := date(2026, time.September, 7)

	if _, err := f.co.Claim(ctx, 10, 1, monday); err != nil {
		t.Fatalf("Claim: %v", err)
	}

	// Excluding the date afterwards removes the instance from offer but
	// leaves the booked assignment untouched.
	f.window.w.ExcludedDates = []time.Time{monday}

	instances, err := computer.Available(ctx)
	if err != nil {
		t.Fatalf("Available: %v", err)
	}
	if len(instances) != 0 {
		t.Fatalf("Excluded date still offered: %d instances", len(instances))
	}
	if n := f.ledger.statusCounts()[model.StatusScheduled]; n != 1 {
		t.Errorf("Existing assignment disturbed by exclusion: %d scheduled rows", n)
	}
	if _, err := f.co.Claim(ctx, 11, 1, monday); !errors.Is(err, ErrNotFound) {
		t.Errorf("New claim on excluded date: expected ErrNotFound, got %v", err)
	}
}

func TestUserSchedule_GroupsAndOrders(t *testing.T) {
	morning := morningTemplate(1, 5)
	evening := &model.ShiftTemplate{
		ID:            2,
		Name:          "Evening Bar",
		StartTime:     "16:00",
		EndTime:       "22:00",
		MinStaff:      1,
		MaxStaff:      5,
		AvailableDays: []time.Weekday{time.Monday, time.Tuesday},
		Active:        true,
	}
	f := newFixture(morning, evening)
	computer := NewComputer(f.templates, f.window, f.ledger)
	ctx := context.Background()
	monday := date(2026, time.September, 7)
	tuesday := date(2026, time.September, 8)

	// Claim out of calendar order to verify sorting.
	if _, err := f.co.Claim(ctx, 10, 2, tuesday); err != nil {
		t.Fatalf("Tuesday claim: %v", err)
	}
	if _, err := f.co.Claim(ctx, 10, 2, monday); err != nil {
		t.Fatalf("Monday evening claim: %v", err)
	}
	if _, err := f.co.Claim(ctx, 10, 1, monday); err != nil {
		t.Fatalf("Monday morning claim: %v", err)
	}
	// Another user's claim stays out of this user's schedule.
	if _, err := f.co.Claim(ctx, 11, 1, monday); err != nil {
		t.Fatalf("Other user's claim: %v", err)
	}

	days, err := computer.UserSchedule(ctx, 10)
	if err != nil {
		t.Fatalf("UserSchedule: %v", err)
	}
	if len(days) != 2 {
		t.Fatalf("Expected 2 day groups, got %d", len(days))
	}
	if !days[0].Date.Equal(monday) || !days[1].Date.Equal(tuesday) {
		t.Errorf("Day order: %s, %s", FormatDate(days[0].Date), FormatDate(days[1].Date))
	}
	if len(days[0].Shifts) != 2 {
		t.Fatalf("Expected 2 shifts on Monday, got %d", len(days[0].Shifts))
	}
	if days[0].Shifts[0].TemplateName != "Morning Bar" || days[0].Shifts[1].TemplateName != "Evening Bar" {
		t.Errorf("Monday shift order: %s, %s", days[0].Shifts[0].TemplateName, days[0].Shifts[1].TemplateName)
	}
	if days[0].Shifts[0].StartTime != "06:00" || days[0].Shifts[0].EndTime != "14:00" {
		t.Errorf("Joined template detail: %s-%s", days[0].Shifts[0].StartTime, days[0].Shifts[0].EndTime)
	}
}

func TestUserSchedule_KeepsCancelledHistory(t *testing.T) {
	f := newFixture(morningTemplate(1, 5))
	computer := NewComputer(f.templates, f.window, f.ledger)
	ctx := context.Background()
	monday := date(2026, time.September, 7)

	res, err := f.co.Claim(ctx, 10, 1, monday)
	if err != nil {
		t.Fatalf("Claim: %v", err)
	}
	if _, err := f.co.Release(ctx, res.Assignment.ID, 10, model.RoleStaff); err != nil {
		t.Fatalf("Release: %v", err)
	}

	days, err := computer.UserSchedule(ctx, 10)
	if err != nil {
		t.Fatalf("UserSchedule: %v", err)
	}
	if len(days) != 1 || len(days[0].Shifts) != 1 {
		t.Fatalf("Expected the cancelled shift to remain visible, got %+v", days)
	}
	if days[0].Shifts[0].Status != model.StatusCancelled {
		t.Errorf("Shift status = %s, want cancelled", days[0].Shifts[0].Status)
	}
}
