package schedule

import (
	"context"
	"fmt"
	"hash/fnv"
	"sync"
	"time"

	"github.com/beanhaus/shift-scheduling/internal/model"
)

// lockStripes sizes the coordinator's mutex table.  Claims hash their
// instance and user keys onto stripes, so unrelated instances almost
// always proceed in parallel while contenders for the same instance
// serialize.
const lockStripes = 64

// claimWarningLeadTime is the threshold below which a successful
// claim carries a "starts soon" warning.
const claimWarningLeadTime = 2 * time.Hour

// Coordinator is the only component allowed to mutate the assignment
// ledger in response to claim, release and outcome requests.  Every
// write re-validates against the live ledger under a per-instance
// lock, so the capacity check and the insert are effectively atomic:
// two simultaneous claims for the last open slot cannot both succeed.
type Coordinator struct {
	templates TemplateSource
	window    WindowSource
	ledger    Ledger

	// now is swapped out by tests to pin the clock.
	now func() time.Time

	locks [lockStripes]sync.Mutex
}

// NewCoordinator wires a claim coordinator over the template store,
// planning window and ledger.
func NewCoordinator(templates TemplateSource, window WindowSource, ledger Ledger) *Coordinator {
	return &Coordinator{
		templates: templates,
		window:    window,
		ledger:    ledger,
		now:       time.Now,
	}
}

func (co *Coordinator) stripe(key string) int {
	h := fnv.New32a()
	h.Write([]byte(key))
	return int(h.Sum32() % lockStripes)
}

// lockKeys acquires the stripes for the given keys in index order so
// that overlapping key sets never deadlock.  It returns the unlock
// function.
func (co *Coordinator) lockKeys(keys ...string) func() {
	taken := make(map[int]bool, len(keys))
	idx := make([]int, 0, len(keys))
	for _, k := range keys {
		s := co.stripe(k)
		if !taken[s] {
			taken[s] = true
			idx = append(idx, s)
		}
	}
	for i := 1; i < len(idx); i++ {
		for j := i; j > 0 && idx[j] < idx[j-1]; j-- {
			idx[j], idx[j-1] = idx[j-1], idx[j]
		}
	}
	for _, s := range idx {
		co.locks[s].Lock()
	}
	return func() {
		for i := len(idx) - 1; i >= 0; i-- {
			co.locks[idx[i]].Unlock()
		}
	}
}

// ClaimResult carries the newly created assignment, the instance as
// it looks immediately after the claim, and any soft warnings the
// caller should surface but not fail on.
type ClaimResult struct {
	Assignment *model.ScheduleAssignment `json:"assignment"`
	Instance   Instance                  `json:"instance"`
	Warnings   []string                  `json:"warnings,omitempty"`
}

// Claim books the caller onto the (template, date) instance.  The
// instance is re-validated against the live template store and
// planning window rather than trusted from a stale client view.  It
// fails ErrNotFound when the pair is not currently offered,
// ErrConflict when the instance is full or the user already holds an
// assignment overlapping this shift's wall-clock interval (adjacent
// days included, so overnight spillover is caught), and passes
// through storage errors untouched.
func (co *Coordinator) Claim(ctx context.Context, userID, templateID uint64, date time.Time) (*ClaimResult, error) {
	day := model.CivilDate(date)
	tpl, err := co.templates.GetByID(ctx, templateID)
	if err != nil {
		return nil, err
	}
	window, err := co.window.Get(ctx)
	if err != nil {
		return nil, err
	}
	if !InstanceValid(tpl, window, day) {
		return nil, fmt.Errorf("%w: shift %d is not offered on %s", ErrNotFound, templateID, FormatDate(day))
	}
	start, end, err := ShiftInterval(tpl, day)
	if err != nil {
		return nil, err
	}

	instanceKey := fmt.Sprintf("i/%d/%s", templateID, FormatDate(day))
	userKey := fmt.Sprintf("u/%d", userID)
	unlock := co.lockKeys(instanceKey, userKey)
	defer unlock()

	cur, err := co.ledger.CountActive(ctx, templateID, day)
	if err != nil {
		return nil, err
	}
	if cur >= tpl.MaxStaff {
		return nil, fmt.Errorf("%w: shift is fully staffed (%d/%d)", ErrConflict, cur, tpl.MaxStaff)
	}
	if err := co.checkUserOverlap(ctx, userID, day, start, end); err != nil {
		return nil, err
	}

	now := co.now().UTC()
	a := &model.ScheduleAssignment{
		UserID:          userID,
		ShiftTemplateID: templateID,
		ScheduleDate:    day,
		Status:          model.StatusScheduled,
		CreatedAt:       now,
	}
	if err := co.ledger.Insert(ctx, a); err != nil {
		return nil, err
	}

	var warnings []string
	if lead := start.Sub(now); lead > 0 && lead < claimWarningLeadTime {
		warnings = append(warnings, "shift starts in under 2 hours")
	}
	cur++
	return &ClaimResult{
		Assignment: a,
		Instance: Instance{
			TemplateID:   tpl.ID,
			TemplateName: tpl.Name,
			Date:         day,
			StartTime:    tpl.StartTime,
			EndTime:      tpl.EndTime,
			IsOvernight:  !end.Before(day.AddDate(0, 0, 1)),
			MinStaff:     tpl.MinStaff,
			MaxStaff:     tpl.MaxStaff,
			BreakMinutes: tpl.BreakMinutes,
			CurrentStaff: cur,
			SpotsLeft:    tpl.MaxStaff - cur,
			Urgency:      UrgencyFor(cur, tpl.MinStaff, tpl.MaxStaff),
		},
		Warnings: warnings,
	}, nil
}

// checkUserOverlap rejects the claim when any of the user's
// capacity-holding assignments on the previous, same or next day
// overlaps the proposed interval.  The day before matters because an
// overnight shift claimed yesterday can run into today; the day after
// because an overnight claim today can run into tomorrow's shifts.
func (co *Coordinator) checkUserOverlap(ctx context.Context, userID uint64, day time.Time, start, end time.Time) error {
	existing, err := co.ledger.ActiveByUserBetween(ctx, userID, day.AddDate(0, 0, -1), day.AddDate(0, 0, 1))
	if err != nil {
		return err
	}
	cache := make(map[uint64]*model.ShiftTemplate, len(existing))
	for _, a := range existing {
		tpl, ok := cache[a.ShiftTemplateID]
		if !ok {
			tpl, err = co.templates.GetByID(ctx, a.ShiftTemplateID)
			if err != nil {
				return err
			}
			cache[a.ShiftTemplateID] = tpl
		}
		es, ee, err := ShiftInterval(tpl, a.ScheduleDate)
		if err != nil {
			return err
		}
		if Overlap(start, end, es, ee) {
			return fmt.Errorf("%w: overlaps existing assignment %d (%s on %s)",
				ErrConflict, a.ID, tpl.Name, FormatDate(a.ScheduleDate))
		}
	}
	return nil
}

// Release cancels a scheduled assignment ahead of its shift.  Only
// the assignment's owner or a manager may release it; releases of
// non-scheduled rows or of shifts dated before today fail
// ErrConflict.  The freed slot is visible to availability as soon as
// the ledger write lands.
func (co *Coordinator) Release(ctx context.Context, scheduleID, callerID uint64, callerRole string) (*model.ScheduleAssignment, error) {
	a, err := co.ledger.GetByID(ctx, scheduleID)
	if err != nil {
		return nil, err
	}
	if a.UserID != callerID && !model.Privileged(callerRole) {
		return nil, fmt.Errorf("%w: schedule %d belongs to another user", ErrForbidden, scheduleID)
	}

	unlock := co.lockKeys(fmt.Sprintf("i/%d/%s", a.ShiftTemplateID, FormatDate(a.ScheduleDate)))
	defer unlock()

	// Re-read under the lock so a concurrent release or outcome does
	// not slip between the check and the write.
	a, err = co.ledger.GetByID(ctx, scheduleID)
	if err != nil {
		return nil, err
	}
	if a.Status != model.StatusScheduled {
		return nil, fmt.Errorf("%w: schedule %d is %s, only scheduled shifts can be released", ErrConflict, scheduleID, a.Status)
	}
	now := co.now().UTC()
	if model.CivilDate(a.ScheduleDate).Before(model.CivilDate(now)) {
		return nil, fmt.Errorf("%w: shift on %s has already passed", ErrConflict, FormatDate(a.ScheduleDate))
	}
	if err := co.ledger.UpdateStatus(ctx, a.ID, model.StatusCancelled, now); err != nil {
		return nil, err
	}
	a.Status = model.StatusCancelled
	a.CancelledAt = &now
	return a, nil
}

// MarkOutcome records how a scheduled shift turned out: completed or
// absent.  Managers only.  The transition is legal from scheduled
// alone; rows already in a terminal state fail ErrConflict so repeated
// submissions are safe.
func (co *Coordinator) MarkOutcome(ctx context.Context, scheduleID uint64, outcome model.AssignmentStatus, callerRole string) (*model.ScheduleAssignment, error) {
	if !model.Privileged(callerRole) {
		return nil, fmt.Errorf("%w: recording outcomes requires the manager role", ErrForbidden)
	}
	if outcome != model.StatusCompleted && outcome != model.StatusAbsent {
		return nil, fmt.Errorf("%w: outcome must be completed or absent, got %q", ErrValidation, outcome)
	}
	a, err := co.ledger.GetByID(ctx, scheduleID)
	if err != nil {
		return nil, err
	}

	unlock := co.lockKeys(fmt.Sprintf("i/%d/%s", a.ShiftTemplateID, FormatDate(a.ScheduleDate)))
	defer unlock()

	a, err = co.ledger.GetByID(ctx, scheduleID)
	if err != nil {
		return nil, err
	}
	if a.Status != model.StatusScheduled {
		return nil, fmt.Errorf("%w: schedule %d is already %s", ErrConflict, scheduleID, a.Status)
	}
	now := co.now().UTC()
	if err := co.ledger.UpdateStatus(ctx, a.ID, outcome, now); err != nil {
		return nil, err
	}
	a.Status = outcome
	a.CompletedAt = &now
	return a, nil
}
