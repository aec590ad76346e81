package model

import "time"

// AssignmentStatus enumerates the lifecycle states of a schedule
// assignment.  An assignment starts as StatusScheduled when a staff
// member claims a shift and moves to exactly one of the three
// terminal states afterwards.  Terminal states never transition.
type AssignmentStatus string

const (
	StatusScheduled AssignmentStatus = "scheduled" // claimed, shift not yet worked
	StatusCompleted AssignmentStatus = "completed" // shift was worked
	StatusAbsent    AssignmentStatus = "absent"    // no-show recorded by a manager
	StatusCancelled AssignmentStatus = "cancelled" // released before the shift started
)

// Terminal reports whether the status admits no further transitions.
func (s AssignmentStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusAbsent || s == StatusCancelled
}

// CountsAgainstCapacity reports whether an assignment in this status
// occupies a staffing slot.  Cancelled and absent rows free their slot
// immediately; scheduled and completed rows hold it.
func (s AssignmentStatus) CountsAgainstCapacity() bool {
	return s == StatusScheduled || s == StatusCompleted
}

// ScheduleAssignment is one row of the assignment ledger: a single
// (user, shift template, date) booking and its status.  Rows are
// never deleted; releasing a shift flips the row to cancelled so the
// ledger keeps a full audit trail.
//
// Fields:
//  ID              - primary key identifier.
//  UserID          - staff member working the shift.
//  ShiftTemplateID - template the assignment was claimed from.
//  ScheduleDate    - civil date the shift starts on, UTC midnight.
//  Status          - current lifecycle state, see AssignmentStatus.
//  Notes           - free text attached by staff or managers.
//  CreatedAt       - when the claim was recorded.
//  CompletedAt     - set when the status becomes completed or absent.
//  CancelledAt     - set when the status becomes cancelled.
type ScheduleAssignment struct {
	ID              uint64           `json:"id"`
	UserID          uint64           `json:"user_id"`
	ShiftTemplateID uint64           `json:"shift_template_id"`
	ScheduleDate    time.Time        `json:"schedule_date"`
	Status          AssignmentStatus `json:"status"`
	Notes           string           `json:"notes,omitempty"`
	CreatedAt       time.Time        `json:"created_at"`
	CompletedAt     *time.Time       `json:"completed_at,omitempty"`
	CancelledAt     *time.Time       `json:"cancelled_at,omitempty"`
}
