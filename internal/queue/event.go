// Package queue defines message payloads exchanged over the message broker.
package queue

// ScheduleActivityEvent is published whenever the assignment ledger
// changes: a shift is claimed, released, or has its outcome recorded.
// It carries enough detail for downstream consumers to log or notify
// without querying the primary database.
type ScheduleActivityEvent struct {
	Action         string `json:"action"` // claimed | released | completed | absent
	AssignmentID   uint64 `json:"assignment_id"`
	UserID         uint64 `json:"user_id"`
	TemplateID     uint64 `json:"shift_template_id"`
	TemplateName   string `json:"shift_name"`
	ScheduleDate   string `json:"schedule_date"` // 2006-01-02
	StartTime      string `json:"start_time"`
	EndTime        string `json:"end_time"`
	StaffedAfter   int    `json:"staffed_after,omitempty"` // staffing count after the change, claims only
	OccurredAt     string `json:"occurred_at"`             // RFC3339
}
