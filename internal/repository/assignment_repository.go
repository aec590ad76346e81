package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/beanhaus/shift-scheduling/internal/model"
	"github.com/beanhaus/shift-scheduling/internal/schedule"
)

// AssignmentRepo is the durable assignment ledger.  It implements
// schedule.Ledger over the schedule_assignments table.  Rows are only
// ever inserted or have their status advanced; nothing is deleted, so
// the table doubles as the staffing audit trail.  All timestamps are
// stored in UTC and schedule_date is a plain DATE column.
type AssignmentRepo struct {
	db *sql.DB
}

// NewAssignmentRepo returns an AssignmentRepo bound to the given database.
func NewAssignmentRepo(db *sql.DB) *AssignmentRepo { return &AssignmentRepo{db: db} }

const assignmentColumns = `id, user_id, shift_template_id, schedule_date, status, notes,
	created_at, completed_at, cancelled_at`

// Insert writes a new ledger row and populates the generated ID and
// database-assigned timestamps on the passed struct.
func (r *AssignmentRepo) Insert(ctx context.Context, a *model.ScheduleAssignment) error {
	const q = `INSERT INTO schedule_assignments (user_id, shift_template_id, schedule_date, status, notes)
		VALUES (?, ?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, q,
		a.UserID, a.ShiftTemplateID, schedule.FormatDate(a.ScheduleDate), string(a.Status), a.Notes)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	fresh, err := r.GetByID(ctx, uint64(id))
	if err != nil {
		return err
	}
	*a = *fresh
	return nil
}

// GetByID loads one ledger row.  Unknown IDs fail schedule.ErrNotFound.
func (r *AssignmentRepo) GetByID(ctx context.Context, id uint64) (*model.ScheduleAssignment, error) {
	q := `SELECT ` + assignmentColumns + ` FROM schedule_assignments WHERE id = ?`
	a, err := scanAssignment(r.db.QueryRowContext(ctx, q, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: schedule %d", schedule.ErrNotFound, id)
	}
	return a, err
}

// CountActive returns how many capacity-holding rows (scheduled or
// completed) exist for one (template, date) instance.
func (r *AssignmentRepo) CountActive(ctx context.Context, templateID uint64, date time.Time) (int, error) {
	const q = `SELECT COUNT(*) FROM schedule_assignments
		WHERE shift_template_id = ? AND schedule_date = ? AND status IN ('scheduled', 'completed')`
	var n int
	err := r.db.QueryRowContext(ctx, q, templateID, schedule.FormatDate(date)).Scan(&n)
	return n, err
}

// CountActiveByInstance returns capacity-holding counts for every
// instance whose schedule date falls in [from, to], keyed by
// (template, date).  Instances with zero active rows are simply
// absent from the map.
func (r *AssignmentRepo) CountActiveByInstance(ctx context.Context, from, to time.Time) (map[schedule.InstanceKey]int, error) {
	const q = `SELECT shift_template_id, schedule_date, COUNT(*)
		FROM schedule_assignments
		WHERE schedule_date BETWEEN ? AND ? AND status IN ('scheduled', 'completed')
		GROUP BY shift_template_id, schedule_date`
	rows, err := r.db.QueryContext(ctx, q, schedule.FormatDate(from), schedule.FormatDate(to))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	counts := make(map[schedule.InstanceKey]int)
	for rows.Next() {
		var templateID uint64
		var date time.Time
		var n int
		if err := rows.Scan(&templateID, &date, &n); err != nil {
			return nil, err
		}
		counts[schedule.Key(templateID, date)] = n
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return counts, nil
}

// ActiveByUserBetween returns the user's capacity-holding rows with
// schedule dates in [from, to].  The coordinator uses a three-day
// span around a claim so overnight spillover from the adjacent days
// is part of the overlap check.
func (r *AssignmentRepo) ActiveByUserBetween(ctx context.Context, userID uint64, from, to time.Time) ([]model.ScheduleAssignment, error) {
	q := `SELECT ` + assignmentColumns + ` FROM schedule_assignments
		WHERE user_id = ? AND schedule_date BETWEEN ? AND ? AND status IN ('scheduled', 'completed')
		ORDER BY schedule_date, id`
	return r.listQuery(ctx, q, userID, schedule.FormatDate(from), schedule.FormatDate(to))
}

// ListByUser returns every ledger row for the user, terminal rows
// included, oldest schedule date first.
func (r *AssignmentRepo) ListByUser(ctx context.Context, userID uint64) ([]model.ScheduleAssignment, error) {
	q := `SELECT ` + assignmentColumns + ` FROM schedule_assignments
		WHERE user_id = ? ORDER BY schedule_date, id`
	return r.listQuery(ctx, q, userID)
}

// UpdateStatus advances a row into the given status and stamps the
// matching timestamp column: completed_at for completed and absent,
// cancelled_at for cancelled.  The coordinator has already validated
// the transition; this method only persists it.
func (r *AssignmentRepo) UpdateStatus(ctx context.Context, id uint64, status model.AssignmentStatus, at time.Time) error {
	var q string
	switch status {
	case model.StatusCompleted, model.StatusAbsent:
		q = `UPDATE schedule_assignments SET status = ?, completed_at = ? WHERE id = ?`
	case model.StatusCancelled:
		q = `UPDATE schedule_assignments SET status = ?, cancelled_at = ? WHERE id = ?`
	default:
		return fmt.Errorf("%w: cannot update into status %q", schedule.ErrValidation, status)
	}
	res, err := r.db.ExecContext(ctx, q, string(status), at.UTC().Format("2006-01-02 15:04:05"), id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: schedule %d", schedule.ErrNotFound, id)
	}
	return nil
}

func (r *AssignmentRepo) listQuery(ctx context.Context, q string, args ...any) ([]model.ScheduleAssignment, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.ScheduleAssignment, 0)
	for rows.Next() {
		a, err := scanAssignment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func scanAssignment(row rowScanner) (*model.ScheduleAssignment, error) {
	var a model.ScheduleAssignment
	var status string
	var notes sql.NullString
	var completedAt, cancelledAt sql.NullTime
	if err := row.Scan(
		&a.ID, &a.UserID, &a.ShiftTemplateID, &a.ScheduleDate, &status, &notes,
		&a.CreatedAt, &completedAt, &cancelledAt,
	); err != nil {
		return nil, err
	}
	a.ScheduleDate = model.CivilDate(a.ScheduleDate)
	a.Status = model.AssignmentStatus(status)
	if notes.Valid {
		a.Notes = notes.String
	}
	if completedAt.Valid {
		t := completedAt.Time.UTC()
		a.CompletedAt = &t
	}
	if cancelledAt.Valid {
		t := cancelledAt.Time.UTC()
		a.CancelledAt = &t
	}
	return &a, nil
}
