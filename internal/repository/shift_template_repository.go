package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/beanhaus/shift-scheduling/internal/model"
	"github.com/beanhaus/shift-scheduling/internal/schedule"
)

// ShiftTemplateRepo provides persistence for shift templates.  It is
// the only writer of the shift_templates table.  Templates are never
// hard-deleted: deactivation via SetActive is the sole destructive
// operation, so assignments created against old templates always have
// a row to join back to.  All timestamps are stored in UTC.
type ShiftTemplateRepo struct {
	db *sql.DB
}

// NewShiftTemplateRepo returns a ShiftTemplateRepo bound to the given database.
func NewShiftTemplateRepo(db *sql.DB) *ShiftTemplateRepo { return &ShiftTemplateRepo{db: db} }

const templateColumns = `id, name, start_time, end_time, min_staff, max_staff, break_minutes,
	available_days, effective_start, effective_end, active, deactivated_at, deactivated_reason,
	created_at, updated_at`

// Create validates and inserts a new template, populating the
// generated ID and timestamps on the passed struct.  Structural
// violations surface as schedule.ErrValidation before any write.
func (r *ShiftTemplateRepo) Create(ctx context.Context, t *model.ShiftTemplate) error {
	if err := schedule.ValidateTemplate(t); err != nil {
		return err
	}
	const q = `INSERT INTO shift_templates
		(name, start_time, end_time, min_staff, max_staff, break_minutes, available_days,
		 effective_start, effective_end, active)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, q,
		t.Name, t.StartTime, t.EndTime, t.MinStaff, t.MaxStaff, t.BreakMinutes,
		encodeDays(t.AvailableDays), nullDate(t.EffectiveStart), nullDate(t.EffectiveEnd), t.Active,
	)
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
	*t = *fresh
	return nil
}

// Update rewrites the mutable fields of an existing template after
// running the same validation as Create.  The caller is expected to
// have loaded the current row and applied its patch; Update fails
// schedule.ErrNotFound when the row has vanished in between.
func (r *ShiftTemplateRepo) Update(ctx context.Context, t *model.ShiftTemplate) error {
	if err := schedule.ValidateTemplate(t); err != nil {
		return err
	}
	if _, err := r.GetByID(ctx, t.ID); err != nil {
		return err
	}
	const q = `UPDATE shift_templates
		SET name = ?, start_time = ?, end_time = ?, min_staff = ?, max_staff = ?,
		    break_minutes = ?, available_days = ?, effective_start = ?, effective_end = ?
		WHERE id = ?`
	if _, err := r.db.ExecContext(ctx, q,
		t.Name, t.StartTime, t.EndTime, t.MinStaff, t.MaxStaff, t.BreakMinutes,
		encodeDays(t.AvailableDays), nullDate(t.EffectiveStart), nullDate(t.EffectiveEnd), t.ID,
	); err != nil {
		return err
	}
	fresh, err := r.GetByID(ctx, t.ID)
	if err != nil {
		return err
	}
	*t = *fresh
	return nil
}

// SetActive flips the active flag.  Deactivation stamps
// deactivated_at and the optional reason; reactivation clears both.
// Existing assignments are untouched either way.
func (r *ShiftTemplateRepo) SetActive(ctx context.Context, id uint64, active bool, reason *string) (*model.ShiftTemplate, error) {
	if _, err := r.GetByID(ctx, id); err != nil {
		return nil, err
	}
	if active {
		const q = `UPDATE shift_templates SET active = 1, deactivated_at = NULL, deactivated_reason = NULL WHERE id = ?`
		if _, err := r.db.ExecContext(ctx, q, id); err != nil {
			return nil, err
		}
	} else {
		const q = `UPDATE shift_templates SET active = 0, deactivated_at = UTC_TIMESTAMP(), deactivated_reason = ? WHERE id = ?`
		var rs sql.NullString
		if reason != nil && strings.TrimSpace(*reason) != "" {
			rs = sql.NullString{String: strings.TrimSpace(*reason), Valid: true}
		}
		if _, err := r.db.ExecContext(ctx, q, rs, id); err != nil {
			return nil, err
		}
	}
	return r.GetByID(ctx, id)
}

// GetByID loads one template regardless of its active flag, so
// historical assignments can always resolve their template.  Unknown
// IDs fail schedule.ErrNotFound.
func (r *ShiftTemplateRepo) GetByID(ctx context.Context, id uint64) (*model.ShiftTemplate, error) {
	q := `SELECT ` + templateColumns + ` FROM shift_templates WHERE id = ?`
	t, err := scanTemplate(r.db.QueryRowContext(ctx, q, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: shift template %d", schedule.ErrNotFound, id)
	}
	return t, err
}

// ListActive returns all active templates ordered by name for stable
// rendering.
func (r *ShiftTemplateRepo) ListActive(ctx context.Context) ([]model.ShiftTemplate, error) {
	q := `SELECT ` + templateColumns + ` FROM shift_templates WHERE active = 1 ORDER BY name, id`
	return r.list(ctx, q)
}

// List returns every template including deactivated ones, ordered by
// name.  Used by manager listings with ?all=true.
func (r *ShiftTemplateRepo) List(ctx context.Context) ([]model.ShiftTemplate, error) {
	q := `SELECT ` + templateColumns + ` FROM shift_templates ORDER BY name, id`
	return r.list(ctx, q)
}

func (r *ShiftTemplateRepo) list(ctx context.Context, q string) ([]model.ShiftTemplate, error) {
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.ShiftTemplate, 0)
	for rows.Next() {
		t, err := scanTemplate(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// rowScanner abstracts *sql.Row and *sql.Rows so one scan routine
// serves both single-row and list queries.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanTemplate(row rowScanner) (*model.ShiftTemplate, error) {
	var t model.ShiftTemplate
	var days string
	var effStart, effEnd, deactAt sql.NullTime
	var deactReason sql.NullString
	if err := row.Scan(
		&t.ID, &t.Name, &t.StartTime, &t.EndTime, &t.MinStaff, &t.MaxStaff, &t.BreakMinutes,
		&days, &effStart, &effEnd, &t.Active, &deactAt, &deactReason,
		&t.CreatedAt, &t.UpdatedAt,
	); err != nil {
		return nil, err
	}
	parsed, err := decodeDays(days)
	if err != nil {
		return nil, err
	}
	t.AvailableDays = parsed
	if effStart.Valid {
		d := model.CivilDate(effStart.Time)
		t.EffectiveStart = &d
	}
	if effEnd.Valid {
		d := model.CivilDate(effEnd.Time)
		t.EffectiveEnd = &d
	}
	if deactAt.Valid {
		at := deactAt.Time.UTC()
		t.DeactivatedAt = &at
	}
	if deactReason.Valid {
		rs := deactReason.String
		t.DeactivatedReason = &rs
	}
	return &t, nil
}

// encodeDays serializes a weekday set into the comma-separated
// lowercase form stored in available_days, e.g. "monday,thursday".
func encodeDays(days []time.Weekday) string {
	names := make([]string, 0, len(days))
	for _, d := range days {
		names = append(names, strings.ToLower(d.String()))
	}
	return strings.Join(names, ",")
}

func decodeDays(s string) ([]time.Weekday, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	return schedule.ParseWeekdays(strings.Split(s, ","))
}

// nullDate converts an optional civil date into its storage form.
func nullDate(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: schedule.FormatDate(*t), Valid: true}
}
