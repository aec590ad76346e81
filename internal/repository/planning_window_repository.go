package repository

import (
	"context"
	"database/sql"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/beanhaus/shift-scheduling/internal/model"
	"github.com/beanhaus/shift-scheduling/internal/schedule"
)

// PlanningWindowRepo persists the single planning window row.  The
// table holds at most one row (id = 1); Set writes start date and
// exclusions in one statement so a concurrent Get never observes a
// torn mix of old start date and new exclusions.
type PlanningWindowRepo struct {
	db *sql.DB
}

// NewPlanningWindowRepo returns a PlanningWindowRepo bound to the given database.
func NewPlanningWindowRepo(db *sql.DB) *PlanningWindowRepo { return &PlanningWindowRepo{db: db} }

// Get returns the current planning window.  Before any configuration
// call has been made there is no row, in which case the product
// default applies: the window opens tomorrow, spans seven days and
// excludes nothing.
func (r *PlanningWindowRepo) Get(ctx context.Context) (model.PlanningWindow, error) {
	const q = `SELECT start_date, window_length_days, excluded_dates FROM planning_window WHERE id = 1`
	var start time.Time
	var length int
	var excluded string
	err := r.db.QueryRowContext(ctx, q).Scan(&start, &length, &excluded)
	if errors.Is(err, sql.ErrNoRows) {
		return model.DefaultPlanningWindow(time.Now().UTC()), nil
	}
	if err != nil {
		return model.PlanningWindow{}, err
	}
	dates, err := decodeDates(excluded)
	if err != nil {
		return model.PlanningWindow{}, err
	}
	return model.PlanningWindow{
		StartDate:        model.CivilDate(start),
		WindowLengthDays: length,
		ExcludedDates:    dates,
	}, nil
}

// Set replaces the window's start date and excluded dates atomically
// via a single upsert.  The window length stays at the product
// default; it is seeded on first write and not exposed for mutation.
func (r *PlanningWindowRepo) Set(ctx context.Context, startDate time.Time, excluded []time.Time) error {
	const q = `INSERT INTO planning_window (id, start_date, window_length_days, excluded_dates)
		VALUES (1, ?, ?, ?)
		ON DUPLICATE KEY UPDATE start_date = VALUES(start_date), excluded_dates = VALUES(excluded_dates)`
	_, err := r.db.ExecContext(ctx, q,
		schedule.FormatDate(startDate), model.DefaultWindowLengthDays, encodeDates(excluded))
	return err
}

// encodeDates serializes a date set into sorted, deduplicated
// comma-separated "2006-01-02" form.
func encodeDates(dates []time.Time) string {
	seen := make(map[string]bool, len(dates))
	out := make([]string, 0, len(dates))
	for _, d := range dates {
		s := schedule.FormatDate(d)
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	sort.Strings(out)
	return strings.Join(out, ",")
}

func decodeDates(s string) ([]time.Time, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	out := make([]time.Time, 0, len(parts))
	for _, p := range parts {
		d, err := schedule.ParseDate(strings.TrimSpace(p))
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, nil
}
