package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/medly/medly-api/internal/model"
	apperrors "github.com/medly/medly-api/pkg/errors"
)

type windowRepository struct {
	BaseRepository
}

func NewWindowRepository(base BaseRepository) *windowRepository {
	return &windowRepository{BaseRepository: base}
}

func (r *windowRepository) Create(ctx context.Context, tx *sqlx.Tx, w *model.ScheduleWindow) error {
	defer r.track("window_create", time.Now())
	query := `
		INSERT INTO schedule_windows (doctor_id, "start", "end", kind)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`
	err := sqlx.GetContext(ctx, r.ext(tx), &w.ID, query, w.DoctorID, w.Start, w.End, w.Kind)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return apperrors.Conflict("an identical window already exists for this doctor")
		}
		return fmt.Errorf("failed to create window: %w", err)
	}
	return nil
}

func (r *windowRepository) Delete(ctx context.Context, id int64) error {
	defer r.track("window_delete", time.Now())
	result, err := r.db.ExecContext(ctx, `DELETE FROM schedule_windows WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete window: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return apperrors.NotFound("window", nil)
	}
	return nil
}

func (r *windowRepository) FindExact(ctx context.Context, tx *sqlx.Tx, doctorID int64, kind model.WindowKind, start, end time.Time) (int64, bool, error) {
	defer r.track("window_find_exact", time.Now())
	query := `
		SELECT id FROM schedule_windows
		WHERE doctor_id = $1 AND kind = $2 AND "start" = $3 AND "end" = $4
		LIMIT 1
	`
	var id int64
	err := sqlx.GetContext(ctx, r.ext(tx), &id, query, doctorID, kind, start, end)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, false, nil
		}
		return 0, false, fmt.Errorf("failed to find exact window: %w", err)
	}
	return id, true, nil
}

// HasCovering checks full containment: a window of the kind whose range
// includes [start, end] entirely.
func (r *windowRepository) HasCovering(ctx context.Context, tx *sqlx.Tx, doctorID int64, kind model.WindowKind, start, end time.Time) (bool, error) {
	defer r.track("window_has_covering", time.Now())
	query := `
		SELECT EXISTS (
			SELECT 1 FROM schedule_windows
			WHERE doctor_id = $1 AND kind = $2 AND "start" <= $3 AND "end" >= $4
		)
	`
	var exists bool
	if err := sqlx.GetContext(ctx, r.ext(tx), &exists, query, doctorID, kind, start, end); err != nil {
		return false, fmt.Errorf("failed to check covering window: %w", err)
	}
	return exists, nil
}

// HasOverlapping checks open overlap with [start, end).
func (r *windowRepository) HasOverlapping(ctx context.Context, tx *sqlx.Tx, doctorID int64, kind model.WindowKind, start, end time.Time) (bool, error) {
	defer r.track("window_has_overlapping", time.Now())
	query := `
		SELECT EXISTS (
			SELECT 1 FROM schedule_windows
			WHERE doctor_id = $1 AND kind = $2 AND "start" < $3 AND "end" > $4
		)
	`
	var exists bool
	if err := sqlx.GetContext(ctx, r.ext(tx), &exists, query, doctorID, kind, end, start); err != nil {
		return false, fmt.Errorf("failed to check overlapping window: %w", err)
	}
	return exists, nil
}

func (r *windowRepository) ListOverlapping(ctx context.Context, doctorIDs []int64, from, to time.Time) ([]*model.ScheduleWindow, error) {
	if len(doctorIDs) == 0 {
		return nil, nil
	}
	defer r.track("window_list_overlapping", time.Now())
	query, args, err := r.inClause(`
		SELECT id, doctor_id, "start", "end", kind
		FROM schedule_windows
		WHERE doctor_id IN (?) AND "start" < ? AND "end" > ?
		ORDER BY "start" ASC
	`, doctorIDs, to, from)
	if err != nil {
		return nil, fmt.Errorf("failed to build window query: %w", err)
	}
	var windows []*model.ScheduleWindow
	if err := r.db.SelectContext(ctx, &windows, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list windows: %w", err)
	}
	return windows, nil
}

func (r *windowRepository) DeleteOverlapping(ctx context.Context, tx *sqlx.Tx, doctorID int64, from, to time.Time) (int, error) {
	defer r.track("window_delete_overlapping", time.Now())
	query := `DELETE FROM schedule_windows WHERE doctor_id = $1 AND "start" < $2 AND "end" > $3`
	result, err := r.ext(tx).ExecContext(ctx, query, doctorID, to, from)
	if err != nil {
		return 0, fmt.Errorf("failed to delete windows: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return int(rows), nil
}
