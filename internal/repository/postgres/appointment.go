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

type appointmentRepository struct {
	BaseRepository
}

func NewAppointmentRepository(base BaseRepository) *appointmentRepository {
	return &appointmentRepository{BaseRepository: base}
}

func (r *appointmentRepository) Create(ctx context.Context, tx *sqlx.Tx, appt *model.Appointment) error {
	defer r.track("appointment_create", time.Now())
	query := `
		INSERT INTO appointments (user_id, doctor_id, "when", stt, need, symptoms, content)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at
	`
	row := r.ext(tx).QueryRowxContext(ctx, query,
		appt.UserID,
		appt.DoctorID,
		appt.When,
		appt.STT,
		appt.Need,
		appt.Symptoms,
		appt.Content,
	)
	if err := row.Scan(&appt.ID, &appt.CreatedAt); err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			// lost the race on (doctor_id, "when"): same rejection as the
			// availability check would have produced
			return apperrors.Conflict("slot is already booked by another patient")
		}
		return fmt.Errorf("failed to create appointment: %w", err)
	}
	return nil
}

func (r *appointmentRepository) Get(ctx context.Context, id int64) (*model.Appointment, error) {
	defer r.track("appointment_get", time.Now())
	query := `
		SELECT id, user_id, doctor_id, "when", stt, need, symptoms, created_at, content
		FROM appointments
		WHERE id = $1
	`
	var appt model.Appointment
	if err := r.db.GetContext(ctx, &appt, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.NotFound("appointment", err)
		}
		return nil, fmt.Errorf("failed to get appointment: %w", err)
	}
	return &appt, nil
}

func (r *appointmentRepository) List(ctx context.Context, userID *int64) ([]*model.Appointment, error) {
	defer r.track("appointment_list", time.Now())
	query := `
		SELECT id, user_id, doctor_id, "when", stt, need, symptoms, created_at, content
		FROM appointments
	`
	args := []interface{}{}
	if userID != nil {
		query += ` WHERE user_id = $1`
		args = append(args, *userID)
	}
	query += ` ORDER BY created_at DESC, id DESC`

	var appts []*model.Appointment
	if err := r.db.SelectContext(ctx, &appts, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list appointments: %w", err)
	}
	return appts, nil
}

// HasOverlapping reports whether any existing 15-minute block for the doctor
// intersects [start, end).
func (r *appointmentRepository) HasOverlapping(ctx context.Context, tx *sqlx.Tx, doctorID int64, start, end time.Time) (bool, error) {
	defer r.track("appointment_has_overlapping", time.Now())
	query := `
		SELECT EXISTS (
			SELECT 1 FROM appointments
			WHERE doctor_id = $1 AND "when" < $2 AND "when" > $3
		)
	`
	var exists bool
	err := sqlx.GetContext(ctx, r.ext(tx), &exists, query, doctorID, end, start.Add(-model.SlotDuration))
	if err != nil {
		return false, fmt.Errorf("failed to check appointment overlap: %w", err)
	}
	return exists, nil
}

// MaxDailySequence returns the highest stt assigned to the doctor within
// [dayStart, dayEnd), 0 when none. Must run inside the booking transaction.
func (r *appointmentRepository) MaxDailySequence(ctx context.Context, tx *sqlx.Tx, doctorID int64, dayStart, dayEnd time.Time) (int, error) {
	defer r.track("appointment_max_daily_sequence", time.Now())
	query := `
		SELECT COALESCE(MAX(stt), 0)
		FROM appointments
		WHERE doctor_id = $1 AND "when" >= $2 AND "when" < $3
	`
	var max int
	if err := sqlx.GetContext(ctx, r.ext(tx), &max, query, doctorID, dayStart, dayEnd); err != nil {
		return 0, fmt.Errorf("failed to read daily sequence: %w", err)
	}
	return max, nil
}

// ListOverlapping fetches appointments whose busy block intersects [from, to)
// for the given doctor set; the lower bound is widened by one slot duration.
func (r *appointmentRepository) ListOverlapping(ctx context.Context, doctorIDs []int64, from, to time.Time) ([]*model.Appointment, error) {
	if len(doctorIDs) == 0 {
		return nil, nil
	}
	defer r.track("appointment_list_overlapping", time.Now())
	query, args, err := r.inClause(`
		SELECT id, user_id, doctor_id, "when", stt, need, symptoms, created_at, content
		FROM appointments
		WHERE doctor_id IN (?) AND "when" < ? AND "when" > ?
		ORDER BY "when" ASC
	`, doctorIDs, to, from.Add(-model.SlotDuration))
	if err != nil {
		return nil, fmt.Errorf("failed to build appointment query: %w", err)
	}
	var appts []*model.Appointment
	if err := r.db.SelectContext(ctx, &appts, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list appointments: %w", err)
	}
	return appts, nil
}

// FindInWindow returns the most recently created appointment starting within
// [start, end), or (nil, nil) when the slot is free.
func (r *appointmentRepository) FindInWindow(ctx context.Context, doctorID int64, start, end time.Time) (*model.Appointment, error) {
	defer r.track("appointment_find_in_window", time.Now())
	query := `
		SELECT id, user_id, doctor_id, "when", stt, need, symptoms, created_at, content
		FROM appointments
		WHERE doctor_id = $1 AND "when" >= $2 AND "when" < $3
		ORDER BY created_at DESC
		LIMIT 1
	`
	var appt model.Appointment
	if err := r.db.GetContext(ctx, &appt, query, doctorID, start, end); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find appointment: %w", err)
	}
	return &appt, nil
}

const upcomingColumns = `
	a.id, a."when", a.stt,
	h.id AS hospital_id, h.name AS hospital_name,
	dep.name AS department,
	doc.name AS doctor_name,
	u.id AS user_id, u.name AS user_name, u.phone AS user_phone
`

func (r *appointmentRepository) ListUpcoming(ctx context.Context, userID *int64) ([]*model.UpcomingAppointment, error) {
	defer r.track("appointment_list_upcoming", time.Now())
	query := `
		SELECT ` + upcomingColumns + `
		FROM appointments a
		JOIN users u ON u.id = a.user_id
		JOIN doctors doc ON doc.id = a.doctor_id
		JOIN departments dep ON dep.id = doc.department_id
		JOIN hospitals h ON h.id = dep.hospital_id
	`
	args := []interface{}{}
	if userID != nil {
		query += ` WHERE a.user_id = $1`
		args = append(args, *userID)
	}
	query += ` ORDER BY a."when" ASC`

	var rows []*model.UpcomingAppointment
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list upcoming appointments: %w", err)
	}
	return rows, nil
}

func (r *appointmentRepository) ListUpcomingSince(ctx context.Context, since time.Time) ([]*model.UpcomingAppointment, error) {
	defer r.track("appointment_list_upcoming_since", time.Now())
	query := `
		SELECT ` + upcomingColumns + `
		FROM appointments a
		JOIN users u ON u.id = a.user_id
		JOIN doctors doc ON doc.id = a.doctor_id
		JOIN departments dep ON dep.id = doc.department_id
		JOIN hospitals h ON h.id = dep.hospital_id
		WHERE a."when" >= $1
		ORDER BY h.id ASC, a."when" ASC
	`
	var rows []*model.UpcomingAppointment
	if err := r.db.SelectContext(ctx, &rows, query, since); err != nil {
		return nil, fmt.Errorf("failed to list upcoming appointments: %w", err)
	}
	return rows, nil
}

func (r *appointmentRepository) ListHospitalUsers(ctx context.Context, hospitalID *int64) ([]*model.HospitalUser, error) {
	defer r.track("appointment_list_hospital_users", time.Now())
	query := `
		SELECT h.id AS hospital_id, h.name AS hospital_name,
		       u.id AS user_id, u.name AS user_name, u.phone, u.national_id,
		       COUNT(a.id) AS appointment_count,
		       MAX(a."when") AS last_when
		FROM hospitals h
		JOIN departments dep ON dep.hospital_id = h.id
		JOIN doctors doc ON doc.department_id = dep.id
		JOIN appointments a ON a.doctor_id = doc.id
		JOIN users u ON u.id = a.user_id
	`
	args := []interface{}{}
	if hospitalID != nil {
		query += ` WHERE h.id = $1`
		args = append(args, *hospitalID)
	}
	query += `
		GROUP BY h.id, h.name, u.id, u.name, u.phone, u.national_id
		ORDER BY h.id ASC, MAX(a."when") DESC
	`

	var rows []*model.HospitalUser
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list hospital users: %w", err)
	}
	return rows, nil
}

func (r *appointmentRepository) ListUserProfile(ctx context.Context, hospitalID, userID int64) ([]*model.UserProfileAppointment, error) {
	defer r.track("appointment_list_user_profile", time.Now())
	query := `
		SELECT a.id, a."when", a.stt, doc.name AS doctor_name, dep.name AS department, a.content
		FROM appointments a
		JOIN doctors doc ON doc.id = a.doctor_id
		JOIN departments dep ON dep.id = doc.department_id
		WHERE a.user_id = $1 AND dep.hospital_id = $2
		ORDER BY a."when" DESC
	`
	var rows []*model.UserProfileAppointment
	if err := r.db.SelectContext(ctx, &rows, query, userID, hospitalID); err != nil {
		return nil, fmt.Errorf("failed to list user profile appointments: %w", err)
	}
	return rows, nil
}

func (r *appointmentRepository) UpdateContent(ctx context.Context, id int64, content model.JSONMap) error {
	defer r.track("appointment_update_content", time.Now())
	result, err := r.db.ExecContext(ctx, `UPDATE appointments SET content = $1 WHERE id = $2`, content, id)
	if err != nil {
		return fmt.Errorf("failed to update appointment content: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return apperrors.NotFound("appointment", nil)
	}
	return nil
}
