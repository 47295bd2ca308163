package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/medly/medly-api/internal/model"
)

type roomRepository struct {
	BaseRepository
}

func NewRoomRepository(base BaseRepository) *roomRepository {
	return &roomRepository{BaseRepository: base}
}

func (r *roomRepository) List(ctx context.Context, filter model.RoomFilter) ([]*model.Room, error) {
	defer r.track("room_list", time.Now())
	query := `SELECT id, department_id, hospital_id, code, name FROM rooms WHERE 1=1`
	args := []interface{}{}
	argCount := 1

	if filter.DepartmentID != nil {
		query += fmt.Sprintf(" AND department_id = $%d", argCount)
		args = append(args, *filter.DepartmentID)
		argCount++
	}
	if filter.HospitalID != nil {
		query += fmt.Sprintf(" AND hospital_id = $%d", argCount)
		args = append(args, *filter.HospitalID)
		argCount++
	}
	query += " ORDER BY hospital_id ASC, department_id ASC, code ASC"

	var rooms []*model.Room
	if err := r.db.SelectContext(ctx, &rooms, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list rooms: %w", err)
	}
	return rooms, nil
}

func (r *roomRepository) Ensure(ctx context.Context, tx *sqlx.Tx, hospitalID, departmentID int64, code string, name *string) (*model.Room, error) {
	defer r.track("room_ensure", time.Now())
	var room model.Room
	err := sqlx.GetContext(ctx, r.ext(tx), &room,
		`SELECT id, department_id, hospital_id, code, name FROM rooms WHERE hospital_id = $1 AND code = $2 LIMIT 1`,
		hospitalID, code)
	if err == nil {
		return &room, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("failed to find room: %w", err)
	}

	err = sqlx.GetContext(ctx, r.ext(tx), &room,
		`INSERT INTO rooms (department_id, hospital_id, code, name) VALUES ($1, $2, $3, $4)
		 RETURNING id, department_id, hospital_id, code, name`,
		departmentID, hospitalID, code, name)
	if err != nil {
		return nil, fmt.Errorf("failed to create room: %w", err)
	}
	return &room, nil
}
