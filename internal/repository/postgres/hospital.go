package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/medly/medly-api/internal/model"
	apperrors "github.com/medly/medly-api/pkg/errors"
)

type hospitalRepository struct {
	BaseRepository
}

func NewHospitalRepository(base BaseRepository) *hospitalRepository {
	return &hospitalRepository{BaseRepository: base}
}

func (r *hospitalRepository) List(ctx context.Context) ([]*model.Hospital, error) {
	defer r.track("hospital_list", time.Now())
	query := `SELECT id, name, address FROM hospitals ORDER BY id ASC`
	var hospitals []*model.Hospital
	if err := r.db.SelectContext(ctx, &hospitals, query); err != nil {
		return nil, fmt.Errorf("failed to list hospitals: %w", err)
	}
	return hospitals, nil
}

func (r *hospitalRepository) Get(ctx context.Context, id int64) (*model.Hospital, error) {
	defer r.track("hospital_get", time.Now())
	query := `SELECT id, name, address FROM hospitals WHERE id = $1`
	var hospital model.Hospital
	if err := r.db.GetContext(ctx, &hospital, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.NotFound("hospital", err)
		}
		return nil, fmt.Errorf("failed to get hospital: %w", err)
	}
	return &hospital, nil
}

func (r *hospitalRepository) EnsureByName(ctx context.Context, tx *sqlx.Tx, name string) (*model.Hospital, error) {
	defer r.track("hospital_ensure", time.Now())
	var hospital model.Hospital
	err := sqlx.GetContext(ctx, r.ext(tx), &hospital,
		`SELECT id, name, address FROM hospitals WHERE lower(name) = lower($1) LIMIT 1`, name)
	if err == nil {
		return &hospital, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("failed to find hospital: %w", err)
	}

	err = sqlx.GetContext(ctx, r.ext(tx), &hospital,
		`INSERT INTO hospitals (name) VALUES ($1) RETURNING id, name, address`, name)
	if err != nil {
		return nil, fmt.Errorf("failed to create hospital: %w", err)
	}
	return &hospital, nil
}

func (r *hospitalRepository) ListDepartments(ctx context.Context, hospitalIDs []int64) ([]*model.Department, error) {
	if len(hospitalIDs) == 0 {
		return nil, nil
	}
	defer r.track("department_list", time.Now())
	query, args, err := r.inClause(
		`SELECT id, name, hospital_id FROM departments WHERE hospital_id IN (?) ORDER BY id ASC`, hospitalIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to build department query: %w", err)
	}
	var departments []*model.Department
	if err := r.db.SelectContext(ctx, &departments, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list departments: %w", err)
	}
	return departments, nil
}

func (r *hospitalRepository) EnsureDepartment(ctx context.Context, tx *sqlx.Tx, hospitalID int64, name string) (*model.Department, error) {
	defer r.track("department_ensure", time.Now())
	var department model.Department
	err := sqlx.GetContext(ctx, r.ext(tx), &department,
		`SELECT id, name, hospital_id FROM departments WHERE hospital_id = $1 AND lower(name) = lower($2) LIMIT 1`,
		hospitalID, name)
	if err == nil {
		return &department, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("failed to find department: %w", err)
	}

	err = sqlx.GetContext(ctx, r.ext(tx), &department,
		`INSERT INTO departments (name, hospital_id) VALUES ($1, $2) RETURNING id, name, hospital_id`,
		name, hospitalID)
	if err != nil {
		return nil, fmt.Errorf("failed to create department: %w", err)
	}
	return &department, nil
}
