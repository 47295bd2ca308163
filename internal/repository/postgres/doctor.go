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

type doctorRepository struct {
	BaseRepository
}

func NewDoctorRepository(base BaseRepository) *doctorRepository {
	return &doctorRepository{BaseRepository: base}
}

func (r *doctorRepository) Get(ctx context.Context, id int64) (*model.Doctor, error) {
	defer r.track("doctor_get", time.Now())
	query := `SELECT id, name, department_id, phone, roles FROM doctors WHERE id = $1`
	var doctor model.Doctor
	if err := r.db.GetContext(ctx, &doctor, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.NotFound("doctor", err)
		}
		return nil, fmt.Errorf("failed to get doctor: %w", err)
	}
	return &doctor, nil
}

func (r *doctorRepository) GetWithOrg(ctx context.Context, id int64) (*model.DoctorOrg, error) {
	defer r.track("doctor_get_with_org", time.Now())
	query := `
		SELECT doc.id, doc.name, doc.department_id, doc.phone, doc.roles,
		       dep.name AS department_name,
		       h.id AS hospital_id, h.name AS hospital_name, h.address AS hospital_address
		FROM doctors doc
		JOIN departments dep ON dep.id = doc.department_id
		JOIN hospitals h ON h.id = dep.hospital_id
		WHERE doc.id = $1
	`
	row := r.db.QueryRowxContext(ctx, query, id)
	var out model.DoctorOrg
	err := row.Scan(
		&out.Doctor.ID, &out.Doctor.Name, &out.Doctor.DepartmentID, &out.Doctor.Phone, &out.Doctor.Roles,
		&out.DepartmentName, &out.HospitalID, &out.HospitalName, &out.HospitalAddress,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.NotFound("doctor", err)
		}
		return nil, fmt.Errorf("failed to get doctor with org: %w", err)
	}
	return &out, nil
}

func (r *doctorRepository) ListAll(ctx context.Context) ([]*model.Doctor, error) {
	defer r.track("doctor_list_all", time.Now())
	query := `SELECT id, name, department_id, phone, roles FROM doctors ORDER BY id ASC`
	var doctors []*model.Doctor
	if err := r.db.SelectContext(ctx, &doctors, query); err != nil {
		return nil, fmt.Errorf("failed to list doctors: %w", err)
	}
	return doctors, nil
}

func (r *doctorRepository) ListByDepartments(ctx context.Context, departmentIDs []int64) ([]*model.Doctor, error) {
	if len(departmentIDs) == 0 {
		return nil, nil
	}
	defer r.track("doctor_list_by_departments", time.Now())
	query, args, err := r.inClause(
		`SELECT id, name, department_id, phone, roles FROM doctors WHERE department_id IN (?) ORDER BY id ASC`,
		departmentIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to build doctor query: %w", err)
	}
	var doctors []*model.Doctor
	if err := r.db.SelectContext(ctx, &doctors, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list doctors: %w", err)
	}
	return doctors, nil
}

func (r *doctorRepository) ListByHospital(ctx context.Context, hospitalID int64) ([]*model.Doctor, error) {
	defer r.track("doctor_list_by_hospital", time.Now())
	query := `
		SELECT doc.id, doc.name, doc.department_id, doc.phone, doc.roles
		FROM doctors doc
		JOIN departments dep ON dep.id = doc.department_id
		WHERE dep.hospital_id = $1
		ORDER BY doc.id ASC
	`
	var doctors []*model.Doctor
	if err := r.db.SelectContext(ctx, &doctors, query, hospitalID); err != nil {
		return nil, fmt.Errorf("failed to list doctors by hospital: %w", err)
	}
	return doctors, nil
}

func (r *doctorRepository) EnsureByName(ctx context.Context, tx *sqlx.Tx, departmentID int64, name string, phone *string, roles model.StringList) (*model.Doctor, error) {
	defer r.track("doctor_ensure", time.Now())
	var doctor model.Doctor
	err := sqlx.GetContext(ctx, r.ext(tx), &doctor,
		`SELECT id, name, department_id, phone, roles FROM doctors WHERE department_id = $1 AND lower(name) = lower($2) LIMIT 1`,
		departmentID, name)
	if err == nil {
		return &doctor, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("failed to find doctor: %w", err)
	}

	err = sqlx.GetContext(ctx, r.ext(tx), &doctor,
		`INSERT INTO doctors (name, department_id, phone, roles) VALUES ($1, $2, $3, $4)
		 RETURNING id, name, department_id, phone, roles`,
		name, departmentID, phone, roles)
	if err != nil {
		return nil, fmt.Errorf("failed to create doctor: %w", err)
	}
	return &doctor, nil
}
