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

type userRepository struct {
	BaseRepository
}

func NewUserRepository(base BaseRepository) *userRepository {
	return &userRepository{BaseRepository: base}
}

func (r *userRepository) Get(ctx context.Context, id int64) (*model.User, error) {
	defer r.track("user_get", time.Now())
	query := `SELECT id, name, phone, national_id FROM users WHERE id = $1`
	var user model.User
	if err := r.db.GetContext(ctx, &user, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.NotFound("user", err)
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &user, nil
}

// FindByPhone returns (nil, nil) when no user has the phone.
func (r *userRepository) FindByPhone(ctx context.Context, phone string) (*model.User, error) {
	defer r.track("user_find_by_phone", time.Now())
	query := `SELECT id, name, phone, national_id FROM users WHERE phone = $1`
	var user model.User
	if err := r.db.GetContext(ctx, &user, query, phone); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find user by phone: %w", err)
	}
	return &user, nil
}

// FindByNameAndPhone matches case-insensitively on name; (nil, nil) when absent.
func (r *userRepository) FindByNameAndPhone(ctx context.Context, name, phone string) (*model.User, error) {
	defer r.track("user_find_by_name_phone", time.Now())
	query := `SELECT id, name, phone, national_id FROM users WHERE lower(name) = lower($1) AND phone = $2`
	var user model.User
	if err := r.db.GetContext(ctx, &user, query, name, phone); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find user by name and phone: %w", err)
	}
	return &user, nil
}

func (r *userRepository) Create(ctx context.Context, user *model.User) error {
	defer r.track("user_create", time.Now())
	query := `INSERT INTO users (name, phone, national_id) VALUES ($1, $2, $3) RETURNING id`
	if err := r.db.GetContext(ctx, &user.ID, query, user.Name, user.Phone, user.NationalID); err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

func (r *userRepository) Update(ctx context.Context, user *model.User) error {
	defer r.track("user_update", time.Now())
	query := `UPDATE users SET name = $1, phone = $2, national_id = $3 WHERE id = $4`
	result, err := r.db.ExecContext(ctx, query, user.Name, user.Phone, user.NationalID, user.ID)
	if err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return apperrors.NotFound("user", nil)
	}
	return nil
}

func (r *userRepository) EnsureByPhone(ctx context.Context, tx *sqlx.Tx, name, phone string) (*model.User, error) {
	defer r.track("user_ensure_by_phone", time.Now())
	var user model.User
	err := sqlx.GetContext(ctx, r.ext(tx), &user,
		`SELECT id, name, phone, national_id FROM users WHERE phone = $1`, phone)
	if err == nil {
		return &user, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	err = sqlx.GetContext(ctx, r.ext(tx), &user,
		`INSERT INTO users (name, phone) VALUES ($1, $2) RETURNING id, name, phone, national_id`,
		name, phone)
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return &user, nil
}
