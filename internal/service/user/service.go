package user

import (
	"context"
	"strings"
	"unicode"

	"github.com/medly/medly-api/internal/model"
	"github.com/medly/medly-api/internal/repository"
	apperrors "github.com/medly/medly-api/pkg/errors"
)

type Service struct {
	users repository.UserRepository
}

func NewService(users repository.UserRepository) *Service {
	return &Service{users: users}
}

// UpsertByPhone logs a patient in by phone number, creating the account on
// first contact. An exact (name, phone) match wins; otherwise a phone-only
// match has its name and national id refreshed in place.
func (s *Service) UpsertByPhone(ctx context.Context, req *model.UpsertUserRequest) (*model.User, error) {
	phone := NormalizePhone(req.Phone)
	if phone == "" {
		return nil, apperrors.Validation("phone must contain digits")
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, apperrors.Validation("name must not be empty")
	}

	u, err := s.users.FindByNameAndPhone(ctx, name, phone)
	if err != nil {
		return nil, err
	}
	if u != nil {
		if req.NationalID != nil && (u.NationalID == nil || *u.NationalID != *req.NationalID) {
			u.NationalID = req.NationalID
			if err := s.users.Update(ctx, u); err != nil {
				return nil, err
			}
		}
		return u, nil
	}

	u, err = s.users.FindByPhone(ctx, phone)
	if err != nil {
		return nil, err
	}
	if u != nil {
		u.Name = name
		if req.NationalID != nil {
			u.NationalID = req.NationalID
		}
		if err := s.users.Update(ctx, u); err != nil {
			return nil, err
		}
		return u, nil
	}

	u = &model.User{Name: name, Phone: phone, NationalID: req.NationalID}
	if err := s.users.Create(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

func (s *Service) Get(ctx context.Context, id int64) (*model.User, error) {
	return s.users.Get(ctx, id)
}

// NormalizePhone strips everything but digits so "+84 912-345-678" and
// "0912345678" style inputs compare by their digit sequence.
func NormalizePhone(s string) string {
	var b strings.Builder
	for _, r := range s {
		if unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}
