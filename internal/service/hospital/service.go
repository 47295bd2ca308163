package hospital

import (
	"context"

	"github.com/medly/medly-api/internal/model"
	"github.com/medly/medly-api/internal/repository"
)

type Service struct {
	hospitals repository.HospitalRepository
	rooms     repository.RoomRepository
	users     repository.UserRepository
	appts     repository.AppointmentRepository
}

func NewService(
	hospitals repository.HospitalRepository,
	rooms repository.RoomRepository,
	users repository.UserRepository,
	appts repository.AppointmentRepository,
) *Service {
	return &Service{hospitals: hospitals, rooms: rooms, users: users, appts: appts}
}

func (s *Service) ListRooms(ctx context.Context, filter model.RoomFilter) ([]*model.Room, error) {
	return s.rooms.List(ctx, filter)
}

// HospitalUsers builds the per-hospital patient roster. When a specific
// hospital is requested it appears in the result even with zero patients, so
// callers can distinguish "no patients" from "no such hospital".
func (s *Service) HospitalUsers(ctx context.Context, hospitalID *int64) ([]*model.HospitalUserGroup, error) {
	rows, err := s.appts.ListHospitalUsers(ctx, hospitalID)
	if err != nil {
		return nil, err
	}

	var groups []*model.HospitalUserGroup
	byHospital := make(map[int64]*model.HospitalUserGroup)
	for _, row := range rows {
		g, ok := byHospital[row.HospitalID]
		if !ok {
			g = &model.HospitalUserGroup{
				ID:    row.HospitalID,
				Name:  row.HospitalName,
				Users: []model.HospitalUser{},
			}
			byHospital[row.HospitalID] = g
			groups = append(groups, g)
		}
		g.Users = append(g.Users, *row)
	}

	if hospitalID != nil && len(groups) == 0 {
		h, err := s.hospitals.Get(ctx, *hospitalID)
		if err != nil {
			return nil, err
		}
		groups = append(groups, &model.HospitalUserGroup{
			ID:    h.ID,
			Name:  h.Name,
			Users: []model.HospitalUser{},
		})
	}
	if groups == nil {
		groups = []*model.HospitalUserGroup{}
	}
	return groups, nil
}

// UserProfile is one patient's appointment history at one hospital. Both the
// hospital and the user must exist; an empty history is not an error.
type UserProfile struct {
	Hospital     *model.Hospital                `json:"hospital"`
	User         *model.User                    `json:"user"`
	Appointments []*model.UserProfileAppointment `json:"appointments"`
}

func (s *Service) UserProfile(ctx context.Context, hospitalID, userID int64) (*UserProfile, error) {
	h, err := s.hospitals.Get(ctx, hospitalID)
	if err != nil {
		return nil, err
	}
	u, err := s.users.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	appts, err := s.appts.ListUserProfile(ctx, hospitalID, userID)
	if err != nil {
		return nil, err
	}
	if appts == nil {
		appts = []*model.UserProfileAppointment{}
	}
	return &UserProfile{Hospital: h, User: u, Appointments: appts}, nil
}
