package hospital

import (
	"context"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medly/medly-api/internal/model"
	apperrors "github.com/medly/medly-api/pkg/errors"
)

type fakeHospitals struct {
	hospitals []*model.Hospital
}

func (f *fakeHospitals) List(context.Context) ([]*model.Hospital, error) { return f.hospitals, nil }
func (f *fakeHospitals) Get(_ context.Context, id int64) (*model.Hospital, error) {
	for _, h := range f.hospitals {
		if h.ID == id {
			return h, nil
		}
	}
	return nil, apperrors.NotFound("hospital", nil)
}
func (f *fakeHospitals) EnsureByName(context.Context, *sqlx.Tx, string) (*model.Hospital, error) {
	return nil, nil
}
func (f *fakeHospitals) ListDepartments(context.Context, []int64) ([]*model.Department, error) {
	return nil, nil
}
func (f *fakeHospitals) EnsureDepartment(context.Context, *sqlx.Tx, int64, string) (*model.Department, error) {
	return nil, nil
}

type fakeUsers struct {
	users []*model.User
}

func (f *fakeUsers) Get(_ context.Context, id int64) (*model.User, error) {
	for _, u := range f.users {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, apperrors.NotFound("user", nil)
}
func (f *fakeUsers) FindByPhone(context.Context, string) (*model.User, error) { return nil, nil }
func (f *fakeUsers) FindByNameAndPhone(context.Context, string, string) (*model.User, error) {
	return nil, nil
}
func (f *fakeUsers) Create(context.Context, *model.User) error { return nil }
func (f *fakeUsers) Update(context.Context, *model.User) error { return nil }
func (f *fakeUsers) EnsureByPhone(context.Context, *sqlx.Tx, string, string) (*model.User, error) {
	return nil, nil
}

type fakeRooms struct{}

func (fakeRooms) List(context.Context, model.RoomFilter) ([]*model.Room, error) { return nil, nil }
func (fakeRooms) Ensure(context.Context, *sqlx.Tx, int64, int64, string, *string) (*model.Room, error) {
	return nil, nil
}

type fakeAppointments struct {
	roster  []*model.HospitalUser
	profile []*model.UserProfileAppointment
}

func (f *fakeAppointments) Create(context.Context, *sqlx.Tx, *model.Appointment) error { return nil }
func (f *fakeAppointments) Get(context.Context, int64) (*model.Appointment, error) {
	return nil, apperrors.NotFound("appointment", nil)
}
func (f *fakeAppointments) List(context.Context, *int64) ([]*model.Appointment, error) {
	return nil, nil
}
func (f *fakeAppointments) HasOverlapping(context.Context, *sqlx.Tx, int64, time.Time, time.Time) (bool, error) {
	return false, nil
}
func (f *fakeAppointments) MaxDailySequence(context.Context, *sqlx.Tx, int64, time.Time, time.Time) (int, error) {
	return 0, nil
}
func (f *fakeAppointments) ListOverlapping(context.Context, []int64, time.Time, time.Time) ([]*model.Appointment, error) {
	return nil, nil
}
func (f *fakeAppointments) FindInWindow(context.Context, int64, time.Time, time.Time) (*model.Appointment, error) {
	return nil, nil
}
func (f *fakeAppointments) ListUpcoming(context.Context, *int64) ([]*model.UpcomingAppointment, error) {
	return nil, nil
}
func (f *fakeAppointments) ListUpcomingSince(context.Context, time.Time) ([]*model.UpcomingAppointment, error) {
	return nil, nil
}
func (f *fakeAppointments) ListHospitalUsers(_ context.Context, hospitalID *int64) ([]*model.HospitalUser, error) {
	if hospitalID == nil {
		return f.roster, nil
	}
	var out []*model.HospitalUser
	for _, r := range f.roster {
		if r.HospitalID == *hospitalID {
			out = append(out, r)
		}
	}
	return out, nil
}
func (f *fakeAppointments) ListUserProfile(context.Context, int64, int64) ([]*model.UserProfileAppointment, error) {
	return f.profile, nil
}
func (f *fakeAppointments) UpdateContent(context.Context, int64, model.JSONMap) error { return nil }

func TestHospitalUsersGroupsByHospital(t *testing.T) {
	appts := &fakeAppointments{roster: []*model.HospitalUser{
		{HospitalID: 1, HospitalName: "City General", UserID: 10, UserName: "An", Appointments: 3},
		{HospitalID: 1, HospitalName: "City General", UserID: 11, UserName: "Binh", Appointments: 1},
		{HospitalID: 2, HospitalName: "Eastside Clinic", UserID: 10, UserName: "An", Appointments: 2},
	}}
	svc := NewService(&fakeHospitals{}, fakeRooms{}, &fakeUsers{}, appts)

	groups, err := svc.HospitalUsers(context.Background(), nil)
	require.NoError(t, err)
	require.Len(t, groups, 2)

	assert.Equal(t, "City General", groups[0].Name)
	assert.Len(t, groups[0].Users, 2)
	assert.Equal(t, "Eastside Clinic", groups[1].Name)
	assert.Len(t, groups[1].Users, 1)
}

func TestHospitalUsersEmptyHospitalStillListed(t *testing.T) {
	hospitals := &fakeHospitals{hospitals: []*model.Hospital{{ID: 5, Name: "Quiet Ward"}}}
	svc := NewService(hospitals, fakeRooms{}, &fakeUsers{}, &fakeAppointments{})

	id := int64(5)
	groups, err := svc.HospitalUsers(context.Background(), &id)
	require.NoError(t, err)
	require.Len(t, groups, 1)
	assert.Equal(t, "Quiet Ward", groups[0].Name)
	assert.Empty(t, groups[0].Users)
}

func TestHospitalUsersUnknownHospital(t *testing.T) {
	svc := NewService(&fakeHospitals{}, fakeRooms{}, &fakeUsers{}, &fakeAppointments{})

	id := int64(404)
	_, err := svc.HospitalUsers(context.Background(), &id)
	assert.Equal(t, apperrors.ErrNotFound, apperrors.CodeOf(err))
}

func TestUserProfileRequiresExistingEntities(t *testing.T) {
	hospitals := &fakeHospitals{hospitals: []*model.Hospital{{ID: 1, Name: "City General"}}}
	users := &fakeUsers{users: []*model.User{{ID: 10, Name: "An"}}}
	appts := &fakeAppointments{profile: []*model.UserProfileAppointment{{ID: 1, DoctorName: "Dr. Binh"}}}
	svc := NewService(hospitals, fakeRooms{}, users, appts)

	profile, err := svc.UserProfile(context.Background(), 1, 10)
	require.NoError(t, err)
	assert.Equal(t, "City General", profile.Hospital.Name)
	assert.Equal(t, "An", profile.User.Name)
	assert.Len(t, profile.Appointments, 1)

	_, err = svc.UserProfile(context.Background(), 2, 10)
	assert.Equal(t, apperrors.ErrNotFound, apperrors.CodeOf(err))

	_, err = svc.UserProfile(context.Background(), 1, 99)
	assert.Equal(t, apperrors.ErrNotFound, apperrors.CodeOf(err))
}
