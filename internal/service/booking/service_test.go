package booking

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

type fakeTx struct{}

func (fakeTx) WithTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	return fn(nil)
}

type fakeWindows struct {
	covering bool
	oooHit   bool
}

func (f *fakeWindows) Create(context.Context, *sqlx.Tx, *model.ScheduleWindow) error { return nil }
func (f *fakeWindows) Delete(context.Context, int64) error                           { return nil }
func (f *fakeWindows) FindExact(context.Context, *sqlx.Tx, int64, model.WindowKind, time.Time, time.Time) (int64, bool, error) {
	return 0, false, nil
}
func (f *fakeWindows) HasCovering(_ context.Context, _ *sqlx.Tx, _ int64, kind model.WindowKind, _, _ time.Time) (bool, error) {
	return f.covering, nil
}
func (f *fakeWindows) HasOverlapping(_ context.Context, _ *sqlx.Tx, _ int64, kind model.WindowKind, _, _ time.Time) (bool, error) {
	if kind == model.WindowOOO {
		return f.oooHit, nil
	}
	return false, nil
}
func (f *fakeWindows) ListOverlapping(context.Context, []int64, time.Time, time.Time) ([]*model.ScheduleWindow, error) {
	return nil, nil
}
func (f *fakeWindows) DeleteOverlapping(context.Context, *sqlx.Tx, int64, time.Time, time.Time) (int, error) {
	return 0, nil
}

type fakeAppointments struct {
	busy    bool
	maxSeq  int
	created []*model.Appointment
}

func (f *fakeAppointments) Create(_ context.Context, _ *sqlx.Tx, appt *model.Appointment) error {
	appt.ID = int64(len(f.created) + 1)
	appt.CreatedAt = time.Now()
	f.created = append(f.created, appt)
	return nil
}
func (f *fakeAppointments) Get(context.Context, int64) (*model.Appointment, error) {
	return nil, apperrors.NotFound("appointment", nil)
}
func (f *fakeAppointments) List(context.Context, *int64) ([]*model.Appointment, error) {
	return nil, nil
}
func (f *fakeAppointments) HasOverlapping(context.Context, *sqlx.Tx, int64, time.Time, time.Time) (bool, error) {
	return f.busy, nil
}
func (f *fakeAppointments) MaxDailySequence(context.Context, *sqlx.Tx, int64, time.Time, time.Time) (int, error) {
	return f.maxSeq, nil
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
func (f *fakeAppointments) ListHospitalUsers(context.Context, *int64) ([]*model.HospitalUser, error) {
	return nil, nil
}
func (f *fakeAppointments) ListUserProfile(context.Context, int64, int64) ([]*model.UserProfileAppointment, error) {
	return nil, nil
}
func (f *fakeAppointments) UpdateContent(context.Context, int64, model.JSONMap) error { return nil }

type fakeUsers struct {
	byID        map[int64]*model.User
	ensured     *model.User
	ensureCalls []string
}

func (f *fakeUsers) Get(_ context.Context, id int64) (*model.User, error) {
	if u, ok := f.byID[id]; ok {
		return u, nil
	}
	return nil, apperrors.NotFound("user", nil)
}
func (f *fakeUsers) FindByPhone(context.Context, string) (*model.User, error)      { return nil, nil }
func (f *fakeUsers) FindByNameAndPhone(context.Context, string, string) (*model.User, error) {
	return nil, nil
}
func (f *fakeUsers) Create(context.Context, *model.User) error { return nil }
func (f *fakeUsers) Update(context.Context, *model.User) error { return nil }
func (f *fakeUsers) EnsureByPhone(_ context.Context, _ *sqlx.Tx, name, phone string) (*model.User, error) {
	f.ensureCalls = append(f.ensureCalls, phone)
	if f.ensured != nil {
		return f.ensured, nil
	}
	return &model.User{ID: 99, Name: name, Phone: phone}, nil
}

type fakeDoctors struct {
	doctor *model.Doctor
}

func (f *fakeDoctors) Get(_ context.Context, id int64) (*model.Doctor, error) {
	if f.doctor != nil && f.doctor.ID == id {
		return f.doctor, nil
	}
	return nil, apperrors.NotFound("doctor", nil)
}
func (f *fakeDoctors) GetWithOrg(context.Context, int64) (*model.DoctorOrg, error) {
	return nil, apperrors.NotFound("doctor", nil)
}
func (f *fakeDoctors) ListAll(context.Context) ([]*model.Doctor, error) { return nil, nil }
func (f *fakeDoctors) ListByDepartments(context.Context, []int64) ([]*model.Doctor, error) {
	return nil, nil
}
func (f *fakeDoctors) ListByHospital(context.Context, int64) ([]*model.Doctor, error) {
	return nil, nil
}
func (f *fakeDoctors) EnsureByName(_ context.Context, _ *sqlx.Tx, departmentID int64, name string, _ *string, _ model.StringList) (*model.Doctor, error) {
	return &model.Doctor{ID: 7, DepartmentID: departmentID, Name: name}, nil
}

type fakeHospitals struct{}

func (fakeHospitals) List(context.Context) ([]*model.Hospital, error) { return nil, nil }
func (fakeHospitals) Get(context.Context, int64) (*model.Hospital, error) {
	return nil, apperrors.NotFound("hospital", nil)
}
func (fakeHospitals) EnsureByName(_ context.Context, _ *sqlx.Tx, name string) (*model.Hospital, error) {
	return &model.Hospital{ID: 3, Name: name}, nil
}
func (fakeHospitals) ListDepartments(context.Context, []int64) ([]*model.Department, error) {
	return nil, nil
}
func (fakeHospitals) EnsureDepartment(_ context.Context, _ *sqlx.Tx, hospitalID int64, name string) (*model.Department, error) {
	return &model.Department{ID: 5, HospitalID: hospitalID, Name: name}, nil
}

func newTestService(windows *fakeWindows, appts *fakeAppointments, users *fakeUsers) *Service {
	return NewService(fakeTx{}, appts, windows, &fakeDoctors{}, users, fakeHospitals{}, nil, nil)
}

func validRequest() *model.BookingRequest {
	return &model.BookingRequest{
		UserID:       "1",
		Name:         "An Nguyen",
		Phone:        "0912345678",
		Need:         "checkup",
		HospitalID:   "3",
		HospitalName: "City General",
		Department:   "Cardiology",
		DoctorID:     "7",
		DoctorName:   "Dr. Binh",
		Time:         "2026-03-02T09:00:00",
	}
}

func TestCheckAndBookAccepted(t *testing.T) {
	windows := &fakeWindows{covering: true}
	appts := &fakeAppointments{}
	users := &fakeUsers{byID: map[int64]*model.User{1: {ID: 1, Name: "An Nguyen", Phone: "0912345678"}}}
	svc := newTestService(windows, appts, users)

	appt, err := svc.CheckAndBook(context.Background(), validRequest())
	require.NoError(t, err)
	require.NotNil(t, appt)

	assert.Equal(t, int64(1), appt.UserID)
	assert.Equal(t, int64(7), appt.DoctorID)
	assert.Equal(t, time.Date(2026, 3, 2, 9, 0, 0, 0, time.Local), appt.When)
	require.NotNil(t, appt.STT)
	assert.Equal(t, 1, *appt.STT)
	assert.Equal(t, "City General", appt.Content["hospital"])
	assert.Len(t, appts.created, 1)
}

func TestCheckAndBookRejectedOutsideWorkingHours(t *testing.T) {
	svc := newTestService(&fakeWindows{covering: false}, &fakeAppointments{}, &fakeUsers{})

	_, err := svc.CheckAndBook(context.Background(), validRequest())
	require.Error(t, err)
	assert.True(t, apperrors.IsConflict(err))
	assert.Contains(t, err.Error(), ReasonNotCovered)
}

func TestCheckAndBookRejectedOutOfOffice(t *testing.T) {
	svc := newTestService(&fakeWindows{covering: true, oooHit: true}, &fakeAppointments{}, &fakeUsers{})

	_, err := svc.CheckAndBook(context.Background(), validRequest())
	require.Error(t, err)
	assert.True(t, apperrors.IsConflict(err))
	assert.Contains(t, err.Error(), ReasonOOO)
}

func TestCheckAndBookRejectedSlotTaken(t *testing.T) {
	svc := newTestService(&fakeWindows{covering: true}, &fakeAppointments{busy: true}, &fakeUsers{})

	_, err := svc.CheckAndBook(context.Background(), validRequest())
	require.Error(t, err)
	assert.True(t, apperrors.IsConflict(err))
	assert.Contains(t, err.Error(), ReasonSlotTaken)
}

func TestCheckAndBookSequenceIncrements(t *testing.T) {
	appts := &fakeAppointments{maxSeq: 2}
	users := &fakeUsers{byID: map[int64]*model.User{1: {ID: 1}}}
	svc := newTestService(&fakeWindows{covering: true}, appts, users)

	appt, err := svc.CheckAndBook(context.Background(), validRequest())
	require.NoError(t, err)
	require.NotNil(t, appt.STT)
	assert.Equal(t, 3, *appt.STT)
}

func TestCheckAndBookStaleUserFallsBackToPhone(t *testing.T) {
	users := &fakeUsers{} // no user with id 1
	svc := newTestService(&fakeWindows{covering: true}, &fakeAppointments{}, users)

	req := validRequest()
	req.Phone = "+84 912-345-678"
	appt, err := svc.CheckAndBook(context.Background(), req)
	require.NoError(t, err)

	require.Len(t, users.ensureCalls, 1)
	assert.Equal(t, "84912345678", users.ensureCalls[0])
	assert.Equal(t, int64(99), appt.UserID)
}

func TestCheckAndBookInvalidInputs(t *testing.T) {
	svc := newTestService(&fakeWindows{covering: true}, &fakeAppointments{}, &fakeUsers{})

	req := validRequest()
	req.Time = "yesterday at noon"
	_, err := svc.CheckAndBook(context.Background(), req)
	assert.Equal(t, apperrors.ErrValidation, apperrors.CodeOf(err))

	req = validRequest()
	req.DoctorID = "dr-binh"
	_, err = svc.CheckAndBook(context.Background(), req)
	assert.Equal(t, apperrors.ErrValidation, apperrors.CodeOf(err))

	req = validRequest()
	req.UserID = "nope"
	_, err = svc.CheckAndBook(context.Background(), req)
	assert.Equal(t, apperrors.ErrValidation, apperrors.CodeOf(err))
}

func TestIngestCreatesEntitiesAndSummary(t *testing.T) {
	appts := &fakeAppointments{}
	users := &fakeUsers{}
	svc := newTestService(&fakeWindows{covering: true}, appts, users)

	room := "C-204"
	summary, err := svc.Ingest(context.Background(), &model.ExternalBookingRequest{
		Hospital:       "City General",
		PatientName:    "An Nguyen",
		PhoneNumber:    "0912 345 678",
		DoctorName:     "Dr. Binh",
		DepartmentName: "Cardiology",
		RoomCode:       &room,
		TimeSlot:       "2026-03-02T09:30:00",
		Symptoms:       []string{"cough", "fever"},
	})
	require.NoError(t, err)
	require.NotNil(t, summary)

	assert.Equal(t, "99", summary.UserID)
	assert.Equal(t, "3", summary.HospitalID)
	assert.Equal(t, "7", summary.DoctorID)
	assert.Equal(t, "Cardiology", summary.Department)
	assert.Equal(t, "visit at room C-204", summary.Need)
	require.NotNil(t, summary.Symptoms)
	assert.Equal(t, "cough, fever", *summary.Symptoms)
	assert.Equal(t, "2026-03-02T09:30:00", summary.Time)

	require.Len(t, appts.created, 1)
	created := appts.created[0]
	assert.Equal(t, "City General", created.Content["hospital"])
	require.NotNil(t, created.STT)
	assert.Equal(t, 1, *created.STT)
	require.Len(t, users.ensureCalls, 1)
	assert.Equal(t, "0912345678", users.ensureCalls[0])
}

func TestIngestRejectedSlotKeepsNothing(t *testing.T) {
	appts := &fakeAppointments{busy: true}
	svc := newTestService(&fakeWindows{covering: true}, appts, &fakeUsers{})

	_, err := svc.Ingest(context.Background(), &model.ExternalBookingRequest{
		Hospital:       "City General",
		PatientName:    "An Nguyen",
		PhoneNumber:    "0912345678",
		DoctorName:     "Dr. Binh",
		DepartmentName: "Cardiology",
		TimeSlot:       "2026-03-02T09:30:00",
	})
	require.Error(t, err)
	assert.True(t, apperrors.IsConflict(err))
	assert.Empty(t, appts.created)
}

func TestParseLocalTimeForms(t *testing.T) {
	want := time.Date(2026, 3, 2, 9, 0, 0, 0, time.Local)
	for _, in := range []string{
		"2026-03-02T09:00:00",
		"2026-03-02T09:00",
		"2026-03-02T09:00:00Z",
	} {
		got, err := parseLocalTime(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := parseLocalTime("02/03/2026 09:00")
	assert.Error(t, err)
}
