package schedule

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

// memWindows is an in-memory window store with real overlap semantics, so
// bulk adjust runs end to end against it.
type memWindows struct {
	nextID  int64
	windows []*model.ScheduleWindow
}

func (m *memWindows) Create(_ context.Context, _ *sqlx.Tx, w *model.ScheduleWindow) error {
	m.nextID++
	w.ID = m.nextID
	cp := *w
	m.windows = append(m.windows, &cp)
	return nil
}

func (m *memWindows) Delete(_ context.Context, id int64) error {
	for i, w := range m.windows {
		if w.ID == id {
			m.windows = append(m.windows[:i], m.windows[i+1:]...)
			return nil
		}
	}
	return apperrors.NotFound("window", nil)
}

func (m *memWindows) FindExact(_ context.Context, _ *sqlx.Tx, doctorID int64, kind model.WindowKind, start, end time.Time) (int64, bool, error) {
	for _, w := range m.windows {
		if w.DoctorID == doctorID && w.Kind == kind && w.Start.Equal(start) && w.End.Equal(end) {
			return w.ID, true, nil
		}
	}
	return 0, false, nil
}

func (m *memWindows) HasCovering(_ context.Context, _ *sqlx.Tx, doctorID int64, kind model.WindowKind, start, end time.Time) (bool, error) {
	for _, w := range m.windows {
		if w.DoctorID == doctorID && w.Kind == kind && !w.Start.After(start) && !w.End.Before(end) {
			return true, nil
		}
	}
	return false, nil
}

func (m *memWindows) HasOverlapping(_ context.Context, _ *sqlx.Tx, doctorID int64, kind model.WindowKind, start, end time.Time) (bool, error) {
	for _, w := range m.windows {
		if w.DoctorID == doctorID && w.Kind == kind && w.Start.Before(end) && w.End.After(start) {
			return true, nil
		}
	}
	return false, nil
}

func (m *memWindows) ListOverlapping(_ context.Context, doctorIDs []int64, from, to time.Time) ([]*model.ScheduleWindow, error) {
	ids := make(map[int64]bool, len(doctorIDs))
	for _, id := range doctorIDs {
		ids[id] = true
	}
	var out []*model.ScheduleWindow
	for _, w := range m.windows {
		if ids[w.DoctorID] && w.Start.Before(to) && w.End.After(from) {
			out = append(out, w)
		}
	}
	return out, nil
}

func (m *memWindows) DeleteOverlapping(_ context.Context, _ *sqlx.Tx, doctorID int64, from, to time.Time) (int, error) {
	var kept []*model.ScheduleWindow
	deleted := 0
	for _, w := range m.windows {
		if w.DoctorID == doctorID && w.Start.Before(to) && w.End.After(from) {
			deleted++
			continue
		}
		kept = append(kept, w)
	}
	m.windows = kept
	return deleted, nil
}

type fakeAppointments struct {
	appts []*model.Appointment
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
	return f.appts, nil
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

type fakeOrg struct {
	hospitals   []*model.Hospital
	departments []*model.Department
	doctors     []*model.Doctor
}

func (f *fakeOrg) List(context.Context) ([]*model.Hospital, error) { return f.hospitals, nil }
func (f *fakeOrg) Get(_ context.Context, id int64) (*model.Hospital, error) {
	for _, h := range f.hospitals {
		if h.ID == id {
			return h, nil
		}
	}
	return nil, apperrors.NotFound("hospital", nil)
}
func (f *fakeOrg) EnsureByName(context.Context, *sqlx.Tx, string) (*model.Hospital, error) {
	return nil, nil
}
func (f *fakeOrg) ListDepartments(context.Context, []int64) ([]*model.Department, error) {
	return f.departments, nil
}
func (f *fakeOrg) EnsureDepartment(context.Context, *sqlx.Tx, int64, string) (*model.Department, error) {
	return nil, nil
}

func (f *fakeOrg) GetDoctor(_ context.Context, id int64) (*model.Doctor, error) {
	for _, d := range f.doctors {
		if d.ID == id {
			return d, nil
		}
	}
	return nil, apperrors.NotFound("doctor", nil)
}

type fakeDoctors struct {
	org *fakeOrg
}

func (f *fakeDoctors) Get(ctx context.Context, id int64) (*model.Doctor, error) {
	return f.org.GetDoctor(ctx, id)
}
func (f *fakeDoctors) GetWithOrg(context.Context, int64) (*model.DoctorOrg, error) {
	return nil, apperrors.NotFound("doctor", nil)
}
func (f *fakeDoctors) ListAll(context.Context) ([]*model.Doctor, error) { return f.org.doctors, nil }
func (f *fakeDoctors) ListByDepartments(_ context.Context, ids []int64) ([]*model.Doctor, error) {
	match := make(map[int64]bool, len(ids))
	for _, id := range ids {
		match[id] = true
	}
	var out []*model.Doctor
	for _, d := range f.org.doctors {
		if match[d.DepartmentID] {
			out = append(out, d)
		}
	}
	return out, nil
}
func (f *fakeDoctors) ListByHospital(_ context.Context, hospitalID int64) ([]*model.Doctor, error) {
	deps := make(map[int64]bool)
	for _, dep := range f.org.departments {
		if dep.HospitalID == hospitalID {
			deps[dep.ID] = true
		}
	}
	var out []*model.Doctor
	for _, d := range f.org.doctors {
		if deps[d.DepartmentID] {
			out = append(out, d)
		}
	}
	return out, nil
}
func (f *fakeDoctors) EnsureByName(context.Context, *sqlx.Tx, int64, string, *string, model.StringList) (*model.Doctor, error) {
	return nil, nil
}

func newTestService(org *fakeOrg, windows *memWindows, appts *fakeAppointments) *Service {
	return NewService(fakeTx{}, org, &fakeDoctors{org: org}, windows, appts)
}

func defaultOrg() *fakeOrg {
	return &fakeOrg{
		hospitals:   []*model.Hospital{{ID: 1, Name: "City General"}},
		departments: []*model.Department{{ID: 10, HospitalID: 1, Name: "Cardiology"}},
		doctors: []*model.Doctor{
			{ID: 100, DepartmentID: 10, Name: "Dr. Binh"},
			{ID: 101, DepartmentID: 10, Name: "Dr. Chi"},
		},
	}
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.Local)
}

func TestBulkAdjustWritesMergedWindows(t *testing.T) {
	windows := &memWindows{}
	svc := newTestService(defaultOrg(), windows, &fakeAppointments{})

	result, err := svc.BulkAdjust(context.Background(), &model.BulkAdjustRequest{
		ScopeKind: "doctor",
		ScopeID:   100,
		DateStart: "2026-03-02",
		DateEnd:   "2026-03-02",
		Available: []model.BulkRule{{Start: "08:00", End: "12:00"}, {Start: "13:00", End: "17:00"}},
		OOO:       []model.BulkRule{{Start: "10:00", End: "10:30"}},
	})
	require.NoError(t, err)

	assert.Equal(t, 1, result.Doctors)
	assert.Equal(t, 1, result.Days)
	assert.Equal(t, 4, result.Inserted) // 3 available after the OOO split + 1 ooo
	assert.Equal(t, 0, result.Deleted)

	var avail, ooo int
	for _, w := range windows.windows {
		switch w.Kind {
		case model.WindowAvailable:
			avail++
		case model.WindowOOO:
			ooo++
		}
	}
	assert.Equal(t, 3, avail)
	assert.Equal(t, 1, ooo)
}

func TestBulkAdjustRerunIsIdempotent(t *testing.T) {
	windows := &memWindows{}
	svc := newTestService(defaultOrg(), windows, &fakeAppointments{})

	req := &model.BulkAdjustRequest{
		ScopeKind: "doctor",
		ScopeID:   100,
		DateStart: "2026-03-02",
		DateEnd:   "2026-03-03",
		Available: []model.BulkRule{{Start: "08:00", End: "17:00"}},
	}

	first, err := svc.BulkAdjust(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, 2, first.Inserted)
	assert.Equal(t, 0, first.Deleted)

	second, err := svc.BulkAdjust(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, 2, second.Inserted)
	assert.Equal(t, first.Inserted, second.Deleted)
	assert.Len(t, windows.windows, 2)
}

func TestBulkAdjustWithoutOverwriteSkipsDuplicates(t *testing.T) {
	windows := &memWindows{}
	svc := newTestService(defaultOrg(), windows, &fakeAppointments{})

	no := false
	req := &model.BulkAdjustRequest{
		ScopeKind: "doctor",
		ScopeID:   100,
		DateStart: "2026-03-02",
		DateEnd:   "2026-03-02",
		Available: []model.BulkRule{{Start: "08:00", End: "17:00"}},
		Overwrite: &no,
	}

	_, err := svc.BulkAdjust(context.Background(), req)
	require.NoError(t, err)

	second, err := svc.BulkAdjust(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, 0, second.Inserted)
	assert.Equal(t, 0, second.Deleted)
	assert.Len(t, windows.windows, 1)
}

func TestBulkAdjustHospitalScopeCoversAllDoctors(t *testing.T) {
	windows := &memWindows{}
	svc := newTestService(defaultOrg(), windows, &fakeAppointments{})

	result, err := svc.BulkAdjust(context.Background(), &model.BulkAdjustRequest{
		ScopeKind: "hospital",
		ScopeID:   1,
		DateStart: "2026-03-02",
		DateEnd:   "2026-03-02",
		Available: []model.BulkRule{{Start: "08:00", End: "12:00"}},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, result.Doctors)
	assert.Equal(t, 2, result.Inserted)
}

func TestBulkAdjustUnknownDoctorIsNoop(t *testing.T) {
	windows := &memWindows{}
	svc := newTestService(defaultOrg(), windows, &fakeAppointments{})

	result, err := svc.BulkAdjust(context.Background(), &model.BulkAdjustRequest{
		ScopeKind: "doctor",
		ScopeID:   999,
		DateStart: "2026-03-02",
		DateEnd:   "2026-03-02",
		Available: []model.BulkRule{{Start: "08:00", End: "12:00"}},
	})
	require.NoError(t, err)
	assert.Equal(t, 0, result.Doctors)
	assert.Empty(t, windows.windows)
}

func TestBulkAdjustValidatesBeforeWriting(t *testing.T) {
	windows := &memWindows{}
	svc := newTestService(defaultOrg(), windows, &fakeAppointments{})

	cases := []*model.BulkAdjustRequest{
		{ScopeKind: "clinic", ScopeID: 1, DateStart: "2026-03-02", DateEnd: "2026-03-02"},
		{ScopeKind: "doctor", ScopeID: 100, DateStart: "not-a-date", DateEnd: "2026-03-02"},
		{ScopeKind: "doctor", ScopeID: 100, DateStart: "2026-03-03", DateEnd: "2026-03-02"},
		{ScopeKind: "doctor", ScopeID: 100, DateStart: "2026-03-02", DateEnd: "2026-03-02",
			Available: []model.BulkRule{{Start: "25:00", End: "26:00"}}},
		{ScopeKind: "doctor", ScopeID: 100, DateStart: "2026-03-02", DateEnd: "2026-03-02",
			Available: []model.BulkRule{{Start: "12:00", End: "12:00"}}},
	}
	for _, req := range cases {
		_, err := svc.BulkAdjust(context.Background(), req)
		assert.Equal(t, apperrors.ErrValidation, apperrors.CodeOf(err))
	}
	assert.Empty(t, windows.windows)
}

func TestBulkAdjustEndOfDaySentinel(t *testing.T) {
	windows := &memWindows{}
	svc := newTestService(defaultOrg(), windows, &fakeAppointments{})

	_, err := svc.BulkAdjust(context.Background(), &model.BulkAdjustRequest{
		ScopeKind: "doctor",
		ScopeID:   100,
		DateStart: "2026-03-02",
		DateEnd:   "2026-03-02",
		OOO:       []model.BulkRule{{Start: "17:00", End: "24:00"}},
	})
	require.NoError(t, err)

	require.Len(t, windows.windows, 1)
	assert.Equal(t, day(2026, 3, 3), windows.windows[0].End)
}

func TestUpsertWindowSkipsExactDuplicate(t *testing.T) {
	windows := &memWindows{}
	svc := newTestService(defaultOrg(), windows, &fakeAppointments{})

	req := &model.UpsertWindowRequest{
		DoctorID: 100,
		Start:    "2026-03-02T08:00:00",
		End:      "2026-03-02T12:00:00",
		Kind:     "available",
	}

	first, err := svc.UpsertWindow(context.Background(), req)
	require.NoError(t, err)
	assert.False(t, first.Skipped)

	second, err := svc.UpsertWindow(context.Background(), req)
	require.NoError(t, err)
	assert.True(t, second.Skipped)
	assert.Equal(t, first.ID, second.ID)
	assert.Len(t, windows.windows, 1)
}

func TestUpsertWindowRejectsOOOOverAvailable(t *testing.T) {
	windows := &memWindows{}
	svc := newTestService(defaultOrg(), windows, &fakeAppointments{})

	_, err := svc.UpsertWindow(context.Background(), &model.UpsertWindowRequest{
		DoctorID: 100,
		Start:    "2026-03-02T08:00:00",
		End:      "2026-03-02T17:00:00",
		Kind:     "available",
	})
	require.NoError(t, err)

	_, err = svc.UpsertWindow(context.Background(), &model.UpsertWindowRequest{
		DoctorID: 100,
		Start:    "2026-03-02T10:00:00",
		End:      "2026-03-02T11:00:00",
		Kind:     "ooo",
	})
	require.Error(t, err)
	assert.True(t, apperrors.IsConflict(err))
}

func TestUpsertWindowRejectsInvertedRange(t *testing.T) {
	svc := newTestService(defaultOrg(), &memWindows{}, &fakeAppointments{})

	_, err := svc.UpsertWindow(context.Background(), &model.UpsertWindowRequest{
		DoctorID: 100,
		Start:    "2026-03-02T12:00:00",
		End:      "2026-03-02T08:00:00",
		Kind:     "available",
	})
	assert.Equal(t, apperrors.ErrValidation, apperrors.CodeOf(err))
}

func TestSpanDays(t *testing.T) {
	wednesday := day(2026, 3, 4)

	single, err := spanDays(wednesday, model.SpanDay)
	require.NoError(t, err)
	assert.Equal(t, []time.Time{wednesday}, single)

	week, err := spanDays(wednesday, model.SpanWeek)
	require.NoError(t, err)
	require.Len(t, week, 7)
	assert.Equal(t, day(2026, 3, 2), week[0]) // Monday
	assert.Equal(t, day(2026, 3, 8), week[6]) // Sunday

	_, err = spanDays(wednesday, model.Span("month"))
	assert.Equal(t, apperrors.ErrValidation, apperrors.CodeOf(err))
}

func TestGetScheduleBuildsTree(t *testing.T) {
	org := defaultOrg()
	windows := &memWindows{}
	when := time.Date(2026, 3, 2, 9, 0, 0, 0, time.Local)
	appts := &fakeAppointments{appts: []*model.Appointment{
		{ID: 1, DoctorID: 100, When: when},
	}}
	svc := newTestService(org, windows, appts)

	require.NoError(t, windows.Create(context.Background(), nil, &model.ScheduleWindow{
		DoctorID: 100,
		Start:    time.Date(2026, 3, 2, 8, 0, 0, 0, time.Local),
		End:      time.Date(2026, 3, 2, 17, 0, 0, 0, time.Local),
		Kind:     model.WindowAvailable,
	}))

	tree, err := svc.GetSchedule(context.Background(), "2026-03-02", model.SpanDay, nil)
	require.NoError(t, err)

	assert.Equal(t, model.SpanDay, tree.Range)
	assert.Equal(t, []string{"2026-03-02"}, tree.Days)
	require.Len(t, tree.Hospitals, 1)
	require.Len(t, tree.Hospitals[0].Departments, 1)
	doctors := tree.Hospitals[0].Departments[0].Doctors
	require.Len(t, doctors, 2)

	var binh, chi *model.DoctorSchedule
	for _, d := range doctors {
		switch d.ID {
		case 100:
			binh = d
		case 101:
			chi = d
		}
	}
	require.NotNil(t, binh)
	require.NotNil(t, chi)

	require.Len(t, binh.Busy, 1)
	assert.Equal(t, when, binh.Busy[0].Start)
	assert.Equal(t, when.Add(model.SlotDuration), binh.Busy[0].End)
	assert.Len(t, binh.Windows, 1)
	assert.Empty(t, chi.Busy)
	assert.Empty(t, chi.Windows)
}

func TestGetScheduleUnknownHospitalIsEmpty(t *testing.T) {
	svc := newTestService(defaultOrg(), &memWindows{}, &fakeAppointments{})

	id := int64(42)
	tree, err := svc.GetSchedule(context.Background(), "2026-03-02", model.SpanDay, &id)
	require.NoError(t, err)
	assert.Empty(t, tree.Hospitals)
}

func TestSeedDefaultScheduleSkipsSundaysAndReruns(t *testing.T) {
	windows := &memWindows{}
	svc := newTestService(defaultOrg(), windows, &fakeAppointments{})

	first, err := svc.SeedDefaultSchedule(context.Background(), 1, false)
	require.NoError(t, err)
	assert.Equal(t, 2, first.Doctors)
	assert.Equal(t, 12, first.Available) // 6 working days x 2 doctors
	assert.Equal(t, 0, first.OOO)

	second, err := svc.SeedDefaultSchedule(context.Background(), 1, false)
	require.NoError(t, err)
	assert.Equal(t, 0, second.Available)
	assert.Len(t, windows.windows, 12)
}

func TestSeedDefaultScheduleFillsOOO(t *testing.T) {
	windows := &memWindows{}
	svc := newTestService(defaultOrg(), windows, &fakeAppointments{})

	result, err := svc.SeedDefaultSchedule(context.Background(), 1, true)
	require.NoError(t, err)
	assert.Equal(t, 12, result.Available)
	// 2 OOO edges per working day plus full-day Sunday, per doctor
	assert.Equal(t, 2*(6*2+1), result.OOO)
}
