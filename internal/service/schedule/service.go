package schedule

import (
	"context"
	"fmt"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/medly/medly-api/internal/model"
	"github.com/medly/medly-api/internal/repository"
	apperrors "github.com/medly/medly-api/pkg/errors"
)

const (
	dateLayout = "2006-01-02"

	// org hierarchy changes rarely (seeding, ingest); a short TTL keeps the
	// aggregator's first three batch lookups off the hot path
	hierarchyTTL     = time.Minute
	hierarchyCleanup = 5 * time.Minute
)

type Service struct {
	tx        repository.TxRunner
	hospitals repository.HospitalRepository
	doctors   repository.DoctorRepository
	windows   repository.WindowRepository
	appts     repository.AppointmentRepository
	orgCache  *gocache.Cache
}

func NewService(
	tx repository.TxRunner,
	hospitals repository.HospitalRepository,
	doctors repository.DoctorRepository,
	windows repository.WindowRepository,
	appts repository.AppointmentRepository,
) *Service {
	return &Service{
		tx:        tx,
		hospitals: hospitals,
		doctors:   doctors,
		windows:   windows,
		appts:     appts,
		orgCache:  gocache.New(hierarchyTTL, hierarchyCleanup),
	}
}

// hierarchy is the batched org snapshot the aggregator joins in memory.
type hierarchy struct {
	hospitals   []*model.Hospital
	departments []*model.Department
	doctors     []*model.Doctor
}

// GetSchedule assembles the hospital→department→doctor tree for the span
// containing date, annotating every doctor with derived busy blocks and raw
// windows. Read-only; at most four batched lookups.
func (s *Service) GetSchedule(ctx context.Context, date string, span model.Span, hospitalID *int64) (*model.ScheduleTree, error) {
	base, err := parseDate(date)
	if err != nil {
		return nil, apperrors.Validationf("invalid date: %s", date)
	}

	days, err := spanDays(base, span)
	if err != nil {
		return nil, err
	}
	startMin := days[0]
	endMax := days[len(days)-1].AddDate(0, 0, 1)

	tree := &model.ScheduleTree{Range: span}
	for _, d := range days {
		tree.Days = append(tree.Days, d.Format(dateLayout))
	}

	org, err := s.loadHierarchy(ctx, hospitalID)
	if err != nil {
		return nil, err
	}
	if len(org.hospitals) == 0 {
		tree.Hospitals = []*model.HospitalSchedule{}
		return tree, nil
	}

	doctorIDs := make([]int64, 0, len(org.doctors))
	for _, d := range org.doctors {
		doctorIDs = append(doctorIDs, d.ID)
	}

	var (
		windows []*model.ScheduleWindow
		appts   []*model.Appointment
	)
	if len(doctorIDs) > 0 {
		windows, err = s.windows.ListOverlapping(ctx, doctorIDs, startMin, endMax)
		if err != nil {
			return nil, err
		}
		appts, err = s.appts.ListOverlapping(ctx, doctorIDs, startMin, endMax)
		if err != nil {
			return nil, err
		}
	}

	windowsByDoctor := make(map[int64][]*model.ScheduleWindow)
	for _, w := range windows {
		windowsByDoctor[w.DoctorID] = append(windowsByDoctor[w.DoctorID], w)
	}
	busyByDoctor := make(map[int64][]model.BusyBlock)
	for _, a := range appts {
		busyByDoctor[a.DoctorID] = append(busyByDoctor[a.DoctorID], model.BusyBlock{
			Start: a.When,
			End:   a.BlockEnd(),
		})
	}

	doctorsByDepartment := make(map[int64][]*model.Doctor)
	for _, d := range org.doctors {
		doctorsByDepartment[d.DepartmentID] = append(doctorsByDepartment[d.DepartmentID], d)
	}
	departmentsByHospital := make(map[int64][]*model.Department)
	for _, d := range org.departments {
		departmentsByHospital[d.HospitalID] = append(departmentsByHospital[d.HospitalID], d)
	}

	tree.Hospitals = make([]*model.HospitalSchedule, 0, len(org.hospitals))
	for _, h := range org.hospitals {
		hs := &model.HospitalSchedule{
			ID:          h.ID,
			Name:        h.Name,
			Departments: []*model.DepartmentSchedule{},
		}
		for _, dep := range departmentsByHospital[h.ID] {
			ds := &model.DepartmentSchedule{
				ID:      dep.ID,
				Name:    dep.Name,
				Doctors: []*model.DoctorSchedule{},
			}
			for _, doc := range doctorsByDepartment[dep.ID] {
				busy := busyByDoctor[doc.ID]
				if busy == nil {
					busy = []model.BusyBlock{}
				}
				wins := windowsByDoctor[doc.ID]
				if wins == nil {
					wins = []*model.ScheduleWindow{}
				}
				ds.Doctors = append(ds.Doctors, &model.DoctorSchedule{
					ID:      doc.ID,
					Name:    doc.Name,
					Busy:    busy,
					Windows: wins,
				})
			}
			hs.Departments = append(hs.Departments, ds)
		}
		tree.Hospitals = append(tree.Hospitals, hs)
	}
	return tree, nil
}

func (s *Service) loadHierarchy(ctx context.Context, hospitalID *int64) (*hierarchy, error) {
	key := "org:all"
	if hospitalID != nil {
		key = fmt.Sprintf("org:%d", *hospitalID)
	}
	if cached, ok := s.orgCache.Get(key); ok {
		return cached.(*hierarchy), nil
	}

	var hospitals []*model.Hospital
	if hospitalID != nil {
		h, err := s.hospitals.Get(ctx, *hospitalID)
		if err != nil {
			if apperrors.CodeOf(err) == apperrors.ErrNotFound {
				return &hierarchy{}, nil
			}
			return nil, err
		}
		hospitals = []*model.Hospital{h}
	} else {
		var err error
		hospitals, err = s.hospitals.List(ctx)
		if err != nil {
			return nil, err
		}
	}

	hospitalIDs := make([]int64, 0, len(hospitals))
	for _, h := range hospitals {
		hospitalIDs = append(hospitalIDs, h.ID)
	}
	departments, err := s.hospitals.ListDepartments(ctx, hospitalIDs)
	if err != nil {
		return nil, err
	}
	departmentIDs := make([]int64, 0, len(departments))
	for _, d := range departments {
		departmentIDs = append(departmentIDs, d.ID)
	}
	doctors, err := s.doctors.ListByDepartments(ctx, departmentIDs)
	if err != nil {
		return nil, err
	}

	org := &hierarchy{hospitals: hospitals, departments: departments, doctors: doctors}
	s.orgCache.SetDefault(key, org)
	return org, nil
}

// InvalidateHierarchy drops the cached org snapshot; call after seeding.
func (s *Service) InvalidateHierarchy() {
	s.orgCache.Flush()
}

// spanDays resolves a span selector into its calendar days at midnight. A
// week is always the Monday-led 7 days containing base.
func spanDays(base time.Time, span model.Span) ([]time.Time, error) {
	day := time.Date(base.Year(), base.Month(), base.Day(), 0, 0, 0, 0, base.Location())
	switch span {
	case model.SpanDay, "":
		return []time.Time{day}, nil
	case model.SpanWeek:
		offset := (int(day.Weekday()) + 6) % 7 // Monday=0
		monday := day.AddDate(0, 0, -offset)
		days := make([]time.Time, 7)
		for i := range days {
			days[i] = monday.AddDate(0, 0, i)
		}
		return days, nil
	default:
		return nil, apperrors.Validationf("invalid range: %s", span)
	}
}

// parseDate accepts a plain date or a full timestamp and truncates to the day.
func parseDate(s string) (time.Time, error) {
	for _, layout := range []string{dateLayout, "2006-01-02T15:04:05", "2006-01-02T15:04", time.RFC3339} {
		if t, err := time.Parse(layout, s); err == nil {
			return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.Local), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", s)
}
