package booking

import (
	"context"
	"time"

	"github.com/medly/medly-api/internal/model"
	apperrors "github.com/medly/medly-api/pkg/errors"
)

// ListBookings returns booking history, newest first, optionally for one user.
func (s *Service) ListBookings(ctx context.Context, userID *int64) ([]*model.BookingRecord, error) {
	appts, err := s.appts.List(ctx, userID)
	if err != nil {
		return nil, err
	}
	records := make([]*model.BookingRecord, 0, len(appts))
	for _, a := range appts {
		records = append(records, toRecord(a))
	}
	return records, nil
}

func (s *Service) GetBooking(ctx context.Context, id int64) (*model.BookingRecord, error) {
	appt, err := s.appts.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return toRecord(appt), nil
}

// Lookup finds the appointment occupying the 15-minute window starting at
// `start` for a doctor and enriches it with the org hierarchy and user.
// Returns (nil, nil) when the window is free.
func (s *Service) Lookup(ctx context.Context, doctorID int64, start string) (*model.AppointmentDetail, error) {
	from, err := parseLocalTime(start)
	if err != nil {
		return nil, apperrors.Validationf("invalid start time: %s", start)
	}
	appt, err := s.appts.FindInWindow(ctx, doctorID, from, from.Add(model.SlotDuration))
	if err != nil {
		return nil, err
	}
	if appt == nil {
		return nil, nil
	}

	detail := &model.AppointmentDetail{
		ID:      appt.ID,
		When:    appt.When,
		STT:     appt.STT,
		Content: appt.Content,
	}
	if org, err := s.doctors.GetWithOrg(ctx, appt.DoctorID); err == nil {
		detail.Doctor = &org.Doctor
		detail.Department = &org.DepartmentName
		detail.Hospital = &org.HospitalName
	}
	if user, err := s.users.Get(ctx, appt.UserID); err == nil {
		detail.User = user
	}
	return detail, nil
}

// Upcoming lists appointments joined with their org names, soonest first.
func (s *Service) Upcoming(ctx context.Context, userID *int64) ([]*model.UpcomingAppointment, error) {
	return s.appts.ListUpcoming(ctx, userID)
}

// UpcomingByHospital groups appointments from now forward under their hospital.
func (s *Service) UpcomingByHospital(ctx context.Context) ([]*model.HospitalUpcomingGroup, error) {
	rows, err := s.appts.ListUpcomingSince(ctx, time.Now())
	if err != nil {
		return nil, err
	}

	var groups []*model.HospitalUpcomingGroup
	byID := make(map[int64]*model.HospitalUpcomingGroup)
	for _, row := range rows {
		g, ok := byID[row.HospitalID]
		if !ok {
			g = &model.HospitalUpcomingGroup{ID: row.HospitalID, Name: row.HospitalName}
			byID[row.HospitalID] = g
			groups = append(groups, g)
		}
		g.Appointments = append(g.Appointments, model.UpcomingEntry{
			ID:   row.ID,
			When: row.When,
			STT:  row.STT,
			User: model.User{
				ID:    row.UserID,
				Name:  row.UserName,
				Phone: row.UserPhone,
			},
			Department: row.Department,
			DoctorName: row.DoctorName,
		})
	}
	return groups, nil
}

// SetContent overwrites an appointment's content snapshot; used to backfill
// display data for rows booked before snapshots existed.
func (s *Service) SetContent(ctx context.Context, id int64, content model.JSONMap) error {
	if content == nil {
		content = model.JSONMap{}
	}
	return s.appts.UpdateContent(ctx, id, content)
}

func toRecord(a *model.Appointment) *model.BookingRecord {
	content := a.Content
	if content == nil {
		content = model.JSONMap{}
	}
	createdAt := a.CreatedAt
	if createdAt.IsZero() {
		createdAt = a.When
	}
	return &model.BookingRecord{
		ID:        a.ID,
		CreatedAt: createdAt,
		STT:       a.STT,
		Content:   content,
	}
}
