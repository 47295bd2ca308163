package booking

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"

	"github.com/medly/medly-api/internal/model"
	"github.com/medly/medly-api/internal/repository"
	usersvc "github.com/medly/medly-api/internal/service/user"
	apperrors "github.com/medly/medly-api/pkg/errors"
	"github.com/medly/medly-api/pkg/messaging"
	"github.com/medly/medly-api/pkg/metrics"
)

// Rejection reasons for a booking attempt, in check order. The first failing
// check wins; each maps to an HTTP 409.
const (
	ReasonNotCovered = "requested time is outside the doctor's available working hours"
	ReasonOOO        = "requested time overlaps the doctor's out-of-office period"
	ReasonSlotTaken  = "slot is already booked by another patient"
)

// EventAppointmentCreated is the channel bookings are announced on.
const EventAppointmentCreated = "appointment.created"

type Service struct {
	tx        repository.TxRunner
	appts     repository.AppointmentRepository
	windows   repository.WindowRepository
	doctors   repository.DoctorRepository
	users     repository.UserRepository
	hospitals repository.HospitalRepository
	broker    messaging.Broker
	metrics   *metrics.Metrics
}

func NewService(
	tx repository.TxRunner,
	appts repository.AppointmentRepository,
	windows repository.WindowRepository,
	doctors repository.DoctorRepository,
	users repository.UserRepository,
	hospitals repository.HospitalRepository,
	broker messaging.Broker,
	m *metrics.Metrics,
) *Service {
	if broker == nil {
		broker = messaging.NopBroker{}
	}
	return &Service{
		tx:        tx,
		appts:     appts,
		windows:   windows,
		doctors:   doctors,
		users:     users,
		hospitals: hospitals,
		broker:    broker,
		metrics:   m,
	}
}

// checkSlot is the availability resolver: coverage, then OOO overlap, then
// appointment overlap. Returns nil when the slot is bookable, or a conflict
// error carrying the first failing check's reason.
func (s *Service) checkSlot(ctx context.Context, tx *sqlx.Tx, doctorID int64, start, end time.Time) error {
	covered, err := s.windows.HasCovering(ctx, tx, doctorID, model.WindowAvailable, start, end)
	if err != nil {
		return err
	}
	if !covered {
		return apperrors.Conflict(ReasonNotCovered)
	}

	ooo, err := s.windows.HasOverlapping(ctx, tx, doctorID, model.WindowOOO, start, end)
	if err != nil {
		return err
	}
	if ooo {
		return apperrors.Conflict(ReasonOOO)
	}

	busy, err := s.appts.HasOverlapping(ctx, tx, doctorID, start, end)
	if err != nil {
		return err
	}
	if busy {
		return apperrors.Conflict(ReasonSlotTaken)
	}
	return nil
}

// nextSequence assigns the doctor's daily ticket number: 1 + max(stt) over
// the calendar day of `when`, starting at 1. Runs inside the booking
// transaction so concurrent bookings for the same doctor/day serialize on
// the insert.
func (s *Service) nextSequence(ctx context.Context, tx *sqlx.Tx, doctorID int64, when time.Time) (int, error) {
	dayStart := time.Date(when.Year(), when.Month(), when.Day(), 0, 0, 0, 0, when.Location())
	dayEnd := dayStart.AddDate(0, 0, 1)
	max, err := s.appts.MaxDailySequence(ctx, tx, doctorID, dayStart, dayEnd)
	if err != nil {
		return 0, err
	}
	return max + 1, nil
}

// CheckAndBook validates the 15-minute slot and creates the appointment with
// its ticket number in one transaction.
func (s *Service) CheckAndBook(ctx context.Context, req *model.BookingRequest) (*model.Appointment, error) {
	start, err := parseLocalTime(req.Time)
	if err != nil {
		return nil, apperrors.Validationf("invalid time: %s", req.Time)
	}
	end := start.Add(model.SlotDuration)

	doctorID, err := strconv.ParseInt(req.DoctorID, 10, 64)
	if err != nil {
		return nil, apperrors.Validationf("invalid doctor id: %s", req.DoctorID)
	}
	userID, err := strconv.ParseInt(req.UserID, 10, 64)
	if err != nil {
		return nil, apperrors.Validationf("invalid user id: %s", req.UserID)
	}

	var appt *model.Appointment
	err = s.tx.WithTx(ctx, func(tx *sqlx.Tx) error {
		if err := s.checkSlot(ctx, tx, doctorID, start, end); err != nil {
			return err
		}

		user, err := s.resolveUser(ctx, tx, userID, req.Name, req.Phone)
		if err != nil {
			return err
		}

		stt, err := s.nextSequence(ctx, tx, doctorID, start)
		if err != nil {
			return err
		}

		appt = &model.Appointment{
			UserID:   user.ID,
			DoctorID: doctorID,
			When:     start,
			STT:      &stt,
			Need:     &req.Need,
			Symptoms: req.Symptoms,
			Content:  snapshotFromRequest(req),
		}
		return s.appts.Create(ctx, tx, appt)
	})
	if err != nil {
		s.countOutcome(err)
		return nil, err
	}

	s.countOutcome(nil)
	s.announce(ctx, appt)
	return appt, nil
}

// Ingest accepts a booking from a partner system: unknown org entities and
// users are created by name inside the booking transaction, then the slot
// goes through the same checks as a first-party booking.
func (s *Service) Ingest(ctx context.Context, req *model.ExternalBookingRequest) (*model.BookingRequest, error) {
	start, err := parseLocalTime(req.TimeSlot)
	if err != nil {
		return nil, apperrors.Validationf("invalid time slot: %s", req.TimeSlot)
	}
	end := start.Add(model.SlotDuration)

	need := "scheduled visit"
	if req.RoomCode != nil && *req.RoomCode != "" {
		need = fmt.Sprintf("visit at room %s", *req.RoomCode)
	}
	var symptoms *string
	if len(req.Symptoms) > 0 {
		joined := strings.Join(req.Symptoms, ", ")
		symptoms = &joined
	}

	var summary *model.BookingRequest
	var appt *model.Appointment
	err = s.tx.WithTx(ctx, func(tx *sqlx.Tx) error {
		hospital, err := s.hospitals.EnsureByName(ctx, tx, req.Hospital)
		if err != nil {
			return err
		}
		department, err := s.hospitals.EnsureDepartment(ctx, tx, hospital.ID, req.DepartmentName)
		if err != nil {
			return err
		}
		doctor, err := s.doctors.EnsureByName(ctx, tx, department.ID, req.DoctorName, nil, nil)
		if err != nil {
			return err
		}
		user, err := s.users.EnsureByPhone(ctx, tx, req.PatientName, usersvc.NormalizePhone(req.PhoneNumber))
		if err != nil {
			return err
		}

		if err := s.checkSlot(ctx, tx, doctor.ID, start, end); err != nil {
			return err
		}
		stt, err := s.nextSequence(ctx, tx, doctor.ID, start)
		if err != nil {
			return err
		}

		content := model.JSONMap{
			"hospital":        req.Hospital,
			"patient_name":    req.PatientName,
			"phone_number":    req.PhoneNumber,
			"doctor_name":     req.DoctorName,
			"department_name": req.DepartmentName,
			"room_code":       req.RoomCode,
			"time_slot":       req.TimeSlot,
			"symptoms":        req.Symptoms,
		}
		appt = &model.Appointment{
			UserID:   user.ID,
			DoctorID: doctor.ID,
			When:     start,
			STT:      &stt,
			Need:     &need,
			Symptoms: symptoms,
			Content:  content,
		}
		if err := s.appts.Create(ctx, tx, appt); err != nil {
			return err
		}

		summary = &model.BookingRequest{
			UserID:          strconv.FormatInt(user.ID, 10),
			Name:            user.Name,
			Phone:           user.Phone,
			Need:            need,
			Symptoms:        symptoms,
			HospitalID:      strconv.FormatInt(hospital.ID, 10),
			HospitalName:    hospital.Name,
			HospitalAddress: hospital.Address,
			Department:      department.Name,
			DoctorID:        strconv.FormatInt(doctor.ID, 10),
			DoctorName:      doctor.Name,
			Time:            start.Format(timeLayout),
		}
		return nil
	})
	if err != nil {
		s.countOutcome(err)
		return nil, err
	}

	s.countOutcome(nil)
	s.announce(ctx, appt)
	return summary, nil
}

// resolveUser looks the user up by id, falling back to phone-keyed
// lookup-or-create when the id is stale.
func (s *Service) resolveUser(ctx context.Context, tx *sqlx.Tx, userID int64, name, phone string) (*model.User, error) {
	user, err := s.users.Get(ctx, userID)
	if err == nil {
		return user, nil
	}
	if apperrors.CodeOf(err) != apperrors.ErrNotFound {
		return nil, err
	}
	return s.users.EnsureByPhone(ctx, tx, name, usersvc.NormalizePhone(phone))
}

func (s *Service) announce(ctx context.Context, appt *model.Appointment) {
	if appt == nil {
		return
	}
	msg := messaging.Message{Type: EventAppointmentCreated, Payload: appt}
	if err := s.broker.Publish(ctx, EventAppointmentCreated, msg); err != nil {
		log.Warn().Err(err).Int64("appointment_id", appt.ID).Msg("failed to publish booking event")
	}
}

func (s *Service) countOutcome(err error) {
	switch {
	case err == nil:
		s.metrics.CountBooking("accepted")
	case apperrors.IsConflict(err):
		s.metrics.CountBooking("rejected")
	default:
		s.metrics.CountBooking("failed")
	}
}

const timeLayout = "2006-01-02T15:04:05"

// parseLocalTime accepts the ISO forms clients send; timestamps are naive
// local times, offsets are not interpreted.
func parseLocalTime(s string) (time.Time, error) {
	for _, layout := range []string{timeLayout, "2006-01-02T15:04", time.RFC3339} {
		if t, err := time.Parse(layout, s); err == nil {
			return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), 0, time.Local), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", s)
}

func snapshotFromRequest(req *model.BookingRequest) model.JSONMap {
	return model.JSONMap{
		"hospital":        req.HospitalName,
		"patient_name":    req.Name,
		"phone_number":    req.Phone,
		"doctor_name":     req.DoctorName,
		"department_name": req.Department,
		"need":            req.Need,
		"time_slot":       req.Time,
		"symptoms":        req.Symptoms,
	}
}
