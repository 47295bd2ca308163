package repository

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/medly/medly-api/internal/model"
)

// TxRunner executes a unit of work inside one transaction with
// commit-or-rollback on every exit path. Mutating flows that read before
// they write (booking, bulk adjust, ingest, seeding) run through it.
type TxRunner interface {
	WithTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error
}

// Methods that accept a tx run against it when non-nil and against the pool
// otherwise, so the same repository serves both transactional flows and
// plain reads.
type (
	HospitalRepository interface {
		List(ctx context.Context) ([]*model.Hospital, error)
		Get(ctx context.Context, id int64) (*model.Hospital, error)
		EnsureByName(ctx context.Context, tx *sqlx.Tx, name string) (*model.Hospital, error)
		ListDepartments(ctx context.Context, hospitalIDs []int64) ([]*model.Department, error)
		EnsureDepartment(ctx context.Context, tx *sqlx.Tx, hospitalID int64, name string) (*model.Department, error)
	}

	DoctorRepository interface {
		Get(ctx context.Context, id int64) (*model.Doctor, error)
		GetWithOrg(ctx context.Context, id int64) (*model.DoctorOrg, error)
		ListAll(ctx context.Context) ([]*model.Doctor, error)
		ListByDepartments(ctx context.Context, departmentIDs []int64) ([]*model.Doctor, error)
		ListByHospital(ctx context.Context, hospitalID int64) ([]*model.Doctor, error)
		EnsureByName(ctx context.Context, tx *sqlx.Tx, departmentID int64, name string, phone *string, roles model.StringList) (*model.Doctor, error)
	}

	RoomRepository interface {
		List(ctx context.Context, filter model.RoomFilter) ([]*model.Room, error)
		Ensure(ctx context.Context, tx *sqlx.Tx, hospitalID, departmentID int64, code string, name *string) (*model.Room, error)
	}

	UserRepository interface {
		Get(ctx context.Context, id int64) (*model.User, error)
		FindByPhone(ctx context.Context, phone string) (*model.User, error)
		FindByNameAndPhone(ctx context.Context, name, phone string) (*model.User, error)
		Create(ctx context.Context, user *model.User) error
		Update(ctx context.Context, user *model.User) error
		EnsureByPhone(ctx context.Context, tx *sqlx.Tx, name, phone string) (*model.User, error)
	}

	WindowRepository interface {
		Create(ctx context.Context, tx *sqlx.Tx, w *model.ScheduleWindow) error
		Delete(ctx context.Context, id int64) error
		FindExact(ctx context.Context, tx *sqlx.Tx, doctorID int64, kind model.WindowKind, start, end time.Time) (int64, bool, error)
		HasCovering(ctx context.Context, tx *sqlx.Tx, doctorID int64, kind model.WindowKind, start, end time.Time) (bool, error)
		HasOverlapping(ctx context.Context, tx *sqlx.Tx, doctorID int64, kind model.WindowKind, start, end time.Time) (bool, error)
		ListOverlapping(ctx context.Context, doctorIDs []int64, from, to time.Time) ([]*model.ScheduleWindow, error)
		DeleteOverlapping(ctx context.Context, tx *sqlx.Tx, doctorID int64, from, to time.Time) (int, error)
	}

	AppointmentRepository interface {
		Create(ctx context.Context, tx *sqlx.Tx, appt *model.Appointment) error
		Get(ctx context.Context, id int64) (*model.Appointment, error)
		List(ctx context.Context, userID *int64) ([]*model.Appointment, error)
		HasOverlapping(ctx context.Context, tx *sqlx.Tx, doctorID int64, start, end time.Time) (bool, error)
		MaxDailySequence(ctx context.Context, tx *sqlx.Tx, doctorID int64, dayStart, dayEnd time.Time) (int, error)
		ListOverlapping(ctx context.Context, doctorIDs []int64, from, to time.Time) ([]*model.Appointment, error)
		FindInWindow(ctx context.Context, doctorID int64, start, end time.Time) (*model.Appointment, error)
		ListUpcoming(ctx context.Context, userID *int64) ([]*model.UpcomingAppointment, error)
		ListUpcomingSince(ctx context.Context, since time.Time) ([]*model.UpcomingAppointment, error)
		ListHospitalUsers(ctx context.Context, hospitalID *int64) ([]*model.HospitalUser, error)
		ListUserProfile(ctx context.Context, hospitalID, userID int64) ([]*model.UserProfileAppointment, error)
		UpdateContent(ctx context.Context, id int64, content model.JSONMap) error
	}
)
