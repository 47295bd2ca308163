package model

import "time"

// SlotDuration is the fixed length of every appointment block. It is not
// stored; an appointment occupies [when, when+SlotDuration).
const SlotDuration = 15 * time.Minute

type Appointment struct {
	ID        int64     `db:"id" json:"id"`
	UserID    int64     `db:"user_id" json:"user_id"`
	DoctorID  int64     `db:"doctor_id" json:"doctor_id"`
	When      time.Time `db:"when" json:"when"`
	STT       *int      `db:"stt" json:"stt,omitempty"`
	Need      *string   `db:"need" json:"need,omitempty"`
	Symptoms  *string   `db:"symptoms" json:"symptoms,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	Content   JSONMap   `db:"content" json:"content,omitempty"`
}

// BlockEnd returns the exclusive end of the appointment's busy block.
func (a *Appointment) BlockEnd() time.Time {
	return a.When.Add(SlotDuration)
}

// BookingRequest carries the human-readable booking summary from the client.
// The org names are denormalized on purpose: they are frozen into the
// appointment's content snapshot so later renames do not rewrite history.
type BookingRequest struct {
	UserID          string  `json:"userId" binding:"required"`
	Name            string  `json:"name" binding:"required"`
	Phone           string  `json:"phone" binding:"required"`
	Need            string  `json:"need" binding:"required"`
	Symptoms        *string `json:"symptoms"`
	HospitalID      string  `json:"hospitalId" binding:"required"`
	HospitalName    string  `json:"hospitalName" binding:"required"`
	HospitalAddress *string `json:"hospitalAddress"`
	Department      string  `json:"department" binding:"required"`
	DoctorID        string  `json:"doctorId" binding:"required"`
	DoctorName      string  `json:"doctorName" binding:"required"`
	Time            string  `json:"time" binding:"required"`
}

// ExternalBookingRequest is the ingest payload from partner systems. Unknown
// hospitals, departments and doctors are created on the fly by name.
type ExternalBookingRequest struct {
	Hospital       string   `json:"hospital" binding:"required"`
	PatientName    string   `json:"patient_name" binding:"required"`
	PhoneNumber    string   `json:"phone_number" binding:"required"`
	DoctorName     string   `json:"doctor_name" binding:"required"`
	DepartmentName string   `json:"department_name" binding:"required"`
	RoomCode       *string  `json:"room_code"`
	TimeSlot       string   `json:"time_slot" binding:"required"`
	Symptoms       []string `json:"symptoms"`
}

// BookingRecord is the history view of an appointment: the sequence number
// plus the immutable content snapshot captured at booking time.
type BookingRecord struct {
	ID        int64     `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	STT       *int      `json:"stt"`
	Content   JSONMap   `json:"content"`
}

// AppointmentDetail is the enriched lookup view for a single appointment.
type AppointmentDetail struct {
	ID         int64     `json:"id"`
	When       time.Time `json:"when"`
	STT        *int      `json:"stt"`
	User       *User     `json:"user,omitempty"`
	Doctor     *Doctor   `json:"doctor,omitempty"`
	Department *string   `json:"department,omitempty"`
	Hospital   *string   `json:"hospital,omitempty"`
	Content    JSONMap   `json:"content"`
}

// UpcomingAppointment is one row of the flat upcoming list.
type UpcomingAppointment struct {
	ID           int64     `db:"id" json:"id"`
	When         time.Time `db:"when" json:"when"`
	STT          *int      `db:"stt" json:"stt"`
	HospitalID   int64     `db:"hospital_id" json:"-"`
	HospitalName string    `db:"hospital_name" json:"hospitalName"`
	Department   string    `db:"department" json:"department"`
	DoctorName   string    `db:"doctor_name" json:"doctorName"`
	UserID       int64     `db:"user_id" json:"-"`
	UserName     string    `db:"user_name" json:"-"`
	UserPhone    string    `db:"user_phone" json:"-"`
}

// UpcomingEntry is one appointment inside a hospital's upcoming group.
type UpcomingEntry struct {
	ID         int64     `json:"id"`
	When       time.Time `json:"when"`
	STT        *int      `json:"stt"`
	User       User      `json:"user"`
	Department string    `json:"department"`
	DoctorName string    `json:"doctorName"`
}

// HospitalUpcomingGroup groups upcoming appointments under their hospital.
type HospitalUpcomingGroup struct {
	ID           int64           `json:"id"`
	Name         string          `json:"name"`
	Appointments []UpcomingEntry `json:"appointments"`
}

// UserProfileAppointment is one history row of a user's profile at a hospital.
type UserProfileAppointment struct {
	ID         int64     `db:"id" json:"id"`
	When       time.Time `db:"when" json:"when"`
	STT        *int      `db:"stt" json:"stt"`
	DoctorName string    `db:"doctor_name" json:"doctorName"`
	Department string    `db:"department" json:"department"`
	Content    JSONMap   `db:"content" json:"content"`
}
