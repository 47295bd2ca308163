package model

import "time"

// WindowKind classifies a schedule window: time a doctor has declared
// workable, or time carved out as out-of-office.
type WindowKind string

const (
	WindowAvailable WindowKind = "available"
	WindowOOO       WindowKind = "ooo"
)

func (k WindowKind) Valid() bool {
	return k == WindowAvailable || k == WindowOOO
}

// ScheduleWindow is a doctor's declared half-open time interval
// [Start, End) of a given kind. Windows of the same kind may overlap until a
// bulk adjust normalizes them; exact (doctor, start, end, kind) duplicates
// are rejected by a unique index.
type ScheduleWindow struct {
	ID       int64      `db:"id" json:"id"`
	DoctorID int64      `db:"doctor_id" json:"doctor_id"`
	Start    time.Time  `db:"start" json:"start"`
	End      time.Time  `db:"end" json:"end"`
	Kind     WindowKind `db:"kind" json:"kind"`
}

type UpsertWindowRequest struct {
	DoctorID int64  `json:"doctorId" binding:"required"`
	Start    string `json:"start" binding:"required"`
	End      string `json:"end" binding:"required"`
	Kind     string `json:"kind" binding:"required,windowkind"`
}

// UpsertWindowResult reports the stored window id; Skipped is set when an
// exact duplicate already existed and no row was written.
type UpsertWindowResult struct {
	ID      int64 `json:"id"`
	Skipped bool  `json:"skipped,omitempty"`
}

// BulkRule is one HH:MM-HH:MM daily rule. "24:00" is accepted as an
// end-of-day sentinel.
type BulkRule struct {
	Start string `json:"start" binding:"required,hhmm"`
	End   string `json:"end" binding:"required,hhmm"`
}

type BulkAdjustRequest struct {
	ScopeKind string     `json:"scopeKind" binding:"required"`
	ScopeID   int64      `json:"scopeId" binding:"required"`
	DateStart string     `json:"dateStart" binding:"required"`
	DateEnd   string     `json:"dateEnd" binding:"required"`
	Available []BulkRule `json:"available"`
	OOO       []BulkRule `json:"ooo"`
	Overwrite *bool      `json:"overwrite"`
}

type BulkAdjustResult struct {
	Inserted int `json:"inserted"`
	Deleted  int `json:"deleted"`
	Doctors  int `json:"doctors"`
	Days     int `json:"days"`
}

// Span selects how many days a schedule query covers.
type Span string

const (
	SpanDay  Span = "day"
	SpanWeek Span = "week"
)

// BusyBlock is a derived 15-minute interval occupied by an appointment. It is
// computed from the appointment's start, never stored.
type BusyBlock struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// DoctorSchedule carries a doctor's derived busy blocks and raw windows for
// the requested range.
type DoctorSchedule struct {
	ID      int64             `json:"id"`
	Name    string            `json:"name"`
	Busy    []BusyBlock       `json:"busy"`
	Windows []*ScheduleWindow `json:"windows"`
}

type DepartmentSchedule struct {
	ID      int64             `json:"id"`
	Name    string            `json:"name"`
	Doctors []*DoctorSchedule `json:"doctors"`
}

type HospitalSchedule struct {
	ID          int64                 `json:"id"`
	Name        string                `json:"name"`
	Departments []*DepartmentSchedule `json:"departments"`
}

// ScheduleTree is the full hospital→department→doctor aggregation for a
// day or week range.
type ScheduleTree struct {
	Range     Span                `json:"range"`
	Days      []string            `json:"days"`
	Hospitals []*HospitalSchedule `json:"hospitals"`
}
