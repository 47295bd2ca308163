package model

import "time"

type Hospital struct {
	ID      int64   `db:"id" json:"id"`
	Name    string  `db:"name" json:"name"`
	Address *string `db:"address" json:"address,omitempty"`
}

type Department struct {
	ID         int64  `db:"id" json:"id"`
	Name       string `db:"name" json:"name"`
	HospitalID int64  `db:"hospital_id" json:"hospital_id"`
}

type Room struct {
	ID           int64   `db:"id" json:"id"`
	DepartmentID int64   `db:"department_id" json:"department_id"`
	HospitalID   int64   `db:"hospital_id" json:"hospital_id"`
	Code         string  `db:"code" json:"code"`
	Name         *string `db:"name" json:"name,omitempty"`
}

// RoomFilter narrows room listings to an organizational scope.
type RoomFilter struct {
	HospitalID   *int64 `form:"hospital_id"`
	DepartmentID *int64 `form:"department_id"`
}

// HospitalUser is one row of the per-hospital patient roster: a user plus
// their appointment activity with that hospital's doctors.
type HospitalUser struct {
	HospitalID   int64      `db:"hospital_id" json:"-"`
	HospitalName string     `db:"hospital_name" json:"-"`
	UserID       int64      `db:"user_id" json:"id"`
	UserName     string     `db:"user_name" json:"name"`
	Phone        string     `db:"phone" json:"phone"`
	NationalID   *string    `db:"national_id" json:"national_id,omitempty"`
	Appointments int        `db:"appointment_count" json:"appointments"`
	LastWhen     *time.Time `db:"last_when" json:"last_when,omitempty"`
}

// HospitalUserGroup groups roster rows under their hospital.
type HospitalUserGroup struct {
	ID    int64          `json:"id"`
	Name  string         `json:"name"`
	Users []HospitalUser `json:"users"`
}
