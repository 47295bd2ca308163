package model

type Doctor struct {
	ID           int64      `db:"id" json:"id"`
	Name         string     `db:"name" json:"name"`
	DepartmentID int64      `db:"department_id" json:"department_id"`
	Phone        *string    `db:"phone" json:"phone,omitempty"`
	Roles        StringList `db:"roles" json:"roles,omitempty"`
}

// DoctorOrg is a doctor joined with the names of the department and
// hospital they belong to.
type DoctorOrg struct {
	Doctor          Doctor  `json:"doctor"`
	DepartmentName  string  `db:"department_name" json:"department"`
	HospitalID      int64   `db:"hospital_id" json:"hospital_id"`
	HospitalName    string  `db:"hospital_name" json:"hospital"`
	HospitalAddress *string `db:"hospital_address" json:"hospital_address,omitempty"`
}

// ScopeKind selects the organizational level a bulk schedule operation
// applies to.
type ScopeKind string

const (
	ScopeHospital   ScopeKind = "hospital"
	ScopeDepartment ScopeKind = "department"
	ScopeDoctor     ScopeKind = "doctor"
)

func (k ScopeKind) Valid() bool {
	switch k {
	case ScopeHospital, ScopeDepartment, ScopeDoctor:
		return true
	}
	return false
}
