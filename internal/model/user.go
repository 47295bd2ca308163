package model

type User struct {
	ID         int64   `db:"id" json:"id"`
	Name       string  `db:"name" json:"name"`
	Phone      string  `db:"phone" json:"phone"`
	NationalID *string `db:"national_id" json:"national_id,omitempty"`
}

// UpsertUserRequest is the login-or-create payload. Phone is the login key;
// name and national id are updated in place when they differ.
type UpsertUserRequest struct {
	Phone      string  `json:"phone" binding:"required"`
	Name       string  `json:"name" binding:"required"`
	NationalID *string `json:"national_id"`
}
