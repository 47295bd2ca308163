package model

import "time"

type Conversation struct {
	ID        int64     `db:"id" json:"id"`
	UserID    *int64    `db:"user_id" json:"user_id,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	Summary   string    `db:"summary" json:"summary"`
	Symptoms  *string   `db:"symptoms" json:"symptoms,omitempty"`
}
