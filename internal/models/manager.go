package models

import "time"

// ManagerPosition is the fixed rank enum for school management staff.
type ManagerPosition string

const (
	PositionDirector     ManagerPosition = "director"
	PositionViceDirector ManagerPosition = "vice_director"
	PositionOther        ManagerPosition = "other"
)

// Valid reports whether the position is one of the known ranks.
func (p ManagerPosition) Valid() bool {
	switch p {
	case PositionDirector, PositionViceDirector, PositionOther:
		return true
	}
	return false
}

// Senior reports whether the rank may create and remove other managers.
func (p ManagerPosition) Senior() bool {
	return p == PositionDirector || p == PositionViceDirector
}

// Manager is the role profile for management staff.
type Manager struct {
	ID        string          `db:"id" json:"id"`
	UserID    string          `db:"user_id" json:"user_id"`
	FullName  string          `db:"full_name" json:"full_name"`
	Position  ManagerPosition `db:"position" json:"position"`
	Email     string          `db:"email" json:"email"`
	CreatedAt time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt time.Time       `db:"updated_at" json:"updated_at"`
}
