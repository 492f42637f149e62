package models

import "time"

// Role classifies an authenticated identity. Resolution precedence is fixed:
// admin flag first, then teacher profile, then student, then manager.
type Role string

const (
	RoleAdmin   Role = "ADMIN"
	RoleTeacher Role = "TEACHER"
	RoleStudent Role = "STUDENT"
	RoleManager Role = "MANAGER"
	// RoleUnauthenticated marks an identity that matched no profile.
	RoleUnauthenticated Role = ""
)

// User is the identity record backing every role profile.
type User struct {
	ID           string     `db:"id" json:"id"`
	Email        string     `db:"email" json:"email"`
	PasswordHash string     `db:"password_hash" json:"-"`
	IsAdmin      bool       `db:"is_admin" json:"is_admin"`
	Active       bool       `db:"active" json:"active"`
	LastLogin    *time.Time `db:"last_login" json:"last_login,omitempty"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at" json:"updated_at"`
}

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}

// NameFilter captures the shared list criteria: an optional case-insensitive
// substring match on the display name plus paging.
type NameFilter struct {
	Query    string
	Page     int
	PageSize int
}

// Normalized clamps paging to sane bounds.
func (f NameFilter) Normalized() NameFilter {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.PageSize < 1 {
		f.PageSize = 20
	}
	if f.PageSize > 100 {
		f.PageSize = 100
	}
	return f
}
