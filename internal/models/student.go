package models

import "time"

// Student is the role profile for learners. The class group reference must
// point at an existing ClassGroup.
type Student struct {
	ID           string    `db:"id" json:"id"`
	UserID       string    `db:"user_id" json:"user_id"`
	FullName     string    `db:"full_name" json:"full_name"`
	Age          int       `db:"age" json:"age"`
	ClassGroupID string    `db:"class_group_id" json:"class_group_id"`
	Email        string    `db:"email" json:"email"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// StudentDetail adds the class group name for list responses.
type StudentDetail struct {
	Student
	ClassGroupName string `db:"class_group_name" json:"class_group_name"`
}
