package models

import "time"

// Subject is a taught course instance (a "disciplina") tied to one teacher
// and one class group. The (name, teacher, class group) triple is unique.
type Subject struct {
	ID           string    `db:"id" json:"id"`
	Name         string    `db:"name" json:"name"`
	TeacherID    string    `db:"teacher_id" json:"teacher_id"`
	ClassGroupID string    `db:"class_group_id" json:"class_group_id"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// SubjectDetail adds teacher and class group names for list responses.
type SubjectDetail struct {
	Subject
	TeacherName    string `db:"teacher_name" json:"teacher_name"`
	ClassGroupName string `db:"class_group_name" json:"class_group_name"`
}
