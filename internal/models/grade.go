package models

import "time"

// GradeSlots is the fixed number of grade columns per student and subject.
const GradeSlots = 4

// GradeRecord holds the up-to-four scores for one student in one subject.
// Exactly one record exists per (student, subject) pair; slots are
// independently nullable and valid values lie in [0,10].
type GradeRecord struct {
	ID        string     `db:"id" json:"id"`
	StudentID string     `db:"student_id" json:"student_id"`
	SubjectID string     `db:"subject_id" json:"subject_id"`
	Nota1     *float64   `db:"nota1" json:"nota1"`
	Nota2     *float64   `db:"nota2" json:"nota2"`
	Nota3     *float64   `db:"nota3" json:"nota3"`
	Nota4     *float64   `db:"nota4" json:"nota4"`
	CreatedAt time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt time.Time  `db:"updated_at" json:"updated_at"`
}

// Slot returns a pointer to the n-th grade slot (1-based).
func (g *GradeRecord) Slot(n int) **float64 {
	switch n {
	case 1:
		return &g.Nota1
	case 2:
		return &g.Nota2
	case 3:
		return &g.Nota3
	case 4:
		return &g.Nota4
	}
	return nil
}

// StudentGradeRow pairs a student with their grade record for a subject.
// Grades is nil when no record exists yet.
type StudentGradeRow struct {
	StudentID   string       `json:"student_id"`
	StudentName string       `json:"student_name"`
	Grades      *GradeRecord `json:"grades"`
}

// GradeSheet is the grade-entry view for one subject.
type GradeSheet struct {
	Subject  SubjectDetail     `json:"subject"`
	Students []StudentGradeRow `json:"students"`
}
