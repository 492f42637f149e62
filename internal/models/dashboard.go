package models

// DashboardCounts aggregates entity totals for the admin and manager panels.
type DashboardCounts struct {
	Teachers    int `json:"teachers"`
	Students    int `json:"students"`
	ClassGroups int `json:"class_groups"`
	Subjects    int `json:"subjects"`
}

// AdminDashboard is the landing payload for administrators.
type AdminDashboard struct {
	User   UserInfo        `json:"user"`
	Counts DashboardCounts `json:"counts"`
}

// ManagerDashboard is the landing payload for management staff.
type ManagerDashboard struct {
	Manager Manager         `json:"manager"`
	Counts  DashboardCounts `json:"counts"`
}

// TeacherDashboard lists the subjects a teacher teaches.
type TeacherDashboard struct {
	Teacher  Teacher         `json:"teacher"`
	Subjects []SubjectDetail `json:"subjects"`
}

// StudentSubjectGrades pairs a subject with the student's grade record.
type StudentSubjectGrades struct {
	Subject SubjectDetail `json:"subject"`
	Grades  *GradeRecord  `json:"grades"`
}

// StudentDashboard lists the subjects of the student's class group together
// with the student's own grades.
type StudentDashboard struct {
	Student  StudentDetail          `json:"student"`
	Subjects []StudentSubjectGrades `json:"subjects"`
}
