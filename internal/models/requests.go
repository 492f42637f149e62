package models

// CreateTeacherRequest creates a teacher together with its login identity.
type CreateTeacherRequest struct {
	FullName string `json:"full_name" validate:"required,min=2,max=120"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

// UpdateTeacherRequest updates a teacher profile. Password is optional and
// only replaced when provided.
type UpdateTeacherRequest struct {
	FullName string `json:"full_name" validate:"required,min=2,max=120"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"omitempty,min=6"`
}

// CreateStudentRequest creates a student together with its login identity.
type CreateStudentRequest struct {
	FullName     string `json:"full_name" validate:"required,min=2,max=120"`
	Email        string `json:"email" validate:"required,email"`
	Password     string `json:"password" validate:"required,min=6"`
	Age          int    `json:"age" validate:"required,gte=1,lte=120"`
	ClassGroupID string `json:"class_group_id" validate:"required,uuid4"`
}

// UpdateStudentRequest updates a student profile.
type UpdateStudentRequest struct {
	FullName     string `json:"full_name" validate:"required,min=2,max=120"`
	Email        string `json:"email" validate:"required,email"`
	Password     string `json:"password" validate:"omitempty,min=6"`
	Age          int    `json:"age" validate:"required,gte=1,lte=120"`
	ClassGroupID string `json:"class_group_id" validate:"required,uuid4"`
}

// CreateManagerRequest creates a manager together with its login identity.
type CreateManagerRequest struct {
	FullName string          `json:"full_name" validate:"required,min=2,max=120"`
	Email    string          `json:"email" validate:"required,email"`
	Password string          `json:"password" validate:"required,min=6"`
	Position ManagerPosition `json:"position" validate:"required"`
}

// UpdateManagerRequest updates a manager profile.
type UpdateManagerRequest struct {
	FullName string          `json:"full_name" validate:"required,min=2,max=120"`
	Email    string          `json:"email" validate:"required,email"`
	Password string          `json:"password" validate:"omitempty,min=6"`
	Position ManagerPosition `json:"position" validate:"required"`
}

// ClassGroupRequest creates or updates a class group.
type ClassGroupRequest struct {
	Name string `json:"name" validate:"required,min=1,max=60"`
}

// SubjectRequest creates or updates a subject.
type SubjectRequest struct {
	Name         string `json:"name" validate:"required,min=1,max=120"`
	TeacherID    string `json:"teacher_id" validate:"required,uuid4"`
	ClassGroupID string `json:"class_group_id" validate:"required,uuid4"`
}

// UpdateProfileRequest is the self-service profile edit payload.
type UpdateProfileRequest struct {
	FullName string `json:"full_name" validate:"required,min=2,max=120"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"omitempty,min=6"`
}

// ChangePasswordRequest replaces the caller's own password.
type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required,min=6"`
}

// GradeSheetSubmission carries the posted grade fields for one subject.
// Keys follow the form convention nota<slot>_<studentID>.
type GradeSheetSubmission struct {
	Fields map[string]string `json:"fields" validate:"required"`
}
