package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/edudiario/escola-api/internal/models"
)

// StudentRepository manages persistence for student profiles and their
// backing identities.
type StudentRepository struct {
	db *sqlx.DB
}

// NewStudentRepository constructs a StudentRepository.
func NewStudentRepository(db *sqlx.DB) *StudentRepository {
	return &StudentRepository{db: db}
}

const studentSelect = `SELECT s.id, s.user_id, s.full_name, s.age, s.class_group_id, u.email, cg.name AS class_group_name, s.created_at, s.updated_at
	FROM students s JOIN users u ON u.id = s.user_id JOIN class_groups cg ON cg.id = s.class_group_id`

// List returns students matching the name filter along with total count.
func (r *StudentRepository) List(ctx context.Context, filter models.NameFilter) ([]models.StudentDetail, int, error) {
	base := "FROM students s JOIN users u ON u.id = s.user_id JOIN class_groups cg ON cg.id = s.class_group_id WHERE 1=1"
	var args []interface{}

	if filter.Query != "" {
		base += fmt.Sprintf(" AND s.full_name ILIKE $%d", len(args)+1)
		args = append(args, "%"+strings.TrimSpace(filter.Query)+"%")
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf("SELECT s.id, s.user_id, s.full_name, s.age, s.class_group_id, u.email, cg.name AS class_group_name, s.created_at, s.updated_at %s ORDER BY s.full_name ASC LIMIT %d OFFSET %d", base, size, offset)
	var students []models.StudentDetail
	if err := r.db.SelectContext(ctx, &students, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list students: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count students: %w", err)
	}

	return students, total, nil
}

// FindByID fetches a student by ID.
func (r *StudentRepository) FindByID(ctx context.Context, id string) (*models.StudentDetail, error) {
	query := studentSelect + ` WHERE s.id = $1`
	var student models.StudentDetail
	if err := r.db.GetContext(ctx, &student, query, id); err != nil {
		return nil, err
	}
	return &student, nil
}

// FindByUserID fetches the student profile owned by an identity.
func (r *StudentRepository) FindByUserID(ctx context.Context, userID string) (*models.StudentDetail, error) {
	query := studentSelect + ` WHERE s.user_id = $1`
	var student models.StudentDetail
	if err := r.db.GetContext(ctx, &student, query, userID); err != nil {
		return nil, err
	}
	return &student, nil
}

// ListByClassGroup returns all students of one class group ordered by name.
func (r *StudentRepository) ListByClassGroup(ctx context.Context, classGroupID string) ([]models.Student, error) {
	const query = `SELECT s.id, s.user_id, s.full_name, s.age, s.class_group_id, u.email, s.created_at, s.updated_at
		FROM students s JOIN users u ON u.id = s.user_id
		WHERE s.class_group_id = $1 ORDER BY s.full_name ASC`
	var students []models.Student
	if err := r.db.SelectContext(ctx, &students, query, classGroupID); err != nil {
		return nil, fmt.Errorf("list students by class group: %w", err)
	}
	return students, nil
}

// Count returns the total number of students.
func (r *StudentRepository) Count(ctx context.Context) (int, error) {
	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM students`); err != nil {
		return 0, fmt.Errorf("count students: %w", err)
	}
	return total, nil
}

// CreateWithUser inserts the identity and the student profile atomically.
func (r *StudentRepository) CreateWithUser(ctx context.Context, user *models.User, student *models.Student) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin create student: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if err := insertUserTx(ctx, tx, user); err != nil {
		return err
	}

	if student.ID == "" {
		student.ID = uuid.NewString()
	}
	student.UserID = user.ID
	now := time.Now().UTC()
	student.CreatedAt = now
	student.UpdatedAt = now

	const query = `INSERT INTO students (id, user_id, full_name, age, class_group_id, created_at, updated_at)
		VALUES (:id, :user_id, :full_name, :age, :class_group_id, :created_at, :updated_at)`
	if _, err := tx.NamedExecContext(ctx, query, student); err != nil {
		return translateDBError(err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit create student: %w", err)
	}
	student.Email = user.Email
	return nil
}

// UpdateWithUser modifies the profile and keeps the identity in sync.
func (r *StudentRepository) UpdateWithUser(ctx context.Context, student *models.Student, passwordHash string) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin update student: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	student.UpdatedAt = time.Now().UTC()
	const query = `UPDATE students SET full_name = :full_name, age = :age, class_group_id = :class_group_id, updated_at = :updated_at WHERE id = :id`
	if _, err := tx.NamedExecContext(ctx, query, student); err != nil {
		return translateDBError(err)
	}

	if err := updateUserTx(ctx, tx, student.UserID, student.Email, passwordHash); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit update student: %w", err)
	}
	return nil
}

// DeleteWithUser removes the profile, its grade records and its backing
// identity atomically.
func (r *StudentRepository) DeleteWithUser(ctx context.Context, id string) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete student: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	var userID string
	if err := tx.GetContext(ctx, &userID, `SELECT user_id FROM students WHERE id = $1`, id); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM grade_records WHERE student_id = $1`, id); err != nil {
		return fmt.Errorf("delete student grades: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM students WHERE id = $1`, id); err != nil {
		return translateDBError(err)
	}
	if err := deleteUserTx(ctx, tx, userID); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit delete student: %w", err)
	}
	return nil
}
