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

// SubjectRepository manages persistence for subjects.
type SubjectRepository struct {
	db *sqlx.DB
}

// NewSubjectRepository constructs a SubjectRepository.
func NewSubjectRepository(db *sqlx.DB) *SubjectRepository {
	return &SubjectRepository{db: db}
}

const subjectSelect = `SELECT d.id, d.name, d.teacher_id, d.class_group_id, t.full_name AS teacher_name, cg.name AS class_group_name, d.created_at, d.updated_at
	FROM subjects d JOIN teachers t ON t.id = d.teacher_id JOIN class_groups cg ON cg.id = d.class_group_id`

// List returns subjects whose name or class group name matches the filter.
func (r *SubjectRepository) List(ctx context.Context, filter models.NameFilter) ([]models.SubjectDetail, int, error) {
	base := "FROM subjects d JOIN teachers t ON t.id = d.teacher_id JOIN class_groups cg ON cg.id = d.class_group_id WHERE 1=1"
	var args []interface{}

	if filter.Query != "" {
		pattern := "%" + strings.TrimSpace(filter.Query) + "%"
		base += fmt.Sprintf(" AND (d.name ILIKE $%d OR cg.name ILIKE $%d)", len(args)+1, len(args)+1)
		args = append(args, pattern)
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

	query := fmt.Sprintf("SELECT d.id, d.name, d.teacher_id, d.class_group_id, t.full_name AS teacher_name, cg.name AS class_group_name, d.created_at, d.updated_at %s ORDER BY cg.name ASC, d.name ASC LIMIT %d OFFSET %d", base, size, offset)
	var subjects []models.SubjectDetail
	if err := r.db.SelectContext(ctx, &subjects, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list subjects: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count subjects: %w", err)
	}

	return subjects, total, nil
}

// FindByID fetches a subject by ID.
func (r *SubjectRepository) FindByID(ctx context.Context, id string) (*models.SubjectDetail, error) {
	query := subjectSelect + ` WHERE d.id = $1`
	var subject models.SubjectDetail
	if err := r.db.GetContext(ctx, &subject, query, id); err != nil {
		return nil, err
	}
	return &subject, nil
}

// ListByTeacher returns the subjects taught by one teacher.
func (r *SubjectRepository) ListByTeacher(ctx context.Context, teacherID string) ([]models.SubjectDetail, error) {
	query := subjectSelect + ` WHERE d.teacher_id = $1 ORDER BY cg.name ASC, d.name ASC`
	var subjects []models.SubjectDetail
	if err := r.db.SelectContext(ctx, &subjects, query, teacherID); err != nil {
		return nil, fmt.Errorf("list subjects by teacher: %w", err)
	}
	return subjects, nil
}

// ListByClassGroup returns the subjects taught to one class group.
func (r *SubjectRepository) ListByClassGroup(ctx context.Context, classGroupID string) ([]models.SubjectDetail, error) {
	query := subjectSelect + ` WHERE d.class_group_id = $1 ORDER BY d.name ASC`
	var subjects []models.SubjectDetail
	if err := r.db.SelectContext(ctx, &subjects, query, classGroupID); err != nil {
		return nil, fmt.Errorf("list subjects by class group: %w", err)
	}
	return subjects, nil
}

// Count returns the total number of subjects.
func (r *SubjectRepository) Count(ctx context.Context) (int, error) {
	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM subjects`); err != nil {
		return 0, fmt.Errorf("count subjects: %w", err)
	}
	return total, nil
}

// Create inserts a new subject. The (name, teacher, class group) triple is
// guarded by a unique index.
func (r *SubjectRepository) Create(ctx context.Context, subject *models.Subject) error {
	if subject.ID == "" {
		subject.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	subject.CreatedAt = now
	subject.UpdatedAt = now
	const query = `INSERT INTO subjects (id, name, teacher_id, class_group_id, created_at, updated_at)
		VALUES (:id, :name, :teacher_id, :class_group_id, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, subject); err != nil {
		return translateDBError(err)
	}
	return nil
}

// Update modifies an existing subject.
func (r *SubjectRepository) Update(ctx context.Context, subject *models.Subject) error {
	subject.UpdatedAt = time.Now().UTC()
	const query = `UPDATE subjects SET name = :name, teacher_id = :teacher_id, class_group_id = :class_group_id, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, subject); err != nil {
		return translateDBError(err)
	}
	return nil
}

// Delete removes a subject together with its grade records.
func (r *SubjectRepository) Delete(ctx context.Context, id string) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete subject: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, `DELETE FROM grade_records WHERE subject_id = $1`, id); err != nil {
		return fmt.Errorf("delete subject grades: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM subjects WHERE id = $1`, id); err != nil {
		return translateDBError(err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit delete subject: %w", err)
	}
	return nil
}
