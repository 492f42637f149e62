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

// GradeRepository handles grade record persistence.
type GradeRepository struct {
	db *sqlx.DB
}

// NewGradeRepository creates a new grade repository.
func NewGradeRepository(db *sqlx.DB) *GradeRepository {
	return &GradeRepository{db: db}
}

const gradeColumns = `id, student_id, subject_id, nota1, nota2, nota3, nota4, created_at, updated_at`

// FindByStudentSubject fetches the single record for a (student, subject)
// pair. sql.ErrNoRows signals that no record exists yet.
func (r *GradeRepository) FindByStudentSubject(ctx context.Context, studentID, subjectID string) (*models.GradeRecord, error) {
	query := fmt.Sprintf(`SELECT %s FROM grade_records WHERE student_id = $1 AND subject_id = $2 LIMIT 1`, gradeColumns)
	var record models.GradeRecord
	if err := r.db.GetContext(ctx, &record, query, studentID, subjectID); err != nil {
		return nil, err
	}
	return &record, nil
}

// Upsert inserts or updates the grade record for its (student, subject)
// pair. All four slots are written; callers load the existing record first
// so untouched slots keep their prior values.
func (r *GradeRepository) Upsert(ctx context.Context, record *models.GradeRecord) error {
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if record.CreatedAt.IsZero() {
		record.CreatedAt = now
	}
	record.UpdatedAt = now
	const query = `INSERT INTO grade_records (id, student_id, subject_id, nota1, nota2, nota3, nota4, created_at, updated_at)
		VALUES (:id, :student_id, :subject_id, :nota1, :nota2, :nota3, :nota4, :created_at, :updated_at)
		ON CONFLICT (student_id, subject_id)
		DO UPDATE SET nota1 = EXCLUDED.nota1, nota2 = EXCLUDED.nota2, nota3 = EXCLUDED.nota3, nota4 = EXCLUDED.nota4, updated_at = EXCLUDED.updated_at`
	if _, err := r.db.NamedExecContext(ctx, query, record); err != nil {
		return fmt.Errorf("upsert grade record: %w", err)
	}
	return nil
}

// MapByStudents returns the grade records of one subject keyed by student ID.
func (r *GradeRepository) MapByStudents(ctx context.Context, subjectID string, studentIDs []string) (map[string]*models.GradeRecord, error) {
	result := make(map[string]*models.GradeRecord, len(studentIDs))
	if len(studentIDs) == 0 {
		return result, nil
	}
	placeholders := make([]string, len(studentIDs))
	args := make([]interface{}, len(studentIDs)+1)
	args[0] = subjectID
	for i, id := range studentIDs {
		placeholders[i] = fmt.Sprintf("$%d", i+2)
		args[i+1] = id
	}
	query := fmt.Sprintf(`SELECT %s FROM grade_records WHERE subject_id = $1 AND student_id IN (%s)`, gradeColumns, strings.Join(placeholders, ","))
	rows, err := r.db.QueryxContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("map grade records: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var record models.GradeRecord
		if err := rows.StructScan(&record); err != nil {
			return nil, fmt.Errorf("scan grade record: %w", err)
		}
		rec := record
		result[record.StudentID] = &rec
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate grade records: %w", err)
	}
	return result, nil
}

// ListByStudent returns all grade records of one student keyed by subject ID.
func (r *GradeRepository) ListByStudent(ctx context.Context, studentID string) (map[string]*models.GradeRecord, error) {
	query := fmt.Sprintf(`SELECT %s FROM grade_records WHERE student_id = $1`, gradeColumns)
	rows, err := r.db.QueryxContext(ctx, query, studentID)
	if err != nil {
		return nil, fmt.Errorf("list grade records by student: %w", err)
	}
	defer rows.Close()
	result := make(map[string]*models.GradeRecord)
	for rows.Next() {
		var record models.GradeRecord
		if err := rows.StructScan(&record); err != nil {
			return nil, fmt.Errorf("scan grade record: %w", err)
		}
		rec := record
		result[record.SubjectID] = &rec
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate grade records: %w", err)
	}
	return result, nil
}
