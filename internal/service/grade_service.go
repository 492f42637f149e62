package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/edudiario/escola-api/internal/models"
	appErrors "github.com/edudiario/escola-api/pkg/errors"
	"github.com/edudiario/escola-api/pkg/export"
)

// Grade slot values must lie inside this closed interval.
const (
	gradeMin = 0.0
	gradeMax = 10.0
)

type gradeRepository interface {
	Upsert(ctx context.Context, record *models.GradeRecord) error
	MapByStudents(ctx context.Context, subjectID string, studentIDs []string) (map[string]*models.GradeRecord, error)
	ListByStudent(ctx context.Context, studentID string) (map[string]*models.GradeRecord, error)
}

type gradeSubjectFinder interface {
	FindByID(ctx context.Context, id string) (*models.SubjectDetail, error)
}

type gradeStudentLister interface {
	ListByClassGroup(ctx context.Context, classGroupID string) ([]models.Student, error)
}

type gradeExporter interface {
	Render(table export.Table) ([]byte, error)
}

type gradeMetrics interface {
	RecordGradeUpsert()
	RecordGradeDiscard(reason string)
}

// GradeService implements the grade sheet for one subject: load the class
// roster with existing records and apply posted scores. Only the subject's
// own teacher or an admin may touch a sheet.
type GradeService struct {
	grades   gradeRepository
	subjects gradeSubjectFinder
	students gradeStudentLister
	metrics  gradeMetrics
	pdf      gradeExporter
	csv      gradeExporter
	logger   *zap.Logger
}

// NewGradeService constructs a GradeService instance.
func NewGradeService(grades gradeRepository, subjects gradeSubjectFinder, students gradeStudentLister, metrics gradeMetrics, logger *zap.Logger) *GradeService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GradeService{
		grades:   grades,
		subjects: subjects,
		students: students,
		metrics:  metrics,
		pdf:      export.NewPDFExporter(),
		csv:      export.NewCSVExporter(),
		logger:   logger,
	}
}

// Sheet returns the grade-entry view: every student of the subject's class
// group together with their current record, if any.
func (s *GradeService) Sheet(ctx context.Context, claims *models.JWTClaims, subjectID string) (*models.GradeSheet, error) {
	subject, err := s.authorizedSubject(ctx, claims, subjectID)
	if err != nil {
		return nil, err
	}
	return s.buildSheet(ctx, subject)
}

// Submit applies a posted grade sheet. Field keys follow the naming
// nota<slot>_<studentID>. Blank or absent fields leave the slot untouched;
// unparsable or out-of-range values are dropped without failing the
// submission. Each student with at least one accepted value is persisted
// once, existing untouched slots preserved.
func (s *GradeService) Submit(ctx context.Context, claims *models.JWTClaims, subjectID string, submission models.GradeSheetSubmission) (*models.GradeSheet, error) {
	subject, err := s.authorizedSubject(ctx, claims, subjectID)
	if err != nil {
		return nil, err
	}

	students, err := s.students.ListByClassGroup(ctx, subject.ClassGroupID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load class roster")
	}

	studentIDs := make([]string, 0, len(students))
	for _, student := range students {
		studentIDs = append(studentIDs, student.ID)
	}

	existing, err := s.grades.MapByStudents(ctx, subject.ID, studentIDs)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load grade records")
	}

	now := time.Now().UTC()
	for _, student := range students {
		record := existing[student.ID]
		touched := false

		for slot := 1; slot <= models.GradeSlots; slot++ {
			raw, ok := submission.Fields[fmt.Sprintf("nota%d_%s", slot, student.ID)]
			if !ok {
				continue
			}
			raw = strings.TrimSpace(raw)
			if raw == "" {
				continue
			}

			value, err := strconv.ParseFloat(raw, 64)
			if err != nil {
				s.discard("unparsable", student.ID, slot, raw)
				continue
			}
			// Written so NaN fails too; NaN compares false against both bounds.
			if !(value >= gradeMin && value <= gradeMax) {
				s.discard("out_of_range", student.ID, slot, raw)
				continue
			}

			if record == nil {
				record = &models.GradeRecord{
					ID:        uuid.NewString(),
					StudentID: student.ID,
					SubjectID: subject.ID,
					CreatedAt: now,
				}
			}
			*record.Slot(slot) = &value
			touched = true
		}

		if !touched {
			continue
		}

		record.UpdatedAt = now
		if err := s.grades.Upsert(ctx, record); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to persist grade record")
		}
		if s.metrics != nil {
			s.metrics.RecordGradeUpsert()
		}
	}

	return s.buildSheet(ctx, subject)
}

// Export renders the current grade sheet in the requested format. Supported
// formats are "pdf" and "csv".
func (s *GradeService) Export(ctx context.Context, claims *models.JWTClaims, subjectID, format string) ([]byte, string, string, error) {
	sheet, err := s.Sheet(ctx, claims, subjectID)
	if err != nil {
		return nil, "", "", err
	}

	table := export.Table{
		Title:   fmt.Sprintf("%s / %s", sheet.Subject.Name, sheet.Subject.ClassGroupName),
		Headers: []string{"Aluno", "Nota 1", "Nota 2", "Nota 3", "Nota 4"},
	}
	for _, row := range sheet.Students {
		cells := []string{row.StudentName}
		for slot := 1; slot <= models.GradeSlots; slot++ {
			cells = append(cells, formatGrade(row.Grades, slot))
		}
		table.Rows = append(table.Rows, cells)
	}

	base := fmt.Sprintf("notas-%s", sheet.Subject.ID)
	switch strings.ToLower(format) {
	case "pdf":
		data, err := s.pdf.Render(table)
		if err != nil {
			return nil, "", "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render pdf")
		}
		return data, base + ".pdf", "application/pdf", nil
	case "csv":
		data, err := s.csv.Render(table)
		if err != nil {
			return nil, "", "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv")
		}
		return data, base + ".csv", "text/csv", nil
	default:
		return nil, "", "", appErrors.Clone(appErrors.ErrValidation, "unsupported export format")
	}
}

// ListByStudent returns a student's grade records keyed by subject id.
func (s *GradeService) ListByStudent(ctx context.Context, studentID string) (map[string]*models.GradeRecord, error) {
	records, err := s.grades.ListByStudent(ctx, studentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student grades")
	}
	return records, nil
}

func (s *GradeService) authorizedSubject(ctx context.Context, claims *models.JWTClaims, subjectID string) (*models.SubjectDetail, error) {
	subject, err := s.subjects.FindByID(ctx, subjectID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "subject not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch subject")
	}

	switch claims.Role {
	case models.RoleAdmin:
	case models.RoleTeacher:
		if subject.TeacherID != claims.ProfileID {
			return nil, appErrors.Clone(appErrors.ErrForbidden, "subject belongs to another teacher")
		}
	default:
		return nil, appErrors.Clone(appErrors.ErrForbidden, "grade sheets require a teacher or admin")
	}

	return subject, nil
}

func (s *GradeService) buildSheet(ctx context.Context, subject *models.SubjectDetail) (*models.GradeSheet, error) {
	students, err := s.students.ListByClassGroup(ctx, subject.ClassGroupID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load class roster")
	}

	studentIDs := make([]string, 0, len(students))
	for _, student := range students {
		studentIDs = append(studentIDs, student.ID)
	}

	records, err := s.grades.MapByStudents(ctx, subject.ID, studentIDs)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load grade records")
	}

	sheet := &models.GradeSheet{Subject: *subject, Students: make([]models.StudentGradeRow, 0, len(students))}
	for _, student := range students {
		sheet.Students = append(sheet.Students, models.StudentGradeRow{
			StudentID:   student.ID,
			StudentName: student.FullName,
			Grades:      records[student.ID],
		})
	}
	return sheet, nil
}

func (s *GradeService) discard(reason, studentID string, slot int, raw string) {
	s.logger.Debug("grade field discarded",
		zap.String("reason", reason),
		zap.String("student_id", studentID),
		zap.Int("slot", slot),
		zap.String("value", raw))
	if s.metrics != nil {
		s.metrics.RecordGradeDiscard(reason)
	}
}

func formatGrade(record *models.GradeRecord, slot int) string {
	if record == nil {
		return "-"
	}
	value := *record.Slot(slot)
	if value == nil {
		return "-"
	}
	return strconv.FormatFloat(*value, 'f', 1, 64)
}
