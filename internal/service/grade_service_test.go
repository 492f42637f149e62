package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/edudiario/escola-api/internal/models"
	appErrors "github.com/edudiario/escola-api/pkg/errors"
)

type mockGradeRepo struct {
	records  map[string]*models.GradeRecord
	upserted []*models.GradeRecord
}

func (m *mockGradeRepo) Upsert(ctx context.Context, record *models.GradeRecord) error {
	if m.records == nil {
		m.records = make(map[string]*models.GradeRecord)
	}
	clone := *record
	m.records[record.StudentID] = &clone
	m.upserted = append(m.upserted, &clone)
	return nil
}

func (m *mockGradeRepo) MapByStudents(ctx context.Context, subjectID string, studentIDs []string) (map[string]*models.GradeRecord, error) {
	out := make(map[string]*models.GradeRecord, len(studentIDs))
	for _, id := range studentIDs {
		if record, ok := m.records[id]; ok {
			clone := *record
			out[id] = &clone
		}
	}
	return out, nil
}

func (m *mockGradeRepo) ListByStudent(ctx context.Context, studentID string) (map[string]*models.GradeRecord, error) {
	out := make(map[string]*models.GradeRecord)
	if record, ok := m.records[studentID]; ok {
		out[record.SubjectID] = record
	}
	return out, nil
}

type mockSubjectFinder struct{ subject *models.SubjectDetail }

func (m *mockSubjectFinder) FindByID(ctx context.Context, id string) (*models.SubjectDetail, error) {
	if m.subject == nil || m.subject.ID != id {
		return nil, sql.ErrNoRows
	}
	return m.subject, nil
}

type mockRoster struct{ students []models.Student }

func (m *mockRoster) ListByClassGroup(ctx context.Context, classGroupID string) ([]models.Student, error) {
	return m.students, nil
}

type mockGradeMetrics struct {
	upserts  int
	discards map[string]int
}

func (m *mockGradeMetrics) RecordGradeUpsert() { m.upserts++ }

func (m *mockGradeMetrics) RecordGradeDiscard(reason string) {
	if m.discards == nil {
		m.discards = make(map[string]int)
	}
	m.discards[reason]++
}

func gradeFixture() (*GradeService, *mockGradeRepo, *mockGradeMetrics, *models.JWTClaims) {
	repo := &mockGradeRepo{}
	metrics := &mockGradeMetrics{}
	subject := &models.SubjectDetail{}
	subject.ID = "sub1"
	subject.Name = "Matemática"
	subject.TeacherID = "t1"
	subject.ClassGroupID = "cg1"
	subject.ClassGroupName = "3A"

	roster := &mockRoster{students: []models.Student{
		{ID: "s1", FullName: "Joao Souza", ClassGroupID: "cg1"},
		{ID: "s2", FullName: "Maria Dias", ClassGroupID: "cg1"},
	}}
	svc := NewGradeService(repo, &mockSubjectFinder{subject: subject}, roster, metrics, zap.NewNop())
	claims := &models.JWTClaims{UserID: "u1", Role: models.RoleTeacher, ProfileID: "t1"}
	return svc, repo, metrics, claims
}

func TestSubmitStoresValueInCorrectSlot(t *testing.T) {
	svc, repo, metrics, claims := gradeFixture()

	sheet, err := svc.Submit(context.Background(), claims, "sub1", models.GradeSheetSubmission{
		Fields: map[string]string{"nota2_s1": "7.5"},
	})
	require.NoError(t, err)

	stored := repo.records["s1"]
	require.NotNil(t, stored)
	assert.Nil(t, stored.Nota1)
	require.NotNil(t, stored.Nota2)
	assert.Equal(t, 7.5, *stored.Nota2)
	assert.Equal(t, 1, metrics.upserts)

	// The returned sheet reflects the stored value and keeps roster order.
	require.Len(t, sheet.Students, 2)
	assert.Equal(t, "s1", sheet.Students[0].StudentID)
	require.NotNil(t, sheet.Students[0].Grades)
	assert.Equal(t, 7.5, *sheet.Students[0].Grades.Nota2)
	assert.Nil(t, sheet.Students[1].Grades)
}

func TestSubmitPreservesUntouchedSlots(t *testing.T) {
	svc, repo, _, claims := gradeFixture()

	five := 5.0
	repo.records = map[string]*models.GradeRecord{
		"s1": {ID: "g1", StudentID: "s1", SubjectID: "sub1", Nota1: &five},
	}

	_, err := svc.Submit(context.Background(), claims, "sub1", models.GradeSheetSubmission{
		Fields: map[string]string{"nota3_s1": "9"},
	})
	require.NoError(t, err)

	stored := repo.records["s1"]
	require.NotNil(t, stored.Nota1)
	assert.Equal(t, 5.0, *stored.Nota1)
	require.NotNil(t, stored.Nota3)
	assert.Equal(t, 9.0, *stored.Nota3)
	assert.Equal(t, "g1", stored.ID)
}

func TestSubmitDiscardsInvalidValues(t *testing.T) {
	svc, repo, metrics, claims := gradeFixture()

	_, err := svc.Submit(context.Background(), claims, "sub1", models.GradeSheetSubmission{
		Fields: map[string]string{
			"nota1_s1": "11",
			"nota2_s1": "abc",
			"nota3_s1": "-0.5",
			"nota4_s1": "   ",
		},
	})
	require.NoError(t, err)

	// Nothing was accepted, so no record is created.
	assert.Empty(t, repo.records)
	assert.Empty(t, repo.upserted)
	assert.Equal(t, 0, metrics.upserts)
	assert.Equal(t, 2, metrics.discards["out_of_range"])
	assert.Equal(t, 1, metrics.discards["unparsable"])
}

func TestSubmitDiscardsNonFiniteValues(t *testing.T) {
	svc, repo, metrics, claims := gradeFixture()

	// ParseFloat accepts these, so the range gate must reject them.
	_, err := svc.Submit(context.Background(), claims, "sub1", models.GradeSheetSubmission{
		Fields: map[string]string{
			"nota1_s1": "NaN",
			"nota2_s1": "+Inf",
			"nota3_s1": "-Inf",
			"nota4_s1": "1e308",
		},
	})
	require.NoError(t, err)

	assert.Empty(t, repo.records)
	assert.Empty(t, repo.upserted)
	assert.Equal(t, 0, metrics.upserts)
	assert.Equal(t, 4, metrics.discards["out_of_range"])
}

func TestSubmitMixedFieldsUpsertsOncePerStudent(t *testing.T) {
	svc, repo, metrics, claims := gradeFixture()

	_, err := svc.Submit(context.Background(), claims, "sub1", models.GradeSheetSubmission{
		Fields: map[string]string{
			"nota1_s1": "8",
			"nota2_s1": "nope",
			"nota4_s1": "10",
			"nota1_s2": "6.25",
		},
	})
	require.NoError(t, err)

	require.Len(t, repo.upserted, 2)
	assert.Equal(t, 2, metrics.upserts)
	assert.Equal(t, 1, metrics.discards["unparsable"])

	s1 := repo.records["s1"]
	require.NotNil(t, s1)
	assert.Equal(t, 8.0, *s1.Nota1)
	assert.Nil(t, s1.Nota2)
	assert.Equal(t, 10.0, *s1.Nota4)

	s2 := repo.records["s2"]
	require.NotNil(t, s2)
	assert.Equal(t, 6.25, *s2.Nota1)
}

func TestSubmitBoundaryValuesAccepted(t *testing.T) {
	svc, repo, _, claims := gradeFixture()

	_, err := svc.Submit(context.Background(), claims, "sub1", models.GradeSheetSubmission{
		Fields: map[string]string{
			"nota1_s1": "0",
			"nota2_s1": "10",
		},
	})
	require.NoError(t, err)

	stored := repo.records["s1"]
	require.NotNil(t, stored)
	assert.Equal(t, 0.0, *stored.Nota1)
	assert.Equal(t, 10.0, *stored.Nota2)
}

func TestSheetForbiddenForAnotherTeacher(t *testing.T) {
	svc, _, _, _ := gradeFixture()
	other := &models.JWTClaims{UserID: "u2", Role: models.RoleTeacher, ProfileID: "t2"}

	_, err := svc.Sheet(context.Background(), other, "sub1")
	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrForbidden.Code, appErr.Code)
}

func TestSheetAllowedForAdmin(t *testing.T) {
	svc, _, _, _ := gradeFixture()
	admin := &models.JWTClaims{UserID: "u9", Role: models.RoleAdmin}

	sheet, err := svc.Sheet(context.Background(), admin, "sub1")
	require.NoError(t, err)
	assert.Len(t, sheet.Students, 2)
}

func TestSheetRejectsStudents(t *testing.T) {
	svc, _, _, _ := gradeFixture()
	student := &models.JWTClaims{UserID: "u3", Role: models.RoleStudent, ProfileID: "s1"}

	_, err := svc.Sheet(context.Background(), student, "sub1")
	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrForbidden.Code, appErr.Code)
}

func TestExportCSVContainsRoster(t *testing.T) {
	svc, repo, _, claims := gradeFixture()

	seven := 7.0
	repo.records = map[string]*models.GradeRecord{
		"s1": {ID: "g1", StudentID: "s1", SubjectID: "sub1", Nota1: &seven},
	}

	data, filename, contentType, err := svc.Export(context.Background(), claims, "sub1", "csv")
	require.NoError(t, err)
	assert.Equal(t, "notas-sub1.csv", filename)
	assert.Equal(t, "text/csv", contentType)
	assert.Contains(t, string(data), "Joao Souza")
	assert.Contains(t, string(data), "7.0")
	assert.Contains(t, string(data), "Maria Dias")

	_, _, _, err = svc.Export(context.Background(), claims, "sub1", "xml")
	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
}
