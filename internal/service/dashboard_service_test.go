package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edudiario/escola-api/internal/models"
	appErrors "github.com/edudiario/escola-api/pkg/errors"
)

type memCacheRepo struct {
	entries map[string][]byte
}

func (m *memCacheRepo) Get(ctx context.Context, key string, dest interface{}) error {
	data, ok := m.entries[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(data, dest)
}

func (m *memCacheRepo) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if m.entries == nil {
		m.entries = make(map[string][]byte)
	}
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.entries[key] = data
	return nil
}

func (m *memCacheRepo) Delete(ctx context.Context, key string) error {
	delete(m.entries, key)
	return nil
}

type countingTeacherRepo struct {
	calls   int
	teacher *models.Teacher
}

func (m *countingTeacherRepo) Count(ctx context.Context) (int, error) {
	m.calls++
	return 3, nil
}

func (m *countingTeacherRepo) FindByID(ctx context.Context, id string) (*models.Teacher, error) {
	if m.teacher == nil || m.teacher.ID != id {
		return nil, sql.ErrNoRows
	}
	return m.teacher, nil
}

type countingStudentRepo struct {
	calls   int
	student *models.StudentDetail
}

func (m *countingStudentRepo) Count(ctx context.Context) (int, error) {
	m.calls++
	return 42, nil
}

func (m *countingStudentRepo) FindByID(ctx context.Context, id string) (*models.StudentDetail, error) {
	if m.student == nil || m.student.ID != id {
		return nil, sql.ErrNoRows
	}
	return m.student, nil
}

type fixedCounter struct{ value int }

func (m *fixedCounter) Count(ctx context.Context) (int, error) { return m.value, nil }

type dashboardSubjects struct {
	calls    int
	subjects []models.SubjectDetail
}

func (m *dashboardSubjects) Count(ctx context.Context) (int, error) {
	m.calls++
	return len(m.subjects), nil
}

func (m *dashboardSubjects) ListByTeacher(ctx context.Context, teacherID string) ([]models.SubjectDetail, error) {
	return m.subjects, nil
}

func (m *dashboardSubjects) ListByClassGroup(ctx context.Context, classGroupID string) ([]models.SubjectDetail, error) {
	return m.subjects, nil
}

type dashboardManagers struct{ manager *models.Manager }

func (m *dashboardManagers) FindByID(ctx context.Context, id string) (*models.Manager, error) {
	if m.manager == nil || m.manager.ID != id {
		return nil, sql.ErrNoRows
	}
	return m.manager, nil
}

type dashboardGrades struct{ records map[string]*models.GradeRecord }

func (m *dashboardGrades) ListByStudent(ctx context.Context, studentID string) (map[string]*models.GradeRecord, error) {
	return m.records, nil
}

func TestAdminDashboardCachesCounts(t *testing.T) {
	teachers := &countingTeacherRepo{}
	students := &countingStudentRepo{}
	subjects := &dashboardSubjects{subjects: make([]models.SubjectDetail, 5)}
	cache := NewCacheService(&memCacheRepo{}, nil, time.Minute, nil, true)

	svc := NewDashboardService(teachers, students, &fixedCounter{value: 2}, subjects, &dashboardManagers{}, &dashboardGrades{}, cache, time.Minute, nil)
	claims := &models.JWTClaims{UserID: "u1", Email: "admin@escola.br", FullName: "Admin", Role: models.RoleAdmin}

	first, err := svc.Admin(context.Background(), claims)
	require.NoError(t, err)
	assert.Equal(t, 3, first.Counts.Teachers)
	assert.Equal(t, 42, first.Counts.Students)
	assert.Equal(t, 2, first.Counts.ClassGroups)
	assert.Equal(t, 5, first.Counts.Subjects)

	second, err := svc.Admin(context.Background(), claims)
	require.NoError(t, err)
	assert.Equal(t, first.Counts, second.Counts)

	// The second call was served from cache.
	assert.Equal(t, 1, teachers.calls)
	assert.Equal(t, 1, students.calls)
	assert.Equal(t, 1, subjects.calls)
}

func TestAdminDashboardWorksWithoutCache(t *testing.T) {
	teachers := &countingTeacherRepo{}
	students := &countingStudentRepo{}
	subjects := &dashboardSubjects{}

	svc := NewDashboardService(teachers, students, &fixedCounter{}, subjects, &dashboardManagers{}, &dashboardGrades{}, nil, 0, nil)
	claims := &models.JWTClaims{UserID: "u1", Role: models.RoleAdmin}

	_, err := svc.Admin(context.Background(), claims)
	require.NoError(t, err)
	_, err = svc.Admin(context.Background(), claims)
	require.NoError(t, err)
	assert.Equal(t, 2, teachers.calls)
}

func TestStudentDashboardPairsSubjectsWithGrades(t *testing.T) {
	student := &models.StudentDetail{Student: models.Student{ID: "s1", FullName: "Joao", ClassGroupID: "cg1"}}

	math := models.SubjectDetail{}
	math.ID = "sub1"
	math.Name = "Matemática"
	history := models.SubjectDetail{}
	history.ID = "sub2"
	history.Name = "História"

	seven := 7.0
	grades := &dashboardGrades{records: map[string]*models.GradeRecord{
		"sub1": {ID: "g1", StudentID: "s1", SubjectID: "sub1", Nota1: &seven},
	}}

	svc := NewDashboardService(&countingTeacherRepo{}, &countingStudentRepo{student: student}, &fixedCounter{}, &dashboardSubjects{subjects: []models.SubjectDetail{math, history}}, &dashboardManagers{}, grades, nil, 0, nil)
	claims := &models.JWTClaims{UserID: "u1", Role: models.RoleStudent, ProfileID: "s1"}

	dashboard, err := svc.Student(context.Background(), claims)
	require.NoError(t, err)
	require.Len(t, dashboard.Subjects, 2)
	require.NotNil(t, dashboard.Subjects[0].Grades)
	assert.Equal(t, 7.0, *dashboard.Subjects[0].Grades.Nota1)
	assert.Nil(t, dashboard.Subjects[1].Grades)
}

func TestTeacherDashboardMissingProfile(t *testing.T) {
	svc := NewDashboardService(&countingTeacherRepo{}, &countingStudentRepo{}, &fixedCounter{}, &dashboardSubjects{}, &dashboardManagers{}, &dashboardGrades{}, nil, 0, nil)
	claims := &models.JWTClaims{UserID: "u1", Role: models.RoleTeacher, ProfileID: "gone"}

	_, err := svc.Teacher(context.Background(), claims)
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)
}
