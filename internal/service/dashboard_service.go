package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/edudiario/escola-api/internal/models"
	appErrors "github.com/edudiario/escola-api/pkg/errors"
)

const dashboardCountsCacheKey = "dashboard:counts"

type entityCounter interface {
	Count(ctx context.Context) (int, error)
}

type dashboardTeacherRepo interface {
	entityCounter
	FindByID(ctx context.Context, id string) (*models.Teacher, error)
}

type dashboardStudentRepo interface {
	entityCounter
	FindByID(ctx context.Context, id string) (*models.StudentDetail, error)
}

type dashboardSubjectRepo interface {
	entityCounter
	ListByTeacher(ctx context.Context, teacherID string) ([]models.SubjectDetail, error)
	ListByClassGroup(ctx context.Context, classGroupID string) ([]models.SubjectDetail, error)
}

type dashboardManagerRepo interface {
	FindByID(ctx context.Context, id string) (*models.Manager, error)
}

type dashboardGradeRepo interface {
	ListByStudent(ctx context.Context, studentID string) (map[string]*models.GradeRecord, error)
}

// DashboardService assembles the per-role landing payloads. Entity counts
// for the admin and manager panels are cached with a short TTL.
type DashboardService struct {
	teachers    dashboardTeacherRepo
	students    dashboardStudentRepo
	classGroups entityCounter
	subjects    dashboardSubjectRepo
	managers    dashboardManagerRepo
	grades      dashboardGradeRepo
	cache       *CacheService
	cacheTTL    time.Duration
	logger      *zap.Logger
}

// NewDashboardService constructs a DashboardService instance.
func NewDashboardService(teachers dashboardTeacherRepo, students dashboardStudentRepo, classGroups entityCounter, subjects dashboardSubjectRepo, managers dashboardManagerRepo, grades dashboardGradeRepo, cache *CacheService, cacheTTL time.Duration, logger *zap.Logger) *DashboardService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cacheTTL <= 0 {
		cacheTTL = time.Minute
	}
	return &DashboardService{
		teachers:    teachers,
		students:    students,
		classGroups: classGroups,
		subjects:    subjects,
		managers:    managers,
		grades:      grades,
		cache:       cache,
		cacheTTL:    cacheTTL,
		logger:      logger,
	}
}

// Admin returns the administrator landing payload.
func (s *DashboardService) Admin(ctx context.Context, claims *models.JWTClaims) (*models.AdminDashboard, error) {
	counts, err := s.counts(ctx)
	if err != nil {
		return nil, err
	}
	return &models.AdminDashboard{
		User: models.UserInfo{
			ID:       claims.UserID,
			Email:    claims.Email,
			FullName: claims.FullName,
			Role:     claims.Role,
		},
		Counts: *counts,
	}, nil
}

// Manager returns the management landing payload.
func (s *DashboardService) Manager(ctx context.Context, claims *models.JWTClaims) (*models.ManagerDashboard, error) {
	manager, err := s.managers.FindByID(ctx, claims.ProfileID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "manager profile not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch manager profile")
	}
	counts, err := s.counts(ctx)
	if err != nil {
		return nil, err
	}
	return &models.ManagerDashboard{Manager: *manager, Counts: *counts}, nil
}

// Teacher returns the teacher landing payload with the taught subjects.
func (s *DashboardService) Teacher(ctx context.Context, claims *models.JWTClaims) (*models.TeacherDashboard, error) {
	teacher, err := s.teachers.FindByID(ctx, claims.ProfileID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "teacher profile not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch teacher profile")
	}
	subjects, err := s.subjects.ListByTeacher(ctx, teacher.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list teacher subjects")
	}
	return &models.TeacherDashboard{Teacher: *teacher, Subjects: subjects}, nil
}

// Student returns the student landing payload: the subjects of the
// student's class group together with the student's own grades.
func (s *DashboardService) Student(ctx context.Context, claims *models.JWTClaims) (*models.StudentDashboard, error) {
	student, err := s.students.FindByID(ctx, claims.ProfileID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student profile not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch student profile")
	}

	subjects, err := s.subjects.ListByClassGroup(ctx, student.ClassGroupID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list class subjects")
	}

	records, err := s.grades.ListByStudent(ctx, student.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student grades")
	}

	dashboard := &models.StudentDashboard{Student: *student, Subjects: make([]models.StudentSubjectGrades, 0, len(subjects))}
	for _, subject := range subjects {
		dashboard.Subjects = append(dashboard.Subjects, models.StudentSubjectGrades{
			Subject: subject,
			Grades:  records[subject.ID],
		})
	}
	return dashboard, nil
}

func (s *DashboardService) counts(ctx context.Context) (*models.DashboardCounts, error) {
	var counts models.DashboardCounts
	if hit, err := s.cache.Get(ctx, dashboardCountsCacheKey, &counts); err == nil && hit {
		return &counts, nil
	}

	var err error
	if counts.Teachers, err = s.teachers.Count(ctx); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count teachers")
	}
	if counts.Students, err = s.students.Count(ctx); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count students")
	}
	if counts.ClassGroups, err = s.classGroups.Count(ctx); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count class groups")
	}
	if counts.Subjects, err = s.subjects.Count(ctx); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count subjects")
	}

	if err := s.cache.Set(ctx, dashboardCountsCacheKey, counts, s.cacheTTL); err != nil {
		s.logger.Debug("dashboard counts not cached", zap.Error(err))
	}
	return &counts, nil
}
