package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/edudiario/escola-api/internal/models"
	appErrors "github.com/edudiario/escola-api/pkg/errors"
)

type subjectRepository interface {
	List(ctx context.Context, filter models.NameFilter) ([]models.SubjectDetail, int, error)
	FindByID(ctx context.Context, id string) (*models.SubjectDetail, error)
	ListByTeacher(ctx context.Context, teacherID string) ([]models.SubjectDetail, error)
	Create(ctx context.Context, subject *models.Subject) error
	Update(ctx context.Context, subject *models.Subject) error
	Delete(ctx context.Context, id string) error
}

type teacherFinder interface {
	FindByID(ctx context.Context, id string) (*models.Teacher, error)
}

// SubjectService manages subjects and their teacher and class group links.
type SubjectService struct {
	repo       subjectRepository
	teachers   teacherFinder
	classGroup classGroupFinder
	validator  *validator.Validate
	logger     *zap.Logger
}

// NewSubjectService constructs a SubjectService instance.
func NewSubjectService(repo subjectRepository, teachers teacherFinder, classGroup classGroupFinder, validate *validator.Validate, logger *zap.Logger) *SubjectService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &SubjectService{repo: repo, teachers: teachers, classGroup: classGroup, validator: validate, logger: logger}
}

// List returns subjects with teacher and class group names. The query
// matches either the subject name or the class group name.
func (s *SubjectService) List(ctx context.Context, filter models.NameFilter) ([]models.SubjectDetail, *models.Pagination, error) {
	filter = filter.Normalized()
	subjects, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list subjects")
	}
	return subjects, &models.Pagination{Page: filter.Page, PageSize: filter.PageSize, TotalCount: total}, nil
}

// GetByID returns a single subject.
func (s *SubjectService) GetByID(ctx context.Context, id string) (*models.SubjectDetail, error) {
	subject, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "subject not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch subject")
	}
	return subject, nil
}

// ListByTeacher returns the subjects assigned to one teacher.
func (s *SubjectService) ListByTeacher(ctx context.Context, teacherID string) ([]models.SubjectDetail, error) {
	subjects, err := s.repo.ListByTeacher(ctx, teacherID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list teacher subjects")
	}
	return subjects, nil
}

// Create adds a subject. The (name, teacher, class group) triple is unique.
func (s *SubjectService) Create(ctx context.Context, req models.SubjectRequest) (*models.Subject, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid subject payload")
	}
	if err := s.ensureReferences(ctx, req); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	subject := &models.Subject{
		ID:           uuid.NewString(),
		Name:         strings.TrimSpace(req.Name),
		TeacherID:    req.TeacherID,
		ClassGroupID: req.ClassGroupID,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.repo.Create(ctx, subject); err != nil {
		return nil, appErrors.FromError(err)
	}
	s.logger.Info("subject created", zap.String("subject_id", subject.ID))
	return subject, nil
}

// Update changes a subject, possibly reassigning teacher or class group.
func (s *SubjectService) Update(ctx context.Context, id string, req models.SubjectRequest) (*models.Subject, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid subject payload")
	}

	detail, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.ensureReferences(ctx, req); err != nil {
		return nil, err
	}

	subject := detail.Subject
	subject.Name = strings.TrimSpace(req.Name)
	subject.TeacherID = req.TeacherID
	subject.ClassGroupID = req.ClassGroupID
	subject.UpdatedAt = time.Now().UTC()

	if err := s.repo.Update(ctx, &subject); err != nil {
		return nil, appErrors.FromError(err)
	}
	return &subject, nil
}

// Delete removes a subject and its grade records.
func (s *SubjectService) Delete(ctx context.Context, id string) error {
	if _, err := s.GetByID(ctx, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.FromError(err)
	}
	s.logger.Info("subject deleted", zap.String("subject_id", id))
	return nil
}

func (s *SubjectService) ensureReferences(ctx context.Context, req models.SubjectRequest) error {
	if _, err := s.teachers.FindByID(ctx, req.TeacherID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrValidation, "teacher does not exist")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to verify teacher")
	}
	if _, err := s.classGroup.FindByID(ctx, req.ClassGroupID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrValidation, "class group does not exist")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to verify class group")
	}
	return nil
}
