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

type studentRepository interface {
	List(ctx context.Context, filter models.NameFilter) ([]models.StudentDetail, int, error)
	FindByID(ctx context.Context, id string) (*models.StudentDetail, error)
	ListByClassGroup(ctx context.Context, classGroupID string) ([]models.Student, error)
	CreateWithUser(ctx context.Context, user *models.User, student *models.Student) error
	UpdateWithUser(ctx context.Context, student *models.Student, passwordHash string) error
	DeleteWithUser(ctx context.Context, id string) error
}

type classGroupFinder interface {
	FindByID(ctx context.Context, id string) (*models.ClassGroup, error)
}

// StudentService manages student profiles and their login identities.
type StudentService struct {
	repo       studentRepository
	classGroup classGroupFinder
	validator  *validator.Validate
	logger     *zap.Logger
}

// NewStudentService constructs a StudentService instance.
func NewStudentService(repo studentRepository, classGroup classGroupFinder, validate *validator.Validate, logger *zap.Logger) *StudentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &StudentService{repo: repo, classGroup: classGroup, validator: validate, logger: logger}
}

// List returns students matching the filter, with their class group name.
func (s *StudentService) List(ctx context.Context, filter models.NameFilter) ([]models.StudentDetail, *models.Pagination, error) {
	filter = filter.Normalized()
	students, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list students")
	}
	return students, &models.Pagination{Page: filter.Page, PageSize: filter.PageSize, TotalCount: total}, nil
}

// GetByID returns a single student.
func (s *StudentService) GetByID(ctx context.Context, id string) (*models.StudentDetail, error) {
	student, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch student")
	}
	return student, nil
}

// Create registers a student and its user account in one transaction.
func (s *StudentService) Create(ctx context.Context, req models.CreateStudentRequest) (*models.Student, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid student payload")
	}

	if err := s.ensureClassGroup(ctx, req.ClassGroupID); err != nil {
		return nil, err
	}

	hash, err := hashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	user := &models.User{
		ID:           uuid.NewString(),
		Email:        strings.ToLower(strings.TrimSpace(req.Email)),
		PasswordHash: hash,
		Active:       true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	student := &models.Student{
		ID:           uuid.NewString(),
		UserID:       user.ID,
		FullName:     strings.TrimSpace(req.FullName),
		Age:          req.Age,
		ClassGroupID: req.ClassGroupID,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.repo.CreateWithUser(ctx, user, student); err != nil {
		return nil, appErrors.FromError(err)
	}

	s.logger.Info("student created", zap.String("student_id", student.ID))
	return student, nil
}

// Update changes a student profile including its class group assignment.
func (s *StudentService) Update(ctx context.Context, id string, req models.UpdateStudentRequest) (*models.StudentDetail, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid student payload")
	}

	student, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if student.ClassGroupID != req.ClassGroupID {
		if err := s.ensureClassGroup(ctx, req.ClassGroupID); err != nil {
			return nil, err
		}
	}

	student.FullName = strings.TrimSpace(req.FullName)
	student.Email = strings.ToLower(strings.TrimSpace(req.Email))
	student.Age = req.Age
	student.ClassGroupID = req.ClassGroupID
	student.UpdatedAt = time.Now().UTC()

	passwordHash := ""
	if req.Password != "" {
		if passwordHash, err = hashPassword(req.Password); err != nil {
			return nil, err
		}
	}

	if err := s.repo.UpdateWithUser(ctx, &student.Student, passwordHash); err != nil {
		return nil, appErrors.FromError(err)
	}

	return student, nil
}

// Delete removes a student, its user account and its grade records.
func (s *StudentService) Delete(ctx context.Context, id string) error {
	if _, err := s.GetByID(ctx, id); err != nil {
		return err
	}
	if err := s.repo.DeleteWithUser(ctx, id); err != nil {
		return appErrors.FromError(err)
	}
	s.logger.Info("student deleted", zap.String("student_id", id))
	return nil
}

func (s *StudentService) ensureClassGroup(ctx context.Context, id string) error {
	if _, err := s.classGroup.FindByID(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrValidation, "class group does not exist")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to verify class group")
	}
	return nil
}
