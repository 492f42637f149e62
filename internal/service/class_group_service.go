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

type classGroupRepository interface {
	List(ctx context.Context, filter models.NameFilter) ([]models.ClassGroup, int, error)
	FindByID(ctx context.Context, id string) (*models.ClassGroup, error)
	Create(ctx context.Context, group *models.ClassGroup) error
	Update(ctx context.Context, group *models.ClassGroup) error
	Delete(ctx context.Context, id string) error
}

// ClassGroupService manages class groups (turmas).
type ClassGroupService struct {
	repo      classGroupRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewClassGroupService constructs a ClassGroupService instance.
func NewClassGroupService(repo classGroupRepository, validate *validator.Validate, logger *zap.Logger) *ClassGroupService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &ClassGroupService{repo: repo, validator: validate, logger: logger}
}

// List returns class groups matching the filter.
func (s *ClassGroupService) List(ctx context.Context, filter models.NameFilter) ([]models.ClassGroup, *models.Pagination, error) {
	filter = filter.Normalized()
	groups, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list class groups")
	}
	return groups, &models.Pagination{Page: filter.Page, PageSize: filter.PageSize, TotalCount: total}, nil
}

// GetByID returns a single class group.
func (s *ClassGroupService) GetByID(ctx context.Context, id string) (*models.ClassGroup, error) {
	group, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "class group not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch class group")
	}
	return group, nil
}

// Create adds a new class group. Names are unique.
func (s *ClassGroupService) Create(ctx context.Context, req models.ClassGroupRequest) (*models.ClassGroup, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid class group payload")
	}

	now := time.Now().UTC()
	group := &models.ClassGroup{
		ID:        uuid.NewString(),
		Name:      strings.TrimSpace(req.Name),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.Create(ctx, group); err != nil {
		return nil, appErrors.FromError(err)
	}
	s.logger.Info("class group created", zap.String("class_group_id", group.ID))
	return group, nil
}

// Update renames a class group.
func (s *ClassGroupService) Update(ctx context.Context, id string, req models.ClassGroupRequest) (*models.ClassGroup, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid class group payload")
	}

	group, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	group.Name = strings.TrimSpace(req.Name)
	group.UpdatedAt = time.Now().UTC()
	if err := s.repo.Update(ctx, group); err != nil {
		return nil, appErrors.FromError(err)
	}
	return group, nil
}

// Delete removes a class group. Groups with students or subjects attached
// cannot be removed.
func (s *ClassGroupService) Delete(ctx context.Context, id string) error {
	if _, err := s.GetByID(ctx, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.FromError(err)
	}
	s.logger.Info("class group deleted", zap.String("class_group_id", id))
	return nil
}
