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

type managerRepository interface {
	List(ctx context.Context, filter models.NameFilter) ([]models.Manager, int, error)
	FindByID(ctx context.Context, id string) (*models.Manager, error)
	CreateWithUser(ctx context.Context, user *models.User, manager *models.Manager) error
	UpdateWithUser(ctx context.Context, manager *models.Manager, passwordHash string) error
	DeleteWithUser(ctx context.Context, id string) error
}

// ManagerService manages staff manager profiles. Mutations carry extra
// rules beyond the route policy: only admins and senior managers may create
// or delete managers, and a non-senior manager may only edit itself.
type ManagerService struct {
	repo      managerRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewManagerService constructs a ManagerService instance.
func NewManagerService(repo managerRepository, validate *validator.Validate, logger *zap.Logger) *ManagerService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &ManagerService{repo: repo, validator: validate, logger: logger}
}

// List returns managers matching the filter.
func (s *ManagerService) List(ctx context.Context, filter models.NameFilter) ([]models.Manager, *models.Pagination, error) {
	filter = filter.Normalized()
	managers, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list managers")
	}
	return managers, &models.Pagination{Page: filter.Page, PageSize: filter.PageSize, TotalCount: total}, nil
}

// GetByID returns a single manager.
func (s *ManagerService) GetByID(ctx context.Context, id string) (*models.Manager, error) {
	manager, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "manager not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch manager")
	}
	return manager, nil
}

// Create registers a manager and its user account in one transaction.
func (s *ManagerService) Create(ctx context.Context, claims *models.JWTClaims, req models.CreateManagerRequest) (*models.Manager, error) {
	if err := s.authorizeManagement(claims); err != nil {
		return nil, err
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid manager payload")
	}
	if !req.Position.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown manager position")
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
	manager := &models.Manager{
		ID:        uuid.NewString(),
		UserID:    user.ID,
		FullName:  strings.TrimSpace(req.FullName),
		Position:  req.Position,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.repo.CreateWithUser(ctx, user, manager); err != nil {
		return nil, appErrors.FromError(err)
	}

	s.logger.Info("manager created", zap.String("manager_id", manager.ID))
	return manager, nil
}

// Update changes a manager profile. Non-senior managers may only edit their
// own record and cannot promote their own position.
func (s *ManagerService) Update(ctx context.Context, claims *models.JWTClaims, id string, req models.UpdateManagerRequest) (*models.Manager, error) {
	if claims.Role != models.RoleAdmin && claims.ProfileID != id {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "managers may only edit their own record")
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid manager payload")
	}
	if !req.Position.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown manager position")
	}

	manager, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if claims.Role != models.RoleAdmin && req.Position != manager.Position && !claims.Position.Senior() {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only senior managers may change positions")
	}

	manager.FullName = strings.TrimSpace(req.FullName)
	manager.Email = strings.ToLower(strings.TrimSpace(req.Email))
	manager.Position = req.Position
	manager.UpdatedAt = time.Now().UTC()

	passwordHash := ""
	if req.Password != "" {
		if passwordHash, err = hashPassword(req.Password); err != nil {
			return nil, err
		}
	}

	if err := s.repo.UpdateWithUser(ctx, manager, passwordHash); err != nil {
		return nil, appErrors.FromError(err)
	}

	return manager, nil
}

// Delete removes a manager together with its user account.
func (s *ManagerService) Delete(ctx context.Context, claims *models.JWTClaims, id string) error {
	if err := s.authorizeManagement(claims); err != nil {
		return err
	}
	if claims.ProfileID == id {
		return appErrors.Clone(appErrors.ErrForbidden, "managers cannot delete themselves")
	}
	if _, err := s.GetByID(ctx, id); err != nil {
		return err
	}
	if err := s.repo.DeleteWithUser(ctx, id); err != nil {
		return appErrors.FromError(err)
	}
	s.logger.Info("manager deleted", zap.String("manager_id", id))
	return nil
}

func (s *ManagerService) authorizeManagement(claims *models.JWTClaims) error {
	if claims.Role == models.RoleAdmin {
		return nil
	}
	if claims.Role == models.RoleManager && claims.Position.Senior() {
		return nil
	}
	return appErrors.Clone(appErrors.ErrForbidden, "requires admin or senior manager")
}
