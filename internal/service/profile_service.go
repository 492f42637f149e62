package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/edudiario/escola-api/internal/models"
	appErrors "github.com/edudiario/escola-api/pkg/errors"
)

type profileUserRepository interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
	UpdatePassword(ctx context.Context, id, passwordHash string, updatedAt time.Time) error
	RevokeUserRefreshTokens(ctx context.Context, userID string) error
}

type profileTeacherRepo interface {
	FindByID(ctx context.Context, id string) (*models.Teacher, error)
	UpdateWithUser(ctx context.Context, teacher *models.Teacher, passwordHash string) error
}

type profileStudentRepo interface {
	FindByID(ctx context.Context, id string) (*models.StudentDetail, error)
	UpdateWithUser(ctx context.Context, student *models.Student, passwordHash string) error
}

type profileManagerRepo interface {
	FindByID(ctx context.Context, id string) (*models.Manager, error)
	UpdateWithUser(ctx context.Context, manager *models.Manager, passwordHash string) error
}

// ProfileService implements self-service account operations. Every role may
// view its own profile, update its display data and change its password.
// Admin accounts have no role profile, so only the password operation
// applies to them.
type ProfileService struct {
	users     profileUserRepository
	teachers  profileTeacherRepo
	students  profileStudentRepo
	managers  profileManagerRepo
	validator *validator.Validate
	logger    *zap.Logger
}

// NewProfileService constructs a ProfileService instance.
func NewProfileService(users profileUserRepository, teachers profileTeacherRepo, students profileStudentRepo, managers profileManagerRepo, validate *validator.Validate, logger *zap.Logger) *ProfileService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &ProfileService{users: users, teachers: teachers, students: students, managers: managers, validator: validate, logger: logger}
}

// Get returns the caller's profile.
func (s *ProfileService) Get(ctx context.Context, claims *models.JWTClaims) (*models.Profile, error) {
	profile := &models.Profile{
		User: models.UserInfo{
			ID:        claims.UserID,
			Email:     claims.Email,
			FullName:  claims.FullName,
			Role:      claims.Role,
			ProfileID: claims.ProfileID,
		},
	}

	var err error
	switch claims.Role {
	case models.RoleTeacher:
		profile.Teacher, err = s.teachers.FindByID(ctx, claims.ProfileID)
	case models.RoleStudent:
		profile.Student, err = s.students.FindByID(ctx, claims.ProfileID)
	case models.RoleManager:
		profile.Manager, err = s.managers.FindByID(ctx, claims.ProfileID)
	case models.RoleAdmin:
		return profile, nil
	default:
		return nil, appErrors.Clone(appErrors.ErrNoRole, "")
	}
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "profile not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch profile")
	}
	return profile, nil
}

// Update changes the caller's own display name, email and optionally
// password. Admin accounts carry no editable profile.
func (s *ProfileService) Update(ctx context.Context, claims *models.JWTClaims, req models.UpdateProfileRequest) (*models.Profile, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid profile payload")
	}

	fullName := strings.TrimSpace(req.FullName)
	email := strings.ToLower(strings.TrimSpace(req.Email))
	now := time.Now().UTC()

	passwordHash := ""
	if req.Password != "" {
		var err error
		if passwordHash, err = hashPassword(req.Password); err != nil {
			return nil, err
		}
	}

	switch claims.Role {
	case models.RoleTeacher:
		teacher, err := s.teachers.FindByID(ctx, claims.ProfileID)
		if err != nil {
			return nil, s.profileLookupError(err)
		}
		teacher.FullName = fullName
		teacher.Email = email
		teacher.UpdatedAt = now
		if err := s.teachers.UpdateWithUser(ctx, teacher, passwordHash); err != nil {
			return nil, appErrors.FromError(err)
		}
	case models.RoleStudent:
		student, err := s.students.FindByID(ctx, claims.ProfileID)
		if err != nil {
			return nil, s.profileLookupError(err)
		}
		student.FullName = fullName
		student.Email = email
		student.UpdatedAt = now
		if err := s.students.UpdateWithUser(ctx, &student.Student, passwordHash); err != nil {
			return nil, appErrors.FromError(err)
		}
	case models.RoleManager:
		manager, err := s.managers.FindByID(ctx, claims.ProfileID)
		if err != nil {
			return nil, s.profileLookupError(err)
		}
		manager.FullName = fullName
		manager.Email = email
		manager.UpdatedAt = now
		if err := s.managers.UpdateWithUser(ctx, manager, passwordHash); err != nil {
			return nil, appErrors.FromError(err)
		}
	case models.RoleAdmin:
		return nil, appErrors.Clone(appErrors.ErrForbidden, "admin accounts have no editable profile")
	default:
		return nil, appErrors.Clone(appErrors.ErrNoRole, "")
	}

	if passwordHash != "" {
		if err := s.users.RevokeUserRefreshTokens(ctx, claims.UserID); err != nil {
			s.logger.Warn("failed to revoke sessions after password change", zap.Error(err))
		}
	}

	claims.FullName = fullName
	claims.Email = email
	return s.Get(ctx, claims)
}

// ChangePassword verifies the current password and sets a new one, revoking
// all refresh token sessions.
func (s *ProfileService) ChangePassword(ctx context.Context, claims *models.JWTClaims, req models.ChangePasswordRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid password payload")
	}

	user, err := s.users.FindByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "account not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch account")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.CurrentPassword)); err != nil {
		return appErrors.Clone(appErrors.ErrInvalidCredentials, "current password does not match")
	}

	hash, err := hashPassword(req.NewPassword)
	if err != nil {
		return err
	}
	if err := s.users.UpdatePassword(ctx, user.ID, hash, time.Now().UTC()); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update password")
	}
	if err := s.users.RevokeUserRefreshTokens(ctx, user.ID); err != nil {
		s.logger.Warn("failed to revoke sessions after password change", zap.Error(err))
	}
	return nil
}

func (s *ProfileService) profileLookupError(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return appErrors.Clone(appErrors.ErrNotFound, "profile not found")
	}
	return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch profile")
}
