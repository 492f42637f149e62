package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/edudiario/escola-api/internal/models"
	appErrors "github.com/edudiario/escola-api/pkg/errors"
)

type mockAuthRepo struct {
	userByEmail      *models.User
	findByEmailErr   error
	refreshTokens    map[string]*models.RefreshToken
	resetTokens      map[string]*models.PasswordResetToken
	revokedUsers     []string
	lastLoginUpdated bool
	newPasswordHash  string
	usedResetTokens  []string
}

func (m *mockAuthRepo) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	if m.findByEmailErr != nil {
		return nil, m.findByEmailErr
	}
	return m.userByEmail, nil
}

func (m *mockAuthRepo) FindByID(ctx context.Context, id string) (*models.User, error) {
	if m.userByEmail != nil && m.userByEmail.ID == id {
		return m.userByEmail, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockAuthRepo) UpdateLastLogin(ctx context.Context, id string, ts time.Time) error {
	m.lastLoginUpdated = true
	return nil
}

func (m *mockAuthRepo) UpdatePassword(ctx context.Context, id, passwordHash string, updatedAt time.Time) error {
	m.newPasswordHash = passwordHash
	return nil
}

func (m *mockAuthRepo) RevokeUserRefreshTokens(ctx context.Context, userID string) error {
	m.revokedUsers = append(m.revokedUsers, userID)
	return nil
}

func (m *mockAuthRepo) CreateRefreshToken(ctx context.Context, token *models.RefreshToken) error {
	if m.refreshTokens == nil {
		m.refreshTokens = make(map[string]*models.RefreshToken)
	}
	m.refreshTokens[token.Token] = token
	return nil
}

func (m *mockAuthRepo) FindRefreshToken(ctx context.Context, token string) (*models.RefreshToken, error) {
	if stored, ok := m.refreshTokens[token]; ok {
		return stored, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockAuthRepo) RevokeRefreshToken(ctx context.Context, id string, revokedAt time.Time) error {
	for _, stored := range m.refreshTokens {
		if stored.ID == id {
			stored.Revoked = true
		}
	}
	return nil
}

func (m *mockAuthRepo) CreatePasswordResetToken(ctx context.Context, token *models.PasswordResetToken) error {
	if m.resetTokens == nil {
		m.resetTokens = make(map[string]*models.PasswordResetToken)
	}
	m.resetTokens[token.TokenHash] = token
	return nil
}

func (m *mockAuthRepo) FindPasswordResetToken(ctx context.Context, tokenHash string) (*models.PasswordResetToken, error) {
	if stored, ok := m.resetTokens[tokenHash]; ok {
		return stored, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockAuthRepo) MarkPasswordResetTokenUsed(ctx context.Context, id string) error {
	m.usedResetTokens = append(m.usedResetTokens, id)
	for _, stored := range m.resetTokens {
		if stored.ID == id {
			stored.Used = true
		}
	}
	return nil
}

type mockTeacherFinder struct{ teacher *models.Teacher }

func (m *mockTeacherFinder) FindByUserID(ctx context.Context, userID string) (*models.Teacher, error) {
	if m.teacher == nil {
		return nil, sql.ErrNoRows
	}
	return m.teacher, nil
}

type mockStudentFinder struct{ student *models.StudentDetail }

func (m *mockStudentFinder) FindByUserID(ctx context.Context, userID string) (*models.StudentDetail, error) {
	if m.student == nil {
		return nil, sql.ErrNoRows
	}
	return m.student, nil
}

type mockManagerFinder struct{ manager *models.Manager }

func (m *mockManagerFinder) FindByUserID(ctx context.Context, userID string) (*models.Manager, error) {
	if m.manager == nil {
		return nil, sql.ErrNoRows
	}
	return m.manager, nil
}

func hashFor(t *testing.T, password string) string {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return string(hash)
}

func newTestAuthService(repo *mockAuthRepo, teachers *mockTeacherFinder, students *mockStudentFinder, managers *mockManagerFinder) *AuthService {
	if teachers == nil {
		teachers = &mockTeacherFinder{}
	}
	if students == nil {
		students = &mockStudentFinder{}
	}
	if managers == nil {
		managers = &mockManagerFinder{}
	}
	return NewAuthService(repo, teachers, students, managers, validator.New(), zap.NewNop(), AuthServiceConfig{
		AccessTokenSecret:  "test-secret",
		AccessTokenExpiry:  15 * time.Minute,
		RefreshTokenExpiry: 24 * time.Hour,
		ResetTokenTTL:      time.Hour,
		Issuer:             "escola-api-test",
	})
}

func TestLoginResolvesAdminBeforeProfiles(t *testing.T) {
	repo := &mockAuthRepo{userByEmail: &models.User{
		ID: "u1", Email: "dir@escola.br", PasswordHash: hashFor(t, "secret1"), IsAdmin: true, Active: true,
	}}
	// A profile also exists for the same user; the admin flag must win.
	teachers := &mockTeacherFinder{teacher: &models.Teacher{ID: "t1", UserID: "u1", FullName: "Admin Teacher"}}
	svc := newTestAuthService(repo, teachers, nil, nil)

	result, err := svc.Login(context.Background(), models.LoginRequest{Email: "dir@escola.br", Password: "secret1"})
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, result.User.Role)
	assert.Empty(t, result.User.ProfileID)
	assert.True(t, repo.lastLoginUpdated)

	claims, err := svc.ValidateToken(result.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, claims.Role)
	assert.Equal(t, "u1", claims.UserID)
}

func TestLoginResolvesTeacherBeforeStudent(t *testing.T) {
	repo := &mockAuthRepo{userByEmail: &models.User{
		ID: "u2", Email: "prof@escola.br", PasswordHash: hashFor(t, "secret1"), Active: true,
	}}
	teachers := &mockTeacherFinder{teacher: &models.Teacher{ID: "t9", UserID: "u2", FullName: "Carlos Lima"}}
	students := &mockStudentFinder{student: &models.StudentDetail{Student: models.Student{ID: "s9", UserID: "u2"}}}
	svc := newTestAuthService(repo, teachers, students, nil)

	result, err := svc.Login(context.Background(), models.LoginRequest{Email: "prof@escola.br", Password: "secret1"})
	require.NoError(t, err)
	assert.Equal(t, models.RoleTeacher, result.User.Role)
	assert.Equal(t, "t9", result.User.ProfileID)
	assert.Equal(t, "Carlos Lima", result.User.FullName)
}

func TestLoginManagerCarriesPositionInClaims(t *testing.T) {
	repo := &mockAuthRepo{userByEmail: &models.User{
		ID: "u3", Email: "gestor@escola.br", PasswordHash: hashFor(t, "secret1"), Active: true,
	}}
	managers := &mockManagerFinder{manager: &models.Manager{ID: "m1", UserID: "u3", FullName: "Dire Tora", Position: models.PositionDirector}}
	svc := newTestAuthService(repo, nil, nil, managers)

	result, err := svc.Login(context.Background(), models.LoginRequest{Email: "gestor@escola.br", Password: "secret1"})
	require.NoError(t, err)

	claims, err := svc.ValidateToken(result.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, models.RoleManager, claims.Role)
	assert.Equal(t, models.PositionDirector, claims.Position)
	assert.Equal(t, "m1", claims.ProfileID)
}

func TestLoginWithoutAnyProfileFails(t *testing.T) {
	repo := &mockAuthRepo{userByEmail: &models.User{
		ID: "u4", Email: "orfao@escola.br", PasswordHash: hashFor(t, "secret1"), Active: true,
	}}
	svc := newTestAuthService(repo, nil, nil, nil)

	_, err := svc.Login(context.Background(), models.LoginRequest{Email: "orfao@escola.br", Password: "secret1"})
	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrNoRole.Code, appErr.Code)
}

func TestLoginRejectsWrongPasswordAndInactive(t *testing.T) {
	repo := &mockAuthRepo{userByEmail: &models.User{
		ID: "u5", Email: "aluno@escola.br", PasswordHash: hashFor(t, "secret1"), Active: true,
	}}
	students := &mockStudentFinder{student: &models.StudentDetail{Student: models.Student{ID: "s1", UserID: "u5", FullName: "Joao"}}}
	svc := newTestAuthService(repo, nil, students, nil)

	_, err := svc.Login(context.Background(), models.LoginRequest{Email: "aluno@escola.br", Password: "wrong-1"})
	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrInvalidCredentials.Code, appErr.Code)

	repo.userByEmail.Active = false
	_, err = svc.Login(context.Background(), models.LoginRequest{Email: "aluno@escola.br", Password: "secret1"})
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrInactiveAccount.Code, appErr.Code)
}

func TestRefreshTokenRotates(t *testing.T) {
	repo := &mockAuthRepo{userByEmail: &models.User{
		ID: "u6", Email: "prof@escola.br", PasswordHash: hashFor(t, "secret1"), Active: true,
	}}
	teachers := &mockTeacherFinder{teacher: &models.Teacher{ID: "t1", UserID: "u6", FullName: "Carlos"}}
	svc := newTestAuthService(repo, teachers, nil, nil)

	login, err := svc.Login(context.Background(), models.LoginRequest{Email: "prof@escola.br", Password: "secret1"})
	require.NoError(t, err)

	refreshed, err := svc.RefreshToken(context.Background(), models.RefreshTokenRequest{RefreshToken: login.RefreshToken})
	require.NoError(t, err)
	assert.NotEqual(t, login.RefreshToken, refreshed.RefreshToken)
	assert.True(t, repo.refreshTokens[login.RefreshToken].Revoked)

	// The revoked token cannot be replayed.
	_, err = svc.RefreshToken(context.Background(), models.RefreshTokenRequest{RefreshToken: login.RefreshToken})
	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErr.Code)
}

func TestPasswordResetFlow(t *testing.T) {
	repo := &mockAuthRepo{userByEmail: &models.User{
		ID: "u7", Email: "ana@escola.br", PasswordHash: hashFor(t, "old-pass"), Active: true,
	}}
	svc := newTestAuthService(repo, &mockTeacherFinder{teacher: &models.Teacher{ID: "t1", UserID: "u7"}}, nil, nil)

	require.NoError(t, svc.ForgotPassword(context.Background(), models.ResetPasswordRequest{Email: "ana@escola.br"}))
	require.Len(t, repo.resetTokens, 1)

	var stored *models.PasswordResetToken
	for _, token := range repo.resetTokens {
		stored = token
	}
	// Only the digest is persisted, never the raw token.
	assert.Len(t, stored.TokenHash, 64)

	// An unknown token is rejected.
	err := svc.ResetPassword(context.Background(), models.ConfirmResetPasswordRequest{Token: "bogus", NewPassword: "new-pass"})
	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErr.Code)
	assert.Empty(t, repo.newPasswordHash)

	// A token whose raw value we know completes the flow.
	known := &models.PasswordResetToken{
		ID:        "reset-1",
		UserID:    "u7",
		TokenHash: hashResetToken("raw-token"),
		ExpiresAt: time.Now().Add(time.Hour),
	}
	repo.resetTokens[known.TokenHash] = known

	require.NoError(t, svc.ResetPassword(context.Background(), models.ConfirmResetPasswordRequest{Token: "raw-token", NewPassword: "new-pass"}))
	assert.NotEmpty(t, repo.newPasswordHash)
	assert.Contains(t, repo.usedResetTokens, "reset-1")
	assert.Contains(t, repo.revokedUsers, "u7")

	// One-time use: the consumed token is rejected afterwards.
	err = svc.ResetPassword(context.Background(), models.ConfirmResetPasswordRequest{Token: "raw-token", NewPassword: "other-pass"})
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErr.Code)
}

func TestForgotPasswordUnknownEmailSucceedsSilently(t *testing.T) {
	repo := &mockAuthRepo{findByEmailErr: sql.ErrNoRows}
	svc := newTestAuthService(repo, nil, nil, nil)

	require.NoError(t, svc.ForgotPassword(context.Background(), models.ResetPasswordRequest{Email: "ghost@escola.br"}))
	assert.Empty(t, repo.resetTokens)
}
