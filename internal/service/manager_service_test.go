package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edudiario/escola-api/internal/models"
	appErrors "github.com/edudiario/escola-api/pkg/errors"
)

type mockManagerRepo struct {
	managers map[string]*models.Manager
	deleted  []string
}

func (m *mockManagerRepo) List(ctx context.Context, filter models.NameFilter) ([]models.Manager, int, error) {
	out := make([]models.Manager, 0, len(m.managers))
	for _, manager := range m.managers {
		out = append(out, *manager)
	}
	return out, len(out), nil
}

func (m *mockManagerRepo) FindByID(ctx context.Context, id string) (*models.Manager, error) {
	if manager, ok := m.managers[id]; ok {
		clone := *manager
		return &clone, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockManagerRepo) CreateWithUser(ctx context.Context, user *models.User, manager *models.Manager) error {
	if m.managers == nil {
		m.managers = make(map[string]*models.Manager)
	}
	manager.Email = user.Email
	m.managers[manager.ID] = manager
	return nil
}

func (m *mockManagerRepo) UpdateWithUser(ctx context.Context, manager *models.Manager, passwordHash string) error {
	m.managers[manager.ID] = manager
	return nil
}

func (m *mockManagerRepo) DeleteWithUser(ctx context.Context, id string) error {
	m.deleted = append(m.deleted, id)
	delete(m.managers, id)
	return nil
}

func managerClaims(role models.Role, profileID string, position models.ManagerPosition) *models.JWTClaims {
	return &models.JWTClaims{UserID: "u-" + profileID, Role: role, ProfileID: profileID, Position: position}
}

func assertForbidden(t *testing.T, err error) {
	t.Helper()
	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrForbidden.Code, appErr.Code)
}

func TestManagerCreateRequiresSeniorRank(t *testing.T) {
	repo := &mockManagerRepo{}
	svc := NewManagerService(repo, nil, nil)
	req := models.CreateManagerRequest{
		FullName: "Nova Gestora",
		Email:    "nova@escola.br",
		Password: "secret1",
		Position: models.PositionOther,
	}

	_, err := svc.Create(context.Background(), managerClaims(models.RoleManager, "m9", models.PositionOther), req)
	assertForbidden(t, err)
	assert.Empty(t, repo.managers)

	created, err := svc.Create(context.Background(), managerClaims(models.RoleManager, "m1", models.PositionDirector), req)
	require.NoError(t, err)
	assert.Equal(t, models.PositionOther, created.Position)
	assert.Equal(t, "nova@escola.br", created.Email)
}

func TestManagerCreateRejectsUnknownPosition(t *testing.T) {
	svc := NewManagerService(&mockManagerRepo{}, nil, nil)

	_, err := svc.Create(context.Background(), managerClaims(models.RoleAdmin, "", ""), models.CreateManagerRequest{
		FullName: "Nova Gestora",
		Email:    "nova@escola.br",
		Password: "secret1",
		Position: "intern",
	})
	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
}

func TestManagerDeleteRules(t *testing.T) {
	repo := &mockManagerRepo{managers: map[string]*models.Manager{
		"m1": {ID: "m1", FullName: "Diretora", Position: models.PositionDirector},
		"m2": {ID: "m2", FullName: "Apoio", Position: models.PositionOther},
	}}
	svc := NewManagerService(repo, nil, nil)

	// Non-senior managers cannot delete anyone.
	assertForbidden(t, svc.Delete(context.Background(), managerClaims(models.RoleManager, "m2", models.PositionOther), "m1"))

	// Senior managers cannot delete themselves.
	assertForbidden(t, svc.Delete(context.Background(), managerClaims(models.RoleManager, "m1", models.PositionDirector), "m1"))

	require.NoError(t, svc.Delete(context.Background(), managerClaims(models.RoleManager, "m1", models.PositionDirector), "m2"))
	assert.Equal(t, []string{"m2"}, repo.deleted)
}

func TestManagerUpdateSelfOnlyForNonAdmins(t *testing.T) {
	repo := &mockManagerRepo{managers: map[string]*models.Manager{
		"m2": {ID: "m2", FullName: "Apoio", Email: "apoio@escola.br", Position: models.PositionOther},
	}}
	svc := NewManagerService(repo, nil, nil)
	req := models.UpdateManagerRequest{
		FullName: "Apoio Silva",
		Email:    "apoio@escola.br",
		Position: models.PositionOther,
	}

	_, err := svc.Update(context.Background(), managerClaims(models.RoleManager, "m3", models.PositionOther), "m2", req)
	assertForbidden(t, err)

	updated, err := svc.Update(context.Background(), managerClaims(models.RoleManager, "m2", models.PositionOther), "m2", req)
	require.NoError(t, err)
	assert.Equal(t, "Apoio Silva", updated.FullName)
}

func TestManagerUpdatePositionChangeNeedsSeniorRank(t *testing.T) {
	repo := &mockManagerRepo{managers: map[string]*models.Manager{
		"m2": {ID: "m2", FullName: "Apoio", Email: "apoio@escola.br", Position: models.PositionOther},
	}}
	svc := NewManagerService(repo, nil, nil)
	promotion := models.UpdateManagerRequest{
		FullName: "Apoio",
		Email:    "apoio@escola.br",
		Position: models.PositionViceDirector,
	}

	// A non-senior manager cannot promote itself.
	_, err := svc.Update(context.Background(), managerClaims(models.RoleManager, "m2", models.PositionOther), "m2", promotion)
	assertForbidden(t, err)

	// Admins can.
	updated, err := svc.Update(context.Background(), managerClaims(models.RoleAdmin, "", ""), "m2", promotion)
	require.NoError(t, err)
	assert.Equal(t, models.PositionViceDirector, updated.Position)
}
