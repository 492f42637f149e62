package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edudiario/escola-api/internal/models"
)

func newAuthorizeRouter(policy Policy, claims *models.JWTClaims) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/recurso/:id", func(c *gin.Context) {
		if claims != nil {
			c.Set(ContextUserKey, claims)
		}
		c.Next()
	}, Authorize(policy), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})
	return router
}

func perform(router *gin.Engine, path string) *httptest.ResponseRecorder {
	recorder := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	router.ServeHTTP(recorder, req)
	return recorder
}

func TestAuthorizeRejectsMissingClaims(t *testing.T) {
	router := newAuthorizeRouter(Policy{Roles: []models.Role{models.RoleAdmin}}, nil)

	recorder := perform(router, "/recurso/x1")
	assert.Equal(t, http.StatusUnauthorized, recorder.Code)

	var body map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &body))
	assert.Contains(t, body, "error")
}

func TestAuthorizeRoleMismatchIsForbidden(t *testing.T) {
	student := &models.JWTClaims{UserID: "u1", Role: models.RoleStudent, ProfileID: "s1"}
	router := newAuthorizeRouter(Policy{Roles: []models.Role{models.RoleAdmin}}, student)

	recorder := perform(router, "/recurso/x1")
	assert.Equal(t, http.StatusForbidden, recorder.Code)
}

func TestAuthorizeAllowsListedRole(t *testing.T) {
	manager := &models.JWTClaims{UserID: "u1", Role: models.RoleManager, ProfileID: "m1", Position: models.PositionOther}
	router := newAuthorizeRouter(Policy{Roles: []models.Role{models.RoleAdmin, models.RoleManager}}, manager)

	recorder := perform(router, "/recurso/x1")
	assert.Equal(t, http.StatusOK, recorder.Code)
}

func TestAuthorizeAllowSelfMatchesProfileID(t *testing.T) {
	manager := &models.JWTClaims{UserID: "u1", Role: models.RoleManager, ProfileID: "m1", Position: models.PositionOther}
	policy := Policy{Roles: []models.Role{models.RoleAdmin}, AllowSelf: true}

	router := newAuthorizeRouter(policy, manager)
	assert.Equal(t, http.StatusOK, perform(router, "/recurso/m1").Code)
	assert.Equal(t, http.StatusForbidden, perform(router, "/recurso/m2").Code)
}

func TestAuthorizeSeniorManagersOnly(t *testing.T) {
	policy := Policy{Roles: []models.Role{models.RoleAdmin, models.RoleManager}, SeniorManagersOnly: true}

	director := &models.JWTClaims{UserID: "u1", Role: models.RoleManager, ProfileID: "m1", Position: models.PositionDirector}
	assert.Equal(t, http.StatusOK, perform(newAuthorizeRouter(policy, director), "/recurso/x1").Code)

	vice := &models.JWTClaims{UserID: "u2", Role: models.RoleManager, ProfileID: "m2", Position: models.PositionViceDirector}
	assert.Equal(t, http.StatusOK, perform(newAuthorizeRouter(policy, vice), "/recurso/x1").Code)

	junior := &models.JWTClaims{UserID: "u3", Role: models.RoleManager, ProfileID: "m3", Position: models.PositionOther}
	assert.Equal(t, http.StatusForbidden, perform(newAuthorizeRouter(policy, junior), "/recurso/x1").Code)

	// Admins are never narrowed by the manager position rule.
	admin := &models.JWTClaims{UserID: "u4", Role: models.RoleAdmin}
	assert.Equal(t, http.StatusOK, perform(newAuthorizeRouter(policy, admin), "/recurso/x1").Code)
}

func TestAuthorizeSeniorOnlyStillAllowsSelf(t *testing.T) {
	policy := Policy{Roles: []models.Role{models.RoleAdmin, models.RoleManager}, AllowSelf: true, SeniorManagersOnly: true}

	junior := &models.JWTClaims{UserID: "u3", Role: models.RoleManager, ProfileID: "m3", Position: models.PositionOther}
	assert.Equal(t, http.StatusOK, perform(newAuthorizeRouter(policy, junior), "/recurso/m3").Code)
	assert.Equal(t, http.StatusForbidden, perform(newAuthorizeRouter(policy, junior), "/recurso/m9").Code)
}

func TestRequireRoles(t *testing.T) {
	teacher := &models.JWTClaims{UserID: "u1", Role: models.RoleTeacher, ProfileID: "t1"}

	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/painel/professor", func(c *gin.Context) {
		c.Set(ContextUserKey, teacher)
		c.Next()
	}, RequireRoles(models.RoleTeacher), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	assert.Equal(t, http.StatusOK, perform(router, "/painel/professor").Code)
}
