package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/edudiario/escola-api/internal/models"
	"github.com/edudiario/escola-api/internal/service"
	appErrors "github.com/edudiario/escola-api/pkg/errors"
	"github.com/edudiario/escola-api/pkg/response"
)

// DashboardHandler exposes the per-role landing panels.
type DashboardHandler struct {
	dashboards *service.DashboardService
}

// NewDashboardHandler constructs DashboardHandler.
func NewDashboardHandler(dashboards *service.DashboardService) *DashboardHandler {
	return &DashboardHandler{dashboards: dashboards}
}

// Entry godoc
// @Summary Redirect target after login, based on the resolved role
// @Tags Painel
// @Produce json
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /painel [get]
func (h *DashboardHandler) Entry(c *gin.Context) {
	claims, ok := mustClaims(c)
	if !ok {
		return
	}

	var target string
	switch claims.Role {
	case models.RoleAdmin:
		target = "/painel/super"
	case models.RoleTeacher:
		target = "/painel/professor"
	case models.RoleStudent:
		target = "/painel/aluno"
	case models.RoleManager:
		target = "/painel/gestor"
	default:
		response.Error(c, appErrors.ErrNoRole)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"role": claims.Role, "painel": target}, nil)
}

// Admin godoc
// @Summary Administrator panel with entity counts
// @Tags Painel
// @Produce json
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /painel/super [get]
func (h *DashboardHandler) Admin(c *gin.Context) {
	claims, ok := mustClaims(c)
	if !ok {
		return
	}
	dashboard, err := h.dashboards.Admin(c.Request.Context(), claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, dashboard, nil)
}

// Teacher godoc
// @Summary Teacher panel with the taught subjects
// @Tags Painel
// @Produce json
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /painel/professor [get]
func (h *DashboardHandler) Teacher(c *gin.Context) {
	claims, ok := mustClaims(c)
	if !ok {
		return
	}
	dashboard, err := h.dashboards.Teacher(c.Request.Context(), claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, dashboard, nil)
}

// Student godoc
// @Summary Student panel with class subjects and own grades
// @Tags Painel
// @Produce json
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /painel/aluno [get]
func (h *DashboardHandler) Student(c *gin.Context) {
	claims, ok := mustClaims(c)
	if !ok {
		return
	}
	dashboard, err := h.dashboards.Student(c.Request.Context(), claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, dashboard, nil)
}

// Manager godoc
// @Summary Management panel with entity counts
// @Tags Painel
// @Produce json
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /painel/gestor [get]
func (h *DashboardHandler) Manager(c *gin.Context) {
	claims, ok := mustClaims(c)
	if !ok {
		return
	}
	dashboard, err := h.dashboards.Manager(c.Request.Context(), claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, dashboard, nil)
}
