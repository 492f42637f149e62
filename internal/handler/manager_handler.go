package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/edudiario/escola-api/internal/models"
	"github.com/edudiario/escola-api/internal/service"
	appErrors "github.com/edudiario/escola-api/pkg/errors"
	"github.com/edudiario/escola-api/pkg/response"
)

// ManagerHandler exposes management staff endpoints.
type ManagerHandler struct {
	managers *service.ManagerService
}

// NewManagerHandler constructs ManagerHandler.
func NewManagerHandler(managers *service.ManagerService) *ManagerHandler {
	return &ManagerHandler{managers: managers}
}

// List godoc
// @Summary List managers
// @Tags Gestores
// @Produce json
// @Param busca query string false "Filter by name"
// @Param pagina query int false "Page"
// @Param tamanho query int false "Page size"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /gestores [get]
func (h *ManagerHandler) List(c *gin.Context) {
	managers, pagination, err := h.managers.List(c.Request.Context(), nameFilterFromQuery(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, managers, pagination)
}

// Get godoc
// @Summary Get one manager
// @Tags Gestores
// @Produce json
// @Param id path string true "Manager ID"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /gestores/{id} [get]
func (h *ManagerHandler) Get(c *gin.Context) {
	manager, err := h.managers.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, manager, nil)
}

// Create godoc
// @Summary Register a manager with a login account
// @Tags Gestores
// @Accept json
// @Produce json
// @Param payload body models.CreateManagerRequest true "Manager payload"
// @Success 201 {object} response.Envelope
// @Security BearerAuth
// @Router /gestores [post]
func (h *ManagerHandler) Create(c *gin.Context) {
	claims, ok := mustClaims(c)
	if !ok {
		return
	}
	var req models.CreateManagerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	manager, err := h.managers.Create(c.Request.Context(), claims, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, manager)
}

// Update godoc
// @Summary Update a manager
// @Tags Gestores
// @Accept json
// @Produce json
// @Param id path string true "Manager ID"
// @Param payload body models.UpdateManagerRequest true "Manager payload"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /gestores/{id} [put]
func (h *ManagerHandler) Update(c *gin.Context) {
	claims, ok := mustClaims(c)
	if !ok {
		return
	}
	var req models.UpdateManagerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	manager, err := h.managers.Update(c.Request.Context(), claims, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, manager, nil)
}

// Delete godoc
// @Summary Remove a manager and its login account
// @Tags Gestores
// @Produce json
// @Param id path string true "Manager ID"
// @Success 204
// @Security BearerAuth
// @Router /gestores/{id} [delete]
func (h *ManagerHandler) Delete(c *gin.Context) {
	claims, ok := mustClaims(c)
	if !ok {
		return
	}
	if err := h.managers.Delete(c.Request.Context(), claims, c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
