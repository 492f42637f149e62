package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/edudiario/escola-api/internal/models"
	"github.com/edudiario/escola-api/internal/service"
	appErrors "github.com/edudiario/escola-api/pkg/errors"
	"github.com/edudiario/escola-api/pkg/response"
)

// ClassGroupHandler exposes class group (turma) endpoints.
type ClassGroupHandler struct {
	groups *service.ClassGroupService
}

// NewClassGroupHandler constructs ClassGroupHandler.
func NewClassGroupHandler(groups *service.ClassGroupService) *ClassGroupHandler {
	return &ClassGroupHandler{groups: groups}
}

// List godoc
// @Summary List class groups
// @Tags Turmas
// @Produce json
// @Param busca query string false "Filter by name"
// @Param pagina query int false "Page"
// @Param tamanho query int false "Page size"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /turmas [get]
func (h *ClassGroupHandler) List(c *gin.Context) {
	groups, pagination, err := h.groups.List(c.Request.Context(), nameFilterFromQuery(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, groups, pagination)
}

// Get godoc
// @Summary Get one class group
// @Tags Turmas
// @Produce json
// @Param id path string true "Class group ID"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /turmas/{id} [get]
func (h *ClassGroupHandler) Get(c *gin.Context) {
	group, err := h.groups.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, group, nil)
}

// Create godoc
// @Summary Create a class group
// @Tags Turmas
// @Accept json
// @Produce json
// @Param payload body models.ClassGroupRequest true "Class group payload"
// @Success 201 {object} response.Envelope
// @Security BearerAuth
// @Router /turmas [post]
func (h *ClassGroupHandler) Create(c *gin.Context) {
	var req models.ClassGroupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	group, err := h.groups.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, group)
}

// Update godoc
// @Summary Rename a class group
// @Tags Turmas
// @Accept json
// @Produce json
// @Param id path string true "Class group ID"
// @Param payload body models.ClassGroupRequest true "Class group payload"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /turmas/{id} [put]
func (h *ClassGroupHandler) Update(c *gin.Context) {
	var req models.ClassGroupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	group, err := h.groups.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, group, nil)
}

// Delete godoc
// @Summary Remove an empty class group
// @Tags Turmas
// @Produce json
// @Param id path string true "Class group ID"
// @Success 204
// @Security BearerAuth
// @Router /turmas/{id} [delete]
func (h *ClassGroupHandler) Delete(c *gin.Context) {
	if err := h.groups.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
