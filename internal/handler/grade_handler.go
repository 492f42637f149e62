package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/edudiario/escola-api/internal/models"
	"github.com/edudiario/escola-api/internal/service"
	appErrors "github.com/edudiario/escola-api/pkg/errors"
	"github.com/edudiario/escola-api/pkg/response"
)

// GradeHandler exposes the grade sheet endpoints for one subject.
type GradeHandler struct {
	grades *service.GradeService
}

// NewGradeHandler constructs GradeHandler.
func NewGradeHandler(grades *service.GradeService) *GradeHandler {
	return &GradeHandler{grades: grades}
}

// Sheet godoc
// @Summary Grade-entry view for a subject
// @Tags Notas
// @Produce json
// @Param disciplinaID path string true "Subject ID"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /lancar-nota/{disciplinaID} [get]
func (h *GradeHandler) Sheet(c *gin.Context) {
	claims, ok := mustClaims(c)
	if !ok {
		return
	}
	sheet, err := h.grades.Sheet(c.Request.Context(), claims, c.Param("disciplinaID"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, sheet, nil)
}

// Submit godoc
// @Summary Apply posted grades for a subject
// @Description Field keys follow nota<slot>_<studentID>. Blank fields leave
// @Description slots untouched; unparsable or out-of-range values are dropped.
// @Tags Notas
// @Accept json
// @Produce json
// @Param disciplinaID path string true "Subject ID"
// @Param payload body models.GradeSheetSubmission true "Posted grade fields"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /lancar-nota/{disciplinaID} [post]
func (h *GradeHandler) Submit(c *gin.Context) {
	claims, ok := mustClaims(c)
	if !ok {
		return
	}

	var submission models.GradeSheetSubmission
	if err := c.ShouldBindJSON(&submission); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}

	sheet, err := h.grades.Submit(c.Request.Context(), claims, c.Param("disciplinaID"), submission)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, "notas salvas com sucesso", sheet)
}

// Export godoc
// @Summary Export the grade sheet as PDF or CSV
// @Tags Notas
// @Produce application/pdf
// @Produce text/csv
// @Param disciplinaID path string true "Subject ID"
// @Param format query string false "pdf or csv" default(pdf)
// @Success 200 {file} binary
// @Security BearerAuth
// @Router /lancar-nota/{disciplinaID}/exportar [get]
func (h *GradeHandler) Export(c *gin.Context) {
	claims, ok := mustClaims(c)
	if !ok {
		return
	}

	format := c.DefaultQuery("format", "pdf")
	data, filename, contentType, err := h.grades.Export(c.Request.Context(), claims, c.Param("disciplinaID"), format)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(http.StatusOK, contentType, data)
}
