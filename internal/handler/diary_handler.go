package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	appErrors "github.com/edudiario/escola-api/pkg/errors"
	"github.com/edudiario/escola-api/pkg/response"
)

// DiaryPage is a static informational page served without authentication,
// mirroring the public diary pages of the school site.
type DiaryPage struct {
	Slug    string `json:"slug"`
	Title   string `json:"title"`
	Content string `json:"content"`
}

// DiaryHandler serves the public informational diary pages.
type DiaryHandler struct {
	pages map[string]DiaryPage
}

// NewDiaryHandler constructs DiaryHandler with the fixed page set.
func NewDiaryHandler() *DiaryHandler {
	pages := []DiaryPage{
		{
			Slug:    "turmas",
			Title:   "Turmas",
			Content: "As turmas agrupam alunos por série. Cada aluno pertence a exatamente uma turma e acompanha as disciplinas oferecidas a ela.",
		},
		{
			Slug:    "disciplinas",
			Title:   "Disciplinas",
			Content: "Cada disciplina é ministrada por um professor para uma turma. As notas são lançadas em até quatro avaliações por disciplina.",
		},
	}
	index := make(map[string]DiaryPage, len(pages))
	for _, page := range pages {
		index[page.Slug] = page
	}
	return &DiaryHandler{pages: index}
}

// List godoc
// @Summary List the public diary pages
// @Tags Diario
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /diario [get]
func (h *DiaryHandler) List(c *gin.Context) {
	pages := make([]DiaryPage, 0, len(h.pages))
	for _, slug := range []string{"turmas", "disciplinas"} {
		pages = append(pages, h.pages[slug])
	}
	response.JSON(c, http.StatusOK, pages, nil)
}

// Page godoc
// @Summary Serve one public diary page
// @Tags Diario
// @Produce json
// @Param slug path string true "Page slug"
// @Success 200 {object} response.Envelope
// @Router /diario/{slug} [get]
func (h *DiaryHandler) Page(c *gin.Context) {
	page, ok := h.pages[c.Param("slug")]
	if !ok {
		response.Error(c, appErrors.Clone(appErrors.ErrNotFound, "page not found"))
		return
	}
	response.JSON(c, http.StatusOK, page, nil)
}
