package handler

import (
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/edudiario/escola-api/internal/middleware"
	"github.com/edudiario/escola-api/internal/models"
	appErrors "github.com/edudiario/escola-api/pkg/errors"
	"github.com/edudiario/escola-api/pkg/response"
)

// nameFilterFromQuery reads the shared list criteria from the query string.
// "busca" is the name filter, "pagina"/"tamanho" drive paging.
func nameFilterFromQuery(c *gin.Context) models.NameFilter {
	filter := models.NameFilter{Query: strings.TrimSpace(c.Query("busca"))}
	if page, err := strconv.Atoi(c.DefaultQuery("pagina", "1")); err == nil {
		filter.Page = page
	}
	if size, err := strconv.Atoi(c.DefaultQuery("tamanho", "20")); err == nil {
		filter.PageSize = size
	}
	return filter.Normalized()
}

// mustClaims returns the resolved claims or writes a 401 and reports false.
func mustClaims(c *gin.Context) (*models.JWTClaims, bool) {
	claims, ok := middleware.CurrentClaims(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return nil, false
	}
	return claims, true
}
