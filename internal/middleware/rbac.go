package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/edudiario/escola-api/internal/models"
	appErrors "github.com/edudiario/escola-api/pkg/errors"
	"github.com/edudiario/escola-api/pkg/response"
)

// Policy is a declarative access rule attached to a route. A request passes
// when its resolved role is listed, or when AllowSelf is set and the :id
// path parameter equals the caller's own profile id. SeniorManagersOnly
// narrows a RoleManager grant to director and vice director positions.
type Policy struct {
	Roles              []models.Role
	AllowSelf          bool
	SeniorManagersOnly bool
}

// Authorize enforces a route policy against the resolved claims.
func Authorize(policy Policy) gin.HandlerFunc {
	allowed := make(map[models.Role]struct{}, len(policy.Roles))
	for _, role := range policy.Roles {
		allowed[role] = struct{}{}
	}

	return func(c *gin.Context) {
		claims, ok := CurrentClaims(c)
		if !ok {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}

		if _, ok := allowed[claims.Role]; ok {
			if claims.Role == models.RoleManager && policy.SeniorManagersOnly && !claims.Position.Senior() {
				if !selfTarget(c, claims, policy) {
					response.Error(c, appErrors.ErrForbidden)
					c.Abort()
					return
				}
			}
			c.Next()
			return
		}

		if selfTarget(c, claims, policy) {
			c.Next()
			return
		}

		response.Error(c, appErrors.ErrForbidden)
		c.Abort()
	}
}

// RequireRoles is shorthand for a roles-only policy.
func RequireRoles(roles ...models.Role) gin.HandlerFunc {
	return Authorize(Policy{Roles: roles})
}

func selfTarget(c *gin.Context, claims *models.JWTClaims, policy Policy) bool {
	if !policy.AllowSelf {
		return false
	}
	targetID := c.Param("id")
	return targetID != "" && targetID == claims.ProfileID
}
