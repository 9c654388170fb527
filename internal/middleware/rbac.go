package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/compliance-case-api/internal/models"
	appErrors "github.com/noah-isme/compliance-case-api/pkg/errors"
	"github.com/noah-isme/compliance-case-api/pkg/response"
)

// RequireRoles only lets callers holding one of roles through.
func RequireRoles(roles ...models.UserRole) gin.HandlerFunc {
	allowed := make(map[models.UserRole]struct{}, len(roles))
	for _, r := range roles {
		allowed[r] = struct{}{}
	}
	return func(c *gin.Context) {
		claims := ClaimsFromContext(c)
		if claims == nil {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}
		if _, ok := allowed[claims.Role]; !ok {
			response.Error(c, appErrors.Clone(appErrors.ErrForbidden, "role not permitted"))
			c.Abort()
			return
		}
		c.Next()
	}
}

// SameOrganization rejects requests whose :param names an organization other than the caller's.
func SameOrganization(param string) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := ClaimsFromContext(c)
		if claims == nil {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}
		if c.Param(param) != claims.OrganizationID {
			response.Error(c, appErrors.Clone(appErrors.ErrForbidden, "organization belongs to another tenant"))
			c.Abort()
			return
		}
		c.Next()
	}
}
