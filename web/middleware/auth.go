// Package middleware provides the request guards of the identra API:
// session authentication, role checks and host validation.
package middleware

import (
	"net/http"

	"github.com/identra/identra/logger"
	"github.com/identra/identra/web/service"
	"github.com/identra/identra/web/session"

	"github.com/gin-gonic/gin"
)

const principalCtxKey = "principal"

// SessionAuth rejects requests without a valid session principal and
// revalidates the principal's security stamp against the store. A stale
// stamp means credentials changed after the cookie was issued; the session
// is cleared and the request rejected.
func SessionAuth() gin.HandlerFunc {
	userService := service.UserService{}

	return func(c *gin.Context) {
		p := session.GetPrincipal(c)
		if p == nil {
			unauthorized(c)
			return
		}

		stamp, err := userService.GetSecurityStamp(p.UserID)
		if err != nil || stamp != p.SecurityStamp {
			if err != nil && err != service.ErrUserNotFound {
				logger.Warning("security stamp check failed:", err)
			}
			if err := session.Clear(c); err != nil {
				logger.Warning("clear stale session:", err)
			}
			unauthorized(c)
			return
		}

		c.Set(principalCtxKey, p)
		c.Next()
	}
}

// RequireRole rejects authenticated requests whose principal carries none
// of the given roles.
func RequireRole(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		p := Principal(c)
		if p == nil {
			unauthorized(c)
			return
		}
		for _, role := range roles {
			if p.HasRole(role) {
				c.Next()
				return
			}
		}
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"message": "Access Denied"})
	}
}

// Principal returns the principal attached by SessionAuth, or nil.
func Principal(c *gin.Context) *session.Principal {
	obj, exists := c.Get(principalCtxKey)
	if !exists {
		return nil
	}
	p, _ := obj.(*session.Principal)
	return p
}

func unauthorized(c *gin.Context) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Unauthorized"})
}
