package server

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/RodolfoParada/middleware-express/internal/i18n"
	"github.com/RodolfoParada/middleware-express/internal/middleware"
)

const (
	bearerPrefix = "Bearer "
	principalKey = "server.principal"
)

// Permissions.
const (
	PermissionRead  = "leer"
	PermissionWrite = "escribir"
	PermissionAdmin = "admin"
)

// Principal is the authenticated caller.
type Principal struct {
	ID     int    `json:"id"`
	Nombre string `json:"nombre"`
	Role   string `json:"role"`
}

// adminPrincipal is the only identity the demo token maps to.
var adminPrincipal = Principal{ID: 1, Nombre: "Admin", Role: "admin"}

// permissionsByUser lists the permissions granted to each principal ID.
var permissionsByUser = map[int][]string{
	adminPrincipal.ID: {PermissionRead, PermissionWrite, PermissionAdmin},
}

// RequireBearer rejects requests without "Authorization: Bearer <token>".
func RequireBearer(token string) gin.HandlerFunc {
	expected := []byte(token)

	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, bearerPrefix) {
			middleware.AbortWithMessage(c, http.StatusUnauthorized, i18n.AuthRequired)
			return
		}

		presented := []byte(strings.TrimPrefix(header, bearerPrefix))
		if subtle.ConstantTimeCompare(presented, expected) != 1 {
			middleware.AbortWithMessage(c, http.StatusUnauthorized, i18n.InvalidToken)
			return
		}

		c.Set(principalKey, adminPrincipal)
		c.Next()
	}
}

// RequirePermission rejects authenticated callers lacking permission.
func RequirePermission(permission string) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, ok := GetPrincipal(c)
		if !ok {
			middleware.AbortWithMessage(c, http.StatusUnauthorized, i18n.UnauthorizedUser)
			return
		}

		for _, granted := range permissionsByUser[p.ID] {
			if granted == permission {
				c.Next()
				return
			}
		}

		middleware.AbortWithMessage(c, http.StatusForbidden, i18n.InsufficientPermissions)
	}
}

// GetPrincipal returns the caller set by RequireBearer.
func GetPrincipal(c *gin.Context) (Principal, bool) {
	v, exists := c.Get(principalKey)
	if !exists {
		return Principal{}, false
	}
	p, ok := v.(Principal)
	return p, ok
}
