package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/Wikid82/chimera/backend/internal/services"
)

const (
	RoleKey       = "role"
	SessionCookie = "auth_token"
)

// AdminAuth guards admin routes with a bearer session token. When no admin
// token hash is configured the guard lets every request through. The session
// cookie and a "token" query parameter are accepted as well, since browsers
// cannot set headers on websocket upgrades.
func AdminAuth(authService *services.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !authService.Enabled() {
			c.Set(RoleKey, "admin")
			c.Next()
			return
		}

		token := bearerToken(c.GetHeader("Authorization"))
		if token == "" {
			token, _ = c.Cookie(SessionCookie)
		}
		if token == "" {
			token = c.Query("token")
		}
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization header required"})
			return
		}

		claims, err := authService.Validate(token)
		if err != nil {
			GetRequestLogger(c).WithField("path", SanitizePath(c.Request.URL.Path)).Warn("rejected admin token")
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
			return
		}
		c.Set(RoleKey, claims.Role)
		c.Next()
	}
}

func bearerToken(header string) string {
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}
