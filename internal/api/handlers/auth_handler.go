package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Wikid82/chimera/backend/internal/api/middleware"
	"github.com/Wikid82/chimera/backend/internal/services"
)

type AuthHandler struct {
	authService   *services.AuthService
	secureCookies bool
}

// NewAuthHandler returns the admin session handler. secureCookies marks the
// session cookie HTTPS-only and should be set outside development.
func NewAuthHandler(authService *services.AuthService, secureCookies bool) *AuthHandler {
	return &AuthHandler{authService: authService, secureCookies: secureCookies}
}

// setSecureCookie sets an HttpOnly, SameSite=Strict session cookie.
func (h *AuthHandler) setSecureCookie(c *gin.Context, value string, maxAge int) {
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(middleware.SessionCookie, value, maxAge, "/", "", h.secureCookies, true)
}

type TokenRequest struct {
	Token string `json:"token" binding:"required"`
}

// Token exchanges the admin token for a signed session token.
func (h *AuthHandler) Token(c *gin.Context) {
	var req TokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	token, err := h.authService.Login(req.Token)
	switch {
	case errors.Is(err, services.ErrAuthDisabled):
		c.JSON(http.StatusNotFound, gin.H{"error": "admin authentication is not configured"})
		return
	case errors.Is(err, services.ErrInvalidCredentials):
		middleware.GetRequestLogger(c).Warn("admin login failed")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		return
	case err != nil:
		middleware.GetRequestLogger(c).WithError(err).Error("failed to issue admin token")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to issue token"})
		return
	}

	h.setSecureCookie(c, token, int(h.authService.TTL().Seconds()))
	c.JSON(http.StatusOK, gin.H{"token": token})
}

// Logout clears the session cookie.
func (h *AuthHandler) Logout(c *gin.Context) {
	h.setSecureCookie(c, "", -1)
	c.JSON(http.StatusOK, gin.H{"message": "Logged out"})
}
