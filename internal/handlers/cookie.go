package handlers

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/samsalgado/DECENTMED-SERVER/internal/config"
	"github.com/samsalgado/DECENTMED-SERVER/internal/middleware"
)

// RefreshTokenPath limits the refresh cookie to the auth routes.
const RefreshTokenPath = "/api/v1/auth"

// CookieHelper manages authentication cookies for browser clients.
type CookieHelper struct {
	config config.CookieConfig
}

// NewCookieHelper creates a new cookie helper with the given configuration.
func NewCookieHelper(cfg config.CookieConfig) *CookieHelper {
	return &CookieHelper{config: cfg}
}

// SetAuthCookies sets both access and refresh token cookies.
func (h *CookieHelper) SetAuthCookies(c *gin.Context, accessToken, refreshToken string, accessExpiry, refreshExpiry time.Duration) {
	h.setCookie(c, middleware.AccessTokenCookie, accessToken, h.config.Path, int(accessExpiry.Seconds()))
	h.setCookie(c, middleware.RefreshTokenCookie, refreshToken, RefreshTokenPath, int(refreshExpiry.Seconds()))
}

// ClearAuthCookies removes both authentication cookies.
func (h *CookieHelper) ClearAuthCookies(c *gin.Context) {
	h.setCookie(c, middleware.AccessTokenCookie, "", h.config.Path, -1)
	h.setCookie(c, middleware.RefreshTokenCookie, "", RefreshTokenPath, -1)
}

// RefreshToken returns the refresh token cookie, or "".
func (h *CookieHelper) RefreshToken(c *gin.Context) string {
	token, err := c.Cookie(middleware.RefreshTokenCookie)
	if err != nil {
		return ""
	}
	return token
}

func (h *CookieHelper) setCookie(c *gin.Context, name, value, path string, maxAge int) {
	c.SetSameSite(h.config.SameSite)
	c.SetCookie(name, value, maxAge, path, h.config.Domain, h.config.Secure, true)
}
