// Package middleware provides HTTP middleware for the booking server.
package middleware

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"
)

// CSRFConfig holds configuration for CSRF protection middleware.
type CSRFConfig struct {
	// AllowedOrigins should match the origins of the browser front ends.
	AllowedOrigins []string
}

// CSRF returns middleware that validates Origin/Referer headers on
// state-changing requests that rely on the auth cookies. Requests carrying
// an Authorization header or no auth cookie pass through.
func CSRF(config CSRFConfig) gin.HandlerFunc {
	allowedSet := make(map[string]bool)
	for _, origin := range config.AllowedOrigins {
		allowedSet[normalizeOrigin(origin)] = true
	}

	return func(c *gin.Context) {
		method := c.Request.Method
		if method == http.MethodGet || method == http.MethodHead || method == http.MethodOptions {
			c.Next()
			return
		}
		if c.GetHeader("Authorization") != "" || !hasAuthCookie(c) {
			c.Next()
			return
		}

		if origin := c.GetHeader("Origin"); origin != "" {
			if !allowedSet[normalizeOrigin(origin)] {
				abortCSRF(c, "invalid origin")
				return
			}
			c.Next()
			return
		}

		if referer := c.GetHeader("Referer"); referer != "" {
			if !allowedSet[normalizeOrigin(extractOrigin(referer))] {
				abortCSRF(c, "invalid referer")
				return
			}
			c.Next()
			return
		}

		abortCSRF(c, "missing origin")
	}
}

func hasAuthCookie(c *gin.Context) bool {
	for _, name := range []string{AccessTokenCookie, RefreshTokenCookie} {
		if v, err := c.Cookie(name); err == nil && v != "" {
			return true
		}
	}
	return false
}

func abortCSRF(c *gin.Context, reason string) {
	c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
		"error":   "Forbidden",
		"message": "CSRF validation failed: " + reason,
	})
}

func normalizeOrigin(origin string) string {
	return strings.TrimSuffix(strings.ToLower(origin), "/")
}

// extractOrigin extracts scheme://host[:port] from a URL.
func extractOrigin(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return ""
	}
	return parsed.Scheme + "://" + parsed.Host
}
