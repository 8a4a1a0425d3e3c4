package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/samsalgado/DECENTMED-SERVER/internal/service"
)

// Cookie names used for browser sessions.
const (
	AccessTokenCookie  = "access_token"
	RefreshTokenCookie = "refresh_token"
)

const identityKey = "identity"

// TokenVerifier resolves a bearer token to the caller.
type TokenVerifier interface {
	VerifyBearer(token string) (*service.Identity, error)
}

// RequireAuth rejects requests without a valid access token. The token is
// read from the Authorization header, then from the access_token cookie.
func RequireAuth(verifier TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := ExtractToken(c)
		if token == "" {
			abortJSON(c, http.StatusUnauthorized, "Unauthorized", "authentication required")
			return
		}

		identity, err := verifier.VerifyBearer(token)
		if err != nil {
			abortJSON(c, http.StatusUnauthorized, "Unauthorized", "invalid or expired token")
			return
		}

		SetIdentity(c, identity)
		c.Next()
	}
}

// RequireRole rejects authenticated callers whose role is not listed. It
// must run after RequireAuth.
func RequireRole(roles ...string) gin.HandlerFunc {
	allowed := make(map[string]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}

	return func(c *gin.Context) {
		identity, ok := IdentityFromContext(c)
		if !ok {
			abortJSON(c, http.StatusUnauthorized, "Unauthorized", "authentication required")
			return
		}
		if !allowed[identity.Role] {
			abortJSON(c, http.StatusForbidden, "Forbidden", "insufficient role")
			return
		}
		c.Next()
	}
}

// SetIdentity stores the authenticated caller on the request context.
func SetIdentity(c *gin.Context, identity *service.Identity) {
	c.Set(identityKey, identity)
}

// IdentityFromContext returns the caller set by RequireAuth.
func IdentityFromContext(c *gin.Context) (*service.Identity, bool) {
	v, ok := c.Get(identityKey)
	if !ok {
		return nil, false
	}
	identity, ok := v.(*service.Identity)
	return identity, ok && identity != nil
}

// ExtractToken returns the bearer token from the Authorization header or
// the access_token cookie.
func ExtractToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if header != "" {
		scheme, token, found := strings.Cut(header, " ")
		if found && strings.EqualFold(scheme, "Bearer") {
			return strings.TrimSpace(token)
		}
		return ""
	}
	if token, err := c.Cookie(AccessTokenCookie); err == nil {
		return token
	}
	return ""
}

func abortJSON(c *gin.Context, status int, kind, message string) {
	c.AbortWithStatusJSON(status, gin.H{"error": kind, "message": message})
}
