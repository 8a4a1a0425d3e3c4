package handlers

import (
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/samsalgado/DECENTMED-SERVER/internal/middleware"
	"github.com/samsalgado/DECENTMED-SERVER/internal/service"
)

// AuthHandler handles identity and session HTTP requests.
type AuthHandler struct {
	authService   service.AuthService
	cookies       *CookieHelper
	refreshExpiry time.Duration
}

// NewAuthHandler creates a new AuthHandler instance.
func NewAuthHandler(authService service.AuthService, cookies *CookieHelper, refreshExpiry time.Duration) *AuthHandler {
	return &AuthHandler{
		authService:   authService,
		cookies:       cookies,
		refreshExpiry: refreshExpiry,
	}
}

// GoogleRequest carries a Google ID token from the client.
type GoogleRequest struct {
	Credential string `json:"credential"`
}

// RefreshRequest represents the token refresh request payload.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// Signup godoc
// @Summary Register a user
// @Description Create a local account and return access and refresh tokens
// @Tags auth
// @Accept json
// @Produce json
// @Param request body service.SignupRequest true "Signup payload"
// @Success 201 {object} service.TokenResponse
// @Failure 400 {object} ErrorResponse
// @Router /auth/signup [post]
func (h *AuthHandler) Signup(c *gin.Context) {
	var req service.SignupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	response, err := h.authService.Register(c.Request.Context(), req)
	if err != nil {
		RespondServiceError(c, err)
		return
	}

	h.setSession(c, response)
	c.JSON(http.StatusCreated, response)
}

// Signin godoc
// @Summary Password sign-in
// @Tags auth
// @Accept json
// @Produce json
// @Param request body service.LoginRequest true "Credentials"
// @Success 200 {object} service.TokenResponse
// @Failure 400 {object} ErrorResponse
// @Router /auth/signin [post]
func (h *AuthHandler) Signin(c *gin.Context) {
	var req service.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	response, err := h.authService.Login(c.Request.Context(), req)
	if err != nil {
		RespondServiceError(c, err)
		return
	}

	h.setSession(c, response)
	c.JSON(http.StatusOK, response)
}

// Google godoc
// @Summary Google sign-in
// @Description Verify a Google ID token, creating the account on first use
// @Tags auth
// @Accept json
// @Produce json
// @Param request body GoogleRequest true "Google credential"
// @Success 200 {object} service.TokenResponse
// @Failure 400 {object} ErrorResponse
// @Router /auth/google [post]
func (h *AuthHandler) Google(c *gin.Context) {
	var req GoogleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	response, err := h.authService.GoogleLogin(c.Request.Context(), req.Credential)
	if err != nil {
		RespondServiceError(c, err)
		return
	}

	h.setSession(c, response)
	c.JSON(http.StatusOK, response)
}

// Refresh godoc
// @Summary Refresh access token
// @Description Rotate the session using the refresh token from the body or the refresh_token cookie
// @Tags auth
// @Accept json
// @Produce json
// @Param request body RefreshRequest false "Refresh token"
// @Success 200 {object} service.TokenResponse
// @Failure 401 {object} ErrorResponse
// @Router /auth/refresh [post]
func (h *AuthHandler) Refresh(c *gin.Context) {
	var req RefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		respondBindError(c, err)
		return
	}
	if req.RefreshToken == "" {
		req.RefreshToken = h.cookies.RefreshToken(c)
	}
	if req.RefreshToken == "" {
		RespondError(c, http.StatusUnauthorized, KindUnauthorized, "refresh token required")
		return
	}

	response, err := h.authService.RefreshToken(c.Request.Context(), req.RefreshToken)
	if err != nil {
		RespondServiceError(c, err)
		return
	}

	h.setSession(c, response)
	c.JSON(http.StatusOK, response)
}

// Logout godoc
// @Summary User logout
// @Description Revoke the refresh token and clear session cookies
// @Tags auth
// @Security BearerAuth
// @Success 200 {object} map[string]string
// @Failure 401 {object} ErrorResponse
// @Router /auth/logout [post]
func (h *AuthHandler) Logout(c *gin.Context) {
	if err := h.authService.Logout(c.Request.Context(), middleware.ExtractToken(c)); err != nil {
		RespondServiceError(c, err)
		return
	}

	h.cookies.ClearAuthCookies(c)
	c.JSON(http.StatusOK, gin.H{"message": "logged out successfully"})
}

// Me godoc
// @Summary Current user
// @Tags auth
// @Security BearerAuth
// @Produce json
// @Success 200 {object} models.User
// @Failure 401 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /me [get]
func (h *AuthHandler) Me(c *gin.Context) {
	caller, ok := identity(c)
	if !ok {
		return
	}

	user, err := h.authService.Profile(c.Request.Context(), caller)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

// ListUsers godoc
// @Summary List users
// @Tags admin
// @Security BearerAuth
// @Produce json
// @Success 200 {array} models.User
// @Failure 403 {object} ErrorResponse
// @Router /users [get]
func (h *AuthHandler) ListUsers(c *gin.Context) {
	users, err := h.authService.ListUsers(c.Request.Context())
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, users)
}

func (h *AuthHandler) setSession(c *gin.Context, response *service.TokenResponse) {
	accessExpiry := time.Duration(response.ExpiresIn) * time.Second
	h.cookies.SetAuthCookies(c, response.Token, response.RefreshToken, accessExpiry, h.refreshExpiry)
}
