package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/samsalgado/DECENTMED-SERVER/internal/config"
	"github.com/samsalgado/DECENTMED-SERVER/internal/middleware"
	"github.com/samsalgado/DECENTMED-SERVER/internal/models"
	"github.com/samsalgado/DECENTMED-SERVER/internal/service"
)

func newTestAuthHandler(svc *mockAuthService) *AuthHandler {
	cookies := NewCookieHelper(config.CookieConfig{Path: "/", SameSite: http.SameSiteLaxMode})
	return NewAuthHandler(svc, cookies, 168*time.Hour)
}

func tokenResponse() *service.TokenResponse {
	return &service.TokenResponse{
		Token:        "access-token",
		RefreshToken: "refresh-token",
		ExpiresIn:    3600,
		User:         &models.User{ID: "user-1", Name: "Ann", Email: "ann@example.com", Role: models.RoleUser},
	}
}

// =============================================================================
// Signup / Signin Tests
// =============================================================================

func TestSignup(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		serviceErr error
		wantStatus int
		wantKind   string
	}{
		{name: "created", body: `{"name":"Ann","email":"ann@example.com","password":"password123"}`, wantStatus: http.StatusCreated},
		{name: "duplicate email", body: `{"name":"Ann","email":"ann@example.com","password":"password123"}`, serviceErr: service.ErrConflict, wantStatus: http.StatusBadRequest, wantKind: KindConflict},
		{name: "validation", body: `{"email":"bad"}`, serviceErr: service.ErrValidation, wantStatus: http.StatusBadRequest, wantKind: KindValidation},
		{name: "malformed json", body: `{"name":`, wantStatus: http.StatusBadRequest, wantKind: KindValidation},
		{name: "session store down", body: `{"name":"Ann","email":"ann@example.com","password":"password123"}`, serviceErr: service.ErrUpstreamUnavailable, wantStatus: http.StatusServiceUnavailable, wantKind: KindUpstream},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got service.SignupRequest
			handler := newTestAuthHandler(&mockAuthService{
				registerFunc: func(_ context.Context, req service.SignupRequest) (*service.TokenResponse, error) {
					got = req
					if tt.serviceErr != nil {
						return nil, tt.serviceErr
					}
					return tokenResponse(), nil
				},
			})

			w := serve(t, handler.Signup, testRequest{body: tt.body})

			if w.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d (%s)", w.Code, tt.wantStatus, w.Body.String())
			}
			if tt.wantKind != "" {
				if resp := decodeError(t, w); resp.Error != tt.wantKind {
					t.Errorf("error kind = %s, want %s", resp.Error, tt.wantKind)
				}
				return
			}
			if got.Email != "ann@example.com" || got.Password != "password123" {
				t.Errorf("service received %+v", got)
			}
			var resp service.TokenResponse
			if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if resp.Token != "access-token" || resp.User == nil || resp.User.ID != "user-1" {
				t.Errorf("response = %+v", resp)
			}
			if findCookie(w.Result().Cookies(), middleware.AccessTokenCookie) == nil {
				t.Error("access_token cookie not set")
			}
		})
	}
}

func TestSignup_UpstreamMessageIsFixed(t *testing.T) {
	handler := newTestAuthHandler(&mockAuthService{
		registerFunc: func(context.Context, service.SignupRequest) (*service.TokenResponse, error) {
			return nil, errors.New("dial tcp 10.0.0.5:5432: connection refused")
		},
	})

	w := serve(t, handler.Signup, testRequest{body: `{"name":"Ann"}`})

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", w.Code)
	}
	resp := decodeError(t, w)
	if resp.Error != KindInternal || strings.Contains(resp.Message, "10.0.0.5") {
		t.Errorf("response leaks internals: %+v", resp)
	}
}

func TestSignin(t *testing.T) {
	tests := []struct {
		name       string
		serviceErr error
		wantStatus int
		wantKind   string
	}{
		{"success", nil, http.StatusOK, ""},
		{"wrong password", service.ErrInvalidCredentials, http.StatusBadRequest, KindCredential},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := newTestAuthHandler(&mockAuthService{
				loginFunc: func(_ context.Context, req service.LoginRequest) (*service.TokenResponse, error) {
					if req.Email != "ann@example.com" {
						t.Errorf("email = %s", req.Email)
					}
					if tt.serviceErr != nil {
						return nil, tt.serviceErr
					}
					return tokenResponse(), nil
				},
			})

			w := serve(t, handler.Signin, testRequest{body: `{"email":"ann@example.com","password":"pw"}`})

			if w.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", w.Code, tt.wantStatus)
			}
			if tt.wantKind != "" && decodeError(t, w).Error != tt.wantKind {
				t.Errorf("error kind = %s, want %s", decodeError(t, w).Error, tt.wantKind)
			}
		})
	}
}

func TestGoogle(t *testing.T) {
	handler := newTestAuthHandler(&mockAuthService{
		googleLoginFunc: func(_ context.Context, credential string) (*service.TokenResponse, error) {
			if credential != "id-token" {
				return nil, service.ErrInvalidCredentials
			}
			return tokenResponse(), nil
		},
	})

	if w := serve(t, handler.Google, testRequest{body: `{"credential":"id-token"}`}); w.Code != http.StatusOK {
		t.Errorf("valid credential status = %d, want 200", w.Code)
	}

	w := serve(t, handler.Google, testRequest{body: `{"credential":"forged"}`})
	if w.Code != http.StatusBadRequest || decodeError(t, w).Error != KindCredential {
		t.Errorf("forged credential = %d %s", w.Code, w.Body.String())
	}
}

// =============================================================================
// Session Tests
// =============================================================================

func TestRefresh(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		cookie     string
		wantToken  string
		wantStatus int
	}{
		{name: "body token", body: `{"refresh_token":"from-body"}`, wantToken: "from-body", wantStatus: http.StatusOK},
		{name: "cookie token", cookie: "from-cookie", wantToken: "from-cookie", wantStatus: http.StatusOK},
		{name: "body wins over cookie", body: `{"refresh_token":"from-body"}`, cookie: "from-cookie", wantToken: "from-body", wantStatus: http.StatusOK},
		{name: "missing token", wantStatus: http.StatusUnauthorized},
		{name: "rejected token", body: `{"refresh_token":"revoked"}`, wantToken: "revoked", wantStatus: http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var received string
			handler := newTestAuthHandler(&mockAuthService{
				refreshTokenFunc: func(_ context.Context, token string) (*service.TokenResponse, error) {
					received = token
					if token == "revoked" {
						return nil, service.ErrUnauthorized
					}
					return tokenResponse(), nil
				},
			})

			req := testRequest{body: tt.body}
			if tt.cookie != "" {
				req.cookies = []*http.Cookie{{Name: middleware.RefreshTokenCookie, Value: tt.cookie}}
			}
			w := serve(t, handler.Refresh, req)

			if w.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", w.Code, tt.wantStatus)
			}
			if received != tt.wantToken {
				t.Errorf("service received %q, want %q", received, tt.wantToken)
			}
		})
	}
}

func TestLogout(t *testing.T) {
	var revoked string
	handler := newTestAuthHandler(&mockAuthService{
		logoutFunc: func(_ context.Context, token string) error {
			revoked = token
			return nil
		},
	})

	w := serve(t, handler.Logout, testRequest{headers: map[string]string{"Authorization": "Bearer access-token"}})

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if revoked != "access-token" {
		t.Errorf("revoked token = %q", revoked)
	}
	for _, cookie := range w.Result().Cookies() {
		if cookie.MaxAge != -1 {
			t.Errorf("cookie %s not cleared", cookie.Name)
		}
	}
}

// =============================================================================
// Profile Tests
// =============================================================================

func TestMe(t *testing.T) {
	svc := &mockAuthService{
		profileFunc: func(_ context.Context, identity *service.Identity) (*models.User, error) {
			if identity.UserID == "gone" {
				return nil, service.ErrNotFound
			}
			return &models.User{ID: identity.UserID, Email: identity.Email}, nil
		},
	}
	handler := newTestAuthHandler(svc)

	tests := []struct {
		name       string
		caller     *service.Identity
		wantStatus int
	}{
		{"authenticated", testCaller, http.StatusOK},
		{"deleted user", &service.Identity{UserID: "gone"}, http.StatusNotFound},
		{"no caller", nil, http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := serve(t, handler.Me, testRequest{method: http.MethodGet, caller: tt.caller})
			if w.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", w.Code, tt.wantStatus)
			}
		})
	}
}

func TestListUsers(t *testing.T) {
	handler := newTestAuthHandler(&mockAuthService{
		listUsersFunc: func(context.Context) ([]models.User, error) {
			return []models.User{{ID: "u1"}, {ID: "u2"}}, nil
		},
	})

	w := serve(t, handler.ListUsers, testRequest{method: http.MethodGet})

	var users []models.User
	if err := json.Unmarshal(w.Body.Bytes(), &users); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if w.Code != http.StatusOK || len(users) != 2 {
		t.Errorf("status = %d, users = %d", w.Code, len(users))
	}
}
