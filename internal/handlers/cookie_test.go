package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/samsalgado/DECENTMED-SERVER/internal/config"
	"github.com/samsalgado/DECENTMED-SERVER/internal/middleware"
)

func findCookie(cookies []*http.Cookie, name string) *http.Cookie {
	for _, cookie := range cookies {
		if cookie.Name == name {
			return cookie
		}
	}
	return nil
}

func TestSetAuthCookies(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name         string
		cookieConfig config.CookieConfig
		wantSecure   bool
		wantSameSite http.SameSite
		wantDomain   string // leading dot is stripped per RFC 6265
	}{
		{
			name:         "development config",
			cookieConfig: config.CookieConfig{Secure: false, SameSite: http.SameSiteLaxMode, Path: "/"},
			wantSecure:   false,
			wantSameSite: http.SameSiteLaxMode,
		},
		{
			name: "production config",
			cookieConfig: config.CookieConfig{
				Domain:   ".themerlingroupworld.com",
				Secure:   true,
				SameSite: http.SameSiteStrictMode,
				Path:     "/",
			},
			wantSecure:   true,
			wantSameSite: http.SameSiteStrictMode,
			wantDomain:   "themerlingroupworld.com",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)

			helper := NewCookieHelper(tt.cookieConfig)
			helper.SetAuthCookies(c, "access123", "refresh456", 15*time.Minute, 7*24*time.Hour)

			cookies := w.Result().Cookies()
			if len(cookies) != 2 {
				t.Fatalf("expected 2 cookies, got %d", len(cookies))
			}

			checks := []struct {
				name  string
				value string
				path  string
			}{
				{middleware.AccessTokenCookie, "access123", tt.cookieConfig.Path},
				{middleware.RefreshTokenCookie, "refresh456", RefreshTokenPath},
			}
			for _, want := range checks {
				cookie := findCookie(cookies, want.name)
				if cookie == nil {
					t.Fatalf("%s cookie not found", want.name)
				}
				if cookie.Value != want.value {
					t.Errorf("%s value = %s, want %s", want.name, cookie.Value, want.value)
				}
				if !cookie.HttpOnly {
					t.Errorf("%s should be HttpOnly", want.name)
				}
				if cookie.Secure != tt.wantSecure {
					t.Errorf("%s Secure = %v, want %v", want.name, cookie.Secure, tt.wantSecure)
				}
				if cookie.SameSite != tt.wantSameSite {
					t.Errorf("%s SameSite = %v, want %v", want.name, cookie.SameSite, tt.wantSameSite)
				}
				if cookie.Path != want.path {
					t.Errorf("%s Path = %s, want %s", want.name, cookie.Path, want.path)
				}
				if cookie.Domain != tt.wantDomain {
					t.Errorf("%s Domain = %s, want %s", want.name, cookie.Domain, tt.wantDomain)
				}
			}
		})
	}
}

func TestClearAuthCookies(t *testing.T) {
	gin.SetMode(gin.TestMode)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	helper := NewCookieHelper(config.CookieConfig{Path: "/"})
	helper.ClearAuthCookies(c)

	cookies := w.Result().Cookies()
	if len(cookies) != 2 {
		t.Fatalf("expected 2 cookies, got %d", len(cookies))
	}
	for _, cookie := range cookies {
		if cookie.MaxAge != -1 {
			t.Errorf("Cookie %s should have MaxAge=-1, got %d", cookie.Name, cookie.MaxAge)
		}
	}
}

func TestRefreshTokenFromCookie(t *testing.T) {
	gin.SetMode(gin.TestMode)
	helper := NewCookieHelper(config.CookieConfig{})

	tests := []struct {
		name   string
		cookie *http.Cookie
		want   string
	}{
		{"present", &http.Cookie{Name: middleware.RefreshTokenCookie, Value: "refresh_test"}, "refresh_test"},
		{"missing", nil, ""},
		{"access cookie only", &http.Cookie{Name: middleware.AccessTokenCookie, Value: "access"}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := gin.CreateTestContext(httptest.NewRecorder())
			c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.cookie != nil {
				c.Request.AddCookie(tt.cookie)
			}
			if got := helper.RefreshToken(c); got != tt.want {
				t.Errorf("RefreshToken() = %q, want %q", got, tt.want)
			}
		})
	}
}
