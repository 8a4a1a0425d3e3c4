package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/samsalgado/DECENTMED-SERVER/internal/config"
	"github.com/samsalgado/DECENTMED-SERVER/internal/handlers"
	"github.com/samsalgado/DECENTMED-SERVER/internal/metrics"
	"github.com/samsalgado/DECENTMED-SERVER/internal/models"
	"github.com/samsalgado/DECENTMED-SERVER/internal/repository"
	"github.com/samsalgado/DECENTMED-SERVER/internal/service"
	"github.com/samsalgado/DECENTMED-SERVER/internal/testutil"
	"golang.org/x/crypto/bcrypt"
)

const testSecret = "routes-test-secret-at-least-32-bytes"

type fakeGateway struct{}

func (fakeGateway) CreateIntent(_ context.Context, req service.IntentRequest) (string, error) {
	return "pi_test_secret_" + req.Currency, nil
}

type testServer struct {
	router *gin.Engine
	auth   service.AuthService
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := testutil.NewDB(t)
	mr := miniredis.RunT(t)
	redisClient := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = redisClient.Close() })

	cfg := &config.Config{AllowedOrigins: []string{"https://themerlingroupworld.com"}}

	users := repository.NewUserRepository(db, time.Second)
	jwtService, err := service.NewJWTService(testSecret, time.Hour, 24*time.Hour)
	if err != nil {
		t.Fatalf("NewJWTService() error = %v", err)
	}
	authService := service.NewAuthService(users, jwtService, service.NewBcryptHasher(bcrypt.MinCost), nil, redisClient)

	reg := prometheus.NewRegistry()
	m := metrics.New(reg, "test")

	h := Handlers{
		Auth: handlers.NewAuthHandler(authService, handlers.NewCookieHelper(cfg.Cookies()), 24*time.Hour),
		Payment: handlers.NewPaymentHandler(service.NewPaymentService(
			repository.NewPaymentRepository(db, time.Second), fakeGateway{},
			service.NewStripeWebhookVerifier(""), "usd", time.Second)),
		Provider: handlers.NewProviderHandler(service.NewProviderService(repository.NewProviderRepository(db, time.Second), true)),
		Booking: handlers.NewBookingHandler(service.NewBookingService(
			repository.NewBookingRepository(db, time.Second), users, nil, m)),
		Contact: handlers.NewContactHandler(service.NewContactService(nil)),
		Health: handlers.NewHealthHandler(time.Second, handlers.HealthCheck{
			Name:  "redis",
			Check: func(ctx context.Context) error { return redisClient.Ping(ctx).Err() },
		}),
	}

	router := gin.New()
	Setup(router, h, cfg, Options{
		Verifier: authService,
		Metrics:  m,
		Gatherer: reg,
		Logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	return &testServer{router: router, auth: authService}
}

func (s *testServer) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *testServer) signup(t *testing.T, name, email string) string {
	t.Helper()
	w := s.do(t, http.MethodPost, "/api/v1/auth/signup", "", map[string]string{
		"name": name, "email": email, "password": "password123",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("signup %s status = %d body = %s", email, w.Code, w.Body.String())
	}
	var resp service.TokenResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode signup: %v", err)
	}
	return resp.Token
}

func (s *testServer) admin(t *testing.T) string {
	t.Helper()
	s.signup(t, "Admin", "admin@example.com")
	if err := s.auth.GrantRole(context.Background(), "admin@example.com", models.RoleAdmin); err != nil {
		t.Fatalf("GrantRole() error = %v", err)
	}
	w := s.do(t, http.MethodPost, "/api/v1/auth/signin", "", map[string]string{
		"email": "admin@example.com", "password": "password123",
	})
	var resp service.TokenResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil || w.Code != http.StatusOK {
		t.Fatalf("admin signin = %d %s", w.Code, w.Body.String())
	}
	return resp.Token
}

func errorKind(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var resp handlers.ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode error body %q: %v", w.Body.String(), err)
	}
	return resp.Error
}

// =============================================================================
// Scenario Tests
// =============================================================================

func TestBookingScenario(t *testing.T) {
	s := newTestServer(t)
	adminToken := s.admin(t)
	u1 := s.signup(t, "User One", "u1@example.com")
	u2 := s.signup(t, "User Two", "u2@example.com")

	w := s.do(t, http.MethodPost, "/api/v1/providers", adminToken, map[string]string{
		"name": "Dr. A", "email": "dr.a@clinic.test", "specialization": "GP",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("create provider = %d %s", w.Code, w.Body.String())
	}
	var created struct {
		ID string `json:"id"`
	}
	_ = json.Unmarshal(w.Body.Bytes(), &created)

	w = s.do(t, http.MethodPost, "/api/v1/providers/"+created.ID+"/slots", adminToken, map[string]any{
		"slots": []map[string]string{{"date": "2025-09-01", "time": "10:00"}},
	})
	if w.Code != http.StatusOK {
		t.Fatalf("add slots = %d %s", w.Code, w.Body.String())
	}

	booking := map[string]string{"providerId": created.ID, "date": "2025-09-01", "time": "10:00"}
	if w = s.do(t, http.MethodPost, "/api/v1/bookings", u1, booking); w.Code != http.StatusCreated {
		t.Fatalf("first booking = %d %s", w.Code, w.Body.String())
	}

	w = s.do(t, http.MethodPost, "/api/v1/bookings", u2, booking)
	if w.Code != http.StatusBadRequest || errorKind(t, w) != handlers.KindSlot {
		t.Fatalf("second booking = %d %s", w.Code, w.Body.String())
	}

	w = s.do(t, http.MethodGet, "/api/v1/providers/"+created.ID+"/slots", "", nil)
	var slots []models.Slot
	if err := json.Unmarshal(w.Body.Bytes(), &slots); err != nil {
		t.Fatalf("decode slots: %v", err)
	}
	if len(slots) != 1 || !slots[0].Booked {
		t.Errorf("slots after booking = %+v", slots)
	}

	w = s.do(t, http.MethodGet, "/api/v1/bookings/"+created.ID, u1, nil)
	var bookings []models.Booking
	if err := json.Unmarshal(w.Body.Bytes(), &bookings); err != nil {
		t.Fatalf("decode bookings: %v", err)
	}
	if len(bookings) != 1 || bookings[0].UserEmail != "u1@example.com" {
		t.Errorf("bookings = %+v", bookings)
	}
}

func TestAdminGating(t *testing.T) {
	s := newTestServer(t)
	userToken := s.signup(t, "Ann", "ann@example.com")
	adminToken := s.admin(t)

	routes := []struct {
		method string
		path   string
		body   any
	}{
		{http.MethodGet, "/api/v1/users", nil},
		{http.MethodGet, "/api/v1/admin/bookings", nil},
		{http.MethodGet, "/api/v1/admin/providers", nil},
		{http.MethodGet, "/api/v1/admin/payments", nil},
		{http.MethodPost, "/api/v1/providers", map[string]string{"name": "Dr. B", "email": "b@clinic.test"}},
	}

	for _, rt := range routes {
		t.Run(rt.method+" "+rt.path, func(t *testing.T) {
			if w := s.do(t, rt.method, rt.path, "", rt.body); w.Code != http.StatusUnauthorized {
				t.Errorf("anonymous status = %d, want 401", w.Code)
			}
			if w := s.do(t, rt.method, rt.path, userToken, rt.body); w.Code != http.StatusForbidden {
				t.Errorf("user status = %d, want 403", w.Code)
			}
			if w := s.do(t, rt.method, rt.path, adminToken, rt.body); w.Code >= 400 {
				t.Errorf("admin status = %d: %s", w.Code, w.Body.String())
			}
		})
	}
}

func TestPaymentIntentRoute(t *testing.T) {
	s := newTestServer(t)
	token := s.signup(t, "Ann", "ann@example.com")

	tests := []struct {
		name       string
		amount     int64
		wantStatus int
	}{
		{"negative amount", -5, http.StatusBadRequest},
		{"valid amount", 2000, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := s.do(t, http.MethodPost, "/api/v1/payments/intent", token, map[string]int64{"amount": tt.amount})
			if w.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d (%s)", w.Code, tt.wantStatus, w.Body.String())
			}
			if tt.wantStatus == http.StatusOK {
				var resp service.CreateIntentResponse
				if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil || resp.ClientSecret == "" {
					t.Errorf("client secret missing: %s", w.Body.String())
				}
			}
		})
	}
}

func TestOpsRoutes(t *testing.T) {
	s := newTestServer(t)
	s.do(t, http.MethodGet, "/api/v1/providers", "", nil)

	if w := s.do(t, http.MethodGet, "/health", "", nil); w.Code != http.StatusOK {
		t.Errorf("/health = %d %s", w.Code, w.Body.String())
	}

	w := s.do(t, http.MethodGet, "/metrics", "", nil)
	if w.Code != http.StatusOK || !bytes.Contains(w.Body.Bytes(), []byte("test_http_requests_total")) {
		t.Errorf("/metrics = %d", w.Code)
	}

	if w := s.do(t, http.MethodGet, "/swagger/index.html", "", nil); w.Code != http.StatusNotFound {
		t.Errorf("swagger should be disabled without SWAGGER_HOST, got %d", w.Code)
	}
}

func TestContactWithoutBroker(t *testing.T) {
	s := newTestServer(t)
	w := s.do(t, http.MethodPost, "/api/v1/contact", "", map[string]string{
		"name": "Ann", "email": "ann@example.com", "message": "hello",
	})
	if w.Code != http.StatusAccepted {
		t.Errorf("contact = %d %s", w.Code, w.Body.String())
	}
}
