package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/samsalgado/DECENTMED-SERVER/internal/middleware"
	"github.com/samsalgado/DECENTMED-SERVER/internal/models"
	"github.com/samsalgado/DECENTMED-SERVER/internal/service"
)

// =============================================================================
// Mock Implementations
// =============================================================================

type mockAuthService struct {
	registerFunc     func(ctx context.Context, req service.SignupRequest) (*service.TokenResponse, error)
	loginFunc        func(ctx context.Context, req service.LoginRequest) (*service.TokenResponse, error)
	googleLoginFunc  func(ctx context.Context, credential string) (*service.TokenResponse, error)
	refreshTokenFunc func(ctx context.Context, refreshToken string) (*service.TokenResponse, error)
	logoutFunc       func(ctx context.Context, token string) error
	verifyBearerFunc func(token string) (*service.Identity, error)
	profileFunc      func(ctx context.Context, identity *service.Identity) (*models.User, error)
	listUsersFunc    func(ctx context.Context) ([]models.User, error)
	grantRoleFunc    func(ctx context.Context, email, role string) error
}

func (m *mockAuthService) Register(ctx context.Context, req service.SignupRequest) (*service.TokenResponse, error) {
	if m.registerFunc != nil {
		return m.registerFunc(ctx, req)
	}
	return nil, errors.New("not implemented")
}

func (m *mockAuthService) Login(ctx context.Context, req service.LoginRequest) (*service.TokenResponse, error) {
	if m.loginFunc != nil {
		return m.loginFunc(ctx, req)
	}
	return nil, errors.New("not implemented")
}

func (m *mockAuthService) GoogleLogin(ctx context.Context, credential string) (*service.TokenResponse, error) {
	if m.googleLoginFunc != nil {
		return m.googleLoginFunc(ctx, credential)
	}
	return nil, errors.New("not implemented")
}

func (m *mockAuthService) RefreshToken(ctx context.Context, refreshToken string) (*service.TokenResponse, error) {
	if m.refreshTokenFunc != nil {
		return m.refreshTokenFunc(ctx, refreshToken)
	}
	return nil, errors.New("not implemented")
}

func (m *mockAuthService) Logout(ctx context.Context, token string) error {
	if m.logoutFunc != nil {
		return m.logoutFunc(ctx, token)
	}
	return errors.New("not implemented")
}

func (m *mockAuthService) VerifyBearer(token string) (*service.Identity, error) {
	if m.verifyBearerFunc != nil {
		return m.verifyBearerFunc(token)
	}
	return nil, errors.New("not implemented")
}

func (m *mockAuthService) Profile(ctx context.Context, identity *service.Identity) (*models.User, error) {
	if m.profileFunc != nil {
		return m.profileFunc(ctx, identity)
	}
	return nil, errors.New("not implemented")
}

func (m *mockAuthService) ListUsers(ctx context.Context) ([]models.User, error) {
	if m.listUsersFunc != nil {
		return m.listUsersFunc(ctx)
	}
	return nil, errors.New("not implemented")
}

func (m *mockAuthService) GrantRole(ctx context.Context, email, role string) error {
	if m.grantRoleFunc != nil {
		return m.grantRoleFunc(ctx, email, role)
	}
	return errors.New("not implemented")
}

type mockPaymentService struct {
	createIntentFunc  func(ctx context.Context, identity *service.Identity, req service.CreateIntentRequest) (*service.CreateIntentResponse, error)
	recordPaymentFunc func(ctx context.Context, identity *service.Identity, payload json.RawMessage) (string, error)
	handleWebhookFunc func(ctx context.Context, payload []byte, signature string) error
	listPaymentsFunc  func(ctx context.Context) ([]models.Payment, error)
	updateStatusFunc  func(ctx context.Context, id string, req service.UpdatePaymentStatusRequest) error
}

func (m *mockPaymentService) CreateIntent(ctx context.Context, identity *service.Identity, req service.CreateIntentRequest) (*service.CreateIntentResponse, error) {
	if m.createIntentFunc != nil {
		return m.createIntentFunc(ctx, identity, req)
	}
	return nil, errors.New("not implemented")
}

func (m *mockPaymentService) RecordPayment(ctx context.Context, identity *service.Identity, payload json.RawMessage) (string, error) {
	if m.recordPaymentFunc != nil {
		return m.recordPaymentFunc(ctx, identity, payload)
	}
	return "", errors.New("not implemented")
}

func (m *mockPaymentService) HandleWebhook(ctx context.Context, payload []byte, signature string) error {
	if m.handleWebhookFunc != nil {
		return m.handleWebhookFunc(ctx, payload, signature)
	}
	return errors.New("not implemented")
}

func (m *mockPaymentService) ListPayments(ctx context.Context) ([]models.Payment, error) {
	if m.listPaymentsFunc != nil {
		return m.listPaymentsFunc(ctx)
	}
	return nil, errors.New("not implemented")
}

func (m *mockPaymentService) UpdateStatus(ctx context.Context, id string, req service.UpdatePaymentStatusRequest) error {
	if m.updateStatusFunc != nil {
		return m.updateStatusFunc(ctx, id, req)
	}
	return errors.New("not implemented")
}

type mockProviderService struct {
	createProviderFunc func(ctx context.Context, req service.CreateProviderRequest) (*models.Provider, error)
	listProvidersFunc  func(ctx context.Context) ([]models.Provider, error)
	listSlotsFunc      func(ctx context.Context, providerID string) ([]models.Slot, error)
	addSlotsFunc       func(ctx context.Context, providerID string, req service.AddSlotsRequest) error
	replaceSlotsFunc   func(ctx context.Context, providerID string, req service.ReplaceSlotsRequest) error
}

func (m *mockProviderService) CreateProvider(ctx context.Context, req service.CreateProviderRequest) (*models.Provider, error) {
	if m.createProviderFunc != nil {
		return m.createProviderFunc(ctx, req)
	}
	return nil, errors.New("not implemented")
}

func (m *mockProviderService) ListProviders(ctx context.Context) ([]models.Provider, error) {
	if m.listProvidersFunc != nil {
		return m.listProvidersFunc(ctx)
	}
	return nil, errors.New("not implemented")
}

func (m *mockProviderService) ListSlots(ctx context.Context, providerID string) ([]models.Slot, error) {
	if m.listSlotsFunc != nil {
		return m.listSlotsFunc(ctx, providerID)
	}
	return nil, errors.New("not implemented")
}

func (m *mockProviderService) AddSlots(ctx context.Context, providerID string, req service.AddSlotsRequest) error {
	if m.addSlotsFunc != nil {
		return m.addSlotsFunc(ctx, providerID, req)
	}
	return errors.New("not implemented")
}

func (m *mockProviderService) ReplaceSlots(ctx context.Context, providerID string, req service.ReplaceSlotsRequest) error {
	if m.replaceSlotsFunc != nil {
		return m.replaceSlotsFunc(ctx, providerID, req)
	}
	return errors.New("not implemented")
}

type mockBookingService struct {
	bookSlotFunc        func(ctx context.Context, identity *service.Identity, req service.BookSlotRequest) (*models.Booking, error)
	listForProviderFunc func(ctx context.Context, providerID string) ([]models.Booking, error)
	listAllFunc         func(ctx context.Context) ([]models.Booking, error)
}

func (m *mockBookingService) BookSlot(ctx context.Context, identity *service.Identity, req service.BookSlotRequest) (*models.Booking, error) {
	if m.bookSlotFunc != nil {
		return m.bookSlotFunc(ctx, identity, req)
	}
	return nil, errors.New("not implemented")
}

func (m *mockBookingService) ListForProvider(ctx context.Context, providerID string) ([]models.Booking, error) {
	if m.listForProviderFunc != nil {
		return m.listForProviderFunc(ctx, providerID)
	}
	return nil, errors.New("not implemented")
}

func (m *mockBookingService) ListAll(ctx context.Context) ([]models.Booking, error) {
	if m.listAllFunc != nil {
		return m.listAllFunc(ctx)
	}
	return nil, errors.New("not implemented")
}

type mockContactService struct {
	submitFunc func(ctx context.Context, req service.ContactRequest) error
}

func (m *mockContactService) Submit(ctx context.Context, req service.ContactRequest) error {
	if m.submitFunc != nil {
		return m.submitFunc(ctx, req)
	}
	return errors.New("not implemented")
}

// =============================================================================
// Request Helpers
// =============================================================================

var testCaller = &service.Identity{UserID: "user-1", Email: "ann@example.com", Role: models.RoleUser}

type testRequest struct {
	method  string
	path    string
	body    string
	params  gin.Params
	caller  *service.Identity
	headers map[string]string
	cookies []*http.Cookie
}

// serve runs handler against a single request built from tr.
func serve(t *testing.T, handler gin.HandlerFunc, tr testRequest) *httptest.ResponseRecorder {
	t.Helper()
	gin.SetMode(gin.TestMode)

	if tr.method == "" {
		tr.method = http.MethodPost
	}
	if tr.path == "" {
		tr.path = "/"
	}

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	var body *bytes.Buffer
	if tr.body != "" {
		body = bytes.NewBufferString(tr.body)
	} else {
		body = &bytes.Buffer{}
	}
	c.Request = httptest.NewRequest(tr.method, tr.path, body)
	c.Request.Header.Set("Content-Type", "application/json")
	for k, v := range tr.headers {
		c.Request.Header.Set(k, v)
	}
	for _, cookie := range tr.cookies {
		c.Request.AddCookie(cookie)
	}
	c.Params = tr.params
	if tr.caller != nil {
		middleware.SetIdentity(c, tr.caller)
	}

	handler(c)
	return w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var resp ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode error body %q: %v", w.Body.String(), err)
	}
	return resp
}
