package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/samsalgado/DECENTMED-SERVER/internal/models"
	"github.com/samsalgado/DECENTMED-SERVER/internal/repository"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"gorm.io/datatypes"
)

// Stripe event types that settle a payment intent.
const (
	EventIntentSucceeded = "payment_intent.succeeded"
	EventIntentFailed    = "payment_intent.payment_failed"
)

// intentIDKeys are the payload fields clients use for the intent id.
var intentIDKeys = []string{"paymentIntentId", "payment_intent_id", "transactionId"}

// CreateIntentRequest is the payload for creating a payment intent.
type CreateIntentRequest struct {
	Amount   int64  `json:"amount"`
	Currency string `json:"currency,omitempty"`
}

// CreateIntentResponse carries the client secret for the browser SDK.
type CreateIntentResponse struct {
	ClientSecret string `json:"clientSecret"`
}

// UpdatePaymentStatusRequest is the admin approval payload.
type UpdatePaymentStatusRequest struct {
	Status string `json:"status" validate:"required,max=64"`
}

// PaymentService defines payment operations.
type PaymentService interface {
	CreateIntent(ctx context.Context, identity *Identity, req CreateIntentRequest) (*CreateIntentResponse, error)
	RecordPayment(ctx context.Context, identity *Identity, payload json.RawMessage) (string, error)
	HandleWebhook(ctx context.Context, payload []byte, signature string) error
	ListPayments(ctx context.Context) ([]models.Payment, error)
	UpdateStatus(ctx context.Context, id string, req UpdatePaymentStatusRequest) error
}

type paymentService struct {
	repo            repository.PaymentRepository
	gateway         PaymentGateway
	webhook         WebhookVerifier
	defaultCurrency string
	timeout         time.Duration
}

// NewPaymentService creates a new PaymentService instance. Calls to the
// gateway are bounded by timeout.
func NewPaymentService(
	repo repository.PaymentRepository,
	gateway PaymentGateway,
	webhook WebhookVerifier,
	defaultCurrency string,
	timeout time.Duration,
) PaymentService {
	if defaultCurrency == "" {
		defaultCurrency = "usd"
	}
	return &paymentService{
		repo:            repo,
		gateway:         gateway,
		webhook:         webhook,
		defaultCurrency: defaultCurrency,
		timeout:         timeout,
	}
}

func (s *paymentService) CreateIntent(ctx context.Context, identity *Identity, req CreateIntentRequest) (*CreateIntentResponse, error) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "payment.create_intent")
	defer span.End()

	if req.Amount <= 0 {
		return nil, fmt.Errorf("%w: amount must be a positive number of minor units", ErrValidation)
	}
	currency := strings.ToLower(strings.TrimSpace(req.Currency))
	if currency == "" {
		currency = s.defaultCurrency
	}
	if len(currency) != 3 {
		return nil, fmt.Errorf("%w: currency must be a 3-letter ISO code", ErrValidation)
	}
	span.SetAttributes(attribute.Int64("payment.amount", req.Amount), attribute.String("payment.currency", currency))

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	userID := ""
	if identity != nil {
		userID = identity.UserID
	}
	secret, err := s.gateway.CreateIntent(ctx, IntentRequest{
		Amount:         req.Amount,
		Currency:       currency,
		UserID:         userID,
		IdempotencyKey: uuid.NewString(),
	})
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		if errors.Is(err, ErrValidation) || errors.Is(err, ErrUpstreamUnavailable) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrUpstreamUnavailable, err)
	}
	return &CreateIntentResponse{ClientSecret: secret}, nil
}

// RecordPayment stores the client document as an unverified audit entry.
func (s *paymentService) RecordPayment(ctx context.Context, identity *Identity, payload json.RawMessage) (string, error) {
	var doc map[string]interface{}
	if err := json.Unmarshal(payload, &doc); err != nil || doc == nil {
		return "", fmt.Errorf("%w: payment must be a JSON object", ErrValidation)
	}

	payment := &models.Payment{
		ID:       uuid.NewString(),
		IntentID: extractIntentID(doc),
		Payload:  datatypes.JSON(payload),
		Status:   models.PaymentStatusUnverified,
	}
	if identity != nil {
		payment.UserID = identity.UserID
	}
	if err := s.repo.Create(ctx, payment); err != nil {
		return "", err
	}
	return payment.ID, nil
}

func extractIntentID(doc map[string]interface{}) string {
	for _, key := range intentIDKeys {
		if v, ok := doc[key].(string); ok && v != "" {
			return v
		}
	}
	return ""
}

// HandleWebhook settles payment records referenced by a verified event.
// Events that do not settle an intent are acknowledged and ignored.
func (s *paymentService) HandleWebhook(ctx context.Context, payload []byte, signature string) error {
	event, err := s.webhook.VerifyAndParse(payload, signature)
	if err != nil {
		return err
	}

	var status string
	switch event.Type {
	case EventIntentSucceeded:
		status = models.PaymentStatusSucceeded
	case EventIntentFailed:
		status = models.PaymentStatusFailed
	default:
		slog.DebugContext(ctx, "ignoring webhook event", "type", event.Type)
		return nil
	}
	if event.IntentID == "" {
		return nil
	}

	n, err := s.repo.MarkVerified(ctx, event.IntentID, status)
	if err != nil {
		return err
	}
	slog.InfoContext(ctx, "payment intent settled", "intent_id", event.IntentID, "status", status, "records", n)
	return nil
}

func (s *paymentService) ListPayments(ctx context.Context) ([]models.Payment, error) {
	return s.repo.List(ctx)
}

func (s *paymentService) UpdateStatus(ctx context.Context, id string, req UpdatePaymentStatusRequest) error {
	req.Status = strings.TrimSpace(req.Status)
	if err := validateStruct(req); err != nil {
		return err
	}
	err := s.repo.UpdateStatus(ctx, id, req.Status)
	if errors.Is(err, repository.ErrNotFound) {
		return fmt.Errorf("%w: payment %s", ErrNotFound, id)
	}
	return err
}
