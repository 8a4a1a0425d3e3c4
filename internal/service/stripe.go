package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/client"
	"github.com/stripe/stripe-go/v79/webhook"
)

// IntentRequest describes a payment intent to create.
type IntentRequest struct {
	Amount         int64
	Currency       string
	UserID         string
	IdempotencyKey string
}

// PaymentGateway creates payment intents with the processor.
type PaymentGateway interface {
	CreateIntent(ctx context.Context, req IntentRequest) (clientSecret string, err error)
}

// WebhookEvent is the normalized subset of a processor event.
type WebhookEvent struct {
	Type     string
	IntentID string
}

// WebhookVerifier authenticates and parses processor webhook payloads.
type WebhookVerifier interface {
	VerifyAndParse(payload []byte, signature string) (*WebhookEvent, error)
}

// StripeGateway implements PaymentGateway on the Stripe API.
type StripeGateway struct {
	client *client.API
}

// NewStripeGateway creates a gateway using apiKey. backends may be nil to
// use Stripe's default endpoints.
func NewStripeGateway(apiKey string, backends *stripe.Backends) *StripeGateway {
	sc := &client.API{}
	sc.Init(apiKey, backends)
	return &StripeGateway{client: sc}
}

func (g *StripeGateway) CreateIntent(ctx context.Context, req IntentRequest) (string, error) {
	params := &stripe.PaymentIntentParams{
		Amount:             stripe.Int64(req.Amount),
		Currency:           stripe.String(req.Currency),
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
	}
	if req.UserID != "" {
		params.AddMetadata("user_id", req.UserID)
	}
	if req.IdempotencyKey != "" {
		params.IdempotencyKey = stripe.String(req.IdempotencyKey)
	}
	params.Context = ctx

	pi, err := g.client.PaymentIntents.New(params)
	if err != nil {
		return "", mapStripeError(err)
	}
	if pi.ClientSecret == "" {
		return "", fmt.Errorf("%w: processor returned no client secret", ErrUpstreamUnavailable)
	}
	return pi.ClientSecret, nil
}

// DisabledGateway rejects every intent. It stands in when no processor key
// is configured.
type DisabledGateway struct{}

func (DisabledGateway) CreateIntent(context.Context, IntentRequest) (string, error) {
	return "", fmt.Errorf("%w: payment processor not configured", ErrUpstreamUnavailable)
}

// mapStripeError keeps processor rejections (4xx) apart from outages.
func mapStripeError(err error) error {
	var stripeErr *stripe.Error
	if errors.As(err, &stripeErr) {
		if stripeErr.HTTPStatusCode >= http.StatusBadRequest && stripeErr.HTTPStatusCode < http.StatusInternalServerError {
			return fmt.Errorf("%w: %s", ErrValidation, stripeErr.Msg)
		}
		return fmt.Errorf("%w: processor status %d", ErrUpstreamUnavailable, stripeErr.HTTPStatusCode)
	}
	return fmt.Errorf("%w: %v", ErrUpstreamUnavailable, err)
}

// StripeWebhookVerifier checks Stripe-Signature headers.
type StripeWebhookVerifier struct {
	secret string
}

// NewStripeWebhookVerifier creates a verifier for the endpoint secret.
func NewStripeWebhookVerifier(secret string) *StripeWebhookVerifier {
	return &StripeWebhookVerifier{secret: secret}
}

func (v *StripeWebhookVerifier) VerifyAndParse(payload []byte, signature string) (*WebhookEvent, error) {
	if v.secret == "" {
		return nil, fmt.Errorf("%w: webhook secret not configured", ErrUnauthorized)
	}
	event, err := webhook.ConstructEventWithOptions(payload, signature, v.secret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: stripe signature invalid: %v", ErrUnauthorized, err)
	}

	out := &WebhookEvent{Type: string(event.Type)}
	if event.Data != nil && event.Data.Raw != nil {
		var obj struct {
			ID     string `json:"id"`
			Object string `json:"object"`
		}
		if err := json.Unmarshal(event.Data.Raw, &obj); err == nil && obj.Object == "payment_intent" {
			out.IntentID = obj.ID
		}
	}
	return out, nil
}
