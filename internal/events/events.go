// Package events defines the domain events the API emits for the notifier.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// Routing keys.
const (
	BookingCreated   = "booking.created"
	ContactSubmitted = "contact.submitted"
)

// Publisher sends a JSON-encoded event under a routing key.
type Publisher interface {
	PublishJSON(ctx context.Context, routingKey string, v any) error
}

// Noop drops every event. It is used when no broker is configured.
type Noop struct{}

// PublishJSON implements Publisher.
func (Noop) PublishJSON(context.Context, string, any) error { return nil }

// BookingCreatedEvent is emitted after a slot claim commits.
type BookingCreatedEvent struct {
	BookingID  string    `json:"booking_id"`
	ProviderID string    `json:"provider_id"`
	UserID     string    `json:"user_id"`
	UserName   string    `json:"user_name"`
	UserEmail  string    `json:"user_email"`
	Date       string    `json:"date"`
	Time       string    `json:"time"`
	CreatedAt  time.Time `json:"created_at"`
}

// ContactSubmittedEvent carries a contact-form message.
type ContactSubmittedEvent struct {
	Name        string    `json:"name"`
	Email       string    `json:"email"`
	Message     string    `json:"message"`
	SubmittedAt time.Time `json:"submitted_at"`
}

// Decode unmarshals an event body into T.
func Decode[T any](body []byte) (T, error) {
	var v T
	if err := json.Unmarshal(body, &v); err != nil {
		var zero T
		return zero, fmt.Errorf("failed to decode event: %w", err)
	}
	return v, nil
}
