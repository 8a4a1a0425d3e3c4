package service

import (
	"context"
	"fmt"
	"time"

	"github.com/samsalgado/DECENTMED-SERVER/internal/events"
)

// ContactRequest is a contact-form submission.
type ContactRequest struct {
	Name    string `json:"name" validate:"required,max=200"`
	Email   string `json:"email" validate:"required,email"`
	Message string `json:"message" validate:"required,max=5000"`
}

// ContactService forwards contact-form messages to the notifier.
type ContactService interface {
	Submit(ctx context.Context, req ContactRequest) error
}

type contactService struct {
	publisher events.Publisher
}

// NewContactService creates a new ContactService instance.
func NewContactService(publisher events.Publisher) ContactService {
	if publisher == nil {
		publisher = events.Noop{}
	}
	return &contactService{publisher: publisher}
}

func (s *contactService) Submit(ctx context.Context, req ContactRequest) error {
	req.Email = normalizeEmail(req.Email)
	if err := validateStruct(req); err != nil {
		return err
	}

	err := s.publisher.PublishJSON(ctx, events.ContactSubmitted, events.ContactSubmittedEvent{
		Name:        req.Name,
		Email:       req.Email,
		Message:     req.Message,
		SubmittedAt: time.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("%w: message queue: %v", ErrUpstreamUnavailable, err)
	}
	return nil
}
