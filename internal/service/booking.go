package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/samsalgado/DECENTMED-SERVER/internal/events"
	"github.com/samsalgado/DECENTMED-SERVER/internal/metrics"
	"github.com/samsalgado/DECENTMED-SERVER/internal/models"
	"github.com/samsalgado/DECENTMED-SERVER/internal/repository"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// BookSlotRequest is the payload for booking a slot.
type BookSlotRequest struct {
	ProviderID string `json:"providerId" validate:"required"`
	Date       string `json:"date" validate:"required"`
	Time       string `json:"time" validate:"required"`
}

// BookingRecorder counts claim outcomes.
type BookingRecorder interface {
	RecordBooking(outcome string)
}

// BookingService defines booking operations.
type BookingService interface {
	BookSlot(ctx context.Context, identity *Identity, req BookSlotRequest) (*models.Booking, error)
	ListForProvider(ctx context.Context, providerID string) ([]models.Booking, error)
	ListAll(ctx context.Context) ([]models.Booking, error)
}

type bookingService struct {
	bookings  repository.BookingRepository
	users     repository.UserRepository
	publisher events.Publisher
	recorder  BookingRecorder
}

// NewBookingService creates a new BookingService instance. publisher and
// recorder may be nil.
func NewBookingService(
	bookings repository.BookingRepository,
	users repository.UserRepository,
	publisher events.Publisher,
	recorder BookingRecorder,
) BookingService {
	if publisher == nil {
		publisher = events.Noop{}
	}
	return &bookingService{bookings: bookings, users: users, publisher: publisher, recorder: recorder}
}

// BookSlot claims the first open slot of the provider at the requested
// date and time for the caller.
func (s *bookingService) BookSlot(ctx context.Context, identity *Identity, req BookSlotRequest) (*models.Booking, error) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "booking.claim_slot")
	defer span.End()
	span.SetAttributes(
		attribute.String("provider.id", req.ProviderID),
		attribute.String("slot.date", req.Date),
		attribute.String("slot.time", req.Time),
	)

	if err := validateStruct(req); err != nil {
		return nil, err
	}

	user, err := s.users.FindByID(ctx, identity.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%w: user no longer exists", ErrUnauthorized)
		}
		return nil, err
	}

	booking := &models.Booking{
		ProviderID: req.ProviderID,
		UserID:     user.ID,
		UserName:   user.Name,
		UserEmail:  user.Email,
		Date:       req.Date,
		Time:       req.Time,
	}
	if err := s.bookings.Claim(ctx, booking); err != nil {
		span.SetStatus(codes.Error, err.Error())
		switch {
		case errors.Is(err, repository.ErrNotFound):
			s.record(metrics.OutcomeNotFound)
			return nil, fmt.Errorf("%w: provider %s", ErrNotFound, req.ProviderID)
		case errors.Is(err, repository.ErrNoOpenSlot):
			s.record(metrics.OutcomeUnavailable)
			return nil, fmt.Errorf("%w: %s %s", ErrSlotUnavailable, req.Date, req.Time)
		}
		s.record(metrics.OutcomeError)
		return nil, err
	}
	s.record(metrics.OutcomeBooked)

	s.publishCreated(ctx, booking)
	return booking, nil
}

func (s *bookingService) publishCreated(ctx context.Context, booking *models.Booking) {
	event := events.BookingCreatedEvent{
		BookingID:  booking.ID,
		ProviderID: booking.ProviderID,
		UserID:     booking.UserID,
		UserName:   booking.UserName,
		UserEmail:  booking.UserEmail,
		Date:       booking.Date,
		Time:       booking.Time,
		CreatedAt:  booking.CreatedAt,
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now().UTC()
	}
	if err := s.publisher.PublishJSON(ctx, events.BookingCreated, event); err != nil {
		slog.WarnContext(ctx, "failed to publish booking event", "booking_id", booking.ID, "error", err)
	}
}

func (s *bookingService) record(outcome string) {
	if s.recorder != nil {
		s.recorder.RecordBooking(outcome)
	}
}

func (s *bookingService) ListForProvider(ctx context.Context, providerID string) ([]models.Booking, error) {
	return s.bookings.ListByProvider(ctx, providerID)
}

func (s *bookingService) ListAll(ctx context.Context) ([]models.Booking, error) {
	return s.bookings.ListAll(ctx)
}
