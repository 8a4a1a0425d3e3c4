// Package notifier turns domain events into email.
package notifier

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/samsalgado/DECENTMED-SERVER/internal/events"
)

// ErrUndeliverable marks events that will never succeed on retry.
var ErrUndeliverable = errors.New("undeliverable event")

// Notifier renders events into messages and hands them to a Mailer.
type Notifier struct {
	mailer  Mailer
	opsTo   []string
	metrics *Metrics
}

// New creates a Notifier. Contact messages go to opsTo; booking
// confirmations go to the booking user with opsTo in copy.
func New(mailer Mailer, opsTo []string, metrics *Metrics) *Notifier {
	return &Notifier{mailer: mailer, opsTo: opsTo, metrics: metrics}
}

// Handle processes one event body.
func (n *Notifier) Handle(ctx context.Context, routingKey string, body []byte) error {
	msg, err := n.render(routingKey, body)
	if err != nil {
		return err
	}
	return n.mailer.Send(ctx, msg)
}

func (n *Notifier) render(routingKey string, body []byte) (Message, error) {
	switch routingKey {
	case events.BookingCreated:
		ev, err := events.Decode[events.BookingCreatedEvent](body)
		if err != nil {
			return Message{}, fmt.Errorf("%w: %v", ErrUndeliverable, err)
		}
		if ev.UserEmail == "" {
			return Message{}, fmt.Errorf("%w: booking %s has no user email", ErrUndeliverable, ev.BookingID)
		}
		to := append([]string{ev.UserEmail}, n.opsTo...)
		return Message{
			To:      to,
			Subject: fmt.Sprintf("Booking confirmed for %s at %s", ev.Date, ev.Time),
			Body: fmt.Sprintf("Hello %s,\n\nYour appointment on %s at %s is confirmed.\nBooking reference: %s\n",
				ev.UserName, ev.Date, ev.Time, ev.BookingID),
		}, nil

	case events.ContactSubmitted:
		ev, err := events.Decode[events.ContactSubmittedEvent](body)
		if err != nil {
			return Message{}, fmt.Errorf("%w: %v", ErrUndeliverable, err)
		}
		if strings.TrimSpace(ev.Message) == "" {
			return Message{}, fmt.Errorf("%w: empty contact message", ErrUndeliverable)
		}
		return Message{
			To:      n.opsTo,
			ReplyTo: ev.Email,
			Subject: "Contact form: " + ev.Name,
			Body:    fmt.Sprintf("From: %s <%s>\nAt: %s\n\n%s\n", ev.Name, ev.Email, ev.SubmittedAt.Format("2006-01-02 15:04 MST"), ev.Message),
		}, nil
	}
	return Message{}, fmt.Errorf("%w: unknown routing key %q", ErrUndeliverable, routingKey)
}

// Run consumes deliveries until ctx is done or the channel closes.
// Undeliverable events are acknowledged and dropped; other failures are
// requeued.
func (n *Notifier) Run(ctx context.Context, deliveries <-chan amqp.Delivery) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case d, ok := <-deliveries:
			if !ok {
				if ctx.Err() != nil {
					return nil
				}
				return errors.New("delivery channel closed")
			}
			n.dispatch(ctx, d)
		}
	}
}

func (n *Notifier) dispatch(ctx context.Context, d amqp.Delivery) {
	err := n.Handle(ctx, d.RoutingKey, d.Body)
	switch {
	case err == nil:
		n.metrics.observe(d.RoutingKey, ResultSent)
		_ = d.Ack(false)
	case errors.Is(err, ErrUndeliverable):
		n.metrics.observe(d.RoutingKey, ResultDropped)
		slog.WarnContext(ctx, "dropping event", "routing_key", d.RoutingKey, "error", err)
		_ = d.Ack(false)
	default:
		n.metrics.observe(d.RoutingKey, ResultRetried)
		slog.ErrorContext(ctx, "delivery failed, requeueing", "routing_key", d.RoutingKey, "error", err)
		_ = d.Nack(false, !d.Redelivered)
	}
}
