// Package mq wraps RabbitMQ topic exchanges.
package mq

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// ErrPublisherClosed is returned by PublishJSON after Close.
var ErrPublisherClosed = errors.New("publisher closed")

// channel is the subset of *amqp.Channel the publisher uses.
type channel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	IsClosed() bool
	Close() error
}

// dialer opens a channel with the exchange declared. The returned closer
// owns the underlying connection.
type dialer func() (channel, io.Closer, error)

// Publisher publishes JSON messages to a durable topic exchange. A channel
// or connection lost to a broker restart is reopened on the next publish.
type Publisher struct {
	dial     dialer
	exchange string
	timeout  time.Duration

	mu     sync.Mutex
	ch     channel
	conn   io.Closer
	closed bool
}

// NewPublisher dials url and declares exchange. Publishes are bounded by
// timeout when it is positive.
func NewPublisher(url, exchange string, timeout time.Duration) (*Publisher, error) {
	p := newPublisher(dialURL(url, exchange), exchange, timeout)
	if err := p.connect(); err != nil {
		return nil, err
	}
	return p, nil
}

func newPublisher(dial dialer, exchange string, timeout time.Duration) *Publisher {
	return &Publisher{dial: dial, exchange: exchange, timeout: timeout}
}

func dialURL(url, exchange string) dialer {
	return func() (channel, io.Closer, error) {
		conn, err := amqp.Dial(url)
		if err != nil {
			return nil, nil, fmt.Errorf("dial rabbitmq: %w", err)
		}
		ch, err := conn.Channel()
		if err != nil {
			_ = conn.Close()
			return nil, nil, fmt.Errorf("open channel: %w", err)
		}
		if err := declareExchange(ch, exchange); err != nil {
			_ = ch.Close()
			_ = conn.Close()
			return nil, nil, err
		}
		return ch, conn, nil
	}
}

// PublishJSON marshals v and publishes it under key. A publish that fails
// because the channel was closed is retried once on a fresh connection.
func (p *Publisher) PublishJSON(ctx context.Context, key string, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}
	msg := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now(),
		Body:         b,
	}

	// amqp channels are not safe for concurrent publishing.
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return ErrPublisherClosed
	}
	if p.ch == nil || p.ch.IsClosed() {
		if err := p.connect(); err != nil {
			return err
		}
	}

	err = p.ch.PublishWithContext(ctx, p.exchange, key, false, false, msg)
	if !errors.Is(err, amqp.ErrClosed) {
		return err
	}
	if err := p.connect(); err != nil {
		return err
	}
	return p.ch.PublishWithContext(ctx, p.exchange, key, false, false, msg)
}

// connect drops the current connection, if any, and dials a new one.
// Callers hold p.mu except during construction.
func (p *Publisher) connect() error {
	p.release()
	ch, conn, err := p.dial()
	if err != nil {
		return err
	}
	p.ch, p.conn = ch, conn
	return nil
}

func (p *Publisher) release() error {
	if p.ch != nil {
		_ = p.ch.Close()
		p.ch = nil
	}
	var err error
	if p.conn != nil {
		err = p.conn.Close()
		p.conn = nil
	}
	return err
}

// Close closes the channel and the connection.
func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	return p.release()
}

func declareExchange(ch *amqp.Channel, exchange string) error {
	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare exchange: %w", err)
	}
	return nil
}
