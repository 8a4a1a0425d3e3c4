// Package main runs the notification worker that mails booking and contact
// events.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/samsalgado/DECENTMED-SERVER/internal/config"
	"github.com/samsalgado/DECENTMED-SERVER/internal/events"
	"github.com/samsalgado/DECENTMED-SERVER/internal/notifier"
	"github.com/samsalgado/DECENTMED-SERVER/pkg/mq"
	"golang.org/x/sync/errgroup"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg, err := config.LoadNotifier()
	if err != nil {
		logger.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("notifier stopped with error", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.NotifierConfig, logger *slog.Logger) error {
	mailer, err := notifier.NewSMTPMailer(cfg.SMTPAddr, cfg.MailFrom, cfg.SMTPUsername, cfg.SMTPPassword)
	if err != nil {
		return err
	}

	consumer, err := mq.NewConsumer(cfg.RabbitURL, cfg.EventsExchange, cfg.Queue,
		[]string{events.BookingCreated, events.ContactSubmitted}, cfg.Prefetch)
	if err != nil {
		return err
	}
	defer consumer.Close()

	deliveries, err := consumer.Deliveries(ctx, "decentmed-notifier")
	if err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	n := notifier.New(timeoutMailer{mailer, cfg.SendTimeout}, cfg.MailTo, notifier.NewMetrics(reg))

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: cfg.MetricsAddr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("notifier consuming", "queue", cfg.Queue, "exchange", cfg.EventsExchange)
		return n.Run(gctx, deliveries)
	})
	g.Go(func() error {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

// timeoutMailer bounds each send.
type timeoutMailer struct {
	notifier.Mailer
	timeout time.Duration
}

func (m timeoutMailer) Send(ctx context.Context, msg notifier.Message) error {
	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()
	return m.Mailer.Send(ctx, msg)
}
