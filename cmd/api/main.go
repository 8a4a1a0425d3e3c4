// Package main is the entry point for the booking API server.
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

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"github.com/samsalgado/DECENTMED-SERVER/internal/config"
	"github.com/samsalgado/DECENTMED-SERVER/internal/database"
	"github.com/samsalgado/DECENTMED-SERVER/internal/events"
	"github.com/samsalgado/DECENTMED-SERVER/internal/handlers"
	"github.com/samsalgado/DECENTMED-SERVER/internal/metrics"
	"github.com/samsalgado/DECENTMED-SERVER/internal/repository"
	"github.com/samsalgado/DECENTMED-SERVER/internal/routes"
	"github.com/samsalgado/DECENTMED-SERVER/internal/service"
	"github.com/samsalgado/DECENTMED-SERVER/pkg/mq"
	"github.com/samsalgado/DECENTMED-SERVER/pkg/obs"
	pkgredis "github.com/samsalgado/DECENTMED-SERVER/pkg/redis"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/sync/errgroup"
)

const (
	serviceName     = "decentmed-api"
	version         = "1.0.0"
	shutdownTimeout = 15 * time.Second
)

// @title DecentMed Booking API
// @version 1.0
// @description Identity, payments, providers and slot booking for the DecentMed telehealth product
// @host localhost:5001
// @BasePath /api/v1
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.
func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	level := slog.LevelDebug
	if cfg.IsProduction() {
		level = slog.LevelInfo
		gin.SetMode(gin.ReleaseMode)
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("server stopped with error", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	shutdownTracer, err := obs.InitTracer(ctx, obs.TracerConfig{
		ServiceName: serviceName,
		Version:     version,
		Environment: cfg.Environment,
		Endpoint:    cfg.OTelEndpoint,
	})
	if err != nil {
		return err
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = shutdownTracer(flushCtx)
	}()

	// Persistence
	gateway := database.NewGateway(database.Postgres(cfg.DatabaseURL), database.DefaultOptions())
	db, err := gateway.Open(ctx)
	if err != nil {
		return err
	}
	defer gateway.Close()

	redisClient, err := pkgredis.NewClient(ctx, pkgredis.Options{
		Addr:        cfg.RedisAddr(),
		Password:    cfg.RedisPassword,
		DisableTLS:  !cfg.IsProduction(),
		DialTimeout: cfg.UpstreamTimeout,
		IOTimeout:   cfg.UpstreamTimeout,
	})
	if err != nil {
		return err
	}
	defer redisClient.Close()

	publisher, closePublisher := newPublisher(cfg, logger)
	defer closePublisher()

	userRepo := repository.NewUserRepository(db, cfg.DBTimeout)
	providerRepo := repository.NewProviderRepository(db, cfg.DBTimeout)
	bookingRepo := repository.NewBookingRepository(db, cfg.DBTimeout)
	paymentRepo := repository.NewPaymentRepository(db, cfg.DBTimeout)

	// Services
	jwtService, err := service.NewJWTService(cfg.JWTSecret, cfg.JWTAccessExpiry, cfg.JWTRefreshExpiry)
	if err != nil {
		return err
	}

	var google service.GoogleVerifier
	if cfg.GoogleClientID != "" {
		google, err = service.NewGoogleVerifier(ctx, cfg.GoogleJWKSURL, cfg.GoogleClientID)
		if err != nil {
			return err
		}
	} else {
		logger.Warn("GOOGLE_CLIENT_ID not set, Google sign-in disabled")
	}

	var gatewayImpl service.PaymentGateway = service.DisabledGateway{}
	if cfg.StripeSecretKey != "" {
		gatewayImpl = service.NewStripeGateway(cfg.StripeSecretKey, nil)
	} else {
		logger.Warn("STRIPE_SECRET_KEY not set, payment intents disabled")
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metricsCollector := metrics.New(reg, "decentmed")

	authService := service.NewAuthService(userRepo, jwtService, service.NewBcryptHasher(bcrypt.DefaultCost), google, redisClient)
	paymentService := service.NewPaymentService(paymentRepo, gatewayImpl,
		service.NewStripeWebhookVerifier(cfg.StripeWebhookSecret), cfg.DefaultCurrency, cfg.UpstreamTimeout)
	providerService := service.NewProviderService(providerRepo, cfg.SlotDuplicatePolicy == config.DuplicatePolicyReject)
	bookingService := service.NewBookingService(bookingRepo, userRepo, publisher, metricsCollector)
	contactService := service.NewContactService(publisher)

	// HTTP
	h := routes.Handlers{
		Auth:     handlers.NewAuthHandler(authService, handlers.NewCookieHelper(cfg.Cookies()), cfg.JWTRefreshExpiry),
		Payment:  handlers.NewPaymentHandler(paymentService),
		Provider: handlers.NewProviderHandler(providerService),
		Booking:  handlers.NewBookingHandler(bookingService),
		Contact:  handlers.NewContactHandler(contactService),
		Health: handlers.NewHealthHandler(cfg.DBTimeout,
			handlers.HealthCheck{Name: "database", Check: gateway.Ping},
			handlers.HealthCheck{Name: "redis", Check: redisPing(redisClient)},
		),
	}

	router := gin.New()
	routes.Setup(router, h, cfg, routes.Options{
		Verifier: authService,
		Metrics:  metricsCollector,
		Gatherer: reg,
		Logger:   logger,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("starting booking server", "port", cfg.Port, "environment", cfg.Environment)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		logger.Info("shutting down booking server")
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

func newPublisher(cfg *config.Config, logger *slog.Logger) (events.Publisher, func()) {
	if cfg.RabbitURL == "" {
		logger.Warn("RABBIT_URL not set, events are dropped")
		return events.Noop{}, func() {}
	}
	publisher, err := mq.NewPublisher(cfg.RabbitURL, cfg.EventsExchange, cfg.UpstreamTimeout)
	if err != nil {
		logger.Error("message broker unavailable, events are dropped", "error", err)
		return events.Noop{}, func() {}
	}
	return publisher, func() { _ = publisher.Close() }
}

func redisPing(client *redis.Client) func(context.Context) error {
	return func(ctx context.Context) error {
		return client.Ping(ctx).Err()
	}
}
