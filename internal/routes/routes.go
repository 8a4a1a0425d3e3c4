// Package routes defines HTTP routes for the booking server.
package routes

import (
	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/samsalgado/DECENTMED-SERVER/docs"
	"github.com/samsalgado/DECENTMED-SERVER/internal/config"
	"github.com/samsalgado/DECENTMED-SERVER/internal/handlers"
	"github.com/samsalgado/DECENTMED-SERVER/internal/metrics"
	"github.com/samsalgado/DECENTMED-SERVER/internal/middleware"
	"github.com/samsalgado/DECENTMED-SERVER/internal/models"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// Handlers groups every HTTP handler mounted by Setup.
type Handlers struct {
	Auth     *handlers.AuthHandler
	Payment  *handlers.PaymentHandler
	Provider *handlers.ProviderHandler
	Booking  *handlers.BookingHandler
	Contact  *handlers.ContactHandler
	Health   *handlers.HealthHandler
}

// Options carries the cross-cutting dependencies of the router.
type Options struct {
	Verifier middleware.TokenVerifier
	Metrics  *metrics.Metrics
	Gatherer prometheus.Gatherer
	Logger   *slog.Logger
}

// Setup configures middleware and all HTTP routes for the application.
func Setup(router *gin.Engine, h Handlers, cfg *config.Config, opts Options) {
	router.Use(gin.Recovery(), middleware.RequestID(), middleware.Logger(opts.Logger))
	if opts.Metrics != nil {
		router.Use(opts.Metrics.Middleware())
	}
	router.Use(middleware.CSRF(middleware.CSRFConfig{AllowedOrigins: cfg.AllowedOrigins}))

	router.GET("/health", h.Health.Check)
	if opts.Gatherer != nil {
		router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(opts.Gatherer, promhttp.HandlerOpts{})))
	}

	authenticated := middleware.RequireAuth(opts.Verifier)
	adminOnly := middleware.RequireRole(models.RoleAdmin)

	v1 := router.Group("/api/v1")
	{
		auth := v1.Group("/auth")
		auth.POST("/signup", h.Auth.Signup)
		auth.POST("/signin", h.Auth.Signin)
		auth.POST("/google", h.Auth.Google)
		auth.POST("/refresh", h.Auth.Refresh)
		auth.POST("/logout", authenticated, h.Auth.Logout)

		v1.GET("/me", authenticated, h.Auth.Me)
		v1.GET("/users", authenticated, adminOnly, h.Auth.ListUsers)

		payments := v1.Group("/payments")
		payments.POST("/webhook", h.Payment.Webhook)
		payments.POST("/intent", authenticated, h.Payment.CreateIntent)
		payments.POST("", authenticated, h.Payment.RecordPayment)

		providers := v1.Group("/providers")
		providers.GET("", h.Provider.ListProviders)
		providers.GET("/:id/slots", h.Provider.ListSlots)
		providers.POST("", authenticated, adminOnly, h.Provider.CreateProvider)
		providers.POST("/:id/slots", authenticated, adminOnly, h.Provider.AddSlots)

		bookings := v1.Group("/bookings", authenticated)
		bookings.POST("", h.Booking.BookSlot)
		bookings.GET("/:providerId", h.Booking.ListForProvider)

		admin := v1.Group("/admin", authenticated, adminOnly)
		admin.GET("/bookings", h.Booking.ListAll)
		admin.GET("/providers", h.Provider.ListProviders)
		admin.PATCH("/providers/:id/slots", h.Provider.ReplaceSlots)
		admin.GET("/payments", h.Payment.ListPayments)
		admin.PATCH("/payments/:id", h.Payment.UpdatePaymentStatus)

		v1.POST("/contact", h.Contact.Submit)
	}

	// Swagger documentation (only if SWAGGER_HOST is configured)
	if cfg.SwaggerHost != "" {
		docs.SwaggerInfo.Host = cfg.SwaggerHost
		router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}
}
