// Package config handles configuration loading for the booking server.
package config

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Slot duplicate policies.
const (
	DuplicatePolicyReject = "reject"
	DuplicatePolicyAllow  = "allow"
)

// MinJWTSecretLength is the minimum accepted HMAC secret size in bytes.
const MinJWTSecretLength = 32

// Config holds all configuration for the booking server.
type Config struct {
	Port        string `envconfig:"PORT" default:"5001"`
	Environment string `envconfig:"ENVIRONMENT" default:"development"`

	DatabaseURL string        `envconfig:"DATABASE_URL" required:"true"`
	DBTimeout   time.Duration `envconfig:"DB_TIMEOUT" default:"5s"`

	RedisHost     string `envconfig:"REDIS_HOST" default:"localhost"`
	RedisPort     string `envconfig:"REDIS_PORT" default:"6379"`
	RedisPassword string `envconfig:"REDIS_PASSWORD"`

	JWTSecret        string        `envconfig:"JWT_SECRET" required:"true"`
	JWTAccessExpiry  time.Duration `envconfig:"JWT_ACCESS_EXPIRY" default:"5h"`
	JWTRefreshExpiry time.Duration `envconfig:"JWT_REFRESH_EXPIRY" default:"168h"`

	GoogleClientID string `envconfig:"GOOGLE_CLIENT_ID"`
	GoogleJWKSURL  string `envconfig:"GOOGLE_JWKS_URL" default:"https://www.googleapis.com/oauth2/v3/certs"`

	StripeSecretKey     string `envconfig:"STRIPE_SECRET_KEY"`
	StripeWebhookSecret string `envconfig:"STRIPE_WEBHOOK_SECRET"`
	DefaultCurrency     string `envconfig:"DEFAULT_CURRENCY" default:"usd"`

	UpstreamTimeout time.Duration `envconfig:"UPSTREAM_TIMEOUT" default:"10s"`

	RabbitURL      string `envconfig:"RABBIT_URL"`
	EventsExchange string `envconfig:"EVENTS_EXCHANGE" default:"decentmed.events"`

	SlotDuplicatePolicy string `envconfig:"SLOT_DUPLICATE_POLICY" default:"reject"`

	AllowedOrigins []string `envconfig:"ALLOWED_ORIGINS" default:"https://themerlingroupworld.com"`
	CookieDomain   string   `envconfig:"COOKIE_DOMAIN"`
	CookieSecure   bool     `envconfig:"COOKIE_SECURE" default:"true"`
	CookieSameSite string   `envconfig:"COOKIE_SAMESITE" default:"lax"`
	CookiePath     string   `envconfig:"COOKIE_PATH" default:"/"`

	SwaggerHost  string `envconfig:"SWAGGER_HOST"`
	OTelEndpoint string `envconfig:"OTEL_EXPORTER_OTLP_ENDPOINT"`
}

// NotifierConfig holds configuration for the notification worker.
type NotifierConfig struct {
	Environment string `envconfig:"ENVIRONMENT" default:"development"`

	RabbitURL      string `envconfig:"RABBIT_URL" required:"true"`
	EventsExchange string `envconfig:"EVENTS_EXCHANGE" default:"decentmed.events"`
	Queue          string `envconfig:"NOTIFIER_QUEUE" default:"decentmed.notifier"`
	Prefetch       int    `envconfig:"NOTIFIER_PREFETCH" default:"8"`

	SMTPAddr     string        `envconfig:"SMTP_ADDR" required:"true"`
	SMTPUsername string        `envconfig:"SMTP_USERNAME"`
	SMTPPassword string        `envconfig:"SMTP_PASSWORD"`
	MailFrom     string        `envconfig:"MAIL_FROM" required:"true"`
	MailTo       []string      `envconfig:"MAIL_TO" required:"true"`
	SendTimeout  time.Duration `envconfig:"SMTP_TIMEOUT" default:"15s"`

	MetricsAddr string `envconfig:"NOTIFIER_METRICS_ADDR" default:":9101"`
}

// CookieConfig holds the attributes used for authentication cookies.
type CookieConfig struct {
	Domain   string
	Path     string
	Secure   bool
	SameSite http.SameSite
}

// Load reads configuration from environment variables. A .env file is
// honoured outside production.
func Load() (*Config, error) {
	if !strings.EqualFold(os.Getenv("ENVIRONMENT"), "production") {
		_ = godotenv.Load()
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadNotifier reads the notification worker configuration.
func LoadNotifier() (*NotifierConfig, error) {
	if !strings.EqualFold(os.Getenv("ENVIRONMENT"), "production") {
		_ = godotenv.Load()
	}

	var cfg NotifierConfig
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process env: %w", err)
	}
	return &cfg, nil
}

// Validate checks values that envconfig cannot express.
func (c *Config) Validate() error {
	if len(c.JWTSecret) < MinJWTSecretLength {
		return fmt.Errorf("JWT_SECRET must be at least %d bytes", MinJWTSecretLength)
	}
	if c.JWTAccessExpiry <= 0 || c.JWTRefreshExpiry <= 0 {
		return errors.New("token expiries must be positive")
	}
	switch c.SlotDuplicatePolicy {
	case DuplicatePolicyReject, DuplicatePolicyAllow:
	default:
		return fmt.Errorf("SLOT_DUPLICATE_POLICY must be %q or %q, got %q",
			DuplicatePolicyReject, DuplicatePolicyAllow, c.SlotDuplicatePolicy)
	}
	return nil
}

// IsProduction reports whether the service runs in production mode.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Environment, "production")
}

// RedisAddr returns host:port for the Redis client.
func (c *Config) RedisAddr() string {
	return fmt.Sprintf("%s:%s", c.RedisHost, c.RedisPort)
}

// Cookies returns the cookie attributes derived from configuration.
func (c *Config) Cookies() CookieConfig {
	return CookieConfig{
		Domain:   c.CookieDomain,
		Path:     c.CookiePath,
		Secure:   c.CookieSecure,
		SameSite: parseSameSite(c.CookieSameSite),
	}
}

func parseSameSite(value string) http.SameSite {
	switch strings.ToLower(value) {
	case "strict":
		return http.SameSiteStrictMode
	case "none":
		return http.SameSiteNoneMode
	default:
		return http.SameSiteLaxMode
	}
}
