package config

import (
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

type Config struct {
	// Supabase
	SupabaseURL            string `env:"SUPABASE_URL"`
	SupabaseServiceRoleKey string `env:"SUPABASE_SERVICE_ROLE_KEY"`
	GalleryBucket          string `env:"SUPABASE_GALLERY_BUCKET" env-default:"gallery-images"`
	OrdersBucket           string `env:"SUPABASE_ORDERS_BUCKET" env-default:"order-files"`

	// Database
	DatabaseURL string `env:"DATABASE_URL"`

	// Admin
	AdminUsername     string        `env:"ADMIN_USERNAME"`
	AdminPasswordHash string        `env:"ADMIN_PASSWORD_HASH"`
	AdminJWTSecret    string        `env:"ADMIN_JWT_SECRET"`
	AdminTokenTTL     time.Duration `env:"ADMIN_TOKEN_TTL" env-default:"12h"`

	// Functions
	FunctionsSecret string `env:"FUNCTIONS_SECRET"`

	// Email
	EmailProvider string `env:"EMAIL_PROVIDER" env-default:"resend"`
	ResendAPIKey  string `env:"RESEND_API_KEY"`
	ResendBaseURL string `env:"RESEND_BASE_URL" env-default:"https://api.resend.com"`
	EmailFrom     string `env:"EMAIL_FROM" env-default:"Rascunho Luminoso <onboarding@resend.dev>"`
	EmailTo       string `env:"EMAIL_TO" env-default:"rascunholuminoso@gmail.com"`
	SMTPHost      string `env:"SMTP_HOST"`
	SMTPPort      int    `env:"SMTP_PORT" env-default:"587"`
	SMTPUsername  string `env:"SMTP_USERNAME"`
	SMTPPassword  string `env:"SMTP_PASSWORD"`

	// Push
	FCMServerKey string `env:"FCM_SERVER_KEY"`
	FCMEndpoint  string `env:"FCM_ENDPOINT" env-default:"https://fcm.googleapis.com/fcm/send"`
	PushIcon     string `env:"PUSH_ICON" env-default:"/lovable-uploads/9d315dc9-03f6-4949-85dc-8c64f34b1b8f.png"`

	// Outbox
	OutboxSchedule    string        `env:"OUTBOX_SCHEDULE" env-default:"@every 15s"`
	OutboxBatchSize   int           `env:"OUTBOX_BATCH_SIZE" env-default:"20"`
	OutboxMaxAttempts int           `env:"OUTBOX_MAX_ATTEMPTS" env-default:"8"`
	OutboxBaseBackoff time.Duration `env:"OUTBOX_BASE_BACKOFF" env-default:"5s"`
	OutboxMaxBackoff  time.Duration `env:"OUTBOX_MAX_BACKOFF" env-default:"10m"`

	// Rate limiting for the public order form
	OrderRateLimit float64 `env:"ORDER_RATE_LIMIT" env-default:"0.2"`
	OrderRateBurst int     `env:"ORDER_RATE_BURST" env-default:"3"`

	// Server
	Port        string `env:"PORT" env-default:"8080"`
	Environment string `env:"ENVIRONMENT" env-default:"development"`
	BaseURL     string `env:"BASE_URL" env-default:"http://localhost:8080"`
	LogLevel    string `env:"LOG_LEVEL" env-default:"info"`

	// Comma separated; "*" admits any origin.
	CORSAllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" env-default:"*"`
	// IPs or CIDRs whose X-Forwarded-For is honoured. Empty trusts none.
	TrustedProxies []string `env:"TRUSTED_PROXIES"`
}

// Load reads an optional .env file and then the process environment.
func Load() (*Config, error) {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("failed to read environment: %w", err)
	}

	cfg.SupabaseURL = strings.TrimSuffix(cfg.SupabaseURL, "/")

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

func (c *Config) Validate() error {
	if c.SupabaseURL == "" {
		return fmt.Errorf("SUPABASE_URL is required")
	}
	if c.SupabaseServiceRoleKey == "" {
		return fmt.Errorf("SUPABASE_SERVICE_ROLE_KEY is required")
	}
	if c.AdminUsername == "" || c.AdminPasswordHash == "" {
		return fmt.Errorf("ADMIN_USERNAME and ADMIN_PASSWORD_HASH are required")
	}
	if c.AdminJWTSecret == "" {
		return fmt.Errorf("ADMIN_JWT_SECRET is required")
	}
	switch c.EmailProvider {
	case "resend", "smtp":
	default:
		return fmt.Errorf("EMAIL_PROVIDER must be resend or smtp, got %q", c.EmailProvider)
	}
	if c.OutboxMaxAttempts < 1 {
		return fmt.Errorf("OUTBOX_MAX_ATTEMPTS must be at least 1")
	}
	for _, proxy := range c.TrustedProxies {
		if net.ParseIP(proxy) != nil {
			continue
		}
		if _, _, err := net.ParseCIDR(proxy); err != nil {
			return fmt.Errorf("TRUSTED_PROXIES: %q is neither an IP nor a CIDR", proxy)
		}
	}
	return nil
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}
