package config

import (
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	// Application
	AppName   string
	AppEnv    string
	AppURL    string
	ClientURL string // SPA origin, OAuth callbacks redirect here with the token
	Port      string

	// Database (optional driver switch via ENV, default: sqlite)
	DBDriver     string
	DBConnection string

	// Security
	JWTSecret string
	JWTExpiry time.Duration

	// OAuth
	GoogleClientID     string
	GoogleClientSecret string

	// AI suggestions
	OpenAIAPIKey        string // Optional: suggestions fail with a distinct error when empty
	OpenAIBaseURL       string
	OpenAIModel         string
	AITimeout           time.Duration
	FreeSuggestionLimit int

	// Premium
	PremiumRequireVerifiedPayment bool

	// Email
	EmailFrom    string
	ResendAPIKey string

	// Payment
	PaymentProvider string // "polar", "stripe" or empty (card checkout disabled)
	// Payment - Polar
	PolarAPIKey           string
	PolarWebhookSecret    string
	PolarSandboxMode      bool
	PolarProductIDPremium string
	// Payment - Stripe
	StripeSecretKey      string
	StripeWebhookSecret  string
	StripePriceIDPremium string

	// Observability (optional)
	SentryDSN string

	// Storage for task exports (S3-compatible, optional)
	S3Region        string
	S3Bucket        string
	S3AccessKey     string
	S3SecretKey     string
	S3Endpoint      string
	S3PresignExpiry time.Duration

	// Rate limits (requests per minute per IP)
	RateLimitAuthPerMin    int
	RateLimitSuggestPerMin int
}

func Load() *Config {
	// Load .env file if it exists
	err := godotenv.Load()
	if err != nil {
		slog.Info("no .env file found, using environment variables")
	}

	appURL := envString("APP_URL", "http://localhost:8090")

	cfg := &Config{
		// Application
		AppName:   envString("APP_NAME", "Taskpilot"),
		AppEnv:    envRequired("APP_ENV"), // Required: 'development' or 'production'
		AppURL:    appURL,
		ClientURL: envString("CLIENT_URL", appURL),
		Port:      envString("PORT", "8090"),

		// Database
		DBDriver:     envString("DB_DRIVER", "sqlite"),
		DBConnection: envString("DB_CONNECTION", "./data/taskpilot.db?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)"),

		// Security
		JWTSecret: envRequired("JWT_SECRET"),
		JWTExpiry: envDuration("JWT_EXPIRY", 168*time.Hour), // 7 days

		// OAuth
		GoogleClientID:     envString("GOOGLE_CLIENT_ID", ""),
		GoogleClientSecret: envString("GOOGLE_CLIENT_SECRET", ""),

		// AI
		OpenAIAPIKey:        envString("OPENAI_API_KEY", ""),
		OpenAIBaseURL:       envString("OPENAI_BASE_URL", ""),
		OpenAIModel:         envString("OPENAI_MODEL", "gpt-4o-mini"),
		AITimeout:           envDuration("AI_TIMEOUT", 30*time.Second),
		FreeSuggestionLimit: envInt("FREE_SUGGESTION_LIMIT", 5),

		// Premium activation requires a verified payment outside development by default
		PremiumRequireVerifiedPayment: envBool("PREMIUM_REQUIRE_VERIFIED_PAYMENT", envString("APP_ENV", "development") == "production"),

		// Email (RESEND_API_KEY optional in development, required in production)
		EmailFrom:    envString("EMAIL_FROM", "noreply@example.com"),
		ResendAPIKey: envString("RESEND_API_KEY", ""),

		// Payment
		PaymentProvider:       envString("PAYMENT_PROVIDER", ""),
		PolarAPIKey:           envString("POLAR_API_KEY", ""),
		PolarWebhookSecret:    envString("POLAR_WEBHOOK_SECRET", ""),
		PolarSandboxMode:      envBool("POLAR_SANDBOX_MODE", envString("APP_ENV", "development") == "development"),
		PolarProductIDPremium: envString("POLAR_PRODUCT_ID_PREMIUM", ""),
		StripeSecretKey:       envString("STRIPE_SECRET_KEY", ""),
		StripeWebhookSecret:   envString("STRIPE_WEBHOOK_SECRET", ""),
		StripePriceIDPremium:  envString("STRIPE_PRICE_ID_PREMIUM", ""),

		// Observability
		SentryDSN: envString("SENTRY_DSN", ""),

		// Storage
		S3Region:        envString("S3_REGION", "us-east-1"),
		S3Bucket:        envString("S3_BUCKET", ""),
		S3AccessKey:     envString("S3_ACCESS_KEY", ""),
		S3SecretKey:     envString("S3_SECRET_KEY", ""),
		S3Endpoint:      envString("S3_ENDPOINT", ""),
		S3PresignExpiry: envDuration("S3_PRESIGN_EXPIRY", 1*time.Hour),

		// Rate limits
		RateLimitAuthPerMin:    envInt("RATE_LIMIT_AUTH_PER_MIN", 10),
		RateLimitSuggestPerMin: envInt("RATE_LIMIT_SUGGEST_PER_MIN", 20),
	}

	// Production: validate required services
	if cfg.IsProduction() {
		validateProduction(cfg)
	}

	return cfg
}

// validateProduction ensures all required services are configured for production deployments.
// Development allows some services (like email) to use fallback modes for easier local testing.
func validateProduction(cfg *Config) {
	if cfg.ResendAPIKey == "" {
		slog.Error("production deployment requires RESEND_API_KEY",
			"hint", "set APP_ENV=development for local testing with email log mode")
		os.Exit(1)
	}
	if len(cfg.JWTSecret) < 32 {
		slog.Error("production deployment requires JWT_SECRET of at least 32 bytes")
		os.Exit(1)
	}
}

func envString(key, def string) string {
	value := os.Getenv(key)
	if value == "" {
		value = def
	}
	return value
}

func envBool(key string, def bool) bool {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		slog.Warn("config invalid bool, using default", "key", key, "value", v, "default", def)
		return def
	}
	return b
}

func envInt(key string, def int) int {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		slog.Warn("config invalid int, using default", "key", key, "value", v, "default", def)
		return def
	}
	return n
}

func envDuration(key string, def time.Duration) time.Duration {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		slog.Warn("config invalid duration, using default", "key", key, "value", v, "default", def)
		return def
	}
	return d
}

func envRequired(key string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	slog.Error("config required env var missing", "key", key)
	os.Exit(1)
	return ""
}

func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

// StorageEnabled reports whether task exports can be written.
func (c *Config) StorageEnabled() bool {
	return c.S3Bucket != ""
}

// Sanitized returns a copy of the config with only public/safe fields.
// All secrets, credentials, and sensitive data are excluded.
func (c *Config) Sanitized() *Config {
	return &Config{
		AppName:   c.AppName,
		AppEnv:    c.AppEnv,
		AppURL:    c.AppURL,
		ClientURL: c.ClientURL,
		Port:      c.Port,

		DBDriver: c.DBDriver,

		JWTExpiry: c.JWTExpiry,

		GoogleClientID: c.GoogleClientID,

		OpenAIModel:         c.OpenAIModel,
		AITimeout:           c.AITimeout,
		FreeSuggestionLimit: c.FreeSuggestionLimit,

		PremiumRequireVerifiedPayment: c.PremiumRequireVerifiedPayment,

		EmailFrom:       c.EmailFrom,
		PaymentProvider: c.PaymentProvider,

		S3Region:   c.S3Region,
		S3Bucket:   c.S3Bucket,
		S3Endpoint: c.S3Endpoint,

		RateLimitAuthPerMin:    c.RateLimitAuthPerMin,
		RateLimitSuggestPerMin: c.RateLimitSuggestPerMin,
	}
}
