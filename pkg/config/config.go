package config

import (
	"errors"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

type Config struct {
	Env       string
	Port      int
	APIPrefix string

	Database     DatabaseConfig
	Redis        RedisConfig
	JWT          JWTConfig
	CORS         CORSConfig
	Log          LogConfig
	Scheduling   SchedulingConfig
	Jobs         JobsConfig
	Mail         MailConfig
	Payment      PaymentConfig
	RateLimit    RateLimitConfig
	Metrics      MetricsConfig
	QuotaSummary QuotaSummaryConfig
}

type DatabaseConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

type JWTConfig struct {
	Secret     string
	Issuer     string
	Expiration time.Duration
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// SchedulingConfig tunes interview slot capacity and mock interview defaults.
type SchedulingConfig struct {
	SlotDefaultCapacity int
	MockVideoLink       string
}

// JobsConfig drives the periodic sweeps and the email worker pool.
type JobsConfig struct {
	QuotaResetCheckInterval time.Duration
	SLAScanInterval         time.Duration
	AnnualReviewInterval    time.Duration
	EmailWorkers            int
	EmailRetries            int
}

// MailConfig configures outbound SMTP. Disabled mail is logged and dropped.
type MailConfig struct {
	Enabled  bool
	Host     string
	Port     int
	User     string
	Password string
	From     string
}

// PaymentConfig holds gateway credentials and checkout bookkeeping.
type PaymentConfig struct {
	KeyID       string
	KeySecret   string
	CheckoutTTL time.Duration
	InvoiceDir  string
}

type RateLimitConfig struct {
	Enabled bool
}

type MetricsConfig struct {
	Enabled bool
}

// QuotaSummaryConfig governs caching of the per-user quota summary.
type QuotaSummaryConfig struct {
	CacheEnabled bool
	CacheTTL     time.Duration
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	return fromViper(v), nil
}

func fromViper(v *viper.Viper) *Config {
	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")

	cfg.Database = DatabaseConfig{
		Host:         v.GetString("DB_HOST"),
		Port:         v.GetInt("DB_PORT"),
		User:         v.GetString("DB_USER"),
		Password:     v.GetString("DB_PASSWORD"),
		Name:         v.GetString("DB_NAME"),
		SSLMode:      v.GetString("DB_SSL_MODE"),
		MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
	}

	cfg.Redis = RedisConfig{
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.JWT = JWTConfig{
		Secret:     v.GetString("JWT_SECRET"),
		Issuer:     v.GetString("JWT_ISSUER"),
		Expiration: parseDuration(v.GetString("JWT_EXPIRATION"), 24*time.Hour),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	capacity := v.GetInt("SLOT_DEFAULT_CAPACITY")
	if capacity <= 0 {
		capacity = 5
	}
	cfg.Scheduling = SchedulingConfig{
		SlotDefaultCapacity: capacity,
		MockVideoLink:       v.GetString("MOCK_VIDEO_LINK"),
	}

	cfg.Jobs = JobsConfig{
		QuotaResetCheckInterval: parseDuration(v.GetString("QUOTA_RESET_CHECK_INTERVAL"), time.Hour),
		SLAScanInterval:         parseDuration(v.GetString("SLA_SCAN_INTERVAL"), 15*time.Minute),
		AnnualReviewInterval:    parseDuration(v.GetString("ANNUAL_REVIEW_INTERVAL"), 24*time.Hour),
		EmailWorkers:            v.GetInt("EMAIL_WORKERS"),
		EmailRetries:            v.GetInt("EMAIL_RETRIES"),
	}

	cfg.Mail = MailConfig{
		Enabled:  v.GetBool("ENABLE_EMAIL"),
		Host:     v.GetString("SMTP_HOST"),
		Port:     v.GetInt("SMTP_PORT"),
		User:     v.GetString("SMTP_USER"),
		Password: v.GetString("SMTP_PASSWORD"),
		From:     v.GetString("MAIL_FROM"),
	}

	cfg.Payment = PaymentConfig{
		KeyID:       v.GetString("PAYMENT_KEY_ID"),
		KeySecret:   v.GetString("PAYMENT_KEY_SECRET"),
		CheckoutTTL: parseDuration(v.GetString("CHECKOUT_TTL"), 30*time.Minute),
		InvoiceDir:  v.GetString("INVOICE_STORAGE_DIR"),
	}

	cfg.RateLimit = RateLimitConfig{Enabled: v.GetBool("RATE_LIMIT_ENABLED")}
	cfg.Metrics = MetricsConfig{Enabled: v.GetBool("ENABLE_METRICS")}

	cfg.QuotaSummary = QuotaSummaryConfig{
		CacheEnabled: v.GetBool("ENABLE_QUOTA_CACHE"),
		CacheTTL:     parseDuration(v.GetString("QUOTA_CACHE_TTL"), time.Minute),
	}

	return cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "career_services")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("JWT_SECRET", "dev_secret")
	v.SetDefault("JWT_ISSUER", "career-services-api")
	v.SetDefault("JWT_EXPIRATION", "24h")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("SLOT_DEFAULT_CAPACITY", 5)
	v.SetDefault("MOCK_VIDEO_LINK", "https://zoom.us/j/example")

	v.SetDefault("QUOTA_RESET_CHECK_INTERVAL", "1h")
	v.SetDefault("SLA_SCAN_INTERVAL", "15m")
	v.SetDefault("ANNUAL_REVIEW_INTERVAL", "24h")
	v.SetDefault("EMAIL_WORKERS", 2)
	v.SetDefault("EMAIL_RETRIES", 3)

	v.SetDefault("ENABLE_EMAIL", false)
	v.SetDefault("SMTP_HOST", "localhost")
	v.SetDefault("SMTP_PORT", 587)
	v.SetDefault("SMTP_USER", "")
	v.SetDefault("SMTP_PASSWORD", "")
	v.SetDefault("MAIL_FROM", "noreply@careers.local")

	v.SetDefault("PAYMENT_KEY_ID", "")
	v.SetDefault("PAYMENT_KEY_SECRET", "dev_payment_secret")
	v.SetDefault("CHECKOUT_TTL", "30m")
	v.SetDefault("INVOICE_STORAGE_DIR", "./invoices")

	v.SetDefault("RATE_LIMIT_ENABLED", true)
	v.SetDefault("ENABLE_METRICS", true)
	v.SetDefault("ENABLE_QUOTA_CACHE", false)
	v.SetDefault("QUOTA_CACHE_TTL", "1m")
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return d
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}
