package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all configuration values
type Config struct {
	Server     ServerConfig
	Database   DatabaseConfig
	Redis      RedisConfig
	JWT        JWTConfig
	Payment    PaymentConfig
	Storage    StorageConfig
	Telegram   TelegramConfig
	Processing ProcessingConfig
	Jobs       JobsConfig
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port            string
	Env             string
	AllowedOrigins  []string
	ShutdownTimeout time.Duration
	// WebhookTimeout bounds downstream work done while answering a webhook.
	WebhookTimeout time.Duration
	RateLimitRPS   float64
	RateLimitBurst int
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host        string
	Port        int
	User        string
	Password    string
	DBName      string
	SSLMode     string
	AutoMigrate bool
}

// URL returns the database connection URL
func (c DatabaseConfig) URL() string {
	return "postgres://" + c.User + ":" + c.Password + "@" + c.Host + ":" + strconv.Itoa(c.Port) + "/" + c.DBName + "?sslmode=" + c.SSLMode
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	URL      string
	Password string
}

// JWTConfig holds JWT configuration
type JWTConfig struct {
	Secret string
	Issuer string
	Expiry time.Duration
}

// PaymentConfig holds the commerce processor settings
type PaymentConfig struct {
	APIBaseURL    string
	APIKey        string
	APIVersion    string
	WebhookSecret string
	Timeout       time.Duration
	MaxAttempts   int
}

// StorageConfig holds the S3-compatible blob store settings
type StorageConfig struct {
	Bucket       string
	Region       string
	Endpoint     string
	AccessKey    string
	SecretKey    string
	UsePathStyle bool
	SignedURLTTL time.Duration
	MaxAttempts  int
}

// TelegramConfig holds the review-channel bot settings
type TelegramConfig struct {
	APIBaseURL    string
	BotToken      string
	ChatID        string
	WebhookSecret string
	Timeout       time.Duration
}

// ProcessingConfig holds request lifecycle limits
type ProcessingConfig struct {
	MaxRetries       int
	StaleThreshold   time.Duration
	FailureThreshold int64
	MaxUploadBytes   int64
	AllowedRegions   []string
	AutoRetryEnabled bool
	AutoRetryBackoff time.Duration
}

// JobsConfig holds background job schedules (robfig/cron expressions)
type JobsConfig struct {
	ReconcileSchedule  string
	ReconcileMinAge    time.Duration
	ReconcileOnStart   bool
	AutoRetrySchedule  string
	StaleCheckSchedule string
}

// Load loads configuration from environment variables
func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            getEnv("SERVER_PORT", "8080"),
			Env:             getEnv("SERVER_ENV", "development"),
			AllowedOrigins:  getEnvAsList("SERVER_ALLOWED_ORIGINS", []string{"http://localhost:3000"}),
			ShutdownTimeout: getEnvAsDuration("SERVER_SHUTDOWN_TIMEOUT", 15*time.Second),
			WebhookTimeout:  getEnvAsDuration("SERVER_WEBHOOK_TIMEOUT", 10*time.Second),
			RateLimitRPS:    getEnvAsFloat("SERVER_RATE_LIMIT_RPS", 5),
			RateLimitBurst:  getEnvAsInt("SERVER_RATE_LIMIT_BURST", 20),
		},
		Database: DatabaseConfig{
			Host:        getEnv("DB_HOST", "localhost"),
			Port:        getEnvAsInt("DB_PORT", 5432),
			User:        getEnv("DB_USER", "postgres"),
			Password:    getEnv("DB_PASSWORD", "postgres"),
			DBName:      getEnv("DB_NAME", "docucheck"),
			SSLMode:     getEnv("DB_SSLMODE", "disable"),
			AutoMigrate: getEnvAsBool("DB_AUTO_MIGRATE", false),
		},
		Redis: RedisConfig{
			URL:      getEnv("REDIS_URL", "redis://localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
		},
		JWT: JWTConfig{
			Secret: getEnv("JWT_SECRET", "change-this-in-production"),
			Issuer: getEnv("JWT_ISSUER", "docucheck"),
			Expiry: getEnvAsDuration("JWT_EXPIRY", 24*time.Hour),
		},
		Payment: PaymentConfig{
			APIBaseURL:    getEnv("PAYMENT_API_BASE_URL", "https://api.commerce.coinbase.com"),
			APIKey:        getEnv("PAYMENT_API_KEY", ""),
			APIVersion:    getEnv("PAYMENT_API_VERSION", "2018-03-22"),
			WebhookSecret: getEnv("PAYMENT_WEBHOOK_SECRET", ""),
			Timeout:       getEnvAsDuration("PAYMENT_TIMEOUT", 10*time.Second),
			MaxAttempts:   getEnvAsInt("PAYMENT_MAX_ATTEMPTS", 3),
		},
		Storage: StorageConfig{
			Bucket:       getEnv("STORAGE_BUCKET", "docucheck-documents"),
			Region:       getEnv("STORAGE_REGION", "us-east-1"),
			Endpoint:     getEnv("STORAGE_ENDPOINT", ""),
			AccessKey:    getEnv("STORAGE_ACCESS_KEY", ""),
			SecretKey:    getEnv("STORAGE_SECRET_KEY", ""),
			UsePathStyle: getEnvAsBool("STORAGE_USE_PATH_STYLE", false),
			SignedURLTTL: getEnvAsDuration("STORAGE_SIGNED_URL_TTL", 15*time.Minute),
			MaxAttempts:  getEnvAsInt("STORAGE_MAX_ATTEMPTS", 3),
		},
		Telegram: TelegramConfig{
			APIBaseURL:    getEnv("TELEGRAM_API_BASE_URL", "https://api.telegram.org"),
			BotToken:      getEnv("TELEGRAM_BOT_TOKEN", ""),
			ChatID:        getEnv("TELEGRAM_CHAT_ID", ""),
			WebhookSecret: getEnv("TELEGRAM_WEBHOOK_SECRET", ""),
			Timeout:       getEnvAsDuration("TELEGRAM_TIMEOUT", 30*time.Second),
		},
		Processing: ProcessingConfig{
			MaxRetries:       getEnvAsInt("PROCESSING_MAX_RETRIES", 3),
			StaleThreshold:   getEnvAsDuration("PROCESSING_STALE_THRESHOLD", time.Hour),
			FailureThreshold: int64(getEnvAsInt("PROCESSING_FAILURE_THRESHOLD", 5)),
			MaxUploadBytes:   int64(getEnvAsInt("PROCESSING_MAX_UPLOAD_BYTES", 20<<20)),
			AllowedRegions:   getEnvAsList("PROCESSING_ALLOWED_REGIONS", []string{"europe", "north_america", "asia", "other"}),
			AutoRetryEnabled: getEnvAsBool("PROCESSING_AUTO_RETRY_ENABLED", false),
			AutoRetryBackoff: getEnvAsDuration("PROCESSING_AUTO_RETRY_BACKOFF", 2*time.Minute),
		},
		Jobs: JobsConfig{
			ReconcileSchedule:  getEnv("JOBS_RECONCILE_SCHEDULE", "@every 5m"),
			ReconcileMinAge:    getEnvAsDuration("JOBS_RECONCILE_MIN_AGE", 10*time.Minute),
			ReconcileOnStart:   getEnvAsBool("JOBS_RECONCILE_ON_START", true),
			AutoRetrySchedule:  getEnv("JOBS_AUTO_RETRY_SCHEDULE", "@every 1m"),
			StaleCheckSchedule: getEnv("JOBS_STALE_CHECK_SCHEDULE", "@every 10m"),
		},
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getEnvAsList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
