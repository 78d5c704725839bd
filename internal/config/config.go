package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Ledger storage backends
const (
	LedgerBackendPostgres = "postgres"
	LedgerBackendDynamoDB = "dynamodb"
)

// Receipt storage backends
const (
	StorageBackendLocal = "local"
	StorageBackendS3    = "s3"
)

// Config holds all configuration values
type Config struct {
	Server     ServerConfig
	Database   DatabaseConfig
	Redis      RedisConfig
	JWT        JWTConfig
	Ledger     LedgerConfig
	DynamoDB   DynamoDBConfig
	Storage    StorageConfig
	Payments   PaymentsConfig
	RateLimit  RateLimitConfig
	Jobs       JobsConfig
	Sentry     SentryConfig
	Log        LogConfig
	Compliance ComplianceConfig
	Deposit    DepositConfig
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port        string
	Env         string
	CORSOrigins []string
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
	MaxOpen  int
	MaxIdle  int
}

// URL returns the database connection URL
func (c DatabaseConfig) URL() string {
	return "postgres://" + c.User + ":" + c.Password + "@" + c.Host + ":" + strconv.Itoa(c.Port) + "/" + c.DBName + "?sslmode=" + c.SSLMode
}

// DSN returns the key/value connection string understood by lib/pq
func (c DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode)
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	URL      string
	PASSWORD string
}

// JWTConfig holds JWT configuration
type JWTConfig struct {
	Secret        string
	AccessExpiry  time.Duration
	RefreshExpiry time.Duration
}

// LedgerConfig selects the ledger backend and its policies
type LedgerConfig struct {
	Backend         string
	RejectOverdraft bool
	HistoryLimit    int
}

// DynamoDBConfig holds DynamoDB table settings
type DynamoDBConfig struct {
	Region         string
	Endpoint       string
	EntriesTable   string
	PositionsTable string
}

// StorageConfig holds receipt storage settings
type StorageConfig struct {
	Backend    string
	LocalDir   string
	S3Bucket   string
	S3Region   string
	S3Endpoint string
	MaxBytes   int64
}

// PaymentsConfig holds card processor settings
type PaymentsConfig struct {
	WebhookSecret string
	SecretKey     string
}

// RateLimitConfig holds request throttling settings
type RateLimitConfig struct {
	Enabled  bool
	Requests int
	Window   time.Duration
}

// JobsConfig holds background job settings
type JobsConfig struct {
	MaturityInterval time.Duration
	MaturityBatch    int
}

// SentryConfig holds error reporting settings
type SentryConfig struct {
	DSN         string
	Environment string
	SampleRate  float64
}

// LogConfig holds log output settings
type LogConfig struct {
	File       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

// ComplianceConfig holds registration restrictions
type ComplianceConfig struct {
	BlockedCountries []string
}

// DepositConfig holds the platform receiving addresses per deposit method
type DepositConfig struct {
	Addresses map[string]string
}

// Load loads configuration from environment variables
func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Port:        getEnv("SERVER_PORT", "8080"),
			Env:         getEnv("SERVER_ENV", "development"),
			CORSOrigins: getEnvAsList("CORS_ORIGINS", []string{"*"}),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnvAsInt("DB_PORT", 5432),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "postgres"),
			DBName:   getEnv("DB_NAME", "cryptovest"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
			MaxOpen:  getEnvAsInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdle:  getEnvAsInt("DB_MAX_IDLE_CONNS", 5),
		},
		Redis: RedisConfig{
			URL:      getEnv("REDIS_URL", "redis://localhost:6379"),
			PASSWORD: getEnv("REDIS_PASSWORD", ""),
		},
		JWT: JWTConfig{
			Secret:        getEnv("JWT_SECRET", "change-this-in-production"),
			AccessExpiry:  getEnvAsDuration("JWT_ACCESS_EXPIRY", 15*time.Minute),
			RefreshExpiry: getEnvAsDuration("JWT_REFRESH_EXPIRY", 7*24*time.Hour),
		},
		Ledger: LedgerConfig{
			Backend:         strings.ToLower(getEnv("LEDGER_BACKEND", LedgerBackendPostgres)),
			RejectOverdraft: getEnvAsBool("LEDGER_REJECT_OVERDRAFT", false),
			HistoryLimit:    getEnvAsInt("LEDGER_HISTORY_LIMIT", 50),
		},
		DynamoDB: DynamoDBConfig{
			Region:         getEnv("AWS_REGION", "us-east-1"),
			Endpoint:       getEnv("DYNAMODB_ENDPOINT", ""),
			EntriesTable:   getEnv("DYNAMODB_ENTRIES_TABLE", "ledger_entries"),
			PositionsTable: getEnv("DYNAMODB_POSITIONS_TABLE", "investment_positions"),
		},
		Storage: StorageConfig{
			Backend:    strings.ToLower(getEnv("STORAGE_BACKEND", StorageBackendLocal)),
			LocalDir:   getEnv("STORAGE_LOCAL_DIR", "./uploads"),
			S3Bucket:   getEnv("S3_BUCKET", ""),
			S3Region:   getEnv("S3_REGION", getEnv("AWS_REGION", "us-east-1")),
			S3Endpoint: getEnv("S3_ENDPOINT", ""),
			MaxBytes:   int64(getEnvAsInt("RECEIPT_MAX_BYTES", 5<<20)),
		},
		Payments: PaymentsConfig{
			WebhookSecret: getEnv("STRIPE_WEBHOOK_SECRET", ""),
			SecretKey:     getEnv("STRIPE_SECRET_KEY", ""),
		},
		RateLimit: RateLimitConfig{
			Enabled:  getEnvAsBool("RATE_LIMIT_ENABLED", true),
			Requests: getEnvAsInt("RATE_LIMIT_REQUESTS", 100),
			Window:   getEnvAsDuration("RATE_LIMIT_WINDOW", 15*time.Minute),
		},
		Jobs: JobsConfig{
			MaturityInterval: getEnvAsDuration("JOB_MATURITY_INTERVAL", time.Minute),
			MaturityBatch:    getEnvAsInt("JOB_MATURITY_BATCH", 100),
		},
		Sentry: SentryConfig{
			DSN:         getEnv("SENTRY_DSN", ""),
			Environment: getEnv("SENTRY_ENVIRONMENT", getEnv("SERVER_ENV", "development")),
			SampleRate:  getEnvAsFloat("SENTRY_SAMPLE_RATE", 1.0),
		},
		Log: LogConfig{
			File:       getEnv("LOG_FILE", ""),
			MaxSizeMB:  getEnvAsInt("LOG_MAX_SIZE_MB", 100),
			MaxBackups: getEnvAsInt("LOG_MAX_BACKUPS", 5),
			MaxAgeDays: getEnvAsInt("LOG_MAX_AGE_DAYS", 30),
		},
		Compliance: ComplianceConfig{
			BlockedCountries: upper(getEnvAsList("BLOCKED_COUNTRIES", []string{"US", "CA", "CN", "KP", "IR", "SY"})),
		},
		Deposit: DepositConfig{
			Addresses: map[string]string{
				"bitcoin":  getEnv("DEPOSIT_ADDRESS_BITCOIN", "bc1qxy2kgdygjrsqtzq2n0yrf2493p83kkfjhx0wlh"),
				"ethereum": getEnv("DEPOSIT_ADDRESS_ETHEREUM", "0x742d35Cc6634C0532925a3b844Bc454e4438f44e"),
				"usdt":     getEnv("DEPOSIT_ADDRESS_USDT", "0x742d35Cc6634C0532925a3b844Bc454e4438f44e"),
				"usdc":     getEnv("DEPOSIT_ADDRESS_USDC", "0x742d35Cc6634C0532925a3b844Bc454e4438f44e"),
			},
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

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
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

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// getEnvAsList splits a comma separated value, dropping blanks.
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
	return out
}

func upper(in []string) []string {
	out := make([]string, len(in))
	for i, s := range in {
		out[i] = strings.ToUpper(s)
	}
	return out
}
