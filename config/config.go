package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	BackendPostgres = "postgres"
	BackendRedis    = "redis"
	BackendMemory   = "memory"
)

const (
	RetentionReport  = "report"
	RetentionRemove  = "remove"
	RetentionCleanup = "cleanup"
)

type Config struct {
	AppPort string
	AppMode string
	LogMode string

	StoreBackend string

	DBHost     string
	DBUser     string
	DBPassword string
	DBName     string
	DBPort     string

	RedisHost      string
	RedisPort      string
	RedisPassword  string
	RedisDB        int
	RedisKeyPrefix string

	JWTSecret string

	S3ProviderName string
	S3Namespace    string
	S3Location     string
	S3Bucket       string
	S3AccessKey    string
	S3SecretKey    string
	S3Endpoint     string

	RetentionMaxAge   time.Duration
	RetentionInterval time.Duration
	RetentionAction   string

	UpdateMaxRetries int

	RateLimitWrites int
	RateLimitWindow time.Duration
}

func LoadConfig() *Config {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	return &Config{
		AppPort: getEnv("APP_PORT", "8080"),
		AppMode: getEnv("APP_MODE", "debug"),
		LogMode: getEnv("LOG_MODE", "development"),

		StoreBackend: strings.ToLower(getEnv("STORE_BACKEND", BackendPostgres)),

		DBHost:     getEnv("DB_HOST", "localhost"),
		DBUser:     getEnv("DB_USER", "postgres"),
		DBPassword: getEnv("DB_PASSWORD", "postgres"),
		DBName:     getEnv("DB_NAME", "upload_registry"),
		DBPort:     getEnv("DB_PORT", "5432"),

		RedisHost:      getEnv("REDIS_HOST", "localhost"),
		RedisPort:      getEnv("REDIS_PORT", "6379"),
		RedisPassword:  getEnv("REDIS_PASSWORD", ""),
		RedisDB:        getEnvAsInt("REDIS_DB", 0),
		RedisKeyPrefix: getEnv("REDIS_KEY_PREFIX", "upload"),

		JWTSecret: getEnv("JWT_SECRET", "change-me"),

		S3ProviderName: getEnv("S3_PROVIDER_NAME", "amazon"),
		S3Namespace:    getEnv("S3_NAMESPACE", ""),
		S3Location:     getEnv("S3_LOCATION", ""),
		S3Bucket:       getEnv("S3_BUCKET", ""),
		S3AccessKey:    getEnv("S3_ACCESS_KEY", ""),
		S3SecretKey:    getEnv("S3_SECRET_KEY", ""),
		S3Endpoint:     getEnv("S3_ENDPOINT", ""),

		RetentionMaxAge:   getEnvAsDuration("RETENTION_MAX_AGE", 7*24*time.Hour),
		RetentionInterval: getEnvAsDuration("RETENTION_INTERVAL", time.Hour),
		RetentionAction:   strings.ToLower(getEnv("RETENTION_ACTION", RetentionReport)),

		UpdateMaxRetries: getEnvAsInt("UPDATE_MAX_RETRIES", 5),

		RateLimitWrites: getEnvAsInt("RATE_LIMIT_WRITES", 0),
		RateLimitWindow: getEnvAsDuration("RATE_LIMIT_WINDOW", time.Minute),
	}
}

// Validate rejects values that would otherwise fail late, at first use.
func (c *Config) Validate() error {
	switch c.StoreBackend {
	case BackendPostgres, BackendRedis, BackendMemory:
	default:
		return fmt.Errorf("unknown STORE_BACKEND %q", c.StoreBackend)
	}
	switch c.RetentionAction {
	case RetentionReport, RetentionRemove, RetentionCleanup:
	default:
		return fmt.Errorf("unknown RETENTION_ACTION %q", c.RetentionAction)
	}
	if c.RetentionMaxAge <= 0 {
		return fmt.Errorf("RETENTION_MAX_AGE must be positive")
	}
	if c.UpdateMaxRetries < 0 {
		return fmt.Errorf("UPDATE_MAX_RETRIES must not be negative")
	}
	if c.RateLimitWrites > 0 && c.RateLimitWindow < time.Second {
		return fmt.Errorf("RATE_LIMIT_WINDOW must be at least one second")
	}
	return nil
}

// S3Enabled reports whether enough settings are present to register an S3 residence.
func (c *Config) S3Enabled() bool {
	return c.S3Location != "" && c.S3Bucket != ""
}

// RateLimitEnabled reports whether write rate limiting should be wired. It
// needs Redis even when records live elsewhere.
func (c *Config) RateLimitEnabled() bool {
	return c.RateLimitWrites > 0
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return fallback
}

// getEnvAsDuration accepts Go duration strings ("90m") or plain seconds.
func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return fallback
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	if secs, err := strconv.Atoi(valueStr); err == nil {
		return time.Duration(secs) * time.Second
	}
	return fallback
}
