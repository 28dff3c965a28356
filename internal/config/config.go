package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Database DatabaseConfig
	Server   ServerConfig
	Auth     AuthConfig
	Cache    CacheConfig
	Lockout  LockoutConfig
	OTP      OTPConfig
	Email    EmailConfig
	Notify   NotifyConfig
	Geo      GeoConfig
	Google   GoogleConfig
}

type DatabaseConfig struct {
	Host              string
	Port              int
	User              string
	Password          string
	Name              string
	SSLMode           string
	MaxConns          int32
	MinConns          int32
	MaxConnLifetime   time.Duration
	MaxConnIdleTime   time.Duration
	HealthCheckPeriod time.Duration
	AutoMigrate       bool
}

type ServerConfig struct {
	Port              string
	Env               string
	LogLevel          string
	TrustedProxies    []string
	RequestsPerMinute int
	ReadTimeout       time.Duration
	WriteTimeout      time.Duration
	IdleTimeout       time.Duration
}

type AuthConfig struct {
	JWTSecret          string
	AccessTokenExpiry  time.Duration
	RefreshTokenExpiry time.Duration
	// FailClosed rejects bearer tokens when the denylist cannot be consulted.
	FailClosed bool
}

type CacheConfig struct {
	// Backend is "redis" or "memory".
	Backend       string
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	KeyPrefix     string
	SweepInterval time.Duration
}

type LockoutConfig struct {
	MaxFailedAttempts int
	Duration          time.Duration
	AtomicCounter     bool
}

type OTPConfig struct {
	TTL time.Duration
}

type EmailConfig struct {
	// Provider is "smtp", "ses" or "log".
	Provider     string
	FromAddress  string
	AppName      string
	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	AWSRegion    string
}

type NotifyConfig struct {
	Workers        int
	QueueSize      int
	MaxAttempts    int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
}

type GeoConfig struct {
	BaseURL string
	Timeout time.Duration
	Window  time.Duration
}

type GoogleConfig struct {
	ClientID string
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	jwtSecret := getEnv("JWT_SECRET", "")
	if jwtSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}

	env := getEnv("ENV", "development")

	cfg := &Config{
		Database: DatabaseConfig{
			Host:              getEnv("DB_HOST", "localhost"),
			Port:              getEnvAsInt("DB_PORT", 5432),
			User:              getEnv("DB_USER", "postgres"),
			Password:          getEnv("DB_PASSWORD", ""),
			Name:              getEnv("DB_NAME", "nexus"),
			SSLMode:           getEnv("DB_SSLMODE", "disable"),
			MaxConns:          int32(getEnvAsInt("DB_MAX_CONNS", 25)),
			MinConns:          int32(getEnvAsInt("DB_MIN_CONNS", 5)),
			MaxConnLifetime:   getEnvAsDuration("DB_MAX_CONN_LIFETIME", 5*time.Minute),
			MaxConnIdleTime:   getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", 1*time.Minute),
			HealthCheckPeriod: getEnvAsDuration("DB_HEALTH_CHECK_PERIOD", 1*time.Minute),
			AutoMigrate:       getEnvAsBool("DB_AUTO_MIGRATE", false),
		},
		Server: ServerConfig{
			Port:              getEnv("PORT", "8080"),
			Env:               env,
			LogLevel:          getEnv("LOG_LEVEL", "info"),
			TrustedProxies:    getEnvAsList("TRUSTED_PROXIES"),
			RequestsPerMinute: getEnvAsInt("AUTH_REQUESTS_PER_MINUTE", 20),
			ReadTimeout:       getEnvAsDuration("SERVER_READ_TIMEOUT", 15*time.Second),
			WriteTimeout:      getEnvAsDuration("SERVER_WRITE_TIMEOUT", 15*time.Second),
			IdleTimeout:       getEnvAsDuration("SERVER_IDLE_TIMEOUT", 60*time.Second),
		},
		Auth: AuthConfig{
			JWTSecret:          jwtSecret,
			AccessTokenExpiry:  getEnvAsDuration("ACCESS_TOKEN_EXPIRY", 1*time.Hour),
			RefreshTokenExpiry: getEnvAsDuration("REFRESH_TOKEN_EXPIRY", 7*24*time.Hour),
			FailClosed:         getEnvAsBool("DENYLIST_FAIL_CLOSED", false),
		},
		Cache: CacheConfig{
			Backend:       getEnv("CACHE_BACKEND", "redis"),
			RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
			RedisPassword: getEnv("REDIS_PASSWORD", ""),
			RedisDB:       getEnvAsInt("REDIS_DB", 1),
			KeyPrefix:     getEnv("CACHE_KEY_PREFIX", "auth"),
			SweepInterval: getEnvAsDuration("CACHE_SWEEP_INTERVAL", 1*time.Minute),
		},
		Lockout: LockoutConfig{
			MaxFailedAttempts: getEnvAsInt("MAX_FAILED_ATTEMPTS", 5),
			Duration:          getEnvAsDuration("LOCKOUT_DURATION", 30*time.Minute),
			AtomicCounter:     getEnvAsBool("LOCKOUT_ATOMIC_COUNTER", false),
		},
		OTP: OTPConfig{
			TTL: getEnvAsDuration("OTP_TTL", 10*time.Minute),
		},
		Email: EmailConfig{
			Provider:     getEnv("EMAIL_PROVIDER", "log"),
			FromAddress:  getEnv("EMAIL_FROM", "noreply@nexus.local"),
			AppName:      getEnv("APP_NAME", "Nexus E-commerce"),
			SMTPHost:     getEnv("SMTP_HOST", "smtp.gmail.com"),
			SMTPPort:     getEnvAsInt("SMTP_PORT", 587),
			SMTPUsername: getEnv("SMTP_USERNAME", ""),
			SMTPPassword: getEnv("SMTP_PASSWORD", ""),
			AWSRegion:    getEnv("AWS_REGION", "us-east-1"),
		},
		Notify: NotifyConfig{
			Workers:        getEnvAsInt("NOTIFY_WORKERS", 4),
			QueueSize:      getEnvAsInt("NOTIFY_QUEUE_SIZE", 256),
			MaxAttempts:    getEnvAsInt("NOTIFY_MAX_ATTEMPTS", 3),
			InitialBackoff: getEnvAsDuration("NOTIFY_BACKOFF", 5*time.Second),
			MaxBackoff:     getEnvAsDuration("NOTIFY_MAX_BACKOFF", 1*time.Minute),
		},
		Geo: GeoConfig{
			BaseURL: getEnv("GEO_BASE_URL", "http://ip-api.com/json"),
			Timeout: getEnvAsDuration("GEO_TIMEOUT", 5*time.Second),
			Window:  getEnvAsDuration("GEO_WINDOW", 30*24*time.Hour),
		},
		Google: GoogleConfig{
			ClientID: getEnv("GOOGLE_CLIENT_ID", ""),
		},
	}

	if cfg.Database.Password == "" {
		return nil, fmt.Errorf("DB_PASSWORD is required")
	}

	if err := validateJWTSecret(jwtSecret, env); err != nil {
		return nil, err
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	switch c.Cache.Backend {
	case "redis", "memory":
	default:
		return fmt.Errorf("CACHE_BACKEND must be redis or memory (got %q)", c.Cache.Backend)
	}

	switch c.Email.Provider {
	case "smtp":
		if c.Email.SMTPUsername == "" || c.Email.SMTPPassword == "" {
			return fmt.Errorf("SMTP_USERNAME and SMTP_PASSWORD are required for the smtp email provider")
		}
	case "ses", "log":
	default:
		return fmt.Errorf("EMAIL_PROVIDER must be smtp, ses or log (got %q)", c.Email.Provider)
	}

	if c.Lockout.MaxFailedAttempts < 1 {
		return fmt.Errorf("MAX_FAILED_ATTEMPTS must be at least 1")
	}
	if c.Notify.Workers < 1 || c.Notify.MaxAttempts < 1 {
		return fmt.Errorf("NOTIFY_WORKERS and NOTIFY_MAX_ATTEMPTS must be at least 1")
	}

	if c.Server.Env == "production" && c.Email.Provider == "log" {
		return fmt.Errorf("EMAIL_PROVIDER=log is not allowed in production")
	}

	return nil
}

// validateJWTSecret enforces minimum security standards for JWT secret
func validateJWTSecret(secret, env string) error {
	minLength := 16
	if env == "production" {
		minLength = 32
	}

	if len(secret) < minLength {
		return fmt.Errorf("JWT_SECRET must be at least %d characters in %s environment (got %d)",
			minLength, env, len(secret))
	}

	weakSecrets := []string{
		"secret", "test", "password", "12345", "changeme",
		"admin", "root", "default", "example",
	}

	secretLower := strings.ToLower(secret)
	for _, weak := range weakSecrets {
		if secretLower == weak {
			return fmt.Errorf("JWT_SECRET cannot be a common weak value")
		}
	}

	return nil
}

func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode,
	)
}

func getEnv(key, defaultVal string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultVal
}

func getEnvAsInt(key string, defaultVal int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultVal
}

func getEnvAsBool(key string, defaultVal bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultVal
}

func getEnvAsDuration(key string, defaultVal time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultVal
}

// getEnvAsList splits a comma-separated variable, dropping empty entries.
func getEnvAsList(key string) []string {
	raw := getEnv(key, "")
	if raw == "" {
		return nil
	}
	var out []string
	for _, item := range strings.Split(raw, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
