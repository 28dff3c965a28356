package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("JWT_SECRET", "test-secret-32-characters-long!")
	t.Setenv("DB_PASSWORD", "test")
}

func TestLoad_Defaults(t *testing.T) {
	setRequired(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.Server.Env)
	assert.Equal(t, 15*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, 15*time.Second, cfg.Server.WriteTimeout)
	assert.Equal(t, 60*time.Second, cfg.Server.IdleTimeout)
	assert.Empty(t, cfg.Server.TrustedProxies)

	assert.Equal(t, time.Hour, cfg.Auth.AccessTokenExpiry)
	assert.Equal(t, 7*24*time.Hour, cfg.Auth.RefreshTokenExpiry)

	assert.Equal(t, "redis", cfg.Cache.Backend)
	assert.Equal(t, "auth", cfg.Cache.KeyPrefix)
	assert.Equal(t, 1, cfg.Cache.RedisDB)

	assert.Equal(t, 5, cfg.Lockout.MaxFailedAttempts)
	assert.Equal(t, 30*time.Minute, cfg.Lockout.Duration)
	assert.False(t, cfg.Lockout.AtomicCounter)

	assert.Equal(t, 10*time.Minute, cfg.OTP.TTL)

	assert.Equal(t, "log", cfg.Email.Provider)
	assert.Equal(t, "Nexus E-commerce", cfg.Email.AppName)

	assert.Equal(t, 4, cfg.Notify.Workers)
	assert.Equal(t, 3, cfg.Notify.MaxAttempts)
	assert.Equal(t, 5*time.Second, cfg.Notify.InitialBackoff)

	assert.Equal(t, "http://ip-api.com/json", cfg.Geo.BaseURL)
	assert.Equal(t, 5*time.Second, cfg.Geo.Timeout)
	assert.Equal(t, 30*24*time.Hour, cfg.Geo.Window)
}

func TestLoad_CustomValues(t *testing.T) {
	setRequired(t)
	t.Setenv("SERVER_READ_TIMEOUT", "30s")
	t.Setenv("TRUSTED_PROXIES", "10.0.0.0/8, 172.16.0.0/12,")
	t.Setenv("CACHE_BACKEND", "memory")
	t.Setenv("LOCKOUT_ATOMIC_COUNTER", "true")
	t.Setenv("MAX_FAILED_ATTEMPTS", "3")
	t.Setenv("NOTIFY_WORKERS", "8")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 30*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, []string{"10.0.0.0/8", "172.16.0.0/12"}, cfg.Server.TrustedProxies)
	assert.Equal(t, "memory", cfg.Cache.Backend)
	assert.True(t, cfg.Lockout.AtomicCounter)
	assert.Equal(t, 3, cfg.Lockout.MaxFailedAttempts)
	assert.Equal(t, 8, cfg.Notify.Workers)
}

func TestLoad_InvalidValuesFallBackToDefaults(t *testing.T) {
	setRequired(t)
	t.Setenv("SERVER_READ_TIMEOUT", "not-a-duration")
	t.Setenv("DB_PORT", "abc")
	t.Setenv("LOCKOUT_ATOMIC_COUNTER", "maybe")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 15*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, 5432, cfg.Database.Port)
	assert.False(t, cfg.Lockout.AtomicCounter)
}

func TestLoad_MissingRequired(t *testing.T) {
	t.Run("jwt secret", func(t *testing.T) {
		t.Setenv("JWT_SECRET", "")
		t.Setenv("DB_PASSWORD", "test")
		_, err := Load()
		assert.ErrorContains(t, err, "JWT_SECRET is required")
	})

	t.Run("db password", func(t *testing.T) {
		t.Setenv("JWT_SECRET", "test-secret-32-characters-long!")
		t.Setenv("DB_PASSWORD", "")
		_, err := Load()
		assert.ErrorContains(t, err, "DB_PASSWORD is required")
	})
}

func TestLoad_RejectsUnknownBackends(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
		want string
	}{
		{"cache backend", "CACHE_BACKEND", "memcached", "CACHE_BACKEND"},
		{"email provider", "EMAIL_PROVIDER", "pigeon", "EMAIL_PROVIDER"},
		{"smtp without credentials", "EMAIL_PROVIDER", "smtp", "SMTP_USERNAME"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setRequired(t)
			t.Setenv(tt.key, tt.val)
			_, err := Load()
			assert.ErrorContains(t, err, tt.want)
		})
	}
}

func TestLoad_ProductionRequiresRealMailer(t *testing.T) {
	setRequired(t)
	t.Setenv("ENV", "production")
	t.Setenv("JWT_SECRET", "a-production-secret-that-is-long-enough-123")

	_, err := Load()
	assert.ErrorContains(t, err, "EMAIL_PROVIDER=log")
}

func TestValidateJWTSecret(t *testing.T) {
	tests := []struct {
		name    string
		secret  string
		env     string
		wantErr bool
	}{
		{"dev minimum", "0123456789abcdef", "development", false},
		{"dev too short", "short", "development", true},
		{"production too short", "0123456789abcdef", "production", true},
		{"production ok", "0123456789abcdef0123456789abcdef", "production", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateJWTSecret(tt.secret, tt.env)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestDatabaseConfig_DSN(t *testing.T) {
	c := DatabaseConfig{Host: "db", Port: 5433, User: "u", Password: "p", Name: "nexus", SSLMode: "disable"}
	assert.Equal(t, "host=db port=5433 user=u password=p dbname=nexus sslmode=disable", c.DSN())
}
