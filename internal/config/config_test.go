package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("JWT_SECRET", "a-sufficiently-long-test-secret-value")
	t.Setenv("DB_PASSWORD", "test-db-password")
}

func TestLoad_Defaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "development", cfg.Server.Env)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)

	assert.Equal(t, 15*time.Minute, cfg.Auth.AccessTokenExpiry)
	assert.Equal(t, 7*24*time.Hour, cfg.Auth.RefreshTokenExpiry)
	assert.Equal(t, 3*time.Minute, cfg.Auth.ResetTokenExpiry)
	assert.Equal(t, 5, cfg.Auth.MaxFailedLogins)
	assert.False(t, cfg.Auth.SecureCookies)

	assert.Equal(t, 10*time.Minute, cfg.OTP.TTL)
	assert.Equal(t, 30*time.Second, cfg.OTP.PendingGrace)
	assert.Equal(t, 3, cfg.OTP.ResendMax)
	assert.Equal(t, 10*time.Minute, cfg.OTP.ResendWindow)
}

func TestLoad_MissingJWTSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	t.Setenv("DB_PASSWORD", "test-db-password")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoad_MissingDBPassword(t *testing.T) {
	t.Setenv("JWT_SECRET", "a-sufficiently-long-test-secret-value")
	t.Setenv("DB_PASSWORD", "")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoad_ShortJWTSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "short")
	t.Setenv("DB_PASSWORD", "test-db-password")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoad_ProductionRequiresLongerSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "only-twenty-chars-xx")
	t.Setenv("DB_PASSWORD", "test-db-password")
	t.Setenv("ENV", "production")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoad_ProductionSecureCookies(t *testing.T) {
	t.Setenv("JWT_SECRET", "a-sufficiently-long-production-secret-value!")
	t.Setenv("DB_PASSWORD", "test-db-password")
	t.Setenv("ENV", "production")
	t.Setenv("ALLOWED_ORIGINS", "https://portal.example.com, https://app.example.com")

	cfg, err := Load()
	require.NoError(t, err)

	assert.True(t, cfg.Auth.SecureCookies)
	assert.Equal(t, []string{"https://portal.example.com", "https://app.example.com"}, cfg.Server.AllowedOrigins)
}

func TestLoad_Overrides(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("OTP_TTL", "5m")
	t.Setenv("MAX_FAILED_LOGINS", "3")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 5*time.Minute, cfg.OTP.TTL)
	assert.Equal(t, 3, cfg.Auth.MaxFailedLogins)
}

func TestDatabaseConfigDSN(t *testing.T) {
	cfg := DatabaseConfig{
		Host: "db.internal", Port: 5433, User: "rukun",
		Password: "pw", Name: "rukun", SSLMode: "require",
	}

	assert.Equal(t,
		"host=db.internal port=5433 user=rukun password=pw dbname=rukun sslmode=require",
		cfg.DSN())
}
