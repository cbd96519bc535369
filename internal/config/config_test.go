package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("APP_ENV", "development")
	t.Setenv("JWT_SECRET", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 8000, cfg.Port)
	assert.Equal(t, "sqlite", cfg.DBDriver)
	assert.Equal(t, 1000, cfg.RateLimitPerMinute)
	assert.NotEmpty(t, cfg.JWTSecret, "development falls back to a built-in secret")
	assert.False(t, cfg.SMTPEnabled())
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("DB_DRIVER", "postgres")
	t.Setenv("PORT", "9090")
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("SMTP_HOST", "mail.local")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, "s3cret", cfg.JWTSecret)
	assert.True(t, cfg.SMTPEnabled())
}

func TestValidate(t *testing.T) {
	cfg := &Config{DBDriver: "mysql"}
	assert.Error(t, cfg.Validate())

	cfg = &Config{DBDriver: "postgres", Env: "production"}
	assert.EqualError(t, cfg.Validate(), "JWT_SECRET is required in production")

	cfg = &Config{DBDriver: "postgres", Env: "production", JWTSecret: "x"}
	assert.NoError(t, cfg.Validate())
}

func TestAllowedOrigins(t *testing.T) {
	assert.Nil(t, (&Config{CORSOrigins: "*"}).AllowedOrigins())
	assert.Nil(t, (&Config{}).AllowedOrigins())
	assert.Equal(t,
		[]string{"https://app.example.com", "http://localhost:5173"},
		(&Config{CORSOrigins: " https://app.example.com/ ,http://localhost:5173,"}).AllowedOrigins())
}
