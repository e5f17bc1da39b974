package config_test

import (
	"testing"
	"time"

	"student-records/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_MissingSecretIsFatal(t *testing.T) {
	t.Setenv("ENV", "test")
	t.Setenv("JWT_SECRET", "")

	cfg, err := config.Load()

	assert.Nil(t, cfg)
	assert.ErrorIs(t, err, config.ErrMissingJWTSecret)
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("ENV", "test")
	t.Setenv("JWT_SECRET", "test-secret-key-for-testing")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, "test", cfg.Env)
	assert.Equal(t, "3000", cfg.Server.Port)
	assert.Equal(t, 24*time.Hour, cfg.Auth.TokenTTL)
	assert.Equal(t, 10, cfg.Auth.BcryptCost)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, "none", cfg.Events.Driver)
	assert.False(t, cfg.IsDevelopment())
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("ENV", "development")
	t.Setenv("JWT_SECRET", "another-secret")
	t.Setenv("PORT", "8088")
	t.Setenv("DB_DRIVER", "postgres")
	t.Setenv("DB_HOST", "db.internal")
	t.Setenv("AUTH_TOKEN_TTL", "90m")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, "8088", cfg.Server.Port)
	assert.Equal(t, "another-secret", cfg.Auth.JWTSecret)
	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, "db.internal", cfg.Database.Host)
	assert.Equal(t, 90*time.Minute, cfg.Auth.TokenTTL)
	assert.True(t, cfg.IsDevelopment())
}

func TestValidate(t *testing.T) {
	valid := func() *config.Config {
		return &config.Config{
			Auth:     config.AuthConfig{JWTSecret: "s", TokenTTL: time.Hour},
			Database: config.DatabaseConfig{Driver: "sqlite"},
			Events:   config.EventsConfig{Driver: "none"},
		}
	}

	t.Run("Valid", func(t *testing.T) {
		assert.NoError(t, valid().Validate())
	})

	t.Run("BlankSecret", func(t *testing.T) {
		cfg := valid()
		cfg.Auth.JWTSecret = "   "
		assert.ErrorIs(t, cfg.Validate(), config.ErrMissingJWTSecret)
	})

	t.Run("UnknownDatabaseDriver", func(t *testing.T) {
		cfg := valid()
		cfg.Database.Driver = "mysql"
		assert.Error(t, cfg.Validate())
	})

	t.Run("UnknownEventsDriver", func(t *testing.T) {
		cfg := valid()
		cfg.Events.Driver = "rabbitmq"
		assert.Error(t, cfg.Validate())
	})

	t.Run("NonPositiveTTL", func(t *testing.T) {
		cfg := valid()
		cfg.Auth.TokenTTL = 0
		assert.Error(t, cfg.Validate())
	})
}
