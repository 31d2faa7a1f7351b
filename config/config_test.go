package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("DATABASE_URL", "postgres://clinic@localhost/clinic")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8000", cfg.Server.Address())
	assert.Equal(t, DriverPostgres, cfg.Database.Driver)
	assert.Equal(t, 30, cfg.Scheduling.DefaultSlotMinutes)
	assert.Equal(t, 24*time.Hour, cfg.Scheduling.CancellationWindow)
	assert.Equal(t, "UTC", cfg.Scheduling.Timezone)
	assert.Equal(t, "*/15 * * * *", cfg.Cron.SweepSchedule)
	assert.Equal(t, 2*time.Minute, cfg.Redis.CacheTTL)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("STORE_DRIVER", "MEMORY")
	t.Setenv("PORT", "9090")
	t.Setenv("CANCELLATION_WINDOW", "12h")
	t.Setenv("CLINIC_TIMEZONE", "Asia/Kolkata")
	t.Setenv("EMAIL_USER", "desk@clinic.test")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, DriverMemory, cfg.Database.Driver)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, 12*time.Hour, cfg.Scheduling.CancellationWindow)
	assert.Equal(t, "Asia/Kolkata", cfg.Scheduling.Timezone)
	assert.Equal(t, "desk@clinic.test", cfg.Mail.From)
}

func TestLoadValidation(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	t.Setenv("DATABASE_URL", "")
	t.Setenv("CLINIC_TIMEZONE", "Mars/Olympus")
	t.Setenv("DEFAULT_SLOT_MINUTES", "0")

	_, err := Load()
	require.Error(t, err)
	for _, want := range []string{"JWT_SECRET", "DATABASE_URL", "CLINIC_TIMEZONE", "DEFAULT_SLOT_MINUTES"} {
		assert.Contains(t, err.Error(), want)
	}

	t.Setenv("JWT_SECRET", "short")
	t.Setenv("APP_ENV", "production")
	t.Setenv("STORE_DRIVER", "memory")
	t.Setenv("CLINIC_TIMEZONE", "UTC")
	t.Setenv("DEFAULT_SLOT_MINUTES", "30")
	_, err = Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "at least 32 characters")
	assert.Contains(t, err.Error(), "not allowed in production")
}
