package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

type Config struct {
	App        AppConfig
	Server     ServerConfig
	Database   DatabaseConfig
	Redis      RedisConfig
	JWT        JWTConfig
	Log        LogConfig
	Scheduling SchedulingConfig
	Cron       CronConfig
	Mail       MailConfig
}

type AppConfig struct {
	Environment string
}

type ServerConfig struct {
	Port            int
	ShutdownTimeout time.Duration
	CORSOrigins     string
}

func (s ServerConfig) Address() string {
	return fmt.Sprintf(":%d", s.Port)
}

type DatabaseConfig struct {
	Driver       string
	URL          string
	MaxOpenConns int
	MaxIdleConns int
}

type RedisConfig struct {
	// Addr empty disables the availability cache.
	Addr     string
	Password string
	DB       int
	CacheTTL time.Duration
}

type JWTConfig struct {
	Secret string
}

type LogConfig struct {
	Level  string
	Format string
}

type SchedulingConfig struct {
	Timezone           string
	DefaultSlotMinutes int
	CancellationWindow time.Duration
}

type CronConfig struct {
	SweepSchedule    string
	ReminderSchedule string
	ReminderLead     time.Duration
}

type MailConfig struct {
	// Host empty disables outgoing mail.
	Host     string
	Port     int
	User     string
	Password string
	From     string
}

// Load reads .env (when present) and the process environment.
func Load() (*Config, error) {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	v := viper.New()
	v.AutomaticEnv()
	setDefaults(v)

	cfg := &Config{
		App: AppConfig{
			Environment: v.GetString("APP_ENV"),
		},
		Server: ServerConfig{
			Port:            v.GetInt("PORT"),
			ShutdownTimeout: v.GetDuration("SHUTDOWN_TIMEOUT"),
			CORSOrigins:     v.GetString("CORS_ORIGINS"),
		},
		Database: DatabaseConfig{
			Driver:       strings.ToLower(v.GetString("STORE_DRIVER")),
			URL:          v.GetString("DATABASE_URL"),
			MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
			MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
		},
		Redis: RedisConfig{
			Addr:     v.GetString("REDIS_ADDR"),
			Password: v.GetString("REDIS_PASSWORD"),
			DB:       v.GetInt("REDIS_DB"),
			CacheTTL: v.GetDuration("AVAILABILITY_CACHE_TTL"),
		},
		JWT: JWTConfig{
			Secret: v.GetString("JWT_SECRET"),
		},
		Log: LogConfig{
			Level:  v.GetString("LOG_LEVEL"),
			Format: v.GetString("LOG_FORMAT"),
		},
		Scheduling: SchedulingConfig{
			Timezone:           v.GetString("CLINIC_TIMEZONE"),
			DefaultSlotMinutes: v.GetInt("DEFAULT_SLOT_MINUTES"),
			CancellationWindow: v.GetDuration("CANCELLATION_WINDOW"),
		},
		Cron: CronConfig{
			SweepSchedule:    v.GetString("SWEEP_SCHEDULE"),
			ReminderSchedule: v.GetString("REMINDER_SCHEDULE"),
			ReminderLead:     v.GetDuration("REMINDER_LEAD"),
		},
		Mail: MailConfig{
			Host:     v.GetString("SMTP_HOST"),
			Port:     v.GetInt("SMTP_PORT"),
			User:     v.GetString("EMAIL_USER"),
			Password: v.GetString("EMAIL_PASS"),
			From:     v.GetString("EMAIL_FROM"),
		},
	}
	if cfg.Mail.From == "" {
		cfg.Mail.From = cfg.Mail.User
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("PORT", 8000)
	v.SetDefault("SHUTDOWN_TIMEOUT", 15*time.Second)
	v.SetDefault("CORS_ORIGINS", "*")
	v.SetDefault("STORE_DRIVER", DriverPostgres)
	v.SetDefault("DB_MAX_OPEN_CONNS", 25)
	v.SetDefault("DB_MAX_IDLE_CONNS", 10)
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("AVAILABILITY_CACHE_TTL", 2*time.Minute)
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")
	v.SetDefault("CLINIC_TIMEZONE", "UTC")
	v.SetDefault("DEFAULT_SLOT_MINUTES", 30)
	v.SetDefault("CANCELLATION_WINDOW", 24*time.Hour)
	v.SetDefault("SWEEP_SCHEDULE", "*/15 * * * *")
	v.SetDefault("REMINDER_SCHEDULE", "0 * * * *")
	v.SetDefault("REMINDER_LEAD", 24*time.Hour)
	v.SetDefault("SMTP_PORT", 587)
}

func validate(cfg *Config) error {
	var errs []string

	if cfg.JWT.Secret == "" {
		errs = append(errs, "JWT_SECRET is required")
	} else if len(cfg.JWT.Secret) < 32 && cfg.App.Environment == "production" {
		errs = append(errs, "JWT_SECRET must be at least 32 characters in production")
	}

	switch cfg.Database.Driver {
	case DriverPostgres:
		if cfg.Database.URL == "" {
			errs = append(errs, "DATABASE_URL is required with STORE_DRIVER=postgres")
		}
	case DriverMemory:
		if cfg.App.Environment == "production" {
			errs = append(errs, "STORE_DRIVER=memory is not allowed in production")
		}
	default:
		errs = append(errs, fmt.Sprintf("STORE_DRIVER must be %q or %q", DriverPostgres, DriverMemory))
	}

	if _, err := time.LoadLocation(cfg.Scheduling.Timezone); err != nil {
		errs = append(errs, fmt.Sprintf("CLINIC_TIMEZONE %q is not a known location", cfg.Scheduling.Timezone))
	}
	if cfg.Scheduling.DefaultSlotMinutes <= 0 {
		errs = append(errs, "DEFAULT_SLOT_MINUTES must be positive")
	}
	if cfg.Scheduling.CancellationWindow < 0 {
		errs = append(errs, "CANCELLATION_WINDOW must not be negative")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
