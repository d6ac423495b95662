package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// AppConfig holds all configuration for the application
type AppConfig struct {
	TelegramToken   string
	DatabaseURL     string
	AdminTelegramID int64
	LogLevel        string
	Environment     string

	// Delivery engine tuning.
	TickInterval         time.Duration // poller wake-up period
	DueTolerance         time.Duration // window around a schedule's local instant
	DispatchMessageDelay time.Duration // pause between consecutive sends
	DispatchBatchSize    int           // sends before the longer pause kicks in
	DispatchBatchDelay   time.Duration // the longer pause
	DefaultTimezone      string        // fallback IANA zone for orgs without one

	// Challenge staging and promotion.
	SlotMorning   string // "HH:MM" local wall-clock per slot
	SlotAfternoon string
	SlotEvening   string
	StagingTTL    time.Duration
	SweepInterval time.Duration
}

// Load reads configuration from environment variables and .env file (if present).
func Load() (*AppConfig, error) {
	// Attempt to load .env file. Errors are ignored if the file doesn't exist.
	// godotenv.Load will not override existing env variables.
	_ = godotenv.Load()

	cfg := &AppConfig{}
	var err error

	cfg.TelegramToken = os.Getenv("TELEGRAM_TOKEN")
	if cfg.TelegramToken == "" {
		return nil, fmt.Errorf("TELEGRAM_TOKEN is not set")
	}

	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is not set")
	}

	adminIDStr := os.Getenv("ADMIN_TELEGRAM_ID")
	if adminIDStr == "" {
		return nil, fmt.Errorf("ADMIN_TELEGRAM_ID is not set")
	}
	cfg.AdminTelegramID, err = strconv.ParseInt(adminIDStr, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid ADMIN_TELEGRAM_ID: %w", err)
	}

	cfg.LogLevel = strings.ToLower(os.Getenv("LOG_LEVEL"))
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info" // Default log level
	}

	cfg.Environment = strings.ToLower(os.Getenv("ENVIRONMENT"))
	if cfg.Environment == "" {
		cfg.Environment = "development" // Default environment
	}

	if cfg.TickInterval, err = envDuration("TICK_INTERVAL", time.Minute); err != nil {
		return nil, err
	}
	if cfg.DueTolerance, err = envDuration("DUE_TOLERANCE", 5*time.Minute); err != nil {
		return nil, err
	}
	if cfg.DispatchMessageDelay, err = envDuration("DISPATCH_MESSAGE_DELAY", 100*time.Millisecond); err != nil {
		return nil, err
	}
	if cfg.DispatchBatchSize, err = envInt("DISPATCH_BATCH_SIZE", 25); err != nil {
		return nil, err
	}
	if cfg.DispatchBatchDelay, err = envDuration("DISPATCH_BATCH_DELAY", 2*time.Second); err != nil {
		return nil, err
	}

	cfg.DefaultTimezone = os.Getenv("DEFAULT_TIMEZONE")
	if cfg.DefaultTimezone == "" {
		cfg.DefaultTimezone = "Europe/Moscow"
	}

	if cfg.SlotMorning, err = envClock("SLOT_MORNING", "09:00"); err != nil {
		return nil, err
	}
	if cfg.SlotAfternoon, err = envClock("SLOT_AFTERNOON", "14:00"); err != nil {
		return nil, err
	}
	if cfg.SlotEvening, err = envClock("SLOT_EVENING", "19:00"); err != nil {
		return nil, err
	}

	ttlHours, err := envInt("STAGING_TTL_HOURS", 24)
	if err != nil {
		return nil, err
	}
	cfg.StagingTTL = time.Duration(ttlHours) * time.Hour

	if cfg.SweepInterval, err = envDuration("SWEEP_INTERVAL", 6*time.Hour); err != nil {
		return nil, err
	}

	return cfg, nil
}

func envDuration(name string, def time.Duration) (time.Duration, error) {
	raw := os.Getenv(name)
	if raw == "" {
		return def, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", name, err)
	}
	return d, nil
}

func envInt(name string, def int) (int, error) {
	raw := os.Getenv(name)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", name, err)
	}
	return n, nil
}

func envClock(name, def string) (string, error) {
	raw := os.Getenv(name)
	if raw == "" {
		raw = def
	}
	if _, err := time.Parse("15:04", raw); err != nil {
		return "", fmt.Errorf("invalid %s (want HH:MM): %w", name, err)
	}
	return raw, nil
}
