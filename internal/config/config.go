package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the server, worker and seeder binaries.
type Config struct {
	Addr        string
	DatabaseURL string

	// AMQPURL is optional. When empty, dispatch jobs run in-process on an
	// in-memory queue instead of being handed to the worker via RabbitMQ.
	AMQPURL string

	// SMTP settings. When SMTPHost is empty the sender is unconfigured and
	// campaigns sent in that state are marked failed.
	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string

	// Dispatch throttling. Recipients are sent in batches of BatchSize with
	// BatchDelay between batches, as a fixed-rate stand-in for real provider
	// rate limits. MaxConcurrentSends bounds how many provider calls are in
	// flight at once within a batch.
	BatchSize          int
	BatchDelay         time.Duration
	MaxConcurrentSends int

	// CronSpecScheduler drives how often the worker polls for due
	// scheduled campaigns.
	CronSpecScheduler string
}

// Load reads configuration from environment variables and .env file (if present).
func Load() (*Config, error) {
	// godotenv.Load will not override existing env variables; a missing
	// .env file is fine.
	_ = godotenv.Load()

	cfg := &Config{}

	cfg.Addr = getEnv("ADDR", ":8080")

	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	if cfg.DatabaseURL == "" {
		user := getEnv("DB_USER", "postgres")
		pass := getEnv("DB_PASSWORD", "postgres")
		host := getEnv("DB_HOST", "localhost")
		port := getEnv("DB_PORT", "5432")
		name := getEnv("DB_NAME", "flowershop")
		cfg.DatabaseURL = fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable", user, pass, host, port, name)
	}

	cfg.AMQPURL = os.Getenv("AMQP_URL")

	cfg.SMTPHost = os.Getenv("SMTP_HOST")
	cfg.SMTPUsername = os.Getenv("SMTP_USERNAME")
	cfg.SMTPPassword = os.Getenv("SMTP_PASSWORD")
	var err error
	cfg.SMTPPort, err = getEnvInt("SMTP_PORT", 587)
	if err != nil {
		return nil, err
	}

	cfg.BatchSize, err = getEnvInt("DISPATCH_BATCH_SIZE", 50)
	if err != nil {
		return nil, err
	}
	if cfg.BatchSize < 1 {
		return nil, fmt.Errorf("DISPATCH_BATCH_SIZE must be >= 1")
	}

	delayMs, err := getEnvInt("DISPATCH_BATCH_DELAY_MS", 1000)
	if err != nil {
		return nil, err
	}
	cfg.BatchDelay = time.Duration(delayMs) * time.Millisecond

	cfg.MaxConcurrentSends, err = getEnvInt("DISPATCH_MAX_CONCURRENT_SENDS", 10)
	if err != nil {
		return nil, err
	}
	if cfg.MaxConcurrentSends < 1 {
		return nil, fmt.Errorf("DISPATCH_MAX_CONCURRENT_SENDS must be >= 1")
	}

	cfg.CronSpecScheduler = getEnv("CRON_SPEC_SCHEDULER", "@every 1m")

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}
