package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/crypto/bcrypt"
)

const (
	defaultAppName          = "CongoATM"
	defaultAppEnv           = "development"
	defaultPort             = "8080"
	defaultLogLevel         = "info"
	defaultShutdownDelay    = 10 * time.Second
	defaultIdempotencyTTL   = 24 * time.Hour
	defaultSessionTTL       = 15 * time.Minute
	defaultLockoutWindow    = 15 * time.Minute
	defaultMaxLoginAttempts = 3
	defaultInboxSize        = 50
	defaultBodyLimit        = 16 * 1024
	devSessionSecret        = "dev-only-session-secret"
)

// Config captures runtime configuration loaded from environment variables.
type Config struct {
	AppName          string
	AppEnv           string
	Port             string
	LogLevel         string
	RedisURL         string
	SessionSecret    string
	ShutdownPeriod   time.Duration
	IdempotencyTTL   time.Duration
	SessionTTL       time.Duration
	LockoutWindow    time.Duration
	MaxLoginAttempts int
	PINHashCost      int
	// InboxSize caps pending notifications kept per account.
	InboxSize int
	// BodyLimit is the largest accepted HTTP request body in bytes.
	BodyLimit int
}

// Load reads an optional .env file and then the environment.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}
	return FromEnv()
}

// FromEnv populates a Config from the process environment only.
func FromEnv() (Config, error) {
	cfg := Config{
		AppName:          getEnv("APP_NAME", defaultAppName),
		AppEnv:           strings.ToLower(getEnv("APP_ENV", defaultAppEnv)),
		Port:             getEnv("PORT", defaultPort),
		LogLevel:         strings.ToLower(getEnv("LOG_LEVEL", defaultLogLevel)),
		RedisURL:         os.Getenv("REDIS_URL"),
		SessionSecret:    os.Getenv("SESSION_SECRET"),
	}

	var err error
	if cfg.ShutdownPeriod, err = durationEnv("SHUTDOWN_TIMEOUT", defaultShutdownDelay); err != nil {
		return Config{}, err
	}
	if cfg.IdempotencyTTL, err = durationEnv("IDEMPOTENCY_TTL", defaultIdempotencyTTL); err != nil {
		return Config{}, err
	}
	if cfg.SessionTTL, err = durationEnv("SESSION_TTL", defaultSessionTTL); err != nil {
		return Config{}, err
	}
	if cfg.LockoutWindow, err = durationEnv("LOCKOUT_WINDOW", defaultLockoutWindow); err != nil {
		return Config{}, err
	}

	if cfg.MaxLoginAttempts, err = positiveIntEnv("MAX_LOGIN_ATTEMPTS", defaultMaxLoginAttempts); err != nil {
		return Config{}, err
	}
	if cfg.InboxSize, err = positiveIntEnv("INBOX_SIZE", defaultInboxSize); err != nil {
		return Config{}, err
	}
	if cfg.BodyLimit, err = positiveIntEnv("BODY_LIMIT_BYTES", defaultBodyLimit); err != nil {
		return Config{}, err
	}
	if v := os.Getenv("PIN_HASH_COST"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid PIN_HASH_COST: %w", err)
		}
		if n < bcrypt.MinCost || n > bcrypt.MaxCost {
			return Config{}, fmt.Errorf("PIN_HASH_COST must be between %d and %d, got %d", bcrypt.MinCost, bcrypt.MaxCost, n)
		}
		cfg.PINHashCost = n
	}

	if cfg.SessionSecret == "" {
		if !cfg.IsDev() {
			return Config{}, fmt.Errorf("SESSION_SECRET must be set when APP_ENV=%s", cfg.AppEnv)
		}
		cfg.SessionSecret = devSessionSecret
	}

	return cfg, nil
}

// IsDev reports whether the app runs in a local development environment.
func (c Config) IsDev() bool {
	switch c.AppEnv {
	case "dev", "development", "local", "test":
		return true
	default:
		return false
	}
}

// Address returns the listen address in the format Fiber expects.
func (c Config) Address() string {
	if strings.HasPrefix(c.Port, ":") {
		return c.Port
	}
	return fmt.Sprintf(":%s", c.Port)
}

// durationEnv reads KEY_SECONDS as whole seconds, falling back to KEY as a
// Go duration string.
func durationEnv(key string, fallback time.Duration) (time.Duration, error) {
	if v := os.Getenv(key + "_SECONDS"); v != "" {
		seconds, err := strconv.Atoi(v)
		if err != nil {
			return 0, fmt.Errorf("invalid %s_SECONDS: %w", key, err)
		}
		return time.Duration(seconds) * time.Second, nil
	}
	if v := os.Getenv(key); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return 0, fmt.Errorf("invalid %s: %w", key, err)
		}
		return d, nil
	}
	return fallback, nil
}

func positiveIntEnv(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid %s: %q", key, v)
	}
	return n, nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
