package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Config captures runtime configuration sourced from environment variables.
type Config struct {
	Environment string
	HTTPPort    string
	Debug       bool
	LogDir      string

	Detection DetectionConfig
	Audit     AuditConfig
	Auth      AuthConfig
	Schedule  ScheduleConfig

	NotifyURLs     []string
	AllowedOrigins []string
}

// DetectionConfig tunes the classifier and the ledger.
type DetectionConfig struct {
	RulesFile      string
	RateWindow     time.Duration
	RateThreshold  int
	LedgerCapacity int
}

// AuditConfig points the decision audit trail at a SQLite DSN.
type AuditConfig struct {
	DSN string
}

// AuthConfig guards the admin endpoints. An empty AdminTokenHash disables the
// guard.
type AuthConfig struct {
	AdminTokenHash string
	JWTSecret      string
	JWTTTL         time.Duration
}

// ScheduleConfig holds cron specs for background jobs. Empty disables a job.
type ScheduleConfig struct {
	Sweep  string
	Status string
}

// Load reads env vars and falls back to defaults so the server can boot with zero configuration.
func Load() (Config, error) {
	cfg := Config{
		Environment: getEnv("CHIMERA_ENV", "development"),
		HTTPPort:    getEnv("CHIMERA_HTTP_PORT", "8000"),
		LogDir:      getEnv("CHIMERA_LOG_DIR", filepath.Join("data", "logs")),
		Detection: DetectionConfig{
			RulesFile: os.Getenv("CHIMERA_RULES_FILE"),
		},
		Audit: AuditConfig{
			DSN: getEnv("CHIMERA_AUDIT_DSN", "file::memory:?cache=shared"),
		},
		Auth: AuthConfig{
			AdminTokenHash: os.Getenv("CHIMERA_ADMIN_TOKEN_HASH"),
			JWTSecret:      os.Getenv("CHIMERA_JWT_SECRET"),
		},
		Schedule: ScheduleConfig{
			Sweep:  getEnv("CHIMERA_SWEEP_SCHEDULE", "@every 1m"),
			Status: getEnv("CHIMERA_STATUS_SCHEDULE", "@every 5m"),
		},
		NotifyURLs:     splitList(os.Getenv("CHIMERA_NOTIFY_URLS")),
		AllowedOrigins: splitList(getEnv("CHIMERA_ALLOWED_ORIGINS", "http://localhost:5173")),
	}

	var err error
	if cfg.Debug, err = getBool("CHIMERA_DEBUG", false); err != nil {
		return Config{}, err
	}
	if cfg.Detection.RateWindow, err = getDuration("CHIMERA_RATE_WINDOW", 10*time.Second); err != nil {
		return Config{}, err
	}
	if cfg.Detection.RateThreshold, err = getInt("CHIMERA_RATE_THRESHOLD", 20); err != nil {
		return Config{}, err
	}
	if cfg.Detection.LedgerCapacity, err = getInt("CHIMERA_LEDGER_CAPACITY", 0); err != nil {
		return Config{}, err
	}
	if cfg.Auth.JWTTTL, err = getDuration("CHIMERA_JWT_TTL", 24*time.Hour); err != nil {
		return Config{}, err
	}

	if cfg.Detection.RateWindow <= 0 {
		return Config{}, fmt.Errorf("CHIMERA_RATE_WINDOW must be positive")
	}
	if cfg.Detection.RateThreshold <= 0 {
		return Config{}, fmt.Errorf("CHIMERA_RATE_THRESHOLD must be positive")
	}
	if cfg.Detection.LedgerCapacity < 0 {
		return Config{}, fmt.Errorf("CHIMERA_LEDGER_CAPACITY must not be negative")
	}

	return cfg, nil
}

// IsDevelopment reports whether the service runs in development mode.
func (c Config) IsDevelopment() bool {
	return c.Environment == "development"
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}

	return fallback
}

func getInt(key string, fallback int) (int, error) {
	val := os.Getenv(key)
	if val == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	return n, nil
}

func getBool(key string, fallback bool) (bool, error) {
	val := os.Getenv(key)
	if val == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(val)
	if err != nil {
		return false, fmt.Errorf("parse %s: %w", key, err)
	}
	return b, nil
}

func getDuration(key string, fallback time.Duration) (time.Duration, error) {
	val := os.Getenv(key)
	if val == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	return d, nil
}

func splitList(val string) []string {
	var out []string
	for _, part := range strings.Split(val, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
