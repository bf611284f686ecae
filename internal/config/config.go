package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// InfluxConfig locates the InfluxDB database holding SODAR wind profiles.
type InfluxConfig struct {
	Addr        string
	User        string
	Password    string
	Database    string
	Measurement string
}

// Enabled reports whether an InfluxDB address is configured.
func (c InfluxConfig) Enabled() bool {
	return c.Addr != ""
}

type AppConfig struct {
	AppEnv   string
	LogLevel slog.Level
	Port     string

	// UpstreamURL is the data API the dashboard reads readings from.
	UpstreamURL        string
	HTTPTimeout        time.Duration
	UpstreamMaxRetries int

	// RefreshInterval controls how often summary snapshots are refetched.
	RefreshInterval time.Duration
	// SnapshotTTL is how long a summary snapshot answers requests on its own.
	SnapshotTTL time.Duration

	// In-memory snapshot retention.
	StoreMaxHistory int           // max number of snapshots per key (0 = unlimited)
	StoreMaxAge     time.Duration // max age of snapshots (0 = unlimited)

	PageSize int

	// BarometerDBPath enables the data API routes backed by SQLite.
	BarometerDBPath string
	Influx          InfluxConfig
}

// Load reads configuration from .env and the environment with sensible defaults.
func Load() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil {
		slog.Debug("no .env file loaded", "error", err)
	}
	cfg := &AppConfig{}

	cfg.AppEnv = getenvDefault("APP_ENV", "dev")
	level, err := parseLevel(getenvDefault("LOG_LEVEL", "info"))
	if err != nil {
		return nil, err
	}
	cfg.LogLevel = level
	cfg.Port = getenvDefault("PORT", "8080")

	cfg.UpstreamURL = getenvDefault("UPSTREAM_URL", "http://127.0.0.1:8000")
	if cfg.HTTPTimeout, err = getenvDuration("HTTP_TIMEOUT", "15s"); err != nil {
		return nil, err
	}
	cfg.UpstreamMaxRetries = getenvInt("UPSTREAM_MAX_RETRIES", 0)
	if cfg.UpstreamMaxRetries < 0 {
		return nil, fmt.Errorf("invalid UPSTREAM_MAX_RETRIES: must not be negative")
	}

	if cfg.RefreshInterval, err = getenvDuration("REFRESH_INTERVAL", "15m"); err != nil {
		return nil, err
	}
	if cfg.SnapshotTTL, err = getenvDuration("SNAPSHOT_TTL", "1m"); err != nil {
		return nil, err
	}

	cfg.StoreMaxHistory = getenvInt("STORE_MAX_HISTORY", 96) // roughly 24h at 15-minute intervals
	if cfg.StoreMaxAge, err = getenvDuration("STORE_MAX_AGE", "24h"); err != nil {
		return nil, err
	}

	cfg.PageSize = getenvInt("PAGE_SIZE", 10)
	if cfg.PageSize <= 0 {
		return nil, fmt.Errorf("invalid PAGE_SIZE: must be positive")
	}

	cfg.BarometerDBPath = os.Getenv("BAROMETER_DB_PATH")
	cfg.Influx = InfluxConfig{
		Addr:        os.Getenv("INFLUX_ADDR"),
		User:        os.Getenv("INFLUX_USER"),
		Password:    os.Getenv("INFLUX_PASSWORD"),
		Database:    getenvDefault("INFLUX_DB", "sodar_data"),
		Measurement: getenvDefault("INFLUX_MEASUREMENT", "wind_profile"),
	}

	return cfg, nil
}

func parseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.ToUpper(s))); err != nil {
		return 0, fmt.Errorf("invalid LOG_LEVEL: %w", err)
	}
	return level, nil
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvDuration(key, def string) (time.Duration, error) {
	d, err := time.ParseDuration(getenvDefault(key, def))
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		n, err := strconv.Atoi(v)
		if err == nil {
			return n
		}
	}
	return def
}
