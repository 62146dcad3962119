// Package config reads process settings from the environment.
package config

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"
)

const (
	DefaultHTTPPort        = "1234"
	DefaultGRPCPort        = "9092"
	DefaultShutdownTimeout = 10 * time.Second
)

// Config is the runtime configuration of moviesapi.
type Config struct {
	// HTTPPort comes from PORT.
	HTTPPort string
	// GRPCPort comes from GRPC_PORT. "off" disables the gRPC server.
	GRPCPort string
	// DatabaseURL selects the PostgreSQL store when set (MOVIES_DATABASE_URL).
	DatabaseURL string
	// SeedFile overrides the embedded seed dataset (MOVIES_SEED_FILE).
	SeedFile string
	// LogLevel comes from LOG_LEVEL: debug, info, warn or error.
	LogLevel slog.Level
	// CORSAllowAnyOrigin answers allowed origins with "*" (CORS_ALLOW_ANY_ORIGIN).
	CORSAllowAnyOrigin bool
	// ShutdownTimeout bounds graceful shutdown (SHUTDOWN_TIMEOUT, Go duration).
	ShutdownTimeout time.Duration
}

// GRPCEnabled reports whether the gRPC server should be started.
func (c Config) GRPCEnabled() bool {
	return c.GRPCPort != "" && !strings.EqualFold(c.GRPCPort, "off")
}

// Load builds a Config from getenv, usually os.Getenv.
func Load(getenv func(string) string) (Config, error) {
	cfg := Config{
		HTTPPort:        valueOr(getenv("PORT"), DefaultHTTPPort),
		GRPCPort:        valueOr(getenv("GRPC_PORT"), DefaultGRPCPort),
		DatabaseURL:     strings.TrimSpace(getenv("MOVIES_DATABASE_URL")),
		SeedFile:        strings.TrimSpace(getenv("MOVIES_SEED_FILE")),
		LogLevel:        slog.LevelInfo,
		ShutdownTimeout: DefaultShutdownTimeout,
	}

	if err := checkPort("PORT", cfg.HTTPPort); err != nil {
		return Config{}, err
	}
	if cfg.GRPCEnabled() {
		if err := checkPort("GRPC_PORT", cfg.GRPCPort); err != nil {
			return Config{}, err
		}
	}
	if v := getenv("LOG_LEVEL"); v != "" {
		if err := cfg.LogLevel.UnmarshalText([]byte(v)); err != nil {
			return Config{}, fmt.Errorf("invalid LOG_LEVEL %q: %w", v, err)
		}
	}
	if v := getenv("CORS_ALLOW_ANY_ORIGIN"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid CORS_ALLOW_ANY_ORIGIN %q: %w", v, err)
		}
		cfg.CORSAllowAnyOrigin = b
	}
	if v := getenv("SHUTDOWN_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid SHUTDOWN_TIMEOUT %q: %w", v, err)
		}
		if d <= 0 {
			return Config{}, fmt.Errorf("invalid SHUTDOWN_TIMEOUT %q: must be positive", v)
		}
		cfg.ShutdownTimeout = d
	}
	return cfg, nil
}

func valueOr(v, fallback string) string {
	if v = strings.TrimSpace(v); v != "" {
		return v
	}
	return fallback
}

func checkPort(name, port string) error {
	n, err := strconv.Atoi(port)
	if err != nil || n < 0 || n > 65535 {
		return fmt.Errorf("invalid %s %q: must be a port number", name, port)
	}
	return nil
}
