package config

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/kelseyhightower/envconfig"
)

const (
	EnvDev  = "dev"
	EnvProd = "prod"
)

// Config holds application configuration sourced from environment variables.
type Config struct {
	Env               string  `envconfig:"RAB_ENV" default:"dev"`
	Port              string  `envconfig:"RAB_PORT" default:"8080"`
	DBPath            string  `envconfig:"RAB_DB_PATH" default:"./dev.db"`
	LogLevel          string  `envconfig:"RAB_LOG_LEVEL" default:"info"`
	LogFormat         string  `envconfig:"RAB_LOG_FORMAT" default:"json"`
	DefaultPPNPercent float64 `envconfig:"RAB_DEFAULT_PPN_PERCENT" default:"11"`
	// SeedOnStart is "true" or "false"; empty follows IsDev.
	SeedOnStart string `envconfig:"RAB_SEED_ON_START"`
}

// Load reads environment variables and returns a populated Config.
func Load(dotenvPath string) (Config, error) {
	// Best-effort: load local dev environment variables.
	// Production should use real env injection.
	if dotenvPath != "" {
		if err := loadDotEnv(dotenvPath); err != nil {
			return Config{}, fmt.Errorf("load %s: %w", dotenvPath, err)
		}
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return Config{}, fmt.Errorf("parsing config: %w", err)
	}

	cfg.LogFormat = strings.ToLower(strings.TrimSpace(cfg.LogFormat))
	if cfg.LogFormat != "console" {
		cfg.LogFormat = "json"
	}
	if cfg.DefaultPPNPercent < 0 {
		return Config{}, fmt.Errorf("RAB_DEFAULT_PPN_PERCENT must not be negative, got %v", cfg.DefaultPPNPercent)
	}
	if cfg.SeedOnStart != "" {
		if _, err := strconv.ParseBool(cfg.SeedOnStart); err != nil {
			return Config{}, fmt.Errorf("RAB_SEED_ON_START: %w", err)
		}
	}

	return cfg, nil
}

func (c Config) IsDev() bool {
	return strings.EqualFold(c.Env, EnvDev)
}

// ShouldSeed reports whether the starter catalog is loaded at startup.
func (c Config) ShouldSeed() bool {
	if c.SeedOnStart == "" {
		return c.IsDev()
	}
	v, _ := strconv.ParseBool(c.SeedOnStart)
	return v
}

// Addr is the HTTP listen address.
func (c Config) Addr() string {
	return ":" + c.Port
}
