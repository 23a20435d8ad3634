package config

import (
	"os"
	"path/filepath"
	"testing"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{"RAB_ENV", "RAB_PORT", "RAB_DB_PATH", "RAB_LOG_LEVEL", "RAB_LOG_FORMAT", "RAB_DEFAULT_PPN_PERCENT", "RAB_SEED_ON_START"} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Port != "8080" || cfg.DBPath != "./dev.db" || cfg.LogFormat != "json" {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if cfg.DefaultPPNPercent != 11 {
		t.Fatalf("DefaultPPNPercent=%v, want 11", cfg.DefaultPPNPercent)
	}
	if !cfg.IsDev() || !cfg.ShouldSeed() {
		t.Fatalf("expected dev defaults to seed: %+v", cfg)
	}
	if cfg.Addr() != ":8080" {
		t.Fatalf("Addr=%q", cfg.Addr())
	}
}

func TestLoad_ReadsEnvAndDotEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("RAB_PORT", "9090")

	path := filepath.Join(t.TempDir(), ".env")
	content := []byte("RAB_ENV=prod\nRAB_PORT=7070\nRAB_LOG_FORMAT=Console\nRAB_DEFAULT_PPN_PERCENT=12.5\n")
	if err := os.WriteFile(path, content, 0o600); err != nil {
		t.Fatalf("write dotenv: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Port != "9090" {
		t.Fatalf("Port=%q, want env to win over dotenv", cfg.Port)
	}
	if cfg.IsDev() || cfg.ShouldSeed() {
		t.Fatalf("prod must not seed by default: %+v", cfg)
	}
	if cfg.LogFormat != "console" {
		t.Fatalf("LogFormat=%q", cfg.LogFormat)
	}
	if cfg.DefaultPPNPercent != 12.5 {
		t.Fatalf("DefaultPPNPercent=%v", cfg.DefaultPPNPercent)
	}
}

func TestLoad_RejectsBadValues(t *testing.T) {
	clearEnv(t)
	t.Setenv("RAB_DEFAULT_PPN_PERCENT", "-1")
	if _, err := Load(""); err == nil {
		t.Fatalf("expected negative PPN to fail")
	}

	t.Setenv("RAB_DEFAULT_PPN_PERCENT", "11")
	t.Setenv("RAB_SEED_ON_START", "maybe")
	if _, err := Load(""); err == nil {
		t.Fatalf("expected bad bool to fail")
	}

	t.Setenv("RAB_SEED_ON_START", "false")
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.ShouldSeed() {
		t.Fatalf("explicit false must win over dev")
	}
}
