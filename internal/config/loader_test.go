package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadWritesDefaultConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")

	cfg, resolved, err := Load(nil, path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if resolved != path {
		t.Fatalf("resolved path %q, want %q", resolved, path)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("default config not written: %v", err)
	}
	if cfg.Addr != ":8080" || cfg.Store.Driver != DriverSQLite || cfg.Documents.MaxUploadBytes != 10<<20 {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if !cfg.Whiteboard.OptimisticBroadcast {
		t.Fatalf("optimistic broadcast should default to true")
	}
}

func TestLoadFileAndEnvPrecedence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := []byte("addr: \":9000\"\nshutdown_timeout: 2s\nstore:\n  driver: redis\nchat:\n  history_limit: 20\n")
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	t.Setenv("WIREROOM_STORE_DRIVER", "memory")
	t.Setenv("WIREROOM_AUTH_JWT_SECRET", "s3cret")

	cfg, _, err := Load(nil, path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Addr != ":9000" {
		t.Fatalf("addr from file not applied: %q", cfg.Addr)
	}
	if cfg.ShutdownTimeout != 2*time.Second {
		t.Fatalf("shutdown_timeout = %v", cfg.ShutdownTimeout)
	}
	if cfg.Store.Driver != DriverMemory {
		t.Fatalf("env should override file, got driver %q", cfg.Store.Driver)
	}
	if cfg.Auth.JWTSecret != "s3cret" {
		t.Fatalf("jwt secret from env not applied")
	}
	if cfg.Chat.HistoryLimit != 20 || cfg.Chat.MaxTextLength != 2000 {
		t.Fatalf("unexpected chat config: %+v", cfg.Chat)
	}
}

func TestValidate(t *testing.T) {
	cfg := Default()
	cfg.Store.Driver = "cassandra"
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected unknown driver error")
	}

	cfg = Default()
	cfg.Auth.Required = true
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected error when auth is required without a secret")
	}
}

func TestUpdateFrom(t *testing.T) {
	cfg := Default()
	cfg.UpdateFrom(Config{Addr: ":7000", LogLevel: "debug"})
	if cfg.Addr != ":7000" || cfg.LogLevel != "debug" {
		t.Fatalf("overrides not applied: %+v", cfg)
	}
	if cfg.ShutdownTimeout != 5*time.Second {
		t.Fatalf("zero override should keep default")
	}
}
