package config

import (
	"os"
	"testing"
)

func TestLoad_RequiresDatabaseURL(t *testing.T) {
	os.Unsetenv("DATABASE_URL")
	if _, err := Load(); err == nil {
		t.Error("expected error when DATABASE_URL is missing")
	}
}

func TestLoad_Defaults(t *testing.T) {
	os.Setenv("DATABASE_URL", "postgres://localhost/carelink_test")
	defer os.Unsetenv("DATABASE_URL")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Port != "8000" {
		t.Errorf("port = %q, want 8000", cfg.Port)
	}
	if cfg.DefaultTenant != "default" {
		t.Errorf("tenant = %q, want default", cfg.DefaultTenant)
	}
	if cfg.MaxFileSizeMB != 15 {
		t.Errorf("max file size = %d, want 15", cfg.MaxFileSizeMB)
	}
	if cfg.DefaultLang != "en" {
		t.Errorf("default lang = %q, want en", cfg.DefaultLang)
	}
}

func TestValidate_ProductionNeedsAuth(t *testing.T) {
	cfg := &Config{Env: "production", DefaultLang: "en", MaxFileSizeMB: 15}
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for production without auth configuration")
	}

	cfg.JWTSigningKey = "secret"
	if err := cfg.Validate(); err != nil {
		t.Errorf("unexpected error with signing key: %v", err)
	}
}

func TestValidate_Language(t *testing.T) {
	cfg := &Config{Env: "development", DefaultLang: "fr", MaxFileSizeMB: 15}
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for unsupported language")
	}
	cfg.DefaultLang = "rw"
	if err := cfg.Validate(); err != nil {
		t.Errorf("unexpected error for rw: %v", err)
	}
}

func TestMaxFileSizeBytes(t *testing.T) {
	cfg := &Config{MaxFileSizeMB: 15}
	if got := cfg.MaxFileSizeBytes(); got != 15*1024*1024 {
		t.Errorf("bytes = %d, want %d", got, 15*1024*1024)
	}
}
