package config

import (
	"strings"
	"testing"

	"github.com/spf13/viper"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("DATABASE_URL", "postgres://localhost:5432/admin")
	t.Setenv("ADMIN_API_KEY", "test-signing-key")
}

func TestLoadConfigDefaults(t *testing.T) {
	viper.Reset()
	setRequiredEnv(t)

	cfg, err := LoadConfig(t.TempDir())
	if err != nil {
		t.Fatalf("expected config to load, got %v", err)
	}
	if cfg.ServerPort != "8080" {
		t.Errorf("expected default port 8080, got %q", cfg.ServerPort)
	}
	if cfg.RedisRateLimitPrefix != "flash_admin:rate_limit" {
		t.Errorf("expected default rate limit prefix, got %q", cfg.RedisRateLimitPrefix)
	}
	if cfg.AlertRateLimitPerMinute != 5 {
		t.Errorf("expected default alert rate limit 5, got %d", cfg.AlertRateLimitPerMinute)
	}
	if len(cfg.AllowedOrigins) != 1 || cfg.AllowedOrigins[0] != "*" {
		t.Errorf("expected wildcard origins by default, got %v", cfg.AllowedOrigins)
	}
}

func TestLoadConfigJWTSecretFallsBackToAPIKey(t *testing.T) {
	viper.Reset()
	setRequiredEnv(t)

	cfg, err := LoadConfig(t.TempDir())
	if err != nil {
		t.Fatalf("expected config to load, got %v", err)
	}
	if cfg.AdminJWTSecret != "test-signing-key" {
		t.Errorf("expected jwt secret to fall back to the api key, got %q", cfg.AdminJWTSecret)
	}
}

func TestLoadConfigExplicitJWTSecretWins(t *testing.T) {
	viper.Reset()
	setRequiredEnv(t)
	t.Setenv("ADMIN_JWT_SECRET", "panel-secret")

	cfg, err := LoadConfig(t.TempDir())
	if err != nil {
		t.Fatalf("expected config to load, got %v", err)
	}
	if cfg.AdminJWTSecret != "panel-secret" {
		t.Errorf("expected explicit jwt secret, got %q", cfg.AdminJWTSecret)
	}
}

func TestLoadConfigMissingAPIKey(t *testing.T) {
	viper.Reset()
	t.Setenv("DATABASE_URL", "postgres://localhost:5432/admin")
	t.Setenv("ADMIN_API_KEY", "")

	_, err := LoadConfig(t.TempDir())
	if err == nil {
		t.Fatal("expected an error for the missing api key")
	}
	if !strings.Contains(err.Error(), "ADMIN_API_KEY") {
		t.Errorf("expected the error to name ADMIN_API_KEY, got %q", err.Error())
	}
}

func TestLoadConfigParsesAllowedOrigins(t *testing.T) {
	viper.Reset()
	setRequiredEnv(t)
	t.Setenv("ALLOWED_ORIGINS", "https://admin.flash.io, https://staging.flash.io")

	cfg, err := LoadConfig(t.TempDir())
	if err != nil {
		t.Fatalf("expected config to load, got %v", err)
	}
	if len(cfg.AllowedOrigins) != 2 || cfg.AllowedOrigins[1] != "https://staging.flash.io" {
		t.Errorf("unexpected origins: %v", cfg.AllowedOrigins)
	}
}
