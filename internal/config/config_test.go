package config

import (
	"strings"
	"testing"
	"time"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("DATABASE_URL", "postgres://localhost:5432/holical_test?sslmode=disable")
	t.Setenv("TOKEN_SECRET", "test-secret")
}

// TestLoad_Defaults は必須変数のみ設定した場合にデフォルト値が使われることを検証する。
func TestLoad_Defaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.TokenLifetime != 30*time.Minute {
		t.Errorf("TokenLifetime = %v, want 30m", cfg.TokenLifetime)
	}
	if cfg.AdminEmail != "admin@example.com" {
		t.Errorf("AdminEmail = %q", cfg.AdminEmail)
	}
	if cfg.HolidayAPIURL != "https://date.nager.at" {
		t.Errorf("HolidayAPIURL = %q", cfg.HolidayAPIURL)
	}
	if cfg.DefaultCountry != "US" {
		t.Errorf("DefaultCountry = %q, want US", cfg.DefaultCountry)
	}
	if !cfg.StartupImport {
		t.Error("StartupImport should default to true")
	}
	if cfg.RateLimitGeneral != 120 || cfg.RateLimitImport != 10 {
		t.Errorf("rate limits = %d/%d, want 120/10", cfg.RateLimitGeneral, cfg.RateLimitImport)
	}
	if cfg.ServerPort != "8080" {
		t.Errorf("ServerPort = %q, want 8080", cfg.ServerPort)
	}
}

// TestLoad_MissingRequired は必須変数の欠落が変数名入りのエラーになることを検証する。
func TestLoad_MissingRequired(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("TOKEN_SECRET", "")

	_, err := Load()
	if err == nil {
		t.Fatal("Load() should return error when required vars are missing")
	}
	if !strings.Contains(err.Error(), "DATABASE_URL") || !strings.Contains(err.Error(), "TOKEN_SECRET") {
		t.Errorf("error should name missing vars: %v", err)
	}
}

// TestLoad_Overrides は環境変数によるデフォルト値の上書きを検証する。
func TestLoad_Overrides(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("TOKEN_EXPIRE_MINUTES", "60")
	t.Setenv("STARTUP_IMPORT", "false")
	t.Setenv("IMPORT_TIMEOUT", "30s")
	t.Setenv("DEFAULT_COUNTRY", "JP")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.TokenLifetime != time.Hour {
		t.Errorf("TokenLifetime = %v, want 1h", cfg.TokenLifetime)
	}
	if cfg.StartupImport {
		t.Error("StartupImport should be false")
	}
	if cfg.ImportTimeout != 30*time.Second {
		t.Errorf("ImportTimeout = %v, want 30s", cfg.ImportTimeout)
	}
	if cfg.DefaultCountry != "JP" {
		t.Errorf("DefaultCountry = %q, want JP", cfg.DefaultCountry)
	}
}

// TestLoad_InvalidOptionalFallsBack は解析できない値がデフォルトに
// フォールバックすることを検証する。
func TestLoad_InvalidOptionalFallsBack(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("TOKEN_EXPIRE_MINUTES", "not-a-number")
	t.Setenv("STARTUP_IMPORT", "perhaps")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.TokenLifetime != 30*time.Minute {
		t.Errorf("TokenLifetime = %v, want default 30m", cfg.TokenLifetime)
	}
	if !cfg.StartupImport {
		t.Error("StartupImport should fall back to default true")
	}
}
