package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(WithoutSystemEnv(), WithEnvFile(filepath.Join(t.TempDir(), "absent.env")))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Port != "8080" {
		t.Errorf("port = %q, want 8080", cfg.Server.Port)
	}
	if cfg.Session.Header != "X-Session-ID" {
		t.Errorf("session header = %q", cfg.Session.Header)
	}
	if got := cfg.Pricing.FreeShippingThreshold.StringFixed(2); got != "45.00" {
		t.Errorf("threshold = %s, want 45.00", got)
	}
	if cfg.Redis.Addr == "" {
		t.Error("redis addr default missing")
	}
}

func TestLoadEnvMapPrecedence(t *testing.T) {
	cfg, err := Load(
		WithoutSystemEnv(),
		WithEnvFile(filepath.Join(t.TempDir(), "absent.env")),
		WithEnvMap(map[string]string{
			"STOREFRONT_BACKEND_BASE_URL":        "https://api.example.com/",
			"STOREFRONT_SERVER_READ_TIMEOUT":     "30s",
			"STOREFRONT_FREE_SHIPPING_THRESHOLD": "60.00",
		}),
	)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Backend.BaseURL != "https://api.example.com/" {
		t.Errorf("base url = %q", cfg.Backend.BaseURL)
	}
	if cfg.Server.ReadTimeout != 30*time.Second {
		t.Errorf("read timeout = %s", cfg.Server.ReadTimeout)
	}
	if got := cfg.Pricing.FreeShippingThreshold.StringFixed(2); got != "60.00" {
		t.Errorf("threshold = %s, want 60.00", got)
	}

	// Image base falls back to the backend base when unset.
	if cfg.Backend.ImageBaseURL != cfg.Backend.BaseURL {
		t.Errorf("image base = %q", cfg.Backend.ImageBaseURL)
	}
}

func TestLoadEnvMapOptionsOverlay(t *testing.T) {
	cfg, err := Load(
		WithoutSystemEnv(),
		WithEnvFile(filepath.Join(t.TempDir(), "absent.env")),
		WithEnvMap(map[string]string{
			"STOREFRONT_BACKEND_BASE_URL": "https://first.example.com",
			"STOREFRONT_SERVER_PORT":      "9090",
		}),
		WithEnvMap(map[string]string{
			"STOREFRONT_BACKEND_BASE_URL": "  https://second.example.com  ",
			"   ":                         "dropped",
		}),
	)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	// Later maps win; untouched keys from earlier maps survive.
	if cfg.Backend.BaseURL != "https://second.example.com" {
		t.Errorf("base url = %q, want the later overlay", cfg.Backend.BaseURL)
	}
	if cfg.Server.Port != "9090" {
		t.Errorf("port = %q, want 9090", cfg.Server.Port)
	}
}

func TestLoadDotEnvFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	contents := "# comment\nSTOREFRONT_BACKEND_BASE_URL=https://dotenv.example.com\nSTOREFRONT_REDIS_ADDR=\"redis:6379\"\n"
	if err := os.WriteFile(path, []byte(contents), 0o600); err != nil {
		t.Fatalf("write env file: %v", err)
	}

	cfg, err := Load(WithoutSystemEnv(), WithEnvFile(path))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Backend.BaseURL != "https://dotenv.example.com" {
		t.Errorf("base url = %q", cfg.Backend.BaseURL)
	}
	if cfg.Redis.Addr != "redis:6379" {
		t.Errorf("redis addr = %q", cfg.Redis.Addr)
	}

	// Explicit env map wins over the dotenv file.
	cfg, err = Load(
		WithoutSystemEnv(),
		WithEnvFile(path),
		WithEnvMap(map[string]string{"STOREFRONT_BACKEND_BASE_URL": "https://override.example.com"}),
	)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Backend.BaseURL != "https://override.example.com" {
		t.Errorf("base url = %q", cfg.Backend.BaseURL)
	}
}

func TestValidateReportsMissingFields(t *testing.T) {
	cfg, err := Load(WithoutSystemEnv(), WithEnvFile(filepath.Join(t.TempDir(), "absent.env")))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	cfg.Redis.Addr = ""

	err = cfg.Validate()
	if err == nil {
		t.Fatal("Validate() = nil, want error")
	}

	var validation *ValidationError
	if !errors.As(err, &validation) {
		t.Fatalf("error type = %T", err)
	}
	fields := validation.Fields()
	if len(fields) != 2 {
		t.Fatalf("fields = %v, want Backend.BaseURL and Redis.Addr", fields)
	}
}
