package config

import (
	"strings"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("API_URL", "")
	t.Setenv("REACT_APP_API_URL", "")
	t.Setenv("PORT", "")
	t.Setenv("VALIDATION_DEBOUNCE_MS", "")
	t.Setenv("THEME_MODE", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Port != "3000" {
		t.Errorf("Port = %q", cfg.Port)
	}
	if cfg.APIURL != "http://localhost:8000/api/v1" {
		t.Errorf("APIURL = %q", cfg.APIURL)
	}
	if cfg.ValidationDebounce != 500*time.Millisecond {
		t.Errorf("ValidationDebounce = %v", cfg.ValidationDebounce)
	}
	if cfg.ThemeMode != "light" {
		t.Errorf("ThemeMode = %q", cfg.ThemeMode)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("API_URL", "https://api.example.test/api/v1/")
	t.Setenv("VALIDATION_DEBOUNCE_MS", "120")
	t.Setenv("THEME_MODE", "Dark")
	t.Setenv("ALLOWED_ORIGINS", "http://a.test, ,http://b.test")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.APIURL != "https://api.example.test/api/v1" {
		t.Errorf("APIURL = %q", cfg.APIURL)
	}
	if cfg.ValidationDebounce != 120*time.Millisecond {
		t.Errorf("ValidationDebounce = %v", cfg.ValidationDebounce)
	}
	if cfg.ThemeMode != "dark" {
		t.Errorf("ThemeMode = %q", cfg.ThemeMode)
	}
	if len(cfg.AllowedOrigins) != 2 {
		t.Errorf("AllowedOrigins = %v", cfg.AllowedOrigins)
	}
}

func TestLegacyAPIURL(t *testing.T) {
	t.Setenv("API_URL", "")
	t.Setenv("REACT_APP_API_URL", "http://backend:8000/api/v1")

	cfg, _ := Load()
	if cfg.APIURL != "http://backend:8000/api/v1" {
		t.Errorf("APIURL = %q", cfg.APIURL)
	}
}

func TestGetEnvIntFallback(t *testing.T) {
	t.Setenv("SOME_INT", "abc")
	if got := getEnvInt("SOME_INT", 7); got != 7 {
		t.Errorf("got %d", got)
	}
}

func TestLoadRejectsBadSettings(t *testing.T) {
	t.Setenv("API_URL", "localhost:8000")
	t.Setenv("PORT", "http")

	if _, err := Load(); err == nil {
		t.Fatal("expected an error")
	} else if !strings.Contains(err.Error(), "API_URL") || !strings.Contains(err.Error(), "PORT") {
		t.Fatalf("err = %v", err)
	}
}
