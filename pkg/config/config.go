package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds environment-driven settings for the editor gateway and botctl.
type Config struct {
	Port string

	// Backend REST API
	APIURL            string
	APITimeout        time.Duration
	APIRequestsPerSec float64
	APIBurst          int
	WaitReady         time.Duration // 0 disables the startup readiness probe

	// Condition editor
	ValidationDebounce time.Duration
	VerdictCacheTTL    time.Duration
	PalettePath        string // optional override of the embedded palette

	// Gateway
	AllowedOrigins []string
	RateLimitRPS   float64
	RateLimitBurst int
	RequestTimeout time.Duration

	// Local preferences store
	DBPath string

	// Preferences
	ThemeMode string // "light" or "dark"

	// Logging
	LogLevel  string
	LogFormat string // "console" or "json"

	// Localization
	Language string // "en" or "zh"
}

// Load reads environment variables (optionally via .env) into Config.
func Load() (*Config, error) {
	// Ignore error so the app still starts when .env is missing.
	_ = godotenv.Load()

	// API_URL first, REACT_APP_API_URL for setups sharing the dashboard .env.
	apiURL := getEnv("API_URL", "")
	if apiURL == "" {
		apiURL = getEnv("REACT_APP_API_URL", "http://localhost:8000/api/v1")
	}

	cfg := &Config{
		Port:               getEnv("PORT", "3000"),
		APIURL:             strings.TrimRight(apiURL, "/"),
		APITimeout:         time.Duration(getEnvInt("API_TIMEOUT_SEC", 15)) * time.Second,
		APIRequestsPerSec:  getEnvFloat("API_REQUESTS_PER_SEC", 10),
		APIBurst:           getEnvInt("API_BURST", 20),
		WaitReady:          time.Duration(getEnvInt("API_WAIT_READY_SEC", 0)) * time.Second,
		ValidationDebounce: time.Duration(getEnvInt("VALIDATION_DEBOUNCE_MS", 500)) * time.Millisecond,
		VerdictCacheTTL:    time.Duration(getEnvInt("VERDICT_CACHE_TTL_SEC", 30)) * time.Second,
		PalettePath:        getEnv("PALETTE_PATH", ""),
		AllowedOrigins:     splitAndTrim(getEnv("ALLOWED_ORIGINS", "*")),
		RateLimitRPS:       getEnvFloat("RATE_LIMIT_RPS", 20),
		RateLimitBurst:     getEnvInt("RATE_LIMIT_BURST", 40),
		RequestTimeout:     time.Duration(getEnvInt("REQUEST_TIMEOUT_SEC", 30)) * time.Second,
		DBPath:             getEnv("DB_PATH", "./data/dashboard.db"),
		ThemeMode:          normalizeTheme(getEnv("THEME_MODE", "light")),
		LogLevel:           strings.ToLower(getEnv("LOG_LEVEL", "info")),
		LogFormat:          strings.ToLower(getEnv("LOG_FORMAT", "console")),
		Language:           getEnv("LANGUAGE", "en"),
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects settings the gateway cannot start with.
func (c *Config) Validate() error {
	var errs []error
	if u, err := url.Parse(c.APIURL); err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		errs = append(errs, fmt.Errorf("API_URL %q is not an http(s) URL", c.APIURL))
	}
	if p, err := strconv.Atoi(c.Port); err != nil || p <= 0 || p > 65535 {
		errs = append(errs, fmt.Errorf("PORT %q is not a valid port", c.Port))
	}
	if c.ValidationDebounce < 0 {
		errs = append(errs, errors.New("VALIDATION_DEBOUNCE_MS must not be negative"))
	}
	if c.APITimeout <= 0 {
		errs = append(errs, errors.New("API_TIMEOUT_SEC must be positive"))
	}
	return errors.Join(errs...)
}

func normalizeTheme(v string) string {
	if strings.EqualFold(strings.TrimSpace(v), "dark") {
		return "dark"
	}
	return "light"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func splitAndTrim(val string) []string {
	parts := strings.Split(val, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			out = append(out, t)
		}
	}
	return out
}

func getEnvFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}
