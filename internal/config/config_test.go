package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("ENV_FILE", filepath.Join(t.TempDir(), "missing.env"))
	for _, k := range []string{"PORT", "WEATHER_WIDGET_PORT", "OPENWEATHER_API_KEY", "OPENWEATHER_BASE_URL", "SESSION_TTL", "LOG_LEVEL", "CORS_ALLOWED_ORIGINS"} {
		t.Setenv(k, "")
	}

	cfg := Load()
	if cfg.Port != "8095" {
		t.Errorf("expected default port, got %s", cfg.Port)
	}
	if cfg.OpenWeatherBaseURL != "https://api.openweathermap.org" {
		t.Errorf("unexpected base url %s", cfg.OpenWeatherBaseURL)
	}
	if cfg.SessionTTL != 30*time.Minute {
		t.Errorf("unexpected session ttl %s", cfg.SessionTTL)
	}
	if len(cfg.CORSAllowedOrigins) != 1 || cfg.CORSAllowedOrigins[0] != "*" {
		t.Errorf("unexpected cors origins %v", cfg.CORSAllowedOrigins)
	}
	if cfg.SlogLevel() != slog.LevelInfo {
		t.Errorf("expected info level, got %s", cfg.SlogLevel())
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("ENV_FILE", filepath.Join(t.TempDir(), "missing.env"))
	t.Setenv("PORT", "9000")
	t.Setenv("OPENWEATHER_API_KEY", "abc")
	t.Setenv("SESSION_TTL", "90s")
	t.Setenv("SESSION_SWEEP_INTERVAL", "5")
	t.Setenv("LOG_LEVEL", "DEBUG")
	t.Setenv("CORS_ALLOWED_ORIGINS", "http://a.test, http://b.test,")

	cfg := Load()
	if cfg.Port != "9000" || cfg.OpenWeatherAPIKey != "abc" {
		t.Fatalf("unexpected config %+v", cfg)
	}
	if cfg.SessionTTL != 90*time.Second {
		t.Errorf("expected 90s, got %s", cfg.SessionTTL)
	}
	if cfg.SweepInterval != 5*time.Minute {
		t.Errorf("expected plain number as minutes, got %s", cfg.SweepInterval)
	}
	if cfg.SlogLevel() != slog.LevelDebug {
		t.Errorf("expected debug level, got %s", cfg.SlogLevel())
	}
	if len(cfg.CORSAllowedOrigins) != 2 || cfg.CORSAllowedOrigins[1] != "http://b.test" {
		t.Errorf("unexpected cors origins %v", cfg.CORSAllowedOrigins)
	}
}

func TestLoadEnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.env")
	if err := os.WriteFile(path, []byte("OPENWEATHER_API_KEY=from-file\n"), 0o600); err != nil {
		t.Fatalf("write env file: %v", err)
	}
	t.Setenv("ENV_FILE", path)
	t.Setenv("OPENWEATHER_API_KEY", "")
	os.Unsetenv("OPENWEATHER_API_KEY")

	cfg := Load()
	if cfg.OpenWeatherAPIKey != "from-file" {
		t.Fatalf("expected key from env file, got %q", cfg.OpenWeatherAPIKey)
	}
	os.Unsetenv("OPENWEATHER_API_KEY")
}
