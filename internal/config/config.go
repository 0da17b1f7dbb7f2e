package config

import (
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port               string
	OpenWeatherAPIKey  string
	OpenWeatherBaseURL string
	IconBaseURL        string
	SessionTTL         time.Duration
	SweepInterval      time.Duration
	LogLevel           string
	CORSAllowedOrigins []string
	OTLPEndpoint       string
}

// Load reads the environment. Values from an optional .env file (ENV_FILE,
// default ".env") never override variables that are already set.
func Load() Config {
	envFile := getEnv("ENV_FILE", ".env")
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		slog.Warn("failed to load env file", "path", envFile, "error", err)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = getEnv("WEATHER_WIDGET_PORT", "8095")
	}

	return Config{
		Port:               port,
		OpenWeatherAPIKey:  os.Getenv("OPENWEATHER_API_KEY"),
		OpenWeatherBaseURL: getEnv("OPENWEATHER_BASE_URL", "https://api.openweathermap.org"),
		IconBaseURL:        getEnv("OPENWEATHER_ICON_BASE_URL", "https://openweathermap.org/img/wn"),
		SessionTTL:         getEnvDuration("SESSION_TTL", 30*time.Minute),
		SweepInterval:      getEnvDuration("SESSION_SWEEP_INTERVAL", time.Minute),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		CORSAllowedOrigins: getEnvList("CORS_ALLOWED_ORIGINS", []string{"*"}),
		OTLPEndpoint:       os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
	}
}

// SlogLevel maps LogLevel to a slog level, defaulting to info.
func (c Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func getEnv(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

// getEnvDuration accepts Go durations ("90s") or plain minutes ("15").
func getEnvDuration(key string, def time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	if m, err := strconv.Atoi(v); err == nil && m > 0 {
		return time.Duration(m) * time.Minute
	}
	if d, err := time.ParseDuration(v); err == nil && d > 0 {
		return d
	}
	return def
}

func getEnvList(key string, def []string) []string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	var out []string
	for _, p := range strings.Split(v, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return def
	}
	return out
}
