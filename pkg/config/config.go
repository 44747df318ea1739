package config

import (
	"os"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	AppEnv         string
	HTTPAddr       string
	MigrationsPath string

	// Hosted Postgres convenience:
	// - DATABASE_URL: runtime connection (often PgBouncer/pooler)
	// - DIRECT_URL: direct connection for migrations
	DatabaseURL string
	DirectURL   string

	// Store selects the reservation backend: "postgres" (default) or "memory".
	// The memory store is for local development and demos only.
	Store string

	DB DBConfig

	Auth AuthConfig

	Notify NotifyConfig

	Log LogConfig

	// AllowedOrigins is a comma-separated allowlist of origins allowed to call
	// the API from the browser frontend. Example:
	//   https://booking.campus.ac.id,http://localhost:5173
	AllowedOrigins []string
}

type DBConfig struct {
	Host     string
	Port     string
	Name     string
	User     string
	Password string
	SSLMode  string
}

type AuthConfig struct {
	// JWTSecret signs and verifies HS256 bearer tokens.
	JWTSecret string
	Issuer    string
	TokenTTL  time.Duration
}

type NotifyConfig struct {
	// RedisURL enables publishing status changes, e.g. redis://localhost:6379/0.
	// Empty means status changes are only logged.
	RedisURL string
	Channel  string
}

type LogConfig struct {
	Level  string
	Format string
}

func Load() Config {
	// Convenience for local dev: load variables from .env if present.
	// In production, rely on real environment variables.
	_ = godotenv.Load()

	// Cloud Run sets PORT. Prefer it when HTTP_ADDR isn't explicitly set.
	httpAddr := os.Getenv("HTTP_ADDR")
	if httpAddr == "" {
		if port := os.Getenv("PORT"); port != "" {
			httpAddr = ":" + port
		} else {
			httpAddr = ":8081"
		}
	}

	appEnv := env("APP_ENV", "dev")
	logFormat := "text"
	if appEnv == "prod" {
		logFormat = "json"
	}

	return Config{
		AppEnv:         appEnv,
		HTTPAddr:       httpAddr,
		MigrationsPath: os.Getenv("MIGRATIONS_PATH"),
		DatabaseURL:    os.Getenv("DATABASE_URL"),
		DirectURL:      os.Getenv("DIRECT_URL"),
		Store:          env("STORE", "postgres"),
		DB: DBConfig{
			Host:     env("DB_HOST", "localhost"),
			Port:     env("DB_PORT", "5432"),
			Name:     env("DB_NAME", "reservations"),
			User:     env("DB_USER", "reservations"),
			Password: env("DB_PASSWORD", "reservations"),
			SSLMode:  env("DB_SSLMODE", "disable"),
		},
		Auth: AuthConfig{
			JWTSecret: os.Getenv("AUTH_JWT_SECRET"),
			Issuer:    env("AUTH_JWT_ISSUER", "campus-reservations"),
			TokenTTL:  envDuration("AUTH_TOKEN_TTL", 12*time.Hour),
		},
		Notify: NotifyConfig{
			RedisURL: os.Getenv("REDIS_URL"),
			Channel:  env("NOTIFY_CHANNEL", "reservations.status"),
		},
		Log: LogConfig{
			Level:  env("LOG_LEVEL", "info"),
			Format: env("LOG_FORMAT", logFormat),
		},
		AllowedOrigins: envList("ALLOWED_ORIGINS", "http://localhost:5173,http://localhost:4173"),
	}
}

func env(key, fallback string) string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return v
}

func envDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

func envList(key, fallbackCSV string) []string {
	v := os.Getenv(key)
	if v == "" {
		v = fallbackCSV
	}
	var out []string
	start := 0
	for i := 0; i <= len(v); i++ {
		if i == len(v) || v[i] == ',' {
			s := v[start:i]
			start = i + 1
			// trim spaces
			for len(s) > 0 && (s[0] == ' ' || s[0] == '\t' || s[0] == '\n' || s[0] == '\r') {
				s = s[1:]
			}
			for len(s) > 0 && (s[len(s)-1] == ' ' || s[len(s)-1] == '\t' || s[len(s)-1] == '\n' || s[len(s)-1] == '\r') {
				s = s[:len(s)-1]
			}
			if s != "" {
				out = append(out, s)
			}
		}
	}
	return out
}
