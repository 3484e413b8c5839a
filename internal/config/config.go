package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds runtime configuration sourced from env vars.
type Config struct {
	Env                string
	Port               string
	DatabaseURL        string
	JWTSecret          string
	JWTIssuer          string
	JWTTTL             time.Duration
	CORSOrigins        []string
	QueryTimeout       time.Duration
	SeedUsersPath      string
	StrictResultAccess bool
}

// Load reads configuration from the environment and performs minimal validation.
func Load() (Config, error) {
	cfg := Config{
		Env:           fallback(os.Getenv("APP_ENV"), "dev"),
		Port:          fallback(os.Getenv("PORT"), "8080"),
		DatabaseURL:   strings.TrimSpace(os.Getenv("DATABASE_URL")),
		JWTSecret:     strings.TrimSpace(os.Getenv("JWT_SECRET")),
		JWTIssuer:     fallback(os.Getenv("JWT_ISSUER"), "exam-results"),
		CORSOrigins:   parseCSV(fallback(os.Getenv("CORS_ALLOWED_ORIGINS"), "*")),
		SeedUsersPath: strings.TrimSpace(os.Getenv("SEED_USERS_PATH")),
	}

	minutes := fallback(os.Getenv("JWT_TTL_MINUTES"), "60")
	if ttlMinutes, err := strconv.Atoi(minutes); err == nil && ttlMinutes > 0 {
		cfg.JWTTTL = time.Duration(ttlMinutes) * time.Minute
	} else {
		cfg.JWTTTL = 60 * time.Minute
	}

	cfg.QueryTimeout = 5 * time.Second
	if raw := strings.TrimSpace(os.Getenv("QUERY_TIMEOUT")); raw != "" {
		timeout, err := time.ParseDuration(raw)
		if err != nil || timeout <= 0 {
			return Config{}, fmt.Errorf("QUERY_TIMEOUT must be a positive duration, got %q", raw)
		}
		cfg.QueryTimeout = timeout
	}

	if raw := strings.TrimSpace(os.Getenv("RESULT_ACCESS_STRICT")); raw != "" {
		strict, err := strconv.ParseBool(raw)
		if err != nil {
			return Config{}, fmt.Errorf("RESULT_ACCESS_STRICT must be a boolean, got %q", raw)
		}
		cfg.StrictResultAccess = strict
	}

	if cfg.DatabaseURL == "" {
		return Config{}, errors.New("DATABASE_URL is required")
	}
	if cfg.JWTSecret == "" {
		return Config{}, errors.New("JWT_SECRET is required")
	}

	return cfg, nil
}

// HTTPAddress returns the host:port pair for the HTTP server to bind to.
func (c Config) HTTPAddress() string {
	return fmt.Sprintf(":%s", c.Port)
}

// IsProduction reports whether the service runs with production settings.
func (c Config) IsProduction() bool {
	return c.Env == "prod"
}

func fallback(value, def string) string {
	if strings.TrimSpace(value) == "" {
		return def
	}
	return strings.TrimSpace(value)
}

func parseCSV(input string) []string {
	parts := strings.Split(input, ",")
	var out []string
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			out = append(out, trimmed)
		}
	}
	if len(out) == 0 {
		return []string{"*"}
	}
	return out
}
