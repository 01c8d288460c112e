package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds runtime configuration sourced from env vars and an optional YAML file.
type Config struct {
	Port          string        `yaml:"port"`
	DatabaseURL   string        `yaml:"database_url"`
	MongoDatabase string        `yaml:"mongo_database"`
	JWTSecret     string        `yaml:"jwt_secret"`
	JWTIssuer     string        `yaml:"jwt_issuer"`
	JWTTTL        time.Duration `yaml:"-"`
	JWTTTLMinutes int           `yaml:"jwt_ttl_minutes"`
	CORSOrigins   []string      `yaml:"cors_allowed_origins"`
	AdminPhone    string        `yaml:"admin_phone"`
	AdminPassword string        `yaml:"admin_password"`
	LogLevel      string        `yaml:"log_level"`
	LogFormat     string        `yaml:"log_format"`
	InitBalance   int64         `yaml:"init_balance"`
}

// Load reads configuration from the environment and performs minimal validation.
// When CONFIG_FILE names a YAML file its values act as defaults that
// environment variables override.
func Load() (Config, error) {
	var file Config
	if path := strings.TrimSpace(os.Getenv("CONFIG_FILE")); path != "" {
		var err error
		if file, err = readFile(path); err != nil {
			return Config{}, err
		}
	}

	cfg := Config{
		Port:          fallback(os.Getenv("PORT"), file.Port, "8080"),
		DatabaseURL:   fallback(os.Getenv("DATABASE_URL"), file.DatabaseURL),
		MongoDatabase: fallback(os.Getenv("MONGO_DATABASE"), file.MongoDatabase, "bank"),
		JWTSecret:     fallback(os.Getenv("JWT_SECRET"), file.JWTSecret),
		JWTIssuer:     fallback(os.Getenv("JWT_ISSUER"), file.JWTIssuer, "bank-portal"),
		AdminPhone:    fallback(os.Getenv("ADMIN_PHONE"), file.AdminPhone, "9000000000"),
		AdminPassword: fallback(os.Getenv("ADMIN_PASSWORD"), file.AdminPassword, "admin@123"),
		LogLevel:      fallback(os.Getenv("LOG_LEVEL"), file.LogLevel, "info"),
		LogFormat:     fallback(os.Getenv("LOG_FORMAT"), file.LogFormat, "json"),
	}

	if origins := strings.TrimSpace(os.Getenv("CORS_ALLOWED_ORIGINS")); origins != "" {
		cfg.CORSOrigins = parseCSV(origins)
	} else if len(file.CORSOrigins) > 0 {
		cfg.CORSOrigins = file.CORSOrigins
	} else {
		cfg.CORSOrigins = []string{"*"}
	}

	cfg.JWTTTLMinutes = 60
	if file.JWTTTLMinutes > 0 {
		cfg.JWTTTLMinutes = file.JWTTTLMinutes
	}
	if ttlMinutes, err := strconv.Atoi(strings.TrimSpace(os.Getenv("JWT_TTL_MINUTES"))); err == nil && ttlMinutes > 0 {
		cfg.JWTTTLMinutes = ttlMinutes
	}
	cfg.JWTTTL = time.Duration(cfg.JWTTTLMinutes) * time.Minute

	cfg.InitBalance = file.InitBalance
	if raw := strings.TrimSpace(os.Getenv("INIT_BALANCE")); raw != "" {
		v, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return Config{}, fmt.Errorf("invalid INIT_BALANCE %q", raw)
		}
		cfg.InitBalance = v
	}
	if cfg.InitBalance < 0 {
		return Config{}, errors.New("INIT_BALANCE cannot be negative")
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

func readFile(path string) (Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config file: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config file: %w", err)
	}
	return cfg, nil
}

// fallback returns the first non-blank value, trimmed.
func fallback(values ...string) string {
	for _, v := range values {
		if trimmed := strings.TrimSpace(v); trimmed != "" {
			return trimmed
		}
	}
	return ""
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
