package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config represents the full application configuration surface.
type Config struct {
	Env      string
	Server   ServerConfig
	Database DatabaseConfig
	JWT      JWTConfig
	Seed     SeedConfig
}

// ServerConfig holds HTTP server related options.
type ServerConfig struct {
	Port        string
	AppName     string
	SaleTimeout time.Duration
}

// DatabaseConfig holds connection and pool settings for the relational store.
type DatabaseConfig struct {
	Driver          string
	SQLitePath      string
	URL             string
	Host            string
	User            string
	Password        string
	Name            string
	Port            string
	TimeZone        string
	MaxIdleConns    int
	MaxOpenConns    int
	ConnMaxLifetime time.Duration
	LogLevel        string
}

// JWTConfig controls bearer token issuance.
type JWTConfig struct {
	Secret string
	Issuer string
	TTL    time.Duration
}

// SeedConfig describes the bootstrap administrator.
type SeedConfig struct {
	AdminUserCode string
	AdminPassword string
}

const devSecret = "dev-only-secret-change-me"

// Load reads environment variables (optionally from the provided file) and
// materializes a Config instance.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("failed loading env file %s: %w", envFile, err)
			}
		}
	} else {
		_ = godotenv.Load()
	}

	saleTimeout, err := durationFromEnv("SALE_TIMEOUT", 15*time.Second)
	if err != nil {
		return nil, err
	}
	jwtTTL, err := durationFromEnv("JWT_TTL", 24*time.Hour)
	if err != nil {
		return nil, err
	}
	connLifetime, err := durationFromEnv("DB_CONN_MAX_LIFETIME", time.Hour)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Env: getenvWithDefault("APP_ENV", "development"),
		Server: ServerConfig{
			Port:        getenvWithDefault("PORT", "3000"),
			AppName:     getenvWithDefault("APP_NAME", "POS Backend v1.0"),
			SaleTimeout: saleTimeout,
		},
		Database: DatabaseConfig{
			Driver:          getenvWithDefault("DB_DRIVER", "postgres"),
			SQLitePath:      getenvWithDefault("SQLITE_PATH", "pos.db"),
			URL:             os.Getenv("DATABASE_URL"),
			Host:            getenvWithDefault("DB_HOST", "localhost"),
			User:            os.Getenv("DB_USER"),
			Password:        os.Getenv("DB_PASSWORD"),
			Name:            os.Getenv("DB_NAME"),
			Port:            getenvWithDefault("DB_PORT", "5432"),
			TimeZone:        getenvWithDefault("DB_TIMEZONE", "Africa/Nairobi"),
			MaxIdleConns:    intFromEnv("DB_MAX_IDLE_CONNS", 10),
			MaxOpenConns:    intFromEnv("DB_MAX_OPEN_CONNS", 100),
			ConnMaxLifetime: connLifetime,
			LogLevel:        getenvWithDefault("DB_LOG_LEVEL", "warn"),
		},
		JWT: JWTConfig{
			Secret: os.Getenv("JWT_SECRET"),
			Issuer: getenvWithDefault("JWT_ISSUER", "go-pos-api"),
			TTL:    jwtTTL,
		},
		Seed: SeedConfig{
			AdminUserCode: getenvWithDefault("ADMIN_USER", "admin"),
			AdminPassword: os.Getenv("ADMIN_PASSWORD"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate ensures that required configuration fields are populated.
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is nil")
	}

	if c.Server.Port == "" {
		return errors.New("PORT must be provided")
	}

	if c.Server.SaleTimeout <= 0 {
		return errors.New("SALE_TIMEOUT must be positive")
	}

	switch c.Database.Driver {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", c.Database.Driver)
	}

	if c.JWT.TTL <= 0 {
		return errors.New("JWT_TTL must be positive")
	}

	if c.JWT.Secret == "" {
		if c.IsProduction() {
			return errors.New("JWT_SECRET must be provided in production")
		}
		c.JWT.Secret = devSecret
	}

	return nil
}

// IsProduction reports whether APP_ENV selects production.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// DSN builds the Postgres connection string, preferring DATABASE_URL.
func (d DatabaseConfig) DSN() string {
	if d.URL != "" {
		return d.URL
	}
	return fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=disable TimeZone=%s",
		d.Host, d.User, d.Password, d.Name, d.Port, d.TimeZone,
	)
}

func getenvWithDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func intFromEnv(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return n
}

func durationFromEnv(key string, fallback time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}
