package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	Env         string
	Server      ServerConfig
	Database    DatabaseConfig
	Redis       RedisConfig
	Typesense   TypesenseConfig
	Geolocation GeolocationConfig
	CareAPI     CareAPIConfig
	Sources     SourcesConfig
	Triage      TriageConfig
	Catalog     CatalogConfig
	Session     SessionConfig
	RateLimit   RateLimitConfig
	OTEL        OTELConfig
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Host           string
	Port           int
	AllowedOrigins []string
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// TypesenseConfig holds Typesense configuration
type TypesenseConfig struct {
	URL     string
	APIKey  string
	Enabled bool
}

// GeolocationConfig holds geocoding provider configuration
type GeolocationConfig struct {
	Provider string
	APIKey   string
	Region   string
	Language string
	CacheTTL time.Duration
}

// CareAPIConfig points at the facility directory and booking collaborator
type CareAPIConfig struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

// SourcesConfig selects where facilities are read from and bookings are sent to.
// Accepted values are "http" and "postgres".
type SourcesConfig struct {
	Facilities string
	Bookings   string
}

// TriageConfig holds triage rule configuration
type TriageConfig struct {
	RulesPath string
}

// CatalogConfig holds facility catalog configuration
type CatalogConfig struct {
	MaxAge time.Duration
}

// SessionConfig holds booking session configuration
type SessionConfig struct {
	Store string
	TTL   time.Duration
}

// RateLimitConfig holds per-IP request limits
type RateLimitConfig struct {
	RequestsPerMinute int
}

// OTELConfig holds OpenTelemetry configuration
type OTELConfig struct {
	ServiceName    string
	ServiceVersion string
	Endpoint       string
	Enabled        bool
}

// Load loads configuration from environment variables. A .env file in the
// working directory is read first when present; real environment variables win.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Env: getEnv("ENV", "production"),
		Server: ServerConfig{
			Host:           getEnv("SERVER_HOST", "0.0.0.0"),
			Port:           getEnvAsInt("SERVER_PORT", 8080),
			AllowedOrigins: getEnvAsList("ALLOWED_ORIGINS", []string{"*"}),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnvAsInt("DB_PORT", 5432),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", ""),
			Database: getEnv("DB_NAME", "patient_booking"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnvAsInt("REDIS_PORT", 6379),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		Typesense: TypesenseConfig{
			URL:     getEnv("TYPESENSE_URL", "http://localhost:8108"),
			APIKey:  getEnv("TYPESENSE_API_KEY", "xyz"),
			Enabled: getEnvAsBool("TYPESENSE_ENABLED", false),
		},
		Geolocation: GeolocationConfig{
			Provider: getEnv("GEOLOCATION_PROVIDER", "mock"),
			APIKey:   getEnv("GEOLOCATION_API_KEY", ""),
			Region:   getEnv("GEOLOCATION_REGION", "ao"),
			Language: getEnv("GEOLOCATION_LANGUAGE", "pt"),
			CacheTTL: getEnvAsDuration("GEOLOCATION_CACHE_TTL", 30*24*time.Hour),
		},
		CareAPI: CareAPIConfig{
			BaseURL: getEnv("CARE_API_URL", "http://localhost:3000"),
			APIKey:  getEnv("CARE_API_KEY", ""),
			Timeout: getEnvAsDuration("CARE_API_TIMEOUT", 10*time.Second),
		},
		Sources: SourcesConfig{
			Facilities: getEnv("FACILITY_SOURCE", "http"),
			Bookings:   getEnv("BOOKING_SINK", "http"),
		},
		Triage: TriageConfig{
			RulesPath: getEnv("TRIAGE_RULES_PATH", ""),
		},
		Catalog: CatalogConfig{
			MaxAge: getEnvAsDuration("CATALOG_MAX_AGE", 5*time.Minute),
		},
		Session: SessionConfig{
			Store: getEnv("SESSION_STORE", "redis"),
			TTL:   getEnvAsDuration("SESSION_TTL", 30*time.Minute),
		},
		RateLimit: RateLimitConfig{
			RequestsPerMinute: getEnvAsInt("RATE_LIMIT_PER_MINUTE", 120),
		},
		OTEL: OTELConfig{
			ServiceName:    getEnv("OTEL_SERVICE_NAME", "patient-booking-triage"),
			ServiceVersion: getEnv("OTEL_SERVICE_VERSION", "1.0.0"),
			Endpoint:       getEnv("OTEL_ENDPOINT", ""),
			Enabled:        getEnvAsBool("OTEL_ENABLED", false),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	for name, value := range map[string]string{
		"FACILITY_SOURCE": c.Sources.Facilities,
		"BOOKING_SINK":    c.Sources.Bookings,
	} {
		if value != "http" && value != "postgres" {
			return fmt.Errorf("%s must be one of http, postgres (got %q)", name, value)
		}
	}
	if c.Session.Store != "redis" && c.Session.Store != "memory" {
		return fmt.Errorf("SESSION_STORE must be one of redis, memory (got %q)", c.Session.Store)
	}
	return nil
}

// UsesPostgres reports whether any source needs a database connection
func (c *Config) UsesPostgres() bool {
	return c.Sources.Facilities == "postgres" || c.Sources.Bookings == "postgres"
}

// DatabaseDSN returns the PostgreSQL connection string
func (c *DatabaseConfig) DatabaseDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}

// RedisAddr returns the Redis address
func (c *RedisConfig) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getEnvAsList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
