package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Auth     AuthConfig
	Storage  StorageConfig
	Gemini   GeminiConfig
	Search   SearchConfig
}

type ServerConfig struct {
	Host        string
	Port        int
	CORSOrigins []string
	// DemoMode runs on an in-memory store seeded with fake data.
	DemoMode bool
}

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
}

type AuthConfig struct {
	// PasswordHash is the bcrypt hash of the shared household password.
	PasswordHash string
	SigningKey   string
	// SecureCookies should be false only for plain-http local use.
	SecureCookies bool
}

type StorageConfig struct {
	// ArchivePath is where uploaded statement files are kept.
	ArchivePath string
}

type GeminiConfig struct {
	APIKey string
	Model  string
}

type SearchConfig struct {
	// IndexPath persists the expense search index; empty keeps it in memory.
	IndexPath string
}

// Load reads configuration from the environment, after merging in a .env
// file when one is present.
func Load() (*Config, error) {
	// A missing .env is fine; the environment alone may be complete.
	_ = godotenv.Load()

	cfg := &Config{
		Server: ServerConfig{
			Host:        getEnv("SERVER_HOST", "localhost"),
			Port:        getEnvAsInt("SERVER_PORT", 8080),
			CORSOrigins: splitList(getEnv("CORS_ORIGINS", "http://localhost:5173")),
			DemoMode:    getEnvAsBool("DEMO_MODE", false),
		},
		Database: DatabaseConfig{
			Host:     getEnv("POSTGRES_HOST", "localhost"),
			Port:     getEnvAsInt("POSTGRES_PORT", 5432),
			User:     getEnv("POSTGRES_USER", "postgres"),
			Password: getEnv("POSTGRES_PASSWORD", "postgres"),
			Database: getEnv("POSTGRES_DB", "casaledger"),
			SSLMode:  getEnv("POSTGRES_SSLMODE", "disable"),
		},
		Auth: AuthConfig{
			PasswordHash:  getEnv("HOUSEHOLD_PASSWORD_HASH", ""),
			SigningKey:    getEnv("SESSION_SIGNING_KEY", ""),
			SecureCookies: getEnvAsBool("SECURE_COOKIES", true),
		},
		Storage: StorageConfig{
			ArchivePath: getEnv("ARCHIVE_PATH", "data/archive"),
		},
		Gemini: GeminiConfig{
			APIKey: getEnv("GEMINI_API_KEY", ""),
			Model:  getEnv("GEMINI_MODEL", ""),
		},
		Search: SearchConfig{
			IndexPath: getEnv("SEARCH_INDEX_PATH", ""),
		},
	}

	if !cfg.Server.DemoMode {
		if cfg.Auth.PasswordHash == "" {
			return nil, errors.New("HOUSEHOLD_PASSWORD_HASH is required")
		}
		if cfg.Auth.SigningKey == "" {
			return nil, errors.New("SESSION_SIGNING_KEY is required")
		}
	}

	return cfg, nil
}

// DSN returns the database connection string.
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}

// AIEnabled reports whether PDF extraction is configured.
func (c *GeminiConfig) AIEnabled() bool {
	return c.APIKey != ""
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
