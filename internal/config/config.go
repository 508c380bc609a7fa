package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	NodeEnv      string
	Port         string
	JWTSecret    string
	DocumentsDir string
	Database     DatabaseConfig
	Mail         MailConfig
	Geocoder     GeocoderConfig
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host     string
	Port     string
	Username string
	Password string
	Database string
	Alter    bool
}

// MailConfig holds outbound mail gateway configuration
type MailConfig struct {
	FromAddress string
	TokenJSON   string // OAuth token for the Gmail API, JSON-encoded
	SendTimeout time.Duration
}

// GeocoderConfig holds external geocoder configuration
type GeocoderConfig struct {
	BaseURL   string
	UserAgent string
	Timeout   time.Duration
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}

	return &Config{
		NodeEnv:      getEnv("NODE_ENV", "development"),
		Port:         getEnv("PORT", "3210"),
		JWTSecret:    jwtSecret,
		DocumentsDir: getEnv("DOCUMENTS_DIR", "./documents"),
		Database: DatabaseConfig{
			Host:     getEnv("PG_HOST", "localhost"),
			Port:     getEnv("PG_PORT", "5432"),
			Username: getEnv("PG_USERNAME", "postgres"),
			Password: os.Getenv("PG_PASSWORD"),
			Database: getEnv("PG_DATABASE", "hazmat"),
			Alter:    getEnv("DB_ALTER", "false") == "true",
		},
		Mail: MailConfig{
			FromAddress: getEnv("MAIL_FROM", "jnb@hazglobal.com"),
			TokenJSON:   os.Getenv("GMAIL_TOKEN_JSON"),
			SendTimeout: getDurationEnv("MAIL_SEND_TIMEOUT_SECONDS", 15),
		},
		Geocoder: GeocoderConfig{
			BaseURL:   getEnv("GEOCODER_URL", "https://nominatim.openstreetmap.org"),
			UserAgent: getEnv("GEOCODER_USER_AGENT", "hazmat_backend"),
			Timeout:   getDurationEnv("GEOCODER_TIMEOUT_SECONDS", 10),
		},
	}, nil
}

// getEnv gets environment variable with default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getDurationEnv reads a whole-seconds environment variable
func getDurationEnv(key string, defaultSeconds int) time.Duration {
	if value := os.Getenv(key); value != "" {
		if secs, err := strconv.Atoi(value); err == nil && secs > 0 {
			return time.Duration(secs) * time.Second
		}
	}
	return time.Duration(defaultSeconds) * time.Second
}
