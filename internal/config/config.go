package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	NodeEnv   string
	Port      string
	JWTSecret string
	Database  DatabaseConfig
	Terminal  TerminalConfig
	ERP       ERPConfig
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

// TerminalConfig holds handheld terminal configuration
type TerminalConfig struct {
	APIBaseURL  string
	ScanFeedURL string
	Token       string
}

// ERPConfig holds upstream ERP (XML-RPC) import configuration
type ERPConfig struct {
	URL            string
	Database       string
	Username       string
	Password       string
	ImportInterval int // minutes
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
		NodeEnv:   getEnv("NODE_ENV", "development"),
		Port:      getEnv("PORT", "3001"),
		JWTSecret: jwtSecret,
		Database: DatabaseConfig{
			Host:     getEnv("PG_HOST", "localhost"),
			Port:     getEnv("PG_PORT", "5432"),
			Username: getEnv("PG_USERNAME", "postgres"),
			Password: os.Getenv("PG_PASSWORD"),
			Database: getEnv("PG_DATABASE", "scanwms"),
			Alter:    getEnv("DB_ALTER", "false") == "true",
		},
		Terminal: TerminalConfig{
			APIBaseURL:  getEnv("API_BASE_URL", "http://localhost:3001"),
			ScanFeedURL: getEnv("SCAN_FEED_URL", "ws://localhost:3001/ws/scanner"),
			Token:       os.Getenv("API_TOKEN"),
		},
		ERP: ERPConfig{
			URL:            os.Getenv("ERP_URL"),
			Database:       os.Getenv("ERP_DATABASE"),
			Username:       os.Getenv("ERP_USERNAME"),
			Password:       os.Getenv("ERP_PASSWORD"),
			ImportInterval: getEnvInt("ERP_IMPORT_INTERVAL", 15),
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

// getEnvInt gets an integer environment variable with default value
func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var n int
	if _, err := fmt.Sscanf(value, "%d", &n); err != nil {
		return defaultValue
	}
	return n
}
