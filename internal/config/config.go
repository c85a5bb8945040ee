// Package config provides configuration management for the application.
package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds all configuration values for the application.
type Config struct {
	// Model
	ModelPath  string
	PolicyPath string

	// AWS
	AWSRegion string
	S3Bucket  string

	// Database
	DatabaseEnabled bool
	DBHost          string
	DBPort          int
	DBName          string
	DBUser          string
	DBPassword      string
	DBMaxConns      int

	// SES
	SESSenderEmail   string
	BatchNotifyEmail string

	// Server
	Port             string
	AllowedOrigins   []string
	BatchConcurrency int

	// Application
	Stage    string
	LogLevel string
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	// Load .env file if it exists (for local development)
	_ = godotenv.Load()

	cfg := &Config{
		// Model
		ModelPath:  getEnv("MODEL_PATH", ""),
		PolicyPath: getEnv("POLICY_PATH", ""),

		// AWS
		AWSRegion: getEnv("AWS_REGION", "us-east-1"),
		S3Bucket:  getEnv("S3_BUCKET", "loan-decision-batches-dev"),

		// Database
		DatabaseEnabled: getEnvBool("DATABASE_ENABLED", false),
		DBHost:          getEnv("DB_HOST", getEnv("LOAN_DB_HOST", "localhost")),
		DBPort:          getEnvInt("DB_PORT", getEnvInt("LOAN_DB_PORT", 5432)),
		DBName:          getEnv("DB_NAME", getEnv("LOAN_DB_NAME", "loan_decisions")),
		DBUser:          getEnv("DB_USER", getEnv("LOAN_DB_USER", "postgres")),
		DBPassword:      getEnv("DB_PASSWORD", getEnv("LOAN_DB_PASSWORD", "")),
		DBMaxConns:      getEnvInt("DB_MAX_CONNS", 10),

		// SES
		SESSenderEmail:   getEnv("SES_SENDER_EMAIL", ""),
		BatchNotifyEmail: getEnv("BATCH_NOTIFY_EMAIL", ""),

		// Server
		Port:             getEnv("PORT", "8000"),
		AllowedOrigins:   getEnvList("ALLOWED_ORIGINS", []string{"*"}),
		BatchConcurrency: getEnvInt("BATCH_CONCURRENCY", 8),

		// Application
		Stage:    getEnv("STAGE", "dev"),
		LogLevel: getEnv("LOG_LEVEL", "info"),
	}

	if cfg.BatchConcurrency < 1 {
		cfg.BatchConcurrency = 1
	}

	return cfg, nil
}

// DatabaseURL returns the PostgreSQL connection string.
func (c *Config) DatabaseURL() string {
	sslMode := "require" // Use SSL for RDS
	if c.DBHost == "localhost" || c.DBHost == "127.0.0.1" {
		sslMode = "disable" // Disable SSL for local development
	}
	return "postgres://" + c.DBUser + ":" + c.DBPassword + "@" + c.DBHost + ":" + strconv.Itoa(c.DBPort) + "/" + c.DBName + "?sslmode=" + sslMode
}

// getEnv retrieves an environment variable or returns a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt retrieves an environment variable as int or returns a default value.
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// getEnvBool retrieves an environment variable as bool or returns a default value.
func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

// getEnvList splits a comma-separated environment variable.
func getEnvList(key string, defaultValue []string) []string {
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
