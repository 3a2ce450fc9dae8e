package config

import (
	"fmt"
	"os"
	"strconv"
)

// Config holds application configuration
type Config struct {
	Port             string
	DBConn           string
	LogLevel         string
	JWTSecret        string
	SMTPHost         string
	SMTPPort         string
	SMTPUsername     string
	SMTPPassword     string
	SenderEmail      string
	HorizonDays      int
	WarningThreshold string
	WarningCronSpec  string
}

// NewConfig loads configuration from environment variables
func NewConfig() (*Config, error) {
	horizonDays, err := strconv.Atoi(getEnv("PROJECTION_HORIZON_DAYS", "90"))
	if err != nil || horizonDays < 0 {
		return nil, fmt.Errorf("PROJECTION_HORIZON_DAYS must be a non-negative integer")
	}

	cfg := &Config{
		Port:             getEnv("PORT", "8080"),
		DBConn:           getEnv("DB_CONN", "host=localhost port=5432 user=cashflow password=cashflow dbname=cashflow sslmode=disable"),
		LogLevel:         getEnv("LOG_LEVEL", "INFO"),
		JWTSecret:        getEnv("JWT_SECRET", "secret"),
		SMTPHost:         getEnv("SMTP_HOST", "localhost"),
		SMTPPort:         getEnv("SMTP_PORT", "587"),
		SMTPUsername:     getEnv("SMTP_USERNAME", ""),
		SMTPPassword:     getEnv("SMTP_PASSWORD", ""),
		SenderEmail:      getEnv("SENDER_EMAIL", "noreply@cashflow.local"),
		HorizonDays:      horizonDays,
		WarningThreshold: getEnv("WARNING_THRESHOLD", "0"),
		WarningCronSpec:  getEnv("WARNING_CRON_SPEC", "0 8 * * *"),
	}

	if cfg.DBConn == "" {
		return nil, fmt.Errorf("DB_CONN is required")
	}
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}

	return cfg, nil
}

func getEnv(key, defaultVal string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultVal
}
