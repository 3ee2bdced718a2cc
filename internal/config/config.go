package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds application configuration
type Config struct {
	Port                string
	DBConn              string
	LogLevel            string
	CBRURL              string
	BaseCurrency        string
	CronSpec            string
	JobTimeout          time.Duration
	AlertTTLDays        int
	RetentionDays       int
	GoalTrailingWindow  int
	MaterializerWorkers int
	SMTPHost            string
	SMTPPort            string
	SMTPUsername        string
	SMTPPassword        string
	SenderEmail         string
	AlertEmail          string
}

// NewConfig loads configuration from environment variables
func NewConfig() (*Config, error) {
	jobTimeout, err := time.ParseDuration(getEnv("JOB_TIMEOUT", "5m"))
	if err != nil {
		return nil, fmt.Errorf("invalid JOB_TIMEOUT: %w", err)
	}

	cfg := &Config{
		Port:                getEnv("PORT", "8080"),
		DBConn:              getEnv("DB_CONN", "host=localhost port=5436 user=test password=test dbname=scheduler sslmode=disable"),
		LogLevel:            getEnv("LOG_LEVEL", "INFO"),
		CBRURL:              getEnv("CBR_URL", "https://www.cbr.ru/DailyInfoWebServ/DailyInfo.asmx"),
		BaseCurrency:        getEnv("BASE_CURRENCY", "RUB"),
		CronSpec:            getEnv("CRON_SPEC", "0 3 * * *"),
		JobTimeout:          jobTimeout,
		AlertTTLDays:        getEnvInt("ALERT_TTL_DAYS", 30),
		RetentionDays:       getEnvInt("NOTIFICATION_RETENTION_DAYS", 90),
		GoalTrailingWindow:  getEnvInt("GOAL_TRAILING_CONTRIBUTIONS", 10),
		MaterializerWorkers: getEnvInt("MATERIALIZER_WORKERS", 4),
		SMTPHost:            getEnv("SMTP_HOST", ""),
		SMTPPort:            getEnv("SMTP_PORT", "587"),
		SMTPUsername:        getEnv("SMTP_USERNAME", ""),
		SMTPPassword:        getEnv("SMTP_PASSWORD", ""),
		SenderEmail:         getEnv("SENDER_EMAIL", ""),
		AlertEmail:          getEnv("ALERT_EMAIL", ""),
	}

	if cfg.DBConn == "" {
		return nil, fmt.Errorf("DB_CONN is required")
	}
	if cfg.BaseCurrency == "" {
		return nil, fmt.Errorf("BASE_CURRENCY is required")
	}
	if cfg.JobTimeout <= 0 {
		return nil, fmt.Errorf("JOB_TIMEOUT must be positive")
	}
	if cfg.AlertEmail != "" && cfg.SMTPHost == "" {
		return nil, fmt.Errorf("SMTP_HOST is required when ALERT_EMAIL is set")
	}

	return cfg, nil
}

func getEnv(key, defaultVal string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if value, exists := os.LookupEnv(key); exists {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultVal
}
