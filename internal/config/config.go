package config

import (
	"fmt"
	"os"
	"strconv"
)

// Config holds application configuration
type Config struct {
	Port        string
	StoreDriver string // "postgres" or "memory"
	DBConn      string
	LogLevel    string
	JWTSecret   string
	CBRURL      string

	SMTPHost     string
	SMTPPort     string
	SMTPUsername string
	SMTPPassword string
	SenderEmail  string

	SweepSchedule string // cron spec for the missed-payment sweep
	ReminderDays  int    // days before a due date to send a reminder

	// Scoring policy overrides, see scoring.DefaultPolicy.
	OnTimeBonus   int
	LatePerDay    int
	LateGraceDays int
	MissedPenalty int
}

// NewConfig loads configuration from environment variables
func NewConfig() (*Config, error) {
	cfg := &Config{
		Port:        getEnv("PORT", "8080"),
		StoreDriver: getEnv("STORE_DRIVER", "postgres"),
		DBConn:      getEnv("DB_CONN", "host=localhost port=5432 user=test password=test dbname=rentscore sslmode=disable"),
		LogLevel:    getEnv("LOG_LEVEL", "INFO"),
		JWTSecret:   getEnv("JWT_SECRET", "secret"),
		CBRURL:      getEnv("CBR_URL", "https://www.cbr.ru/DailyInfoWebServ/DailyInfo.asmx"),

		SMTPHost:     getEnv("SMTP_HOST", "localhost"),
		SMTPPort:     getEnv("SMTP_PORT", "1025"),
		SMTPUsername: getEnv("SMTP_USERNAME", ""),
		SMTPPassword: getEnv("SMTP_PASSWORD", ""),
		SenderEmail:  getEnv("SENDER_EMAIL", "noreply@rentscore.local"),

		SweepSchedule: getEnv("SWEEP_SCHEDULE", "@hourly"),
		ReminderDays:  getEnvInt("REMINDER_DAYS", 3),

		OnTimeBonus:   getEnvInt("SCORE_ON_TIME_BONUS", 10),
		LatePerDay:    getEnvInt("SCORE_LATE_PER_DAY", 1),
		LateGraceDays: getEnvInt("SCORE_LATE_GRACE_DAYS", 1),
		MissedPenalty: getEnvInt("SCORE_MISSED_PENALTY", 30),
	}

	if cfg.StoreDriver != "postgres" && cfg.StoreDriver != "memory" {
		return nil, fmt.Errorf("unknown STORE_DRIVER %q", cfg.StoreDriver)
	}
	if cfg.StoreDriver == "postgres" && cfg.DBConn == "" {
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

func getEnvInt(key string, defaultVal int) int {
	if value, exists := os.LookupEnv(key); exists {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultVal
}
