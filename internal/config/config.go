package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	Port     string
	DBConn   string
	LogLevel string

	JWTSecret string

	// RatesURL is the central bank key rate endpoint used for loan pricing.
	RatesURL string
	// DefaultLoanRate is the annual percent rate used when the feed is
	// unavailable.
	DefaultLoanRate float64

	SMTPHost     string
	SMTPPort     string
	SMTPUsername string
	SMTPPassword string
	SenderEmail  string

	// InitialPlayerBalance is deposited into each new player's account.
	InitialPlayerBalance float64
	// GameBankBalance seeds the shared lender's reserve on first run.
	GameBankBalance float64

	WorkerCount int
	WorkerQueue int
}

// NewConfig loads configuration from environment variables
func NewConfig() (*Config, error) {
	// Missing .env is fine in containerized deploys.
	_ = godotenv.Load()

	cfg := &Config{
		Port:                 getEnv("PORT", "8080"),
		DBConn:               getEnv("DB_CONN", "host=localhost port=5432 user=test password=test dbname=finance_game sslmode=disable"),
		LogLevel:             getEnv("LOG_LEVEL", "INFO"),
		JWTSecret:            getEnv("JWT_SECRET", "secret"),
		RatesURL:             getEnv("RATES_URL", "https://www.cbr.ru/DailyInfoWebServ/DailyInfo.asmx"),
		DefaultLoanRate:      getEnvFloat("DEFAULT_LOAN_RATE", 10.0),
		SMTPHost:             getEnv("SMTP_HOST", "localhost"),
		SMTPPort:             getEnv("SMTP_PORT", "1025"),
		SMTPUsername:         getEnv("SMTP_USERNAME", ""),
		SMTPPassword:         getEnv("SMTP_PASSWORD", ""),
		SenderEmail:          getEnv("SENDER_EMAIL", "noreply@finance-game.local"),
		InitialPlayerBalance: getEnvFloat("INITIAL_PLAYER_BALANCE", 1000),
		GameBankBalance:      getEnvFloat("GAME_BANK_BALANCE", 1000000),
		WorkerCount:          getEnvInt("WORKER_COUNT", 4),
		WorkerQueue:          getEnvInt("WORKER_QUEUE", 64),
	}

	if cfg.DBConn == "" {
		return nil, fmt.Errorf("DB_CONN is required")
	}
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}
	if cfg.WorkerCount < 1 {
		return nil, fmt.Errorf("WORKER_COUNT must be at least 1")
	}

	return cfg, nil
}

func getEnv(key, defaultVal string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultVal
}

func getEnvFloat(key string, defaultVal float64) float64 {
	if value, exists := os.LookupEnv(key); exists {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
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
