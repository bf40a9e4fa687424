package config

import (
	"os"
	"time"
)

type Config struct {
	Port         string
	DBPath       string
	RedisAddr    string
	RedisDB      int
	APISecretKey string

	// Rate provider
	Provider        string // "openexchange" or "fixer"
	OpenExchangeKey string
	OpenExchangeURL string
	FixerKey        string
	FixerURL        string

	// Rate history
	BaseCurrency        string
	HourlyRetentionDays int
	DailyRetentionDays  int
	LiveTTL             time.Duration
	SixMonthStepDays    int

	// Savings
	MaxFreeEntries int
	MaxProEntries  int
}

func Load() Config {
	return Config{
		Port:         getEnv("PORT", "8080"),
		DBPath:       getEnv("DB_PATH", "currency.db"),
		RedisAddr:    getEnv("REDIS_ADDR", ""),
		RedisDB:      getEnvInt("REDIS_DB", 0),
		APISecretKey: getEnv("API_SECRET_KEY", ""),

		Provider:        getEnv("PROVIDER", "openexchange"),
		OpenExchangeKey: getEnv("OPEN_EXCHANGE_RATES_API_KEY", ""),
		OpenExchangeURL: getEnv("OPEN_EXCHANGE_RATES_API_URL", ""),
		FixerKey:        getEnv("FIXER_API_KEY", ""),
		FixerURL:        getEnv("FIXER_API_URL", ""),

		BaseCurrency:        getEnv("BASE_CURRENCY", "USD"),
		HourlyRetentionDays: getEnvInt("HOURLY_RETENTION_DAYS", 30),
		DailyRetentionDays:  getEnvInt("DAILY_RETENTION_DAYS", 1825),
		LiveTTL:             time.Duration(getEnvInt("LIVE_TTL_MINUTES", 55)) * time.Minute,
		SixMonthStepDays:    getEnvInt("DECIMATION_6M_DAYS", 3),

		MaxFreeEntries: getEnvInt("MAX_FREE_ENTRIES", 1),
		MaxProEntries:  getEnvInt("MAX_PRO_ENTRIES", 200),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n := 0
	for _, c := range v {
		if c < '0' || c > '9' {
			return fallback
		}
		n = n*10 + int(c-'0')
	}
	return n
}
