package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"eventhive/utils"
)

// Config holds all app configuration
type Config struct {
	// Server
	HTTPPort string

	// Redis (optional; empty addr keeps notification jobs in memory)
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// Bidding policy
	RejectConsecutiveBids bool
	AuctionsStartPending  bool

	// Lifecycle monitor
	MonitorInterval time.Duration

	// Outbound mail queue
	MailWorkers     int
	MailMaxAttempts int
	MailBackoffBase time.Duration

	Debug bool
}

// Load reads configuration from environment variables, with an optional .env file.
func Load() *Config {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		utils.Warn("config: could not load .env file", map[string]any{"error": err.Error()})
	}

	return &Config{
		HTTPPort: getEnv("PORT", "8080"),

		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvAsInt("REDIS_DB", 0),

		RejectConsecutiveBids: getEnvAsBool("REJECT_CONSECUTIVE_BIDS", false),
		AuctionsStartPending:  getEnvAsBool("AUCTIONS_START_PENDING", false),

		MonitorInterval: getEnvAsDuration("MONITOR_INTERVAL", 15*time.Second),

		MailWorkers:     getEnvAsInt("MAIL_WORKERS", 5),
		MailMaxAttempts: getEnvAsInt("MAIL_MAX_ATTEMPTS", 3),
		MailBackoffBase: getEnvAsDuration("MAIL_BACKOFF_BASE", 2*time.Second),

		Debug: getEnvAsBool("DEBUG", false),
	}
}

// Helper functions for parsing environment variables
func getEnv(key, defaultVal string) string {
	if value, exists := os.LookupEnv(key); exists && strings.TrimSpace(value) != "" {
		return value
	}
	return defaultVal
}

func getEnvAsInt(key string, defaultVal int) int {
	if value, err := strconv.Atoi(getEnv(key, "")); err == nil {
		return value
	}
	return defaultVal
}

func getEnvAsBool(key string, defaultVal bool) bool {
	if value, err := strconv.ParseBool(getEnv(key, "")); err == nil {
		return value
	}
	return defaultVal
}

func getEnvAsDuration(key string, defaultVal time.Duration) time.Duration {
	if value, err := time.ParseDuration(getEnv(key, "")); err == nil {
		return value
	}
	return defaultVal
}
