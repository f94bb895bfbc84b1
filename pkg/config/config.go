package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/joho/godotenv"
)

type Config struct {
	WatchDirectoryPath  string
	MaxFileSizeBytes    int64
	AllowedPrefixes     []string
	WebhookBaseURL      string
	WebhookPath         string
	HTTPAddr            string
	HealthCheckURLs     []string
	HealthCheckInterval time.Duration
	LogLevel            string
}

func getEnv(key, defaultValue string, printEnv bool) string {
	logger := log.Default()
	value := os.Getenv(key)
	if printEnv {
		logger.Info("Env", "key", key, "value", value)
	}
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvOrPanic(key string, printEnv bool) string {
	value := getEnv(key, "", printEnv)
	if value == "" {
		panic(fmt.Sprintf("Environment variable %s is not set", key))
	}
	return value
}

func LoadConfig(printEnv bool) (*Config, error) {
	_ = godotenv.Load()

	maxSize, err := strconv.ParseInt(getEnv("CDR_MAX_FILE_SIZE_BYTES", "10485760", printEnv), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid CDR_MAX_FILE_SIZE_BYTES: %w", err)
	}

	interval, err := time.ParseDuration(getEnv("HEALTHCHECK_INTERVAL", "30s", printEnv))
	if err != nil {
		return nil, fmt.Errorf("invalid HEALTHCHECK_INTERVAL: %w", err)
	}

	conf := &Config{
		WatchDirectoryPath:  getEnv("CDR_WATCH_PATH", "./cdr-in", printEnv),
		MaxFileSizeBytes:    maxSize,
		AllowedPrefixes:     splitList(getEnv("CDR_ALLOWED_PREFIXES", "", printEnv)),
		WebhookBaseURL:      getEnvOrPanic("WEBHOOK_BASE_URL", printEnv),
		WebhookPath:         getEnv("WEBHOOK_PATH", "/api/cdr-files", printEnv),
		HTTPAddr:            getEnv("HTTP_ADDR", ":9100", printEnv),
		HealthCheckURLs:     splitList(getEnv("HEALTHCHECK_URLS", "", printEnv)),
		HealthCheckInterval: interval,
		LogLevel:            getEnv("LOG_LEVEL", "info", printEnv),
	}

	return conf, nil
}

func splitList(raw string) []string {
	var out []string
	for _, item := range strings.Split(raw, ",") {
		item = strings.TrimSpace(item)
		if item != "" {
			out = append(out, item)
		}
	}
	return out
}
