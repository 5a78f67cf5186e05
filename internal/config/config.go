// Package config loads the service's environment-variable configuration
// and the device fleet YAML it manages. Environment loading follows the
// original system's precedence per key: the real process environment wins,
// then .env.local, then .env (the files are loaded in that order and
// godotenv never overwrites a key already present).
package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"

	"github.com/abcfood/fingerprint-mw/internal/apperr"
)

// Settings is the fully-resolved process configuration.
type Settings struct {
	Environment string `validate:"required"`
	LogLevel    string

	APIHost        string
	APIPort        int
	APIKey         string `validate:"required"`
	APICORSOrigins []string

	DevicesConfigPath string `validate:"required"`

	S3Endpoint  string
	S3AccessKey string
	S3SecretKey string
	S3Bucket    string
	S3Region    string
	S3UseSSL    bool

	HRISBaseURL string
	HRISAPIKey  string

	SchedulerEnabled    bool
	CacheRefreshMinutes int
	BackupHourUTC       int
	BackupMinuteUTC     int
	BackupRetentionDays int

	TelegramBotToken     string
	TelegramChatID       string
	MattermostWebhookURL string
}

// Load reads .env.local, then .env (first value per key wins), overlays the
// real process environment, and validates the result. Any validation
// failure is returned as apperr.KindInvalidConfig.
func Load() (*Settings, error) {
	_ = godotenv.Load(".env.local")
	_ = godotenv.Load(".env")

	s := &Settings{
		Environment:       getEnv("ENVIRONMENT", "production"),
		LogLevel:          getEnv("LOG_LEVEL", "info"),
		APIHost:           getEnv("API_HOST", "0.0.0.0"),
		APIPort:           getEnvInt("API_PORT", 8000),
		APIKey:            os.Getenv("API_KEY"),
		APICORSOrigins:    parseCORSOrigins(os.Getenv("API_CORS_ORIGINS")),
		DevicesConfigPath: os.Getenv("ZK_MACHINES_CONFIG"),

		S3Endpoint:  os.Getenv("S3_ENDPOINT"),
		S3AccessKey: os.Getenv("S3_ACCESS_KEY"),
		S3SecretKey: os.Getenv("S3_SECRET_KEY"),
		S3Bucket:    os.Getenv("S3_BUCKET"),
		S3Region:    getEnv("S3_REGION", "us-east-1"),
		S3UseSSL:    getEnvBool("S3_USE_SSL", true),

		HRISBaseURL: os.Getenv("ODOO_URL"),
		HRISAPIKey:  os.Getenv("ODOO_API_KEY"),

		SchedulerEnabled:    getEnvBool("SCHEDULER_ENABLED", true),
		CacheRefreshMinutes: getEnvInt("CACHE_REFRESH_MINUTES", 5),
		BackupHourUTC:       getEnvInt("BACKUP_HOUR_UTC", 18),
		BackupMinuteUTC:     getEnvInt("BACKUP_MINUTE_UTC", 0),
		BackupRetentionDays: getEnvInt("BACKUP_RETENTION_DAYS", 30),

		TelegramBotToken:     os.Getenv("TELEGRAM_BOT_TOKEN"),
		TelegramChatID:       os.Getenv("TELEGRAM_CHAT_ID"),
		MattermostWebhookURL: os.Getenv("MATTERMOST_WEBHOOK_URL"),
	}

	if err := validator.New().Struct(s); err != nil {
		return nil, apperr.Wrap(apperr.KindInvalidConfig, "validate settings", err)
	}
	return s, nil
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
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func getEnvBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}

// parseCORSOrigins splits a comma-separated origin list, trimming
// whitespace and dropping empty entries — matching the original's
// cors_origins property exactly.
func parseCORSOrigins(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
