package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config хранит конфигурацию времени выполнения для сервиса обратной связи.
type Config struct {
	BotToken                   string
	TelegramWebhookURL         string
	TelegramWebhookDropPending bool
	WebhookSecret              string
	FriendworkSecret           string
	SheetsWebhookURL           string
	SheetsWebhookKey           string
	SheetsTimeout              time.Duration
	SpeechAPIURL               string
	SpeechLanguageCode         string
	AdminChatID                int64
	AdminContact               string
	DatabaseURL                string
	RedisURL                   string
	Port                       string
	LogLevel                   string
	TelegramTimeout            time.Duration
	TelegramPollingEnabled     bool
	TelegramPollingTimeout     time.Duration
	TelegramPollingInterval    time.Duration
	TelegramPollingLimit       int
	TelegramPollingDropPending bool
	TelegramInboundRateLimit   int
	IntakeRateLimit            int
	BufferRecentLimit          int
	DBMaxOpenConns             int
	DBMaxIdleConns             int
	DBConnMaxIdle              time.Duration
	DBConnMaxLife              time.Duration
}

// Load читает конфигурацию из переменных окружения.
func Load() (Config, error) {
	cfg := Config{
		Port:                       envOr("PORT", "8080"),
		LogLevel:                   envOr("LOG_LEVEL", "info"),
		TelegramTimeout:            durationOr("TELEGRAM_TIMEOUT", 5*time.Second),
		TelegramPollingEnabled:     boolOr("TELEGRAM_POLLING_ENABLED", false),
		TelegramPollingTimeout:     durationOr("TELEGRAM_POLLING_TIMEOUT", 25*time.Second),
		TelegramPollingInterval:    durationOr("TELEGRAM_POLLING_INTERVAL", time.Second),
		TelegramPollingLimit:       intOr("TELEGRAM_POLLING_LIMIT", 50),
		TelegramPollingDropPending: boolOr("TELEGRAM_POLLING_DROP_PENDING", true),
		TelegramInboundRateLimit:   intOr("TELEGRAM_INBOUND_RATE_LIMIT_PER_MIN", 30),
		IntakeRateLimit:            intOr("FRIENDWORK_RATE_LIMIT_PER_MIN", 60),
		TelegramWebhookURL:         envOr("TELEGRAM_WEBHOOK_URL", ""),
		TelegramWebhookDropPending: boolOr("TELEGRAM_WEBHOOK_DROP_PENDING", false),
		SheetsTimeout:              durationOr("SHEETS_TIMEOUT", 15*time.Second),
		SpeechLanguageCode:         envOr("SPEECH_LANGUAGE_CODE", "en-US"),
		AdminContact:               envOr("ADMIN_CONTACT", "@your_admin"),
		BufferRecentLimit:          intOr("BUFFER_RECENT_LIMIT", 20),
		DBMaxOpenConns:             intOr("DB_MAX_OPEN_CONNS", 25),
		DBMaxIdleConns:             intOr("DB_MAX_IDLE_CONNS", 10),
		DBConnMaxIdle:              durationOr("DB_CONN_MAX_IDLE", 5*time.Minute),
		DBConnMaxLife:              durationOr("DB_CONN_MAX_LIFE", 30*time.Minute),
		RedisURL:                   envOr("REDIS_URL", ""),
	}

	cfg.BotToken = strings.TrimSpace(os.Getenv("TELEGRAM_BOT_TOKEN"))
	cfg.WebhookSecret = strings.TrimSpace(os.Getenv("TELEGRAM_WEBHOOK_SECRET"))
	cfg.FriendworkSecret = strings.TrimSpace(os.Getenv("FRIENDWORK_SECRET"))
	cfg.SheetsWebhookURL = strings.TrimSpace(os.Getenv("SHEETS_WEBHOOK_URL"))
	cfg.SheetsWebhookKey = strings.TrimSpace(os.Getenv("SHEETS_WEBHOOK_KEY"))
	cfg.SpeechAPIURL = strings.TrimSpace(os.Getenv("SPEECH_API_URL"))
	cfg.DatabaseURL = strings.TrimSpace(os.Getenv("DATABASE_URL"))

	if raw := strings.TrimSpace(os.Getenv("ADMIN_CHAT_ID")); raw != "" {
		parsed, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return Config{}, fmt.Errorf("ADMIN_CHAT_ID must be an integer chat id")
		}
		cfg.AdminChatID = parsed
	}

	missing := make([]string, 0, 2)
	if cfg.BotToken == "" {
		missing = append(missing, "TELEGRAM_BOT_TOKEN")
	}
	if cfg.FriendworkSecret == "" {
		missing = append(missing, "FRIENDWORK_SECRET")
	}
	if len(missing) > 0 {
		return Config{}, fmt.Errorf("missing required env vars: %s", strings.Join(missing, ", "))
	}

	if cfg.TelegramInboundRateLimit < 0 {
		return Config{}, fmt.Errorf("TELEGRAM_INBOUND_RATE_LIMIT_PER_MIN must not be negative")
	}
	if cfg.IntakeRateLimit < 0 {
		return Config{}, fmt.Errorf("FRIENDWORK_RATE_LIMIT_PER_MIN must not be negative")
	}
	if cfg.BufferRecentLimit <= 0 {
		return Config{}, fmt.Errorf("BUFFER_RECENT_LIMIT must be positive")
	}

	return cfg, nil
}

func envOr(key, fallback string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	return value
}

func durationOr(key string, fallback time.Duration) time.Duration {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	duration, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return duration
}

func intOr(key string, fallback int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func boolOr(key string, fallback bool) bool {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	switch strings.ToLower(value) {
	case "1", "true", "yes", "y", "on":
		return true
	case "0", "false", "no", "n", "off":
		return false
	default:
		return fallback
	}
}
