package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

type Config struct {
	Port           int
	APIKey         string
	VerboseLogging bool
	RateLimit      int
	MaxBodyBytes   int64

	StoragePath string

	WebPushTTL         int
	WebPushSubscriber  string
	RequireHTTPSPush   bool
	DeliveryMaxRetries int

	TelegramBotToken string

	NATSURL           string
	NATSSubjectPrefix string
}

func Load() (*Config, error) {
	cfg := &Config{
		Port:           getEnvInt("PORT", 8080),
		APIKey:         os.Getenv("API_KEY"),
		VerboseLogging: getEnvBool("VERBOSE_LOGGING", false),
		RateLimit:      getEnvInt("RATE_LIMIT", 100),
		MaxBodyBytes:   int64(getEnvInt("MAX_BODY_BYTES", 1<<20)),

		StoragePath: getEnvString("STORAGE_PATH", "./data/notibridge.db"),

		WebPushTTL:         getEnvInt("WEBPUSH_TTL", 86400),
		WebPushSubscriber:  getEnvString("WEBPUSH_SUBSCRIBER", "mailto:admin@localhost"),
		RequireHTTPSPush:   getEnvBool("WEBPUSH_REQUIRE_HTTPS", true),
		DeliveryMaxRetries: getEnvInt("DELIVERY_MAX_RETRIES", 5),

		TelegramBotToken: os.Getenv("TELEGRAM_BOT_TOKEN"),

		NATSURL:           os.Getenv("NATS_URL"),
		NATSSubjectPrefix: getEnvString("NATS_SUBJECT_PREFIX", "notibridge"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.APIKey == "" {
		return fmt.Errorf("API_KEY environment variable is required")
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("PORT must be between 1 and 65535, got %d", c.Port)
	}
	if c.RateLimit <= 0 {
		return fmt.Errorf("RATE_LIMIT must be positive, got %d", c.RateLimit)
	}
	if c.MaxBodyBytes <= 0 {
		return fmt.Errorf("MAX_BODY_BYTES must be positive, got %d", c.MaxBodyBytes)
	}
	if c.DeliveryMaxRetries < 1 {
		return fmt.Errorf("DELIVERY_MAX_RETRIES must be at least 1, got %d", c.DeliveryMaxRetries)
	}
	if strings.ContainsAny(c.NATSSubjectPrefix, " *>") {
		return fmt.Errorf("NATS_SUBJECT_PREFIX must not contain spaces or wildcards")
	}
	return nil
}

func (c *Config) IsTelegramEnabled() bool {
	return c.TelegramBotToken != ""
}

func (c *Config) IsNATSEnabled() bool {
	return c.NATSURL != ""
}

func getEnvString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return value == "true" || value == "1"
	}
	return defaultValue
}
