package app

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Поддерживаемые драйверы хранилища.
const (
	StorageMemory   = "memory"
	StoragePostgres = "postgres"
)

// envPrefix задаёт префикс переменных окружения: SHOP_HTTP_ADDR и т.д.
const envPrefix = "shop"

// Config описывает настройки запуска сервиса.
type Config struct {
	HTTPAddr    string `envconfig:"http_addr" default:":8080"`
	MetricsAddr string `envconfig:"metrics_addr" default:":9090"`

	StorageDriver string `envconfig:"storage_driver" default:"memory"`
	PostgresDSN   string `envconfig:"postgres_dsn"`
	AutoMigrate   bool   `envconfig:"auto_migrate" default:"true"`

	// KafkaBrokers пустой — сервис работает без продьюсера и outbox-воркера.
	KafkaBrokers []string `envconfig:"kafka_brokers"`

	WebhookSecret    string        `envconfig:"webhook_secret"`
	WebhookTolerance time.Duration `envconfig:"webhook_tolerance" default:"5m"`

	// AuthTokens — статическая таблица токенов "token:userID[:role],...".
	AuthTokens string `envconfig:"auth_tokens"`

	IdempotencyTTL             time.Duration `envconfig:"idempotency_ttl" default:"24h"`
	IdempotencyCleanupInterval time.Duration `envconfig:"idempotency_cleanup_interval" default:"1h"`

	OutboxPollInterval time.Duration `envconfig:"outbox_poll_interval" default:"2s"`
	OutboxBatchSize    int           `envconfig:"outbox_batch_size" default:"50"`
	OutboxMaxAttempts  int           `envconfig:"outbox_max_attempts" default:"5"`
}

// LoadConfig читает конфигурацию из переменных окружения SHOP_*.
func LoadConfig() (Config, error) {
	var cfg Config
	if err := envconfig.Process(envPrefix, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// DefaultConfig возвращает конфигурацию по умолчанию (in-memory хранилище).
func DefaultConfig() Config {
	return Config{
		HTTPAddr:                   ":8080",
		MetricsAddr:                ":9090",
		StorageDriver:              StorageMemory,
		AutoMigrate:                true,
		WebhookTolerance:           5 * time.Minute,
		IdempotencyTTL:             24 * time.Hour,
		IdempotencyCleanupInterval: time.Hour,
		OutboxPollInterval:         2 * time.Second,
		OutboxBatchSize:            50,
		OutboxMaxAttempts:          5,
	}
}

// Validate проверяет согласованность настроек.
func (c Config) Validate() error {
	switch c.StorageDriver {
	case StorageMemory, StoragePostgres:
	default:
		return fmt.Errorf("unsupported storage driver %q (use %s or %s)", c.StorageDriver, StorageMemory, StoragePostgres)
	}

	if c.StorageDriver == StoragePostgres && c.PostgresDSN == "" {
		return fmt.Errorf("postgres storage requires SHOP_POSTGRES_DSN")
	}

	if c.WebhookSecret == "" {
		return fmt.Errorf("SHOP_WEBHOOK_SECRET is required")
	}

	return nil
}
