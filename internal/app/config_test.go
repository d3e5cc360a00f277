package app

import (
	"testing"
	"time"
)

func validConfig() Config {
	cfg := DefaultConfig()
	cfg.WebhookSecret = "whsec-test"
	return cfg
}

func TestConfig_Validate(t *testing.T) {
	t.Parallel()

	if err := validConfig().Validate(); err != nil {
		t.Fatalf("valid config rejected: %v", err)
	}

	cfg := validConfig()
	cfg.StorageDriver = "cassandra"
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for unsupported storage driver")
	}

	cfg = validConfig()
	cfg.StorageDriver = StoragePostgres
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for postgres without dsn")
	}

	cfg.PostgresDSN = "postgres://localhost/shop"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("postgres config with dsn rejected: %v", err)
	}

	cfg = validConfig()
	cfg.WebhookSecret = ""
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for missing webhook secret")
	}
}

func TestLoadConfig_Defaults(t *testing.T) {
	t.Setenv("SHOP_WEBHOOK_SECRET", "whsec-test")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if cfg.HTTPAddr != ":8080" {
		t.Errorf("unexpected http addr: %s", cfg.HTTPAddr)
	}
	if cfg.MetricsAddr != ":9090" {
		t.Errorf("unexpected metrics addr: %s", cfg.MetricsAddr)
	}
	if cfg.StorageDriver != StorageMemory {
		t.Errorf("unexpected storage driver: %s", cfg.StorageDriver)
	}
	if cfg.IdempotencyTTL != 24*time.Hour {
		t.Errorf("unexpected idempotency ttl: %s", cfg.IdempotencyTTL)
	}
	if cfg.OutboxBatchSize != 50 {
		t.Errorf("unexpected outbox batch size: %d", cfg.OutboxBatchSize)
	}
	if len(cfg.KafkaBrokers) != 0 {
		t.Errorf("expected no kafka brokers, got %v", cfg.KafkaBrokers)
	}
}

func TestLoadConfig_Overrides(t *testing.T) {
	t.Setenv("SHOP_WEBHOOK_SECRET", "whsec-test")
	t.Setenv("SHOP_HTTP_ADDR", ":8181")
	t.Setenv("SHOP_KAFKA_BROKERS", "kafka-1:9092,kafka-2:9092")
	t.Setenv("SHOP_OUTBOX_POLL_INTERVAL", "500ms")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if cfg.HTTPAddr != ":8181" {
		t.Errorf("unexpected http addr: %s", cfg.HTTPAddr)
	}
	if len(cfg.KafkaBrokers) != 2 || cfg.KafkaBrokers[0] != "kafka-1:9092" {
		t.Errorf("unexpected kafka brokers: %v", cfg.KafkaBrokers)
	}
	if cfg.OutboxPollInterval != 500*time.Millisecond {
		t.Errorf("unexpected outbox poll interval: %s", cfg.OutboxPollInterval)
	}
}

func TestLoadConfig_InvalidDriver(t *testing.T) {
	t.Setenv("SHOP_WEBHOOK_SECRET", "whsec-test")
	t.Setenv("SHOP_STORAGE_DRIVER", "mongo")

	if _, err := LoadConfig(); err == nil {
		t.Fatal("expected error for unsupported storage driver")
	}
}
