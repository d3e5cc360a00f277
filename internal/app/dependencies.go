package app

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/shop/internal/domain"
	"github.com/vladislavdragonenkov/shop/internal/storage/memory"
	"github.com/vladislavdragonenkov/shop/internal/storage/postgres"
)

// Dependencies — набор репозиториев под выбранный драйвер хранилища.
type Dependencies struct {
	Orders      domain.OrderRepository
	Products    domain.ProductRepository
	Intents     domain.PaymentIntentRepository
	Sequences   domain.SequenceRepository
	Outbox      domain.OutboxRepository
	Timeline    domain.TimelineRepository
	Idempotency domain.IdempotencyRepository

	// Store не nil только для postgres-хранилища.
	Store *postgres.Store
}

// buildDependencies собирает репозитории. Для postgres дополнительно
// открывает пул соединений и, если настроено, применяет миграции.
func buildDependencies(ctx context.Context, cfg Config, logger *log.Entry) (*Dependencies, error) {
	if cfg.StorageDriver != StoragePostgres {
		logger.Info("using in-memory storage")
		return &Dependencies{
			Orders:      memory.NewOrderRepository(),
			Products:    memory.NewProductRepository(),
			Intents:     memory.NewPaymentIntentRepository(),
			Sequences:   memory.NewSequenceRepository(),
			Outbox:      memory.NewOutboxRepository(),
			Timeline:    memory.NewTimelineRepository(),
			Idempotency: memory.NewIdempotencyRepository(),
		}, nil
	}

	store, err := postgres.Open(ctx, cfg.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("open postgres store: %w", err)
	}

	if cfg.AutoMigrate {
		if err := store.MigrateUp(ctx); err != nil {
			_ = store.Close()
			return nil, fmt.Errorf("apply migrations: %w", err)
		}
		logger.Info("postgres migrations applied")
	}

	logger.Info("using postgres storage")
	return &Dependencies{
		Orders:      postgres.NewOrderRepository(store),
		Products:    postgres.NewProductRepository(store),
		Intents:     postgres.NewPaymentIntentRepository(store),
		Sequences:   postgres.NewSequenceRepository(store),
		Outbox:      postgres.NewOutboxRepository(store),
		Timeline:    postgres.NewTimelineRepository(store),
		Idempotency: postgres.NewIdempotencyRepository(store),
		Store:       store,
	}, nil
}

// Close освобождает ресурсы хранилища.
func (d *Dependencies) Close() error {
	if d.Store != nil {
		return d.Store.Close()
	}
	return nil
}
