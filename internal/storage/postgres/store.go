package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
)

// Настройки пула рассчитаны на профиль сервиса: короткие транзакции
// размещения и отмены заказов плюс фоновые воркеры (outbox, очистка
// idempotency ключей), которые ходят в базу небольшими батчами.
const (
	openPingTimeout = 5 * time.Second

	poolMaxOpenConns    = 25
	poolMaxIdleConns    = 25
	poolConnMaxLifetime = 30 * time.Minute
	poolConnMaxIdleTime = 5 * time.Minute
)

// Store держит пул подключений к PostgreSQL. Все репозитории сервиса —
// заказы, товары, payment intent'ы, счётчики номеров, outbox,
// idempotency — делят этот пул.
type Store struct {
	db *sql.DB
}

// Open создаёт пул через pgx/stdlib и убеждается, что база отвечает.
func Open(ctx context.Context, dsn string) (*Store, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres connection: %w", err)
	}

	db.SetMaxOpenConns(poolMaxOpenConns)
	db.SetMaxIdleConns(poolMaxIdleConns)
	db.SetConnMaxLifetime(poolConnMaxLifetime)
	db.SetConnMaxIdleTime(poolConnMaxIdleTime)

	pingCtx, cancel := context.WithTimeout(ctx, openPingTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	return &Store{db: db}, nil
}

// DB отдаёт пул репозиториям и мигратору.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Ping обслуживает readiness-пробу. Дедлайн задаёт вызывающий через ctx.
func (s *Store) Ping(ctx context.Context) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("postgres store is not initialized")
	}
	return s.db.PingContext(ctx)
}

// Close закрывает пул.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}
