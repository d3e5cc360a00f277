package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/vladislavdragonenkov/shop/internal/domain"
)

type sequenceRepository struct {
	db *sql.DB
}

// NewSequenceRepository создаёт PostgreSQL-реализацию SequenceRepository.
func NewSequenceRepository(store *Store) domain.SequenceRepository {
	return &sequenceRepository{db: store.DB()}
}

// Next выполняет атомарный upsert-инкремент: счётчик создаётся при первом
// обращении, конкурентные вызовы сериализуются на уровне строки и никогда
// не возвращают одно значение дважды.
func (r *sequenceRepository) Next(name string) (int64, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return 0, domain.ErrSequenceNameRequired
	}

	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	var seq int64
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO sequence_counters (name, seq)
		VALUES ($1, 1)
		ON CONFLICT (name) DO UPDATE SET seq = sequence_counters.seq + 1
		RETURNING seq
	`, name).Scan(&seq)
	if err != nil {
		return 0, fmt.Errorf("next sequence value: %w", err)
	}

	return seq, nil
}

var _ domain.SequenceRepository = (*sequenceRepository)(nil)
