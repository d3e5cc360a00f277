package memory

import (
	"strings"
	"sync"

	"github.com/vladislavdragonenkov/shop/internal/domain"
)

// sequenceRepositoryInMemory — in-memory реализация SequenceRepository.
// Счётчик создаётся при первом обращении; мьютекс гарантирует, что два
// конкурентных вызова не получат одно значение.
type sequenceRepositoryInMemory struct {
	mu       sync.Mutex
	counters map[string]int64
}

// NewSequenceRepository создаёт in-memory реализацию SequenceRepository.
func NewSequenceRepository() domain.SequenceRepository {
	return &sequenceRepositoryInMemory{
		counters: make(map[string]int64),
	}
}

// Next атомарно инкрементирует именованный счётчик и возвращает новое значение.
func (r *sequenceRepositoryInMemory) Next(name string) (int64, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return 0, domain.ErrSequenceNameRequired
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.counters[name]++
	return r.counters[name], nil
}

var _ domain.SequenceRepository = (*sequenceRepositoryInMemory)(nil)
