package memory

import (
	"sync"

	"github.com/vladislavdragonenkov/shop/internal/domain"
)

// paymentIntentRepositoryInMemory — in-memory реализация PaymentIntentRepository.
// Записи индексируются по идентификатору внешней сессии: это ключ, по которому
// приходит асинхронное подтверждение платежа.
type paymentIntentRepositoryInMemory struct {
	mu        sync.RWMutex
	bySession map[string]domain.PaymentIntent
}

// NewPaymentIntentRepository создаёт in-memory реализацию PaymentIntentRepository.
func NewPaymentIntentRepository() domain.PaymentIntentRepository {
	return &paymentIntentRepositoryInMemory{
		bySession: make(map[string]domain.PaymentIntent),
	}
}

// Create сохраняет новый intent.
func (r *paymentIntentRepositoryInMemory) Create(intent domain.PaymentIntent) error {
	if errs := intent.Validate(); len(errs) > 0 {
		return errs[0]
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.bySession[intent.SessionID] = intent
	return nil
}

// GetBySession возвращает intent по идентификатору внешней сессии.
func (r *paymentIntentRepositoryInMemory) GetBySession(sessionID string) (domain.PaymentIntent, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	intent, ok := r.bySession[sessionID]
	if !ok {
		return domain.PaymentIntent{}, domain.ErrIntentNotFound
	}
	return intent, nil
}

// Save перезаписывает intent.
func (r *paymentIntentRepositoryInMemory) Save(intent domain.PaymentIntent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.bySession[intent.SessionID]; !ok {
		return domain.ErrIntentNotFound
	}
	r.bySession[intent.SessionID] = intent
	return nil
}

var _ domain.PaymentIntentRepository = (*paymentIntentRepositoryInMemory)(nil)
