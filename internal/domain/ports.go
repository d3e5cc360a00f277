package domain

import "time"

// CheckoutSession — результат создания платёжной сессии у внешнего провайдера.
type CheckoutSession struct {
	// SessionID — идентификатор сессии; по нему провайдер ссылается на
	// платёж в асинхронных событиях.
	SessionID string
	// URL — страница оплаты, на которую уходит клиент.
	URL string
}

// CheckoutProvider описывает взаимодействие с внешним платёжным провайдером.
// Полная поверхность API провайдера вне зоны ответственности сервиса —
// потребляется только создание сессии.
type CheckoutProvider interface {
	// CreateSession создаёт checkout-сессию под заказ.
	CreateSession(order Order) (CheckoutSession, error)
}

// OutboxPublisher публикует события из transactional outbox.
type OutboxPublisher interface {
	// Publish передаёт событие наружу; должен быть идемпотентным.
	Publish(event OutboxMessage) error
}

// OutboxRepository позволяет сохранять события для последующей публикации.
type OutboxRepository interface {
	Enqueue(msg OutboxMessage) (OutboxMessage, error)
	PullPending(limit int) ([]OutboxMessage, error)
	Stats() (OutboxStats, error)
	MarkSent(id string) error
	MarkFailed(id string) error
}

// TimelineRepository хранит события жизненного цикла заказа (аудит).
type TimelineRepository interface {
	Append(event TimelineEvent) error
	List(orderID string) ([]TimelineEvent, error)
}

// IdempotencyRepository хранит состояние обработки запросов по idempotency-key.
type IdempotencyRepository interface {
	CreateProcessing(key, requestHash string, ttlAt time.Time) (IdempotencyRecord, error)
	Get(key string) (IdempotencyRecord, error)
	MarkDone(key string, responseBody []byte, httpStatus int) error
	MarkFailed(key string, responseBody []byte, httpStatus int) error
	DeleteExpired(before time.Time, limit int) (int, error)
}

// Типы событий, проходящих через transactional outbox.
const (
	EventTypeOrderCreated       = "order.created"
	EventTypeOrderCancelled     = "order.cancelled"
	EventTypeOrderStatusChanged = "order.status_changed"
	EventTypePaymentReconciled  = "payment.reconciled"
)

// OutboxMessage хранит данные для публикуемого события.
type OutboxMessage struct {
	ID            string
	AggregateType string
	AggregateID   string
	EventType     string
	Payload       []byte
}

// OutboxStats описывает текущее состояние backlog transactional outbox.
type OutboxStats struct {
	PendingCount    int
	OldestPendingAt time.Time
}
