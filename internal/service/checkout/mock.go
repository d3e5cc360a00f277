package checkout

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/vladislavdragonenkov/shop/internal/domain"
)

// MockProvider — конфигурируемая заглушка CheckoutProvider. Используется в
// тестах и как провайдер по умолчанию, пока реальная интеграция не подключена.
type MockProvider struct {
	// Session — фиксированный ответ; при пустом SessionID генерируется
	// новая сессия на каждый вызов.
	Session domain.CheckoutSession
	Err     error

	Calls     int
	LastOrder domain.Order
}

// NewMockProvider возвращает mock с успешным сценарием по умолчанию.
func NewMockProvider() *MockProvider {
	return &MockProvider{}
}

// CreateSession возвращает настроенный результат и считает вызовы.
func (m *MockProvider) CreateSession(order domain.Order) (domain.CheckoutSession, error) {
	m.Calls++
	m.LastOrder = order

	if m.Err != nil {
		return domain.CheckoutSession{}, m.Err
	}
	if m.Session.SessionID != "" {
		return m.Session, nil
	}

	sessionID := "cs_" + uuid.NewString()
	return domain.CheckoutSession{
		SessionID: sessionID,
		URL:       fmt.Sprintf("https://checkout.example.com/pay/%s", sessionID),
	}, nil
}

var _ domain.CheckoutProvider = (*MockProvider)(nil)
