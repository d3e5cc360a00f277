package auth

import (
	"fmt"
	"strings"
	"sync"

	"github.com/vladislavdragonenkov/shop/internal/domain"
)

// RoleAdmin даёт доступ к операторским маршрутам.
const RoleAdmin = "admin"

// Identity — подтверждённая личность клиента: кто делает запрос и с какой ролью.
type Identity struct {
	UserID string
	Role   string
}

// IsAdmin сообщает, имеет ли личность операторскую роль.
func (i Identity) IsAdmin() bool {
	return i.Role == RoleAdmin
}

// Authenticator проверяет bearer-токен и возвращает личность клиента.
// Реализация может ходить во внешний identity-провайдер; сервису важен
// только результат проверки.
type Authenticator interface {
	Authenticate(token string) (Identity, error)
}

var _ Authenticator = (*StaticAuthenticator)(nil)

// StaticAuthenticator хранит таблицу токенов в памяти. Используется в
// dev-окружении и тестах; токены задаются конфигурацией при старте.
type StaticAuthenticator struct {
	mu     sync.RWMutex
	tokens map[string]Identity
}

// NewStaticAuthenticator создаёт аутентификатор с пустой таблицей токенов.
func NewStaticAuthenticator() *StaticAuthenticator {
	return &StaticAuthenticator{tokens: make(map[string]Identity)}
}

// Register связывает токен с личностью. Повторная регистрация токена
// перезаписывает предыдущую личность.
func (a *StaticAuthenticator) Register(token string, identity Identity) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.tokens[token] = identity
}

// Authenticate возвращает личность по токену или domain.ErrUnauthenticated.
func (a *StaticAuthenticator) Authenticate(token string) (Identity, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	identity, ok := a.tokens[token]
	if !ok {
		return Identity{}, domain.ErrUnauthenticated
	}
	return identity, nil
}

// ParseStaticTokens разбирает конфигурационную строку вида
// "token:userID[:role],token:userID[:role],...". Пустая строка даёт
// аутентификатор без токенов (все запросы будут отклонены).
func ParseStaticTokens(raw string) (*StaticAuthenticator, error) {
	authenticator := NewStaticAuthenticator()

	raw = strings.TrimSpace(raw)
	if raw == "" {
		return authenticator, nil
	}

	for _, entry := range strings.Split(raw, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}

		parts := strings.Split(entry, ":")
		if len(parts) < 2 || len(parts) > 3 {
			return nil, fmt.Errorf("invalid auth token entry %q: want token:userID[:role]", entry)
		}
		token := strings.TrimSpace(parts[0])
		userID := strings.TrimSpace(parts[1])
		if token == "" || userID == "" {
			return nil, fmt.Errorf("invalid auth token entry %q: empty token or user id", entry)
		}

		identity := Identity{UserID: userID}
		if len(parts) == 3 {
			identity.Role = strings.TrimSpace(parts[2])
		}
		authenticator.Register(token, identity)
	}

	return authenticator, nil
}
