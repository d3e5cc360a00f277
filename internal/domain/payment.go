package domain

import "time"

// PaymentStatus описывает состояние оплаты заказа. Это отдельный от
// жизненного цикла автомат: его двигает только платёжная сверка (webhook),
// тогда как статус заказа меняют клиент и оператор.
type PaymentStatus string

const (
	// PaymentStatusPending — оплата инициирована, подтверждение не получено.
	PaymentStatusPending PaymentStatus = "pending"
	// PaymentStatusPaid — платёж подтверждён внешним провайдером.
	PaymentStatusPaid PaymentStatus = "paid"
	// PaymentStatusFailed — провайдер отклонил платёж.
	PaymentStatusFailed PaymentStatus = "failed"
	// PaymentStatusRefunded — деньги возвращены клиенту.
	PaymentStatusRefunded PaymentStatus = "refunded"
)

// paymentStatusTransitions — таблица допустимых переходов оплаты.
var paymentStatusTransitions = map[PaymentStatus][]PaymentStatus{
	PaymentStatusPending:  {PaymentStatusPaid, PaymentStatusFailed},
	PaymentStatusPaid:     {PaymentStatusRefunded},
	PaymentStatusFailed:   nil,
	PaymentStatusRefunded: nil,
}

// Valid проверяет, что статус принадлежит известному перечислению.
func (s PaymentStatus) Valid() bool {
	_, ok := paymentStatusTransitions[s]
	return ok
}

// CanTransitionTo проверяет переход по таблице допустимых переходов.
// Повторный переход paid -> paid не является переходом: сверка обязана
// обрабатывать его как no-op (at-least-once доставка событий).
func (s PaymentStatus) CanTransitionTo(target PaymentStatus) bool {
	for _, next := range paymentStatusTransitions[s] {
		if next == target {
			return true
		}
	}
	return false
}

// PaymentIntent связывает внешнюю checkout-сессию с локальным заказом.
// Это join key между асинхронным callback провайдера и заказом: по одному
// intent на каждую попытку оформления.
type PaymentIntent struct {
	ID string
	// OrderID — заказ, под который создана сессия.
	OrderID string
	// SessionID — идентификатор checkout-сессии у внешнего провайдера.
	SessionID string
	Status    PaymentStatus
	// AmountMinor — зафиксированная сумма; после подтверждения перезаписывается
	// авторитетной суммой из события провайдера.
	AmountMinor int64
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Validate проверяет корректность полей intent и возвращает ошибки, если они есть.
func (p *PaymentIntent) Validate() []error {
	var errs []error

	if p.OrderID == "" {
		errs = append(errs, ErrOrderIDRequired)
	}
	if p.SessionID == "" {
		errs = append(errs, ErrSessionIDRequired)
	}
	if p.AmountMinor < 0 {
		errs = append(errs, ErrPaymentAmountNegative)
	}

	return errs
}
