package domain

import "time"

// Типы событий в хронологии заказа.
const (
	TimelineEventOrderCreated      = "OrderCreated"
	TimelineEventOrderCancelled    = "OrderCancelled"
	TimelineEventStatusChanged     = "OrderStatusChanged"
	TimelineEventPaymentReconciled = "PaymentReconciled"
)

// TimelineEvent описывает событие в жизненном цикле заказа.
type TimelineEvent struct {
	OrderID  string
	Type     string
	Reason   string
	Occurred time.Time
}
