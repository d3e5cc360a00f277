package payment

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/shop/internal/domain"
	"github.com/vladislavdragonenkov/shop/internal/metrics"
)

// EventTypeCheckoutCompleted — единственный тип события, несущий бизнес-эффект.
// Остальные типы подтверждаются без обработки.
const EventTypeCheckoutCompleted = "checkout.session.completed"

// Event — разобранное webhook-событие провайдера.
type Event struct {
	Type string `json:"type"`
	Data struct {
		Object struct {
			// ID — идентификатор checkout-сессии, join key к payment intent.
			ID string `json:"id"`
			// AmountTotal — авторитетная сумма платежа от провайдера.
			AmountTotal int64 `json:"amount_total"`
		} `json:"object"`
	} `json:"data"`
}

// Reconciler применяет платёжные события к intent'ам и заказам. Все мутации
// идемпотентны: провайдер доставляет события at-least-once и без порядка.
type Reconciler struct {
	intents  domain.PaymentIntentRepository
	orders   domain.OrderRepository
	timeline domain.TimelineRepository
	outbox   domain.OutboxRepository
	logger   *log.Entry
	metrics  *metrics.WebhookMetrics
}

// NewReconciler конструирует reconciler с зависимостями.
func NewReconciler(
	intents domain.PaymentIntentRepository,
	orders domain.OrderRepository,
	timeline domain.TimelineRepository,
	outbox domain.OutboxRepository,
	logger *log.Entry,
) *Reconciler {
	r := newReconciler(intents, orders, timeline, outbox, logger)
	r.metrics = metrics.NewWebhookMetrics()
	return r
}

// NewReconcilerWithoutMetrics создаёт reconciler без метрик (для тестов).
func NewReconcilerWithoutMetrics(
	intents domain.PaymentIntentRepository,
	orders domain.OrderRepository,
	timeline domain.TimelineRepository,
	outbox domain.OutboxRepository,
	logger *log.Entry,
) *Reconciler {
	return newReconciler(intents, orders, timeline, outbox, logger)
}

func newReconciler(
	intents domain.PaymentIntentRepository,
	orders domain.OrderRepository,
	timeline domain.TimelineRepository,
	outbox domain.OutboxRepository,
	logger *log.Entry,
) *Reconciler {
	if logger == nil {
		logger = log.New().WithField("component", "payment-reconciler")
	}
	return &Reconciler{
		intents:  intents,
		orders:   orders,
		timeline: timeline,
		outbox:   outbox,
		logger:   logger,
	}
}

// RecordSignatureRejected учитывает событие, отброшенное по подписи.
// Вызывается транспортом: проверка подписи происходит до reconciler'а.
func (r *Reconciler) RecordSignatureRejected() {
	if r.metrics != nil {
		r.metrics.RecordSignatureRejected()
	}
}

// HandleEvent разбирает аутентифицированное тело события и применяет его.
// Возврат nil означает «подтвердить доставку»: неизвестные сессии и заказы
// сознательно не считаются ошибкой, иначе провайдер будет ретраить вечно.
func (r *Reconciler) HandleEvent(body []byte) error {
	if r.metrics != nil {
		r.metrics.RecordReceived()
	}

	var event Event
	if err := json.Unmarshal(body, &event); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrWebhookPayloadInvalid, err)
	}

	if event.Type != EventTypeCheckoutCompleted {
		r.logger.WithField("event_type", event.Type).Debug("ignoring webhook event type")
		return nil
	}

	sessionID := event.Data.Object.ID
	if sessionID == "" {
		return domain.ErrSessionIDRequired
	}

	intent, err := r.intents.GetBySession(sessionID)
	if err != nil {
		if errors.Is(err, domain.ErrIntentNotFound) {
			r.logger.WithField("session_id", sessionID).Warn("webhook for unknown checkout session, acknowledging")
			if r.metrics != nil {
				r.metrics.RecordUnknownSession()
			}
			return nil
		}
		return fmt.Errorf("load payment intent: %w", err)
	}

	amount := event.Data.Object.AmountTotal

	// Повторная доставка уже применённого события: intent не трогаем, но
	// заказ досводим — предыдущая доставка могла упасть после сохранения
	// intent'а и до сохранения заказа, именно её ретрай и лечит.
	if intent.Status == domain.PaymentStatusPaid && intent.AmountMinor == amount {
		r.logger.WithField("session_id", sessionID).Debug("intent already reconciled, syncing order")
		if r.metrics != nil {
			r.metrics.RecordReplayed()
		}
		return r.applyToOrder(intent.OrderID, amount, time.Now().UTC())
	}

	if !intent.Status.CanTransitionTo(domain.PaymentStatusPaid) {
		r.logger.WithFields(log.Fields{
			"session_id": sessionID,
			"status":     intent.Status,
		}).Warn("payment status transition not allowed, acknowledging")
		return nil
	}

	now := time.Now().UTC()
	intent.Status = domain.PaymentStatusPaid
	intent.AmountMinor = amount
	intent.UpdatedAt = now
	if err := r.intents.Save(intent); err != nil {
		return fmt.Errorf("save payment intent: %w", err)
	}

	if err := r.applyToOrder(intent.OrderID, amount, now); err != nil {
		return err
	}

	if r.metrics != nil {
		r.metrics.RecordReconciled()
	}
	return nil
}

func (r *Reconciler) applyToOrder(orderID string, amount int64, now time.Time) error {
	order, err := r.orders.Get(orderID)
	if err != nil {
		if errors.Is(err, domain.ErrOrderNotFound) {
			r.logger.WithField("order_id", orderID).Warn("reconciled payment references missing order, acknowledging")
			return nil
		}
		return fmt.Errorf("load order: %w", err)
	}

	if order.PaymentStatus == domain.PaymentStatusPaid && order.AmountMinor == amount {
		r.logger.WithField("order_id", orderID).Debug("order already reconciled, replay ignored")
		return nil
	}

	if order.PaymentStatus != domain.PaymentStatusPaid &&
		!order.PaymentStatus.CanTransitionTo(domain.PaymentStatusPaid) {
		r.logger.WithFields(log.Fields{
			"order_id":       orderID,
			"payment_status": order.PaymentStatus,
		}).Warn("order payment status transition not allowed, acknowledging")
		return nil
	}

	order.PaymentStatus = domain.PaymentStatusPaid
	// Сумма провайдера авторитетна и перезаписывает расчётную.
	order.AmountMinor = amount
	order.UpdatedAt = now
	if err := r.orders.Save(order); err != nil {
		return fmt.Errorf("save order: %w", err)
	}

	r.appendTimeline(order.ID, now)
	r.enqueueEvent(order, amount)

	return nil
}

func (r *Reconciler) appendTimeline(orderID string, occurred time.Time) {
	if r.timeline == nil {
		return
	}
	event := domain.TimelineEvent{
		OrderID:  orderID,
		Type:     domain.TimelineEventPaymentReconciled,
		Reason:   string(domain.PaymentStatusPaid),
		Occurred: occurred,
	}
	if err := r.timeline.Append(event); err != nil {
		r.logger.WithError(err).WithField("order_id", orderID).Warn("failed to append timeline event")
	}
}

func (r *Reconciler) enqueueEvent(order domain.Order, amount int64) {
	if r.outbox == nil {
		return
	}
	payload, err := json.Marshal(map[string]interface{}{
		"order_id":       order.ID,
		"payment_status": string(order.PaymentStatus),
		"amount_minor":   amount,
	})
	if err != nil {
		r.logger.WithError(err).WithField("order_id", order.ID).Error("marshal event failed")
		return
	}

	msg := domain.OutboxMessage{
		AggregateType: "order",
		AggregateID:   order.ID,
		EventType:     domain.EventTypePaymentReconciled,
		Payload:       payload,
	}
	if _, err := r.outbox.Enqueue(msg); err != nil {
		r.logger.WithError(err).WithField("order_id", order.ID).Error("enqueue event failed")
	}
}
