package domain

import (
	"fmt"
	"time"
)

// OrderStatus описывает жизненный цикл заказа в магазине.
type OrderStatus string

const (
	// OrderStatusPending — заказ создан, сток зарезервирован, оплата не подтверждена.
	OrderStatusPending OrderStatus = "pending"
	// OrderStatusConfirmed — заказ подтверждён оператором.
	OrderStatusConfirmed OrderStatus = "confirmed"
	// OrderStatusProcessing — заказ собирается на складе.
	OrderStatusProcessing OrderStatus = "processing"
	// OrderStatusShipped — заказ передан в доставку.
	OrderStatusShipped OrderStatus = "shipped"
	// OrderStatusDelivered — заказ доставлен клиенту (терминальный статус).
	OrderStatusDelivered OrderStatus = "delivered"
	// OrderStatusCancelled — заказ отменён клиентом до подтверждения (терминальный статус).
	OrderStatusCancelled OrderStatus = "cancelled"
)

// orderStatusTransitions — таблица допустимых переходов жизненного цикла.
// Отмена возможна только из pending; delivered и cancelled терминальные.
var orderStatusTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusPending:    {OrderStatusConfirmed, OrderStatusCancelled},
	OrderStatusConfirmed:  {OrderStatusProcessing},
	OrderStatusProcessing: {OrderStatusShipped},
	OrderStatusShipped:    {OrderStatusDelivered},
	OrderStatusDelivered:  nil,
	OrderStatusCancelled:  nil,
}

// Valid проверяет, что статус принадлежит известному перечислению.
func (s OrderStatus) Valid() bool {
	_, ok := orderStatusTransitions[s]
	return ok
}

// Terminal сообщает, является ли статус терминальным.
func (s OrderStatus) Terminal() bool {
	transitions, ok := orderStatusTransitions[s]
	return ok && len(transitions) == 0
}

// CanTransitionTo проверяет переход по таблице допустимых переходов.
func (s OrderStatus) CanTransitionTo(target OrderStatus) bool {
	for _, next := range orderStatusTransitions[s] {
		if next == target {
			return true
		}
	}
	return false
}

// PaymentMethod описывает способ оплаты, выбранный при оформлении.
type PaymentMethod string

const (
	// PaymentMethodOnline — онлайн-оплата через внешний платёжный провайдер.
	PaymentMethodOnline PaymentMethod = "online"
	// PaymentMethodCashOnDelivery — оплата при получении.
	PaymentMethodCashOnDelivery PaymentMethod = "cash_on_delivery"
)

// Valid проверяет способ оплаты.
func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentMethodOnline, PaymentMethodCashOnDelivery:
		return true
	default:
		return false
	}
}

// OrderItem представляет одну позицию заказа. Название, цена и картинка —
// снапшоты каталога на момент оформления: последующие правки товара не
// должны менять уже размещённый заказ.
type OrderItem struct {
	// ID позиции нужен для однозначной идентификации и аудита.
	ID string
	// ProductID — ссылка на товар в каталоге.
	ProductID string
	// Name — название товара на момент оформления.
	Name string
	// PriceMinor — цена за единицу в минимальных денежных единицах (например, центы).
	PriceMinor int64
	// Qty — количество единиц товара, всегда >= 1.
	Qty int32
	// Image — URL картинки товара на момент оформления.
	Image string
	// CreatedAt фиксирует момент добавления позиции в заказ.
	CreatedAt time.Time
}

// ShippingAddress — адрес доставки, снапшот на момент оформления.
type ShippingAddress struct {
	Street      string
	City        string
	State       string
	ZipCode     string
	Country     string
	PhoneNumber string
	Email       string
}

// Validate проверяет обязательные поля адреса.
func (a *ShippingAddress) Validate() []error {
	var errs []error

	if a.Street == "" {
		errs = append(errs, ErrAddressStreetRequired)
	}
	if a.City == "" {
		errs = append(errs, ErrAddressCityRequired)
	}
	if a.Country == "" {
		errs = append(errs, ErrAddressCountryRequired)
	}

	return errs
}

// Order агрегирует состояние заказа, его позиции и адрес доставки.
// Заказ никогда не удаляется физически — только меняет статус.
type Order struct {
	ID string
	// Number — человекочитаемый номер вида ORD-000042, выдаётся генератором последовательности.
	Number     string
	CustomerID string
	Items      []OrderItem
	// AmountMinor — сумма позиций; после создания меняется только платёжной сверкой.
	AmountMinor    int64
	Status         OrderStatus
	PaymentStatus  PaymentStatus
	PaymentMethod  PaymentMethod
	Address        ShippingAddress
	Notes          string
	TrackingNumber string
	Version        int64
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// ValidateInvariants проверяет базовые инварианты заказа и возвращает список замечаний.
func (o *Order) ValidateInvariants() []error {
	var errs []error

	if o.CustomerID == "" {
		errs = append(errs, ErrCustomerRequired)
	}
	if len(o.Items) == 0 {
		errs = append(errs, ErrItemsRequired)
	}
	if o.AmountMinor < 0 {
		errs = append(errs, ErrAmountNegative)
	}
	if !o.Status.Valid() {
		errs = append(errs, ErrOrderStatusUnknown)
	}
	if !o.PaymentStatus.Valid() {
		errs = append(errs, ErrPaymentStatusUnknown)
	}

	// Сверяем сумму заказа с суммой позиций: qty * price.
	var calc int64
	for _, item := range o.Items {
		if item.ProductID == "" {
			errs = append(errs, ErrItemProductRequired)
		}
		if item.Qty <= 0 {
			errs = append(errs, ErrItemQtyInvalid)
		}
		if item.PriceMinor < 0 {
			errs = append(errs, ErrItemPriceInvalid)
		}
		calc += int64(item.Qty) * item.PriceMinor
	}
	// После платёжной сверки сумма может отличаться от расчётной,
	// поэтому несовпадение проверяем только для неоплаченных заказов.
	if o.PaymentStatus == PaymentStatusPending && calc != o.AmountMinor {
		errs = append(errs, ErrAmountMismatch)
	}

	errs = append(errs, o.Address.Validate()...)

	return errs
}

// Cancelable сообщает, может ли клиент отменить заказ. Проверка статуса
// одновременно служит защитой от повторного возврата стока: после первой
// отмены статус уже не pending.
func (o *Order) Cancelable() bool {
	return o.Status == OrderStatusPending
}

// SequenceOrderNumber — имя счётчика для номеров заказов.
const SequenceOrderNumber = "orderNumber"

// FormatOrderNumber превращает значение счётчика в человекочитаемый номер.
func FormatOrderNumber(seq int64) string {
	return fmt.Sprintf("ORD-%06d", seq)
}
