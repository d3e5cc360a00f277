package domain

import "errors"

var (
	// Ошибка отсутствующего идентификатора клиента.
	ErrCustomerRequired = errors.New("customer_id is required")
	// Ошибка отсутствия хотя бы одного товара в заказе.
	ErrItemsRequired = errors.New("order must contain at least one item")
	// Ошибка отрицательной суммы заказа.
	ErrAmountNegative = errors.New("amount_minor must be non-negative")
	// Ошибка отсутствующей ссылки на товар в позиции.
	ErrItemProductRequired = errors.New("item product is required")
	// Ошибка при некорректном количестве товара (<= 0).
	ErrItemQtyInvalid = errors.New("item qty must be greater than zero")
	// Ошибка, если цена позиции отрицательная.
	ErrItemPriceInvalid = errors.New("item price must be non-negative")
	// Ошибка несоответствия суммы заказа и сумм позиций.
	ErrAmountMismatch = errors.New("order amount does not match items sum")
	// Ошибки обязательных полей адреса доставки.
	ErrAddressStreetRequired  = errors.New("shipping address street is required")
	ErrAddressCityRequired    = errors.New("shipping address city is required")
	ErrAddressCountryRequired = errors.New("shipping address country is required")
	// Ошибка неизвестного статуса заказа.
	ErrOrderStatusUnknown = errors.New("unknown order status")
	// Ошибка неизвестного статуса оплаты.
	ErrPaymentStatusUnknown = errors.New("unknown payment status")
	// Ошибка неподдерживаемого способа оплаты.
	ErrPaymentMethodInvalid = errors.New("payment method is not supported")
	// Ошибка отсутствующего идентификатора заказа.
	ErrOrderIDRequired = errors.New("order_id is required")
	// Ошибка отсутствующего идентификатора checkout-сессии.
	ErrSessionIDRequired = errors.New("session_id is required")
	// Ошибка отрицательной суммы платежа.
	ErrPaymentAmountNegative = errors.New("payment amount must be non-negative")
	// Ошибка отсутствующего имени счётчика последовательности.
	ErrSequenceNameRequired = errors.New("sequence name is required")

	// ErrOrderNotFound возвращается, если заказ не найден в репозитории.
	ErrOrderNotFound = errors.New("order not found")
	// ErrOrderVersionConflict сигнализирует о конфликте версий при сохранении.
	ErrOrderVersionConflict = errors.New("order version conflict")
	// ErrProductNotFound возвращается, если товар не найден в каталоге.
	ErrProductNotFound = errors.New("product not found")
	// ErrInsufficientStock — доступного стока меньше, чем запрошено.
	ErrInsufficientStock = errors.New("insufficient stock")
	// ErrIntentNotFound возвращается, если payment intent не найден.
	ErrIntentNotFound = errors.New("payment intent not found")

	// ErrOrderStateConflict — операция недопустима в текущем статусе заказа
	// (например, отмена уже отправленного заказа).
	ErrOrderStateConflict = errors.New("operation is not allowed in current order state")
	// ErrStatusTransitionDenied — запрошенный переход отсутствует в таблице переходов.
	ErrStatusTransitionDenied = errors.New("status transition is not allowed")
	// ErrAccessDenied — клиент пытается работать с чужим заказом или без нужной роли.
	ErrAccessDenied = errors.New("access denied")
	// ErrUnauthenticated — запрос без подтверждённой личности.
	ErrUnauthenticated = errors.New("authentication required")

	// ErrWebhookSignature — подпись webhook-события не прошла проверку;
	// состояние при этом не меняется.
	ErrWebhookSignature = errors.New("webhook signature verification failed")
	// ErrWebhookPayloadInvalid — тело webhook-события не разбирается.
	ErrWebhookPayloadInvalid = errors.New("webhook payload is malformed")
	// ErrCheckoutUnavailable — внешний платёжный провайдер недоступен.
	ErrCheckoutUnavailable = errors.New("checkout provider unavailable")

	// Ошибки идемпотентности HTTP-запросов.
	ErrIdempotencyKeyRequired         = errors.New("idempotency key is required")
	ErrIdempotencyRequestHashRequired = errors.New("idempotency request hash is required")
	ErrIdempotencyKeyNotFound         = errors.New("idempotency key not found")
	ErrIdempotencyKeyAlreadyExists    = errors.New("idempotency key already exists")
	ErrIdempotencyHashMismatch        = errors.New("idempotency key reused with different request")

	// ErrOutboxPublish — ошибка при публикации сообщения из outbox.
	ErrOutboxPublish = errors.New("outbox publish failed")
)

// IsVersionConflict проверяет, является ли ошибка конфликтом версий.
func IsVersionConflict(err error) bool {
	return errors.Is(err, ErrOrderVersionConflict)
}

// IsNotFound объединяет «не найдено» по всем сущностям; удобно для маппинга в HTTP 404.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrOrderNotFound) ||
		errors.Is(err, ErrProductNotFound) ||
		errors.Is(err, ErrIntentNotFound)
}
