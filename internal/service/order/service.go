package order

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/shop/internal/domain"
	"github.com/vladislavdragonenkov/shop/internal/metrics"
)

const (
	defaultPageSize = 10
	maxPageSize     = 100

	saveMaxRetries    = 3
	saveRetryBaseWait = 10 * time.Millisecond
)

// Service реализует операции над заказами: размещение с компенсирующим
// освобождением стока, отмену, администрирование статусов и чтение.
type Service struct {
	orders    domain.OrderRepository
	products  domain.ProductRepository
	intents   domain.PaymentIntentRepository
	sequences domain.SequenceRepository
	checkout  domain.CheckoutProvider
	outbox    domain.OutboxRepository
	timeline  domain.TimelineRepository
	logger    *log.Entry
	metrics   *metrics.OrderMetrics
}

// NewService конструирует сервис с зависимостями.
func NewService(
	orders domain.OrderRepository,
	products domain.ProductRepository,
	intents domain.PaymentIntentRepository,
	sequences domain.SequenceRepository,
	checkout domain.CheckoutProvider,
	outbox domain.OutboxRepository,
	timeline domain.TimelineRepository,
	logger *log.Entry,
) *Service {
	svc := newService(orders, products, intents, sequences, checkout, outbox, timeline, logger)
	svc.metrics = metrics.NewOrderMetrics()
	return svc
}

// NewServiceWithoutMetrics создаёт сервис без метрик (для тестов).
func NewServiceWithoutMetrics(
	orders domain.OrderRepository,
	products domain.ProductRepository,
	intents domain.PaymentIntentRepository,
	sequences domain.SequenceRepository,
	checkout domain.CheckoutProvider,
	outbox domain.OutboxRepository,
	timeline domain.TimelineRepository,
	logger *log.Entry,
) *Service {
	return newService(orders, products, intents, sequences, checkout, outbox, timeline, logger)
}

func newService(
	orders domain.OrderRepository,
	products domain.ProductRepository,
	intents domain.PaymentIntentRepository,
	sequences domain.SequenceRepository,
	checkout domain.CheckoutProvider,
	outbox domain.OutboxRepository,
	timeline domain.TimelineRepository,
	logger *log.Entry,
) *Service {
	if logger == nil {
		logger = log.New().WithField("component", "order-service")
	}
	return &Service{
		orders:    orders,
		products:  products,
		intents:   intents,
		sequences: sequences,
		checkout:  checkout,
		outbox:    outbox,
		timeline:  timeline,
		logger:    logger,
	}
}

// CreateItemInput — позиция в запросе на размещение заказа.
type CreateItemInput struct {
	ProductID string
	Qty       int32
}

// CreateInput — запрос на размещение заказа.
type CreateInput struct {
	CustomerID    string
	Items         []CreateItemInput
	PaymentMethod domain.PaymentMethod
	Address       domain.ShippingAddress
	Notes         string
}

// CreateResult — размещённый заказ и ссылка на оплату (пустая для оплаты при получении).
type CreateResult struct {
	Order      domain.Order
	SessionID  string
	PaymentURL string
}

// Page — метаданные пагинации списков заказов.
type Page struct {
	CurrentPage int
	TotalPages  int
	TotalOrders int
	HasNext     bool
	HasPrev     bool
}

type reservedLine struct {
	productID string
	qty       int32
}

// Create размещает заказ: резервирует сток построчно, выдаёт номер,
// сохраняет заказ и создаёт платёжную сессию. Любая ошибка после частичного
// резервирования компенсируется возвратом уже списанных позиций.
func (s *Service) Create(input CreateInput) (CreateResult, error) {
	start := time.Now()
	result, err := s.create(input)
	if err != nil {
		s.recordOrderFailed()
		return CreateResult{}, err
	}

	if s.metrics != nil {
		s.metrics.RecordOrderCreated()
		s.metrics.RecordCreateDuration(time.Since(start))
	}
	return result, nil
}

func (s *Service) create(input CreateInput) (CreateResult, error) {
	if input.CustomerID == "" {
		return CreateResult{}, domain.ErrCustomerRequired
	}
	if len(input.Items) == 0 {
		return CreateResult{}, domain.ErrItemsRequired
	}
	method := input.PaymentMethod
	if method == "" {
		method = domain.PaymentMethodOnline
	}
	if !method.Valid() {
		return CreateResult{}, fmt.Errorf("%w: %q", domain.ErrPaymentMethodInvalid, input.PaymentMethod)
	}
	for _, item := range input.Items {
		if item.ProductID == "" {
			return CreateResult{}, domain.ErrItemProductRequired
		}
		if item.Qty <= 0 {
			return CreateResult{}, domain.ErrItemQtyInvalid
		}
	}
	if errs := input.Address.Validate(); len(errs) > 0 {
		return CreateResult{}, errs[0]
	}

	now := time.Now().UTC()

	// Построчное резервирование; при провале возвращаем уже списанное.
	reserved := make([]reservedLine, 0, len(input.Items))
	items := make([]domain.OrderItem, 0, len(input.Items))
	var amountSum int64
	for _, item := range input.Items {
		snapshot, err := s.products.Reserve(item.ProductID, item.Qty)
		if err != nil {
			s.releaseReserved(reserved)
			return CreateResult{}, fmt.Errorf("reserve product %s: %w", item.ProductID, err)
		}
		reserved = append(reserved, reservedLine{productID: item.ProductID, qty: item.Qty})

		items = append(items, domain.OrderItem{
			ID:         uuid.NewString(),
			ProductID:  snapshot.ProductID,
			Name:       snapshot.Name,
			PriceMinor: snapshot.PriceMinor,
			Qty:        item.Qty,
			Image:      snapshot.Image,
			CreatedAt:  now,
		})
		amountSum += int64(item.Qty) * snapshot.PriceMinor
	}

	seq, err := s.sequences.Next(domain.SequenceOrderNumber)
	if err != nil {
		s.releaseReserved(reserved)
		s.logger.WithError(err).Error("failed to allocate order number")
		return CreateResult{}, fmt.Errorf("allocate order number: %w", err)
	}

	order := domain.Order{
		ID:            uuid.NewString(),
		Number:        domain.FormatOrderNumber(seq),
		CustomerID:    input.CustomerID,
		Items:         items,
		AmountMinor:   amountSum,
		Status:        domain.OrderStatusPending,
		PaymentStatus: domain.PaymentStatusPending,
		PaymentMethod: method,
		Address:       input.Address,
		Notes:         input.Notes,
		Version:       0,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if errs := order.ValidateInvariants(); len(errs) > 0 {
		s.releaseReserved(reserved)
		return CreateResult{}, errs[0]
	}

	if err := s.orders.Create(order); err != nil {
		s.releaseReserved(reserved)
		s.logger.WithError(err).WithField("order_id", order.ID).Error("failed to persist order")
		return CreateResult{}, fmt.Errorf("persist order: %w", err)
	}

	result := CreateResult{Order: order}

	// Оплата при получении обходит внешнего провайдера: сессия и intent не создаются.
	if method == domain.PaymentMethodOnline {
		session, err := s.checkout.CreateSession(order)
		if err != nil {
			s.abortCreatedOrder(order, reserved)
			s.logger.WithError(err).WithField("order_id", order.ID).Error("failed to create checkout session")
			return CreateResult{}, fmt.Errorf("%w: %v", domain.ErrCheckoutUnavailable, err)
		}

		intent := domain.PaymentIntent{
			ID:          uuid.NewString(),
			OrderID:     order.ID,
			SessionID:   session.SessionID,
			Status:      domain.PaymentStatusPending,
			AmountMinor: order.AmountMinor,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if err := s.intents.Create(intent); err != nil {
			s.abortCreatedOrder(order, reserved)
			s.logger.WithError(err).WithField("order_id", order.ID).Error("failed to persist payment intent")
			return CreateResult{}, fmt.Errorf("persist payment intent: %w", err)
		}

		result.SessionID = session.SessionID
		result.PaymentURL = session.URL
	}

	s.appendTimeline(order.ID, domain.TimelineEventOrderCreated, order.Number, order.CreatedAt)
	s.enqueueEvent(order, domain.EventTypeOrderCreated, map[string]interface{}{
		"number":         order.Number,
		"customer_id":    order.CustomerID,
		"amount_minor":   order.AmountMinor,
		"payment_method": string(order.PaymentMethod),
	})

	return result, nil
}

// abortCreatedOrder компенсирует уже сохранённый заказ, если платёжную сессию
// создать не удалось: возвращает сток и переводит заказ в cancelled. Заказ
// остаётся в хранилище как след неудачного размещения.
func (s *Service) abortCreatedOrder(order domain.Order, reserved []reservedLine) {
	s.releaseReserved(reserved)

	order.Status = domain.OrderStatusCancelled
	order.UpdatedAt = time.Now().UTC()
	if err := s.orders.Save(order); err != nil {
		s.logger.WithError(err).WithField("order_id", order.ID).Error("failed to cancel aborted order")
	}
}

func (s *Service) releaseReserved(reserved []reservedLine) {
	for i := len(reserved) - 1; i >= 0; i-- {
		line := reserved[i]
		if err := s.products.Release(line.productID, line.qty); err != nil {
			s.logger.WithError(err).WithFields(log.Fields{
				"product_id": line.productID,
				"qty":        line.qty,
			}).Error("failed to release reserved stock")
		}
	}
}

// Cancel отменяет заказ клиента. Сначала фиксируем статус cancelled (это
// сериализует конкурирующие отмены), затем возвращаем сток — ровно один раз.
func (s *Service) Cancel(orderID, customerID string) (domain.Order, error) {
	if orderID == "" {
		return domain.Order{}, domain.ErrOrderIDRequired
	}

	order, err := s.saveWithRetry(orderID, func(current *domain.Order) error {
		if current.CustomerID != customerID {
			return domain.ErrAccessDenied
		}
		if !current.Cancelable() {
			return fmt.Errorf("%w: order is %s", domain.ErrOrderStateConflict, current.Status)
		}
		current.Status = domain.OrderStatusCancelled
		return nil
	})
	if err != nil {
		return domain.Order{}, err
	}

	for _, item := range order.Items {
		if err := s.products.Release(item.ProductID, item.Qty); err != nil {
			s.logger.WithError(err).WithFields(log.Fields{
				"order_id":   order.ID,
				"product_id": item.ProductID,
			}).Error("failed to restore stock on cancel")
		}
	}

	s.appendTimeline(order.ID, domain.TimelineEventOrderCancelled, "", order.UpdatedAt)
	s.enqueueEvent(order, domain.EventTypeOrderCancelled, map[string]interface{}{
		"customer_id": order.CustomerID,
	})
	if s.metrics != nil {
		s.metrics.RecordOrderCancelled()
	}

	return order, nil
}

// UpdateStatus применяет операторский переход жизненного цикла. Трекинг-номер
// сохраняется всегда, когда передан. Сток не трогается: возврат стока — зона
// ответственности клиентской отмены.
func (s *Service) UpdateStatus(orderID string, target domain.OrderStatus, trackingNumber string) (domain.Order, error) {
	if orderID == "" {
		return domain.Order{}, domain.ErrOrderIDRequired
	}
	if !target.Valid() {
		return domain.Order{}, domain.ErrOrderStatusUnknown
	}

	order, err := s.saveWithRetry(orderID, func(current *domain.Order) error {
		if !current.Status.CanTransitionTo(target) {
			return fmt.Errorf("%w: %s -> %s", domain.ErrStatusTransitionDenied, current.Status, target)
		}
		current.Status = target
		if trackingNumber != "" {
			current.TrackingNumber = trackingNumber
		}
		return nil
	})
	if err != nil {
		return domain.Order{}, err
	}

	s.appendTimeline(order.ID, domain.TimelineEventStatusChanged, string(order.Status), order.UpdatedAt)
	s.enqueueEvent(order, domain.EventTypeOrderStatusChanged, map[string]interface{}{
		"status": string(order.Status),
	})
	if s.metrics != nil {
		s.metrics.RecordStatusChange(string(order.Status))
	}

	return order, nil
}

// Get возвращает заказ и его хронологию. Клиент видит только свои заказы,
// оператор — любые.
func (s *Service) Get(orderID, customerID string, admin bool) (domain.Order, []domain.TimelineEvent, error) {
	if orderID == "" {
		return domain.Order{}, nil, domain.ErrOrderIDRequired
	}

	order, err := s.orders.Get(orderID)
	if err != nil {
		return domain.Order{}, nil, err
	}
	if !admin && order.CustomerID != customerID {
		return domain.Order{}, nil, domain.ErrAccessDenied
	}

	return order, s.listTimeline(order.ID), nil
}

// ListMine возвращает страницу заказов клиента, новые первыми.
func (s *Service) ListMine(customerID string, page, pageSize int) ([]domain.Order, Page, error) {
	if customerID == "" {
		return nil, Page{}, domain.ErrCustomerRequired
	}

	page, pageSize = normalizePage(page, pageSize)

	total, err := s.orders.CountByCustomer(customerID)
	if err != nil {
		s.logger.WithError(err).Error("failed to count customer orders")
		return nil, Page{}, fmt.Errorf("count orders: %w", err)
	}

	orders, err := s.orders.ListByCustomer(customerID, (page-1)*pageSize, pageSize)
	if err != nil {
		s.logger.WithError(err).Error("failed to list customer orders")
		return nil, Page{}, fmt.Errorf("list orders: %w", err)
	}

	return orders, buildPage(page, pageSize, total), nil
}

// ListAll возвращает страницу всех заказов с опциональным фильтром по статусу.
func (s *Service) ListAll(status domain.OrderStatus, page, pageSize int) ([]domain.Order, Page, error) {
	if status != "" && !status.Valid() {
		return nil, Page{}, domain.ErrOrderStatusUnknown
	}

	page, pageSize = normalizePage(page, pageSize)

	total, err := s.orders.Count(status)
	if err != nil {
		s.logger.WithError(err).Error("failed to count orders")
		return nil, Page{}, fmt.Errorf("count orders: %w", err)
	}

	orders, err := s.orders.List(status, (page-1)*pageSize, pageSize)
	if err != nil {
		s.logger.WithError(err).Error("failed to list orders")
		return nil, Page{}, fmt.Errorf("list orders: %w", err)
	}

	return orders, buildPage(page, pageSize, total), nil
}

// saveWithRetry применяет mutate к свежей копии заказа и сохраняет её,
// перечитывая заказ при version conflict. Предусловия перепроверяются на
// каждой итерации, поэтому проигравшая конкурентная отмена получит отказ.
func (s *Service) saveWithRetry(orderID string, mutate func(*domain.Order) error) (domain.Order, error) {
	for attempt := 0; attempt < saveMaxRetries; attempt++ {
		order, err := s.orders.Get(orderID)
		if err != nil {
			return domain.Order{}, err
		}

		if err := mutate(&order); err != nil {
			return domain.Order{}, err
		}
		order.UpdatedAt = time.Now().UTC()

		if err := s.orders.Save(order); err != nil {
			if domain.IsVersionConflict(err) && attempt < saveMaxRetries-1 {
				s.logger.WithFields(log.Fields{
					"order_id": orderID,
					"attempt":  attempt + 1,
				}).Warn("version conflict detected, retrying")
				time.Sleep(saveRetryBaseWait * time.Duration(1<<uint(attempt)))
				continue
			}
			s.logger.WithError(err).WithField("order_id", orderID).Error("failed to persist order update")
			return domain.Order{}, err
		}

		order.Version++
		return order, nil
	}

	return domain.Order{}, domain.ErrOrderVersionConflict
}

func (s *Service) appendTimeline(orderID, eventType, reason string, occurred time.Time) {
	if s.timeline == nil {
		return
	}
	if occurred.IsZero() {
		occurred = time.Now().UTC()
	}
	event := domain.TimelineEvent{
		OrderID:  orderID,
		Type:     eventType,
		Reason:   reason,
		Occurred: occurred,
	}
	if err := s.timeline.Append(event); err != nil {
		s.logger.WithError(err).WithFields(log.Fields{
			"order_id": orderID,
			"event":    eventType,
		}).Warn("failed to append timeline event")
	} else if s.metrics != nil {
		s.metrics.RecordTimelineEvent()
	}
}

func (s *Service) listTimeline(orderID string) []domain.TimelineEvent {
	if s.timeline == nil {
		return nil
	}
	events, err := s.timeline.List(orderID)
	if err != nil {
		s.logger.WithError(err).WithField("order_id", orderID).Warn("failed to list timeline events")
		return nil
	}
	return events
}

func (s *Service) enqueueEvent(order domain.Order, eventType string, payload map[string]interface{}) {
	if s.outbox == nil {
		return
	}
	if payload == nil {
		payload = make(map[string]interface{})
	}
	payload["order_id"] = order.ID
	data, err := json.Marshal(payload)
	if err != nil {
		s.logger.WithError(err).WithFields(log.Fields{
			"order_id": order.ID,
			"event":    eventType,
		}).Error("marshal event failed")
		return
	}

	msg := domain.OutboxMessage{
		AggregateType: "order",
		AggregateID:   order.ID,
		EventType:     eventType,
		Payload:       data,
	}
	if _, err := s.outbox.Enqueue(msg); err != nil {
		s.logger.WithError(err).WithFields(log.Fields{
			"order_id": order.ID,
			"event":    eventType,
		}).Error("enqueue event failed")
	} else if s.metrics != nil {
		s.metrics.RecordOutboxEvent()
	}
}

func (s *Service) recordOrderFailed() {
	if s.metrics != nil {
		s.metrics.RecordOrderFailed()
	}
}

func normalizePage(page, pageSize int) (int, int) {
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	return page, pageSize
}

func buildPage(page, pageSize, total int) Page {
	totalPages := 0
	if total > 0 {
		totalPages = (total + pageSize - 1) / pageSize
	}
	return Page{
		CurrentPage: page,
		TotalPages:  totalPages,
		TotalOrders: total,
		HasNext:     page < totalPages,
		HasPrev:     page > 1 && total > 0,
	}
}
