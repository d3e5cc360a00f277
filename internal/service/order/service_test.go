package order

import (
	"errors"
	"testing"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/shop/internal/domain"
	"github.com/vladislavdragonenkov/shop/internal/service/checkout"
	"github.com/vladislavdragonenkov/shop/internal/storage/memory"
)

type testEnv struct {
	svc      *Service
	products domain.ProductRepository
	orders   domain.OrderRepository
	intents  domain.PaymentIntentRepository
	outbox   domain.OutboxRepository
	timeline domain.TimelineRepository
	checkout *checkout.MockProvider
}

func newTestEnv(products ...domain.Product) *testEnv {
	env := &testEnv{
		products: memory.NewProductRepositorySeeded(products...),
		orders:   memory.NewOrderRepository(),
		intents:  memory.NewPaymentIntentRepository(),
		outbox:   memory.NewOutboxRepository(),
		timeline: memory.NewTimelineRepository(),
		checkout: checkout.NewMockProvider(),
	}
	env.svc = NewServiceWithoutMetrics(
		env.orders,
		env.products,
		env.intents,
		memory.NewSequenceRepository(),
		env.checkout,
		env.outbox,
		env.timeline,
		log.New().WithField("component", "order-service-test"),
	)
	return env
}

func testAddress() domain.ShippingAddress {
	return domain.ShippingAddress{
		Street:  "Lenina 1",
		City:    "Moscow",
		Country: "RU",
	}
}

func (e *testEnv) stock(t *testing.T, productID string) int32 {
	t.Helper()
	product, err := e.products.Get(productID)
	if err != nil {
		t.Fatalf("get product %s: %v", productID, err)
	}
	return product.Stock
}

func TestService_Create(t *testing.T) {
	env := newTestEnv(
		domain.Product{ID: "prod-a", Name: "Widget A", PriceMinor: 10, Stock: 5},
		domain.Product{ID: "prod-b", Name: "Widget B", PriceMinor: 5, Stock: 5},
	)

	result, err := env.svc.Create(CreateInput{
		CustomerID: "cust-1",
		Items: []CreateItemInput{
			{ProductID: "prod-a", Qty: 2},
			{ProductID: "prod-b", Qty: 1},
		},
		PaymentMethod: domain.PaymentMethodOnline,
		Address:       testAddress(),
	})
	if err != nil {
		t.Fatalf("create order: %v", err)
	}

	order := result.Order
	if order.AmountMinor != 25 {
		t.Fatalf("expected amount 25, got %d", order.AmountMinor)
	}
	if order.Status != domain.OrderStatusPending {
		t.Fatalf("expected status pending, got %s", order.Status)
	}
	if order.PaymentStatus != domain.PaymentStatusPending {
		t.Fatalf("expected payment status pending, got %s", order.PaymentStatus)
	}
	if order.Number != "ORD-000001" {
		t.Fatalf("unexpected order number: %q", order.Number)
	}
	if got := env.stock(t, "prod-a"); got != 3 {
		t.Fatalf("expected stock prod-a 3, got %d", got)
	}
	if got := env.stock(t, "prod-b"); got != 4 {
		t.Fatalf("expected stock prod-b 4, got %d", got)
	}
	if result.SessionID == "" || result.PaymentURL == "" {
		t.Fatal("expected checkout session for online payment")
	}

	intent, err := env.intents.GetBySession(result.SessionID)
	if err != nil {
		t.Fatalf("get payment intent: %v", err)
	}
	if intent.OrderID != order.ID {
		t.Fatalf("intent refers to wrong order: %s", intent.OrderID)
	}
	if intent.AmountMinor != 25 {
		t.Fatalf("unexpected intent amount: %d", intent.AmountMinor)
	}

	// Позиции замораживают снапшоты каталога.
	if order.Items[0].Name != "Widget A" || order.Items[0].PriceMinor != 10 {
		t.Fatalf("unexpected item snapshot: %+v", order.Items[0])
	}

	second, err := env.svc.Create(CreateInput{
		CustomerID:    "cust-1",
		Items:         []CreateItemInput{{ProductID: "prod-b", Qty: 1}},
		PaymentMethod: domain.PaymentMethodOnline,
		Address:       testAddress(),
	})
	if err != nil {
		t.Fatalf("create second order: %v", err)
	}
	if second.Order.Number != "ORD-000002" {
		t.Fatalf("expected distinct increasing number, got %q", second.Order.Number)
	}
}

func TestService_Create_InsufficientStockCompensates(t *testing.T) {
	env := newTestEnv(
		domain.Product{ID: "prod-a", Name: "Widget A", PriceMinor: 10, Stock: 5},
		domain.Product{ID: "prod-b", Name: "Widget B", PriceMinor: 5, Stock: 0},
	)

	_, err := env.svc.Create(CreateInput{
		CustomerID: "cust-1",
		Items: []CreateItemInput{
			{ProductID: "prod-a", Qty: 2},
			{ProductID: "prod-b", Qty: 1},
		},
		Address: testAddress(),
	})
	if !errors.Is(err, domain.ErrInsufficientStock) {
		t.Fatalf("expected insufficient stock error, got %v", err)
	}

	// Частичная резервация первой позиции не должна пережить провал второй.
	if got := env.stock(t, "prod-a"); got != 5 {
		t.Fatalf("expected stock prod-a restored to 5, got %d", got)
	}
}

func TestService_Create_UnknownProduct(t *testing.T) {
	env := newTestEnv(
		domain.Product{ID: "prod-a", Name: "Widget A", PriceMinor: 10, Stock: 5},
	)

	_, err := env.svc.Create(CreateInput{
		CustomerID: "cust-1",
		Items: []CreateItemInput{
			{ProductID: "prod-a", Qty: 1},
			{ProductID: "prod-missing", Qty: 1},
		},
		Address: testAddress(),
	})
	if !errors.Is(err, domain.ErrProductNotFound) {
		t.Fatalf("expected product not found, got %v", err)
	}
	if got := env.stock(t, "prod-a"); got != 5 {
		t.Fatalf("expected stock prod-a restored to 5, got %d", got)
	}
}

func TestService_Create_Validation(t *testing.T) {
	env := newTestEnv()

	cases := []struct {
		name  string
		input CreateInput
		want  error
	}{
		{
			name:  "missing customer",
			input: CreateInput{Items: []CreateItemInput{{ProductID: "p", Qty: 1}}, Address: testAddress()},
			want:  domain.ErrCustomerRequired,
		},
		{
			name:  "no items",
			input: CreateInput{CustomerID: "cust-1", Address: testAddress()},
			want:  domain.ErrItemsRequired,
		},
		{
			name: "zero qty",
			input: CreateInput{
				CustomerID: "cust-1",
				Items:      []CreateItemInput{{ProductID: "p", Qty: 0}},
				Address:    testAddress(),
			},
			want: domain.ErrItemQtyInvalid,
		},
		{
			name: "missing product id",
			input: CreateInput{
				CustomerID: "cust-1",
				Items:      []CreateItemInput{{Qty: 1}},
				Address:    testAddress(),
			},
			want: domain.ErrItemProductRequired,
		},
		{
			name: "missing address street",
			input: CreateInput{
				CustomerID: "cust-1",
				Items:      []CreateItemInput{{ProductID: "p", Qty: 1}},
				Address:    domain.ShippingAddress{City: "Moscow", Country: "RU"},
			},
			want: domain.ErrAddressStreetRequired,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := env.svc.Create(tc.input)
			if !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestService_Create_CashOnDelivery(t *testing.T) {
	env := newTestEnv(
		domain.Product{ID: "prod-a", Name: "Widget A", PriceMinor: 10, Stock: 5},
	)

	result, err := env.svc.Create(CreateInput{
		CustomerID:    "cust-1",
		Items:         []CreateItemInput{{ProductID: "prod-a", Qty: 1}},
		PaymentMethod: domain.PaymentMethodCashOnDelivery,
		Address:       testAddress(),
	})
	if err != nil {
		t.Fatalf("create order: %v", err)
	}

	if result.SessionID != "" || result.PaymentURL != "" {
		t.Fatal("cash on delivery must not create a checkout session")
	}
	if env.checkout.Calls != 0 {
		t.Fatalf("checkout provider called %d times", env.checkout.Calls)
	}
}

func TestService_Create_CheckoutFailure(t *testing.T) {
	env := newTestEnv(
		domain.Product{ID: "prod-a", Name: "Widget A", PriceMinor: 10, Stock: 5},
	)
	env.checkout.Err = errors.New("provider down")

	_, err := env.svc.Create(CreateInput{
		CustomerID:    "cust-1",
		Items:         []CreateItemInput{{ProductID: "prod-a", Qty: 2}},
		PaymentMethod: domain.PaymentMethodOnline,
		Address:       testAddress(),
	})
	if !errors.Is(err, domain.ErrCheckoutUnavailable) {
		t.Fatalf("expected checkout unavailable, got %v", err)
	}

	if got := env.stock(t, "prod-a"); got != 5 {
		t.Fatalf("expected stock restored to 5, got %d", got)
	}

	// Заказ остаётся как след неудачного размещения, но в cancelled.
	orders, err := env.orders.ListByCustomer("cust-1", 0, 10)
	if err != nil {
		t.Fatalf("list orders: %v", err)
	}
	if len(orders) != 1 {
		t.Fatalf("expected 1 order, got %d", len(orders))
	}
	if orders[0].Status != domain.OrderStatusCancelled {
		t.Fatalf("expected cancelled order, got %s", orders[0].Status)
	}
}

func TestService_Cancel(t *testing.T) {
	env := newTestEnv(
		domain.Product{ID: "prod-a", Name: "Widget A", PriceMinor: 10, Stock: 5},
		domain.Product{ID: "prod-b", Name: "Widget B", PriceMinor: 5, Stock: 5},
	)

	result, err := env.svc.Create(CreateInput{
		CustomerID: "cust-1",
		Items: []CreateItemInput{
			{ProductID: "prod-a", Qty: 2},
			{ProductID: "prod-b", Qty: 1},
		},
		Address: testAddress(),
	})
	if err != nil {
		t.Fatalf("create order: %v", err)
	}

	cancelled, err := env.svc.Cancel(result.Order.ID, "cust-1")
	if err != nil {
		t.Fatalf("cancel order: %v", err)
	}
	if cancelled.Status != domain.OrderStatusCancelled {
		t.Fatalf("expected cancelled status, got %s", cancelled.Status)
	}
	if got := env.stock(t, "prod-a"); got != 5 {
		t.Fatalf("expected stock prod-a restored to 5, got %d", got)
	}
	if got := env.stock(t, "prod-b"); got != 5 {
		t.Fatalf("expected stock prod-b restored to 5, got %d", got)
	}

	// Повторная отмена отклоняется и не возвращает сток второй раз.
	if _, err := env.svc.Cancel(result.Order.ID, "cust-1"); !errors.Is(err, domain.ErrOrderStateConflict) {
		t.Fatalf("expected state conflict on double cancel, got %v", err)
	}
	if got := env.stock(t, "prod-a"); got != 5 {
		t.Fatalf("double cancel must not release twice, stock prod-a is %d", got)
	}
}

func TestService_Cancel_WrongOwner(t *testing.T) {
	env := newTestEnv(
		domain.Product{ID: "prod-a", Name: "Widget A", PriceMinor: 10, Stock: 5},
	)

	result, err := env.svc.Create(CreateInput{
		CustomerID: "cust-1",
		Items:      []CreateItemInput{{ProductID: "prod-a", Qty: 1}},
		Address:    testAddress(),
	})
	if err != nil {
		t.Fatalf("create order: %v", err)
	}

	if _, err := env.svc.Cancel(result.Order.ID, "cust-2"); !errors.Is(err, domain.ErrAccessDenied) {
		t.Fatalf("expected access denied, got %v", err)
	}
	if got := env.stock(t, "prod-a"); got != 4 {
		t.Fatalf("stock must stay reserved, got %d", got)
	}
}

func TestService_Cancel_Shipped(t *testing.T) {
	env := newTestEnv(
		domain.Product{ID: "prod-a", Name: "Widget A", PriceMinor: 10, Stock: 5},
	)

	result, err := env.svc.Create(CreateInput{
		CustomerID: "cust-1",
		Items:      []CreateItemInput{{ProductID: "prod-a", Qty: 1}},
		Address:    testAddress(),
	})
	if err != nil {
		t.Fatalf("create order: %v", err)
	}

	for _, status := range []domain.OrderStatus{
		domain.OrderStatusConfirmed,
		domain.OrderStatusProcessing,
		domain.OrderStatusShipped,
	} {
		if _, err := env.svc.UpdateStatus(result.Order.ID, status, ""); err != nil {
			t.Fatalf("advance to %s: %v", status, err)
		}
	}

	if _, err := env.svc.Cancel(result.Order.ID, "cust-1"); !errors.Is(err, domain.ErrOrderStateConflict) {
		t.Fatalf("expected state conflict for shipped order, got %v", err)
	}
	if got := env.stock(t, "prod-a"); got != 4 {
		t.Fatalf("cancel of shipped order must not touch stock, got %d", got)
	}
}

func TestService_UpdateStatus(t *testing.T) {
	env := newTestEnv(
		domain.Product{ID: "prod-a", Name: "Widget A", PriceMinor: 10, Stock: 5},
	)

	result, err := env.svc.Create(CreateInput{
		CustomerID: "cust-1",
		Items:      []CreateItemInput{{ProductID: "prod-a", Qty: 1}},
		Address:    testAddress(),
	})
	if err != nil {
		t.Fatalf("create order: %v", err)
	}
	orderID := result.Order.ID

	updated, err := env.svc.UpdateStatus(orderID, domain.OrderStatusConfirmed, "")
	if err != nil {
		t.Fatalf("confirm order: %v", err)
	}
	if updated.Status != domain.OrderStatusConfirmed {
		t.Fatalf("expected confirmed, got %s", updated.Status)
	}

	// Перескок через статус отклоняется по таблице переходов.
	if _, err := env.svc.UpdateStatus(orderID, domain.OrderStatusDelivered, ""); !errors.Is(err, domain.ErrStatusTransitionDenied) {
		t.Fatalf("expected transition denied, got %v", err)
	}

	if _, err := env.svc.UpdateStatus(orderID, domain.OrderStatus("unknown"), ""); !errors.Is(err, domain.ErrOrderStatusUnknown) {
		t.Fatalf("expected unknown status error, got %v", err)
	}

	updated, err = env.svc.UpdateStatus(orderID, domain.OrderStatusProcessing, "")
	if err != nil {
		t.Fatalf("process order: %v", err)
	}
	updated, err = env.svc.UpdateStatus(orderID, domain.OrderStatusShipped, "TRACK-123")
	if err != nil {
		t.Fatalf("ship order: %v", err)
	}
	if updated.TrackingNumber != "TRACK-123" {
		t.Fatalf("tracking number not stored: %q", updated.TrackingNumber)
	}

	// Статусное администрирование не трогает сток.
	if got := env.stock(t, "prod-a"); got != 4 {
		t.Fatalf("status updates must not touch stock, got %d", got)
	}
}

func TestService_Get(t *testing.T) {
	env := newTestEnv(
		domain.Product{ID: "prod-a", Name: "Widget A", PriceMinor: 10, Stock: 5},
	)

	result, err := env.svc.Create(CreateInput{
		CustomerID: "cust-1",
		Items:      []CreateItemInput{{ProductID: "prod-a", Qty: 1}},
		Address:    testAddress(),
	})
	if err != nil {
		t.Fatalf("create order: %v", err)
	}

	order, timeline, err := env.svc.Get(result.Order.ID, "cust-1", false)
	if err != nil {
		t.Fatalf("get own order: %v", err)
	}
	if order.ID != result.Order.ID {
		t.Fatalf("unexpected order: %s", order.ID)
	}
	if len(timeline) == 0 {
		t.Fatal("expected timeline events")
	}

	if _, _, err := env.svc.Get(result.Order.ID, "cust-2", false); !errors.Is(err, domain.ErrAccessDenied) {
		t.Fatalf("expected access denied for foreign order, got %v", err)
	}

	if _, _, err := env.svc.Get(result.Order.ID, "operator", true); err != nil {
		t.Fatalf("admin must see any order: %v", err)
	}

	if _, _, err := env.svc.Get("missing", "cust-1", false); !errors.Is(err, domain.ErrOrderNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestService_ListMine_Pagination(t *testing.T) {
	env := newTestEnv(
		domain.Product{ID: "prod-a", Name: "Widget A", PriceMinor: 10, Stock: 100},
	)

	for i := 0; i < 5; i++ {
		if _, err := env.svc.Create(CreateInput{
			CustomerID: "cust-1",
			Items:      []CreateItemInput{{ProductID: "prod-a", Qty: 1}},
			Address:    testAddress(),
		}); err != nil {
			t.Fatalf("create order %d: %v", i, err)
		}
	}

	orders, page, err := env.svc.ListMine("cust-1", 1, 2)
	if err != nil {
		t.Fatalf("list orders: %v", err)
	}
	if len(orders) != 2 {
		t.Fatalf("expected 2 orders on page, got %d", len(orders))
	}
	if page.TotalOrders != 5 || page.TotalPages != 3 {
		t.Fatalf("unexpected pagination: %+v", page)
	}
	if !page.HasNext || page.HasPrev {
		t.Fatalf("unexpected pagination flags: %+v", page)
	}

	_, last, err := env.svc.ListMine("cust-1", 3, 2)
	if err != nil {
		t.Fatalf("list last page: %v", err)
	}
	if last.HasNext || !last.HasPrev {
		t.Fatalf("unexpected pagination flags on last page: %+v", last)
	}
}

func TestService_ListAll_StatusFilter(t *testing.T) {
	env := newTestEnv(
		domain.Product{ID: "prod-a", Name: "Widget A", PriceMinor: 10, Stock: 100},
	)

	var ids []string
	for i := 0; i < 3; i++ {
		result, err := env.svc.Create(CreateInput{
			CustomerID: "cust-1",
			Items:      []CreateItemInput{{ProductID: "prod-a", Qty: 1}},
			Address:    testAddress(),
		})
		if err != nil {
			t.Fatalf("create order %d: %v", i, err)
		}
		ids = append(ids, result.Order.ID)
	}

	if _, err := env.svc.UpdateStatus(ids[0], domain.OrderStatusConfirmed, ""); err != nil {
		t.Fatalf("confirm order: %v", err)
	}

	confirmed, page, err := env.svc.ListAll(domain.OrderStatusConfirmed, 1, 10)
	if err != nil {
		t.Fatalf("list confirmed: %v", err)
	}
	if len(confirmed) != 1 || page.TotalOrders != 1 {
		t.Fatalf("expected 1 confirmed order, got %d (%+v)", len(confirmed), page)
	}

	all, page, err := env.svc.ListAll("", 1, 10)
	if err != nil {
		t.Fatalf("list all: %v", err)
	}
	if len(all) != 3 || page.TotalOrders != 3 {
		t.Fatalf("expected 3 orders, got %d (%+v)", len(all), page)
	}

	if _, _, err := env.svc.ListAll(domain.OrderStatus("bogus"), 1, 10); !errors.Is(err, domain.ErrOrderStatusUnknown) {
		t.Fatalf("expected unknown status error, got %v", err)
	}
}
