package memory_test

import (
	"fmt"
	"testing"
	"time"

	"github.com/vladislavdragonenkov/shop/internal/domain"
	"github.com/vladislavdragonenkov/shop/internal/storage/memory"
)

func newOrder() domain.Order {
	now := time.Now().UTC()
	return domain.Order{
		ID:            "order-1",
		Number:        "ORD-000001",
		CustomerID:    "customer-1",
		Status:        domain.OrderStatusPending,
		PaymentStatus: domain.PaymentStatusPending,
		PaymentMethod: domain.PaymentMethodOnline,
		AmountMinor:   500,
		Items: []domain.OrderItem{
			{ID: "item-1", ProductID: "product-1", Name: "Mug", Qty: 5, PriceMinor: 100, CreatedAt: now},
		},
		Address:   domain.ShippingAddress{Street: "1 Main st", City: "Springfield", Country: "US"},
		Version:   0,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func TestOrderRepository_CreateGet(t *testing.T) {
	repo := memory.NewOrderRepository()
	order := newOrder()

	if err := repo.Create(order); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	stored, err := repo.Get(order.ID)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if stored.ID != order.ID || stored.Number != order.Number {
		t.Fatalf("unexpected stored order: %#v", stored)
	}
}

func TestOrderRepository_CreateDuplicate(t *testing.T) {
	repo := memory.NewOrderRepository()
	order := newOrder()

	if err := repo.Create(order); err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if err := repo.Create(order); err == nil {
		t.Fatal("expected error for duplicate id")
	}
}

func TestOrderRepository_ListByCustomerPagination(t *testing.T) {
	repo := memory.NewOrderRepository()
	base := time.Now().UTC()

	for i := 0; i < 5; i++ {
		order := newOrder()
		order.ID = fmt.Sprintf("order-%d", i)
		order.CreatedAt = base.Add(time.Duration(i) * time.Second)
		if err := repo.Create(order); err != nil {
			t.Fatalf("create failed: %v", err)
		}
	}

	page, err := repo.ListByCustomer("customer-1", 0, 2)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(page) != 2 {
		t.Fatalf("expected 2 orders, got %d", len(page))
	}
	// Новые первыми.
	if page[0].ID != "order-4" || page[1].ID != "order-3" {
		t.Fatalf("unexpected page order: %s, %s", page[0].ID, page[1].ID)
	}

	tail, err := repo.ListByCustomer("customer-1", 4, 2)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(tail) != 1 || tail[0].ID != "order-0" {
		t.Fatalf("unexpected tail page: %#v", tail)
	}

	total, err := repo.CountByCustomer("customer-1")
	if err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if total != 5 {
		t.Fatalf("expected 5 orders, got %d", total)
	}
}

func TestOrderRepository_ListStatusFilter(t *testing.T) {
	repo := memory.NewOrderRepository()

	pending := newOrder()
	pending.ID = "order-pending"
	if err := repo.Create(pending); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	shipped := newOrder()
	shipped.ID = "order-shipped"
	shipped.Status = domain.OrderStatusShipped
	if err := repo.Create(shipped); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	all, err := repo.List("", 0, 10)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("expected 2 orders, got %d", len(all))
	}

	filtered, err := repo.List(domain.OrderStatusShipped, 0, 10)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(filtered) != 1 || filtered[0].ID != "order-shipped" {
		t.Fatalf("unexpected filtered result: %#v", filtered)
	}

	count, err := repo.Count(domain.OrderStatusShipped)
	if err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected count 1, got %d", count)
	}
}

func TestOrderRepository_Save(t *testing.T) {
	repo := memory.NewOrderRepository()
	order := newOrder()
	if err := repo.Create(order); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	stored, err := repo.Get(order.ID)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}

	stored.Status = domain.OrderStatusConfirmed
	stored.TrackingNumber = "TRACK-1"
	if err := repo.Save(stored); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	updated, err := repo.Get(order.ID)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}

	if updated.Status != domain.OrderStatusConfirmed {
		t.Fatalf("expected confirmed status, got %s", updated.Status)
	}
	if updated.TrackingNumber != "TRACK-1" {
		t.Fatalf("expected tracking number saved, got %q", updated.TrackingNumber)
	}
	if updated.Version != stored.Version+1 {
		t.Fatalf("expected version increment, got %d", updated.Version)
	}
}

func TestOrderRepository_SaveVersionConflict(t *testing.T) {
	repo := memory.NewOrderRepository()
	order := newOrder()
	if err := repo.Create(order); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	order.Version = 42
	if err := repo.Save(order); err == nil {
		t.Fatal("expected version conflict error")
	}
}
