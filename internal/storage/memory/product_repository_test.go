package memory_test

import (
	"errors"
	"sync"
	"testing"

	"github.com/vladislavdragonenkov/shop/internal/domain"
	"github.com/vladislavdragonenkov/shop/internal/storage/memory"
)

func seedProduct(stock int32) domain.ProductRepository {
	return memory.NewProductRepositorySeeded(domain.Product{
		ID:         "product-1",
		Name:       "Mug",
		PriceMinor: 1000,
		Stock:      stock,
		Images:     []domain.ProductImage{{PublicID: "mug", URL: "https://cdn.example.com/mug.png"}},
	})
}

func TestProductRepository_ReserveDecrementsStock(t *testing.T) {
	repo := seedProduct(5)

	snap, err := repo.Reserve("product-1", 2)
	if err != nil {
		t.Fatalf("reserve failed: %v", err)
	}
	if snap.Name != "Mug" || snap.PriceMinor != 1000 || snap.Image == "" {
		t.Fatalf("unexpected snapshot: %#v", snap)
	}

	product, err := repo.Get("product-1")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if product.Stock != 3 {
		t.Fatalf("expected stock 3, got %d", product.Stock)
	}
}

func TestProductRepository_ReserveInsufficient(t *testing.T) {
	repo := seedProduct(1)

	if _, err := repo.Reserve("product-1", 2); !errors.Is(err, domain.ErrInsufficientStock) {
		t.Fatalf("expected ErrInsufficientStock, got %v", err)
	}

	// Неудачная резервация не трогает сток.
	product, _ := repo.Get("product-1")
	if product.Stock != 1 {
		t.Fatalf("expected stock 1, got %d", product.Stock)
	}
}

func TestProductRepository_ReserveUnknownProduct(t *testing.T) {
	repo := seedProduct(1)

	if _, err := repo.Reserve("ghost", 1); !errors.Is(err, domain.ErrProductNotFound) {
		t.Fatalf("expected ErrProductNotFound, got %v", err)
	}
}

func TestProductRepository_ReleaseRestoresStock(t *testing.T) {
	repo := seedProduct(5)

	if _, err := repo.Reserve("product-1", 4); err != nil {
		t.Fatalf("reserve failed: %v", err)
	}
	if err := repo.Release("product-1", 4); err != nil {
		t.Fatalf("release failed: %v", err)
	}

	product, _ := repo.Get("product-1")
	if product.Stock != 5 {
		t.Fatalf("expected stock 5, got %d", product.Stock)
	}
}

// N конкурентных резерваций по одной единице против стока ровно N:
// все должны пройти, сток должен стать нулём, отрицательный сток невозможен.
func TestProductRepository_ConcurrentReserveExactStock(t *testing.T) {
	const n = 64
	repo := seedProduct(n)

	var wg sync.WaitGroup
	errsCh := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := repo.Reserve("product-1", 1)
			errsCh <- err
		}()
	}
	wg.Wait()
	close(errsCh)

	success := 0
	for err := range errsCh {
		if err == nil {
			success++
		}
	}
	if success != n {
		t.Fatalf("expected %d successful reservations, got %d", n, success)
	}

	product, _ := repo.Get("product-1")
	if product.Stock != 0 {
		t.Fatalf("expected stock 0, got %d", product.Stock)
	}
}

// Конкурентные резервации сверх стока: проходит ровно столько, сколько есть единиц.
func TestProductRepository_ConcurrentReserveOversubscribed(t *testing.T) {
	const attempts = 100
	const stock = 37
	repo := seedProduct(stock)

	var wg sync.WaitGroup
	errsCh := make(chan error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := repo.Reserve("product-1", 1)
			errsCh <- err
		}()
	}
	wg.Wait()
	close(errsCh)

	success := 0
	insufficient := 0
	for err := range errsCh {
		switch {
		case err == nil:
			success++
		case errors.Is(err, domain.ErrInsufficientStock):
			insufficient++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}

	if success != stock {
		t.Fatalf("expected %d successes, got %d", stock, success)
	}
	if insufficient != attempts-stock {
		t.Fatalf("expected %d rejections, got %d", attempts-stock, insufficient)
	}

	product, _ := repo.Get("product-1")
	if product.Stock != 0 {
		t.Fatalf("expected stock 0, got %d", product.Stock)
	}
}
