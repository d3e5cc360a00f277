package memory

import (
	"sync"
	"time"

	"github.com/vladislavdragonenkov/shop/internal/domain"
)

// productRepositoryInMemory — in-memory реализация ProductRepository.
// Мьютекс делает проверку и списание стока одной неделимой операцией,
// как атомарный conditional update в PostgreSQL-реализации.
type productRepositoryInMemory struct {
	mu    sync.RWMutex
	items map[string]domain.Product
}

// NewProductRepository возвращает in-memory репозиторий для локальной разработки и тестов.
func NewProductRepository() domain.ProductRepository {
	return &productRepositoryInMemory{
		items: make(map[string]domain.Product),
	}
}

// NewProductRepositorySeeded создаёт репозиторий с начальным каталогом (для тестов).
func NewProductRepositorySeeded(products ...domain.Product) domain.ProductRepository {
	repo := &productRepositoryInMemory{
		items: make(map[string]domain.Product, len(products)),
	}
	for _, p := range products {
		repo.items[p.ID] = p
	}
	return repo
}

// Get возвращает товар или ErrProductNotFound.
func (r *productRepositoryInMemory) Get(id string) (domain.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	product, ok := r.items[id]
	if !ok {
		return domain.Product{}, domain.ErrProductNotFound
	}
	return product, nil
}

// Reserve атомарно списывает qty со стока, если его достаточно.
func (r *productRepositoryInMemory) Reserve(productID string, qty int32) (domain.ProductSnapshot, error) {
	if qty <= 0 {
		return domain.ProductSnapshot{}, domain.ErrItemQtyInvalid
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	product, ok := r.items[productID]
	if !ok {
		return domain.ProductSnapshot{}, domain.ErrProductNotFound
	}
	if product.Stock < qty {
		return domain.ProductSnapshot{}, domain.ErrInsufficientStock
	}

	product.Stock -= qty
	product.UpdatedAt = time.Now().UTC()
	r.items[productID] = product

	return product.Snapshot(), nil
}

// Release атомарно возвращает qty в сток.
func (r *productRepositoryInMemory) Release(productID string, qty int32) error {
	if qty <= 0 {
		return domain.ErrItemQtyInvalid
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	product, ok := r.items[productID]
	if !ok {
		return domain.ErrProductNotFound
	}

	product.Stock += qty
	product.UpdatedAt = time.Now().UTC()
	r.items[productID] = product

	return nil
}

var _ domain.ProductRepository = (*productRepositoryInMemory)(nil)
