package domain

import "time"

// ProductImage — картинка товара во внешнем объектном хранилище.
type ProductImage struct {
	PublicID string
	URL      string
}

// Product описывает товар каталога со счётчиком доступного стока.
// Сток мутируется только атомарными Reserve/Release репозитория товаров,
// никогда прямым присваиванием из кода заказов.
type Product struct {
	ID          string
	Name        string
	Description string
	// PriceMinor — цена в минимальных денежных единицах.
	PriceMinor int64
	Category   string
	// Stock — доступное количество, инвариант: всегда >= 0.
	Stock     int32
	Images    []ProductImage
	OwnerID   string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Snapshot возвращает срез полей товара, который замораживается в позиции заказа.
func (p *Product) Snapshot() ProductSnapshot {
	snap := ProductSnapshot{
		ProductID:  p.ID,
		Name:       p.Name,
		PriceMinor: p.PriceMinor,
	}
	if len(p.Images) > 0 {
		snap.Image = p.Images[0].URL
	}
	return snap
}

// ProductSnapshot — данные товара на момент резервирования; ими заполняется
// позиция заказа.
type ProductSnapshot struct {
	ProductID  string
	Name       string
	PriceMinor int64
	Image      string
}
