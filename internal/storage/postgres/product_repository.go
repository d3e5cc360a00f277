package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/vladislavdragonenkov/shop/internal/domain"
)

const opTimeout = 5 * time.Second

type productRepository struct {
	db *sql.DB
}

// NewProductRepository создаёт PostgreSQL-реализацию ProductRepository.
func NewProductRepository(store *Store) domain.ProductRepository {
	return &productRepository{db: store.DB()}
}

func (r *productRepository) Get(id string) (domain.Product, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	var product domain.Product
	err := r.db.QueryRowContext(ctx, `
		SELECT id, name, description, price_minor, category, stock, owner_id, created_at, updated_at
		FROM products
		WHERE id = $1
	`, id).Scan(
		&product.ID, &product.Name, &product.Description, &product.PriceMinor,
		&product.Category, &product.Stock, &product.OwnerID, &product.CreatedAt, &product.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Product{}, domain.ErrProductNotFound
		}
		return domain.Product{}, fmt.Errorf("select product: %w", err)
	}

	images, err := r.loadImages(ctx, product.ID)
	if err != nil {
		return domain.Product{}, err
	}
	product.Images = images

	return product, nil
}

// Reserve выполняет единственный conditional update: списание проходит,
// только если стока достаточно. Точка сериализации — атомарность UPDATE в
// PostgreSQL, никакого read-modify-write на стороне приложения.
func (r *productRepository) Reserve(productID string, qty int32) (domain.ProductSnapshot, error) {
	if qty <= 0 {
		return domain.ProductSnapshot{}, domain.ErrItemQtyInvalid
	}

	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	snap := domain.ProductSnapshot{ProductID: productID}
	err := r.db.QueryRowContext(ctx, `
		UPDATE products
		SET stock = stock - $2, updated_at = NOW()
		WHERE id = $1 AND stock >= $2
		RETURNING name, price_minor
	`, productID, qty).Scan(&snap.Name, &snap.PriceMinor)
	if err == nil {
		snap.Image, err = r.firstImage(ctx, productID)
		if err != nil {
			return domain.ProductSnapshot{}, err
		}
		return snap, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return domain.ProductSnapshot{}, fmt.Errorf("reserve stock: %w", err)
	}

	// Update ничего не затронул: различаем отсутствие товара и нехватку стока.
	var exists bool
	if err := r.db.QueryRowContext(ctx, `
		SELECT EXISTS (SELECT 1 FROM products WHERE id = $1)
	`, productID).Scan(&exists); err != nil {
		return domain.ProductSnapshot{}, fmt.Errorf("check product exists: %w", err)
	}
	if !exists {
		return domain.ProductSnapshot{}, domain.ErrProductNotFound
	}
	return domain.ProductSnapshot{}, domain.ErrInsufficientStock
}

func (r *productRepository) Release(productID string, qty int32) error {
	if qty <= 0 {
		return domain.ErrItemQtyInvalid
	}

	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	res, err := r.db.ExecContext(ctx, `
		UPDATE products
		SET stock = stock + $2, updated_at = NOW()
		WHERE id = $1
	`, productID, qty)
	if err != nil {
		return fmt.Errorf("release stock: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("release stock rows affected: %w", err)
	}
	if affected == 0 {
		return domain.ErrProductNotFound
	}

	return nil
}

func (r *productRepository) loadImages(ctx context.Context, productID string) ([]domain.ProductImage, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT public_id, url
		FROM product_images
		WHERE product_id = $1
		ORDER BY position
	`, productID)
	if err != nil {
		return nil, fmt.Errorf("list product images: %w", err)
	}
	defer rows.Close()

	images := make([]domain.ProductImage, 0)
	for rows.Next() {
		var img domain.ProductImage
		if err := rows.Scan(&img.PublicID, &img.URL); err != nil {
			return nil, fmt.Errorf("scan product image: %w", err)
		}
		images = append(images, img)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate product images: %w", err)
	}

	return images, nil
}

func (r *productRepository) firstImage(ctx context.Context, productID string) (string, error) {
	var url string
	err := r.db.QueryRowContext(ctx, `
		SELECT url
		FROM product_images
		WHERE product_id = $1
		ORDER BY position
		LIMIT 1
	`, productID).Scan(&url)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("select product image: %w", err)
	}
	return url, nil
}

var _ domain.ProductRepository = (*productRepository)(nil)
