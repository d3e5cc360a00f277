package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/vladislavdragonenkov/shop/internal/domain"
)

type paymentIntentRepository struct {
	db *sql.DB
}

// NewPaymentIntentRepository создаёт PostgreSQL-реализацию PaymentIntentRepository.
func NewPaymentIntentRepository(store *Store) domain.PaymentIntentRepository {
	return &paymentIntentRepository{db: store.DB()}
}

func (r *paymentIntentRepository) Create(intent domain.PaymentIntent) error {
	if errs := intent.Validate(); len(errs) > 0 {
		return errs[0]
	}

	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO payment_intents (
			id, order_id, session_id, status, amount_minor, created_at, updated_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7)
	`,
		intent.ID, intent.OrderID, intent.SessionID, string(intent.Status),
		intent.AmountMinor, intent.CreatedAt, intent.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert payment intent: %w", err)
	}

	return nil
}

func (r *paymentIntentRepository) GetBySession(sessionID string) (domain.PaymentIntent, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	var (
		intent domain.PaymentIntent
		status string
	)
	err := r.db.QueryRowContext(ctx, `
		SELECT id, order_id, session_id, status, amount_minor, created_at, updated_at
		FROM payment_intents
		WHERE session_id = $1
	`, sessionID).Scan(
		&intent.ID, &intent.OrderID, &intent.SessionID, &status,
		&intent.AmountMinor, &intent.CreatedAt, &intent.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.PaymentIntent{}, domain.ErrIntentNotFound
		}
		return domain.PaymentIntent{}, fmt.Errorf("select payment intent: %w", err)
	}
	intent.Status = domain.PaymentStatus(status)

	return intent, nil
}

func (r *paymentIntentRepository) Save(intent domain.PaymentIntent) error {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	res, err := r.db.ExecContext(ctx, `
		UPDATE payment_intents
		SET status = $2, amount_minor = $3, updated_at = $4
		WHERE session_id = $1
	`, intent.SessionID, string(intent.Status), intent.AmountMinor, intent.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update payment intent: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update payment intent rows affected: %w", err)
	}
	if affected == 0 {
		return domain.ErrIntentNotFound
	}

	return nil
}

var _ domain.PaymentIntentRepository = (*paymentIntentRepository)(nil)
