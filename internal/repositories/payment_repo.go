package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/freelancehub/backend/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PaymentRepo struct {
	pool *pgxpool.Pool
}

func NewPaymentRepo(pool *pgxpool.Pool) *PaymentRepo {
	return &PaymentRepo{pool: pool}
}

const paymentIntentColumns = `id, user_id, tx_ref, purpose, target, amount, currency, status,
	checkout_link, provider_tx_id, note, created_at, updated_at`

func scanIntent(row pgx.Row) (*models.PaymentIntent, error) {
	var p models.PaymentIntent
	err := row.Scan(&p.ID, &p.UserID, &p.TxRef, &p.Purpose, &p.Target, &p.Amount, &p.Currency, &p.Status,
		&p.CheckoutLink, &p.ProviderTxID, &p.Note, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *PaymentRepo) Create(ctx context.Context, p *models.PaymentIntent) error {
	return r.pool.QueryRow(ctx, `
		INSERT INTO payment_intents (user_id, tx_ref, purpose, target, amount, currency, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at, updated_at
	`, p.UserID, p.TxRef, p.Purpose, p.Target, p.Amount, p.Currency, p.Status).Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
}

func (r *PaymentRepo) GetByTxRef(ctx context.Context, txRef string) (*models.PaymentIntent, error) {
	return scanIntent(r.pool.QueryRow(ctx, `
		SELECT `+paymentIntentColumns+` FROM payment_intents WHERE tx_ref = $1
	`, txRef))
}

// LockByTxRef reads the intent under FOR UPDATE. Finalize re-checks the
// status through this lock so a replayed confirmation can never apply
// the paid effect twice.
func (r *PaymentRepo) LockByTxRef(ctx context.Context, q Querier, txRef string) (*models.PaymentIntent, error) {
	return scanIntent(q.QueryRow(ctx, `
		SELECT `+paymentIntentColumns+` FROM payment_intents WHERE tx_ref = $1
		FOR UPDATE
	`, txRef))
}

func (r *PaymentRepo) SetCheckoutLink(ctx context.Context, id uuid.UUID, link string) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE payment_intents SET checkout_link = $1, updated_at = now() WHERE id = $2
	`, link, id)
	return err
}

// MarkPaid flips a processing intent to paid. The status guard makes
// paid and failed terminal at the SQL level too: a row that already
// left processing is never overwritten.
func (r *PaymentRepo) MarkPaid(ctx context.Context, q Querier, id uuid.UUID, providerTxID string) error {
	tag, err := q.Exec(ctx, `
		UPDATE payment_intents
		SET status = $1, provider_tx_id = $2, updated_at = now()
		WHERE id = $3 AND status = $4
	`, models.PaymentStatusPaid, providerTxID, id, models.PaymentStatusProcessing)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("intent %s is not processing: %w", id, models.ErrPaymentFailed)
	}
	return nil
}

// MarkFailed records why the intent failed. The row never leaves
// failed; retries go through a new intent.
func (r *PaymentRepo) MarkFailed(ctx context.Context, id uuid.UUID, note string) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE payment_intents
		SET status = $1, note = $2, updated_at = now()
		WHERE id = $3 AND status <> $4
	`, models.PaymentStatusFailed, note, id, models.PaymentStatusPaid)
	return err
}

func (r *PaymentRepo) ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.PaymentIntent, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.pool.Query(ctx, `
		SELECT `+paymentIntentColumns+` FROM payment_intents
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`, userID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var intents []models.PaymentIntent
	for rows.Next() {
		p, err := scanIntent(rows)
		if err != nil {
			return nil, err
		}
		intents = append(intents, *p)
	}
	return intents, rows.Err()
}
