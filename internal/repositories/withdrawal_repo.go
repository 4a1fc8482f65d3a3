package repositories

import (
	"context"
	"errors"

	"github.com/freelancehub/backend/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type WithdrawalRepo struct {
	pool *pgxpool.Pool
}

func NewWithdrawalRepo(pool *pgxpool.Pool) *WithdrawalRepo {
	return &WithdrawalRepo{pool: pool}
}

const withdrawalColumns = `id, user_id, amount, method, status, bank_code, account_number,
	provider_transfer_id, provider_reference, processing_error, created_at, updated_at`

func scanWithdrawal(row pgx.Row) (*models.WithdrawalRequest, error) {
	var w models.WithdrawalRequest
	err := row.Scan(&w.ID, &w.UserID, &w.Amount, &w.Method, &w.Status, &w.BankCode, &w.AccountNumber,
		&w.ProviderTransferID, &w.ProviderReference, &w.ProcessingError, &w.CreatedAt, &w.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &w, nil
}

// Create inserts the request inside the same transaction that debits
// the balance — the row is the durable record of the debit.
func (r *WithdrawalRepo) Create(ctx context.Context, q Querier, w *models.WithdrawalRequest) error {
	return q.QueryRow(ctx, `
		INSERT INTO withdrawal_requests (user_id, amount, method, status, bank_code, account_number)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at
	`, w.UserID, w.Amount, w.Method, w.Status, w.BankCode, w.AccountNumber).Scan(&w.ID, &w.CreatedAt, &w.UpdatedAt)
}

func (r *WithdrawalRepo) GetByID(ctx context.Context, q Querier, id uuid.UUID) (*models.WithdrawalRequest, error) {
	return scanWithdrawal(q.QueryRow(ctx, `
		SELECT `+withdrawalColumns+` FROM withdrawal_requests WHERE id = $1
	`, id))
}

func (r *WithdrawalRepo) LockByID(ctx context.Context, q Querier, id uuid.UUID) (*models.WithdrawalRequest, error) {
	return scanWithdrawal(q.QueryRow(ctx, `
		SELECT `+withdrawalColumns+` FROM withdrawal_requests WHERE id = $1
		FOR UPDATE
	`, id))
}

func (r *WithdrawalRepo) MarkPaid(ctx context.Context, id uuid.UUID, providerTransferID, providerReference string) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE withdrawal_requests
		SET status = $1, provider_transfer_id = $2, provider_reference = $3,
		    processing_error = NULL, updated_at = now()
		WHERE id = $4
	`, models.WithdrawalStatusPaid, providerTransferID, providerReference, id)
	return err
}

// RecordProcessingError keeps the request in processing with the
// provider failure attached. The debit stands until reconciliation.
func (r *WithdrawalRepo) RecordProcessingError(ctx context.Context, id uuid.UUID, errMsg string) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE withdrawal_requests
		SET processing_error = $1, updated_at = now()
		WHERE id = $2
	`, errMsg, id)
	return err
}

func (r *WithdrawalRepo) UpdateStatus(ctx context.Context, q Querier, id uuid.UUID, status string) error {
	_, err := q.Exec(ctx, `
		UPDATE withdrawal_requests SET status = $1, updated_at = now() WHERE id = $2
	`, status, id)
	return err
}

func (r *WithdrawalRepo) ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.WithdrawalRequest, error) {
	return r.list(ctx, `WHERE user_id = $1`, limit, offset, userID)
}

func (r *WithdrawalRepo) ListByStatus(ctx context.Context, status string, limit, offset int) ([]models.WithdrawalRequest, error) {
	return r.list(ctx, `WHERE status = $1`, limit, offset, status)
}

func (r *WithdrawalRepo) list(ctx context.Context, where string, limit, offset int, arg any) ([]models.WithdrawalRequest, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.pool.Query(ctx, `
		SELECT `+withdrawalColumns+` FROM withdrawal_requests
		`+where+`
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`, arg, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var requests []models.WithdrawalRequest
	for rows.Next() {
		w, err := scanWithdrawal(rows)
		if err != nil {
			return nil, err
		}
		requests = append(requests, *w)
	}
	return requests, rows.Err()
}
