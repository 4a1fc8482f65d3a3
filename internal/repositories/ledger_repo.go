package repositories

import (
	"context"
	"errors"
	"sort"

	"github.com/freelancehub/backend/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

type LedgerRepo struct {
	pool *pgxpool.Pool
}

func NewLedgerRepo(pool *pgxpool.Pool) *LedgerRepo {
	return &LedgerRepo{pool: pool}
}

// --- Escrow accounts ---

// LockAccount creates the account on first access and locks its row for
// the duration of the transaction. Every balance write goes through a
// row locked here.
func (r *LedgerRepo) LockAccount(ctx context.Context, q Querier, userID uuid.UUID, currency string) (*models.EscrowAccount, error) {
	_, err := q.Exec(ctx, `
		INSERT INTO escrow_accounts (user_id, currency)
		VALUES ($1, $2)
		ON CONFLICT (user_id) DO NOTHING
	`, userID, currency)
	if err != nil {
		return nil, err
	}

	var a models.EscrowAccount
	err = q.QueryRow(ctx, `
		SELECT user_id, balance, currency, updated_at
		FROM escrow_accounts WHERE user_id = $1
		FOR UPDATE
	`, userID).Scan(&a.UserID, &a.Balance, &a.Currency, &a.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// LockAccounts locks several accounts in a stable order so concurrent
// transactions touching the same pair cannot deadlock.
func (r *LedgerRepo) LockAccounts(ctx context.Context, q Querier, currency string, userIDs ...uuid.UUID) (map[uuid.UUID]*models.EscrowAccount, error) {
	ids := make([]uuid.UUID, len(userIDs))
	copy(ids, userIDs)
	sort.Slice(ids, func(i, j int) bool { return ids[i].String() < ids[j].String() })

	accounts := make(map[uuid.UUID]*models.EscrowAccount, len(ids))
	for _, id := range ids {
		if _, ok := accounts[id]; ok {
			continue
		}
		a, err := r.LockAccount(ctx, q, id, currency)
		if err != nil {
			return nil, err
		}
		accounts[id] = a
	}
	return accounts, nil
}

// AdjustBalance applies a signed delta to an account the caller has
// already locked. Debits are floored at zero.
func (r *LedgerRepo) AdjustBalance(ctx context.Context, q Querier, userID uuid.UUID, delta decimal.Decimal) error {
	_, err := q.Exec(ctx, `
		UPDATE escrow_accounts
		SET balance = GREATEST(balance + $1, 0), updated_at = now()
		WHERE user_id = $2
	`, delta, userID)
	return err
}

func (r *LedgerRepo) GetAccount(ctx context.Context, userID uuid.UUID) (*models.EscrowAccount, error) {
	var a models.EscrowAccount
	err := r.pool.QueryRow(ctx, `
		SELECT user_id, balance, currency, updated_at
		FROM escrow_accounts WHERE user_id = $1
	`, userID).Scan(&a.UserID, &a.Balance, &a.Currency, &a.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// --- Ledger entries (append-only) ---

func (r *LedgerRepo) Append(ctx context.Context, q Querier, e *models.LedgerEntry) error {
	return q.QueryRow(ctx, `
		INSERT INTO ledger_entries (user_id, project_id, kind, amount, note)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`, e.UserID, e.ProjectID, e.Kind, e.Amount, e.Note).Scan(&e.ID, &e.CreatedAt)
}

// ListByProject returns every entry for a project in append order. The
// escrow calculator folds these; remaining escrow is never read from
// the mutable balance.
func (r *LedgerRepo) ListByProject(ctx context.Context, q Querier, projectID uuid.UUID) ([]models.LedgerEntry, error) {
	rows, err := q.Query(ctx, `
		SELECT id, user_id, project_id, kind, amount, note, created_at
		FROM ledger_entries WHERE project_id = $1
		ORDER BY created_at, id
	`, projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []models.LedgerEntry
	for rows.Next() {
		var e models.LedgerEntry
		if err := rows.Scan(&e.ID, &e.UserID, &e.ProjectID, &e.Kind, &e.Amount, &e.Note, &e.CreatedAt); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (r *LedgerRepo) ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.LedgerEntry, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.pool.Query(ctx, `
		SELECT id, user_id, project_id, kind, amount, note, created_at
		FROM ledger_entries WHERE user_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2 OFFSET $3
	`, userID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []models.LedgerEntry
	for rows.Next() {
		var e models.LedgerEntry
		if err := rows.Scan(&e.ID, &e.UserID, &e.ProjectID, &e.Kind, &e.Amount, &e.Note, &e.CreatedAt); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
