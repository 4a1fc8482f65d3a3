package repositories

import (
	"context"
	"errors"
	"strings"

	"github.com/freelancehub/backend/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type UserRepo struct {
	pool *pgxpool.Pool
}

func NewUserRepo(pool *pgxpool.Pool) *UserRepo {
	return &UserRepo{pool: pool}
}

// UpsertByEmail registers or refreshes the identity handed over by the
// platform SSO payload.
func (r *UserRepo) UpsertByEmail(ctx context.Context, email, displayName, role string) (*models.User, error) {
	var u models.User
	err := r.pool.QueryRow(ctx, `
		INSERT INTO users (email, display_name, role)
		VALUES ($1, $2, $3)
		ON CONFLICT (email) DO UPDATE SET
			display_name = EXCLUDED.display_name,
			role = EXCLUDED.role
		RETURNING id, email, display_name, role, account_tier, created_at
	`, strings.ToLower(email), displayName, role).Scan(
		&u.ID, &u.Email, &u.DisplayName, &u.Role, &u.AccountTier, &u.CreatedAt,
	)
	return &u, err
}

func (r *UserRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var u models.User
	err := r.pool.QueryRow(ctx, `
		SELECT id, email, display_name, role, account_tier, created_at
		FROM users WHERE id = $1
	`, id).Scan(&u.ID, &u.Email, &u.DisplayName, &u.Role, &u.AccountTier, &u.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// SetAccountTier is the effect applied by a paid tier-upgrade intent.
func (r *UserRepo) SetAccountTier(ctx context.Context, q Querier, id uuid.UUID, tier string) error {
	_, err := q.Exec(ctx, `UPDATE users SET account_tier = $1 WHERE id = $2`, tier, id)
	return err
}
