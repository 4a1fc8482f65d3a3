package repositories

import (
	"context"

	"github.com/freelancehub/backend/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

type MessageRepo struct {
	pool *pgxpool.Pool
}

func NewMessageRepo(pool *pgxpool.Pool) *MessageRepo {
	return &MessageRepo{pool: pool}
}

// PostSystemNote appends a system note (no sender) to the project's
// communication stream. Called after the ledger transaction commits.
func (r *MessageRepo) PostSystemNote(ctx context.Context, projectID uuid.UUID, body string) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO project_messages (project_id, sender_id, body)
		VALUES ($1, NULL, $2)
	`, projectID, body)
	return err
}

func (r *MessageRepo) ListByProject(ctx context.Context, projectID uuid.UUID, limit, offset int) ([]models.ProjectMessage, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := r.pool.Query(ctx, `
		SELECT id, project_id, sender_id, body, created_at
		FROM project_messages WHERE project_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`, projectID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var messages []models.ProjectMessage
	for rows.Next() {
		var m models.ProjectMessage
		if err := rows.Scan(&m.ID, &m.ProjectID, &m.SenderID, &m.Body, &m.CreatedAt); err != nil {
			return nil, err
		}
		messages = append(messages, m)
	}
	return messages, rows.Err()
}
