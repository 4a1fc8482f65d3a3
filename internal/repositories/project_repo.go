package repositories

import (
	"context"
	"errors"

	"github.com/freelancehub/backend/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ProjectRepo covers the slice of project/milestone state the ledger
// needs. Full project CRUD lives in the web application.
type ProjectRepo struct {
	pool *pgxpool.Pool
}

func NewProjectRepo(pool *pgxpool.Pool) *ProjectRepo {
	return &ProjectRepo{pool: pool}
}

func (r *ProjectRepo) GetByID(ctx context.Context, q Querier, id uuid.UUID) (*models.Project, error) {
	var p models.Project
	err := q.QueryRow(ctx, `
		SELECT id, client_id, talent_id, title, budget, status, published, created_at, updated_at
		FROM projects WHERE id = $1
	`, id).Scan(&p.ID, &p.ClientID, &p.TalentID, &p.Title, &p.Budget, &p.Status, &p.Published, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// SetPublished is the effect applied by a paid project-publication
// intent. Idempotent by construction.
func (r *ProjectRepo) SetPublished(ctx context.Context, q Querier, id uuid.UUID) error {
	_, err := q.Exec(ctx, `
		UPDATE projects SET published = true, updated_at = now() WHERE id = $1
	`, id)
	return err
}

// --- Milestones ---

func (r *ProjectRepo) GetMilestone(ctx context.Context, q Querier, id uuid.UUID) (*models.Milestone, error) {
	var m models.Milestone
	err := q.QueryRow(ctx, `
		SELECT id, project_id, title, description, amount, status, created_at, updated_at
		FROM milestones WHERE id = $1
	`, id).Scan(&m.ID, &m.ProjectID, &m.Title, &m.Description, &m.Amount, &m.Status, &m.CreatedAt, &m.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// LockMilestone reads the milestone under FOR UPDATE so the release
// decision and the status flip happen against the same row state.
func (r *ProjectRepo) LockMilestone(ctx context.Context, q Querier, id uuid.UUID) (*models.Milestone, error) {
	var m models.Milestone
	err := q.QueryRow(ctx, `
		SELECT id, project_id, title, description, amount, status, created_at, updated_at
		FROM milestones WHERE id = $1
		FOR UPDATE
	`, id).Scan(&m.ID, &m.ProjectID, &m.Title, &m.Description, &m.Amount, &m.Status, &m.CreatedAt, &m.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *ProjectRepo) UpdateMilestoneStatus(ctx context.Context, q Querier, id uuid.UUID, status string) error {
	_, err := q.Exec(ctx, `
		UPDATE milestones SET status = $1, updated_at = now() WHERE id = $2
	`, status, id)
	return err
}

func (r *ProjectRepo) ListMilestones(ctx context.Context, projectID uuid.UUID) ([]models.Milestone, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, project_id, title, description, amount, status, created_at, updated_at
		FROM milestones WHERE project_id = $1
		ORDER BY created_at, id
	`, projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var milestones []models.Milestone
	for rows.Next() {
		var m models.Milestone
		if err := rows.Scan(&m.ID, &m.ProjectID, &m.Title, &m.Description, &m.Amount, &m.Status, &m.CreatedAt, &m.UpdatedAt); err != nil {
			return nil, err
		}
		milestones = append(milestones, m)
	}
	return milestones, rows.Err()
}
