package services

import (
	"context"
	"fmt"

	"github.com/freelancehub/backend/internal/config"
	"github.com/freelancehub/backend/internal/events"
	"github.com/freelancehub/backend/internal/models"
	"github.com/freelancehub/backend/internal/repositories"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// EscrowService orchestrates every balance-affecting operation on
// project escrow. Each operation is a single transaction: the touched
// escrow accounts are locked first, the project aggregates are
// recomputed from ledger rows inside that transaction, and the balance
// writes commit together with the ledger appends or not at all.
type EscrowService struct {
	pool        *pgxpool.Pool
	ledgerRepo  *repositories.LedgerRepo
	projectRepo *repositories.ProjectRepo
	messageRepo *repositories.MessageRepo
	auditRepo   *repositories.AuditRepo
	publisher   events.Publisher
	cfg         *config.Config
	log         *zap.Logger
}

func NewEscrowService(
	pool *pgxpool.Pool,
	ledgerRepo *repositories.LedgerRepo,
	projectRepo *repositories.ProjectRepo,
	messageRepo *repositories.MessageRepo,
	auditRepo *repositories.AuditRepo,
	publisher events.Publisher,
	cfg *config.Config,
	log *zap.Logger,
) *EscrowService {
	return &EscrowService{
		pool:        pool,
		ledgerRepo:  ledgerRepo,
		projectRepo: projectRepo,
		messageRepo: messageRepo,
		auditRepo:   auditRepo,
		publisher:   publisher,
		cfg:         cfg,
		log:         log,
	}
}

// loadForClient resolves the project and enforces the "actor is the
// project's client" precondition shared by every escrow operation.
func (s *EscrowService) loadForClient(ctx context.Context, projectID, actorID uuid.UUID) (*models.Project, error) {
	project, err := s.projectRepo.GetByID(ctx, s.pool, projectID)
	if err != nil {
		return nil, fmt.Errorf("project %s: %w", projectID, err)
	}
	if project.ClientID != actorID {
		return nil, fmt.Errorf("only the project client may move escrow funds: %w", models.ErrUnauthorized)
	}
	return project, nil
}

// Deposit moves client funds into the project's escrow pool.
func (s *EscrowService) Deposit(ctx context.Context, projectID, actorID uuid.UUID, amount decimal.Decimal, note string) error {
	if !amount.IsPositive() {
		return models.ErrInvalidAmount
	}
	project, err := s.loadForClient(ctx, projectID, actorID)
	if err != nil {
		return err
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := s.ledgerRepo.LockAccount(ctx, tx, project.ClientID, s.cfg.Currency); err != nil {
		return err
	}
	entry := &models.LedgerEntry{
		UserID:    project.ClientID,
		ProjectID: &project.ID,
		Kind:      models.EntryKindDeposit,
		Amount:    amount,
		Note:      optionalNote(note),
	}
	if err := s.ledgerRepo.Append(ctx, tx, entry); err != nil {
		return err
	}
	if err := s.ledgerRepo.AdjustBalance(ctx, tx, project.ClientID, amount); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return err
	}

	s.afterMovement(ctx, project, actorID, "escrow_deposit",
		fmt.Sprintf("Client deposited %s %s into escrow.", amount.StringFixed(2), s.cfg.Currency),
		map[string]any{"amount": amount.String()})
	return nil
}

// MilestoneRelease approves a completed milestone and pays its amount
// out of the project escrow. This is the only path that both moves a
// milestone to approved and moves money.
func (s *EscrowService) MilestoneRelease(ctx context.Context, projectID, milestoneID, actorID uuid.UUID) error {
	project, err := s.loadForClient(ctx, projectID, actorID)
	if err != nil {
		return err
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if err := s.lockProjectAccounts(ctx, tx, project); err != nil {
		return err
	}

	milestone, err := s.projectRepo.LockMilestone(ctx, tx, milestoneID)
	if err != nil {
		return fmt.Errorf("milestone %s: %w", milestoneID, err)
	}
	if milestone.ProjectID != project.ID {
		return fmt.Errorf("milestone %s does not belong to project %s: %w", milestoneID, projectID, models.ErrNotFound)
	}
	if !models.IsValidMilestoneTransition(milestone.Status, models.MilestoneStatusApproved) {
		return fmt.Errorf("milestone is %s: %w", milestone.Status, models.ErrMilestoneNotReady)
	}

	entries, err := s.ledgerRepo.ListByProject(ctx, tx, project.ID)
	if err != nil {
		return err
	}
	if err := CheckRelease(milestone.Amount, FoldEntries(entries)); err != nil {
		return err
	}

	if err := s.projectRepo.UpdateMilestoneStatus(ctx, tx, milestone.ID, models.MilestoneStatusApproved); err != nil {
		return err
	}
	note := fmt.Sprintf("milestone %q approved", milestone.Title)
	if err := s.moveReleasedFunds(ctx, tx, project, models.EntryKindMilestoneRelease, milestone.Amount, note); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return err
	}

	s.afterMovement(ctx, project, actorID, "milestone_release",
		fmt.Sprintf("Milestone %q approved; %s %s released from escrow.", milestone.Title, milestone.Amount.StringFixed(2), s.cfg.Currency),
		map[string]any{"milestone_id": milestone.ID.String(), "amount": milestone.Amount.String()})
	return nil
}

// ManualRelease pays out of escrow without a completed milestone,
// subject to the policy cap on the project budget.
func (s *EscrowService) ManualRelease(ctx context.Context, projectID, actorID uuid.UUID, amount decimal.Decimal, note string) error {
	if !amount.IsPositive() {
		return models.ErrInvalidAmount
	}
	project, err := s.loadForClient(ctx, projectID, actorID)
	if err != nil {
		return err
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if err := s.lockProjectAccounts(ctx, tx, project); err != nil {
		return err
	}
	entries, err := s.ledgerRepo.ListByProject(ctx, tx, project.ID)
	if err != nil {
		return err
	}
	if err := CheckManualRelease(amount, FoldEntries(entries), project.Budget, s.cfg.ManualReleaseCapBPS); err != nil {
		return err
	}

	if err := s.moveReleasedFunds(ctx, tx, project, models.EntryKindManualRelease, amount, note); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return err
	}

	s.afterMovement(ctx, project, actorID, "manual_release",
		fmt.Sprintf("%s %s released early from escrow.", amount.StringFixed(2), s.cfg.Currency),
		map[string]any{"amount": amount.String()})
	return nil
}

// Refund returns escrow funds to the client. No payee leg: the money
// leaves the pool without a corresponding payout entry.
func (s *EscrowService) Refund(ctx context.Context, projectID, actorID uuid.UUID, amount decimal.Decimal, note string) error {
	if !amount.IsPositive() {
		return models.ErrInvalidAmount
	}
	project, err := s.loadForClient(ctx, projectID, actorID)
	if err != nil {
		return err
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := s.ledgerRepo.LockAccount(ctx, tx, project.ClientID, s.cfg.Currency); err != nil {
		return err
	}
	entries, err := s.ledgerRepo.ListByProject(ctx, tx, project.ID)
	if err != nil {
		return err
	}
	if err := CheckRelease(amount, FoldEntries(entries)); err != nil {
		return err
	}

	if err := s.ledgerRepo.AdjustBalance(ctx, tx, project.ClientID, amount.Neg()); err != nil {
		return err
	}
	entry := &models.LedgerEntry{
		UserID:    project.ClientID,
		ProjectID: &project.ID,
		Kind:      models.EntryKindRefund,
		Amount:    amount,
		Note:      optionalNote(note),
	}
	if err := s.ledgerRepo.Append(ctx, tx, entry); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return err
	}

	s.afterMovement(ctx, project, actorID, "escrow_refund",
		fmt.Sprintf("%s %s refunded from escrow.", amount.StringFixed(2), s.cfg.Currency),
		map[string]any{"amount": amount.String()})
	return nil
}

// ProjectSummary is the read model for escrow dashboards.
type ProjectSummary struct {
	ProjectID        uuid.UUID       `json:"project_id"`
	Budget           decimal.Decimal `json:"budget"`
	Deposited        decimal.Decimal `json:"deposited"`
	Remaining        decimal.Decimal `json:"remaining"`
	ManualReleased   decimal.Decimal `json:"manual_released"`
	ManualReleaseCap decimal.Decimal `json:"manual_release_cap"`
	Refunded         decimal.Decimal `json:"refunded"`
	PaidOut          decimal.Decimal `json:"paid_out"`
}

func (s *EscrowService) ProjectSummary(ctx context.Context, projectID uuid.UUID) (*ProjectSummary, error) {
	project, err := s.projectRepo.GetByID(ctx, s.pool, projectID)
	if err != nil {
		return nil, err
	}
	entries, err := s.ledgerRepo.ListByProject(ctx, s.pool, projectID)
	if err != nil {
		return nil, err
	}
	totals := FoldEntries(entries)
	return &ProjectSummary{
		ProjectID:        project.ID,
		Budget:           project.Budget,
		Deposited:        totals.Deposited,
		Remaining:        totals.Remaining(),
		ManualReleased:   totals.ManualReleased,
		ManualReleaseCap: ManualReleaseCap(project.Budget, s.cfg.ManualReleaseCapBPS),
		Refunded:         totals.Refunded,
		PaidOut:          totals.PaidOut,
	}, nil
}

func (s *EscrowService) ProjectLedger(ctx context.Context, projectID uuid.UUID) ([]models.LedgerEntry, error) {
	return s.ledgerRepo.ListByProject(ctx, s.pool, projectID)
}

// --- helpers ---

// lockProjectAccounts locks the client account and, when a talent is
// assigned, the talent account, in stable order.
func (s *EscrowService) lockProjectAccounts(ctx context.Context, q repositories.Querier, project *models.Project) error {
	ids := []uuid.UUID{project.ClientID}
	if project.TalentID != nil {
		ids = append(ids, *project.TalentID)
	}
	_, err := s.ledgerRepo.LockAccounts(ctx, q, s.cfg.Currency, ids...)
	return err
}

// moveReleasedFunds performs the shared release legs: debit the client,
// append the release entry, and when a talent is assigned, credit the
// talent with a matching payout entry. Caller holds the account locks.
func (s *EscrowService) moveReleasedFunds(ctx context.Context, q repositories.Querier, project *models.Project, kind string, amount decimal.Decimal, note string) error {
	if err := s.ledgerRepo.AdjustBalance(ctx, q, project.ClientID, amount.Neg()); err != nil {
		return err
	}
	release := &models.LedgerEntry{
		UserID:    project.ClientID,
		ProjectID: &project.ID,
		Kind:      kind,
		Amount:    amount,
		Note:      optionalNote(note),
	}
	if err := s.ledgerRepo.Append(ctx, q, release); err != nil {
		return err
	}

	if project.TalentID == nil {
		return nil
	}
	if err := s.ledgerRepo.AdjustBalance(ctx, q, *project.TalentID, amount); err != nil {
		return err
	}
	payout := &models.LedgerEntry{
		UserID:    *project.TalentID,
		ProjectID: &project.ID,
		Kind:      models.EntryKindPayout,
		Amount:    amount,
		Note:      optionalNote(note),
	}
	return s.ledgerRepo.Append(ctx, q, payout)
}

// afterMovement emits the non-transactional collaborator outputs:
// system note, audit entry, revalidation event. Failures are logged,
// never propagated — the money already moved.
func (s *EscrowService) afterMovement(ctx context.Context, project *models.Project, actorID uuid.UUID, action, note string, meta map[string]any) {
	if err := s.messageRepo.PostSystemNote(ctx, project.ID, note); err != nil {
		s.log.Warn("failed to post system note", zap.String("project_id", project.ID.String()), zap.Error(err))
	}
	_ = s.auditRepo.Log(ctx, models.AuditLog{
		ActorUserID: &actorID,
		ActorType:   "user",
		Action:      action,
		EntityType:  "project",
		EntityID:    &project.ID,
		Meta:        meta,
	})
	_ = s.publisher.Publish(ctx, events.StreamLedger, events.Event{
		Type: events.EventEscrowUpdated,
		Payload: map[string]any{
			"project_id": project.ID.String(),
			"action":     action,
		},
	})
}

func optionalNote(note string) *string {
	if note == "" {
		return nil
	}
	return &note
}
