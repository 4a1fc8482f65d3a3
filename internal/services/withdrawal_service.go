package services

import (
	"context"
	"fmt"
	"strconv"

	"github.com/freelancehub/backend/internal/config"
	"github.com/freelancehub/backend/internal/events"
	"github.com/freelancehub/backend/internal/gateway"
	"github.com/freelancehub/backend/internal/models"
	"github.com/freelancehub/backend/internal/repositories"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// WithdrawalService debits a talent's escrow balance and, for bank
// transfers, drives the payout through the gateway. The debit and the
// request row commit in one transaction; the transfer call sits
// outside it, and a provider failure leaves the request in processing
// with the error recorded — the debit is never silently lost.
type WithdrawalService struct {
	pool           *pgxpool.Pool
	ledgerRepo     *repositories.LedgerRepo
	withdrawalRepo *repositories.WithdrawalRepo
	auditRepo      *repositories.AuditRepo
	gateway        PaymentGateway
	publisher      events.Publisher
	cfg            *config.Config
	log            *zap.Logger
}

func NewWithdrawalService(
	pool *pgxpool.Pool,
	ledgerRepo *repositories.LedgerRepo,
	withdrawalRepo *repositories.WithdrawalRepo,
	auditRepo *repositories.AuditRepo,
	gw PaymentGateway,
	publisher events.Publisher,
	cfg *config.Config,
	log *zap.Logger,
) *WithdrawalService {
	return &WithdrawalService{
		pool:           pool,
		ledgerRepo:     ledgerRepo,
		withdrawalRepo: withdrawalRepo,
		auditRepo:      auditRepo,
		gateway:        gw,
		publisher:      publisher,
		cfg:            cfg,
		log:            log,
	}
}

type WithdrawalInput struct {
	Amount        decimal.Decimal
	Method        string
	BankCode      *string
	AccountNumber *string
}

// Request debits the balance and records the withdrawal. Bank
// transfers continue to the provider after the local commit.
func (s *WithdrawalService) Request(ctx context.Context, userID uuid.UUID, input WithdrawalInput) (*models.WithdrawalRequest, error) {
	if !input.Amount.IsPositive() {
		return nil, models.ErrInvalidAmount
	}
	if input.Method != models.WithdrawalMethodBankTransfer && input.Method != models.WithdrawalMethodPlatformCredit {
		return nil, fmt.Errorf("unknown withdrawal method %q", input.Method)
	}
	if input.Method == models.WithdrawalMethodBankTransfer && (input.BankCode == nil || input.AccountNumber == nil) {
		return nil, fmt.Errorf("bank transfer requires bank_code and account_number")
	}

	status := models.WithdrawalStatusPending
	if input.Method == models.WithdrawalMethodBankTransfer {
		status = models.WithdrawalStatusProcessing
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	account, err := s.ledgerRepo.LockAccount(ctx, tx, userID, s.cfg.Currency)
	if err != nil {
		return nil, err
	}
	if account.Balance.LessThan(input.Amount) {
		return nil, fmt.Errorf("balance %s, requested %s: %w", account.Balance, input.Amount, models.ErrInsufficientBalance)
	}
	if err := s.ledgerRepo.AdjustBalance(ctx, tx, userID, input.Amount.Neg()); err != nil {
		return nil, err
	}

	request := &models.WithdrawalRequest{
		UserID:        userID,
		Amount:        input.Amount,
		Method:        input.Method,
		Status:        status,
		BankCode:      input.BankCode,
		AccountNumber: input.AccountNumber,
	}
	if err := s.withdrawalRepo.Create(ctx, tx, request); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	_ = s.auditRepo.Log(ctx, models.AuditLog{
		ActorUserID: &userID,
		ActorType:   "user",
		Action:      "withdrawal_requested",
		EntityType:  "withdrawal_request",
		EntityID:    &request.ID,
		Meta:        map[string]any{"amount": input.Amount.String(), "method": input.Method},
	})
	s.publishUpdate(ctx, request)

	if input.Method != models.WithdrawalMethodBankTransfer {
		return request, nil
	}
	return s.sendTransfer(ctx, request)
}

// sendTransfer runs the provider leg of a bank withdrawal. The local
// debit already committed; failure here is recorded, not rolled back.
func (s *WithdrawalService) sendTransfer(ctx context.Context, request *models.WithdrawalRequest) (*models.WithdrawalRequest, error) {
	reference := "wd-" + request.ID.String()
	result, err := s.gateway.CreateTransfer(ctx, gateway.CreateTransferRequest{
		AccountBank:   *request.BankCode,
		AccountNumber: *request.AccountNumber,
		Amount:        request.Amount,
		Currency:      s.cfg.Currency,
		Reference:     reference,
		Narration:     "FreelanceHub withdrawal",
	})
	if err != nil {
		s.log.Error("transfer failed, withdrawal left in processing",
			zap.String("withdrawal_id", request.ID.String()),
			zap.Error(err),
		)
		if rErr := s.withdrawalRepo.RecordProcessingError(ctx, request.ID, err.Error()); rErr != nil {
			s.log.Error("failed to record processing error", zap.String("withdrawal_id", request.ID.String()), zap.Error(rErr))
		}
		return request, err
	}

	providerID := strconv.FormatInt(result.ID, 10)
	if err := s.withdrawalRepo.MarkPaid(ctx, request.ID, providerID, result.Reference); err != nil {
		return request, err
	}
	request.Status = models.WithdrawalStatusPaid
	request.ProviderTransferID = &providerID
	request.ProviderReference = &result.Reference
	s.publishUpdate(ctx, request)
	return request, nil
}

// Approve moves a pending non-bank request to approved. Admin only;
// the handler enforces the role.
func (s *WithdrawalService) Approve(ctx context.Context, id uuid.UUID, adminID uuid.UUID) (*models.WithdrawalRequest, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	request, err := s.withdrawalRepo.LockByID(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	if request.Status != models.WithdrawalStatusPending {
		return nil, fmt.Errorf("withdrawal is %s, only pending requests can be approved", request.Status)
	}
	if err := s.withdrawalRepo.UpdateStatus(ctx, tx, id, models.WithdrawalStatusApproved); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	request.Status = models.WithdrawalStatusApproved
	_ = s.auditRepo.Log(ctx, models.AuditLog{
		ActorUserID: &adminID,
		ActorType:   "admin",
		Action:      "withdrawal_approved",
		EntityType:  "withdrawal_request",
		EntityID:    &request.ID,
	})
	s.publishUpdate(ctx, request)
	return request, nil
}

// Reject refunds the debit: the compensation commits in the same
// transaction that flips the status, so the money cannot vanish.
func (s *WithdrawalService) Reject(ctx context.Context, id uuid.UUID, adminID uuid.UUID, reason string) (*models.WithdrawalRequest, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	request, err := s.withdrawalRepo.LockByID(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	if request.Status != models.WithdrawalStatusPending {
		return nil, fmt.Errorf("withdrawal is %s, only pending requests can be rejected", request.Status)
	}
	if _, err := s.ledgerRepo.LockAccount(ctx, tx, request.UserID, s.cfg.Currency); err != nil {
		return nil, err
	}
	if err := s.ledgerRepo.AdjustBalance(ctx, tx, request.UserID, request.Amount); err != nil {
		return nil, err
	}
	if err := s.withdrawalRepo.UpdateStatus(ctx, tx, id, models.WithdrawalStatusRejected); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	request.Status = models.WithdrawalStatusRejected
	_ = s.auditRepo.Log(ctx, models.AuditLog{
		ActorUserID: &adminID,
		ActorType:   "admin",
		Action:      "withdrawal_rejected",
		EntityType:  "withdrawal_request",
		EntityID:    &request.ID,
		Meta:        map[string]any{"reason": reason},
	})
	s.publishUpdate(ctx, request)
	return request, nil
}

func (s *WithdrawalService) ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.WithdrawalRequest, error) {
	return s.withdrawalRepo.ListByUser(ctx, userID, limit, offset)
}

func (s *WithdrawalService) ListByStatus(ctx context.Context, status string, limit, offset int) ([]models.WithdrawalRequest, error) {
	return s.withdrawalRepo.ListByStatus(ctx, status, limit, offset)
}

func (s *WithdrawalService) publishUpdate(ctx context.Context, request *models.WithdrawalRequest) {
	_ = s.publisher.Publish(ctx, events.StreamLedger, events.Event{
		Type: events.EventWithdrawalUpdated,
		Payload: map[string]any{
			"withdrawal_id": request.ID.String(),
			"user_id":       request.UserID.String(),
			"status":        request.Status,
		},
	})
}
