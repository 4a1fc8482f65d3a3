package services

import (
	"context"
	"fmt"

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

// PaymentGateway is the boundary to the external payment processor.
type PaymentGateway interface {
	InitializePayment(ctx context.Context, req gateway.InitializePaymentRequest) (*gateway.InitializePaymentResult, error)
	VerifyTransaction(ctx context.Context, transactionID string) (*gateway.VerifyResult, error)
	CreateTransfer(ctx context.Context, req gateway.CreateTransferRequest) (*gateway.CreateTransferResult, error)
}

// verifyEpsilon tolerates provider-side rounding when comparing the
// charged amount against the stored intent amount.
var verifyEpsilon = decimal.RequireFromString("0.01")

// PaymentService drives a payment intent from processing to a terminal
// paid or failed state, using gateway verification as the source of
// truth. Gateway calls happen outside local transactions; the paid
// transition and its effect commit together.
type PaymentService struct {
	pool        *pgxpool.Pool
	paymentRepo *repositories.PaymentRepo
	userRepo    *repositories.UserRepo
	projectRepo *repositories.ProjectRepo
	auditRepo   *repositories.AuditRepo
	gateway     PaymentGateway
	publisher   events.Publisher
	cfg         *config.Config
	log         *zap.Logger
}

func NewPaymentService(
	pool *pgxpool.Pool,
	paymentRepo *repositories.PaymentRepo,
	userRepo *repositories.UserRepo,
	projectRepo *repositories.ProjectRepo,
	auditRepo *repositories.AuditRepo,
	gw PaymentGateway,
	publisher events.Publisher,
	cfg *config.Config,
	log *zap.Logger,
) *PaymentService {
	return &PaymentService{
		pool:        pool,
		paymentRepo: paymentRepo,
		userRepo:    userRepo,
		projectRepo: projectRepo,
		auditRepo:   auditRepo,
		gateway:     gw,
		publisher:   publisher,
		cfg:         cfg,
		log:         log,
	}
}

// StartTierUpgrade opens a checkout for an account-tier upgrade.
func (s *PaymentService) StartTierUpgrade(ctx context.Context, userID uuid.UUID, tier string) (*models.PaymentIntent, error) {
	if !models.IsValidTier(tier) {
		return nil, fmt.Errorf("unknown tier %q: %w", tier, models.ErrInvalidAmount)
	}
	price, _ := s.cfg.TierPrice(tier)
	return s.startCheckout(ctx, userID, models.PaymentPurposeTierUpgrade, tier, price)
}

// StartProjectPublication opens a checkout for the publication fee of
// an unpublished project owned by the actor.
func (s *PaymentService) StartProjectPublication(ctx context.Context, userID, projectID uuid.UUID) (*models.PaymentIntent, error) {
	project, err := s.projectRepo.GetByID(ctx, s.pool, projectID)
	if err != nil {
		return nil, fmt.Errorf("project %s: %w", projectID, err)
	}
	if project.ClientID != userID {
		return nil, fmt.Errorf("only the project client may pay the publication fee: %w", models.ErrUnauthorized)
	}
	if project.Published {
		return nil, fmt.Errorf("project %s is already published", projectID)
	}
	return s.startCheckout(ctx, userID, models.PaymentPurposeProjectPublication, project.ID.String(), s.cfg.PublicationFee)
}

func (s *PaymentService) startCheckout(ctx context.Context, userID uuid.UUID, purpose, target string, amount decimal.Decimal) (*models.PaymentIntent, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	intent := &models.PaymentIntent{
		UserID:   userID,
		TxRef:    "fh-" + uuid.NewString(),
		Purpose:  purpose,
		Target:   target,
		Amount:   amount,
		Currency: s.cfg.Currency,
		Status:   models.PaymentStatusProcessing,
	}
	if err := s.paymentRepo.Create(ctx, intent); err != nil {
		return nil, err
	}

	// Network call, outside any transaction. A crash here leaves the
	// intent in processing — inspectable, reconcilable, no money moved.
	result, err := s.gateway.InitializePayment(ctx, gateway.InitializePaymentRequest{
		TxRef:       intent.TxRef,
		Amount:      amount,
		Currency:    intent.Currency,
		RedirectURL: s.cfg.GatewayRedirectURL,
		Customer:    gateway.Customer{Email: user.Email, Name: user.DisplayName},
	})
	if err != nil {
		if mErr := s.paymentRepo.MarkFailed(ctx, intent.ID, err.Error()); mErr != nil {
			s.log.Error("failed to mark intent failed", zap.String("tx_ref", intent.TxRef), zap.Error(mErr))
		}
		return nil, err
	}

	if err := s.paymentRepo.SetCheckoutLink(ctx, intent.ID, result.Link); err != nil {
		return nil, err
	}
	intent.CheckoutLink = &result.Link

	_ = s.auditRepo.Log(ctx, models.AuditLog{
		ActorUserID: &userID,
		ActorType:   "user",
		Action:      "payment_checkout_started",
		EntityType:  "payment_intent",
		EntityID:    &intent.ID,
		Meta:        map[string]any{"purpose": purpose, "tx_ref": intent.TxRef, "amount": amount.String()},
	})
	return intent, nil
}

// Finalize reconciles a redirect or callback against gateway
// verification and, on a full match, marks the intent paid and applies
// its effect in one transaction. Replaying Finalize on a paid intent
// returns the stored result and applies nothing.
func (s *PaymentService) Finalize(ctx context.Context, txRef, providerTxID, callbackStatus string) (*models.PaymentIntent, error) {
	intent, err := s.paymentRepo.GetByTxRef(ctx, txRef)
	if err != nil {
		return nil, fmt.Errorf("payment intent %s: %w", txRef, err)
	}
	settled, err := finalizeGate(intent.Status)
	if err != nil {
		return nil, fmt.Errorf("payment intent %s: %w", txRef, err)
	}
	if settled {
		return intent, nil
	}

	if callbackRejected(callbackStatus) {
		note := "callback status: " + callbackStatus
		if err := s.paymentRepo.MarkFailed(ctx, intent.ID, note); err != nil {
			s.log.Error("failed to mark intent failed", zap.String("tx_ref", txRef), zap.Error(err))
		}
		return nil, fmt.Errorf("%w: gateway reported %q for %s", models.ErrGateway, callbackStatus, txRef)
	}

	verified, err := s.gateway.VerifyTransaction(ctx, providerTxID)
	if err != nil {
		if mErr := s.paymentRepo.MarkFailed(ctx, intent.ID, err.Error()); mErr != nil {
			s.log.Error("failed to mark intent failed", zap.String("tx_ref", txRef), zap.Error(mErr))
		}
		return nil, err
	}

	if reason := verificationMismatch(intent, verified); reason != "" {
		if err := s.paymentRepo.MarkFailed(ctx, intent.ID, reason); err != nil {
			s.log.Error("failed to mark intent failed", zap.String("tx_ref", txRef), zap.Error(err))
		}
		return nil, fmt.Errorf("%w: %s", models.ErrVerificationMismatch, reason)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	// Re-check under lock: a concurrent Finalize may have won, or
	// failed the intent.
	locked, err := s.paymentRepo.LockByTxRef(ctx, tx, txRef)
	if err != nil {
		return nil, err
	}
	settled, err = finalizeGate(locked.Status)
	if err != nil {
		return nil, fmt.Errorf("payment intent %s: %w", txRef, err)
	}
	if settled {
		return locked, nil
	}
	if err := s.paymentRepo.MarkPaid(ctx, tx, locked.ID, verified.ID); err != nil {
		return nil, err
	}
	if err := s.applyEffect(ctx, tx, locked); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	locked.Status = models.PaymentStatusPaid
	locked.ProviderTxID = &verified.ID

	_ = s.auditRepo.Log(ctx, models.AuditLog{
		ActorUserID: &locked.UserID,
		ActorType:   "system",
		Action:      "payment_finalized",
		EntityType:  "payment_intent",
		EntityID:    &locked.ID,
		Meta:        map[string]any{"tx_ref": txRef, "provider_tx_id": verified.ID},
	})
	_ = s.publisher.Publish(ctx, events.StreamLedger, events.Event{
		Type: events.EventPaymentFinalized,
		Payload: map[string]any{
			"tx_ref":  txRef,
			"purpose": locked.Purpose,
			"user_id": locked.UserID.String(),
		},
	})
	return locked, nil
}

func (s *PaymentService) GetByTxRef(ctx context.Context, txRef string) (*models.PaymentIntent, error) {
	return s.paymentRepo.GetByTxRef(ctx, txRef)
}

func (s *PaymentService) ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.PaymentIntent, error) {
	return s.paymentRepo.ListByUser(ctx, userID, limit, offset)
}

// applyEffect grants what the intent was paid for. Runs inside the
// same transaction that flips the intent to paid.
func (s *PaymentService) applyEffect(ctx context.Context, q repositories.Querier, intent *models.PaymentIntent) error {
	switch intent.Purpose {
	case models.PaymentPurposeTierUpgrade:
		return s.userRepo.SetAccountTier(ctx, q, intent.UserID, intent.Target)
	case models.PaymentPurposeProjectPublication:
		projectID, err := uuid.Parse(intent.Target)
		if err != nil {
			return fmt.Errorf("intent %s has invalid project target %q", intent.TxRef, intent.Target)
		}
		return s.projectRepo.SetPublished(ctx, q, projectID)
	default:
		return fmt.Errorf("intent %s has unknown purpose %q", intent.TxRef, intent.Purpose)
	}
}

// finalizeGate decides what Finalize may do with an intent in the
// given status. settled means the paid result is returned as stored.
// A failed intent stays failed: replaying its confirmation must not
// re-apply an effect the owner already bought through a newer intent.
func finalizeGate(status string) (settled bool, err error) {
	if status == models.PaymentStatusPaid {
		return true, nil
	}
	if !models.IsValidPaymentTransition(status, models.PaymentStatusPaid) {
		return false, fmt.Errorf("intent is %s: %w", status, models.ErrPaymentFailed)
	}
	return false, nil
}

// callbackRejected reports whether the redirect parameters already
// declare the charge unsuccessful. Empty means webhook-less flows that
// carry no status.
func callbackRejected(callbackStatus string) bool {
	return callbackStatus != "" && callbackStatus != gateway.StatusSuccessful
}

// verificationMismatch cross-checks a gateway verification result
// against the stored intent. Empty string means full match.
func verificationMismatch(intent *models.PaymentIntent, v *gateway.VerifyResult) string {
	if v.TxRef != intent.TxRef {
		return fmt.Sprintf("tx_ref mismatch: stored %s, gateway %s", intent.TxRef, v.TxRef)
	}
	if v.Status != gateway.StatusSuccessful {
		return fmt.Sprintf("status is %q, expected %q", v.Status, gateway.StatusSuccessful)
	}
	if v.Currency != intent.Currency {
		return fmt.Sprintf("currency mismatch: stored %s, gateway %s", intent.Currency, v.Currency)
	}
	if v.ChargedAmount.LessThan(intent.Amount.Sub(verifyEpsilon)) {
		return fmt.Sprintf("charged amount %s is below expected %s", v.ChargedAmount, intent.Amount)
	}
	return ""
}
