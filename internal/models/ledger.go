package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Ledger entry kinds
const (
	EntryKindDeposit          = "deposit"
	EntryKindMilestoneRelease = "milestone_release"
	EntryKindManualRelease    = "manual_release"
	EntryKindRefund           = "refund"
	EntryKindPayout           = "payout"
)

// EscrowAccount is the single mutable balance per user. It is created
// lazily on first access and only ever written inside the transaction
// that records the movement (ledger entry or withdrawal request).
type EscrowAccount struct {
	UserID    uuid.UUID       `json:"user_id"`
	Balance   decimal.Decimal `json:"balance"`
	Currency  string          `json:"currency"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// LedgerEntry is an immutable record of one money movement.
// Rows are append-only: never updated, never deleted.
type LedgerEntry struct {
	ID        uuid.UUID       `json:"id"`
	UserID    uuid.UUID       `json:"user_id"`
	ProjectID *uuid.UUID      `json:"project_id,omitempty"`
	Kind      string          `json:"kind"`
	Amount    decimal.Decimal `json:"amount"`
	Note      *string         `json:"note,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}
