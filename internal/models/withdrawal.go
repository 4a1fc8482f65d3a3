package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Withdrawal statuses
const (
	WithdrawalStatusPending    = "pending"
	WithdrawalStatusProcessing = "processing"
	WithdrawalStatusApproved   = "approved"
	WithdrawalStatusRejected   = "rejected"
	WithdrawalStatusPaid       = "paid"
)

// Withdrawal methods
const (
	WithdrawalMethodBankTransfer   = "bank_transfer"
	WithdrawalMethodPlatformCredit = "platform_credit"
)

// WithdrawalRequest records a talent-initiated move of escrow balance to
// an external payout method. The balance debit happens in the same
// transaction that inserts the row; a bank transfer that fails on the
// provider side leaves the row in processing with the error recorded.
type WithdrawalRequest struct {
	ID                uuid.UUID       `json:"id"`
	UserID            uuid.UUID       `json:"user_id"`
	Amount            decimal.Decimal `json:"amount"`
	Method            string          `json:"method"`
	Status            string          `json:"status"`
	BankCode          *string         `json:"bank_code,omitempty"`
	AccountNumber     *string         `json:"account_number,omitempty"`
	ProviderTransferID *string        `json:"provider_transfer_id,omitempty"`
	ProviderReference *string         `json:"provider_reference,omitempty"`
	ProcessingError   *string         `json:"processing_error,omitempty"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
}
