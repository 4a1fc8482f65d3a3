package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Payment intent statuses. paid is terminal for the row; failed is not
// terminal for the owner — a fresh intent may be created to retry.
const (
	PaymentStatusProcessing = "processing"
	PaymentStatusPaid       = "paid"
	PaymentStatusFailed     = "failed"
)

// Valid payment intent transitions: from -> []to. Both paid and failed
// are terminal for the row; retrying a failed payment means opening a
// new intent.
var ValidPaymentTransitions = map[string][]string{
	PaymentStatusProcessing: {PaymentStatusPaid, PaymentStatusFailed},
	PaymentStatusPaid:       {},
	PaymentStatusFailed:     {},
}

func IsValidPaymentTransition(from, to string) bool {
	allowed, ok := ValidPaymentTransitions[from]
	if !ok {
		return false
	}
	for _, s := range allowed {
		if s == to {
			return true
		}
	}
	return false
}

// Payment purposes
const (
	PaymentPurposeTierUpgrade        = "tier_upgrade"
	PaymentPurposeProjectPublication = "project_publication"
)

// PaymentIntent tracks one locally-initiated attempt to collect an
// external payment. TxRef is unique and is the reconciliation key.
type PaymentIntent struct {
	ID           uuid.UUID       `json:"id"`
	UserID       uuid.UUID       `json:"user_id"`
	TxRef        string          `json:"tx_ref"`
	Purpose      string          `json:"purpose"`
	Target       string          `json:"target"` // tier name or project id
	Amount       decimal.Decimal `json:"amount"`
	Currency     string          `json:"currency"`
	Status       string          `json:"status"`
	CheckoutLink *string         `json:"checkout_link,omitempty"`
	ProviderTxID *string         `json:"provider_tx_id,omitempty"`
	Note         *string         `json:"note,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}
