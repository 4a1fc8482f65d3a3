package services

import (
	"github.com/freelancehub/backend/internal/models"
	"github.com/shopspring/decimal"
)

// EscrowTotals are the project-scoped aggregates derived from ledger
// history. The mutable account balance is never consulted for release
// decisions — only this fold is.
type EscrowTotals struct {
	Deposited      decimal.Decimal
	Released       decimal.Decimal // milestone + manual releases
	ManualReleased decimal.Decimal
	Refunded       decimal.Decimal
	PaidOut        decimal.Decimal // payee credit legs
}

// Remaining is what is still held in escrow for the project:
// deposits minus releases minus refunds. Payout entries are the payee
// side of releases and do not reduce the pool a second time.
func (t EscrowTotals) Remaining() decimal.Decimal {
	return t.Deposited.Sub(t.Released).Sub(t.Refunded)
}

// FoldEntries walks a project's ledger entries in order and accumulates
// the escrow totals.
func FoldEntries(entries []models.LedgerEntry) EscrowTotals {
	t := EscrowTotals{
		Deposited:      decimal.Zero,
		Released:       decimal.Zero,
		ManualReleased: decimal.Zero,
		Refunded:       decimal.Zero,
		PaidOut:        decimal.Zero,
	}
	for _, e := range entries {
		switch e.Kind {
		case models.EntryKindDeposit:
			t.Deposited = t.Deposited.Add(e.Amount)
		case models.EntryKindMilestoneRelease:
			t.Released = t.Released.Add(e.Amount)
		case models.EntryKindManualRelease:
			t.Released = t.Released.Add(e.Amount)
			t.ManualReleased = t.ManualReleased.Add(e.Amount)
		case models.EntryKindRefund:
			t.Refunded = t.Refunded.Add(e.Amount)
		case models.EntryKindPayout:
			t.PaidOut = t.PaidOut.Add(e.Amount)
		}
	}
	return t
}

// ManualReleaseCap converts the policy basis points into an absolute
// cap for a given project budget.
func ManualReleaseCap(budget decimal.Decimal, capBPS int64) decimal.Decimal {
	return budget.Mul(decimal.NewFromInt(capBPS)).Div(decimal.NewFromInt(10000))
}

// CheckRelease gates any debit of project escrow against the remaining
// pool.
func CheckRelease(amount decimal.Decimal, totals EscrowTotals) error {
	if amount.GreaterThan(totals.Remaining()) {
		return models.ErrInsufficientEscrow
	}
	return nil
}

// CheckManualRelease additionally enforces the manual-release cap:
// manual releases skip the milestone-completion gate, so policy limits
// exposure before any deliverable is verified.
func CheckManualRelease(amount decimal.Decimal, totals EscrowTotals, budget decimal.Decimal, capBPS int64) error {
	cap := ManualReleaseCap(budget, capBPS)
	if totals.ManualReleased.Add(amount).GreaterThan(cap) {
		return models.ErrManualReleaseLimitExceeded
	}
	return CheckRelease(amount, totals)
}
