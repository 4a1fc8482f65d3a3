package services

import (
	"errors"
	"testing"

	"github.com/freelancehub/backend/internal/models"
	"github.com/shopspring/decimal"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func entry(kind, amount string) models.LedgerEntry {
	return models.LedgerEntry{Kind: kind, Amount: dec(amount)}
}

func TestFoldEntries(t *testing.T) {
	entries := []models.LedgerEntry{
		entry(models.EntryKindDeposit, "1000"),
		entry(models.EntryKindMilestoneRelease, "400"),
		entry(models.EntryKindPayout, "400"),
		entry(models.EntryKindManualRelease, "100"),
		entry(models.EntryKindPayout, "100"),
		entry(models.EntryKindRefund, "50"),
	}

	totals := FoldEntries(entries)

	if !totals.Deposited.Equal(dec("1000")) {
		t.Errorf("Deposited = %s, want 1000", totals.Deposited)
	}
	if !totals.Released.Equal(dec("500")) {
		t.Errorf("Released = %s, want 500", totals.Released)
	}
	if !totals.ManualReleased.Equal(dec("100")) {
		t.Errorf("ManualReleased = %s, want 100", totals.ManualReleased)
	}
	if !totals.Refunded.Equal(dec("50")) {
		t.Errorf("Refunded = %s, want 50", totals.Refunded)
	}
	if !totals.PaidOut.Equal(dec("500")) {
		t.Errorf("PaidOut = %s, want 500", totals.PaidOut)
	}
	// Payout legs must not reduce the pool a second time.
	if !totals.Remaining().Equal(dec("450")) {
		t.Errorf("Remaining = %s, want 450", totals.Remaining())
	}
}

func TestFoldEntriesEmpty(t *testing.T) {
	totals := FoldEntries(nil)
	if !totals.Remaining().IsZero() {
		t.Errorf("Remaining = %s, want 0", totals.Remaining())
	}
}

func TestCheckRelease(t *testing.T) {
	tests := []struct {
		name    string
		entries []models.LedgerEntry
		amount  string
		wantErr error
	}{
		{
			name: "within remaining",
			entries: []models.LedgerEntry{
				entry(models.EntryKindDeposit, "1000"),
			},
			amount: "400",
		},
		{
			name: "exactly remaining",
			entries: []models.LedgerEntry{
				entry(models.EntryKindDeposit, "1000"),
				entry(models.EntryKindMilestoneRelease, "400"),
			},
			amount: "600",
		},
		{
			name: "sequential releases exhaust the pool",
			entries: []models.LedgerEntry{
				entry(models.EntryKindDeposit, "1000"),
				entry(models.EntryKindMilestoneRelease, "400"),
				entry(models.EntryKindMilestoneRelease, "400"),
			},
			amount:  "400",
			wantErr: models.ErrInsufficientEscrow,
		},
		{
			name: "refund shrinks the pool",
			entries: []models.LedgerEntry{
				entry(models.EntryKindDeposit, "1000"),
				entry(models.EntryKindRefund, "700"),
			},
			amount:  "400",
			wantErr: models.ErrInsufficientEscrow,
		},
		{
			name:    "no deposits",
			entries: nil,
			amount:  "1",
			wantErr: models.ErrInsufficientEscrow,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CheckRelease(dec(tt.amount), FoldEntries(tt.entries))
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("CheckRelease() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestManualReleaseCap(t *testing.T) {
	cap := ManualReleaseCap(dec("1000"), 5000)
	if !cap.Equal(dec("500")) {
		t.Errorf("ManualReleaseCap(1000, 5000) = %s, want 500", cap)
	}
}

func TestCheckManualRelease(t *testing.T) {
	const capBPS = 5000 // 50% of budget

	tests := []struct {
		name    string
		entries []models.LedgerEntry
		budget  string
		amount  string
		wantErr error
	}{
		{
			name: "within cap",
			entries: []models.LedgerEntry{
				entry(models.EntryKindDeposit, "1000"),
			},
			budget: "1000",
			amount: "300",
		},
		{
			name: "cumulative manual releases hit the cap",
			entries: []models.LedgerEntry{
				entry(models.EntryKindDeposit, "1000"),
				entry(models.EntryKindManualRelease, "300"),
			},
			budget:  "1000",
			amount:  "250",
			wantErr: models.ErrManualReleaseLimitExceeded,
		},
		{
			name: "cumulative manual releases exactly at the cap",
			entries: []models.LedgerEntry{
				entry(models.EntryKindDeposit, "1000"),
				entry(models.EntryKindManualRelease, "300"),
			},
			budget: "1000",
			amount: "200",
		},
		{
			name: "milestone releases do not count against the cap",
			entries: []models.LedgerEntry{
				entry(models.EntryKindDeposit, "1000"),
				entry(models.EntryKindMilestoneRelease, "400"),
			},
			budget: "1000",
			amount: "500",
		},
		{
			name: "cap passes but escrow is short",
			entries: []models.LedgerEntry{
				entry(models.EntryKindDeposit, "300"),
				entry(models.EntryKindMilestoneRelease, "200"),
			},
			budget:  "1000",
			amount:  "200",
			wantErr: models.ErrInsufficientEscrow,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CheckManualRelease(dec(tt.amount), FoldEntries(tt.entries), dec(tt.budget), capBPS)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("CheckManualRelease() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}
