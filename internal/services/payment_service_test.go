package services

import (
	"errors"
	"strings"
	"testing"

	"github.com/freelancehub/backend/internal/gateway"
	"github.com/freelancehub/backend/internal/models"
)

func TestFinalizeGate(t *testing.T) {
	tests := []struct {
		name        string
		status      string
		wantSettled bool
		wantErr     error
	}{
		// Replaying a confirmed intent returns the stored result and
		// applies nothing.
		{name: "paid is settled", status: models.PaymentStatusPaid, wantSettled: true},
		{name: "processing proceeds", status: models.PaymentStatusProcessing},
		// failed is terminal: a late provider confirmation must not
		// resurrect the row and re-apply its effect.
		{name: "failed stays failed", status: models.PaymentStatusFailed, wantErr: models.ErrPaymentFailed},
		{name: "unknown status is rejected", status: "bogus", wantErr: models.ErrPaymentFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			settled, err := finalizeGate(tt.status)
			if settled != tt.wantSettled {
				t.Errorf("finalizeGate(%q) settled = %v, want %v", tt.status, settled, tt.wantSettled)
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("finalizeGate(%q) error = %v, want %v", tt.status, err, tt.wantErr)
			}
		})
	}
}

func TestCallbackRejected(t *testing.T) {
	tests := []struct {
		callbackStatus string
		want           bool
	}{
		{gateway.StatusSuccessful, false},
		{"", false}, // flows that carry no redirect status fall through to verification
		{"failed", true},
		{"cancelled", true},
	}

	for _, tt := range tests {
		if got := callbackRejected(tt.callbackStatus); got != tt.want {
			t.Errorf("callbackRejected(%q) = %v, want %v", tt.callbackStatus, got, tt.want)
		}
	}
}

func TestVerificationMismatch(t *testing.T) {
	intent := &models.PaymentIntent{
		TxRef:    "fh-abc",
		Amount:   dec("29.99"),
		Currency: "USD",
	}

	tests := []struct {
		name       string
		verified   gateway.VerifyResult
		wantReason string // substring, empty means full match
	}{
		{
			name: "full match",
			verified: gateway.VerifyResult{
				TxRef: "fh-abc", Status: gateway.StatusSuccessful,
				Currency: "USD", ChargedAmount: dec("29.99"),
			},
		},
		{
			name: "charged amount within rounding tolerance",
			verified: gateway.VerifyResult{
				TxRef: "fh-abc", Status: gateway.StatusSuccessful,
				Currency: "USD", ChargedAmount: dec("29.98"),
			},
		},
		{
			name: "overpayment is accepted",
			verified: gateway.VerifyResult{
				TxRef: "fh-abc", Status: gateway.StatusSuccessful,
				Currency: "USD", ChargedAmount: dec("30.00"),
			},
		},
		{
			name: "wrong tx_ref",
			verified: gateway.VerifyResult{
				TxRef: "fh-other", Status: gateway.StatusSuccessful,
				Currency: "USD", ChargedAmount: dec("29.99"),
			},
			wantReason: "tx_ref mismatch",
		},
		{
			name: "not successful",
			verified: gateway.VerifyResult{
				TxRef: "fh-abc", Status: "pending",
				Currency: "USD", ChargedAmount: dec("29.99"),
			},
			wantReason: "status",
		},
		{
			name: "wrong currency",
			verified: gateway.VerifyResult{
				TxRef: "fh-abc", Status: gateway.StatusSuccessful,
				Currency: "EUR", ChargedAmount: dec("29.99"),
			},
			wantReason: "currency mismatch",
		},
		{
			name: "charged amount too low",
			verified: gateway.VerifyResult{
				TxRef: "fh-abc", Status: gateway.StatusSuccessful,
				Currency: "USD", ChargedAmount: dec("19.99"),
			},
			wantReason: "below expected",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reason := verificationMismatch(intent, &tt.verified)
			if tt.wantReason == "" {
				if reason != "" {
					t.Errorf("verificationMismatch() = %q, want match", reason)
				}
				return
			}
			if !strings.Contains(reason, tt.wantReason) {
				t.Errorf("verificationMismatch() = %q, want reason containing %q", reason, tt.wantReason)
			}
		})
	}
}
