package models

import "testing"

func TestIsValidPaymentTransition(t *testing.T) {
	tests := []struct {
		from     string
		to       string
		expected bool
	}{
		{PaymentStatusProcessing, PaymentStatusPaid, true},
		{PaymentStatusProcessing, PaymentStatusFailed, true},

		// Terminal states never move; retries open a new intent.
		{PaymentStatusPaid, PaymentStatusFailed, false},
		{PaymentStatusPaid, PaymentStatusProcessing, false},
		{PaymentStatusFailed, PaymentStatusPaid, false},
		{PaymentStatusFailed, PaymentStatusProcessing, false},

		{"nonexistent", PaymentStatusPaid, false},
		{PaymentStatusProcessing, "nonexistent", false},
	}

	for _, tt := range tests {
		t.Run(tt.from+"->"+tt.to, func(t *testing.T) {
			result := IsValidPaymentTransition(tt.from, tt.to)
			if result != tt.expected {
				t.Errorf("IsValidPaymentTransition(%q, %q) = %v, want %v", tt.from, tt.to, result, tt.expected)
			}
		})
	}
}
