package models

import "testing"

func TestIsValidMilestoneTransition(t *testing.T) {
	tests := []struct {
		from     string
		to       string
		expected bool
	}{
		// Happy path
		{MilestoneStatusPending, MilestoneStatusInProgress, true},
		{MilestoneStatusPending, MilestoneStatusCompleted, true},
		{MilestoneStatusInProgress, MilestoneStatusCompleted, true},
		{MilestoneStatusCompleted, MilestoneStatusApproved, true},

		// Approval is terminal
		{MilestoneStatusApproved, MilestoneStatusPending, false},
		{MilestoneStatusApproved, MilestoneStatusCompleted, false},

		// No skipping the completion gate
		{MilestoneStatusPending, MilestoneStatusApproved, false},
		{MilestoneStatusInProgress, MilestoneStatusApproved, false},

		// No going backwards
		{MilestoneStatusCompleted, MilestoneStatusInProgress, false},
		{MilestoneStatusInProgress, MilestoneStatusPending, false},

		{"nonexistent", MilestoneStatusCompleted, false},
		{MilestoneStatusPending, "nonexistent", false},
	}

	for _, tt := range tests {
		t.Run(tt.from+"->"+tt.to, func(t *testing.T) {
			result := IsValidMilestoneTransition(tt.from, tt.to)
			if result != tt.expected {
				t.Errorf("IsValidMilestoneTransition(%q, %q) = %v, want %v", tt.from, tt.to, result, tt.expected)
			}
		})
	}
}
