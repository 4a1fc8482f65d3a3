package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Project statuses
const (
	ProjectStatusDraft      = "draft"
	ProjectStatusOpen       = "open"
	ProjectStatusInProgress = "in_progress"
	ProjectStatusCompleted  = "completed"
	ProjectStatusCancelled  = "cancelled"
)

// Milestone statuses
const (
	MilestoneStatusPending    = "pending"
	MilestoneStatusInProgress = "in_progress"
	MilestoneStatusCompleted  = "completed"
	MilestoneStatusApproved   = "approved"
)

// Valid milestone transitions: from -> []to.
// completed -> approved happens only through a milestone release,
// which is also the only transition that moves money.
var ValidMilestoneTransitions = map[string][]string{
	MilestoneStatusPending:    {MilestoneStatusInProgress, MilestoneStatusCompleted},
	MilestoneStatusInProgress: {MilestoneStatusCompleted},
	MilestoneStatusCompleted:  {MilestoneStatusApproved},
	MilestoneStatusApproved:   {},
}

func IsValidMilestoneTransition(from, to string) bool {
	allowed, ok := ValidMilestoneTransitions[from]
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

type Project struct {
	ID        uuid.UUID       `json:"id"`
	ClientID  uuid.UUID       `json:"client_id"`
	TalentID  *uuid.UUID      `json:"talent_id,omitempty"`
	Title     string          `json:"title"`
	Budget    decimal.Decimal `json:"budget"`
	Status    string          `json:"status"`
	Published bool            `json:"published"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

type Milestone struct {
	ID          uuid.UUID       `json:"id"`
	ProjectID   uuid.UUID       `json:"project_id"`
	Title       string          `json:"title"`
	Description *string         `json:"description,omitempty"`
	Amount      decimal.Decimal `json:"amount"`
	Status      string          `json:"status"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}
