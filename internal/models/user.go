package models

import (
	"time"

	"github.com/google/uuid"
)

// Roles
const (
	RoleClient = "client"
	RoleTalent = "talent"
	RoleAdmin  = "admin"
)

// Account tiers. Upgrades are granted only through a paid payment intent.
const (
	TierFree = "free"
	TierPlus = "plus"
	TierPro  = "pro"
)

type User struct {
	ID          uuid.UUID `json:"id"`
	Email       string    `json:"email"`
	DisplayName string    `json:"display_name"`
	Role        string    `json:"role"`
	AccountTier string    `json:"account_tier"`
	CreatedAt   time.Time `json:"created_at"`
}

func IsValidTier(tier string) bool {
	return tier == TierPlus || tier == TierPro
}
