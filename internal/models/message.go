package models

import (
	"time"

	"github.com/google/uuid"
)

// ProjectMessage is one entry in a project's communication stream.
// SenderID is NULL for system notes emitted by the ledger.
type ProjectMessage struct {
	ID        uuid.UUID  `json:"id"`
	ProjectID uuid.UUID  `json:"project_id"`
	SenderID  *uuid.UUID `json:"sender_id,omitempty"`
	Body      string     `json:"body"`
	CreatedAt time.Time  `json:"created_at"`
}
