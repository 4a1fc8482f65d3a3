package events

import "context"

// Event types
const (
	EventEscrowUpdated     = "escrow_updated"
	EventPaymentFinalized  = "payment_finalized"
	EventWithdrawalUpdated = "withdrawal_updated"
)

// StreamLedger carries fire-and-forget revalidation hints for pages
// that display balances and queues. Delivery is not part of any
// transactional guarantee.
const StreamLedger = "events:ledger"

type Event struct {
	Type    string         `json:"type"`
	Payload map[string]any `json:"payload"`
}

type Publisher interface {
	Publish(ctx context.Context, stream string, event Event) error
}

type Subscriber interface {
	Subscribe(ctx context.Context, stream string, handler func(Event)) error
}
