package domain

import "time"

// GatewayEvent is a webhook delivery as received, kept for audit.
type GatewayEvent struct {
	ID         uint      `json:"id"`
	EventType  string    `json:"event_type"`
	PaymentID  string    `json:"payment_id"`
	Payload    []byte    `json:"-"`
	Outcome    string    `json:"outcome"`
	ReceivedAt time.Time `json:"received_at"`
}

// FeedMessage is pushed to connected clients when an entry of their account settles.
type FeedMessage struct {
	Type      string      `json:"type"`
	AccountID uint        `json:"account_id"`
	Entry     LedgerEntry `json:"entry"`
	Timestamp time.Time   `json:"timestamp"`
}
