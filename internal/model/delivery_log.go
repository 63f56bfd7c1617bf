package model

import "time"

// Delivery log sources.
const (
	DeliverySourceQueue     = "workflow_queue"
	DeliverySourceBroadcast = "broadcast"
)

// DeliveryLog is an append-only record of a message a provider actually
// accepted. Rows are written by the worker from delivery events, so the
// log is best-effort.
type DeliveryLog struct {
	ID        int       `db:"id" json:"id"`
	EventID   string    `db:"event_id" json:"event_id"`
	TenantID  int       `db:"tenant_id" json:"tenant_id"`
	ClientID  int       `db:"client_id" json:"client_id"`
	Channel   string    `db:"channel" json:"channel"`
	Recipient string    `db:"recipient" json:"recipient"`
	Body      string    `db:"body" json:"body"`
	Source    string    `db:"source" json:"source"`
	SourceID  int       `db:"source_id" json:"source_id"`
	SentAt    time.Time `db:"sent_at" json:"sent_at"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
