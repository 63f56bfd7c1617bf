package model

import "time"

// Queue entry statuses.
const (
	QueueStatusPending = "pending"
	QueueStatusSent    = "sent"
	QueueStatusSkipped = "skipped"
)

// QueueEntry is one scheduled, pre-rendered message awaiting dispatch.
// The body is rendered at enrollment time and never re-rendered; the row
// transitions out of pending exactly once and is never deleted.
type QueueEntry struct {
	ID             int        `db:"id" json:"id"`
	TenantID       int        `db:"tenant_id" json:"tenant_id"`
	ClientID       int        `db:"client_id" json:"client_id"`
	WorkflowStepID int        `db:"workflow_step_id" json:"workflow_step_id"`
	Channel        string     `db:"channel" json:"channel"`
	ScheduledFor   time.Time  `db:"scheduled_for" json:"scheduled_for"`
	Status         string     `db:"status" json:"status"`
	MessageBody    string     `db:"message_body" json:"message_body"`
	ActedAt        *time.Time `db:"acted_at" json:"acted_at,omitempty"`
	CreatedAt      time.Time  `db:"created_at" json:"created_at"`
}

// QueueEntryDetail is a queue entry joined with the client display fields
// the operator UI needs.
type QueueEntryDetail struct {
	QueueEntry
	ClientFirstName string `db:"client_first_name" json:"client_first_name"`
	ClientLastName  string `db:"client_last_name" json:"client_last_name"`
	ClientPhone     string `db:"client_phone" json:"client_phone"`
	ClientEmail     string `db:"client_email" json:"client_email"`
}
