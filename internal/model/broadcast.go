package model

import "time"

// Broadcast statuses. draft -> sending is irreversible; sending ends in
// completed or failed.
const (
	BroadcastStatusDraft     = "draft"
	BroadcastStatusSending   = "sending"
	BroadcastStatusCompleted = "completed"
	BroadcastStatusFailed    = "failed"
)

// Broadcast target types.
const (
	TargetTypeTag     = "tag"
	TargetTypeSegment = "segment"
	TargetTypeAll     = "all"
)

// Broadcast is a one-time, audience-targeted batch send. The message
// source is either a referenced MessageTemplate or the campaign's own
// custom body/subject.
type Broadcast struct {
	ID              int        `db:"id" json:"id"`
	TenantID        int        `db:"tenant_id" json:"tenant_id"`
	Name            string     `db:"name" json:"name"`
	Channel         string     `db:"channel" json:"channel"`
	TemplateID      *int       `db:"template_id" json:"template_id,omitempty"`
	CustomBody      string     `db:"custom_body" json:"custom_body,omitempty"`
	CustomSubject   string     `db:"custom_subject" json:"custom_subject,omitempty"`
	TargetType      string     `db:"target_type" json:"target_type"`
	TargetID        *int       `db:"target_id" json:"target_id,omitempty"`
	Status          string     `db:"status" json:"status"`
	TotalRecipients int        `db:"total_recipients" json:"total_recipients"`
	SentCount       int        `db:"sent_count" json:"sent_count"`
	FailedCount     int        `db:"failed_count" json:"failed_count"`
	SkippedCount    int        `db:"skipped_count" json:"skipped_count"`
	SentAt          *time.Time `db:"sent_at" json:"sent_at,omitempty"`
	CreatedAt       time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt       *time.Time `db:"updated_at" json:"updated_at,omitempty"`
}

// BroadcastMessage statuses.
const (
	MessageStatusSent    = "sent"
	MessageStatusFailed  = "failed"
	MessageStatusSkipped = "skipped"
)

// BroadcastMessage is the append-only audit row written for each audience
// member during a broadcast send, one per (broadcast, client).
type BroadcastMessage struct {
	ID              int        `db:"id" json:"id"`
	BroadcastID     int        `db:"broadcast_id" json:"broadcast_id"`
	ClientID        int        `db:"client_id" json:"client_id"`
	Channel         string     `db:"channel" json:"channel"`
	Recipient       string     `db:"recipient" json:"recipient"`
	RenderedSubject string     `db:"rendered_subject" json:"rendered_subject,omitempty"`
	RenderedBody    string     `db:"rendered_body" json:"rendered_body"`
	Status          string     `db:"status" json:"status"`
	ErrorMessage    string     `db:"error_message" json:"error_message,omitempty"`
	SentAt          *time.Time `db:"sent_at" json:"sent_at,omitempty"`
	CreatedAt       time.Time  `db:"created_at" json:"created_at"`
}
