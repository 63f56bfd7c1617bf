package model

import "time"

// MessageTemplate is a reusable message body with {{variable}} placeholders.
// Name is unique per tenant; workflow steps reference templates by name.
type MessageTemplate struct {
	ID        int       `db:"id" json:"id"`
	TenantID  int       `db:"tenant_id" json:"tenant_id"`
	Name      string    `db:"name" json:"name"`
	Channel   string    `db:"channel" json:"channel"`
	Subject   string    `db:"subject" json:"subject,omitempty"` // email only
	Body      string    `db:"body" json:"body"`
	Category  string    `db:"category" json:"category,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
