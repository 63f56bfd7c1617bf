package model

import (
	"strings"
	"time"
)

// Client is a contact of a tenant's business. Read-only input to the
// messaging engine except for the notes audit trail.
type Client struct {
	ID        int       `db:"id" json:"id"`
	TenantID  int       `db:"tenant_id" json:"tenant_id"`
	FirstName string    `db:"first_name" json:"first_name"`
	LastName  string    `db:"last_name" json:"last_name"`
	Email     string    `db:"email" json:"email"`
	Phone     string    `db:"phone" json:"phone"`
	Notes     string    `db:"notes" json:"notes,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// FullName joins first and last name, tolerating either being empty.
func (c *Client) FullName() string {
	return strings.TrimSpace(c.FirstName + " " + c.LastName)
}

// Contact returns the contact field used for the given channel.
func (c *Client) Contact(channel string) string {
	if channel == "sms" {
		return c.Phone
	}
	return c.Email
}
