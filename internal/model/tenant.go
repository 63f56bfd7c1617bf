package model

import "time"

// Tenant is one isolated business account. Every other entity is scoped
// to exactly one tenant.
type Tenant struct {
	ID            int       `db:"id" json:"id"`
	BusinessName  string    `db:"business_name" json:"business_name"`
	BusinessPhone string    `db:"business_phone" json:"business_phone"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
}
