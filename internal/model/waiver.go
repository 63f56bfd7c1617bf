package model

import "time"

// Waiver records a client's signed consent state. SMS consent for a
// client is the sms_consent flag of their most recent waiver; a client
// with no waiver has no consent.
type Waiver struct {
	ID         int       `db:"id" json:"id"`
	TenantID   int       `db:"tenant_id" json:"tenant_id"`
	ClientID   int       `db:"client_id" json:"client_id"`
	SMSConsent bool      `db:"sms_consent" json:"sms_consent"`
	SignedAt   time.Time `db:"signed_at" json:"signed_at"`
}
