package model

import "time"

// Payment statuses.  APPROVED and FAILED are terminal; once a payment
// reaches APPROVED it never goes back to PENDING.  Infraction statuses are
// recorded as extra audit rows and never touch tickets.
const (
	StatusPending  = "PENDING"
	StatusApproved = "APPROVED"
	StatusFailed   = "FAILED"
)

// Actions tag how a payment row came to exist.  GENERATED marks the
// original checkout insert; GENERATED_ROLETA marks the upsell flow (its
// payments never fire conversion tracking); WEBHOOK_FAILED marks the audit
// row written when the gateway reports a failed or refunded charge.
const (
	ActionGenerated     = "GENERATED"
	ActionRoleta        = "GENERATED_ROLETA"
	ActionWebhookFailed = "WEBHOOK_FAILED"
)

// Payment mirrors a row of the payments table.  The table is insert-only:
// several rows may share a payment_id and the newest row by created_at is
// the authoritative one for status lookups.
type Payment struct {
	ID               string     `json:"id"`
	PaymentID        string     `json:"payment_id"`
	Status           string     `json:"status"`
	Amount           int64      `json:"amount"` // centavos
	CustomerName     string     `json:"customer_name"`
	CustomerEmail    string     `json:"customer_email"`
	CustomerDocument string     `json:"customer_document"`
	CustomerPhone    string     `json:"customer_phone"`
	PixCode          string     `json:"pix_code,omitempty"`
	UTMSource        string     `json:"utm_source,omitempty"`
	Action           string     `json:"action"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        *time.Time `json:"updated_at,omitempty"`
}
