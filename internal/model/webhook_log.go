package model

import "time"

// Webhook log types recorded for inbound confirmations.
const (
	WebhookTypeApproved = "PAYMENT_APPROVED"
	WebhookTypePending  = "PAYMENT_PENDING"
)

// WebhookLog mirrors a row of the webhook_logs table.  The table is
// append-only: every inbound confirmation (webhook push or status poll) is
// recorded before any state mutation, so replay and audit remain possible
// even when downstream processing fails.
type WebhookLog struct {
	ID          string    `json:"id"`
	PaymentID   string    `json:"payment_id"`
	WebhookType string    `json:"webhook_type"`
	Status      string    `json:"status"`
	Amount      int64     `json:"amount"` // centavos
	EndToEnd    string    `json:"end_to_end,omitempty"`
	RawPayload  string    `json:"raw_payload"`
	CreatedAt   time.Time `json:"created_at"`
}
