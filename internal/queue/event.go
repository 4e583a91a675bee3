// Package queue defines message payloads exchanged over the message broker
// plus the publisher and background consumer for them.
package queue

// PaymentApprovedEvent is published after a payment transitions to
// APPROVED and its tickets were marked paid.  It carries enough for
// downstream consumers to log or trigger analytics without querying the
// primary database.
type PaymentApprovedEvent struct {
	PaymentID    string `json:"payment_id"`
	AmountCents  int64  `json:"amount_cents"`
	TicketsPaid  int64  `json:"tickets_paid"`
	CustomerName string `json:"customer_name,omitempty"`
	Source       string `json:"source"` // "webhook" or "poll"
	ApprovedAt   string `json:"approved_at"`
}
