package model

import "time"

// Ticket mirrors a row of the raffle_tickets table.  TicketNumber is a
// globally unique, strictly increasing integer assigned at creation and
// never reused.  PaidAt is written exactly once, when IsPaid flips from
// false to true, and never cleared.
//
// AmountPaid is the per-ticket share of the payment total (total divided by
// quantity, truncated).  The remainder is not redistributed: the value is
// display-only and the Payment row carries the financial truth.
type Ticket struct {
	ID            string     `json:"id"`
	PaymentID     string     `json:"payment_id"`
	TicketNumber  int64      `json:"ticket_number"`
	CustomerName  string     `json:"customer_name"`
	CustomerPhone string     `json:"customer_phone"`
	CustomerEmail string     `json:"customer_email"`
	AmountPaid    int64      `json:"amount_paid"` // centavos
	IsPaid        bool       `json:"is_paid"`
	CreatedAt     time.Time  `json:"created_at"`
	PaidAt        *time.Time `json:"paid_at"`
}

// TicketCounts aggregates ticket totals for the admin panel and the draw
// eligibility stats.
type TicketCounts struct {
	Total  int64 `json:"total"`
	Paid   int64 `json:"paid"`
	Unpaid int64 `json:"unpaid"`
}
