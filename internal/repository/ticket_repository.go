package repository

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ofcdigitalhawks/audirifa/internal/model"
)

// TicketRepo owns the raffle_tickets table and the ticket_counter row that
// hands out ticket numbers.  Numbers are allocated in consecutive blocks
// through an atomic counter increment inside a transaction, so two
// concurrent checkouts can never be assigned the same number; the UNIQUE
// index on ticket_number is kept as a backstop.
type TicketRepo struct {
	db *sql.DB
}

// NewTicketRepo returns a new TicketRepo bound to the given database.
func NewTicketRepo(db *sql.DB) *TicketRepo { return &TicketRepo{db: db} }

// DB exposes the underlying handle for callers that need to open their own
// transactions.
func (r *TicketRepo) DB() *sql.DB { return r.db }

// blockNumbers expands the counter position after an allocation into the
// consecutive ticket numbers that allocation owns.  end is the counter value
// after the bump, so the block is [end-quantity, end-1] and the next
// allocation always starts strictly above it.
func blockNumbers(end int64, quantity int) []int64 {
	start := end - int64(quantity)
	numbers := make([]int64, 0, quantity)
	for i := 0; i < quantity; i++ {
		numbers = append(numbers, start+int64(i))
	}
	return numbers
}

// priceShare is the per-ticket slice of the payment total.  Truncated; the
// remainder stays on the Payment row, which carries the financial truth.
func priceShare(totalAmount int64, quantity int) int64 {
	return totalAmount / int64(quantity)
}

// Allocate assigns quantity consecutive ticket numbers to paymentID and
// inserts one row per ticket, all inside a single transaction.  Each ticket
// stores totalAmount/quantity centavos as its price share (truncated).  On
// any failure the transaction is rolled back and no ticket number is
// consumed from the caller's point of view; a counter bump that was rolled
// back simply never becomes visible.
func (r *TicketRepo) Allocate(ctx context.Context, paymentID string, quantity int, customerName, customerPhone, customerEmail string, totalAmount int64) ([]int64, error) {
	if quantity < 1 {
		return nil, ErrInvalidQuantity
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	// LAST_INSERT_ID(expr) makes the post-increment value readable via
	// Result.LastInsertId, giving an atomic "take next block of N" without a
	// read-then-write race between concurrent allocations.
	res, err := tx.ExecContext(ctx,
		`UPDATE ticket_counter SET next_number = LAST_INSERT_ID(next_number + ?) WHERE id = 1`,
		quantity,
	)
	if err != nil {
		return nil, err
	}
	end, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}

	numbers := blockNumbers(end, quantity)
	share := priceShare(totalAmount, quantity)
	createdAt := time.Now().UTC()

	query := `INSERT INTO raffle_tickets (id, payment_id, ticket_number, customer_name, customer_phone, customer_email, amount_paid, is_paid, created_at, paid_at) VALUES `
	args := make([]interface{}, 0, quantity*8)
	placeholders := make([]string, 0, quantity)
	for _, n := range numbers {
		placeholders = append(placeholders, "(?, ?, ?, ?, ?, ?, ?, 0, ?, NULL)")
		args = append(args, uuid.NewString(), paymentID, n, customerName, customerPhone, customerEmail, share, createdAt)
	}
	query += strings.Join(placeholders, ",")
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	committed = true
	return numbers, nil
}

// MarkPaid flips every still-unpaid ticket of paymentID to paid and stamps
// paid_at.  The is_paid = 0 guard makes the call idempotent: a repeated
// call matches no rows, reports zero tickets transitioned and leaves the
// original paid_at untouched.
func (r *TicketRepo) MarkPaid(ctx context.Context, paymentID string) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE raffle_tickets SET is_paid = 1, paid_at = ? WHERE payment_id = ? AND is_paid = 0`,
		time.Now().UTC(), paymentID,
	)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const ticketColumns = `id, payment_id, ticket_number, customer_name, customer_phone, customer_email, amount_paid, is_paid, created_at, paid_at`

// ListByPayment returns the tickets bound to a payment id ordered by
// ticket number ascending.
func (r *TicketRepo) ListByPayment(ctx context.Context, paymentID string) ([]model.Ticket, error) {
	return r.list(ctx,
		`SELECT `+ticketColumns+` FROM raffle_tickets WHERE payment_id = ? ORDER BY ticket_number`,
		paymentID)
}

// ListPaid returns every paid ticket ordered by ticket number ascending.
// This is the eligibility set for the draw.
func (r *TicketRepo) ListPaid(ctx context.Context) ([]model.Ticket, error) {
	return r.list(ctx,
		`SELECT `+ticketColumns+` FROM raffle_tickets WHERE is_paid = 1 ORDER BY ticket_number`)
}

// ListAll returns every ticket ordered by ticket number ascending.
func (r *TicketRepo) ListAll(ctx context.Context) ([]model.Ticket, error) {
	return r.list(ctx,
		`SELECT `+ticketColumns+` FROM raffle_tickets ORDER BY ticket_number`)
}

// Counts returns total, paid and unpaid ticket counts.
func (r *TicketRepo) Counts(ctx context.Context) (model.TicketCounts, error) {
	var c model.TicketCounts
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*), COALESCE(SUM(is_paid), 0) FROM raffle_tickets`,
	).Scan(&c.Total, &c.Paid)
	if err != nil {
		return model.TicketCounts{}, err
	}
	c.Unpaid = c.Total - c.Paid
	return c, nil
}

func (r *TicketRepo) list(ctx context.Context, query string, args ...interface{}) ([]model.Ticket, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tickets := make([]model.Ticket, 0)
	for rows.Next() {
		var t model.Ticket
		var phone, email sql.NullString
		var paid int
		var paidAt sql.NullTime
		if err := rows.Scan(&t.ID, &t.PaymentID, &t.TicketNumber, &t.CustomerName, &phone, &email, &t.AmountPaid, &paid, &t.CreatedAt, &paidAt); err != nil {
			return nil, err
		}
		t.CustomerPhone = phone.String
		t.CustomerEmail = email.String
		t.IsPaid = paid == 1
		if paidAt.Valid {
			at := paidAt.Time
			t.PaidAt = &at
		}
		tickets = append(tickets, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return tickets, nil
}
