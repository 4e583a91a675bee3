package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/ofcdigitalhawks/audirifa/internal/model"
)

// PaymentRepo owns the payments table.  The table is deliberately
// insert-only: Insert never replaces an existing row and "current state" is
// a derived read (newest row by created_at).  DeleteDuplicates is the
// offline compaction that collapses the rows a payment id accumulated; it
// is maintenance, not a correctness dependency.
type PaymentRepo struct {
	db *sql.DB
}

// NewPaymentRepo returns a new PaymentRepo bound to the given database.
func NewPaymentRepo(db *sql.DB) *PaymentRepo { return &PaymentRepo{db: db} }

// Insert appends a new payment row and returns its generated id.  The
// CreatedAt timestamp is set here; callers only fill the business fields.
func (r *PaymentRepo) Insert(ctx context.Context, p *model.Payment) (string, error) {
	id := uuid.NewString()
	createdAt := time.Now().UTC()
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO payments (id, payment_id, status, amount, customer_name, customer_email, customer_document, customer_phone, pix_code, utm_source, action, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, p.PaymentID, p.Status, p.Amount,
		nullable(p.CustomerName), nullable(p.CustomerEmail), nullable(p.CustomerDocument), nullable(p.CustomerPhone),
		nullable(p.PixCode), nullable(p.UTMSource), p.Action, createdAt,
	)
	if err != nil {
		return "", err
	}
	p.ID = id
	p.CreatedAt = createdAt
	return id, nil
}

const paymentColumns = `id, payment_id, status, amount, customer_name, customer_email, customer_document, customer_phone, pix_code, utm_source, action, created_at, updated_at`

// FindLatest returns the most recent row for a payment id, or
// ErrPaymentNotFound when none exists.  With the insert-only model this row
// defines the payment's current status.
func (r *PaymentRepo) FindLatest(ctx context.Context, paymentID string) (*model.Payment, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+paymentColumns+` FROM payments WHERE payment_id = ? ORDER BY created_at DESC, id DESC LIMIT 1`,
		paymentID)
	p, err := scanPayment(row.Scan)
	if err == sql.ErrNoRows {
		return nil, ErrPaymentNotFound
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

// UpdateStatus sets the status on every row sharing paymentID and reports
// whether any row changed.  Safe to call redundantly; the reconciler is
// responsible for never downgrading an APPROVED payment.
func (r *PaymentRepo) UpdateStatus(ctx context.Context, paymentID, status string) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE payments SET status = ?, updated_at = ? WHERE payment_id = ?`,
		status, time.Now().UTC(), paymentID,
	)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// ListAll returns every payment row, newest first, for the admin panel.
func (r *PaymentRepo) ListAll(ctx context.Context) ([]model.Payment, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+paymentColumns+` FROM payments ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	payments := make([]model.Payment, 0)
	for rows.Next() {
		p, err := scanPayment(rows.Scan)
		if err != nil {
			return nil, err
		}
		payments = append(payments, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return payments, nil
}

// DeleteDuplicates removes extra rows for payment ids that accumulated more
// than one.  For each payment id exactly one row survives, preferring the
// original GENERATED insert, then a row with a customer name, then the
// earliest created.  Returns how many rows were removed and how many
// payment ids had duplicates.
func (r *PaymentRepo) DeleteDuplicates(ctx context.Context) (removed int64, duplicateIDs int64, err error) {
	err = r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM (
			SELECT payment_id FROM payments GROUP BY payment_id HAVING COUNT(*) > 1
		) d`).Scan(&duplicateIDs)
	if err != nil {
		return 0, 0, err
	}

	res, err := r.db.ExecContext(ctx,
		`DELETE FROM payments WHERE id IN (
			SELECT id FROM (
				SELECT id,
				       ROW_NUMBER() OVER (
				           PARTITION BY payment_id
				           ORDER BY
				               CASE WHEN action = 'GENERATED' THEN 0 ELSE 1 END,
				               CASE WHEN customer_name IS NOT NULL AND customer_name != '' THEN 0 ELSE 1 END,
				               created_at ASC
				       ) AS rn
				FROM payments
			) ranked
			WHERE rn > 1
		)`)
	if err != nil {
		return 0, duplicateIDs, err
	}
	removed, err = res.RowsAffected()
	return removed, duplicateIDs, err
}

func scanPayment(scan func(dest ...interface{}) error) (*model.Payment, error) {
	var p model.Payment
	var name, email, document, phone, pixCode, utmSource sql.NullString
	var updatedAt sql.NullTime
	err := scan(&p.ID, &p.PaymentID, &p.Status, &p.Amount, &name, &email, &document, &phone, &pixCode, &utmSource, &p.Action, &p.CreatedAt, &updatedAt)
	if err != nil {
		return nil, err
	}
	p.CustomerName = name.String
	p.CustomerEmail = email.String
	p.CustomerDocument = document.String
	p.CustomerPhone = phone.String
	p.PixCode = pixCode.String
	p.UTMSource = utmSource.String
	if updatedAt.Valid {
		at := updatedAt.Time
		p.UpdatedAt = &at
	}
	return &p, nil
}

// nullable maps the empty string to NULL so optional customer fields stay
// NULL in storage instead of accumulating empty strings.
func nullable(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
