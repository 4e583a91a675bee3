package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/ofcdigitalhawks/audirifa/internal/model"
)

// WebhookLogRepo owns the append-only webhook_logs table.  Rows are never
// updated or deleted; the log exists so that every inbound confirmation is
// durable before any state mutation runs, and so duplicates can be audited.
type WebhookLogRepo struct {
	db *sql.DB
}

// NewWebhookLogRepo returns a new WebhookLogRepo bound to the given database.
func NewWebhookLogRepo(db *sql.DB) *WebhookLogRepo { return &WebhookLogRepo{db: db} }

// Record appends one confirmation event.  rawPayload is stored opaque,
// exactly as received.
func (r *WebhookLogRepo) Record(ctx context.Context, paymentID, webhookType, status string, amount int64, rawPayload, endToEnd string) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO webhook_logs (id, payment_id, webhook_type, status, amount, end_to_end, raw_payload, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		uuid.NewString(), paymentID, webhookType, status, amount, nullable(endToEnd), rawPayload, time.Now().UTC(),
	)
	return err
}

// CountFor returns how many confirmation events were recorded for a
// payment id.
func (r *WebhookLogRepo) CountFor(ctx context.Context, paymentID string) (int64, error) {
	var n int64
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM webhook_logs WHERE payment_id = ?`, paymentID).Scan(&n)
	return n, err
}

const webhookLogColumns = `id, payment_id, webhook_type, status, amount, end_to_end, raw_payload, created_at`

// ListFor returns the confirmation events of a payment id, newest first.
func (r *WebhookLogRepo) ListFor(ctx context.Context, paymentID string) ([]model.WebhookLog, error) {
	return r.list(ctx,
		`SELECT `+webhookLogColumns+` FROM webhook_logs WHERE payment_id = ? ORDER BY created_at DESC`,
		paymentID)
}

// ListRecent returns the newest limit confirmation events across all
// payments.
func (r *WebhookLogRepo) ListRecent(ctx context.Context, limit int) ([]model.WebhookLog, error) {
	if limit <= 0 {
		limit = 100
	}
	return r.list(ctx,
		`SELECT `+webhookLogColumns+` FROM webhook_logs ORDER BY created_at DESC LIMIT ?`,
		limit)
}

func (r *WebhookLogRepo) list(ctx context.Context, query string, args ...interface{}) ([]model.WebhookLog, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	logs := make([]model.WebhookLog, 0)
	for rows.Next() {
		var l model.WebhookLog
		var endToEnd sql.NullString
		if err := rows.Scan(&l.ID, &l.PaymentID, &l.WebhookType, &l.Status, &l.Amount, &endToEnd, &l.RawPayload, &l.CreatedAt); err != nil {
			return nil, err
		}
		l.EndToEnd = endToEnd.String
		logs = append(logs, l)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return logs, nil
}
