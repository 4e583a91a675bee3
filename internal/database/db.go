package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"
)

// Open connects to MySQL and verifies the connection.
func Open(user, pass, host, port, name string) (*sql.DB, error) {
	auth := user
	if pass != "" {
		auth = fmt.Sprintf("%s:%s", user, pass)
	}
	// parseTime=true -> DATETIME -> time.Time | loc=UTC keeps times consistent
	dsn := fmt.Sprintf("%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=true&loc=UTC",
		auth, host, port, name)

	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, err
	}

	// Pool settings
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(30 * time.Minute)

	// Ping with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		return nil, err
	}
	return db, nil
}

// EnsureSchema creates the tables the service needs when they do not exist
// yet and seeds the ticket counter.  The UNIQUE index on ticket_number is
// the last line of defense against duplicate ticket numbers; the counter
// row is the atomic allocator the ticket repository increments.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS payments (
			id CHAR(36) PRIMARY KEY,
			payment_id VARCHAR(64) NOT NULL,
			status VARCHAR(32) NOT NULL,
			amount BIGINT NOT NULL,
			customer_name VARCHAR(255) NULL,
			customer_email VARCHAR(255) NULL,
			customer_document VARCHAR(32) NULL,
			customer_phone VARCHAR(32) NULL,
			pix_code TEXT NULL,
			utm_source VARCHAR(255) NULL,
			action VARCHAR(32) NOT NULL,
			created_at DATETIME NOT NULL,
			updated_at DATETIME NULL,
			INDEX idx_payments_payment_id (payment_id)
		)`,
		`CREATE TABLE IF NOT EXISTS raffle_tickets (
			id CHAR(36) PRIMARY KEY,
			payment_id VARCHAR(64) NOT NULL,
			ticket_number BIGINT NOT NULL,
			customer_name VARCHAR(255) NOT NULL,
			customer_phone VARCHAR(32) NULL,
			customer_email VARCHAR(255) NULL,
			amount_paid BIGINT NOT NULL,
			is_paid TINYINT(1) NOT NULL DEFAULT 0,
			created_at DATETIME NOT NULL,
			paid_at DATETIME NULL,
			UNIQUE KEY uq_raffle_ticket_number (ticket_number),
			INDEX idx_raffle_payment_id (payment_id),
			INDEX idx_raffle_is_paid (is_paid)
		)`,
		`CREATE TABLE IF NOT EXISTS ticket_counter (
			id TINYINT PRIMARY KEY,
			next_number BIGINT NOT NULL
		)`,
		`INSERT IGNORE INTO ticket_counter (id, next_number) VALUES (1, 1)`,
		`CREATE TABLE IF NOT EXISTS webhook_logs (
			id CHAR(36) PRIMARY KEY,
			payment_id VARCHAR(64) NOT NULL,
			webhook_type VARCHAR(32) NOT NULL,
			status VARCHAR(32) NOT NULL,
			amount BIGINT NOT NULL,
			end_to_end VARCHAR(64) NULL,
			raw_payload TEXT NOT NULL,
			created_at DATETIME NOT NULL,
			INDEX idx_webhook_payment_id (payment_id),
			INDEX idx_webhook_created_at (created_at)
		)`,
	}
	for _, q := range stmts {
		if _, err := db.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}
