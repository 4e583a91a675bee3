// Package service holds the business workflows that sit between the HTTP
// handlers and the repositories: payment reconciliation and the raffle
// draw.
package service

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"github.com/ofcdigitalhawks/audirifa/internal/model"
	"github.com/ofcdigitalhawks/audirifa/internal/queue"
	"github.com/ofcdigitalhawks/audirifa/internal/repository"
)

// PaymentStore is the slice of the payment ledger the reconciler needs.
type PaymentStore interface {
	Insert(ctx context.Context, p *model.Payment) (string, error)
	FindLatest(ctx context.Context, paymentID string) (*model.Payment, error)
	UpdateStatus(ctx context.Context, paymentID, status string) (bool, error)
}

// TicketStore is the slice of the ticket ledger the reconciler needs.
type TicketStore interface {
	MarkPaid(ctx context.Context, paymentID string) (int64, error)
}

// ConfirmationLog records inbound confirmation events before any mutation.
type ConfirmationLog interface {
	Record(ctx context.Context, paymentID, webhookType, status string, amount int64, rawPayload, endToEnd string) error
	CountFor(ctx context.Context, paymentID string) (int64, error)
}

// Notifier delivers the external "paid" conversion event.  Implementations
// must swallow their own failures.
type Notifier interface {
	SendPaid(ctx context.Context, paymentID string, amountCents int64, utmSource string)
}

// Publisher emits payment.approved events to the broker.
type Publisher func(ctx context.Context, event queue.PaymentApprovedEvent) error

// ConfirmationInput is a normalized confirmation, whether it arrived as a
// webhook push or was fetched by the status poll.
type ConfirmationInput struct {
	PaymentID   string
	IsPaid      bool
	AmountCents int64
	PayerName   string
	Document    string
	EndToEnd    string
	RawPayload  string
	Source      string // "webhook" or "poll"
}

// ConfirmationResult reports what the reconciler did with a confirmation.
type ConfirmationResult struct {
	PaymentID        string
	Status           string // resulting payment status
	AlreadyProcessed bool   // true when the payment was APPROVED before this call
	TicketsMarked    int64  // tickets flipped to paid by this call
	EventCount       int64  // confirmations recorded so far for this payment id
}

// Reconciler drives the payment state machine:
//
//	PENDING -> APPROVED (terminal) when a confirmation reports paid
//	PENDING -> FAILED   (terminal) when a confirmation reports failure
//
// Idempotency under at-least-once delivery comes from the precondition
// check on the latest payment row, not from locking: a duplicate
// confirmation sees APPROVED and short-circuits.
type Reconciler struct {
	Payments PaymentStore
	Tickets  TicketStore
	Log      ConfirmationLog
	Tracker  Notifier  // may be nil
	Publish  Publisher // may be nil
}

// NewReconciler wires a Reconciler.  Payments, Tickets and Log must be
// non-nil; Tracker and Publish are optional side effects.
func NewReconciler(payments PaymentStore, tickets TicketStore, logRepo ConfirmationLog, tracker Notifier, publish Publisher) *Reconciler {
	if payments == nil || tickets == nil || logRepo == nil {
		panic("nil store passed to NewReconciler")
	}
	return &Reconciler{Payments: payments, Tickets: tickets, Log: logRepo, Tracker: tracker, Publish: publish}
}

// Confirm processes one confirmation event.  The event is always recorded
// first, regardless of the processing outcome.  Side effects after the
// state transition (marking tickets, tracking, queue publish) are each
// best-effort: a failure in one is logged and never prevents the others,
// and never fails the confirmation itself. Financial state must converge
// even when notification delivery does not.
func (r *Reconciler) Confirm(ctx context.Context, in ConfirmationInput) (ConfirmationResult, error) {
	webhookType := model.WebhookTypePending
	logStatus := model.StatusPending
	if in.IsPaid {
		webhookType = model.WebhookTypeApproved
		logStatus = model.StatusApproved
	}
	if err := r.Log.Record(ctx, in.PaymentID, webhookType, logStatus, in.AmountCents, in.RawPayload, in.EndToEnd); err != nil {
		// The log is for audit; a logging failure must not drop the event.
		log.Printf("reconciler: record confirmation for %s failed: %v", in.PaymentID, err)
	}
	count, err := r.Log.CountFor(ctx, in.PaymentID)
	if err != nil {
		log.Printf("reconciler: count confirmations for %s failed: %v", in.PaymentID, err)
	}

	res := ConfirmationResult{PaymentID: in.PaymentID, EventCount: count}

	latest, err := r.Payments.FindLatest(ctx, in.PaymentID)
	if err != nil && !errors.Is(err, repository.ErrPaymentNotFound) {
		// The idempotency check degrades to "treat as unconfirmed"; the
		// lookup failure itself must still be visible.
		log.Printf("reconciler: latest payment lookup for %s failed: %v", in.PaymentID, err)
	}
	if err == nil && latest.Status == model.StatusApproved {
		// Terminal state reached earlier; duplicate delivery converges here
		// without re-running side effects.
		res.Status = model.StatusApproved
		res.AlreadyProcessed = true
		return res, nil
	}

	if !in.IsPaid {
		return r.confirmFailed(ctx, in, res)
	}
	return r.confirmPaid(ctx, in, latest, res)
}

func (r *Reconciler) confirmPaid(ctx context.Context, in ConfirmationInput, latest *model.Payment, res ConfirmationResult) (ConfirmationResult, error) {
	if _, err := r.Payments.UpdateStatus(ctx, in.PaymentID, model.StatusApproved); err != nil {
		log.Printf("reconciler: update status APPROVED for %s failed: %v", in.PaymentID, err)
	}
	res.Status = model.StatusApproved

	marked, err := r.Tickets.MarkPaid(ctx, in.PaymentID)
	if err != nil {
		log.Printf("reconciler: mark tickets paid for %s failed: %v", in.PaymentID, err)
	}
	res.TicketsMarked = marked

	// Upsell payments never fire conversion tracking.
	isUpsell := latest != nil && strings.Contains(latest.Action, "ROLETA")
	if r.Tracker != nil && !isUpsell {
		utmSource := ""
		if latest != nil {
			utmSource = latest.UTMSource
		}
		r.Tracker.SendPaid(ctx, in.PaymentID, in.AmountCents, utmSource)
	}

	if r.Publish != nil {
		ev := queue.PaymentApprovedEvent{
			PaymentID:   in.PaymentID,
			AmountCents: in.AmountCents,
			TicketsPaid: marked,
			Source:      in.Source,
			ApprovedAt:  time.Now().UTC().Format(time.RFC3339),
		}
		if latest != nil {
			ev.CustomerName = latest.CustomerName
		}
		if err := r.Publish(ctx, ev); err != nil {
			log.Printf("reconciler: publish approved event for %s failed: %v", in.PaymentID, err)
		}
	}

	return res, nil
}

func (r *Reconciler) confirmFailed(ctx context.Context, in ConfirmationInput, res ConfirmationResult) (ConfirmationResult, error) {
	if _, err := r.Payments.UpdateStatus(ctx, in.PaymentID, model.StatusFailed); err != nil {
		log.Printf("reconciler: update status FAILED for %s failed: %v", in.PaymentID, err)
	}
	res.Status = model.StatusFailed

	// Audit row so the failed/refunded charge keeps its own record even
	// after deduplication.
	audit := &model.Payment{
		PaymentID:        in.PaymentID,
		Status:           model.StatusFailed,
		Amount:           in.AmountCents,
		CustomerName:     in.PayerName,
		CustomerDocument: in.Document,
		Action:           model.ActionWebhookFailed,
	}
	if _, err := r.Payments.Insert(ctx, audit); err != nil {
		log.Printf("reconciler: insert failure audit row for %s failed: %v", in.PaymentID, err)
	}
	return res, nil
}

// InfractionInput describes a gateway infraction callback.
type InfractionInput struct {
	PaymentID        string
	InfractionStatus string // pending_defense | rejected | accepted
	AmountCents      int64
	PayerName        string
	Document         string
	BlockedAt        string
}

// RecordInfraction stores an infraction notice as a payment audit row.
// Infractions never touch tickets; they exist for the operator to act on.
func (r *Reconciler) RecordInfraction(ctx context.Context, in InfractionInput) error {
	tag := "INFRACTION_" + strings.ToUpper(in.InfractionStatus)
	rec := &model.Payment{
		PaymentID:        in.PaymentID,
		Status:           tag,
		Amount:           in.AmountCents,
		CustomerName:     in.PayerName,
		CustomerDocument: in.Document,
		Action:           tag,
	}
	_, err := r.Payments.Insert(ctx, rec)
	return err
}
