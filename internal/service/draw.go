package service

import (
	"context"
	"math/rand/v2"

	"github.com/ofcdigitalhawks/audirifa/internal/model"
)

// DrawTicketStore is the slice of the ticket ledger the draw needs.
type DrawTicketStore interface {
	ListPaid(ctx context.Context) ([]model.Ticket, error)
	Counts(ctx context.Context) (model.TicketCounts, error)
}

// Draw selects winners among paid tickets.  A draw is not idempotent:
// every call re-rolls over the paid set at that moment, and nothing is
// persisted about past winners.
type Draw struct {
	Tickets DrawTicketStore
	// intn is swappable for deterministic tests; defaults to rand.IntN.
	intn func(n int) int
}

// NewDraw wires a Draw over the ticket store.
func NewDraw(tickets DrawTicketStore) *Draw {
	return &Draw{Tickets: tickets, intn: rand.IntN}
}

// Winner returns a uniformly random paid ticket, or nil when no ticket has
// been paid yet.
func (d *Draw) Winner(ctx context.Context) (*model.Ticket, error) {
	paid, err := d.Tickets.ListPaid(ctx)
	if err != nil {
		return nil, err
	}
	if len(paid) == 0 {
		return nil, nil
	}
	w := paid[d.intn(len(paid))]
	return &w, nil
}

// Stats returns the current eligibility numbers for the draw.
func (d *Draw) Stats(ctx context.Context) (model.TicketCounts, error) {
	return d.Tickets.Counts(ctx)
}
