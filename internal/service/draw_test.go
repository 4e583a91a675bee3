package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ofcdigitalhawks/audirifa/internal/model"
)

type stubDrawStore struct {
	paid   []model.Ticket
	counts model.TicketCounts
	err    error
}

func (s *stubDrawStore) ListPaid(context.Context) ([]model.Ticket, error) {
	return s.paid, s.err
}

func (s *stubDrawStore) Counts(context.Context) (model.TicketCounts, error) {
	return s.counts, s.err
}

func TestWinnerEmptyPool(t *testing.T) {
	d := NewDraw(&stubDrawStore{})
	w, err := d.Winner(context.Background())
	require.NoError(t, err)
	assert.Nil(t, w)
}

func TestWinnerStoreError(t *testing.T) {
	d := NewDraw(&stubDrawStore{err: errors.New("db down")})
	w, err := d.Winner(context.Background())
	assert.Error(t, err)
	assert.Nil(t, w)
}

func TestWinnerPicksByIndex(t *testing.T) {
	pool := []model.Ticket{
		{TicketNumber: 1, CustomerName: "a"},
		{TicketNumber: 2, CustomerName: "b"},
		{TicketNumber: 3, CustomerName: "c"},
	}
	d := NewDraw(&stubDrawStore{paid: pool})
	d.intn = func(n int) int {
		require.Equal(t, len(pool), n)
		return 1
	}

	w, err := d.Winner(context.Background())
	require.NoError(t, err)
	require.NotNil(t, w)
	assert.Equal(t, int64(2), w.TicketNumber)
}

func TestWinnerDefaultRandStaysInPool(t *testing.T) {
	pool := []model.Ticket{{TicketNumber: 10}, {TicketNumber: 11}, {TicketNumber: 12}}
	d := NewDraw(&stubDrawStore{paid: pool})

	seen := map[int64]bool{}
	for i := 0; i < 200; i++ {
		w, err := d.Winner(context.Background())
		require.NoError(t, err)
		require.NotNil(t, w)
		seen[w.TicketNumber] = true
		assert.GreaterOrEqual(t, w.TicketNumber, int64(10))
		assert.LessOrEqual(t, w.TicketNumber, int64(12))
	}
	// 200 rolls over 3 tickets reach every number in practice.
	assert.Len(t, seen, 3)
}

func TestStatsPassesThrough(t *testing.T) {
	d := NewDraw(&stubDrawStore{counts: model.TicketCounts{Total: 7, Paid: 4, Unpaid: 3}})
	c, err := d.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(4), c.Paid)
	assert.Equal(t, int64(3), c.Unpaid)
}
