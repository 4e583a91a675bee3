package repository

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBlockNumbersConsecutive(t *testing.T) {
	// Counter seeded at 1; the first allocation of 10 bumps it to 11 and
	// owns numbers 1 through 10.
	first := blockNumbers(11, 10)
	require.Len(t, first, 10)
	assert.Equal(t, int64(1), first[0])
	assert.Equal(t, int64(10), first[9])
	for i := 1; i < len(first); i++ {
		assert.Equal(t, first[i-1]+1, first[i])
	}
}

func TestBlockNumbersNextBlockStartsAbovePreviousMax(t *testing.T) {
	first := blockNumbers(11, 10)
	second := blockNumbers(16, 5)

	assert.Equal(t, first[len(first)-1]+1, second[0])
	assert.Equal(t, int64(15), second[len(second)-1])

	// No overlap between consecutive blocks.
	seen := map[int64]bool{}
	for _, n := range append(first, second...) {
		assert.False(t, seen[n])
		seen[n] = true
	}
}

func TestBlockNumbersSingleTicket(t *testing.T) {
	assert.Equal(t, []int64{42}, blockNumbers(43, 1))
}

func TestPriceShareTruncates(t *testing.T) {
	// 1999 centavos across 10 tickets: 199 each, remainder not distributed.
	assert.Equal(t, int64(199), priceShare(1999, 10))
	assert.Equal(t, int64(333), priceShare(1000, 3))
	assert.Equal(t, int64(200), priceShare(2000, 10))
	assert.Equal(t, int64(0), priceShare(5, 10))
}
