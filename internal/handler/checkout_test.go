package handler

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTicketQuantityFor(t *testing.T) {
	// Base bundle covers everything up to R$ 19,99.
	assert.Equal(t, 10, ticketQuantityFor(100))
	assert.Equal(t, 10, ticketQuantityFor(1999))

	// One extra ticket per additional R$ 1,99.
	assert.Equal(t, 10, ticketQuantityFor(2000))
	assert.Equal(t, 11, ticketQuantityFor(1999+199))
	assert.Equal(t, 20, ticketQuantityFor(1999+10*199))
}

func TestNewReferenceID(t *testing.T) {
	a := newReferenceID("audirifa")
	b := newReferenceID("audirifa")

	assert.True(t, strings.HasPrefix(a, "audirifa_"))
	assert.NotEqual(t, a, b)
	assert.Len(t, strings.Split(a, "_"), 3)
}
