package utils

import (
	"fmt"
	"strings"
	"unicode"
)

// DigitsOnly strips every non-digit rune from s.  Phone numbers are stored
// and compared in this normalized form.
func DigitsOnly(s string) string {
	var b strings.Builder
	for _, r := range s {
		if unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// FormatTicketNumber renders a ticket number zero-padded to the fixed
// 6-digit display width.  The stored value stays a plain integer.
func FormatTicketNumber(n int64) string {
	return fmt.Sprintf("%06d", n)
}

// PhoneMatches reports whether a stored phone and a queried phone refer to
// the same line.  Both sides are normalized to digits and matched as a
// substring in either direction, so queries with or without country code
// still find the tickets.
func PhoneMatches(stored, query string) bool {
	s := DigitsOnly(stored)
	q := DigitsOnly(query)
	if s == "" || q == "" {
		return false
	}
	return strings.Contains(s, q) || strings.Contains(q, s)
}
