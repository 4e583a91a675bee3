package utils_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ofcdigitalhawks/audirifa/internal/utils"
)

func TestDigitsOnly(t *testing.T) {
	assert.Equal(t, "5511999998888", utils.DigitsOnly("+55 (11) 99999-8888"))
	assert.Equal(t, "", utils.DigitsOnly("abc"))
	assert.Equal(t, "123", utils.DigitsOnly("1a2b3c"))
}

func TestFormatTicketNumber(t *testing.T) {
	assert.Equal(t, "000007", utils.FormatTicketNumber(7))
	assert.Equal(t, "001234", utils.FormatTicketNumber(1234))
	assert.Equal(t, "1234567", utils.FormatTicketNumber(1234567))
}

func TestPhoneMatches(t *testing.T) {
	// Country code optional on either side.
	assert.True(t, utils.PhoneMatches("5511999998888", "11999998888"))
	assert.True(t, utils.PhoneMatches("11999998888", "5511999998888"))
	assert.True(t, utils.PhoneMatches("(11) 99999-8888", "11999998888"))

	assert.False(t, utils.PhoneMatches("11999998888", "11888887777"))
	assert.False(t, utils.PhoneMatches("", "11999998888"))
	assert.False(t, utils.PhoneMatches("11999998888", ""))
}
