package scraper

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractPhones(t *testing.T) {
	phones := ExtractPhones("Call me at +1 (555) 123-4567 or 555.987.6543 today")

	assert.Len(t, phones, 2)
	assert.Equal(t, "+15551234567", phones[0])
	assert.Equal(t, "5559876543", phones[1])

	for _, n := range phones {
		digits := strings.TrimPrefix(n, "+")
		assert.GreaterOrEqual(t, len(digits), 8)
		assert.LessOrEqual(t, len(digits), 15)
		// at most one "+" and only as a prefix
		assert.NotContains(t, digits, "+")
	}
}

func TestExtractPhonesTooShortOrLong(t *testing.T) {
	assert.Empty(t, ExtractPhones("extension 1234, order 12345-67"))
	assert.Empty(t, ExtractPhones("serial 1234 5678 9012 3456 7890 1234"))
}

func TestExtractPhonesDeduplicates(t *testing.T) {
	phones := ExtractPhones("call 555-123-4567 or 555.123.4567")
	assert.Equal(t, []string{"5551234567"}, phones)
}

func TestExtractPhonesNoMatches(t *testing.T) {
	assert.Empty(t, ExtractPhones("no numbers here"))
	assert.Empty(t, ExtractPhones(""))
}

func TestExtractPhonesDashVariants(t *testing.T) {
	phones := ExtractPhones("ring 020–7946–0958 or 020—7946—0018")
	assert.Equal(t, []string{"02079460958", "02079460018"}, phones)
}
