package domain

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateBookingReference(t *testing.T) {
	seen := make(map[string]struct{})
	for i := 0; i < 100; i++ {
		ref, err := GenerateBookingReference()
		require.NoError(t, err)

		assert.True(t, strings.HasPrefix(ref, BookingReferencePrefix))
		assert.Len(t, ref, len(BookingReferencePrefix)+BookingReferenceLength)
		for _, ch := range ref[len(BookingReferencePrefix):] {
			assert.Contains(t, ReferenceAlphabet, string(ch))
		}
		seen[ref] = struct{}{}
	}

	// 100 подряд одинаковых ссылок статистически невозможны
	assert.Greater(t, len(seen), 1)
}

func TestGenerateConfirmationCode(t *testing.T) {
	code, err := GenerateConfirmationCode()
	require.NoError(t, err)

	assert.Len(t, code, ConfirmationCodeLength)
	for _, ch := range code {
		assert.Contains(t, ReferenceAlphabet, string(ch))
	}
}
