package domain

import (
	"crypto/rand"
	"fmt"
)

// GenerateBookingReference returns a new booking reference: a fixed
// two-letter prefix followed by random characters from the reference
// alphabet. Uniqueness is enforced by the storage layer; callers retry
// on a duplicate.
func GenerateBookingReference() (string, error) {
	suffix, err := randomString(BookingReferenceLength)
	if err != nil {
		return "", err
	}
	return BookingReferencePrefix + suffix, nil
}

// GenerateConfirmationCode returns a new confirmation code of uppercase
// alphanumeric characters. Uniqueness is enforced by the storage layer.
func GenerateConfirmationCode() (string, error) {
	return randomString(ConfirmationCodeLength)
}

func randomString(length int) (string, error) {
	buf := make([]byte, length)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("domain: failed to read random bytes: %w", err)
	}
	for i, b := range buf {
		buf[i] = ReferenceAlphabet[int(b)%len(ReferenceAlphabet)]
	}
	return string(buf), nil
}
