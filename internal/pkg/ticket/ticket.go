// Package ticket generates the short identifiers printed on entry tickets.
package ticket

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"
)

// IDLength is the number of characters in a ticket ID.
const IDLength = 8

// NewID returns an 8-character uppercase hexadecimal ticket ID derived from
// 4 cryptographically random bytes. Global uniqueness is enforced by the
// registration store, which retries on collision.
func NewID() (string, error) {
	buf := make([]byte, IDLength/2)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("rand.Read -> %w", err)
	}

	return strings.ToUpper(hex.EncodeToString(buf)), nil
}

// IsValidID reports whether s has the shape of a ticket ID.
func IsValidID(s string) bool {
	if len(s) != IDLength {
		return false
	}

	for _, r := range s {
		isDigit := r >= '0' && r <= '9'
		isUpperHex := r >= 'A' && r <= 'F'
		if !isDigit && !isUpperHex {
			return false
		}
	}

	return true
}
