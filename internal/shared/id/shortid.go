// Package id generates Stripe-style prefixed identifiers.
package id

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
)

const (
	// Base62 alphabet: 0-9, A-Z, a-z
	alphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"

	// DefaultLength is the default length for generated short IDs
	DefaultLength = 14
)

const (
	PrefixInvoice = "inv"
)

// Generate creates a cryptographically random Base62 string of the given length.
func Generate(length int) (string, error) {
	if length <= 0 {
		length = DefaultLength
	}

	result := make([]byte, length)
	alphabetLen := big.NewInt(int64(len(alphabet)))

	for i := 0; i < length; i++ {
		num, err := rand.Int(rand.Reader, alphabetLen)
		if err != nil {
			return "", fmt.Errorf("failed to generate random number: %w", err)
		}
		result[i] = alphabet[num.Int64()]
	}

	return string(result), nil
}

// GenerateWithPrefix creates a prefixed ID in the format "prefix_randomstring".
func GenerateWithPrefix(prefix string, length int) (string, error) {
	s, err := Generate(length)
	if err != nil {
		return "", err
	}
	return prefix + "_" + s, nil
}

// NewInvoiceID returns a fresh invoice identifier such as "inv_4fQz0p9XkLm2Ab".
func NewInvoiceID() (string, error) {
	return GenerateWithPrefix(PrefixInvoice, DefaultLength)
}

// ValidatePrefix checks that prefixedID has the expected prefix and a non-empty Base62 body.
func ValidatePrefix(prefixedID, expectedPrefix string) error {
	prefix, body, ok := strings.Cut(prefixedID, "_")
	if !ok || body == "" {
		return fmt.Errorf("invalid id format: %q", prefixedID)
	}
	if prefix != expectedPrefix {
		return fmt.Errorf("invalid id prefix: expected %q, got %q", expectedPrefix, prefix)
	}
	for _, c := range body {
		if !strings.ContainsRune(alphabet, c) {
			return fmt.Errorf("invalid character in id: %q", prefixedID)
		}
	}
	return nil
}
