package id

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewInvoiceID(t *testing.T) {
	a, err := NewInvoiceID()
	require.NoError(t, err)
	b, err := NewInvoiceID()
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(a, "inv_"))
	assert.Len(t, a, len("inv_")+DefaultLength)
	assert.NotEqual(t, a, b)
	assert.NoError(t, ValidatePrefix(a, PrefixInvoice))
}

func TestValidatePrefix(t *testing.T) {
	assert.Error(t, ValidatePrefix("inv", PrefixInvoice))
	assert.Error(t, ValidatePrefix("inv_", PrefixInvoice))
	assert.Error(t, ValidatePrefix("fa_abc", PrefixInvoice))
	assert.Error(t, ValidatePrefix("inv_ab-c", PrefixInvoice))
	assert.NoError(t, ValidatePrefix("inv_abc123", PrefixInvoice))
}

func FuzzValidatePrefix(f *testing.F) {
	f.Add("inv_abc123")
	f.Add("")
	f.Add("inv__")
	f.Fuzz(func(t *testing.T, s string) {
		_ = ValidatePrefix(s, PrefixInvoice)
	})
}
