package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseInvoiceNumber(t *testing.T) {
	n, err := ParseInvoiceNumber("INV-2026-0001")
	require.NoError(t, err)
	assert.Equal(t, 2026, n.Year)
	assert.Equal(t, 1, n.Seq)

	n, err = ParseInvoiceNumber("INV-2026-10000")
	require.NoError(t, err)
	assert.Equal(t, 10000, n.Seq)
}

func TestParseInvoiceNumberRejectsMalformed(t *testing.T) {
	for _, raw := range []string{
		"",
		"INV-2026",
		"INV-2026-0001-x",
		"inv-2026-0001",
		"XYZ-2026-0001",
		"INV-26-0001",
		"INV-2026-00AB",
		"INV-2026-0000",
		"INV-year-0001",
	} {
		_, err := ParseInvoiceNumber(raw)
		assert.Error(t, err, "expected %q to be rejected", raw)
	}
}

func TestInvoiceNumberString(t *testing.T) {
	assert.Equal(t, "INV-2026-0001", FirstInvoiceNumber(2026).String())
	assert.Equal(t, "INV-2026-0042", InvoiceNumber{Year: 2026, Seq: 42}.String())
	assert.Equal(t, "INV-2026-12345", InvoiceNumber{Year: 2026, Seq: 12345}.String())
}

func TestInvoiceNumberNext(t *testing.T) {
	n := FirstInvoiceNumber(2026)
	assert.Equal(t, "INV-2026-0002", n.Next().String())
	assert.Equal(t, 2026, n.Next().Year)
}

func TestLineItemsRoundTrip(t *testing.T) {
	items := []LineItem{
		{Description: "Consulting", Quantity: 2, Rate: 50, Amount: 100},
		{Description: "Hosting", Quantity: 1, Rate: 250.5, Amount: 250.5},
	}
	blob, err := EncodeLineItems(items)
	require.NoError(t, err)

	inv := Invoice{LineItems: blob}
	decoded, err := inv.DecodeLineItems()
	require.NoError(t, err)
	assert.Equal(t, items, decoded)
}
