package models

import (
	"fmt"
	"strconv"
	"strings"
)

// InvoiceNumberPrefix is the fixed first token of every invoice number.
const InvoiceNumberPrefix = "INV"

// InvoiceNumber is the human-facing identifier INV-<year>-<sequence>, distinct
// from the internal numeric id. The shape is validated on construction so
// callers never string-split raw numbers.
type InvoiceNumber struct {
	Year int
	Seq  int
}

// ParseInvoiceNumber validates and decomposes a raw invoice number.
func ParseInvoiceNumber(s string) (InvoiceNumber, error) {
	parts := strings.Split(s, "-")
	if len(parts) != 3 || parts[0] != InvoiceNumberPrefix {
		return InvoiceNumber{}, fmt.Errorf("invalid invoice number %q", s)
	}
	year, err := strconv.Atoi(parts[1])
	if err != nil || len(parts[1]) != 4 || year <= 0 {
		return InvoiceNumber{}, fmt.Errorf("invalid year in invoice number %q", s)
	}
	seq, err := strconv.Atoi(parts[2])
	if err != nil || seq <= 0 {
		return InvoiceNumber{}, fmt.Errorf("invalid sequence in invoice number %q", s)
	}
	return InvoiceNumber{Year: year, Seq: seq}, nil
}

// FirstInvoiceNumber is the number assigned to the first invoice of a year.
func FirstInvoiceNumber(year int) InvoiceNumber {
	return InvoiceNumber{Year: year, Seq: 1}
}

// Next returns the following number within the same year.
func (n InvoiceNumber) Next() InvoiceNumber {
	return InvoiceNumber{Year: n.Year, Seq: n.Seq + 1}
}

// String formats the number with a zero-padded 4-digit sequence. Sequences
// beyond 9999 keep all their digits.
func (n InvoiceNumber) String() string {
	return fmt.Sprintf("%s-%04d-%04d", InvoiceNumberPrefix, n.Year, n.Seq)
}
