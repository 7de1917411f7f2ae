package database

import (
	"errors"
	"fmt"

	"invoice-intake-backend/models"
)

// Sentinel errors surfaced by stores. Not-found is never an error: lookups
// return a nil invoice instead.
var ErrDuplicateNumber = errors.New("invoice number already exists")

// DefaultListLimit caps listing queries when the caller gives no limit.
const DefaultListLimit = 100

// Stats aggregates all stored invoices. The current month is determined by
// the store's clock against each invoice's creation time.
type Stats struct {
	TotalCount         int64   `json:"totalCount"`
	TotalAmount        float64 `json:"totalAmount"`
	CurrentMonthCount  int64   `json:"currentMonthCount"`
	CurrentMonthAmount float64 `json:"currentMonthAmount"`
}

// Store is the persistence contract satisfied identically by the relational
// and the flat-file backend. A Store is opened once at startup and closed on
// shutdown.
type Store interface {
	// NextInvoiceNumber previews the next number for the current year. It is
	// advisory only: nothing is reserved, and two concurrent submissions can
	// preview the same number.
	NextInvoiceNumber() (string, error)
	// Save assigns id and creation time, defaults the status, and persists
	// the invoice. Returns ErrDuplicateNumber if the number already exists.
	Save(inv *models.Invoice) (uint, error)
	// GetByNumber returns the matching invoice, or nil when there is none.
	GetByNumber(number string) (*models.Invoice, error)
	// ListAll pages through invoices ordered most recent first.
	ListAll(limit, offset int) ([]models.Invoice, error)
	ListByContractorEmail(email string) ([]models.Invoice, error)
	ListByCompanyKey(key string) ([]models.Invoice, error)
	// UpdateStatus is a no-op when the invoice number is unknown.
	UpdateStatus(number, status string) error
	Stats() (Stats, error)
	Close() error
}

// Open constructs the backend named by the configuration.
func Open(backend, dsn, file string) (Store, error) {
	switch backend {
	case "", "sqlite", "postgres", "gorm":
		return NewGormStore(dsn)
	case "json", "file":
		return NewFileStore(file)
	default:
		return nil, fmt.Errorf("unknown store backend %q", backend)
	}
}

// yearPrefix is the shared LIKE/scan prefix for a year's invoice numbers.
func yearPrefix(year int) string {
	return fmt.Sprintf("%s-%04d-", models.InvoiceNumberPrefix, year)
}

// nextNumber computes the advisory next number for year from the existing
// candidates. It takes the highest parsed sequence, not the row count, and
// skips candidates that do not parse as invoice numbers.
func nextNumber(year int, existing []string) string {
	maxSeq := 0
	for _, raw := range existing {
		n, err := models.ParseInvoiceNumber(raw)
		if err != nil || n.Year != year {
			continue
		}
		if n.Seq > maxSeq {
			maxSeq = n.Seq
		}
	}
	if maxSeq == 0 {
		return models.FirstInvoiceNumber(year).String()
	}
	return models.InvoiceNumber{Year: year, Seq: maxSeq}.Next().String()
}

// normalizeWindow applies the listing defaults.
func normalizeWindow(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
