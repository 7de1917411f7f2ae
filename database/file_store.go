package database

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"invoice-intake-backend/models"
)

// DefaultStoreFile is the flat-file document used when no path is given.
var DefaultStoreFile = filepath.Join("data", "invoices.json")

// FileStore persists all invoices in a single JSON document and performs a
// full read-modify-write on every mutation. A process-local mutex serializes
// callers; interleaving with other processes remains a documented limitation
// of this backend, not part of the Store contract.
type FileStore struct {
	mu   sync.Mutex
	path string
	now  Clock
}

// fileDocument is the on-disk shape: {"invoices": [...], "nextId": n}.
type fileDocument struct {
	Invoices []models.Invoice `json:"invoices"`
	NextID   uint             `json:"nextId"`
}

// FileOption configures a FileStore.
type FileOption func(*FileStore)

// WithFileClock overrides the store clock.
func WithFileClock(now Clock) FileOption {
	return func(s *FileStore) { s.now = now }
}

// NewFileStore prepares the flat-file backend. The document itself is created
// lazily on the first write.
func NewFileStore(path string, opts ...FileOption) (*FileStore, error) {
	if path == "" {
		path = DefaultStoreFile
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create data directory: %w", err)
		}
	}
	s := &FileStore{path: path, now: systemClock}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

func (s *FileStore) load() (*fileDocument, error) {
	raw, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return &fileDocument{NextID: 1}, nil
	}
	if err != nil {
		return nil, err
	}
	var doc fileDocument
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("decode %s: %w", s.path, err)
	}
	if doc.NextID == 0 {
		doc.NextID = 1
	}
	return &doc, nil
}

// persist replaces the document atomically via temp file + rename.
func (s *FileStore) persist(doc *fileDocument) error {
	raw, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return err
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, s.path)
}

func (s *FileStore) NextInvoiceNumber() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load()
	if err != nil {
		return "", err
	}
	year := s.now().Year()
	prefix := yearPrefix(year)
	var numbers []string
	for _, inv := range doc.Invoices {
		if strings.HasPrefix(inv.InvoiceNumber, prefix) {
			numbers = append(numbers, inv.InvoiceNumber)
		}
	}
	return nextNumber(year, numbers), nil
}

func (s *FileStore) Save(inv *models.Invoice) (uint, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load()
	if err != nil {
		return 0, err
	}
	for _, existing := range doc.Invoices {
		if existing.InvoiceNumber == inv.InvoiceNumber {
			return 0, ErrDuplicateNumber
		}
	}

	inv.ID = doc.NextID
	inv.CreatedAt = s.now()
	if inv.Status == "" {
		inv.Status = models.StatusSubmitted
	}

	doc.NextID++
	doc.Invoices = append(doc.Invoices, *inv)
	if err := s.persist(doc); err != nil {
		return 0, err
	}
	return inv.ID, nil
}

func (s *FileStore) GetByNumber(number string) (*models.Invoice, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load()
	if err != nil {
		return nil, err
	}
	for i := range doc.Invoices {
		if doc.Invoices[i].InvoiceNumber == number {
			inv := doc.Invoices[i]
			return &inv, nil
		}
	}
	return nil, nil
}

func (s *FileStore) ListAll(limit, offset int) ([]models.Invoice, error) {
	limit, offset = normalizeWindow(limit, offset)
	invoices, err := s.snapshot(func(models.Invoice) bool { return true })
	if err != nil {
		return nil, err
	}
	if offset >= len(invoices) {
		return []models.Invoice{}, nil
	}
	invoices = invoices[offset:]
	if len(invoices) > limit {
		invoices = invoices[:limit]
	}
	return invoices, nil
}

func (s *FileStore) ListByContractorEmail(email string) ([]models.Invoice, error) {
	return s.snapshot(func(inv models.Invoice) bool {
		return inv.ContractorEmail == email
	})
}

func (s *FileStore) ListByCompanyKey(key string) ([]models.Invoice, error) {
	return s.snapshot(func(inv models.Invoice) bool {
		return inv.CompanyKey != nil && *inv.CompanyKey == key
	})
}

// snapshot returns matching invoices ordered most recent first.
func (s *FileStore) snapshot(match func(models.Invoice) bool) ([]models.Invoice, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load()
	if err != nil {
		return nil, err
	}
	invoices := make([]models.Invoice, 0, len(doc.Invoices))
	for _, inv := range doc.Invoices {
		if match(inv) {
			invoices = append(invoices, inv)
		}
	}
	sort.SliceStable(invoices, func(i, j int) bool {
		if invoices[i].CreatedAt.Equal(invoices[j].CreatedAt) {
			return invoices[i].ID > invoices[j].ID
		}
		return invoices[i].CreatedAt.After(invoices[j].CreatedAt)
	})
	return invoices, nil
}

func (s *FileStore) UpdateStatus(number, status string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load()
	if err != nil {
		return err
	}
	for i := range doc.Invoices {
		if doc.Invoices[i].InvoiceNumber == number {
			doc.Invoices[i].Status = status
			return s.persist(doc)
		}
	}
	// Unknown numbers are a no-op by contract.
	return nil
}

func (s *FileStore) Stats() (Stats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load()
	if err != nil {
		return Stats{}, err
	}
	now := s.now()
	var st Stats
	for _, inv := range doc.Invoices {
		st.TotalCount++
		st.TotalAmount += inv.Total
		if inv.CreatedAt.Year() == now.Year() && inv.CreatedAt.Month() == now.Month() {
			st.CurrentMonthCount++
			st.CurrentMonthAmount += inv.Total
		}
	}
	return st, nil
}

func (s *FileStore) Close() error { return nil }
