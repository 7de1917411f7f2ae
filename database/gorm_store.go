package database

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"invoice-intake-backend/models"
)

// DefaultDatabasePath is the embedded sqlite file used when no DSN is given.
var DefaultDatabasePath = filepath.Join("data", "invoices.db")

// GormStore is the relational backend. The driver is picked from the DSN:
// postgres:// URLs use the postgres driver, anything else is treated as a
// sqlite file path. Uniqueness of invoice numbers is enforced both by an
// explicit pre-insert check and by the unique index on the column.
type GormStore struct {
	db  *gorm.DB
	now Clock
}

// GormOption configures a GormStore.
type GormOption func(*GormStore)

// WithGormClock overrides the store clock.
func WithGormClock(now Clock) GormOption {
	return func(s *GormStore) { s.now = now }
}

// NewGormStore opens the database, runs migrations, and returns the store.
func NewGormStore(dsn string, opts ...GormOption) (*GormStore, error) {
	if dsn == "" {
		dsn = DefaultDatabasePath
	}

	var dial gorm.Dialector
	lower := strings.ToLower(dsn)
	if strings.HasPrefix(lower, "postgres://") || strings.HasPrefix(lower, "postgresql://") {
		dial = postgres.Open(dsn)
	} else {
		if !strings.HasPrefix(lower, "file:") {
			if dir := filepath.Dir(dsn); dir != "." {
				if err := os.MkdirAll(dir, 0o755); err != nil {
					return nil, fmt.Errorf("create data directory: %w", err)
				}
			}
		}
		dial = sqlite.Open(dsn)
	}

	db, err := gorm.Open(dial, &gorm.Config{TranslateError: true})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.AutoMigrate(&models.Invoice{}); err != nil {
		return nil, fmt.Errorf("migrate invoices: %w", err)
	}

	s := &GormStore{db: db, now: systemClock}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

func (s *GormStore) NextInvoiceNumber() (string, error) {
	year := s.now().Year()
	var numbers []string
	err := s.db.Model(&models.Invoice{}).
		Where("invoice_number LIKE ?", yearPrefix(year)+"%").
		Pluck("invoice_number", &numbers).Error
	if err != nil {
		return "", err
	}
	return nextNumber(year, numbers), nil
}

func (s *GormStore) Save(inv *models.Invoice) (uint, error) {
	var count int64
	err := s.db.Model(&models.Invoice{}).
		Where("invoice_number = ?", inv.InvoiceNumber).
		Count(&count).Error
	if err != nil {
		return 0, err
	}
	if count > 0 {
		return 0, ErrDuplicateNumber
	}

	inv.ID = 0
	inv.CreatedAt = s.now()
	if inv.Status == "" {
		inv.Status = models.StatusSubmitted
	}

	if err := s.db.Create(inv).Error; err != nil {
		// The unique index catches the preview race the pre-check cannot.
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return 0, ErrDuplicateNumber
		}
		return 0, err
	}
	return inv.ID, nil
}

func (s *GormStore) GetByNumber(number string) (*models.Invoice, error) {
	var inv models.Invoice
	err := s.db.Where("invoice_number = ?", number).First(&inv).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &inv, nil
}

func (s *GormStore) ListAll(limit, offset int) ([]models.Invoice, error) {
	limit, offset = normalizeWindow(limit, offset)
	var invoices []models.Invoice
	err := s.db.Order("created_at DESC, id DESC").
		Limit(limit).Offset(offset).
		Find(&invoices).Error
	return invoices, err
}

func (s *GormStore) ListByContractorEmail(email string) ([]models.Invoice, error) {
	var invoices []models.Invoice
	err := s.db.Where("contractor_email = ?", email).
		Order("created_at DESC, id DESC").
		Find(&invoices).Error
	return invoices, err
}

func (s *GormStore) ListByCompanyKey(key string) ([]models.Invoice, error) {
	var invoices []models.Invoice
	err := s.db.Where("company_key = ?", key).
		Order("created_at DESC, id DESC").
		Find(&invoices).Error
	return invoices, err
}

func (s *GormStore) UpdateStatus(number, status string) error {
	// Zero rows affected is fine: unknown numbers are a no-op by contract.
	return s.db.Model(&models.Invoice{}).
		Where("invoice_number = ?", number).
		Update("status", status).Error
}

func (s *GormStore) Stats() (Stats, error) {
	var st Stats
	if err := s.db.Model(&models.Invoice{}).Count(&st.TotalCount).Error; err != nil {
		return Stats{}, err
	}
	err := s.db.Model(&models.Invoice{}).
		Select("COALESCE(SUM(total), 0)").
		Scan(&st.TotalAmount).Error
	if err != nil {
		return Stats{}, err
	}

	now := s.now()
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	monthEnd := monthStart.AddDate(0, 1, 0)

	err = s.db.Model(&models.Invoice{}).
		Where("created_at >= ? AND created_at < ?", monthStart, monthEnd).
		Count(&st.CurrentMonthCount).Error
	if err != nil {
		return Stats{}, err
	}
	err = s.db.Model(&models.Invoice{}).
		Where("created_at >= ? AND created_at < ?", monthStart, monthEnd).
		Select("COALESCE(SUM(total), 0)").
		Scan(&st.CurrentMonthAmount).Error
	if err != nil {
		return Stats{}, err
	}
	return st, nil
}

func (s *GormStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
