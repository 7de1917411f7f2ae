package models

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"
)

// StatusSubmitted is the status assigned at save time when none is given.
const StatusSubmitted = "submitted"

// Invoice is a single submitted invoice. Contractor and billing company
// details are denormalized onto the row; line items travel through the store
// as an opaque JSON blob that the store never parses.
type Invoice struct {
	ID            uint   `json:"id" gorm:"primaryKey"`
	InvoiceNumber string `json:"invoice_number" gorm:"uniqueIndex;not null"`

	ContractorName    string  `json:"contractor_name" gorm:"not null"`
	ContractorEmail   string  `json:"contractor_email" gorm:"not null;index"`
	ContractorPhone   *string `json:"contractor_phone"`
	ContractorAddress *string `json:"contractor_address"`

	CompanyKey     *string `json:"company_key" gorm:"index"`
	CompanyName    string  `json:"company_name" gorm:"not null"`
	CompanyAddress *string `json:"company_address"`
	CompanyEmail   *string `json:"company_email"`

	InvoiceDate string  `json:"invoice_date" gorm:"not null"`
	DueDate     *string `json:"due_date"`
	Notes       *string `json:"notes"`

	Total     float64        `json:"total" gorm:"type:numeric(12,2);not null"`
	LineItems datatypes.JSON `json:"line_items"`

	CreatedAt time.Time `json:"created_at" gorm:"index"`
	Status    string    `json:"status" gorm:"default:submitted"`
}

// LineItem is one row of an invoice. Items are encoded into Invoice.LineItems
// before the invoice reaches a store and decoded again for rendering.
type LineItem struct {
	Description string  `json:"description"`
	Quantity    float64 `json:"quantity"`
	Rate        float64 `json:"rate"`
	Amount      float64 `json:"amount"`
}

// EncodeLineItems serializes items into the blob form the store persists.
func EncodeLineItems(items []LineItem) (datatypes.JSON, error) {
	raw, err := json.Marshal(items)
	if err != nil {
		return nil, err
	}
	return datatypes.JSON(raw), nil
}

// DecodeLineItems parses the stored blob back into typed items.
func (inv *Invoice) DecodeLineItems() ([]LineItem, error) {
	if len(inv.LineItems) == 0 {
		return nil, nil
	}
	var items []LineItem
	if err := json.Unmarshal(inv.LineItems, &items); err != nil {
		return nil, err
	}
	return items, nil
}
