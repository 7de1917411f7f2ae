package controllers

import (
	"encoding/base64"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"invoice-intake-backend/database"
	"invoice-intake-backend/middlewares"
	"invoice-intake-backend/models"
	"invoice-intake-backend/notifier"
	"invoice-intake-backend/utils"
)

// InvoiceController handles the invoice intake API. The store and notifier
// are constructed once at startup and injected here; handlers never reach for
// ambient state.
type InvoiceController struct {
	store        database.Store
	notifier     notifier.Notifier
	billingEmail string
}

func NewInvoiceController(store database.Store, n notifier.Notifier, billingEmail string) *InvoiceController {
	return &InvoiceController{store: store, notifier: n, billingEmail: billingEmail}
}

type submissionContractor struct {
	Name    string `json:"name" validate:"required"`
	Email   string `json:"email" validate:"required,email"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
}

type submissionBillTo struct {
	Company    string `json:"company" validate:"required"`
	CompanyKey string `json:"companyKey"`
	Address    string `json:"address"`
	Email      string `json:"email"`
}

type submissionInvoice struct {
	Number  string `json:"number"`
	Date    string `json:"date"`
	DueDate string `json:"dueDate"`
	Notes   string `json:"notes"`
}

type submitInvoiceRequest struct {
	BillTo        *submissionBillTo     `json:"billTo" validate:"required"`
	From          *submissionContractor `json:"from" validate:"required"`
	Invoice       *submissionInvoice    `json:"invoice"`
	InvoiceNumber string                `json:"invoiceNumber"`
	InvoiceDate   string                `json:"invoiceDate"`
	DueDate       string                `json:"dueDate"`
	Notes         string                `json:"notes"`
	LineItems     []models.LineItem     `json:"lineItems" validate:"required,min=1"`
	Total         float64               `json:"total" validate:"gte=0"`
	PDFData       string                `json:"pdfData"`
	InvoiceHTML   string                `json:"invoiceHTML"`
}

// number/date/dueDate/notes accept both the nested invoice object and the
// flat fields; the nested form wins when both are present.
func (r *submitInvoiceRequest) invoiceHeader() (number, date, dueDate, notes string) {
	number, date, dueDate, notes = r.InvoiceNumber, r.InvoiceDate, r.DueDate, r.Notes
	if r.Invoice != nil {
		if r.Invoice.Number != "" {
			number = r.Invoice.Number
		}
		if r.Invoice.Date != "" {
			date = r.Invoice.Date
		}
		if r.Invoice.DueDate != "" {
			dueDate = r.Invoice.DueDate
		}
		if r.Invoice.Notes != "" {
			notes = r.Invoice.Notes
		}
	}
	return
}

// Submit validates a submission, persists the invoice, and dispatches the
// notification. Persistence success is independent of notification success:
// a failed dispatch is logged, never rolled back.
func (ct *InvoiceController) Submit(c *fiber.Ctx) error {
	var req submitInvoiceRequest
	if err := middlewares.BindAndValidate(c, &req); err != nil {
		return err
	}

	// Decode the attachment before touching the store so a bad payload
	// rejects without persisting anything.
	var pdf []byte
	if req.PDFData != "" {
		var err error
		pdf, err = base64.StdEncoding.DecodeString(stripDataURL(req.PDFData))
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "pdfData is not valid base64")
		}
	}

	number, date, dueDate, notes := req.invoiceHeader()
	if number == "" {
		var err error
		number, err = ct.store.NextInvoiceNumber()
		if err != nil {
			return err
		}
	}
	if date == "" {
		date = time.Now().Format("2006-01-02")
	}

	blob, err := models.EncodeLineItems(req.LineItems)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid line items")
	}

	inv := &models.Invoice{
		InvoiceNumber:     strings.TrimSpace(number),
		ContractorName:    strings.TrimSpace(req.From.Name),
		ContractorEmail:   strings.ToLower(strings.TrimSpace(req.From.Email)),
		ContractorPhone:   optional(req.From.Phone),
		ContractorAddress: optional(req.From.Address),
		CompanyKey:        optional(req.BillTo.CompanyKey),
		CompanyName:       strings.TrimSpace(req.BillTo.Company),
		CompanyAddress:    optional(req.BillTo.Address),
		CompanyEmail:      optional(req.BillTo.Email),
		InvoiceDate:       date,
		DueDate:           optional(dueDate),
		Notes:             optional(notes),
		Total:             utils.Round2(req.Total),
		LineItems:         blob,
	}

	id, err := ct.store.Save(inv)
	if err != nil {
		return err
	}

	msg := notifier.Message{
		To:      ct.billingEmail,
		ReplyTo: inv.ContractorEmail,
		Subject: notifier.Subject(inv),
		Text:    notifier.Render(inv, req.LineItems),
		HTML:    req.InvoiceHTML,
		PDF:     pdf,
	}
	if err := ct.notifier.Send(c.UserContext(), msg); err != nil {
		log.Error().Err(err).
			Str("invoice_number", inv.InvoiceNumber).
			Msg("invoice notification failed")
	}

	return c.JSON(fiber.Map{
		"success":       true,
		"invoiceNumber": inv.InvoiceNumber,
		"invoiceId":     id,
	})
}

// NextInvoiceNumber previews the next number without reserving it.
func (ct *InvoiceController) NextInvoiceNumber(c *fiber.Ctx) error {
	number, err := ct.store.NextInvoiceNumber()
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"invoiceNumber": number})
}

// List pages through all invoices, most recent first.
func (ct *InvoiceController) List(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", database.DefaultListLimit)
	offset := c.QueryInt("offset", 0)
	invoices, err := ct.store.ListAll(limit, offset)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"count":    len(invoices),
		"invoices": invoices,
	})
}

// ByCompany lists invoices for a company key with count and amount rollup.
func (ct *InvoiceController) ByCompany(c *fiber.Ctx) error {
	key := c.Query("company")
	if key == "" {
		return fiber.NewError(fiber.StatusBadRequest, "company query parameter is required")
	}
	invoices, err := ct.store.ListByCompanyKey(key)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"company":     key,
		"count":       len(invoices),
		"totalAmount": sumTotals(invoices),
		"invoices":    invoices,
	})
}

// ByContractor lists invoices for a contractor email, same envelope shape.
func (ct *InvoiceController) ByContractor(c *fiber.Ctx) error {
	email := c.Query("email")
	if email == "" {
		return fiber.NewError(fiber.StatusBadRequest, "email query parameter is required")
	}
	invoices, err := ct.store.ListByContractorEmail(email)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"email":       email,
		"count":       len(invoices),
		"totalAmount": sumTotals(invoices),
		"invoices":    invoices,
	})
}

// GetByNumber looks up a single invoice; absence is a 404, not an error.
func (ct *InvoiceController) GetByNumber(c *fiber.Ctx) error {
	inv, err := ct.store.GetByNumber(c.Params("number"))
	if err != nil {
		return err
	}
	if inv == nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "invoice not found"})
	}
	return c.JSON(inv)
}

type updateStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

// UpdateStatus mutates the only mutable field. Unknown numbers are a no-op.
func (ct *InvoiceController) UpdateStatus(c *fiber.Ctx) error {
	var req updateStatusRequest
	if err := middlewares.BindAndValidate(c, &req); err != nil {
		return err
	}
	if err := ct.store.UpdateStatus(c.Params("number"), req.Status); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true})
}

// Stats returns the aggregate view over all invoices.
func (ct *InvoiceController) Stats(c *fiber.Ctx) error {
	st, err := ct.store.Stats()
	if err != nil {
		return err
	}
	return c.JSON(st)
}

func sumTotals(invoices []models.Invoice) float64 {
	var sum float64
	for _, inv := range invoices {
		sum += inv.Total
	}
	return utils.Round2(sum)
}

// optional maps empty strings to NULL columns.
func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

// stripDataURL drops a data:application/pdf;base64, prefix if the client
// sent one.
func stripDataURL(s string) string {
	if i := strings.Index(s, ","); i >= 0 && strings.HasPrefix(s, "data:") {
		return s[i+1:]
	}
	return s
}
