package notifier

import (
	"fmt"
	"strconv"
	"strings"

	"invoice-intake-backend/models"
	"invoice-intake-backend/utils"
)

// Subject builds the notification subject line for an invoice.
func Subject(inv *models.Invoice) string {
	return fmt.Sprintf("New Invoice Submission - %s from %s", inv.InvoiceNumber, inv.ContractorName)
}

// Render builds the plain-text notification body: header, contractor block,
// billing block, line items, total, and notes when present. Pure formatting,
// no side effects.
func Render(inv *models.Invoice, items []models.LineItem) string {
	var b strings.Builder

	b.WriteString("New Invoice Received\n\n")
	fmt.Fprintf(&b, "Invoice Number: %s\n", inv.InvoiceNumber)
	fmt.Fprintf(&b, "Date: %s\n", inv.InvoiceDate)
	if inv.DueDate != nil && *inv.DueDate != "" {
		fmt.Fprintf(&b, "Due Date: %s\n", *inv.DueDate)
	}

	b.WriteString("\nFROM:\n")
	fmt.Fprintf(&b, "%s\n", inv.ContractorName)
	fmt.Fprintf(&b, "%s\n", inv.ContractorEmail)
	if inv.ContractorPhone != nil && *inv.ContractorPhone != "" {
		fmt.Fprintf(&b, "%s\n", *inv.ContractorPhone)
	}
	if inv.ContractorAddress != nil && *inv.ContractorAddress != "" {
		fmt.Fprintf(&b, "%s\n", *inv.ContractorAddress)
	}

	b.WriteString("\nBILL TO:\n")
	fmt.Fprintf(&b, "%s\n", inv.CompanyName)
	if inv.CompanyAddress != nil && *inv.CompanyAddress != "" {
		fmt.Fprintf(&b, "%s\n", *inv.CompanyAddress)
	}
	if inv.CompanyEmail != nil && *inv.CompanyEmail != "" {
		fmt.Fprintf(&b, "%s\n", *inv.CompanyEmail)
	}

	b.WriteString("\nLINE ITEMS:\n")
	for _, item := range items {
		fmt.Fprintf(&b, "%s - Qty: %s x %s = %s\n",
			item.Description, formatQuantity(item.Quantity),
			utils.FormatAmount(item.Rate), utils.FormatAmount(item.Amount))
	}

	fmt.Fprintf(&b, "\nTOTAL: %s\n", utils.FormatAmount(inv.Total))

	if inv.Notes != nil && *inv.Notes != "" {
		fmt.Fprintf(&b, "\nNOTES:\n%s\n", *inv.Notes)
	}

	b.WriteString("\n---\nThis invoice was submitted via the invoice intake service.\nPlease review and process accordingly.")
	return b.String()
}

// formatQuantity drops trailing zeros so whole quantities print without a
// decimal point.
func formatQuantity(q float64) string {
	return strconv.FormatFloat(q, 'f', -1, 64)
}
