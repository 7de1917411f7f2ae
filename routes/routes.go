package routes

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"invoice-intake-backend/controllers"
	"invoice-intake-backend/middlewares"
)

// Register wires all HTTP routes.
func Register(app *fiber.App, invoices *controllers.InvoiceController) {
	api := app.Group("/api")

	api.Get("/next-invoice-number", invoices.NextInvoiceNumber)

	// Replay guard FIRST so a double-submitted form returns the stored
	// response instead of creating a second invoice.
	api.Post("/submit-invoice", middlewares.Idempotency(30*time.Minute), invoices.Submit)

	api.Get("/invoices", invoices.List)
	api.Get("/invoices/by-company", invoices.ByCompany)
	api.Get("/invoices/by-contractor", invoices.ByContractor)
	api.Get("/invoice/:number", invoices.GetByNumber)
	api.Put("/invoice/:number/status", invoices.UpdateStatus)

	api.Get("/stats", invoices.Stats)
}
