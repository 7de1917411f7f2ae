package controllers_test

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"invoice-intake-backend/controllers"
	"invoice-intake-backend/database"
	"invoice-intake-backend/middlewares"
	"invoice-intake-backend/notifier"
	"invoice-intake-backend/routes"
)

// capturingNotifier records dispatched messages instead of sending them.
type capturingNotifier struct {
	mu   sync.Mutex
	msgs []notifier.Message
}

func (n *capturingNotifier) Send(_ context.Context, msg notifier.Message) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.msgs = append(n.msgs, msg)
	return nil
}

func (n *capturingNotifier) messages() []notifier.Message {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]notifier.Message(nil), n.msgs...)
}

func setupApp(t *testing.T) (*fiber.App, database.Store, *capturingNotifier) {
	t.Helper()
	store, err := database.NewFileStore(filepath.Join(t.TempDir(), "invoices.json"))
	require.NoError(t, err)

	captured := &capturingNotifier{}
	app := fiber.New(fiber.Config{ErrorHandler: middlewares.ErrorHandler})
	routes.Register(app, controllers.NewInvoiceController(store, captured, "billing@intake.test"))
	return app, store, captured
}

func submissionBody(overrides map[string]any) string {
	payload := map[string]any{
		"billTo": map[string]any{
			"company":    "Acme Corp",
			"companyKey": "acme",
			"address":    "1 Acme Way",
			"email":      "ap@acme.test",
		},
		"from": map[string]any{
			"name":    "Jane Doe",
			"email":   "Jane@Contractor.Test",
			"phone":   "+1 555 0100",
			"address": "12 Main St",
		},
		"invoice": map[string]any{
			"date":    "2026-03-10",
			"dueDate": "2026-04-10",
			"notes":   "net 30",
		},
		"lineItems": []map[string]any{
			{"description": "Consulting", "quantity": 2, "rate": 50, "amount": 100},
		},
		"total": 100.0,
	}
	for k, v := range overrides {
		if v == nil {
			delete(payload, k)
		} else {
			payload[k] = v
		}
	}
	raw, _ := json.Marshal(payload)
	return string(raw)
}

func doJSON(t *testing.T, app *fiber.App, method, url, body string) (*http.Response, map[string]any) {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, url, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var decoded map[string]any
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &decoded), "body: %s", raw)
	}
	return resp, decoded
}

func TestSubmitInvoice(t *testing.T) {
	app, store, captured := setupApp(t)

	resp, body := doJSON(t, app, fiber.MethodPost, "/api/submit-invoice", submissionBody(nil))
	require.Equal(t, http.StatusOK, resp.StatusCode)

	assert.Equal(t, true, body["success"])
	number, _ := body["invoiceNumber"].(string)
	assert.Regexp(t, `^INV-\d{4}-0001$`, number)
	assert.EqualValues(t, 1, body["invoiceId"])

	saved, err := store.GetByNumber(number)
	require.NoError(t, err)
	require.NotNil(t, saved)
	assert.Equal(t, "jane@contractor.test", saved.ContractorEmail)
	assert.Equal(t, "submitted", saved.Status)
	require.NotNil(t, saved.CompanyKey)
	assert.Equal(t, "acme", *saved.CompanyKey)
	assert.Equal(t, "2026-03-10", saved.InvoiceDate)

	msgs := captured.messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, "billing@intake.test", msgs[0].To)
	assert.Equal(t, "jane@contractor.test", msgs[0].ReplyTo)
	assert.Contains(t, msgs[0].Subject, number)
	assert.Contains(t, msgs[0].Text, "TOTAL: $100.00")
}

func TestSubmitInvoiceClientNumberWins(t *testing.T) {
	app, _, _ := setupApp(t)

	resp, body := doJSON(t, app, fiber.MethodPost, "/api/submit-invoice",
		submissionBody(map[string]any{"invoiceNumber": "INV-2026-0077"}))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "INV-2026-0077", body["invoiceNumber"])
}

func TestSubmitInvoiceMissingLineItems(t *testing.T) {
	app, store, captured := setupApp(t)

	resp, body := doJSON(t, app, fiber.MethodPost, "/api/submit-invoice",
		submissionBody(map[string]any{"lineItems": nil}))
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.NotEmpty(t, body["error"])

	// Nothing persisted, nothing dispatched.
	invoices, err := store.ListAll(0, 0)
	require.NoError(t, err)
	assert.Empty(t, invoices)
	assert.Empty(t, captured.messages())
}

func TestSubmitInvoiceMissingParties(t *testing.T) {
	app, store, _ := setupApp(t)

	for _, field := range []string{"billTo", "from"} {
		resp, _ := doJSON(t, app, fiber.MethodPost, "/api/submit-invoice",
			submissionBody(map[string]any{field: nil}))
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode, "missing %s", field)
	}

	invoices, err := store.ListAll(0, 0)
	require.NoError(t, err)
	assert.Empty(t, invoices)
}

func TestSubmitInvoiceDuplicateNumber(t *testing.T) {
	app, _, _ := setupApp(t)
	body := submissionBody(map[string]any{"invoiceNumber": "INV-2026-0500"})

	resp, _ := doJSON(t, app, fiber.MethodPost, "/api/submit-invoice", body)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, decoded := doJSON(t, app, fiber.MethodPost, "/api/submit-invoice", body)
	require.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "invoice number already exists", decoded["error"])
}

func TestSubmitInvoiceBadPDFData(t *testing.T) {
	app, store, _ := setupApp(t)

	resp, _ := doJSON(t, app, fiber.MethodPost, "/api/submit-invoice",
		submissionBody(map[string]any{"pdfData": "%%% not base64 %%%"}))
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	invoices, err := store.ListAll(0, 0)
	require.NoError(t, err)
	assert.Empty(t, invoices)
}

func TestNextInvoiceNumberEndpoint(t *testing.T) {
	app, _, _ := setupApp(t)

	resp, body := doJSON(t, app, fiber.MethodGet, "/api/next-invoice-number", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	number, _ := body["invoiceNumber"].(string)
	assert.Regexp(t, `^INV-\d{4}-0001$`, number)
}

func TestByCompanyEndpoint(t *testing.T) {
	app, _, _ := setupApp(t)

	resp, body := doJSON(t, app, fiber.MethodGet, "/api/invoices/by-company", "")
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.NotEmpty(t, body["error"])

	for i := 0; i < 2; i++ {
		resp, _ := doJSON(t, app, fiber.MethodPost, "/api/submit-invoice",
			submissionBody(map[string]any{"invoiceNumber": fmt.Sprintf("INV-2026-0%03d", i+1)}))
		require.Equal(t, http.StatusOK, resp.StatusCode)
	}

	resp, body = doJSON(t, app, fiber.MethodGet, "/api/invoices/by-company?company=acme", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "acme", body["company"])
	assert.EqualValues(t, 2, body["count"])
	assert.InDelta(t, 200, body["totalAmount"].(float64), 0.001)
	assert.Len(t, body["invoices"], 2)

	resp, body = doJSON(t, app, fiber.MethodGet, "/api/invoices/by-company?company=nobody", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.EqualValues(t, 0, body["count"])
}

func TestGetByNumberEndpoint(t *testing.T) {
	app, _, _ := setupApp(t)

	resp, _ := doJSON(t, app, fiber.MethodGet, "/api/invoice/INV-2026-0001", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	doJSON(t, app, fiber.MethodPost, "/api/submit-invoice",
		submissionBody(map[string]any{"invoiceNumber": "INV-2026-0001"}))

	resp, body := doJSON(t, app, fiber.MethodGet, "/api/invoice/INV-2026-0001", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "INV-2026-0001", body["invoice_number"])
}

func TestUpdateStatusEndpoint(t *testing.T) {
	app, store, _ := setupApp(t)

	doJSON(t, app, fiber.MethodPost, "/api/submit-invoice",
		submissionBody(map[string]any{"invoiceNumber": "INV-2026-0001"}))

	resp, body := doJSON(t, app, fiber.MethodPut, "/api/invoice/INV-2026-0001/status", `{"status":"paid"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, true, body["success"])

	saved, err := store.GetByNumber("INV-2026-0001")
	require.NoError(t, err)
	require.NotNil(t, saved)
	assert.Equal(t, "paid", saved.Status)

	// Unknown numbers are a no-op, still 200.
	resp, _ = doJSON(t, app, fiber.MethodPut, "/api/invoice/INV-2026-9999/status", `{"status":"paid"}`)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestStatsEndpoint(t *testing.T) {
	app, _, _ := setupApp(t)

	doJSON(t, app, fiber.MethodPost, "/api/submit-invoice",
		submissionBody(map[string]any{"invoiceNumber": "INV-2026-0001", "total": 100.0}))
	doJSON(t, app, fiber.MethodPost, "/api/submit-invoice",
		submissionBody(map[string]any{"invoiceNumber": "INV-2026-0002", "total": 250.50}))

	resp, body := doJSON(t, app, fiber.MethodGet, "/api/stats", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.EqualValues(t, 2, body["totalCount"])
	assert.InDelta(t, 350.50, body["totalAmount"].(float64), 0.001)
}
