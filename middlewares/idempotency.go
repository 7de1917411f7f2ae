package middlewares

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
)

// idempotencyEntry stores the first completed response for a key.
type idempotencyEntry struct {
	requestHash string
	status      int
	contentType []byte
	body        []byte
	done        bool
	storedAt    time.Time
}

// Idempotency replays the stored response when a mutating request repeats an
// Idempotency-Key with an identical body, so a double-submitted form does not
// create two invoices. Entries live in process memory and expire after ttl.
func Idempotency(ttl time.Duration) fiber.Handler {
	var mu sync.Mutex
	entries := make(map[string]*idempotencyEntry)

	return func(c *fiber.Ctx) error {
		method := strings.ToUpper(c.Method())
		if method != fiber.MethodPost && method != fiber.MethodPut && method != fiber.MethodPatch && method != fiber.MethodDelete {
			return c.Next()
		}

		key := strings.TrimSpace(c.Get("Idempotency-Key"))
		if key == "" {
			return c.Next()
		}
		if len(key) > 128 {
			return fiber.NewError(fiber.StatusBadRequest, "Idempotency-Key too long")
		}

		// Deterministic request hash: method|path|body
		h := sha256.New()
		h.Write([]byte(method))
		h.Write([]byte{'\n'})
		h.Write([]byte(c.OriginalURL()))
		h.Write([]byte{'\n'})
		h.Write(c.Body())
		reqHash := hex.EncodeToString(h.Sum(nil))

		mu.Lock()
		for k, e := range entries {
			if time.Since(e.storedAt) > ttl {
				delete(entries, k)
			}
		}
		if e, ok := entries[key]; ok {
			if e.requestHash != reqHash {
				mu.Unlock()
				return fiber.NewError(fiber.StatusConflict, "Idempotency-Key reuse with different request")
			}
			if e.done {
				status, ct, body := e.status, e.contentType, e.body
				mu.Unlock()
				c.Status(status)
				if len(ct) > 0 {
					c.Response().Header.SetContentTypeBytes(ct)
				}
				return c.Send(body)
			}
			// In-flight: fall through and run the handler again rather than
			// blocking; the store's uniqueness check is the backstop.
		} else {
			entries[key] = &idempotencyEntry{requestHash: reqHash, storedAt: time.Now()}
		}
		mu.Unlock()

		if err := c.Next(); err != nil {
			return err
		}

		resp := c.Response()
		body := make([]byte, len(resp.Body()))
		copy(body, resp.Body())
		ct := make([]byte, len(resp.Header.ContentType()))
		copy(ct, resp.Header.ContentType())

		mu.Lock()
		if e, ok := entries[key]; ok {
			e.status = resp.StatusCode()
			e.contentType = ct
			e.body = body
			e.done = true
			e.storedAt = time.Now()
		}
		mu.Unlock()
		return nil
	}
}
