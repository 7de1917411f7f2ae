// Package notifier dispatches invoice notifications. Dispatch is a capability
// with two implementations: real SMTP transport when credentials are
// configured, and a log-only fallback otherwise. The choice is made once at
// startup, never inline in request handling.
package notifier

import "context"

// Message is a fully rendered notification ready for dispatch.
type Message struct {
	To      string
	ReplyTo string
	Subject string
	Text    string
	HTML    string // optional styled body, client-supplied
	PDF     []byte // optional attachment
}

// Notifier dispatches a rendered notification.
type Notifier interface {
	Send(ctx context.Context, msg Message) error
}

// Config carries the SMTP transport settings.
type Config struct {
	Host string
	Port int
	User string
	Pass string
}
