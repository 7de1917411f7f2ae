package notifier

import (
	"context"

	"github.com/rs/zerolog"
)

// LogNotifier writes the notification to the log instead of dispatching it.
// Used when SMTP credentials are not configured.
type LogNotifier struct {
	log zerolog.Logger
}

func NewLogNotifier(log zerolog.Logger) *LogNotifier {
	return &LogNotifier{log: log}
}

func (n *LogNotifier) Send(_ context.Context, msg Message) error {
	n.log.Info().
		Str("to", msg.To).
		Str("reply_to", msg.ReplyTo).
		Str("subject", msg.Subject).
		Int("attachment_bytes", len(msg.PDF)).
		Msg("smtp not configured, invoice notification logged")
	n.log.Debug().Msg(msg.Text)
	return nil
}
