package webhook

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/bizvoice/console/internal/debuglog"
)

// FallbackNotifier wraps a Sender and mirrors payloads into the local debug
// log whenever delivery fails (or the endpoint is unreachable). Development
// convenience only; mirrored entries are never replayed.
type FallbackNotifier struct {
	next   Sender
	debug  debuglog.Store
	logger *slog.Logger
}

// NewFallbackNotifier wraps next with debug-log mirroring.
func NewFallbackNotifier(next Sender, debug debuglog.Store, logger *slog.Logger) *FallbackNotifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &FallbackNotifier{next: next, debug: debug, logger: logger}
}

// Send delegates to the wrapped sender and, on failure, appends the payload
// to the debug log. The reported outcome is the wrapped sender's.
func (f *FallbackNotifier) Send(ctx context.Context, event Event) bool {
	ok := f.next.Send(ctx, event)
	if ok {
		return true
	}

	payload, err := json.Marshal(event.Data)
	if err != nil {
		payload = []byte("{}")
	}
	if err := f.debug.Append(ctx, debuglog.Entry{
		EventType: string(event.Kind),
		Payload:   payload,
	}); err != nil {
		f.logger.Warn("debug log append failed",
			slog.String("event_type", string(event.Kind)),
			slog.String("error", err.Error()))
	}
	return false
}

// SendBatch mirrors Notifier.SendBatch: every event is attempted.
func (f *FallbackNotifier) SendBatch(ctx context.Context, events []Event) []bool {
	results := make([]bool, len(events))
	for i, ev := range events {
		results[i] = f.Send(ctx, ev)
	}
	return results
}

var _ Sender = (*FallbackNotifier)(nil)
