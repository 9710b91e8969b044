package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"time"
)

const defaultTimeout = 10 * time.Second

// Sender is the outbound-notification capability. Send reports whether the
// endpoint acknowledged the event with a 2xx; it never returns an error.
type Sender interface {
	Send(ctx context.Context, event Event) bool
}

// Notifier POSTs events to a fixed workflow-automation endpoint.
type Notifier struct {
	url         string
	source      string
	environment string
	client      *http.Client
	logger      *slog.Logger
	now         func() time.Time
}

// NotifierOption configures the notifier.
type NotifierOption func(*Notifier)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(client *http.Client) NotifierOption {
	return func(n *Notifier) {
		n.client = client
	}
}

// WithLogger sets the notifier logger.
func WithLogger(logger *slog.Logger) NotifierOption {
	return func(n *Notifier) {
		n.logger = logger
	}
}

// WithClock overrides the time source, for tests.
func WithClock(now func() time.Time) NotifierOption {
	return func(n *Notifier) {
		n.now = now
	}
}

// NewNotifier creates a notifier targeting url. Source and environment are
// stamped into every envelope so the workflow can tell deployments apart.
func NewNotifier(url, source, environment string, opts ...NotifierOption) *Notifier {
	n := &Notifier{
		url:         url,
		source:      source,
		environment: environment,
		client:      &http.Client{Timeout: defaultTimeout},
		logger:      slog.Default(),
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Send stamps a timestamp when absent, serializes the envelope, and issues a
// single POST. Transport failures and non-2xx statuses are logged at warn and
// reported as false; nothing propagates to the caller.
func (n *Notifier) Send(ctx context.Context, event Event) bool {
	if n.url == "" {
		n.logger.Warn("webhook endpoint not configured, dropping event",
			slog.String("event_type", string(event.Kind)))
		return false
	}

	if event.Timestamp.IsZero() {
		event.Timestamp = n.now()
	}

	body, err := json.Marshal(event.envelope(n.source, n.environment))
	if err != nil {
		n.logger.Warn("webhook payload not serializable",
			slog.String("event_type", string(event.Kind)),
			slog.String("error", err.Error()))
		return false
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.url, bytes.NewReader(body))
	if err != nil {
		n.logger.Warn("webhook request creation failed",
			slog.String("event_type", string(event.Kind)),
			slog.String("error", err.Error()))
		return false
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		n.logger.Warn("webhook delivery failed",
			slog.String("event_type", string(event.Kind)),
			slog.String("error", err.Error()))
		return false
	}
	defer resp.Body.Close()
	// Drain so the connection can be reused; the body carries no contract.
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		n.logger.Warn("webhook rejected event",
			slog.String("event_type", string(event.Kind)),
			slog.Int("status", resp.StatusCode))
		return false
	}

	n.logger.Debug("webhook delivered",
		slog.String("event_type", string(event.Kind)))
	return true
}

// SendBatch issues one independent request per event. Every event is
// attempted regardless of earlier failures; the result slice is positional.
func (n *Notifier) SendBatch(ctx context.Context, events []Event) []bool {
	results := make([]bool, len(events))
	for i, ev := range events {
		results[i] = n.Send(ctx, ev)
	}
	return results
}

var _ Sender = (*Notifier)(nil)
