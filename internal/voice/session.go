// Package voice owns the conversational-voice call lifecycle: issuing
// short-lived access tokens against the vendor API, tracking per-call session
// state, and relaying session events to registered callbacks.
package voice

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// DefaultSampleRate is the audio sample rate requested from the vendor.
const DefaultSampleRate = 24000

// EventKind identifies a session event channel.
type EventKind string

const (
	EventStarted EventKind = "call_started"
	EventEnded   EventKind = "call_ended"
	EventError   EventKind = "call_error"
	EventUpdate  EventKind = "call_update"
)

// Role tags a transcript utterance speaker.
type Role string

const (
	RoleAgent Role = "agent"
	RoleUser  Role = "user"
)

// Utterance is one speaker-tagged line of the call transcript.
type Utterance struct {
	Role      Role      `json:"role"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

// SessionEvent is one occurrence on a session event channel. Update events
// carry the vendor's latest full transcript snapshot, never a diff.
type SessionEvent struct {
	Kind       EventKind   `json:"kind"`
	Message    string      `json:"message,omitempty"`
	Transcript []Utterance `json:"transcript,omitempty"`
}

// Handler consumes events of one kind.
type Handler func(SessionEvent)

// SessionConfig configures a session start.
type SessionConfig struct {
	AccessToken  string
	SampleRate   int
	EnableUpdate bool
}

// Session is the capability surface of the vendor's realtime client. The
// controller depends only on this, so it is testable without the vendor.
type Session interface {
	StartSession(ctx context.Context, cfg SessionConfig) error
	EndSession(ctx context.Context) error
	Subscribe(kind EventKind, handler Handler)
	Unsubscribe(kind EventKind)
}

// EventBridge is the production Session. Audio transport is handled entirely
// by the vendor's browser SDK; the backend sees the call lifecycle as inbound
// HTTP callbacks, which the API layer feeds into Dispatch.
type EventBridge struct {
	mu       sync.RWMutex
	handlers map[EventKind]Handler
	active   bool
}

// NewEventBridge creates a bridge with no subscriptions.
func NewEventBridge() *EventBridge {
	return &EventBridge{handlers: make(map[EventKind]Handler)}
}

// StartSession marks the session live. The access token is not used locally;
// the vendor validated it when the browser client connected.
func (b *EventBridge) StartSession(_ context.Context, cfg SessionConfig) error {
	if cfg.AccessToken == "" {
		return fmt.Errorf("session requires an access token")
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.active {
		return fmt.Errorf("session already active")
	}
	b.active = true
	return nil
}

// EndSession requests teardown. The state transition itself happens when the
// vendor's ended callback arrives through Dispatch.
func (b *EventBridge) EndSession(context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.active = false
	return nil
}

// Subscribe registers the handler for one event kind, replacing any previous
// handler for that kind.
func (b *EventBridge) Subscribe(kind EventKind, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[kind] = handler
}

// Unsubscribe detaches the handler for one event kind.
func (b *EventBridge) Unsubscribe(kind EventKind) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.handlers, kind)
}

// Dispatch delivers an event to its subscribed handler, if any, and reports
// whether a handler consumed it. Handlers run synchronously on the caller.
func (b *EventBridge) Dispatch(event SessionEvent) bool {
	b.mu.RLock()
	handler, ok := b.handlers[event.Kind]
	b.mu.RUnlock()

	if !ok {
		return false
	}
	handler(event)
	return true
}

var _ Session = (*EventBridge)(nil)
