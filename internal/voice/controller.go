package voice

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// State is the call session state.
type State string

const (
	StateInactive   State = "inactive"
	StateConnecting State = "connecting"
	StateConnected  State = "connected"
	StateError      State = "error"
)

// Callbacks are optional hooks invoked exactly once per event occurrence.
type Callbacks struct {
	OnCallStart  func()
	OnCallEnd    func()
	OnError      func(err error)
	OnTranscript func(transcript []Utterance)
}

// ControllerConfig wires a controller instance.
type ControllerConfig struct {
	Tokens      TokenIssuer
	Session     Session
	AgentID     string
	UserID      string
	SessionType string
	Callbacks   Callbacks
	Logger      *slog.Logger
}

// Controller owns a single active call's lifecycle. It fetches the access
// token, hands it to the session, and relays session events to callbacks.
// One session at a time; a second StartCall while one is underway is a no-op.
type Controller struct {
	tokens      TokenIssuer
	session     Session
	agentID     string
	userID      string
	sessionType string
	callbacks   Callbacks
	logger      *slog.Logger

	mu         sync.Mutex
	state      State
	errMsg     string
	callID     string
	startedAt  time.Time
	endedAt    time.Time
	transcript []Utterance
	closed     bool
}

// NewController creates a controller and subscribes it, once for its
// lifetime, to the four session event channels.
func NewController(cfg ControllerConfig) (*Controller, error) {
	if cfg.Tokens == nil {
		return nil, fmt.Errorf("token issuer required")
	}
	if cfg.Session == nil {
		return nil, fmt.Errorf("session required")
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	c := &Controller{
		tokens:      cfg.Tokens,
		session:     cfg.Session,
		agentID:     cfg.AgentID,
		userID:      cfg.UserID,
		sessionType: cfg.SessionType,
		callbacks:   cfg.Callbacks,
		logger:      cfg.Logger,
		state:       StateInactive,
	}

	c.session.Subscribe(EventStarted, c.handleStarted)
	c.session.Subscribe(EventEnded, c.handleEnded)
	c.session.Subscribe(EventError, c.handleError)
	c.session.Subscribe(EventUpdate, c.handleUpdate)

	return c, nil
}

// StartCall requests an access token and opens the session. It is a no-op
// when a session is already connecting or connected, so overlapping start
// requests cause exactly one token fetch. Failures land in the error state
// with a human-readable message; there is no automatic retry.
func (c *Controller) StartCall(ctx context.Context) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return fmt.Errorf("controller closed")
	}
	if c.state == StateConnecting || c.state == StateConnected {
		c.mu.Unlock()
		return nil
	}
	// A fresh start attempt clears any previous error.
	c.state = StateConnecting
	c.errMsg = ""
	c.mu.Unlock()

	creds, err := c.tokens.CreateWebCall(ctx, &WebCallRequest{
		AgentID: c.agentID,
		Metadata: CallMetadata{
			SessionType: c.sessionType,
			Timestamp:   time.Now().UTC().Format(time.RFC3339),
			UserID:      c.userID,
		},
	})
	if err != nil {
		return c.fail(fmt.Sprintf("failed to get access token: %v", err))
	}

	c.mu.Lock()
	c.callID = creds.CallID
	c.mu.Unlock()

	err = c.session.StartSession(ctx, SessionConfig{
		AccessToken:  creds.AccessToken,
		SampleRate:   DefaultSampleRate,
		EnableUpdate: true,
	})
	if err != nil {
		return c.fail(fmt.Sprintf("failed to start session: %v", err))
	}

	c.logger.Info("call session starting",
		slog.String("call_id", creds.CallID),
		slog.String("agent_id", c.agentID),
		slog.String("user_id", c.userID),
	)
	return nil
}

// EndCall requests session teardown. It is a no-op unless the session is
// connected; the state transition to inactive happens when the ended event
// arrives, so the visible change is asynchronous relative to this call.
func (c *Controller) EndCall(ctx context.Context) error {
	c.mu.Lock()
	if c.state != StateConnected {
		c.mu.Unlock()
		return nil
	}
	c.mu.Unlock()

	if err := c.session.EndSession(ctx); err != nil {
		return fmt.Errorf("failed to end session: %w", err)
	}
	return nil
}

// ClearTranscript empties the transcript without touching session state.
func (c *Controller) ClearTranscript() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.transcript = nil
}

// State returns the current session state and, in the error state, the
// human-readable message.
func (c *Controller) State() (State, string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state, c.errMsg
}

// CallID returns the vendor call id, set once the token fetch succeeds.
func (c *Controller) CallID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.callID
}

// Transcript returns a copy of the latest transcript snapshot.
func (c *Controller) Transcript() []Utterance {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Utterance, len(c.transcript))
	copy(out, c.transcript)
	return out
}

// Duration reports how long the call has been (or was) connected.
func (c *Controller) Duration() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.startedAt.IsZero() {
		return 0
	}
	if c.endedAt.IsZero() {
		return time.Since(c.startedAt)
	}
	return c.endedAt.Sub(c.startedAt)
}

// Close detaches all event subscriptions so no listeners leak across
// controller instances, force-terminating the session if one is underway.
func (c *Controller) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	active := c.state == StateConnecting || c.state == StateConnected
	c.mu.Unlock()

	c.session.Unsubscribe(EventStarted)
	c.session.Unsubscribe(EventEnded)
	c.session.Unsubscribe(EventError)
	c.session.Unsubscribe(EventUpdate)

	if active {
		if err := c.session.EndSession(context.Background()); err != nil {
			return fmt.Errorf("failed to terminate session: %w", err)
		}
	}
	return nil
}

// fail records the error state and invokes the error callback once.
func (c *Controller) fail(msg string) error {
	c.mu.Lock()
	c.state = StateError
	c.errMsg = msg
	c.mu.Unlock()

	c.logger.Warn("call session failed", slog.String("reason", msg))
	if c.callbacks.OnError != nil {
		c.callbacks.OnError(errors.New(msg))
	}
	return errors.New(msg)
}

func (c *Controller) handleStarted(SessionEvent) {
	c.mu.Lock()
	c.state = StateConnected
	c.startedAt = time.Now()
	c.endedAt = time.Time{}
	c.mu.Unlock()

	if c.callbacks.OnCallStart != nil {
		c.callbacks.OnCallStart()
	}
}

func (c *Controller) handleEnded(SessionEvent) {
	c.mu.Lock()
	c.state = StateInactive
	c.endedAt = time.Now()
	c.mu.Unlock()

	if c.callbacks.OnCallEnd != nil {
		c.callbacks.OnCallEnd()
	}
}

func (c *Controller) handleError(ev SessionEvent) {
	msg := ev.Message
	if msg == "" {
		msg = "voice session error"
	}
	c.mu.Lock()
	c.state = StateError
	c.errMsg = msg
	c.mu.Unlock()

	c.logger.Warn("call session reported error", slog.String("reason", msg))
	if c.callbacks.OnError != nil {
		c.callbacks.OnError(errors.New(msg))
	}
}

// handleUpdate replaces the transcript wholesale with the event's snapshot;
// diffs are never merged.
func (c *Controller) handleUpdate(ev SessionEvent) {
	snapshot := make([]Utterance, len(ev.Transcript))
	copy(snapshot, ev.Transcript)

	c.mu.Lock()
	c.transcript = snapshot
	c.mu.Unlock()

	if c.callbacks.OnTranscript != nil {
		c.callbacks.OnTranscript(snapshot)
	}
}
