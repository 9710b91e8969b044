package voice

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/bizvoice/console/internal/webhook"
)

// Manager tracks live call controllers, one per started call, and logs a
// voice_call summary to the outbound notifier when a call finishes or fails.
// It is constructed with injected dependencies; there are no package globals.
type Manager struct {
	tokens   TokenIssuer
	agentID  string
	notifier webhook.Sender
	logger   *slog.Logger

	mu    sync.Mutex
	calls map[string]*Call
}

// Call pairs a controller with its event bridge and request metadata.
type Call struct {
	ID          string
	UserID      string
	SessionType string
	CreatedAt   time.Time
	Controller  *Controller
	Bridge      *EventBridge
}

// NewManager creates a manager issuing tokens for agentID.
func NewManager(tokens TokenIssuer, agentID string, notifier webhook.Sender, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		tokens:   tokens,
		agentID:  agentID,
		notifier: notifier,
		logger:   logger,
		calls:    make(map[string]*Call),
	}
}

// StartCall creates a controller with a fresh bridge and starts the call.
// The call stays registered even when the start fails, so the client can
// inspect the error state and retry.
func (m *Manager) StartCall(ctx context.Context, userID, sessionType string) (*Call, error) {
	call := &Call{
		ID:          uuid.New().String(),
		UserID:      userID,
		SessionType: sessionType,
		CreatedAt:   time.Now(),
		Bridge:      NewEventBridge(),
	}

	ctrl, err := NewController(ControllerConfig{
		Tokens:      m.tokens,
		Session:     call.Bridge,
		AgentID:     m.agentID,
		UserID:      userID,
		SessionType: sessionType,
		Logger:      m.logger,
		Callbacks: Callbacks{
			OnCallEnd: func() { m.logSummary(call, "completed", "") },
			OnError:   func(err error) { m.logSummary(call, "failed", err.Error()) },
		},
	})
	if err != nil {
		return nil, err
	}
	call.Controller = ctrl

	m.mu.Lock()
	m.calls[call.ID] = call
	m.mu.Unlock()

	startErr := ctrl.StartCall(ctx)
	return call, startErr
}

// Get returns the call by id.
func (m *Manager) Get(id string) (*Call, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	call, ok := m.calls[id]
	return call, ok
}

// Dispatch feeds a vendor callback event into the call's bridge. It reports
// whether the call exists and a handler consumed the event.
func (m *Manager) Dispatch(id string, event SessionEvent) bool {
	call, ok := m.Get(id)
	if !ok {
		return false
	}
	return call.Bridge.Dispatch(event)
}

// EndCall requests teardown of the call's session. The second result reports
// whether the call exists.
func (m *Manager) EndCall(ctx context.Context, id string) (error, bool) {
	call, ok := m.Get(id)
	if !ok {
		return nil, false
	}
	return call.Controller.EndCall(ctx), true
}

// CloseCall detaches the call's controller and forgets the call.
func (m *Manager) CloseCall(id string) bool {
	m.mu.Lock()
	call, ok := m.calls[id]
	if ok {
		delete(m.calls, id)
	}
	m.mu.Unlock()

	if !ok {
		return false
	}
	if err := call.Controller.Close(); err != nil {
		m.logger.Warn("controller close failed",
			slog.String("call_id", id),
			slog.String("error", err.Error()))
	}
	return true
}

// Close tears down every live controller.
func (m *Manager) Close() {
	m.mu.Lock()
	calls := make([]*Call, 0, len(m.calls))
	for _, c := range m.calls {
		calls = append(calls, c)
	}
	m.calls = make(map[string]*Call)
	m.mu.Unlock()

	for _, c := range calls {
		if err := c.Controller.Close(); err != nil {
			m.logger.Warn("controller close failed",
				slog.String("call_id", c.ID),
				slog.String("error", err.Error()))
		}
	}
}

// logSummary fires the best-effort voice_call webhook for a finished or
// failed call.
func (m *Manager) logSummary(call *Call, outcome, errMsg string) {
	if m.notifier == nil {
		return
	}

	var lines []string
	for _, u := range call.Controller.Transcript() {
		lines = append(lines, string(u.Role)+": "+u.Text)
	}

	m.notifier.Send(context.Background(), webhook.NewVoiceCallEvent(webhook.CallSummary{
		CallID:       call.Controller.CallID(),
		AgentID:      m.agentID,
		UserID:       call.UserID,
		Outcome:      outcome,
		Duration:     call.Controller.Duration(),
		Transcript:   strings.Join(lines, "\n"),
		ErrorMessage: errMsg,
	}))
}
