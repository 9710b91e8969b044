// Package webhook delivers business events to the external
// workflow-automation endpoint. Delivery is best-effort: callers treat the
// notifier as fire-and-forget and a failed POST never fails a user action.
package webhook

import (
	"encoding/json"
	"time"

	"github.com/bizvoice/console/internal/catalog"
)

// Kind tags an outbound event payload. The set is closed; the automation
// workflow routes on this value.
type Kind string

const (
	KindVoiceCall            Kind = "voice_call"
	KindUserRegistration     Kind = "user_registration"
	KindOnboardingCompletion Kind = "onboarding_completion"
	KindProductAction        Kind = "product_action"
	KindBusinessConsultation Kind = "business_consultation"
)

// Event is one outbound payload. Construct it with the typed helpers below
// and treat it as immutable afterwards; no retry state is tracked.
type Event struct {
	Kind      Kind
	Timestamp time.Time
	Data      map[string]any
}

// envelope is the wire shape: the event data flattened next to the tag,
// timestamp, and sender identity.
func (e Event) envelope(source, environment string) map[string]any {
	body := make(map[string]any, len(e.Data)+4)
	for k, v := range e.Data {
		body[k] = v
	}
	body["event_type"] = string(e.Kind)
	body["timestamp"] = e.Timestamp.UTC().Format(time.RFC3339)
	body["source"] = source
	body["environment"] = environment
	return body
}

// CallSummary describes a finished (or failed) voice call for logging.
type CallSummary struct {
	CallID       string        `json:"call_id"`
	AgentID      string        `json:"agent_id"`
	UserID       string        `json:"user_id"`
	Outcome      string        `json:"outcome"`
	Duration     time.Duration `json:"-"`
	Transcript   string        `json:"transcript,omitempty"`
	ErrorMessage string        `json:"error_message,omitempty"`
}

// NewVoiceCallEvent builds a voice_call event from a call summary.
func NewVoiceCallEvent(summary CallSummary) Event {
	data := structToMap(summary)
	data["duration_seconds"] = int(summary.Duration.Seconds())
	return Event{Kind: KindVoiceCall, Data: data}
}

// NewUserRegistrationEvent builds a user_registration event.
func NewUserRegistrationEvent(userID, email, businessName string) Event {
	return Event{
		Kind: KindUserRegistration,
		Data: map[string]any{
			"user_id":       userID,
			"email":         email,
			"business_name": businessName,
		},
	}
}

// NewOnboardingCompletionEvent builds an onboarding_completion event.
func NewOnboardingCompletionEvent(userID string, steps []string) Event {
	return Event{
		Kind: KindOnboardingCompletion,
		Data: map[string]any{
			"user_id":         userID,
			"completed_steps": steps,
		},
	}
}

// NewProductActionEvent builds a product_action event carrying the mutated
// record and, for updates, the previous values.
func NewProductActionEvent(action catalog.Action, product catalog.Product, previous *catalog.Product) Event {
	data := map[string]any{
		"action":  string(action),
		"product": structToMap(product),
	}
	if previous != nil {
		data["previous"] = structToMap(*previous)
	}
	return Event{Kind: KindProductAction, Data: data}
}

// Consultation describes a business-consultation request from the console.
type Consultation struct {
	UserID       string `json:"user_id"`
	Topic        string `json:"topic"`
	Notes        string `json:"notes,omitempty"`
	ContactEmail string `json:"contact_email,omitempty"`
}

// NewBusinessConsultationEvent builds a business_consultation event.
func NewBusinessConsultationEvent(c Consultation) Event {
	return Event{Kind: KindBusinessConsultation, Data: structToMap(c)}
}

// structToMap round-trips a value through JSON to get its wire-shaped map.
func structToMap(v any) map[string]any {
	raw, err := json.Marshal(v)
	if err != nil {
		return map[string]any{}
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return map[string]any{}
	}
	return m
}
