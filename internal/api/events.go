package api

import (
	"net/http"

	"github.com/bizvoice/console/internal/webhook"
)

// EventHandler forwards console business events to the outbound notifier.
// Delivery is best-effort; the response reports the outcome but a failed
// webhook is never a failed request.
type EventHandler struct {
	notifier webhook.Sender
}

type deliveryResponse struct {
	Delivered bool `json:"delivered"`
}

type registrationRequest struct {
	UserID       string `json:"user_id"`
	Email        string `json:"email"`
	BusinessName string `json:"business_name"`
}

func (h *EventHandler) Registration(w http.ResponseWriter, r *http.Request) {
	var req registrationRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.UserID == "" {
		respondError(w, http.StatusBadRequest, "user_id is required")
		return
	}

	ok := h.notifier.Send(r.Context(), webhook.NewUserRegistrationEvent(req.UserID, req.Email, req.BusinessName))
	respondJSON(w, http.StatusAccepted, deliveryResponse{Delivered: ok})
}

type onboardingRequest struct {
	UserID         string   `json:"user_id"`
	CompletedSteps []string `json:"completed_steps"`
}

func (h *EventHandler) Onboarding(w http.ResponseWriter, r *http.Request) {
	var req onboardingRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.UserID == "" {
		respondError(w, http.StatusBadRequest, "user_id is required")
		return
	}

	ok := h.notifier.Send(r.Context(), webhook.NewOnboardingCompletionEvent(req.UserID, req.CompletedSteps))
	respondJSON(w, http.StatusAccepted, deliveryResponse{Delivered: ok})
}

func (h *EventHandler) Consultation(w http.ResponseWriter, r *http.Request) {
	var req webhook.Consultation
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.UserID == "" || req.Topic == "" {
		respondError(w, http.StatusBadRequest, "user_id and topic are required")
		return
	}

	ok := h.notifier.Send(r.Context(), webhook.NewBusinessConsultationEvent(req))
	respondJSON(w, http.StatusAccepted, deliveryResponse{Delivered: ok})
}
