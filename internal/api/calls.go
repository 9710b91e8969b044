package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/bizvoice/console/internal/server"
	"github.com/bizvoice/console/internal/voice"
)

// CallHandler serves the voice-call lifecycle.
type CallHandler struct {
	manager *voice.Manager
}

type startCallRequest struct {
	UserID      string `json:"user_id"`
	SessionType string `json:"session_type"`
}

type callResponse struct {
	ID          string      `json:"id"`
	State       voice.State `json:"state"`
	Error       string      `json:"error,omitempty"`
	VendorID    string      `json:"vendor_call_id,omitempty"`
	UserID      string      `json:"user_id"`
	SessionType string      `json:"session_type"`
}

func toCallResponse(call *voice.Call) callResponse {
	state, errMsg := call.Controller.State()
	return callResponse{
		ID:          call.ID,
		State:       state,
		Error:       errMsg,
		VendorID:    call.Controller.CallID(),
		UserID:      call.UserID,
		SessionType: call.SessionType,
	}
}

// Start opens a new call. A failed start still returns the call in its error
// state with 502, so the client can show the message and retry.
func (h *CallHandler) Start(w http.ResponseWriter, r *http.Request) {
	var req startCallRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.UserID == "" {
		respondError(w, http.StatusBadRequest, "user_id is required")
		return
	}
	if req.SessionType == "" {
		req.SessionType = "business_consultation"
	}

	call, err := h.manager.StartCall(r.Context(), req.UserID, req.SessionType)
	if err != nil {
		server.AddError(r.Context(), err)
		respondJSON(w, http.StatusBadGateway, toCallResponse(call))
		return
	}

	server.AddLogField(r.Context(), "call_id", call.ID)
	respondJSON(w, http.StatusCreated, toCallResponse(call))
}

func (h *CallHandler) Get(w http.ResponseWriter, r *http.Request) {
	call, ok := h.manager.Get(chi.URLParam(r, "id"))
	if !ok {
		respondError(w, http.StatusNotFound, "call not found")
		return
	}
	respondJSON(w, http.StatusOK, toCallResponse(call))
}

// End requests teardown. The state stays connected until the vendor's ended
// callback arrives; clients observe the transition by polling Get.
func (h *CallHandler) End(w http.ResponseWriter, r *http.Request) {
	err, ok := h.manager.EndCall(r.Context(), chi.URLParam(r, "id"))
	if !ok {
		respondError(w, http.StatusNotFound, "call not found")
		return
	}
	if err != nil {
		server.AddError(r.Context(), err)
		respondError(w, http.StatusBadGateway, err.Error())
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

// Events receives the vendor's lifecycle callbacks and feeds them into the
// call's event bridge.
func (h *CallHandler) Events(w http.ResponseWriter, r *http.Request) {
	var event voice.SessionEvent
	if !decodeJSON(w, r, &event) {
		return
	}
	if event.Kind == "" {
		respondError(w, http.StatusBadRequest, "kind is required")
		return
	}

	if !h.manager.Dispatch(chi.URLParam(r, "id"), event) {
		respondError(w, http.StatusNotFound, "call not found")
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

func (h *CallHandler) Transcript(w http.ResponseWriter, r *http.Request) {
	call, ok := h.manager.Get(chi.URLParam(r, "id"))
	if !ok {
		respondError(w, http.StatusNotFound, "call not found")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"call_id":    call.ID,
		"transcript": call.Controller.Transcript(),
	})
}

func (h *CallHandler) ClearTranscript(w http.ResponseWriter, r *http.Request) {
	call, ok := h.manager.Get(chi.URLParam(r, "id"))
	if !ok {
		respondError(w, http.StatusNotFound, "call not found")
		return
	}
	call.Controller.ClearTranscript()
	w.WriteHeader(http.StatusNoContent)
}
