// Package api exposes the console's REST surface.
package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/bizvoice/console/internal/catalog"
	"github.com/bizvoice/console/internal/debuglog"
	"github.com/bizvoice/console/internal/voice"
	"github.com/bizvoice/console/internal/webhook"
)

// Deps carries the constructed services the handlers work against.
type Deps struct {
	Store    *catalog.Store
	Calls    *voice.Manager
	Notifier webhook.Sender
	Debug    debuglog.Store
	// DebugRoutes exposes the webhook mirror endpoints; leave false in
	// production.
	DebugRoutes bool
}

// Mount attaches all console routes to the router.
func Mount(r chi.Router, deps Deps) {
	r.Get("/healthz", handleHealth)

	products := &ProductHandler{store: deps.Store}
	r.Route("/v1/products", func(r chi.Router) {
		r.Get("/", products.List)
		r.Post("/", products.Create)
		r.Get("/low-stock", products.LowStock)
		r.Get("/stats", products.Stats)
		r.Get("/{id}", products.Get)
		r.Patch("/{id}", products.Update)
		r.Delete("/{id}", products.Delete)
	})

	calls := &CallHandler{manager: deps.Calls}
	r.Route("/v1/calls", func(r chi.Router) {
		r.Post("/", calls.Start)
		r.Get("/{id}", calls.Get)
		r.Post("/{id}/end", calls.End)
		r.Post("/{id}/events", calls.Events)
		r.Get("/{id}/transcript", calls.Transcript)
		r.Delete("/{id}/transcript", calls.ClearTranscript)
	})

	events := &EventHandler{notifier: deps.Notifier}
	r.Route("/v1/events", func(r chi.Router) {
		r.Post("/registration", events.Registration)
		r.Post("/onboarding", events.Onboarding)
		r.Post("/consultation", events.Consultation)
	})

	if deps.DebugRoutes {
		debug := &DebugHandler{store: deps.Debug}
		r.Route("/v1/debug/webhooks", func(r chi.Router) {
			r.Get("/", debug.Recent)
			r.Delete("/", debug.Clear)
		})
	}
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// errorResponse is the error body shape for all endpoints.
type errorResponse struct {
	Error string `json:"error"`
}

func respondJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func respondError(w http.ResponseWriter, status int, msg string) {
	respondJSON(w, status, errorResponse{Error: msg})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return false
	}
	return true
}
