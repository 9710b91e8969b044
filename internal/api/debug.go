package api

import (
	"net/http"
	"strconv"

	"github.com/bizvoice/console/internal/debuglog"
)

// DebugHandler exposes the development-only webhook mirror.
type DebugHandler struct {
	store debuglog.Store
}

func (h *DebugHandler) Recent(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			respondError(w, http.StatusBadRequest, "limit must be a non-negative integer")
			return
		}
		limit = n
	}

	entries, err := h.store.Recent(r.Context(), limit)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to read debug log")
		return
	}
	if entries == nil {
		entries = []debuglog.Entry{}
	}
	respondJSON(w, http.StatusOK, entries)
}

func (h *DebugHandler) Clear(w http.ResponseWriter, r *http.Request) {
	if err := h.store.Clear(r.Context()); err != nil {
		respondError(w, http.StatusInternalServerError, "failed to clear debug log")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
