package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/bizvoice/console/internal/catalog"
	"github.com/bizvoice/console/internal/server"
)

// ProductHandler serves catalog CRUD and its read projections.
type ProductHandler struct {
	store *catalog.Store
}

// Create adds a product. Direct status values are not accepted; status is
// always derived from stock.
func (h *ProductHandler) Create(w http.ResponseWriter, r *http.Request) {
	var fields catalog.Fields
	if !decodeJSON(w, r, &fields) {
		return
	}
	if fields.Name == "" {
		respondError(w, http.StatusBadRequest, "name is required")
		return
	}
	if fields.Price < 0 || fields.Stock < 0 {
		respondError(w, http.StatusBadRequest, "price and stock must be non-negative")
		return
	}

	product := h.store.Create(r.Context(), fields)
	server.AddLogField(r.Context(), "product_id", product.ID)
	respondJSON(w, http.StatusCreated, product)
}

// List returns the catalog, optionally filtered by the q (substring search)
// and status query parameters.
func (h *ProductHandler) List(w http.ResponseWriter, r *http.Request) {
	if status := r.URL.Query().Get("status"); status != "" {
		respondJSON(w, http.StatusOK, h.store.FilterByStatus(catalog.Status(status)))
		return
	}
	// Search treats a blank query as "everything", so one path covers both.
	respondJSON(w, http.StatusOK, h.store.Search(r.URL.Query().Get("q")))
}

func (h *ProductHandler) Get(w http.ResponseWriter, r *http.Request) {
	product, ok := h.store.Get(chi.URLParam(r, "id"))
	if !ok {
		respondError(w, http.StatusNotFound, "product not found")
		return
	}
	respondJSON(w, http.StatusOK, product)
}

func (h *ProductHandler) Update(w http.ResponseWriter, r *http.Request) {
	var patch catalog.Patch
	if !decodeJSON(w, r, &patch) {
		return
	}
	if patch.Price != nil && *patch.Price < 0 {
		respondError(w, http.StatusBadRequest, "price must be non-negative")
		return
	}
	if patch.Stock != nil && *patch.Stock < 0 {
		respondError(w, http.StatusBadRequest, "stock must be non-negative")
		return
	}

	product, ok := h.store.Update(r.Context(), chi.URLParam(r, "id"), patch)
	if !ok {
		respondError(w, http.StatusNotFound, "product not found")
		return
	}
	respondJSON(w, http.StatusOK, product)
}

func (h *ProductHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if !h.store.Delete(r.Context(), chi.URLParam(r, "id")) {
		respondError(w, http.StatusNotFound, "product not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *ProductHandler) LowStock(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.store.ListLowStock())
}

func (h *ProductHandler) Stats(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.store.Stats())
}
