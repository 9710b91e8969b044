package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/bizvoice/console/internal/catalog"
	"github.com/bizvoice/console/internal/debuglog"
	"github.com/bizvoice/console/internal/voice"
	"github.com/bizvoice/console/internal/webhook"
)

// stubTokens always issues the same credentials.
type stubTokens struct{}

func (stubTokens) CreateWebCall(context.Context, *voice.WebCallRequest) (*voice.WebCallCredentials, error) {
	return &voice.WebCallCredentials{CallID: "call_vendor", AccessToken: "tok", AgentID: "agent_1"}, nil
}

// stubSender reports a configurable delivery outcome.
type stubSender struct{ ok bool }

func (s stubSender) Send(context.Context, webhook.Event) bool { return s.ok }

func newTestRouter(t *testing.T, deliverOK bool) (*chi.Mux, *catalog.Store, debuglog.Store) {
	t.Helper()

	store := catalog.NewStore()
	debug := debuglog.NewMemoryStore(10)
	r := chi.NewRouter()
	Mount(r, Deps{
		Store:       store,
		Calls:       voice.NewManager(stubTokens{}, "agent_1", nil, nil),
		Notifier:    stubSender{ok: deliverOK},
		Debug:       debug,
		DebugRoutes: true,
	})
	return r, store, debug
}

func doJSON(t *testing.T, router http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode request: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
	return v
}

func TestProductEndpoints(t *testing.T) {
	router, _, _ := newTestRouter(t, true)

	rec := doJSON(t, router, "POST", "/v1/products", catalog.Fields{
		Name: "Espresso Machine", Price: 299.99, Stock: 3, Category: "kitchen",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d: %s", rec.Code, rec.Body.String())
	}
	created := decodeBody[catalog.Product](t, rec)
	if created.Status != catalog.StatusLowStock {
		t.Errorf("status = %v, want low_stock", created.Status)
	}

	t.Run("get", func(t *testing.T) {
		rec := doJSON(t, router, "GET", "/v1/products/"+created.ID, nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("get status = %d", rec.Code)
		}
		if got := decodeBody[catalog.Product](t, rec); got.Name != "Espresso Machine" {
			t.Errorf("name = %q", got.Name)
		}
	})

	t.Run("get unknown is 404", func(t *testing.T) {
		rec := doJSON(t, router, "GET", "/v1/products/nope", nil)
		if rec.Code != http.StatusNotFound {
			t.Errorf("status = %d, want 404", rec.Code)
		}
	})

	t.Run("search by category", func(t *testing.T) {
		rec := doJSON(t, router, "GET", "/v1/products?q=kitchen", nil)
		got := decodeBody[[]catalog.Product](t, rec)
		if len(got) != 1 {
			t.Errorf("search returned %d products, want 1", len(got))
		}
	})

	t.Run("filter by status", func(t *testing.T) {
		rec := doJSON(t, router, "GET", "/v1/products?status=active", nil)
		if got := decodeBody[[]catalog.Product](t, rec); len(got) != 0 {
			t.Errorf("active filter returned %d products, want 0", len(got))
		}
	})

	t.Run("patch recomputes status", func(t *testing.T) {
		rec := doJSON(t, router, "PATCH", "/v1/products/"+created.ID, map[string]any{"stock": 0})
		if rec.Code != http.StatusOK {
			t.Fatalf("patch status = %d", rec.Code)
		}
		if got := decodeBody[catalog.Product](t, rec); got.Status != catalog.StatusInactive {
			t.Errorf("status = %v, want inactive", got.Status)
		}
	})

	t.Run("negative stock rejected", func(t *testing.T) {
		rec := doJSON(t, router, "PATCH", "/v1/products/"+created.ID, map[string]any{"stock": -1})
		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", rec.Code)
		}
	})

	t.Run("stats", func(t *testing.T) {
		rec := doJSON(t, router, "GET", "/v1/products/stats", nil)
		st := decodeBody[catalog.Stats](t, rec)
		if st.Total != 1 || st.Inactive != 1 {
			t.Errorf("stats = %+v", st)
		}
	})

	t.Run("delete", func(t *testing.T) {
		rec := doJSON(t, router, "DELETE", "/v1/products/"+created.ID, nil)
		if rec.Code != http.StatusNoContent {
			t.Fatalf("delete status = %d", rec.Code)
		}
		rec = doJSON(t, router, "DELETE", "/v1/products/"+created.ID, nil)
		if rec.Code != http.StatusNotFound {
			t.Errorf("second delete status = %d, want 404", rec.Code)
		}
	})
}

func TestCallEndpoints(t *testing.T) {
	router, _, _ := newTestRouter(t, true)

	rec := doJSON(t, router, "POST", "/v1/calls", map[string]string{"user_id": "u-1"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("start status = %d: %s", rec.Code, rec.Body.String())
	}
	call := decodeBody[callResponse](t, rec)
	if call.State != voice.StateConnecting {
		t.Errorf("state = %v, want connecting", call.State)
	}
	if call.VendorID != "call_vendor" {
		t.Errorf("vendor id = %q", call.VendorID)
	}

	t.Run("vendor started callback connects the call", func(t *testing.T) {
		rec := doJSON(t, router, "POST", "/v1/calls/"+call.ID+"/events", map[string]any{"kind": "call_started"})
		if rec.Code != http.StatusAccepted {
			t.Fatalf("events status = %d", rec.Code)
		}
		rec = doJSON(t, router, "GET", "/v1/calls/"+call.ID, nil)
		if got := decodeBody[callResponse](t, rec); got.State != voice.StateConnected {
			t.Errorf("state = %v, want connected", got.State)
		}
	})

	t.Run("transcript snapshot", func(t *testing.T) {
		doJSON(t, router, "POST", "/v1/calls/"+call.ID+"/events", map[string]any{
			"kind": "call_update",
			"transcript": []map[string]string{
				{"role": "agent", "text": "Hello"},
			},
		})
		rec := doJSON(t, router, "GET", "/v1/calls/"+call.ID+"/transcript", nil)
		body := decodeBody[map[string]json.RawMessage](t, rec)
		var transcript []voice.Utterance
		if err := json.Unmarshal(body["transcript"], &transcript); err != nil {
			t.Fatalf("transcript decode: %v", err)
		}
		if len(transcript) != 1 || transcript[0].Text != "Hello" {
			t.Errorf("transcript = %+v", transcript)
		}

		if rec := doJSON(t, router, "DELETE", "/v1/calls/"+call.ID+"/transcript", nil); rec.Code != http.StatusNoContent {
			t.Errorf("clear status = %d", rec.Code)
		}
	})

	t.Run("end then ended callback", func(t *testing.T) {
		rec := doJSON(t, router, "POST", "/v1/calls/"+call.ID+"/end", nil)
		if rec.Code != http.StatusAccepted {
			t.Fatalf("end status = %d", rec.Code)
		}
		doJSON(t, router, "POST", "/v1/calls/"+call.ID+"/events", map[string]any{"kind": "call_ended"})
		rec = doJSON(t, router, "GET", "/v1/calls/"+call.ID, nil)
		if got := decodeBody[callResponse](t, rec); got.State != voice.StateInactive {
			t.Errorf("state = %v, want inactive", got.State)
		}
	})

	t.Run("unknown call is 404", func(t *testing.T) {
		for _, probe := range []struct{ method, path string }{
			{"GET", "/v1/calls/nope"},
			{"POST", "/v1/calls/nope/end"},
			{"GET", "/v1/calls/nope/transcript"},
		} {
			if rec := doJSON(t, router, probe.method, probe.path, nil); rec.Code != http.StatusNotFound {
				t.Errorf("%s %s status = %d, want 404", probe.method, probe.path, rec.Code)
			}
		}
	})
}

func TestEventEndpoints(t *testing.T) {
	t.Run("delivered", func(t *testing.T) {
		router, _, _ := newTestRouter(t, true)
		rec := doJSON(t, router, "POST", "/v1/events/consultation", webhook.Consultation{
			UserID: "u-1", Topic: "pricing",
		})
		if rec.Code != http.StatusAccepted {
			t.Fatalf("status = %d", rec.Code)
		}
		if got := decodeBody[deliveryResponse](t, rec); !got.Delivered {
			t.Error("delivered = false")
		}
	})

	t.Run("webhook failure still accepted", func(t *testing.T) {
		router, _, _ := newTestRouter(t, false)
		rec := doJSON(t, router, "POST", "/v1/events/registration", map[string]string{
			"user_id": "u-1", "email": "o@example.com",
		})
		if rec.Code != http.StatusAccepted {
			t.Fatalf("status = %d, webhook failure must not fail the request", rec.Code)
		}
		if got := decodeBody[deliveryResponse](t, rec); got.Delivered {
			t.Error("delivered = true for failing sender")
		}
	})

	t.Run("missing user_id rejected", func(t *testing.T) {
		router, _, _ := newTestRouter(t, true)
		rec := doJSON(t, router, "POST", "/v1/events/onboarding", map[string]any{"completed_steps": []string{"a"}})
		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", rec.Code)
		}
	})
}

func TestDebugEndpoints(t *testing.T) {
	router, _, debug := newTestRouter(t, true)

	_ = debug.Append(context.Background(), debuglog.Entry{EventType: "voice_call", Payload: []byte(`{"a":1}`)})

	rec := doJSON(t, router, "GET", "/v1/debug/webhooks?limit=5", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	entries := decodeBody[[]debuglog.Entry](t, rec)
	if len(entries) != 1 || entries[0].EventType != "voice_call" {
		t.Errorf("entries = %+v", entries)
	}

	if rec := doJSON(t, router, "DELETE", "/v1/debug/webhooks", nil); rec.Code != http.StatusNoContent {
		t.Fatalf("clear status = %d", rec.Code)
	}
	rec = doJSON(t, router, "GET", "/v1/debug/webhooks", nil)
	if entries := decodeBody[[]debuglog.Entry](t, rec); len(entries) != 0 {
		t.Errorf("entries after clear = %+v", entries)
	}
}

func TestHealthz(t *testing.T) {
	router, _, _ := newTestRouter(t, true)
	rec := doJSON(t, router, "GET", "/healthz", nil)
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d", rec.Code)
	}
}
