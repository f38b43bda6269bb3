package handler_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/lichenway/newsdesk/backend/internal/handler"
	"github.com/lichenway/newsdesk/backend/internal/hub"
	"github.com/lichenway/newsdesk/backend/internal/model/prefs"
	"github.com/lichenway/newsdesk/backend/internal/service/chat"
	"github.com/lichenway/newsdesk/backend/internal/service/session"
)

func newRouter() http.Handler {
	store := chat.NewStore()
	registry := session.NewRegistry(prefs.Questions())
	return handler.NewRouter(hub.New(store, registry, nil, 0))
}

func TestHealthCheck(t *testing.T) {
	r := newRouter()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}

	var payload struct {
		Status    string `json:"status"`
		Message   string `json:"message"`
		Timestamp string `json:"timestamp"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &payload); err != nil {
		t.Fatalf("invalid health payload: %v", err)
	}
	if payload.Status != "success" {
		t.Fatalf("unexpected status %q", payload.Status)
	}
	if payload.Timestamp == "" {
		t.Fatal("missing timestamp")
	}
}

func TestCORSPreflight(t *testing.T) {
	r := newRouter()

	req := httptest.NewRequest(http.MethodOptions, "/", nil)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusNoContent {
		t.Fatalf("expected 204 for preflight, got %d", resp.Code)
	}
	if got := resp.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Fatalf("unexpected allow-origin %q", got)
	}
}
