package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func fetchHealth(t *testing.T) (int, healthResponse) {
	t.Helper()
	w := httptest.NewRecorder()
	Health(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Fatalf("expected Content-Type application/json, got %q", ct)
	}
	var resp healthResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Time.IsZero() {
		t.Fatal("expected response time to be populated")
	}
	return w.Code, resp
}

func TestHealthWithoutDatabase(t *testing.T) {
	original := database
	database = nil
	t.Cleanup(func() { database = original })

	code, resp := fetchHealth(t)
	if code != http.StatusOK || resp.Status != "ok" || resp.Database != "not configured" {
		t.Fatalf("unexpected health %d %+v", code, resp)
	}
}

func TestHealthPingsDatabase(t *testing.T) {
	_, cleanup := withTestDatabase(t)
	t.Cleanup(cleanup)

	code, resp := fetchHealth(t)
	if code != http.StatusOK || resp.Database != "ok" {
		t.Fatalf("unexpected health %d %+v", code, resp)
	}
}

func TestHealthDegradesWhenDatabaseClosed(t *testing.T) {
	db, cleanup := withTestDatabase(t)
	t.Cleanup(cleanup)

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed to get sql handle: %v", err)
	}
	sqlDB.Close()

	code, resp := fetchHealth(t)
	if code != http.StatusServiceUnavailable || resp.Status != "degraded" || resp.Database != "unreachable" {
		t.Fatalf("unexpected health %d %+v", code, resp)
	}
}
