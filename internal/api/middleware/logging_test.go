package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestRequestLogger_AssignsID(t *testing.T) {
	logs := captureLog(t)

	var seen string
	handler := RequestLogger(false)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = RequestID(r.Context())
		w.WriteHeader(http.StatusNotFound)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest("GET", "/missing", nil))

	if seen == "" || rec.Header().Get("X-Request-ID") != seen {
		t.Errorf("request id %q, header %q", seen, rec.Header().Get("X-Request-ID"))
	}
	if !strings.Contains(logs.String(), "GET /missing 404") {
		t.Errorf("failed request not logged: %q", logs.String())
	}
}

func TestRequestLogger_ReusesProxyID(t *testing.T) {
	logs := captureLog(t)

	handler := RequestLogger(false)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	req := httptest.NewRequest("GET", "/health", nil)
	req.Header.Set("X-Request-ID", "edge-123")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Header().Get("X-Request-ID") != "edge-123" {
		t.Errorf("X-Request-ID = %q", rec.Header().Get("X-Request-ID"))
	}
	if logs.Len() != 0 {
		t.Errorf("successful request logged without verbose: %q", logs.String())
	}
}
