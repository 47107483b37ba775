package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/good-yellow-bee/brightminds/internal/models"
)

func TestRateLimiter_Allow(t *testing.T) {
	rl := NewRateLimiter(3)
	defer rl.Stop()

	for i := 0; i < 3; i++ {
		if !rl.Allow("10.0.0.1") {
			t.Fatalf("request %d should be allowed", i+1)
		}
	}
	if rl.Allow("10.0.0.1") {
		t.Error("4th request within the burst window should be denied")
	}
	if !rl.Allow("10.0.0.2") {
		t.Error("other keys have their own bucket")
	}
}

func TestRateLimiter_Cleanup(t *testing.T) {
	rl := NewRateLimiter(5)
	defer rl.Stop()

	rl.Allow("idle")
	rl.cleanup(time.Now().Add(time.Hour))

	rl.mu.Lock()
	defer rl.mu.Unlock()
	if _, ok := rl.visitors["idle"]; ok {
		t.Error("idle visitor should have been removed")
	}
}

func TestRateLimitByIP(t *testing.T) {
	rl := NewRateLimiter(1)
	defer rl.Stop()

	handler := RateLimitByIP(rl)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	send := func(forwarded string) int {
		req := httptest.NewRequest("POST", "/api/v1/auth/login", nil)
		req.RemoteAddr = "192.0.2.1:4000"
		if forwarded != "" {
			req.Header.Set("X-Forwarded-For", forwarded)
		}
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec.Code
	}

	if code := send(""); code != http.StatusOK {
		t.Fatalf("first request: %d", code)
	}
	if code := send(""); code != http.StatusTooManyRequests {
		t.Errorf("second request: %d, want 429", code)
	}
	if code := send("203.0.113.9, 10.0.0.1"); code != http.StatusOK {
		t.Errorf("forwarded client should have its own bucket: %d", code)
	}
}

func TestGetClientIP(t *testing.T) {
	tests := []struct {
		name    string
		remote  string
		headers map[string]string
		want    string
	}{
		{"remote addr", "192.0.2.1:1234", nil, "192.0.2.1"},
		{"forwarded list", "10.0.0.1:1", map[string]string{"X-Forwarded-For": "203.0.113.5, 10.0.0.1"}, "203.0.113.5"},
		{"real ip", "10.0.0.1:1", map[string]string{"X-Real-IP": "198.51.100.7"}, "198.51.100.7"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/", nil)
			req.RemoteAddr = tc.remote
			for k, v := range tc.headers {
				req.Header.Set(k, v)
			}
			if got := getClientIP(req); got != tc.want {
				t.Errorf("getClientIP = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestRateLimitByUser(t *testing.T) {
	rl := NewRateLimiter(1)
	defer rl.Stop()

	handler := RateLimitByUser(rl)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	alice := models.NewUser("Alice", "alice@example.com", models.RoleTeacher)
	bob := models.NewUser("Bob", "bob@example.com", models.RoleTeacher)

	send := func(u *models.User) int {
		req := httptest.NewRequest("GET", "/api/v1/projects", nil)
		req = req.WithContext(WithUser(req.Context(), u))
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec.Code
	}

	if code := send(alice); code != http.StatusOK {
		t.Fatalf("first request: %d", code)
	}
	if code := send(alice); code != http.StatusTooManyRequests {
		t.Errorf("second request: %d, want 429", code)
	}
	if code := send(bob); code != http.StatusOK {
		t.Errorf("users share a bucket: %d", code)
	}
}
