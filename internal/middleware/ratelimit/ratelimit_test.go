package ratelimit

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestAllowWindow(t *testing.T) {
	rl := NewLimiter(Config{RequestsPerMinute: 2})
	defer rl.Stop()

	now := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }

	for i, want := range []bool{true, true, false} {
		if got := rl.Allow("1.2.3.4"); got != want {
			t.Errorf("request %d: Allow() = %v, want %v", i+1, got, want)
		}
	}
	if !rl.Allow("5.6.7.8") {
		t.Error("other clients must have their own window")
	}

	now = now.Add(45 * time.Second)
	if got := rl.RetryAfter("1.2.3.4"); got != 15*time.Second {
		t.Errorf("RetryAfter() = %v, want 15s", got)
	}
	if got := rl.RetryAfter("9.9.9.9"); got != time.Second {
		t.Errorf("RetryAfter() for unknown client = %v, want 1s", got)
	}

	now = now.Add(15 * time.Second)
	if !rl.Allow("1.2.3.4") {
		t.Error("window should reset after a minute")
	}

	now = now.Add(11 * time.Minute)
	rl.cleanupStaleEntries()
	if n := rl.ActiveClients(); n != 0 {
		t.Errorf("ActiveClients() = %d after cleanup, want 0", n)
	}
}

func TestMiddlewareOnlyLimitsWrites(t *testing.T) {
	rl := NewLimiter(Config{RequestsPerMinute: 1})
	defer rl.Stop()

	limited := 0
	h := rl.Middleware(
		func(*http.Request) string { return "ip" },
		func(w http.ResponseWriter, r *http.Request) {
			limited++
			w.WriteHeader(http.StatusTooManyRequests)
		},
	)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	for i := 0; i < 5; i++ {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/records", nil))
		if rec.Code != http.StatusOK {
			t.Fatalf("GET %d: status %d", i, rec.Code)
		}
	}

	codes := []int{}
	for i := 0; i < 2; i++ {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/records", nil))
		codes = append(codes, rec.Code)
		if rec.Code == http.StatusTooManyRequests && rec.Header().Get("Retry-After") != "60" {
			t.Error("missing Retry-After header")
		}
	}
	if codes[0] != http.StatusOK || codes[1] != http.StatusTooManyRequests {
		t.Errorf("POST codes = %v, want [200 429]", codes)
	}
	if limited != 1 {
		t.Errorf("onLimit called %d times, want 1", limited)
	}
}
