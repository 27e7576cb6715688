package security

import (
	"crypto/tls"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestExtractClientIP(t *testing.T) {
	d := NewDetector()
	tests := []struct {
		name   string
		remote string
		xff    string
		xri    string
		want   string
	}{
		{"direct", "203.0.113.9:1234", "", "", "203.0.113.9"},
		{"untrusted peer ignores xff", "203.0.113.9:1234", "1.1.1.1", "", "203.0.113.9"},
		{"trusted proxy xff", "10.0.0.2:80", "198.51.100.7, 10.0.0.2", "", "198.51.100.7"},
		{"trusted proxy real ip", "127.0.0.1:80", "garbage", "198.51.100.8", "198.51.100.8"},
		{"unparseable remote", "weird", "", "", "weird"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			r.RemoteAddr = tt.remote
			if tt.xff != "" {
				r.Header.Set("X-Forwarded-For", tt.xff)
			}
			if tt.xri != "" {
				r.Header.Set("X-Real-IP", tt.xri)
			}
			if got := d.ExtractClientIP(r); got != tt.want {
				t.Errorf("ExtractClientIP() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestAddTrustedProxy(t *testing.T) {
	d := NewDetector()
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.RemoteAddr = "203.0.113.9:1234"
	r.Header.Set("X-Forwarded-For", "198.51.100.7")

	if got := d.ExtractClientIP(r); got != "203.0.113.9" {
		t.Fatalf("before: ExtractClientIP() = %q", got)
	}
	if err := d.AddTrustedProxy("203.0.113.0/24"); err != nil {
		t.Fatalf("AddTrustedProxy() error = %v", err)
	}
	if got := d.ExtractClientIP(r); got != "198.51.100.7" {
		t.Errorf("after: ExtractClientIP() = %q, want forwarded address", got)
	}
	if err := d.AddTrustedProxy("not-a-cidr"); err == nil {
		t.Error("AddTrustedProxy() accepted an invalid CIDR")
	}
}

func TestDetectSuspiciousRequest(t *testing.T) {
	d := NewDetector()

	clean := httptest.NewRequest(http.MethodGet, "/api/records?year=2024", nil)
	clean.Header.Set("User-Agent", "curl/8.0")
	if d.DetectSuspiciousRequest(clean) {
		t.Error("plain API call flagged")
	}

	for _, target := range []string{"/../../etc/passwd", "/.git/config", "/api/records?q=union%20select"} {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.URL.Path, r.URL.RawQuery = target, ""
		if target == "/api/records?q=union%20select" {
			r.URL.Path, r.URL.RawQuery = "/api/records", "q=union select"
		}
		if !d.DetectSuspiciousRequest(r) {
			t.Errorf("%s not flagged", target)
		}
	}

	scanner := httptest.NewRequest(http.MethodGet, "/", nil)
	scanner.Header.Set("User-Agent", "sqlmap/1.7")
	if !d.DetectSuspiciousRequest(scanner) {
		t.Error("scanner user agent not flagged")
	}
	if got := d.SuspiciousRequests(); got != 4 {
		t.Errorf("SuspiciousRequests() = %d, want 4", got)
	}
}

func TestDetectorMiddlewareRejectsTrace(t *testing.T) {
	d := NewDetector()
	called := false
	h := d.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { called = true }))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("TRACE", "/", nil))
	if rec.Code != http.StatusMethodNotAllowed || called {
		t.Errorf("TRACE: code %d, handler called %v", rec.Code, called)
	}
}

func TestHeadersMiddleware(t *testing.T) {
	h := NewHeadersMiddleware(DefaultHeadersConfig(), nil).Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/records", nil))
	if got := rec.Header().Get("X-Content-Type-Options"); got != "nosniff" {
		t.Errorf("X-Content-Type-Options = %q", got)
	}
	if got := rec.Header().Get("Cache-Control"); got != "no-store" {
		t.Errorf("Cache-Control = %q, want no-store", got)
	}
	if rec.Header().Get("Strict-Transport-Security") != "" {
		t.Error("HSTS must not be sent over plain HTTP")
	}

	r := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	r.TLS = &tls.ConnectionState{}
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, r)
	if got := rec.Header().Get("Strict-Transport-Security"); got != "max-age=31536000; includeSubDomains" {
		t.Errorf("HSTS = %q", got)
	}
	if rec.Header().Get("Cache-Control") != "" {
		t.Error("non-API paths should not be no-store")
	}
}

func TestForwardedProtoNeedsTrustedProxy(t *testing.T) {
	d := NewDetector()
	h := NewHeadersMiddleware(DefaultHeadersConfig(), d.IsHTTPS).Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	tests := []struct {
		name     string
		remote   string
		proto    string
		wantHSTS bool
	}{
		{"spoofed by client", "203.0.113.9:1234", "https", false},
		{"trusted proxy", "10.0.0.2:443", "https", true},
		{"trusted proxy plain http", "10.0.0.2:80", "http", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/healthz", nil)
			r.RemoteAddr = tt.remote
			r.Header.Set("X-Forwarded-Proto", tt.proto)
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, r)
			if got := rec.Header().Get("Strict-Transport-Security") != ""; got != tt.wantHSTS {
				t.Errorf("HSTS sent = %v, want %v", got, tt.wantHSTS)
			}
		})
	}
}
