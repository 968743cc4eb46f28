package server

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestCORS(t *testing.T) {
	srv, _ := newTestServer(t, &memStore{})

	req := httptest.NewRequest(http.MethodPost, "/uploads", nil)
	req.Header.Set("Origin", "https://app.example.com")
	rr := serve(srv, req)

	if got := rr.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("Access-Control-Allow-Origin = %q, want *", got)
	}
}

func TestCORS_Preflight(t *testing.T) {
	srv, _ := newTestServer(t, &memStore{})

	req := httptest.NewRequest(http.MethodOptions, "/uploads", nil)
	req.Header.Set("Origin", "https://app.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rr := serve(srv, req)

	if rr.Code != http.StatusNoContent {
		t.Errorf("Expected 204, got %d", rr.Code)
	}
	if got := rr.Header().Get("Access-Control-Allow-Methods"); !strings.Contains(got, http.MethodPost) {
		t.Errorf("Access-Control-Allow-Methods = %q", got)
	}
}

func TestCORS_RestrictedOrigins(t *testing.T) {
	srv := New(Config{
		CORSOrigins: []string{"https://app.example.com"},
		Uploads:     stubUploader{},
	})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	rr := serve(srv, req)

	if got := rr.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Errorf("unexpected Access-Control-Allow-Origin %q", got)
	}
}

func TestSecurityHeaders(t *testing.T) {
	srv, _ := newTestServer(t, &memStore{})
	rr := serve(srv, httptest.NewRequest(http.MethodGet, "/health", nil))

	want := map[string]string{
		"X-Frame-Options":        "DENY",
		"X-Content-Type-Options": "nosniff",
		"Referrer-Policy":        "no-referrer",
	}
	for header, value := range want {
		if got := rr.Header().Get(header); got != value {
			t.Errorf("%s = %q, want %q", header, got, value)
		}
	}
}

func TestRequestID(t *testing.T) {
	srv, _ := newTestServer(t, &memStore{})

	rr := serve(srv, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rr.Header().Get("X-Request-Id") == "" {
		t.Error("expected a generated X-Request-Id")
	}

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("X-Request-Id", "abc-123")
	rr = serve(srv, req)
	if got := rr.Header().Get("X-Request-Id"); got != "abc-123" {
		t.Errorf("X-Request-Id = %q, want abc-123", got)
	}

	req = httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("X-Request-Id", strings.Repeat("x", 200))
	rr = serve(srv, req)
	if got := rr.Header().Get("X-Request-Id"); len(got) > 128 {
		t.Errorf("oversized request id was echoed back (%d chars)", len(got))
	}
}

func TestClientIP(t *testing.T) {
	tests := []struct {
		name   string
		trust  bool
		header map[string]string
		remote string
		want   string
	}{
		{"forwarded", true, map[string]string{"X-Forwarded-For": "10.0.0.1, 10.0.0.2"}, "1.2.3.4:5", "10.0.0.1"},
		{"real ip", true, map[string]string{"X-Real-IP": "10.0.0.9"}, "1.2.3.4:5", "10.0.0.9"},
		{"remote addr", true, nil, "1.2.3.4:5", "1.2.3.4"},
		{"forwarded ignored without proxy", false, map[string]string{"X-Forwarded-For": "10.0.0.1"}, "1.2.3.4:5", "1.2.3.4"},
		{"real ip ignored without proxy", false, map[string]string{"X-Real-IP": "10.0.0.9"}, "1.2.3.4:5", "1.2.3.4"},
		{"ipv6 remote addr", false, nil, "[::1]:5", "::1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remote
			for k, v := range tt.header {
				req.Header.Set(k, v)
			}
			if got := clientIP(req, tt.trust); got != tt.want {
				t.Errorf("clientIP = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestServer_ListenServeShutdown(t *testing.T) {
	srv, _ := newTestServer(t, &memStore{})

	addr, err := srv.Listen()
	if err != nil {
		t.Fatalf("Listen: %v", err)
	}

	done := make(chan error, 1)
	go func() { done <- srv.Serve() }()

	resp, err := http.Post(fmt.Sprintf("http://%s/uploads", addr), "application/octet-stream", nil)
	if err != nil {
		t.Fatalf("POST: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest || string(body) != fileRequiredBody {
		t.Errorf("got %d %q", resp.StatusCode, body)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		t.Fatalf("Shutdown: %v", err)
	}
	if err := <-done; err != nil {
		t.Errorf("Serve returned %v after shutdown", err)
	}
}

func TestServer_ListenAddressInUse(t *testing.T) {
	first, _ := newTestServer(t, &memStore{})
	addr, err := first.Listen()
	if err != nil {
		t.Fatalf("Listen: %v", err)
	}
	t.Cleanup(func() { _ = first.ln.Close() })

	second := New(Config{Addr: addr.String(), Uploads: stubUploader{}})
	if _, err := second.Listen(); err == nil {
		t.Error("expected bind failure on a used port")
	}
}

func TestServer_ServeBeforeListen(t *testing.T) {
	srv := New(Config{Uploads: stubUploader{}})
	if err := srv.Serve(); err == nil {
		t.Error("expected error when Serve is called before Listen")
	}
}
