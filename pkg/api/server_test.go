package api

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

func TestRouter_RequiresAPIKey(t *testing.T) {
	h, cleanup := setupTestServer(t)
	defer cleanup()

	tests := []struct {
		name           string
		key            string
		expectedStatus int
	}{
		{name: "missing key", key: "", expectedStatus: http.StatusUnauthorized},
		{name: "wrong key", key: "wrong-key", expectedStatus: http.StatusUnauthorized},
		{name: "valid key", key: testAPIKey, expectedStatus: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/api/v1/layouts", nil)
			if tt.key != "" {
				req.Header.Set("X-API-Key", tt.key)
			}
			w := httptest.NewRecorder()
			h.ServeHTTP(w, req)

			if w.Code != tt.expectedStatus {
				t.Errorf("Expected status %d, got %d", tt.expectedStatus, w.Code)
			}
		})
	}
}

func TestRouter_Metrics(t *testing.T) {
	h, cleanup := setupTestServer(t)
	defer cleanup()

	doRequest(t, h, "POST", "/api/v1/decode", testLeaderFile(t))
	doRequest(t, h, "POST", "/api/v1/decode", malformedLeaderFile(t))

	// metrics are served without an API key
	req := httptest.NewRequest("GET", "/metrics", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	body := w.Body.String()
	for _, want := range []string{
		`ceos_records_decoded_total{status="success",type="FileDescriptor"} 1`,
		`ceos_records_decoded_total{status="opaque",type="Unknown"} 1`,
		`ceos_decode_errors_total{kind="malformed"} 1`,
		`ceos_http_requests_total{endpoint="/api/v1/decode",method="POST",status_code="422"} 1`,
		`ceos_auth_requests_total{status="success"} 2`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("Expected metrics to contain %s", want)
		}
	}
}

func TestErrorKind(t *testing.T) {
	tests := []struct {
		name     string
		body     func(t *testing.T) []byte
		expected string
	}{
		{name: "malformed", body: malformedLeaderFile, expected: "malformed"},
		{name: "truncated", body: func(t *testing.T) []byte { return testLeaderFile(t)[:40] }, expected: "truncated"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reg := prometheus.NewRegistry()
			server := NewServer(nil, ServerConfig{}, NewMetrics(reg))
			_, err := readAll(server, tt.body(t))
			if err == nil {
				t.Fatal("Expected a decode error")
			}
			if kind := errorKind(err); kind != tt.expected {
				t.Errorf("Expected kind %s, got %s", tt.expected, kind)
			}
		})
	}

	if kind := errorKind(context.Canceled); kind != "other" {
		t.Errorf("Expected kind other, got %s", kind)
	}
}

func readAll(server *Server, body []byte) (int, error) {
	reader := server.newReader(body, server.config.Mode)
	n := 0
	for {
		if _, err := reader.ReadNext(); err != nil {
			if err == io.EOF {
				return n, nil
			}
			return n, err
		}
		n++
	}
}

func TestNewRegistry(t *testing.T) {
	reg := NewRegistry()
	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Failed to gather metrics: %v", err)
	}

	found := false
	for _, f := range families {
		if f.GetName() == "go_goroutines" {
			found = true
		}
	}
	if !found {
		t.Error("Expected Go runtime metrics to be registered")
	}
}

func TestStartServer(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	errCh := make(chan error, 1)
	go func() {
		errCh <- StartServer(ctx, nil, ServerConfig{
			Bind:     "127.0.0.1",
			Port:     0, // Use random available port
			APIKey:   testAPIKey,
			Registry: prometheus.NewRegistry(),
		})
	}()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-errCh:
		if err != nil {
			t.Errorf("Expected clean shutdown, got %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Server did not shut down")
	}
}

func TestServerConfigDefaults(t *testing.T) {
	server := NewServer(nil, ServerConfig{APIKey: "secret-key"}, NewMetrics(prometheus.NewRegistry()))

	if server.config.APIKey != "secret-key" {
		t.Errorf("Expected API key to be 'secret-key', got '%s'", server.config.APIKey)
	}
	if server.config.MaxUploadSize != DefaultMaxUploadSize {
		t.Errorf("Expected default upload size, got %d", server.config.MaxUploadSize)
	}
	if server.catalog == nil {
		t.Error("Expected the default catalog")
	}
	if server.log == nil {
		t.Error("Expected a logger")
	}
}
