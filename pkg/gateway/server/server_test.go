package server

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/vango-go/vai-interview/pkg/gateway/auth"
	"github.com/vango-go/vai-interview/pkg/gateway/config"
	"github.com/vango-go/vai-interview/pkg/gateway/metrics"
)

func testConfig() config.Config {
	return config.Config{
		AuthMode:             config.AuthModeDisabled,
		GroqAPIKeys:          []string{"gsk_one"},
		MaxAudioMessageBytes: 16 << 20,
		SessionMaxDuration:   time.Hour,
		TurnTimeout:          time.Minute,
		CORSAllowedOrigins:   map[string]struct{}{},
	}
}

func newTestServer() *Server {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return New(testConfig(), logger, Dependencies{
		Verifier: auth.NewStatic([]string{"dev"}),
		Metrics:  metrics.New("test"),
	})
}

func TestServer_Routes(t *testing.T) {
	h := newTestServer().Handler()

	tests := []struct {
		path       string
		wantStatus int
	}{
		{"/healthz", http.StatusOK},
		{"/readyz", http.StatusOK},
		{"/metrics", http.StatusOK},
		{"/nope", http.StatusNotFound},
	}
	for _, tt := range tests {
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, tt.path, nil))
		if rr.Code != tt.wantStatus {
			t.Errorf("%s: status=%d, want %d", tt.path, rr.Code, tt.wantStatus)
		}
	}
}

func TestServer_RequestIDAttached(t *testing.T) {
	h := newTestServer().Handler()
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rr.Header().Get("X-Request-ID") == "" {
		t.Fatal("expected X-Request-ID header")
	}
}

func TestServer_InterviewRequiresWebSocket(t *testing.T) {
	h := newTestServer().Handler()
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/v1/interview", nil))
	// A plain GET without an Upgrade header fails the handshake.
	if rr.Code == http.StatusOK {
		t.Fatalf("status=%d, want handshake failure", rr.Code)
	}
}
