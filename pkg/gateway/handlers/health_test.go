package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/vango-go/vai-interview/pkg/gateway/config"
	"github.com/vango-go/vai-interview/pkg/gateway/live/sessions"
)

func TestHealthHandler(t *testing.T) {
	rr := httptest.NewRecorder()
	HealthHandler{}.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("status=%d", rr.Code)
	}
	if rr.Body.String() != "ok\n" {
		t.Fatalf("body=%q", rr.Body.String())
	}
}

func validConfig() config.Config {
	return config.Config{
		AuthMode:             config.AuthModeDisabled,
		GroqAPIKeys:          []string{"gsk_one"},
		MaxAudioMessageBytes: 16 << 20,
		SessionMaxDuration:   time.Hour,
		TurnTimeout:          2 * time.Minute,
	}
}

func TestReadyHandler_OK(t *testing.T) {
	rr := httptest.NewRecorder()
	ReadyHandler{Config: validConfig(), Sessions: sessions.NewTracker()}.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("status=%d body=%q", rr.Code, rr.Body.String())
	}

	var resp struct {
		OK           bool `json:"ok"`
		LiveSessions int  `json:"live_sessions"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !resp.OK {
		t.Fatalf("ok=false: %s", rr.Body.String())
	}
}

func TestReadyHandler_ReportsIssues(t *testing.T) {
	cfg := validConfig()
	cfg.GroqAPIKeys = nil
	cfg.AuthMode = config.AuthModeWorkOS

	rr := httptest.NewRecorder()
	ReadyHandler{Config: cfg, Sessions: sessions.NewTracker()}.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("status=%d", rr.Code)
	}

	var resp struct {
		OK     bool     `json:"ok"`
		Issues []string `json:"issues"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.OK || len(resp.Issues) < 2 {
		t.Fatalf("resp=%+v", resp)
	}
}
