package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/vango-go/vai-interview/pkg/gateway/config"
	"github.com/vango-go/vai-interview/pkg/gateway/live/sessions"
)

type HealthHandler struct{}

func (h HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok\n"))
}

type ReadyHandler struct {
	Config   config.Config
	Sessions *sessions.Tracker
}

func (h ReadyHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	type readyResp struct {
		OK                 bool     `json:"ok"`
		AuthMode           string   `json:"auth_mode"`
		PersistenceEnabled bool     `json:"persistence_enabled"`
		LiveSessions       int      `json:"live_sessions"`
		Issues             []string `json:"issues,omitempty"`
	}

	issues := make([]string, 0, 4)

	switch h.Config.AuthMode {
	case config.AuthModeWorkOS, config.AuthModeStatic, config.AuthModeDisabled:
	default:
		issues = append(issues, "invalid auth_mode")
	}
	if h.Config.AuthMode == config.AuthModeWorkOS && h.Config.WorkOSAPIKey == "" {
		issues = append(issues, "auth_mode=workos but no workos api key configured")
	}
	if len(h.Config.GroqAPIKeys) == 0 {
		issues = append(issues, "no completion credentials configured")
	}
	if h.Config.MaxAudioMessageBytes <= 0 {
		issues = append(issues, "max_audio_message_bytes must be > 0")
	}
	if h.Config.SessionMaxDuration <= 0 || h.Config.TurnTimeout <= 0 {
		issues = append(issues, "session timeouts must be > 0")
	}

	ok := len(issues) == 0
	status := http.StatusOK
	if !ok {
		status = http.StatusInternalServerError
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(readyResp{
		OK:                 ok,
		AuthMode:           string(h.Config.AuthMode),
		PersistenceEnabled: h.Config.DatabaseURL != "",
		LiveSessions:       h.Sessions.Count(),
		Issues:             issues,
	})
}
