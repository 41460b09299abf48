// Package tts converts interviewer text to audio with ordered credential
// failover across interchangeable synthesis clients.
package tts

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

const (
	groqBaseURL = "https://api.groq.com/openai/v1"

	// DefaultModel is the synthesis model.
	DefaultModel = "playai-tts"

	// DefaultVoice is the synthesis voice.
	DefaultVoice = "Nia-PlayAI"
)

// client is one credentialed synthesis client.
type client struct {
	apiKey     string
	baseURL    string
	model      string
	voice      string
	httpClient *http.Client
}

// Synthesizer tries an ordered pool of credentialed clients until one
// produces audio. It is immutable after construction and safe for concurrent
// use across sessions.
type Synthesizer struct {
	clients []client
	logger  *slog.Logger
}

// Option configures a Synthesizer.
type Option func(*Synthesizer)

// WithBaseURL overrides the API endpoint for every client in the pool.
func WithBaseURL(u string) Option {
	return func(s *Synthesizer) {
		for i := range s.clients {
			s.clients[i].baseURL = strings.TrimRight(u, "/")
		}
	}
}

// WithModel overrides the synthesis model.
func WithModel(model string) Option {
	return func(s *Synthesizer) {
		for i := range s.clients {
			s.clients[i].model = model
		}
	}
}

// WithVoice overrides the synthesis voice.
func WithVoice(voice string) Option {
	return func(s *Synthesizer) {
		for i := range s.clients {
			s.clients[i].voice = voice
		}
	}
}

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(s *Synthesizer) {
		for i := range s.clients {
			s.clients[i].httpClient = hc
		}
	}
}

// NewGroq creates a synthesizer over one client per API key, tried in order.
func NewGroq(apiKeys []string, logger *slog.Logger, opts ...Option) *Synthesizer {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Synthesizer{logger: logger}
	for _, key := range apiKeys {
		key = strings.TrimSpace(key)
		if key == "" {
			continue
		}
		s.clients = append(s.clients, client{
			apiKey:     key,
			baseURL:    groqBaseURL,
			model:      DefaultModel,
			voice:      DefaultVoice,
			httpClient: &http.Client{},
		})
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Size returns the number of clients in the pool.
func (s *Synthesizer) Size() int {
	if s == nil {
		return 0
	}
	return len(s.clients)
}

// Synthesize converts text to audio bytes. It returns nil when every
// credential fails; callers still deliver the text-only reply in that case.
func (s *Synthesizer) Synthesize(ctx context.Context, text string) []byte {
	if s == nil || len(s.clients) == 0 {
		return nil
	}

	start := time.Now()
	var lastErr error
	for i, c := range s.clients {
		if ctx.Err() != nil {
			return nil
		}
		audio, err := c.synthesize(ctx, text)
		if err == nil {
			s.logger.Info("synthesis complete",
				"attempt", i+1,
				"elapsed_ms", time.Since(start).Milliseconds(),
				"bytes", len(audio),
			)
			return audio
		}
		lastErr = err
		s.logger.Warn("synthesis credential failed", "attempt", i+1, "of", len(s.clients), "error", err)
	}

	s.logger.Error("all synthesis credentials failed", "error", lastErr)
	return nil
}

func (c client) synthesize(ctx context.Context, text string) ([]byte, error) {
	body, err := json.Marshal(map[string]any{
		"model":           c.model,
		"voice":           c.voice,
		"input":           text,
		"response_format": "wav",
	})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/audio/speech", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxAudioBytes))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(raw[:min(len(raw), 256)])))
	}

	// Responses arrive in heterogeneous shapes: raw audio bytes, or a JSON
	// container holding base64 somewhere inside. Normalize through the
	// extraction ladder.
	var payload any = raw
	if strings.Contains(resp.Header.Get("Content-Type"), "json") {
		var decoded any
		if err := json.Unmarshal(raw, &decoded); err == nil {
			payload = decoded
		}
	}
	audio := ExtractBytes(payload)
	if len(audio) == 0 {
		return nil, fmt.Errorf("empty audio payload (content-type %q)", resp.Header.Get("Content-Type"))
	}
	return audio, nil
}
