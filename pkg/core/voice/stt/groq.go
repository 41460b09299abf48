// Package stt converts recorded audio segments to text.
package stt

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strings"
	"time"
)

const (
	groqBaseURL = "https://api.groq.com/openai/v1"

	// DefaultModel is the whisper variant used for transcription.
	DefaultModel = "whisper-large-v3-turbo"
)

// GroqTranscriber transcribes audio clips via Groq's whisper endpoint.
// It holds exactly one credential; transcription does not fail over.
type GroqTranscriber struct {
	apiKey     string
	baseURL    string
	model      string
	httpClient *http.Client
	logger     *slog.Logger
}

// Option configures a GroqTranscriber.
type Option func(*GroqTranscriber)

// WithBaseURL overrides the API endpoint.
func WithBaseURL(u string) Option {
	return func(t *GroqTranscriber) { t.baseURL = strings.TrimRight(u, "/") }
}

// WithModel overrides the transcription model.
func WithModel(model string) Option {
	return func(t *GroqTranscriber) { t.model = model }
}

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(t *GroqTranscriber) { t.httpClient = client }
}

// NewGroq creates a transcriber bound to one API key.
func NewGroq(apiKey string, logger *slog.Logger, opts ...Option) *GroqTranscriber {
	if logger == nil {
		logger = slog.Default()
	}
	t := &GroqTranscriber{
		apiKey:     apiKey,
		baseURL:    groqBaseURL,
		model:      DefaultModel,
		httpClient: &http.Client{},
		logger:     logger,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Transcribe converts an audio segment to text. It returns the empty string on
// any failure; callers must treat that as "no transcript", not as an error.
func (t *GroqTranscriber) Transcribe(ctx context.Context, audio []byte) string {
	start := time.Now()
	text, err := t.transcribe(ctx, audio)
	elapsed := time.Since(start)
	if err != nil {
		t.logger.Warn("transcription failed", "elapsed_ms", elapsed.Milliseconds(), "error", err)
		return ""
	}
	t.logger.Info("transcription complete", "elapsed_ms", elapsed.Milliseconds(), "chars", len(text))
	return text
}

func (t *GroqTranscriber) transcribe(ctx context.Context, audio []byte) (string, error) {
	if len(audio) == 0 {
		return "", fmt.Errorf("empty audio segment")
	}

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	fw, err := mw.CreateFormFile("file", "audio.webm")
	if err != nil {
		return "", fmt.Errorf("create form file: %w", err)
	}
	if _, err := fw.Write(audio); err != nil {
		return "", fmt.Errorf("write audio data: %w", err)
	}
	if err := mw.WriteField("model", t.model); err != nil {
		return "", fmt.Errorf("write model field: %w", err)
	}
	if err := mw.WriteField("response_format", "json"); err != nil {
		return "", fmt.Errorf("write response_format field: %w", err)
	}
	if err := mw.Close(); err != nil {
		return "", fmt.Errorf("close multipart writer: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.baseURL+"/audio/transcriptions", &buf)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+t.apiKey)

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}

	var decoded struct {
		Text string `json:"text"`
	}
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	return strings.TrimSpace(decoded.Text), nil
}
