// Package gemini implements completion and embedding providers on the Gemini
// API via the official genai SDK.
package gemini

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"github.com/vango-go/vai-interview/pkg/core"
)

const (
	// DefaultModel is used for completions when no model is configured.
	DefaultModel = "gemini-2.0-flash"

	// DefaultEmbeddingModel is used for embeddings.
	DefaultEmbeddingModel = "gemini-embedding-001"
)

// Provider implements core.Completer against the Gemini API. It also produces
// text embeddings for the retrieval index.
type Provider struct {
	client         *genai.Client
	model          string
	embeddingModel string
	temperature    float32
}

// Option configures a Provider.
type Option func(*Provider)

// WithModel overrides the completion model.
func WithModel(model string) Option {
	return func(p *Provider) { p.model = model }
}

// WithEmbeddingModel overrides the embedding model.
func WithEmbeddingModel(model string) Option {
	return func(p *Provider) { p.embeddingModel = model }
}

// WithTemperature overrides the sampling temperature.
func WithTemperature(t float32) Option {
	return func(p *Provider) { p.temperature = t }
}

// New creates a new Gemini provider for one API key.
func New(ctx context.Context, apiKey string, opts ...Option) (*Provider, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}

	p := &Provider{
		client:         client,
		model:          DefaultModel,
		embeddingModel: DefaultEmbeddingModel,
		temperature:    0.3,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Name returns the provider identifier.
func (p *Provider) Name() string {
	return "gemini"
}

// Complete sends the prompt and returns the generated text.
func (p *Provider) Complete(ctx context.Context, prompt string) (string, error) {
	resp, err := p.client.Models.GenerateContent(ctx, p.model, genai.Text(prompt), &genai.GenerateContentConfig{
		Temperature: genai.Ptr(p.temperature),
	})
	if err != nil {
		return "", core.NewProviderError(p.Name(), err)
	}

	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", core.NewProviderError(p.Name(), fmt.Errorf("empty completion"))
	}
	return text, nil
}

// Embed returns the embedding vector for one text.
func (p *Provider) Embed(ctx context.Context, text string) ([]float32, error) {
	resp, err := p.client.Models.EmbedContent(ctx, p.embeddingModel, genai.Text(text), nil)
	if err != nil {
		return nil, core.NewProviderError(p.Name(), err)
	}
	if len(resp.Embeddings) == 0 || len(resp.Embeddings[0].Values) == 0 {
		return nil, core.NewProviderError(p.Name(), fmt.Errorf("empty embedding"))
	}
	return resp.Embeddings[0].Values, nil
}
