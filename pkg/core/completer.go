package core

import (
	"context"
	"log/slog"
	"time"
)

// Completer is the interface all text-generation providers implement.
type Completer interface {
	// Name returns the provider identifier (e.g., "groq", "gemini").
	Name() string

	// Complete sends a prompt and returns the model's text response.
	Complete(ctx context.Context, prompt string) (string, error)
}

// Pool is an ordered list of interchangeable credentialed completers.
// It is immutable after construction and safe for concurrent use.
type Pool struct {
	completers []Completer
	logger     *slog.Logger
	observe    func(provider string, elapsed time.Duration, err error)
}

// NewPool creates a failover pool over the given completers, tried in order.
func NewPool(logger *slog.Logger, completers ...Completer) *Pool {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pool{completers: completers, logger: logger}
}

// Observe registers a callback invoked after every provider attempt with its
// latency and outcome. Must be set before the pool serves requests.
func (p *Pool) Observe(fn func(provider string, elapsed time.Duration, err error)) {
	p.observe = fn
}

// Size returns the number of completers in the pool.
func (p *Pool) Size() int {
	if p == nil {
		return 0
	}
	return len(p.completers)
}

// Complete tries each completer in order and returns the first successful
// completion. It fails only when every credential in the pool fails, carrying
// the last observed error. Attempts stop early when ctx is canceled.
func (p *Pool) Complete(ctx context.Context, prompt string) (string, error) {
	if p == nil || len(p.completers) == 0 {
		return "", NewPoolExhaustedError("completion", NewAPIError("no completers configured"))
	}

	var lastErr error
	for i, c := range p.completers {
		if err := ctx.Err(); err != nil {
			if lastErr == nil {
				lastErr = err
			}
			break
		}
		start := time.Now()
		text, err := c.Complete(ctx, prompt)
		if p.observe != nil {
			p.observe(c.Name(), time.Since(start), err)
		}
		if err == nil {
			return text, nil
		}
		lastErr = err
		p.logger.Warn("completion credential failed",
			"provider", c.Name(),
			"attempt", i+1,
			"of", len(p.completers),
			"error", err,
		)
	}
	return "", NewPoolExhaustedError("completion", lastErr)
}
