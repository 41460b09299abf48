// Package server wires routes and middleware for the interview gateway.
package server

import (
	"log/slog"
	"net/http"

	"github.com/vango-go/vai-interview/pkg/gateway/auth"
	"github.com/vango-go/vai-interview/pkg/gateway/config"
	"github.com/vango-go/vai-interview/pkg/gateway/handlers"
	"github.com/vango-go/vai-interview/pkg/gateway/live/session"
	"github.com/vango-go/vai-interview/pkg/gateway/live/sessions"
	"github.com/vango-go/vai-interview/pkg/gateway/metrics"
	"github.com/vango-go/vai-interview/pkg/gateway/mw"
	"github.com/vango-go/vai-interview/pkg/interview/retrieval"
)

// Dependencies are the capabilities the server routes to.
type Dependencies struct {
	Verifier    auth.Verifier
	Transcriber session.Transcriber
	Synthesizer session.Synthesizer
	Replier     session.ReplyEngine
	Store       session.Persistence
	Corpus      handlers.CorpusSource
	Embedder    retrieval.Embedder
	Metrics     *metrics.Metrics
	Sessions    *sessions.Tracker
}

type Server struct {
	cfg    config.Config
	logger *slog.Logger
	mux    *http.ServeMux
	deps   Dependencies
}

func New(cfg config.Config, logger *slog.Logger, deps Dependencies) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if deps.Sessions == nil {
		deps.Sessions = sessions.NewTracker()
	}

	s := &Server{
		cfg:    cfg,
		logger: logger,
		mux:    http.NewServeMux(),
		deps:   deps,
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.mux.Handle("/healthz", handlers.HealthHandler{})
	s.mux.Handle("/readyz", handlers.ReadyHandler{Config: s.cfg, Sessions: s.deps.Sessions})
	if s.deps.Metrics != nil {
		s.mux.Handle("/metrics", s.deps.Metrics.Handler())
	}

	s.mux.Handle("/v1/interview", handlers.InterviewHandler{
		Config:      s.cfg,
		Logger:      s.logger,
		Verifier:    s.deps.Verifier,
		Transcriber: s.deps.Transcriber,
		Synthesizer: s.deps.Synthesizer,
		Replier:     s.deps.Replier,
		Store:       s.deps.Store,
		Corpus:      s.deps.Corpus,
		Embedder:    s.deps.Embedder,
		Metrics:     s.deps.Metrics,
		Sessions:    s.deps.Sessions,
	})
}

// Sessions exposes the live-session tracker for drain handling.
func (s *Server) Sessions() *sessions.Tracker {
	return s.deps.Sessions
}

func (s *Server) Handler() http.Handler {
	var h http.Handler = s.mux
	h = mw.CORS(s.cfg, h)
	h = mw.Recover(s.logger, h)
	h = mw.AccessLog(s.logger, h)
	h = mw.RequestID(h)
	return h
}
