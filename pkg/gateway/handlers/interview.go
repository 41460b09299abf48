package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/vango-go/vai-interview/pkg/gateway/auth"
	"github.com/vango-go/vai-interview/pkg/gateway/config"
	"github.com/vango-go/vai-interview/pkg/gateway/live/session"
	"github.com/vango-go/vai-interview/pkg/gateway/live/sessions"
	"github.com/vango-go/vai-interview/pkg/gateway/metrics"
	"github.com/vango-go/vai-interview/pkg/gateway/mw"
	"github.com/vango-go/vai-interview/pkg/interview/retrieval"
)

// CorpusSource loads the retrieval passages indexed for each session. An
// empty interviewID selects the global corpus.
type CorpusSource interface {
	CorpusDocuments(ctx context.Context, interviewID string) []retrieval.Document
}

// InterviewHandler upgrades /v1/interview requests to a live session.
type InterviewHandler struct {
	Config      config.Config
	Logger      *slog.Logger
	Verifier    auth.Verifier
	Transcriber session.Transcriber
	Synthesizer session.Synthesizer
	Replier     session.ReplyEngine
	Store       session.Persistence
	Corpus      CorpusSource
	Embedder    retrieval.Embedder
	Metrics     *metrics.Metrics
	Sessions    *sessions.Tracker
}

func (h InterviewHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	logger := h.Logger
	if reqID, ok := mw.RequestIDFrom(r.Context()); ok {
		logger = logger.With("request_id", reqID)
	}

	token := strings.TrimSpace(r.URL.Query().Get("token"))
	interviewID := strings.TrimSpace(r.URL.Query().Get("interviewId"))
	if interviewID == "" {
		interviewID = uuid.NewString()
	}

	upgrader := websocket.Upgrader{
		CheckOrigin: func(req *http.Request) bool {
			origin := strings.TrimSpace(req.Header.Get("Origin"))
			if origin == "" || len(h.Config.CORSAllowedOrigins) == 0 {
				return true
			}
			_, ok := h.Config.CORSAllowedOrigins[origin]
			return ok
		},
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	// The index is session-scoped and built only after the session
	// authenticates; a build failure just means no context.
	buildContext := func(ctx context.Context) session.ContextSource {
		if h.Corpus == nil || h.Embedder == nil {
			return nil
		}
		docs := h.Corpus.CorpusDocuments(ctx, interviewID)
		if len(docs) == 0 && h.Config.RetrievalGlobalFallback {
			docs = h.Corpus.CorpusDocuments(ctx, "")
		}
		index, err := retrieval.Build(ctx, h.Embedder, docs)
		if err != nil {
			logger.Warn("retrieval index build failed", "interview_id", interviewID, "error", err)
			return nil
		}
		if index.Len() == 0 {
			return nil
		}
		return index
	}

	s, err := session.New(session.Dependencies{
		Conn:         conn,
		Logger:       logger,
		Verifier:     h.Verifier,
		Token:        token,
		InterviewID:  interviewID,
		Transcriber:  h.Transcriber,
		Synthesizer:  h.Synthesizer,
		Replier:      h.Replier,
		BuildContext: buildContext,
		Store:        h.Store,
		Metrics:      h.Metrics,
		Config: session.Config{
			MaxAudioMessageBytes: h.Config.MaxAudioMessageBytes,
			MaxSessionDuration:   h.Config.SessionMaxDuration,
			TurnTimeout:          h.Config.TurnTimeout,
			WriteTimeout:         h.Config.WSWriteTimeout,
			PingInterval:         h.Config.WSPingInterval,
		},
	})
	if err != nil {
		logger.Error("session setup failed", "interview_id", interviewID, "error", err)
		return
	}

	unregister := h.Sessions.Register(interviewID, sessions.Handle{
		Cancel: s.Cancel,
		Warn:   s.Warn,
	})
	defer unregister()

	if err := s.Run(); err != nil {
		logger.Warn("session ended with error", "interview_id", interviewID, "error", err)
	}
}
