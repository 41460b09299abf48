package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/vango-go/vai-interview/internal/dotenv"
	"github.com/vango-go/vai-interview/pkg/core"
	"github.com/vango-go/vai-interview/pkg/core/providers/gemini"
	"github.com/vango-go/vai-interview/pkg/core/providers/groq"
	"github.com/vango-go/vai-interview/pkg/core/voice/stt"
	"github.com/vango-go/vai-interview/pkg/core/voice/tts"
	"github.com/vango-go/vai-interview/pkg/gateway/auth"
	"github.com/vango-go/vai-interview/pkg/gateway/config"
	"github.com/vango-go/vai-interview/pkg/gateway/live/session"
	"github.com/vango-go/vai-interview/pkg/gateway/metrics"
	gatewayserver "github.com/vango-go/vai-interview/pkg/gateway/server"
	"github.com/vango-go/vai-interview/pkg/interview"
	"github.com/vango-go/vai-interview/pkg/interview/retrieval"
	"github.com/vango-go/vai-interview/pkg/store/memory"
	"github.com/vango-go/vai-interview/pkg/store/postgres"
)

type serverDeps struct {
	loadConfig   func() (config.Config, error)
	buildGateway func(context.Context, config.Config, *slog.Logger) (*gatewayserver.Server, func(), error)
	signalNotify func(chan<- os.Signal, ...os.Signal)
	signalStop   func(chan<- os.Signal)
}

func defaultServerDeps() serverDeps {
	return serverDeps{
		loadConfig:   config.LoadFromEnv,
		buildGateway: buildGateway,
		signalNotify: func(c chan<- os.Signal, sig ...os.Signal) {
			signal.Notify(c, sig...)
		},
		signalStop: signal.Stop,
	}
}

// allowAllVerifier backs auth_mode=disabled.
type allowAllVerifier struct{}

func (allowAllVerifier) Verify(_ context.Context, token string) (auth.Identity, error) {
	return auth.Identity{UserID: "anonymous"}, nil
}

// pgStoreAdapter maps the session-facing persistence interface onto the
// Postgres store.
type pgStoreAdapter struct {
	store *postgres.Store
}

func (a pgStoreAdapter) AttemptCount(ctx context.Context, interviewID string) int {
	return a.store.AttemptCount(ctx, interviewID)
}

func (a pgStoreAdapter) Questions(ctx context.Context, interviewID string) []string {
	return a.store.Questions(ctx, interviewID)
}

func (a pgStoreAdapter) SaveTurn(ctx context.Context, turn session.TurnRecord) error {
	return a.store.SaveTurn(ctx, postgres.Turn{
		InterviewID:   turn.InterviewID,
		Attempt:       turn.Attempt,
		QuestionIndex: turn.QuestionIndex,
		Question:      turn.Question,
		Answer:        turn.Answer,
		Reply:         turn.Reply,
		Metrics:       turn.Metrics,
	})
}

func (a pgStoreAdapter) SaveScore(ctx context.Context, interviewID, userID string, result interview.ScoreResult) (int, error) {
	return a.store.SaveScore(ctx, interviewID, userID, result)
}

func (a pgStoreAdapter) CorpusDocuments(ctx context.Context, interviewID string) []retrieval.Document {
	return a.store.CorpusDocuments(ctx, interviewID)
}

func buildVerifier(cfg config.Config, logger *slog.Logger) auth.Verifier {
	switch cfg.AuthMode {
	case config.AuthModeStatic:
		return auth.NewStatic(cfg.StaticTokens)
	case config.AuthModeDisabled:
		return allowAllVerifier{}
	default:
		return auth.NewWorkOS(cfg.WorkOSAPIKey, logger)
	}
}

func buildGateway(ctx context.Context, cfg config.Config, logger *slog.Logger) (*gatewayserver.Server, func(), error) {
	cleanup := func() {}

	completers := make([]core.Completer, 0, len(cfg.GroqAPIKeys)+1)
	for _, key := range cfg.GroqAPIKeys {
		completers = append(completers, groq.New(key, groq.WithModel(cfg.GroqModel)))
	}

	var embedder retrieval.Embedder = retrieval.NewHashEmbedder()
	if cfg.GeminiAPIKey != "" {
		gp, err := gemini.New(ctx, cfg.GeminiAPIKey,
			gemini.WithModel(cfg.GeminiModel),
			gemini.WithEmbeddingModel(cfg.EmbeddingModel),
		)
		if err != nil {
			return nil, cleanup, fmt.Errorf("init gemini: %w", err)
		}
		completers = append(completers, gp)
		embedder = gp
	}
	gatewayMetrics := metrics.New("vai_interview")
	pool := core.NewPool(logger, completers...)
	pool.Observe(func(provider string, elapsed time.Duration, err error) {
		gatewayMetrics.RecordProviderCall("completion", provider, elapsed)
		if err != nil {
			gatewayMetrics.RecordFailover("completion")
		}
	})
	replier := interview.NewGenerator(pool, logger)

	transcriber := stt.NewGroq(cfg.STTAPIKey(), logger, stt.WithModel(cfg.GroqSTTModel))
	synthesizer := tts.NewGroq(cfg.GroqAPIKeys, logger,
		tts.WithModel(cfg.GroqTTSModel),
		tts.WithVoice(cfg.GroqTTSVoice),
	)

	var (
		store  session.Persistence
		corpus interface {
			CorpusDocuments(context.Context, string) []retrieval.Document
		}
	)
	if cfg.DatabaseURL != "" {
		pg, err := postgres.New(ctx, cfg.DatabaseURL, logger)
		if err != nil {
			return nil, cleanup, fmt.Errorf("init postgres: %w", err)
		}
		cleanup = pg.Close
		if cfg.MigrateOnStart {
			if err := pg.Migrate(ctx); err != nil {
				pg.Close()
				return nil, func() {}, fmt.Errorf("migrate: %w", err)
			}
		}
		adapter := pgStoreAdapter{store: pg}
		store = adapter
		corpus = adapter
	} else {
		logger.Warn("no database configured, using in-memory store")
		mem := memory.New(nil, nil)
		store = mem
		corpus = mem
	}

	srv := gatewayserver.New(cfg, logger, gatewayserver.Dependencies{
		Verifier:    buildVerifier(cfg, logger),
		Transcriber: transcriber,
		Synthesizer: synthesizer,
		Replier:     replier,
		Store:       store,
		Corpus:      corpus,
		Embedder:    embedder,
		Metrics:     gatewayMetrics,
	})
	return srv, cleanup, nil
}

func buildHTTPServer(cfg config.Config, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
	}
}

func runServer(ctx context.Context, logger *slog.Logger, deps serverDeps) error {
	if deps.loadConfig == nil {
		return errors.New("missing loadConfig dependency")
	}
	if deps.buildGateway == nil {
		return errors.New("missing buildGateway dependency")
	}
	if deps.signalNotify == nil || deps.signalStop == nil {
		return errors.New("missing signal dependency")
	}
	if logger == nil {
		logger = slog.Default()
	}

	cfg, err := deps.loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	gw, cleanup, err := deps.buildGateway(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("build gateway: %w", err)
	}
	defer cleanup()

	httpSrv := buildHTTPServer(cfg, gw.Handler())

	logger.Info("starting interview gateway", "addr", cfg.Addr, "auth_mode", cfg.AuthMode)

	listenErrCh := make(chan error, 1)
	go func() {
		err := httpSrv.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			listenErrCh <- err
			return
		}
		listenErrCh <- nil
	}()

	sigCh := make(chan os.Signal, 1)
	deps.signalNotify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer deps.signalStop(sigCh)

	select {
	case err := <-listenErrCh:
		if err != nil {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case sig := <-sigCh:
		logger.Info("shutdown signal received", "signal", sig.String())
	}

	tracker := gw.Sessions()
	if n := tracker.WarnAll("the service is restarting, your session will end shortly"); n > 0 {
		logger.Info("warned live sessions", "count", n)
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownGracePeriod)
	defer shutdownCancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown http server: %w", err)
	}

	waitCtx, waitCancel := context.WithTimeout(context.Background(), cfg.ShutdownGracePeriod)
	defer waitCancel()
	if !tracker.Wait(waitCtx) {
		tracker.CancelAll()
	}

	if err := <-listenErrCh; err != nil {
		return fmt.Errorf("serve: %w", err)
	}

	logger.Info("gateway stopped")
	return nil
}

func runMain(ctx context.Context, stderr io.Writer, deps serverDeps) int {
	if stderr == nil {
		stderr = os.Stderr
	}
	logger := slog.New(slog.NewTextHandler(stderr, nil))

	if err := dotenv.Load(); err != nil {
		fmt.Fprintf(stderr, "vai-interview: %v\n", err)
		return 1
	}

	if err := runServer(ctx, logger, deps); err != nil {
		fmt.Fprintf(stderr, "vai-interview: %v\n", err)
		return 1
	}
	return 0
}

func main() {
	os.Exit(runMain(context.Background(), os.Stderr, defaultServerDeps()))
}
