// Package session runs one live interview over a WebSocket: authenticate,
// greet, loop through answer turns, score, close.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/vango-go/vai-interview/pkg/gateway/auth"
	"github.com/vango-go/vai-interview/pkg/gateway/live/protocol"
	"github.com/vango-go/vai-interview/pkg/gateway/metrics"
	"github.com/vango-go/vai-interview/pkg/interview"
)

// Transcriber converts one recorded answer to text. Empty string means no
// usable transcript.
type Transcriber interface {
	Transcribe(ctx context.Context, audio []byte) string
}

// Synthesizer renders reply text to audio. Nil means synthesis failed; the
// turn continues without audio.
type Synthesizer interface {
	Synthesize(ctx context.Context, text string) []byte
}

// ReplyEngine generates interviewer replies and the final evaluation.
type ReplyEngine interface {
	Reply(ctx context.Context, input interview.ReplyInput) (string, error)
	FinalScore(ctx context.Context, history []interview.Message, questions []string, metrics map[int]*interview.DeliveryMetrics) (interview.ScoreResult, error)
}

// ContextSource supplies retrieval context for one query. A nil source or an
// empty result both mean "no context".
type ContextSource interface {
	Context(ctx context.Context, query string) string
}

// ContextBuilder constructs the session's retrieval source. It runs only
// after authentication succeeds, so rejected connections never pay the
// corpus-load and embedding cost. Returning nil means no context.
type ContextBuilder func(ctx context.Context) ContextSource

// TurnRecord is one completed exchange handed to persistence.
type TurnRecord struct {
	InterviewID   string
	Attempt       int
	QuestionIndex int
	Question      string
	Answer        string
	Reply         string
	Metrics       *interview.DeliveryMetrics
}

// Persistence stores turns and scores. Read failures degrade (zero attempts,
// default questions); write failures are logged and swallowed so they never
// stall the conversation.
type Persistence interface {
	AttemptCount(ctx context.Context, interviewID string) int
	Questions(ctx context.Context, interviewID string) []string
	SaveTurn(ctx context.Context, turn TurnRecord) error
	SaveScore(ctx context.Context, interviewID, userID string, result interview.ScoreResult) (int, error)
}

type Config struct {
	MaxAudioMessageBytes int64
	MaxSessionDuration   time.Duration
	TurnTimeout          time.Duration
	WriteTimeout         time.Duration
	PingInterval         time.Duration
}

type Dependencies struct {
	Conn         *websocket.Conn
	Logger       *slog.Logger
	Verifier     auth.Verifier
	Token        string
	InterviewID  string
	Transcriber  Transcriber
	Synthesizer  Synthesizer
	Replier      ReplyEngine
	BuildContext ContextBuilder
	Store        Persistence
	Metrics      *metrics.Metrics
	Config       Config
	Now          func() time.Time
}

type state int

const (
	stateAuthenticating state = iota
	stateAwaitingAnswer
	stateProcessing
	stateFinalizing
	stateClosed
)

// Session owns one interview conversation. It is driven by a single loop;
// only the read pump runs concurrently.
type Session struct {
	conn         *websocket.Conn
	logger       *slog.Logger
	verifier     auth.Verifier
	token        string
	interviewID  string
	transcriber  Transcriber
	synthesizer  Synthesizer
	replier      ReplyEngine
	buildContext ContextBuilder
	contextSrc   ContextSource
	store        Persistence
	metrics      *metrics.Metrics
	cfg          Config
	now          func() time.Time

	ctx    context.Context
	cancel context.CancelFunc

	// Guards conn writes: the loop and drain warnings may write concurrently.
	writeMu sync.Mutex

	userID    string
	attempt   int
	questions []string
	cursor    int
	history   []interview.Message

	// Client-reported delivery signals, buffered until their question index
	// is processed, then moved to finalized for scoring.
	pending   map[int]*interview.DeliveryMetrics
	finalized map[int]*interview.DeliveryMetrics
}

type inboundFrame struct {
	messageType int
	data        []byte
	err         error
}

func New(deps Dependencies) (*Session, error) {
	if deps.Conn == nil {
		return nil, fmt.Errorf("connection is required")
	}
	if deps.Verifier == nil {
		return nil, fmt.Errorf("verifier is required")
	}
	if deps.Transcriber == nil {
		return nil, fmt.Errorf("transcriber is required")
	}
	if deps.Replier == nil {
		return nil, fmt.Errorf("reply engine is required")
	}
	if deps.Store == nil {
		return nil, fmt.Errorf("persistence is required")
	}
	if deps.InterviewID == "" {
		return nil, fmt.Errorf("interview id is required")
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.Config.WriteTimeout <= 0 {
		deps.Config.WriteTimeout = 10 * time.Second
	}
	if deps.Config.PingInterval <= 0 {
		deps.Config.PingInterval = 20 * time.Second
	}

	baseCtx := context.Background()
	var cancel context.CancelFunc
	if deps.Config.MaxSessionDuration > 0 {
		baseCtx, cancel = context.WithTimeout(baseCtx, deps.Config.MaxSessionDuration)
	} else {
		baseCtx, cancel = context.WithCancel(baseCtx)
	}

	return &Session{
		conn:         deps.Conn,
		logger:       deps.Logger.With("interview_id", deps.InterviewID),
		verifier:     deps.Verifier,
		token:        deps.Token,
		interviewID:  deps.InterviewID,
		transcriber:  deps.Transcriber,
		synthesizer:  deps.Synthesizer,
		replier:      deps.Replier,
		buildContext: deps.BuildContext,
		store:        deps.Store,
		metrics:      deps.Metrics,
		cfg:          deps.Config,
		now:          deps.Now,
		ctx:          baseCtx,
		cancel:       cancel,
		pending:      make(map[int]*interview.DeliveryMetrics),
		finalized:    make(map[int]*interview.DeliveryMetrics),
	}, nil
}

// Cancel aborts the session; the loop unwinds at its next suspension point.
func (s *Session) Cancel() {
	s.cancel()
}

// Warn pushes a textual notice to the client. Used during drain.
func (s *Session) Warn(message string) error {
	return s.send(protocol.Notice{Text: message})
}

// Run drives the session to completion. It returns once the channel closes,
// the session finishes, or the context is canceled.
func (s *Session) Run() error {
	defer s.cancel()

	start := s.now()
	status := "error"
	if s.metrics != nil {
		s.metrics.RecordSessionStart()
		defer func() {
			s.metrics.RecordSessionEnd(status, s.now().Sub(start))
		}()
	}

	identity, err := s.verifier.Verify(s.ctx, s.token)
	if err != nil {
		s.logger.Warn("session rejected", "error", err)
		s.closeWith(protocol.CloseAuthFailure, "authentication failed")
		status = "auth_failed"
		return err
	}
	s.userID = identity.UserID

	s.attempt = s.store.AttemptCount(s.ctx, s.interviewID) + 1
	s.questions = s.store.Questions(s.ctx, s.interviewID)
	if len(s.questions) == 0 {
		s.closeWith(websocket.CloseInternalServerErr, "no questions available")
		return fmt.Errorf("no questions for interview %s", s.interviewID)
	}
	s.logger.Info("session started", "user_id", s.userID, "attempt", s.attempt, "questions", len(s.questions))

	if s.buildContext != nil {
		s.contextSrc = s.buildContext(s.ctx)
	}

	if s.cfg.MaxAudioMessageBytes > 0 {
		s.conn.SetReadLimit(s.cfg.MaxAudioMessageBytes)
	}

	if err := s.sendIntro(); err != nil {
		return err
	}

	frames := make(chan inboundFrame, 8)
	go s.readPump(frames)
	go s.pingLoop()

	err = s.loop(frames)
	if err == nil {
		status = "completed"
	} else if errors.Is(err, context.Canceled) || websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway, websocket.CloseNoStatusReceived) {
		status = "disconnected"
		err = nil
	}
	return err
}

func (s *Session) loop(frames <-chan inboundFrame) error {
	st := stateAwaitingAnswer
	for st != stateClosed {
		switch st {
		case stateAwaitingAnswer:
			select {
			case <-s.ctx.Done():
				return s.ctx.Err()
			case frame, ok := <-frames:
				if !ok {
					return nil
				}
				if frame.err != nil {
					return frame.err
				}
				switch frame.messageType {
				case websocket.TextMessage:
					s.handleTextFrame(frame.data)
				case websocket.BinaryMessage:
					st = stateProcessing
					advanced := s.processTurn(frame.data)
					if advanced && s.cursor >= len(s.questions) {
						st = stateFinalizing
					} else {
						st = stateAwaitingAnswer
					}
				}
			}
		case stateFinalizing:
			s.finalize()
			s.closeWith(websocket.CloseNormalClosure, "interview complete")
			st = stateClosed
		}
	}
	return nil
}

// handleTextFrame buffers metrics notices. Anything else is dropped without
// acknowledgment.
func (s *Session) handleTextFrame(data []byte) {
	msg, err := protocol.DecodeClientMessage(data)
	if err != nil {
		s.logger.Debug("ignoring inbound frame", "error", err)
		return
	}
	if m, ok := msg.(protocol.ClientMetrics); ok && m.Metrics != nil {
		s.pending[m.QuestionIndex] = m.Metrics
	}
}

// processTurn runs one answer through transcribe, persist, reply, synthesize.
// It reports whether the question cursor advanced.
func (s *Session) processTurn(audio []byte) bool {
	turnStart := s.now()
	index := s.cursor
	question := s.questions[index]

	ctx := s.ctx
	if s.cfg.TurnTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.TurnTimeout)
		defer cancel()
	}

	sttStart := s.now()
	transcript := s.transcriber.Transcribe(ctx, audio)
	s.recordStage("transcribe", sttStart)
	if transcript == "" {
		s.recordTurn("empty_transcript", turnStart)
		_ = s.send(protocol.NewErrorNotice("could not transcribe audio, please try again"))
		return false
	}

	bundle := s.pending[index]
	delete(s.pending, index)
	if bundle == nil {
		// A retried turn re-enters this index after its metrics were already
		// consumed; keep the bundle from the first pass.
		bundle = s.finalized[index]
	}
	s.finalized[index] = bundle

	s.history = append(s.history, interview.Message{Role: interview.RoleUser, Content: transcript})
	_ = s.send(protocol.NewTranscript(s.interviewID, index, transcript, bundle))

	// The answer is recorded as soon as it transcribes; a downstream failure
	// must not lose it. The reply lands in the same row once generated.
	s.persistTurn(ctx, TurnRecord{
		InterviewID:   s.interviewID,
		Attempt:       s.attempt,
		QuestionIndex: index,
		Question:      question,
		Answer:        transcript,
		Metrics:       bundle,
	})

	var nextQuestion string
	if index+1 < len(s.questions) {
		nextQuestion = s.questions[index+1]
	}

	replyStart := s.now()
	reply, err := s.replier.Reply(ctx, interview.ReplyInput{
		Answer:          transcript,
		History:         s.history,
		CurrentQuestion: question,
		NextQuestion:    nextQuestion,
		Metrics:         bundle,
		Context:         s.contextFunc(),
	})
	s.recordStage("reply", replyStart)
	if err != nil {
		s.logger.Error("reply generation failed", "question_index", index, "error", err)
		s.recordError("completion", "reply_failed")
		s.recordTurn("reply_failed", turnStart)
		_ = s.send(protocol.NewErrorNotice("could not generate a response, please try again"))
		return false
	}

	s.history = append(s.history, interview.Message{Role: interview.RoleAssistant, Content: reply})
	s.persistTurn(ctx, TurnRecord{
		InterviewID:   s.interviewID,
		Attempt:       s.attempt,
		QuestionIndex: index,
		Question:      question,
		Answer:        transcript,
		Reply:         reply,
		Metrics:       bundle,
	})

	var audioOut []byte
	if s.synthesizer != nil {
		ttsStart := s.now()
		audioOut = s.synthesizer.Synthesize(ctx, reply)
		s.recordStage("synthesize", ttsStart)
		if audioOut == nil {
			s.recordError("speech", "synthesis_failed")
		}
	}

	_ = s.send(protocol.NewLLMResponse(s.interviewID, index, reply, audioOut))

	s.cursor++
	s.recordTurn("completed", turnStart)
	return true
}

func (s *Session) finalize() {
	result, err := s.replier.FinalScore(s.ctx, s.history, s.questions, s.finalized)
	if err != nil {
		s.logger.Error("final scoring failed", "error", err)
		s.recordError("completion", "scoring_failed")
		_ = s.send(protocol.NewErrorNotice("could not score the interview"))
		return
	}

	// A failed score write reports attempt 1; the counter is only trusted
	// when the upsert that bumps it succeeds.
	attempt := 1
	if saved, err := s.store.SaveScore(s.ctx, s.interviewID, s.userID, result); err != nil {
		s.logger.Error("score persistence failed", "error", err)
		s.recordError("store", "save_score")
	} else {
		attempt = saved
	}

	s.logger.Info("session scored", "score", result.Score, "attempt", attempt)
	_ = s.send(protocol.NewFinalScore(s.interviewID, result, attempt))
}

func (s *Session) sendIntro() error {
	text := fmt.Sprintf(
		"Hello, I am your AI interviewer. We will proceed through the questions one by one.\n\nYour first question is: %s",
		s.questions[0],
	)
	s.history = append(s.history, interview.Message{Role: interview.RoleAssistant, Content: text})

	var audio []byte
	if s.synthesizer != nil {
		audio = s.synthesizer.Synthesize(s.ctx, text)
	}
	return s.send(protocol.Intro{
		Text:          text,
		AudioB64:      protocol.EncodeAudio(audio),
		InterviewID:   s.interviewID,
		QuestionIndex: 0,
	})
}

func (s *Session) contextFunc() interview.ContextFunc {
	if s.contextSrc == nil {
		return nil
	}
	return s.contextSrc.Context
}

func (s *Session) persistTurn(ctx context.Context, turn TurnRecord) {
	if err := s.store.SaveTurn(ctx, turn); err != nil {
		s.logger.Error("turn persistence failed", "question_index", turn.QuestionIndex, "error", err)
		s.recordError("store", "save_turn")
	}
}

func (s *Session) send(msg any) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("encode outbound message: %w", err)
	}
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	_ = s.conn.SetWriteDeadline(s.now().Add(s.cfg.WriteTimeout))
	return s.conn.WriteMessage(websocket.TextMessage, data)
}

func (s *Session) closeWith(code int, reason string) {
	deadline := s.now().Add(s.cfg.WriteTimeout)
	_ = s.conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(code, reason), deadline)
	_ = s.conn.Close()
}

func (s *Session) readPump(out chan<- inboundFrame) {
	defer close(out)
	for {
		messageType, data, err := s.conn.ReadMessage()
		if err != nil {
			select {
			case out <- inboundFrame{err: err}:
			case <-s.ctx.Done():
			}
			return
		}
		select {
		case out <- inboundFrame{messageType: messageType, data: data}:
		case <-s.ctx.Done():
			return
		}
	}
}

func (s *Session) pingLoop() {
	ticker := time.NewTicker(s.cfg.PingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-s.ctx.Done():
			return
		case <-ticker.C:
			deadline := s.now().Add(s.cfg.WriteTimeout)
			if err := s.conn.WriteControl(websocket.PingMessage, []byte("ping"), deadline); err != nil {
				return
			}
		}
	}
}

func (s *Session) recordStage(stage string, start time.Time) {
	if s.metrics != nil {
		s.metrics.RecordStage(stage, s.now().Sub(start))
	}
}

func (s *Session) recordTurn(status string, start time.Time) {
	if s.metrics != nil {
		s.metrics.RecordTurn(status, s.now().Sub(start))
	}
}

func (s *Session) recordError(capability, errorType string) {
	if s.metrics != nil {
		s.metrics.RecordError(capability, errorType)
	}
}
