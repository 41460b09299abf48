// Package postgres persists interview sessions: questions, per-turn
// transcripts, delivery metrics, and final scores.
package postgres

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/vango-go/vai-interview/pkg/interview"
	"github.com/vango-go/vai-interview/pkg/interview/retrieval"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// DefaultQuestions are served when neither the interview nor the global
// question table has anything to offer. A session must never start with zero
// questions.
var DefaultQuestions = []string{
	"Tell me about yourself and your background.",
	"What is your greatest professional achievement?",
	"Why are you interested in this position?",
}

// Store wraps a pgx connection pool with interview persistence operations.
type Store struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// New connects to dsn and verifies the connection.
func New(ctx context.Context, dsn string, logger *slog.Logger) (*Store, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return &Store{pool: pool, logger: logger}, nil
}

// Close releases the connection pool.
func (s *Store) Close() {
	s.pool.Close()
}

// Migrate applies pending schema migrations.
func (s *Store) Migrate(ctx context.Context) error {
	goose.SetBaseFS(migrationsFS)
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("set migration dialect: %w", err)
	}
	db := stdlib.OpenDBFromPool(s.pool)
	defer db.Close()
	if err := goose.UpContext(ctx, db, "migrations"); err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}
	return nil
}

// AttemptCount returns the number of completed attempts recorded for the
// interview. Unknown interviews and read failures count as zero so a session
// can always start; the failure is logged, not surfaced.
func (s *Store) AttemptCount(ctx context.Context, interviewID string) int {
	var count int
	err := s.pool.QueryRow(ctx,
		`SELECT attempt_count FROM interviews WHERE id = $1`,
		interviewID,
	).Scan(&count)
	if err != nil {
		if !errors.Is(err, pgx.ErrNoRows) {
			s.logger.Warn("attempt count read failed", "interview_id", interviewID, "error", err)
		}
		return 0
	}
	return count
}

// Questions returns the interview's question list: its own questions first,
// then the shared collection filtered to this interview, then the built-in
// defaults. The result is never empty.
func (s *Store) Questions(ctx context.Context, interviewID string) []string {
	if qs := s.queryQuestions(ctx,
		`SELECT text FROM interview_questions WHERE interview_id = $1 ORDER BY position`,
		interviewID,
	); len(qs) > 0 {
		return qs
	}
	if qs := s.queryQuestions(ctx,
		`SELECT text FROM global_questions WHERE interview_id = $1 ORDER BY position`,
		interviewID,
	); len(qs) > 0 {
		return qs
	}
	return append([]string(nil), DefaultQuestions...)
}

func (s *Store) queryQuestions(ctx context.Context, sql string, args ...any) []string {
	rows, err := s.pool.Query(ctx, sql, args...)
	if err != nil {
		s.logger.Warn("question query failed", "error", err)
		return nil
	}
	defer rows.Close()

	var questions []string
	for rows.Next() {
		var text string
		if err := rows.Scan(&text); err != nil {
			s.logger.Warn("question scan failed", "error", err)
			return nil
		}
		questions = append(questions, text)
	}
	if err := rows.Err(); err != nil {
		s.logger.Warn("question rows failed", "error", err)
		return nil
	}
	return questions
}

// Turn is one persisted question/answer exchange.
type Turn struct {
	InterviewID   string
	Attempt       int
	QuestionIndex int
	Question      string
	Answer        string
	Reply         string
	Metrics       *interview.DeliveryMetrics
}

// SaveTurn upserts one exchange keyed by (interview, attempt, question index),
// so a reconnect that replays a question overwrites rather than duplicates.
func (s *Store) SaveTurn(ctx context.Context, turn Turn) error {
	var metricsJSON []byte
	if turn.Metrics != nil {
		var err error
		metricsJSON, err = json.Marshal(turn.Metrics)
		if err != nil {
			return fmt.Errorf("encode turn metrics: %w", err)
		}
	}

	_, err := s.pool.Exec(ctx, `
		INSERT INTO interview_turns (interview_id, attempt, question_index, question, answer, reply, metrics)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (interview_id, attempt, question_index)
		DO UPDATE SET question = EXCLUDED.question,
		              answer = EXCLUDED.answer,
		              reply = EXCLUDED.reply,
		              metrics = EXCLUDED.metrics`,
		turn.InterviewID, turn.Attempt, turn.QuestionIndex,
		turn.Question, turn.Answer, turn.Reply, metricsJSON,
	)
	if err != nil {
		return fmt.Errorf("save turn: %w", err)
	}
	return nil
}

// SaveScore records the final result and bumps the attempt counter in one
// statement, returning the new attempt count.
func (s *Store) SaveScore(ctx context.Context, interviewID, userID string, result interview.ScoreResult) (int, error) {
	var attempt int
	err := s.pool.QueryRow(ctx, `
		INSERT INTO interviews (id, user_id, attempt_count, score, justification, updated_at)
		VALUES ($1, $2, 1, $3, $4, now())
		ON CONFLICT (id)
		DO UPDATE SET attempt_count = interviews.attempt_count + 1,
		              score = EXCLUDED.score,
		              justification = EXCLUDED.justification,
		              user_id = EXCLUDED.user_id,
		              updated_at = now()
		RETURNING attempt_count`,
		interviewID, userID, result.Score, result.Justification,
	).Scan(&attempt)
	if err != nil {
		return 0, fmt.Errorf("save score: %w", err)
	}
	return attempt, nil
}

// CorpusDocuments loads the retrieval passages scoped to one interview; an
// empty interviewID selects the unscoped global passages. A read failure
// yields an empty corpus; sessions run without context rather than refusing
// to start.
func (s *Store) CorpusDocuments(ctx context.Context, interviewID string) []retrieval.Document {
	rows, err := s.pool.Query(ctx,
		`SELECT text, metadata FROM corpus_documents WHERE interview_id = $1 ORDER BY id`,
		interviewID,
	)
	if err != nil {
		s.logger.Warn("corpus query failed", "error", err)
		return nil
	}
	defer rows.Close()

	var docs []retrieval.Document
	for rows.Next() {
		var text string
		var metaJSON []byte
		if err := rows.Scan(&text, &metaJSON); err != nil {
			s.logger.Warn("corpus scan failed", "error", err)
			return nil
		}
		doc := retrieval.Document{Text: text}
		if len(metaJSON) > 0 {
			if err := json.Unmarshal(metaJSON, &doc.Metadata); err != nil {
				s.logger.Warn("corpus metadata decode failed", "error", err)
			}
		}
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		s.logger.Warn("corpus rows failed", "error", err)
		return nil
	}
	return docs
}

// SeedQuestions replaces an interview's own question list.
func (s *Store) SeedQuestions(ctx context.Context, interviewID string, questions []string) error {
	if interviewID == "" {
		return fmt.Errorf("seed questions: interview id is required")
	}
	return s.replaceQuestions(ctx, "interview_questions", interviewID, questions)
}

// SeedGlobalQuestions replaces the shared-collection questions tagged for one
// interview. Sessions read this tier only when the interview has no question
// list of its own.
func (s *Store) SeedGlobalQuestions(ctx context.Context, interviewID string, questions []string) error {
	if interviewID == "" {
		return fmt.Errorf("seed global questions: interview id is required")
	}
	return s.replaceQuestions(ctx, "global_questions", interviewID, questions)
}

func (s *Store) replaceQuestions(ctx context.Context, table, interviewID string, questions []string) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin seed: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx,
		`DELETE FROM `+table+` WHERE interview_id = $1`, interviewID,
	); err != nil {
		return fmt.Errorf("clear %s: %w", table, err)
	}
	for i, q := range questions {
		if _, err := tx.Exec(ctx,
			`INSERT INTO `+table+` (interview_id, position, text) VALUES ($1, $2, $3)`,
			interviewID, i, q,
		); err != nil {
			return fmt.Errorf("insert into %s at %d: %w", table, i, err)
		}
	}

	return tx.Commit(ctx)
}

// SeedCorpus appends retrieval passages scoped to an interview, or to the
// global corpus when interviewID is empty.
func (s *Store) SeedCorpus(ctx context.Context, interviewID string, docs []retrieval.Document) error {
	for i, doc := range docs {
		var metaJSON []byte
		if doc.Metadata != nil {
			var err error
			metaJSON, err = json.Marshal(doc.Metadata)
			if err != nil {
				return fmt.Errorf("encode corpus metadata %d: %w", i, err)
			}
		}
		if _, err := s.pool.Exec(ctx,
			`INSERT INTO corpus_documents (interview_id, text, metadata) VALUES ($1, $2, $3)`,
			interviewID, doc.Text, metaJSON,
		); err != nil {
			return fmt.Errorf("insert corpus document %d: %w", i, err)
		}
	}
	return nil
}
