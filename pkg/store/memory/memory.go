// Package memory is the in-process fallback store used when no database is
// configured. Nothing survives a restart; it exists so the gateway can run in
// development and tests with full session semantics.
package memory

import (
	"context"
	"sync"

	"github.com/vango-go/vai-interview/pkg/gateway/live/session"
	"github.com/vango-go/vai-interview/pkg/interview"
	"github.com/vango-go/vai-interview/pkg/interview/retrieval"
)

type Store struct {
	mu        sync.Mutex
	questions []string
	attempts  map[string]int
	turns     map[turnKey]session.TurnRecord
	corpus    map[string][]retrieval.Document
}

type turnKey struct {
	interviewID   string
	attempt       int
	questionIndex int
}

// New builds a store serving the given question list to every interview.
// An empty list falls back to the built-in defaults at query time. The corpus
// seeds the global (unscoped) passage list.
func New(questions []string, corpus []retrieval.Document) *Store {
	s := &Store{
		questions: questions,
		attempts:  make(map[string]int),
		turns:     make(map[turnKey]session.TurnRecord),
		corpus:    make(map[string][]retrieval.Document),
	}
	if len(corpus) > 0 {
		s.corpus[""] = corpus
	}
	return s
}

func (s *Store) AttemptCount(_ context.Context, interviewID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.attempts[interviewID]
}

func (s *Store) Questions(context.Context, string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.questions) > 0 {
		return append([]string(nil), s.questions...)
	}
	return []string{
		"Tell me about yourself and your background.",
		"What is your greatest professional achievement?",
		"Why are you interested in this position?",
	}
}

func (s *Store) SaveTurn(_ context.Context, turn session.TurnRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.turns[turnKey{turn.InterviewID, turn.Attempt, turn.QuestionIndex}] = turn
	return nil
}

func (s *Store) SaveScore(_ context.Context, interviewID, _ string, _ interview.ScoreResult) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.attempts[interviewID]++
	return s.attempts[interviewID], nil
}

// CorpusDocuments returns the passages scoped to one interview; an empty
// interviewID selects the global list.
func (s *Store) CorpusDocuments(_ context.Context, interviewID string) []retrieval.Document {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]retrieval.Document(nil), s.corpus[interviewID]...)
}

// SeedCorpus appends passages scoped to an interview, or to the global list
// when interviewID is empty.
func (s *Store) SeedCorpus(interviewID string, docs []retrieval.Document) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.corpus[interviewID] = append(s.corpus[interviewID], docs...)
}

// Turns returns the persisted exchanges for one interview attempt, ordered by
// question index. Used by tests.
func (s *Store) Turns(interviewID string, attempt int) []session.TurnRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []session.TurnRecord
	for i := 0; ; i++ {
		turn, ok := s.turns[turnKey{interviewID, attempt, i}]
		if !ok {
			break
		}
		out = append(out, turn)
	}
	return out
}
