package interview

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func TestReply_PromptShape(t *testing.T) {
	var captured string
	g := testGenerator(scriptedCompleter{name: "fake", fn: func(prompt string) (string, error) {
		captured = prompt
		return "Good answer. My next question is about teamwork.", nil
	}})

	got, err := g.Reply(context.Background(), ReplyInput{
		Answer:          "I led a migration project",
		History:         []Message{{Role: RoleAssistant, Content: "Tell me about a project"}},
		CurrentQuestion: "Tell me about a project",
		NextQuestion:    "How do you handle conflict?",
		Metrics:         &DeliveryMetrics{SilenceRatio: f64(0.5)},
		Context: func(_ context.Context, query string) string {
			if !strings.Contains(query, "I led a migration project") {
				t.Errorf("retrieval query missing answer: %q", query)
			}
			return "The role requires Go experience."
		},
	})
	if err != nil {
		t.Fatalf("Reply: %v", err)
	}
	if got == "" {
		t.Fatal("empty reply")
	}

	for _, want := range []string{
		"moderate pauses",
		"The role requires Go experience.",
		"Interviewer: Tell me about a project",
		"Candidate's answer:\nI led a migration project",
		"How do you handle conflict?",
		"Is this the last question? no",
	} {
		if !strings.Contains(captured, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
}

func TestReply_LastQuestion(t *testing.T) {
	var captured string
	g := testGenerator(scriptedCompleter{name: "fake", fn: func(prompt string) (string, error) {
		captured = prompt
		return "Well done. The interview is over.", nil
	}})

	_, err := g.Reply(context.Background(), ReplyInput{
		Answer:          "final answer",
		CurrentQuestion: "last question",
	})
	if err != nil {
		t.Fatalf("Reply: %v", err)
	}
	if !strings.Contains(captured, "Is this the last question? yes") {
		t.Error("prompt should flag the last question")
	}
	if !strings.Contains(captured, "Audio analysis unavailable for this answer.") {
		t.Error("prompt should state audio analysis is unavailable when metrics absent")
	}
}

func TestReply_NoContextSupplier(t *testing.T) {
	g := testGenerator(scriptedCompleter{name: "fake", fn: func(prompt string) (string, error) {
		if !strings.Contains(prompt, "<context>\n\n</context>") {
			return "", errors.New("context block should be empty")
		}
		return "ok", nil
	}})

	if _, err := g.Reply(context.Background(), ReplyInput{Answer: "a", CurrentQuestion: "q"}); err != nil {
		t.Fatalf("Reply: %v", err)
	}
}

func TestReply_FailoverUsesSecondCredential(t *testing.T) {
	first := scriptedCompleter{name: "one", fn: func(string) (string, error) {
		return "", errors.New("server busy")
	}}
	second := scriptedCompleter{name: "two", fn: func(string) (string, error) {
		return "from the backup credential", nil
	}}

	g := testGenerator(first, second)
	got, err := g.Reply(context.Background(), ReplyInput{Answer: "a", CurrentQuestion: "q"})
	if err != nil {
		t.Fatalf("Reply: %v", err)
	}
	if got != "from the backup credential" {
		t.Errorf("got %q", got)
	}
}

func TestFormatHistory(t *testing.T) {
	got := FormatHistory([]Message{
		{Role: RoleSystem, Content: "session started"},
		{Role: RoleAssistant, Content: "Hello"},
		{Role: RoleUser, Content: "Hi"},
	})
	want := "Interviewer: Hello\nCandidate: Hi"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}
