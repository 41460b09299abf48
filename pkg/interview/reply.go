package interview

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/vango-go/vai-interview/pkg/core"
)

// ContextFunc supplies retrieval context for a free-text query. An empty
// result means no relevant passages; that is not an error.
type ContextFunc func(ctx context.Context, query string) string

const interviewerPromptTemplate = `You are a professional AI interviewer conducting a live job interview. Your tone must be formal, polite, calm, and encouraging, never robotic or harsh.

You must strictly follow these rules:
- Don't laugh, make sounds, or say "uhm", "ah", or similar fillers.
- You are in the middle of an interview.
- Never say the candidate's name.
- After each candidate answer, first give a VERY short, balanced, and professional review of the answer (1-3 sentences, max 40 words). Weight delivery quality (pacing, clarity, confidence, fluency, response latency) at 60%% and content relevance and completeness at 40%%. The feedback must be constructive and supportive, never overly harsh.
- The candidate's delivery for this answer: %s
- Then, if there is a next question, ask it in a natural, conversational way (do NOT label it as Question 1, Question 2, and so on). Use phrasing like "My next question is...", "Let's move on to...", or "I'd like to ask you about...".
- Important: if there is NO next question (this is the last one), instead give a brief overall review of the candidate's performance (50-60 words) and then state explicitly that all questions have been asked and the interview is over.

Use the following job-related context if it is relevant:

<context>
%s
</context>

Conversation so far:
%s

Current question the candidate just answered:
%s

Candidate's answer:
%s

Next question (if any):
%s

Is this the last question? %s

Now produce your response in plain text, following the rules above.`

// ReplyInput carries everything the generator needs for one turn.
type ReplyInput struct {
	Answer          string
	History         []Message
	CurrentQuestion string
	NextQuestion    string // empty on the last turn
	Metrics         *DeliveryMetrics
	Context         ContextFunc // optional
}

// Generator composes prompts and invokes the completion pool for interviewer
// replies and the final holistic score.
type Generator struct {
	pool   *core.Pool
	logger *slog.Logger
}

// NewGenerator creates a Generator over the given completion pool.
func NewGenerator(pool *core.Pool, logger *slog.Logger) *Generator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Generator{pool: pool, logger: logger}
}

// Reply reviews the just-given answer and either asks the next question
// conversationally or closes the interview. It fails only when every
// completion credential fails.
func (g *Generator) Reply(ctx context.Context, in ReplyInput) (string, error) {
	contextText := ""
	if in.Context != nil {
		contextText = in.Context(ctx, in.CurrentQuestion+"\n"+in.Answer)
	}

	metricsLine := "Audio analysis unavailable for this answer."
	if in.Metrics != nil {
		metricsLine = DescribeMetrics(in.Metrics)
	}

	isLast := "no"
	if strings.TrimSpace(in.NextQuestion) == "" {
		isLast = "yes"
	}

	prompt := fmt.Sprintf(interviewerPromptTemplate,
		metricsLine,
		contextText,
		FormatHistory(in.History),
		in.CurrentQuestion,
		in.Answer,
		in.NextQuestion,
		isLast,
	)

	text, err := g.pool.Complete(ctx, prompt)
	if err != nil {
		return "", fmt.Errorf("generate interviewer reply: %w", err)
	}
	return strings.TrimSpace(text), nil
}
