package interview

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

// ScoreResult is the final holistic evaluation of one interview attempt.
type ScoreResult struct {
	Score         int    `json:"score"`
	Justification string `json:"justification"`
}

const defaultScore = 50

const scoringPromptTemplate = `You are evaluating a completed job interview. Produce one holistic score for the candidate's overall performance.

Weight delivery quality (pacing, clarity, confidence, fluency, response latency) at 60%% and content relevance and completeness at 40%%, considered across the whole session.

The interview questions were:
%s

The conversation was:
%s

Delivery metrics per question:
%s

Answer in EXACTLY this format, two lines, nothing else:
SCORE: <integer between 0 and 100>
JUSTIFICATION: <100-120 words explaining the score>`

// FinalScore builds the holistic evaluation prompt and parses the response.
// It fails only when every completion credential fails.
func (g *Generator) FinalScore(ctx context.Context, history []Message, questions []string, metrics map[int]*DeliveryMetrics) (ScoreResult, error) {
	var qs strings.Builder
	for i, q := range questions {
		fmt.Fprintf(&qs, "%d. %s\n", i+1, q)
	}

	metricsBlock := "no audio metrics provided"
	if len(metrics) > 0 {
		var mb strings.Builder
		for i := range questions {
			fmt.Fprintf(&mb, "Question %d: %s\n", i+1, DescribeMetrics(metrics[i]))
		}
		metricsBlock = strings.TrimRight(mb.String(), "\n")
	}

	prompt := fmt.Sprintf(scoringPromptTemplate,
		strings.TrimRight(qs.String(), "\n"),
		FormatHistory(history),
		metricsBlock,
	)

	raw, err := g.pool.Complete(ctx, prompt)
	if err != nil {
		return ScoreResult{}, fmt.Errorf("generate final score: %w", err)
	}
	return ParseScoreResponse(raw), nil
}

// ParseScoreResponse extracts a ScoreResult from a raw model response. The
// model is instructed to answer in a fixed two-line format but deviation is
// tolerated: a missing or non-numeric SCORE line falls back to the first
// integer token anywhere in the response, then to 50; the result is always
// clamped into [0,100]. A missing JUSTIFICATION line falls back to the whole
// raw response.
func ParseScoreResponse(raw string) ScoreResult {
	score := 0
	scoreFound := false
	justification := ""

	for _, line := range strings.Split(raw, "\n") {
		trimmed := strings.TrimSpace(line)
		upper := strings.ToUpper(trimmed)
		switch {
		case strings.HasPrefix(upper, "SCORE:"):
			val := strings.TrimSpace(trimmed[len("SCORE:"):])
			if n, err := strconv.Atoi(val); err == nil {
				score = n
				scoreFound = true
			}
		case strings.HasPrefix(upper, "JUSTIFICATION:"):
			justification = strings.TrimSpace(trimmed[len("JUSTIFICATION:"):])
		}
	}

	if !scoreFound {
		if n, ok := firstInteger(raw); ok {
			score = n
		} else {
			score = defaultScore
		}
	}

	if justification == "" {
		justification = strings.TrimSpace(raw)
	}

	return ScoreResult{Score: clampScore(score), Justification: justification}
}

func clampScore(n int) int {
	if n < 0 {
		return 0
	}
	if n > 100 {
		return 100
	}
	return n
}

// firstInteger scans for the first run of digits in s.
func firstInteger(s string) (int, bool) {
	start := -1
	for i, r := range s {
		if unicode.IsDigit(r) {
			if start < 0 {
				start = i
			}
			continue
		}
		if start >= 0 {
			n, err := strconv.Atoi(s[start:i])
			if err == nil {
				return n, true
			}
			start = -1
		}
	}
	if start >= 0 {
		if n, err := strconv.Atoi(s[start:]); err == nil {
			return n, true
		}
	}
	return 0, false
}
