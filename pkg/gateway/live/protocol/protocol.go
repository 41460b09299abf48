// Package protocol defines the JSON message shapes exchanged over a live
// interview WebSocket.
package protocol

import (
	"encoding/base64"
	"encoding/json"
	"strings"

	"github.com/vango-go/vai-interview/pkg/core"

	"github.com/vango-go/vai-interview/pkg/interview"
)

// CloseAuthFailure is the WebSocket close code sent when the identity token
// is missing or invalid.
const CloseAuthFailure = 4401

// ClientMetrics is the out-of-band delivery-metrics notice a client may send
// at any time while a session is live. It is buffered by question index and
// never advances the turn state.
type ClientMetrics struct {
	Type          string                     `json:"type"`
	QuestionIndex int                        `json:"questionIndex"`
	Metrics       *interview.DeliveryMetrics `json:"metrics"`
}

// DecodeClientMessage parses one inbound text frame. Unknown or malformed
// frames return an error; the session drops them silently.
func DecodeClientMessage(data []byte) (any, error) {
	var envelope struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &envelope); err != nil {
		return nil, core.NewInvalidRequestError("invalid json frame")
	}
	typ := strings.TrimSpace(envelope.Type)
	if typ == "" {
		return nil, core.NewInvalidRequestError("missing type")
	}

	switch typ {
	case "metrics":
		var msg ClientMetrics
		if err := json.Unmarshal(data, &msg); err != nil {
			return nil, core.NewInvalidRequestError("invalid metrics frame")
		}
		if msg.QuestionIndex < 0 {
			return nil, core.NewInvalidRequestError("metrics.questionIndex must be >= 0")
		}
		return msg, nil
	default:
		return nil, core.NewInvalidRequestError("unknown message type: " + typ)
	}
}

// Intro is the first message of a session: the greeting plus question one.
type Intro struct {
	Text          string  `json:"text"`
	AudioB64      *string `json:"audio_base64"`
	InterviewID   string  `json:"interviewId"`
	QuestionIndex int     `json:"questionIndex"`
}

// Transcript echoes what the transcriber heard, with the metrics that were
// consumed for that answer.
type Transcript struct {
	Type          string                     `json:"type"`
	InterviewID   string                     `json:"interviewId"`
	QuestionIndex int                        `json:"questionIndex"`
	Transcript    string                     `json:"transcript"`
	Metrics       *interview.DeliveryMetrics `json:"metrics"`
}

// LLMResponse carries the interviewer's reply. AudioB64 is null when speech
// synthesis failed; the text still stands on its own.
type LLMResponse struct {
	Type          string  `json:"type"`
	Text          string  `json:"text"`
	InterviewID   string  `json:"interviewId"`
	QuestionIndex int     `json:"questionIndex"`
	AudioB64      *string `json:"audio_base64"`
}

// FinalScore is the last message of a session.
type FinalScore struct {
	Type          string `json:"type"`
	Score         int    `json:"score"`
	Justification string `json:"justification"`
	InterviewID   string `json:"interviewId"`
	AttemptCount  int    `json:"attempt_count"`
}

// Notice is a short textual status, including recoverable-failure reports.
type Notice struct {
	Text string `json:"text"`
}

// NewTranscript builds the transcript echo message.
func NewTranscript(interviewID string, index int, transcript string, metrics *interview.DeliveryMetrics) Transcript {
	return Transcript{
		Type:          "transcript",
		InterviewID:   interviewID,
		QuestionIndex: index,
		Transcript:    transcript,
		Metrics:       metrics,
	}
}

// NewLLMResponse builds the reply message. Empty audio becomes JSON null.
func NewLLMResponse(interviewID string, index int, text string, audio []byte) LLMResponse {
	return LLMResponse{
		Type:          "llm_response",
		Text:          text,
		InterviewID:   interviewID,
		QuestionIndex: index,
		AudioB64:      EncodeAudio(audio),
	}
}

// NewFinalScore builds the terminal score message.
func NewFinalScore(interviewID string, result interview.ScoreResult, attempt int) FinalScore {
	return FinalScore{
		Type:          "final_score",
		Score:         result.Score,
		Justification: result.Justification,
		InterviewID:   interviewID,
		AttemptCount:  attempt,
	}
}

// NewErrorNotice wraps a failure description in the client-facing notice shape.
func NewErrorNotice(message string) Notice {
	return Notice{Text: "Error: " + message}
}

// EncodeAudio base64-encodes synthesized audio, or returns nil for absent
// audio so the field serializes as null.
func EncodeAudio(audio []byte) *string {
	if len(audio) == 0 {
		return nil
	}
	encoded := base64.StdEncoding.EncodeToString(audio)
	return &encoded
}
