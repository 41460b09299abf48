package interview

import (
	"strings"
)

// Role identifies the author of a conversation message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one entry in a session's conversation history.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Turn is one question/answer exchange, immutable once persisted.
type Turn struct {
	InterviewID   string           `json:"interviewId"`
	UserID        string           `json:"userId"`
	QuestionIndex int              `json:"questionIndex"`
	Question      string           `json:"question"`
	Answer        string           `json:"answer"`
	Metrics       *DeliveryMetrics `json:"metrics,omitempty"`
	Attempt       int              `json:"attempt"`
}

// FormatHistory renders stored history as a plain-text conversation for
// prompt inclusion. System messages are omitted.
func FormatHistory(history []Message) string {
	var b strings.Builder
	for _, msg := range history {
		switch msg.Role {
		case RoleUser:
			b.WriteString("Candidate: ")
		case RoleAssistant:
			b.WriteString("Interviewer: ")
		default:
			continue
		}
		b.WriteString(msg.Content)
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}
