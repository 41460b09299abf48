package interview

import (
	"fmt"
	"strings"
)

// DeliveryMetrics is the client-reported signal bundle for one answer. Every
// field is optional; absence degrades gracefully in the descriptor.
type DeliveryMetrics struct {
	SpeechDuration *float64 `json:"speech_duration,omitempty"`
	TotalDuration  *float64 `json:"total_duration,omitempty"`
	SilenceRatio   *float64 `json:"silence_ratio,omitempty"`
	PauseCount     *int     `json:"pause_count,omitempty"`
	StartLatency   *float64 `json:"start_latency,omitempty"`
}

// Empty reports whether no individual signal is present.
func (m *DeliveryMetrics) Empty() bool {
	if m == nil {
		return true
	}
	return m.SpeechDuration == nil && m.TotalDuration == nil && m.SilenceRatio == nil &&
		m.PauseCount == nil && m.StartLatency == nil
}

// DescribeMetrics renders a metrics bundle into the natural-language
// descriptor inserted into generation prompts. The same rendering is used for
// per-turn feedback and for final scoring.
func DescribeMetrics(m *DeliveryMetrics) string {
	if m == nil {
		return "Audio analysis unavailable for this answer."
	}

	var parts []string

	if m.SpeechDuration != nil && m.TotalDuration != nil && *m.TotalDuration > 0 {
		ratio := *m.SpeechDuration / *m.TotalDuration * 100
		parts = append(parts, fmt.Sprintf("spoke for %.1fs of %.1fs recorded (%.0f%%)",
			*m.SpeechDuration, *m.TotalDuration, ratio))
	}

	if m.SilenceRatio != nil {
		parts = append(parts, silenceBand(*m.SilenceRatio))
	}

	if m.PauseCount != nil {
		switch n := *m.PauseCount; {
		case n == 0:
			parts = append(parts, "no breaks")
		case n <= 2:
			parts = append(parts, "brief pauses")
		default:
			parts = append(parts, fmt.Sprintf("%d pauses", n))
		}
	}

	if m.StartLatency != nil {
		switch lat := *m.StartLatency; {
		case lat < 1:
			parts = append(parts, "immediate response")
		case lat < 3:
			parts = append(parts, fmt.Sprintf("started after %.1fs", lat))
		default:
			parts = append(parts, fmt.Sprintf("took %.1fs to begin answering", lat))
		}
	}

	if len(parts) == 0 {
		return "Audio captured successfully."
	}
	return strings.Join(parts, ", ") + "."
}

func silenceBand(r float64) string {
	switch {
	case r < 0.2:
		return "very fluent delivery"
	case r < 0.4:
		return "good fluency"
	case r < 0.6:
		return "moderate pauses"
	default:
		return "significant hesitation"
	}
}
