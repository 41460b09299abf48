package protocol

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/vango-go/vai-interview/pkg/interview"
)

func TestDecodeClientMessage_Metrics(t *testing.T) {
	raw := []byte(`{"type":"metrics","questionIndex":2,"metrics":{"silence_ratio":0.3,"pause_count":1}}`)
	msg, err := DecodeClientMessage(raw)
	if err != nil {
		t.Fatalf("DecodeClientMessage: %v", err)
	}
	m, ok := msg.(ClientMetrics)
	if !ok {
		t.Fatalf("got %T", msg)
	}
	if m.QuestionIndex != 2 {
		t.Errorf("QuestionIndex = %d", m.QuestionIndex)
	}
	if m.Metrics == nil || m.Metrics.SilenceRatio == nil || *m.Metrics.SilenceRatio != 0.3 {
		t.Errorf("Metrics = %+v", m.Metrics)
	}
}

func TestDecodeClientMessage_Rejects(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"invalid json", `{`},
		{"missing type", `{"questionIndex":1}`},
		{"unknown type", `{"type":"chat","text":"hi"}`},
		{"negative index", `{"type":"metrics","questionIndex":-1}`},
		{"metrics type mismatch", `{"type":"metrics","questionIndex":"two"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := DecodeClientMessage([]byte(tt.raw)); err == nil {
				t.Error("expected decode error")
			}
		})
	}
}

func TestLLMResponse_NullAudioOnSynthesisFailure(t *testing.T) {
	msg := NewLLMResponse("iv-1", 0, "Good answer.", nil)
	data, err := json.Marshal(msg)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if !strings.Contains(string(data), `"audio_base64":null`) {
		t.Errorf("missing null audio field: %s", data)
	}
	if !strings.Contains(string(data), `"type":"llm_response"`) {
		t.Errorf("missing type tag: %s", data)
	}
}

func TestLLMResponse_AudioEncoded(t *testing.T) {
	msg := NewLLMResponse("iv-1", 1, "Next question.", []byte{0x52, 0x49, 0x46, 0x46})
	data, _ := json.Marshal(msg)
	if !strings.Contains(string(data), `"audio_base64":"UklGRg=="`) {
		t.Errorf("audio not base64 encoded: %s", data)
	}
}

func TestNewFinalScore(t *testing.T) {
	msg := NewFinalScore("iv-9", interview.ScoreResult{Score: 84, Justification: "solid"}, 4)
	data, _ := json.Marshal(msg)
	for _, want := range []string{
		`"type":"final_score"`,
		`"score":84`,
		`"attempt_count":4`,
		`"interviewId":"iv-9"`,
	} {
		if !strings.Contains(string(data), want) {
			t.Errorf("final score missing %s: %s", want, data)
		}
	}
}

func TestNewErrorNotice(t *testing.T) {
	data, _ := json.Marshal(NewErrorNotice("all language model credentials failed"))
	if string(data) != `{"text":"Error: all language model credentials failed"}` {
		t.Errorf("got %s", data)
	}
}
