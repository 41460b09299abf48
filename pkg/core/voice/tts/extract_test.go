package tts

import (
	"bytes"
	"encoding/base64"
	"strings"
	"testing"
)

func TestExtractBytes_DirectBytes(t *testing.T) {
	got := ExtractBytes([]byte{1, 2, 3})
	if !bytes.Equal(got, []byte{1, 2, 3}) {
		t.Errorf("got %v", got)
	}
}

func TestExtractBytes_Base64String(t *testing.T) {
	want := []byte("wav-audio-here")
	got := ExtractBytes(base64.StdEncoding.EncodeToString(want))
	if !bytes.Equal(got, want) {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestExtractBytes_DataURL(t *testing.T) {
	want := []byte("wav-audio-here")
	enc := "data:audio/wav;base64," + base64.StdEncoding.EncodeToString(want)
	got := ExtractBytes(enc)
	if !bytes.Equal(got, want) {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestExtractBytes_KeyedContainer(t *testing.T) {
	want := []byte("payload")
	obj := map[string]any{
		"status": "ok",
		"audio":  base64.StdEncoding.EncodeToString(want),
	}
	got := ExtractBytes(obj)
	if !bytes.Equal(got, want) {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestExtractBytes_NestedContainer(t *testing.T) {
	want := []byte("deep-payload")
	obj := map[string]any{
		"result": map[string]any{
			"data": base64.StdEncoding.EncodeToString(want),
		},
	}
	got := ExtractBytes(obj)
	if !bytes.Equal(got, want) {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestExtractBytes_LongStringScan(t *testing.T) {
	want := []byte(strings.Repeat("audio-bytes!", 12))
	obj := map[string]any{
		"unexpected_field": base64.StdEncoding.EncodeToString(want),
	}
	got := ExtractBytes(obj)
	if !bytes.Equal(got, want) {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestExtractBytes_Reader(t *testing.T) {
	want := []byte("streamed")
	got := ExtractBytes(bytes.NewReader(want))
	if !bytes.Equal(got, want) {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestExtractBytes_ChunkSequence(t *testing.T) {
	got := ExtractBytes([][]byte{[]byte("ab"), []byte("cd")})
	if string(got) != "abcd" {
		t.Errorf("got %q, want %q", got, "abcd")
	}
}

func TestExtractBytes_MixedChunks(t *testing.T) {
	got := ExtractBytes([]any{
		base64.StdEncoding.EncodeToString([]byte("ab")),
		base64.StdEncoding.EncodeToString([]byte("cd")),
	})
	if string(got) != "abcd" {
		t.Errorf("got %q, want %q", got, "abcd")
	}
}

func TestExtractBytes_TotalFailure(t *testing.T) {
	cases := []any{
		nil,
		[]byte{},
		"",
		map[string]any{"status": "ok"},
		[]any{},
		42,
	}
	for _, c := range cases {
		if got := ExtractBytes(c); got != nil {
			t.Errorf("ExtractBytes(%v) = %v, want nil", c, got)
		}
	}
}

func TestExtractBytes_NonBase64StringFallsBackToRaw(t *testing.T) {
	// A plain string that is not valid base64 is treated as raw content.
	got := ExtractBytes("not base64 at all!!!")
	if string(got) != "not base64 at all!!!" {
		t.Errorf("got %q", got)
	}
}
