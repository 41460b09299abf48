package stt

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestTranscribe_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/audio/transcriptions" {
			t.Errorf("path = %q", r.URL.Path)
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Fatalf("parse multipart: %v", err)
		}
		if got := r.FormValue("model"); got != DefaultModel {
			t.Errorf("model = %q, want %q", got, DefaultModel)
		}
		file, _, err := r.FormFile("file")
		if err != nil {
			t.Fatalf("form file: %v", err)
		}
		defer file.Close()
		data, _ := io.ReadAll(file)
		if string(data) != "fake-audio" {
			t.Errorf("audio payload = %q", data)
		}

		_, _ = w.Write([]byte(`{"text":" hello there "}`))
	}))
	defer srv.Close()

	tr := NewGroq("key", testLogger(), WithBaseURL(srv.URL))
	got := tr.Transcribe(context.Background(), []byte("fake-audio"))
	if got != "hello there" {
		t.Errorf("got %q, want %q", got, "hello there")
	}
}

func TestTranscribe_FailureReturnsEmpty(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	tr := NewGroq("key", testLogger(), WithBaseURL(srv.URL))
	if got := tr.Transcribe(context.Background(), []byte("x")); got != "" {
		t.Errorf("got %q, want empty string on failure", got)
	}
}

func TestTranscribe_EmptyAudio(t *testing.T) {
	tr := NewGroq("key", testLogger(), WithBaseURL("http://127.0.0.1:0"))
	if got := tr.Transcribe(context.Background(), nil); got != "" {
		t.Errorf("got %q, want empty string for empty segment", got)
	}
}
