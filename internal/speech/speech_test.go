package speech

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestTranscribeSuccess(t *testing.T) {
	var gotLanguage string
	var gotBody []byte
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotLanguage = r.URL.Query().Get("language")
		gotBody, _ = io.ReadAll(r.Body)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"transcript":" Hire faster "}`))
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL, "en-US", &http.Client{Timeout: time.Second})
	transcript, err := client.Transcribe(context.Background(), []byte("opus"))
	if err != nil {
		t.Fatalf("transcribe: %v", err)
	}
	if transcript != "Hire faster" {
		t.Fatalf("expected trimmed transcript, got %q", transcript)
	}
	if gotLanguage != "en-US" {
		t.Fatalf("expected language param, got %q", gotLanguage)
	}
	if string(gotBody) != "opus" {
		t.Fatalf("expected audio body forwarded, got %q", gotBody)
	}
}

func TestTranscribeEmptyTranscript(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"transcript":""}`))
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL, "", nil)
	if _, err := client.Transcribe(context.Background(), []byte("opus")); !errors.Is(err, ErrNoSpeech) {
		t.Fatalf("expected ErrNoSpeech, got %v", err)
	}
}

func TestTranscribeServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "model offline", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL, "", nil)
	_, err := client.Transcribe(context.Background(), []byte("opus"))
	var statusErr *StatusError
	if !errors.As(err, &statusErr) || statusErr.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("expected status error 503, got %v", err)
	}
}
