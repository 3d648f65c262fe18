package elevenlabs

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/changshize/fiction-tiktok/internal/provider"
)

// Test: synthesis hits the default voice with the expected payload.
func TestSynthesize(t *testing.T) {
	var mu sync.Mutex
	var gotPath, gotKey string
	var gotReq speechRequest

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		gotPath = r.URL.Path
		gotKey = r.Header.Get("xi-api-key")
		json.NewDecoder(r.Body).Decode(&gotReq)
		mu.Unlock()
		w.Write([]byte("mp3-bytes"))
	}))
	defer srv.Close()

	c := New(Options{APIKey: "test-key", BaseURL: srv.URL})
	res, err := c.Synthesize(context.Background(), provider.SpeechRequest{Text: "Once upon a time.", Speed: 1.0})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !bytes.Equal(res.Data, []byte("mp3-bytes")) {
		t.Errorf("unexpected audio bytes: %q", res.Data)
	}
	if res.Backend != "elevenlabs" {
		t.Errorf("unexpected backend: %q", res.Backend)
	}
	if res.Duration <= 0 {
		t.Errorf("expected positive duration estimate, got %f", res.Duration)
	}

	mu.Lock()
	defer mu.Unlock()
	if gotPath != "/v1/text-to-speech/21m00Tcm4TlvDq8ikWAM" {
		t.Errorf("unexpected path: %s", gotPath)
	}
	if gotKey != "test-key" {
		t.Errorf("unexpected api key header: %q", gotKey)
	}
	if gotReq.Text != "Once upon a time." {
		t.Errorf("unexpected text: %q", gotReq.Text)
	}
	if gotReq.ModelID != "eleven_multilingual_v2" {
		t.Errorf("unexpected model: %q", gotReq.ModelID)
	}
	if gotReq.VoiceSettings.Stability != 0.5 || gotReq.VoiceSettings.SimilarityBoost != 0.5 {
		t.Errorf("unexpected voice settings: %+v", gotReq.VoiceSettings)
	}
}

// Test: a voice named on the request overrides the default.
func TestSynthesize_CustomVoice(t *testing.T) {
	var mu sync.Mutex
	var gotPath string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		gotPath = r.URL.Path
		mu.Unlock()
		w.Write([]byte("mp3"))
	}))
	defer srv.Close()

	c := New(Options{APIKey: "test-key", BaseURL: srv.URL})
	if _, err := c.Synthesize(context.Background(), provider.SpeechRequest{Text: "Hi.", Voice: "voice-42"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if gotPath != "/v1/text-to-speech/voice-42" {
		t.Errorf("unexpected path: %s", gotPath)
	}
}

// Test: API errors surface the detail message and classify by status.
func TestSynthesize_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(map[string]any{
			"detail": map[string]string{"status": "invalid_api_key", "message": "invalid api key"},
		})
	}))
	defer srv.Close()

	c := New(Options{APIKey: "bad-key", BaseURL: srv.URL})
	_, err := c.Synthesize(context.Background(), provider.SpeechRequest{Text: "Hi."})
	if err == nil {
		t.Fatal("expected error")
	}

	var be *provider.BackendError
	if !errors.As(err, &be) {
		t.Fatalf("expected BackendError, got %T", err)
	}
	if be.StatusCode != http.StatusUnauthorized {
		t.Errorf("unexpected status code: %d", be.StatusCode)
	}
	if !be.Retryable {
		t.Error("expected 401 to be retryable")
	}
	if !strings.Contains(err.Error(), "invalid api key") {
		t.Errorf("expected detail message in error, got: %v", err)
	}
}

// Test: long narration is chunked and the audio concatenated in order.
func TestSynthesize_ChunksLongText(t *testing.T) {
	sentence := strings.Repeat("Snow settled quietly over the old monastery walls. ", 70)
	text := sentence + sentence // past the 5000 char limit

	var mu sync.Mutex
	var count int

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req speechRequest
		json.NewDecoder(r.Body).Decode(&req)
		mu.Lock()
		idx := count
		count++
		mu.Unlock()
		if len(req.Text) > 5000 {
			t.Errorf("chunk exceeds limit: %d chars", len(req.Text))
		}
		w.Write([]byte{byte('0' + idx)})
	}))
	defer srv.Close()

	c := New(Options{APIKey: "test-key", BaseURL: srv.URL})
	res, err := c.Synthesize(context.Background(), provider.SpeechRequest{Text: text})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if count < 2 {
		t.Fatalf("expected text to be chunked, got %d request(s)", count)
	}
	want := make([]byte, count)
	for i := range want {
		want[i] = byte('0' + i)
	}
	if !bytes.Equal(res.Data, want) {
		t.Errorf("unexpected audio assembly: %q", res.Data)
	}
}

// Test: the voice catalog maps API fields onto the shared voice type.
func TestVoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/voices" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		json.NewEncoder(w).Encode(map[string]any{
			"voices": []map[string]any{
				{"voice_id": "v-1", "name": "Rachel", "labels": map[string]string{"language": "en"}},
				{"voice_id": "v-2", "name": "Antoni"},
			},
		})
	}))
	defer srv.Close()

	c := New(Options{APIKey: "test-key", BaseURL: srv.URL})
	voices, err := c.Voices(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(voices) != 2 {
		t.Fatalf("expected 2 voices, got %d", len(voices))
	}
	if voices[0].ID != "v-1" || voices[0].Name != "Rachel" || voices[0].Language != "en" {
		t.Errorf("unexpected first voice: %+v", voices[0])
	}
	if voices[0].Backend != "elevenlabs" || voices[1].Backend != "elevenlabs" {
		t.Error("expected voices attributed to elevenlabs")
	}
	if voices[1].Language != "" {
		t.Errorf("expected empty language for unlabeled voice, got %q", voices[1].Language)
	}
}
