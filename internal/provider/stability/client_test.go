package stability

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/changshize/fiction-tiktok/internal/provider"
)

// Test: image generation decodes the first artifact.
func TestGenerateImage(t *testing.T) {
	wantPNG := []byte("sdxl-png")

	var mu sync.Mutex
	var gotPath, gotAuth string
	var gotReq generationRequest

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		json.NewDecoder(r.Body).Decode(&gotReq)
		mu.Unlock()
		json.NewEncoder(w).Encode(map[string]any{
			"artifacts": []map[string]string{{
				"base64":       base64.StdEncoding.EncodeToString(wantPNG),
				"finishReason": "SUCCESS",
			}},
		})
	}))
	defer srv.Close()

	c := New(Options{APIKey: "test-key", BaseURL: srv.URL})
	res, err := c.GenerateImage(context.Background(), provider.ImageRequest{Prompt: "storm over the harbor", Size: "512x768"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !bytes.Equal(res.Data, wantPNG) {
		t.Errorf("unexpected image bytes: %q", res.Data)
	}
	if res.Backend != "stability" {
		t.Errorf("unexpected backend: %q", res.Backend)
	}
	if res.PromptUsed != "storm over the harbor" {
		t.Errorf("unexpected prompt used: %q", res.PromptUsed)
	}

	mu.Lock()
	defer mu.Unlock()
	if gotPath != "/v1/generation/stable-diffusion-xl-1024-v1-0/text-to-image" {
		t.Errorf("unexpected path: %s", gotPath)
	}
	if gotAuth != "Bearer test-key" {
		t.Errorf("unexpected authorization header: %q", gotAuth)
	}
	if len(gotReq.TextPrompts) != 1 || gotReq.TextPrompts[0].Text != "storm over the harbor" {
		t.Errorf("unexpected text prompts: %+v", gotReq.TextPrompts)
	}
	if gotReq.Width != 512 || gotReq.Height != 768 {
		t.Errorf("unexpected dimensions: %dx%d", gotReq.Width, gotReq.Height)
	}
	if gotReq.CFGScale != 7.0 {
		t.Errorf("unexpected cfg scale: %f", gotReq.CFGScale)
	}
	if gotReq.Samples != 1 || gotReq.Steps != 30 {
		t.Errorf("unexpected samples/steps: %d/%d", gotReq.Samples, gotReq.Steps)
	}
}

// Test: API errors surface the server message and classify by status.
func TestGenerateImage_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(apiError{Name: "server_error", Message: "engine overloaded"})
	}))
	defer srv.Close()

	c := New(Options{APIKey: "test-key", BaseURL: srv.URL})
	_, err := c.GenerateImage(context.Background(), provider.ImageRequest{Prompt: "x", Size: "1024x1024"})
	if err == nil {
		t.Fatal("expected error")
	}

	var be *provider.BackendError
	if !errors.As(err, &be) {
		t.Fatalf("expected BackendError, got %T", err)
	}
	if be.StatusCode != http.StatusInternalServerError {
		t.Errorf("unexpected status code: %d", be.StatusCode)
	}
	if !be.Retryable {
		t.Error("expected 500 to be retryable")
	}
	if !strings.Contains(err.Error(), "engine overloaded") {
		t.Errorf("expected server message in error, got: %v", err)
	}
}

// Test: empty artifact list is an error, not a zero-byte image.
func TestGenerateImage_EmptyArtifacts(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"artifacts": []any{}})
	}))
	defer srv.Close()

	c := New(Options{APIKey: "test-key", BaseURL: srv.URL})
	_, err := c.GenerateImage(context.Background(), provider.ImageRequest{Prompt: "x", Size: "1024x1024"})
	if err == nil {
		t.Fatal("expected error")
	}
}

// Test: size strings parse into dimensions with a safe fallback.
func TestParseSize(t *testing.T) {
	tests := []struct {
		in         string
		wantWidth  int
		wantHeight int
	}{
		{"1024x1024", 1024, 1024},
		{"512x768", 512, 768},
		{"", 1024, 1024},
		{"landscape", 1024, 1024},
		{"0x100", 1024, 1024},
		{"100x-5", 1024, 1024},
		{" 640 x 480 ", 640, 480},
	}
	for _, tt := range tests {
		w, h := parseSize(tt.in)
		if w != tt.wantWidth || h != tt.wantHeight {
			t.Errorf("parseSize(%q) = %dx%d, want %dx%d", tt.in, w, h, tt.wantWidth, tt.wantHeight)
		}
	}
}
