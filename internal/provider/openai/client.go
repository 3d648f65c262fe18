package openai

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/changshize/fiction-tiktok/internal/provider"
)

const (
	backendName = "openai"

	defaultBaseURL     = "https://api.openai.com"
	defaultImageModel  = "dall-e-3"
	defaultSpeechModel = "tts-1"
	defaultVoice       = "alloy"

	// The speech endpoint rejects inputs beyond 4096 characters.
	speechCharLimit = 4096
)

// Options configures the OpenAI client.
type Options struct {
	APIKey      string
	BaseURL     string
	ImageModel  string
	SpeechModel string
	HTTPClient  *http.Client
	Timeout     time.Duration
}

// Client calls the OpenAI image generation and speech synthesis endpoints.
// It serves as both an image and a speech backend.
type Client struct {
	apiKey      string
	baseURL     string
	imageModel  string
	speechModel string
	httpClient  *http.Client
}

var (
	_ provider.ImageBackend  = (*Client)(nil)
	_ provider.SpeechBackend = (*Client)(nil)
)

// New constructs an OpenAI client with sane defaults.
func New(opts Options) *Client {
	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = 120 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	imageModel := opts.ImageModel
	if imageModel == "" {
		imageModel = defaultImageModel
	}
	speechModel := opts.SpeechModel
	if speechModel == "" {
		speechModel = defaultSpeechModel
	}
	return &Client{
		apiKey:      strings.TrimSpace(opts.APIKey),
		baseURL:     baseURL,
		imageModel:  imageModel,
		speechModel: speechModel,
		httpClient:  httpClient,
	}
}

func (c *Client) Name() string { return backendName }

// Configured reports whether the client holds credentials.
func (c *Client) Configured() bool { return c.apiKey != "" }

type imageRequest struct {
	Model          string `json:"model"`
	Prompt         string `json:"prompt"`
	N              int    `json:"n"`
	Size           string `json:"size"`
	ResponseFormat string `json:"response_format"`
}

type imageResponse struct {
	Data []struct {
		B64JSON string `json:"b64_json"`
	} `json:"data"`
}

type apiError struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

// GenerateImage invokes the images endpoint once and returns the PNG bytes.
func (c *Client) GenerateImage(ctx context.Context, req provider.ImageRequest) (*provider.Result, error) {
	if !c.Configured() {
		return nil, &provider.BackendError{Backend: backendName, Op: "generate image", Retryable: true, Err: errors.New("api key not configured")}
	}

	payload := imageRequest{
		Model:          c.imageModel,
		Prompt:         req.Prompt,
		N:              1,
		Size:           req.Size,
		ResponseFormat: "b64_json",
	}
	raw, err := c.post(ctx, "/v1/images/generations", payload, "generate image")
	if err != nil {
		return nil, err
	}

	var decoded imageResponse
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return nil, &provider.BackendError{Backend: backendName, Op: "generate image", Err: err}
	}
	if len(decoded.Data) == 0 || decoded.Data[0].B64JSON == "" {
		return nil, &provider.BackendError{Backend: backendName, Op: "generate image", Err: errors.New("empty image data")}
	}
	data, err := base64.StdEncoding.DecodeString(decoded.Data[0].B64JSON)
	if err != nil {
		return nil, &provider.BackendError{Backend: backendName, Op: "generate image", Err: err}
	}

	return &provider.Result{
		Data:       data,
		Backend:    backendName,
		PromptUsed: req.Prompt,
	}, nil
}

type speechRequest struct {
	Model          string  `json:"model"`
	Input          string  `json:"input"`
	Voice          string  `json:"voice"`
	Speed          float64 `json:"speed,omitempty"`
	ResponseFormat string  `json:"response_format"`
}

// Synthesize narrates the text as MP3. Long texts are split at sentence
// boundaries, synthesized in order and concatenated.
func (c *Client) Synthesize(ctx context.Context, req provider.SpeechRequest) (*provider.Result, error) {
	if !c.Configured() {
		return nil, &provider.BackendError{Backend: backendName, Op: "synthesize", Retryable: true, Err: errors.New("api key not configured")}
	}

	voice := req.Voice
	if voice == "" {
		voice = defaultVoice
	}
	speed := req.Speed
	if speed <= 0 {
		speed = 1.0
	}

	chunks := provider.SplitText(req.Text, speechCharLimit)
	if len(chunks) == 0 {
		return nil, &provider.BackendError{Backend: backendName, Op: "synthesize", Err: errors.New("empty text")}
	}

	var audio bytes.Buffer
	for _, chunk := range chunks {
		payload := speechRequest{
			Model:          c.speechModel,
			Input:          chunk,
			Voice:          voice,
			Speed:          speed,
			ResponseFormat: "mp3",
		}
		raw, err := c.post(ctx, "/v1/audio/speech", payload, "synthesize")
		if err != nil {
			return nil, err
		}
		audio.Write(raw)
	}

	return &provider.Result{
		Data:     audio.Bytes(),
		Backend:  backendName,
		Duration: provider.EstimateSpokenSeconds(req.Text, speed),
	}, nil
}

// Voices returns the fixed catalog the speech endpoint offers.
func (c *Client) Voices(ctx context.Context) ([]provider.Voice, error) {
	names := []string{"alloy", "echo", "fable", "onyx", "nova", "shimmer"}
	voices := make([]provider.Voice, 0, len(names))
	for _, n := range names {
		voices = append(voices, provider.Voice{
			ID:      n,
			Name:    strings.ToUpper(n[:1]) + n[1:],
			Backend: backendName,
		})
	}
	return voices, nil
}

func (c *Client) post(ctx context.Context, path string, payload any, op string) ([]byte, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, &provider.BackendError{Backend: backendName, Op: op, Err: err}
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, &provider.BackendError{Backend: backendName, Op: op, Err: err}
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		// Transport failures and timeouts are capacity-class: try the next backend.
		return nil, &provider.BackendError{Backend: backendName, Op: op, Retryable: true, Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &provider.BackendError{Backend: backendName, Op: op, Retryable: true, Err: err}
	}

	if resp.StatusCode >= 300 {
		msg := strings.TrimSpace(string(raw))
		var detail apiError
		if json.Unmarshal(raw, &detail) == nil && detail.Error.Message != "" {
			msg = detail.Error.Message
		}
		return nil, &provider.BackendError{
			Backend:    backendName,
			Op:         op,
			StatusCode: resp.StatusCode,
			Retryable:  provider.RetryableStatus(resp.StatusCode),
			Err:        errors.New(msg),
		}
	}
	return raw, nil
}
