package stability

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/changshize/fiction-tiktok/internal/provider"
)

const (
	backendName = "stability"

	defaultBaseURL = "https://api.stability.ai"
	defaultEngine  = "stable-diffusion-xl-1024-v1-0"
)

// Options configures the Stability AI client.
type Options struct {
	APIKey     string
	BaseURL    string
	Engine     string
	HTTPClient *http.Client
	Timeout    time.Duration
}

// Client calls the Stability AI text-to-image endpoint. It is the fallback
// image backend behind OpenAI.
type Client struct {
	apiKey     string
	baseURL    string
	engine     string
	httpClient *http.Client
}

var _ provider.ImageBackend = (*Client)(nil)

// New constructs a Stability client with sane defaults.
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
	engine := opts.Engine
	if engine == "" {
		engine = defaultEngine
	}
	return &Client{
		apiKey:     strings.TrimSpace(opts.APIKey),
		baseURL:    baseURL,
		engine:     engine,
		httpClient: httpClient,
	}
}

func (c *Client) Name() string { return backendName }

// Configured reports whether the client holds credentials.
func (c *Client) Configured() bool { return c.apiKey != "" }

type textPrompt struct {
	Text   string  `json:"text"`
	Weight float64 `json:"weight"`
}

type generationRequest struct {
	TextPrompts []textPrompt `json:"text_prompts"`
	CFGScale    float64      `json:"cfg_scale"`
	Width       int          `json:"width"`
	Height      int          `json:"height"`
	Samples     int          `json:"samples"`
	Steps       int          `json:"steps"`
}

type generationResponse struct {
	Artifacts []struct {
		Base64       string `json:"base64"`
		FinishReason string `json:"finishReason"`
	} `json:"artifacts"`
}

type apiError struct {
	Name    string `json:"name"`
	Message string `json:"message"`
}

// GenerateImage invokes the SDXL engine once and returns the PNG bytes.
func (c *Client) GenerateImage(ctx context.Context, req provider.ImageRequest) (*provider.Result, error) {
	if !c.Configured() {
		return nil, &provider.BackendError{Backend: backendName, Op: "generate image", Retryable: true, Err: errors.New("api key not configured")}
	}

	width, height := parseSize(req.Size)
	payload := generationRequest{
		TextPrompts: []textPrompt{{Text: req.Prompt, Weight: 1.0}},
		CFGScale:    7.0,
		Width:       width,
		Height:      height,
		Samples:     1,
		Steps:       30,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, &provider.BackendError{Backend: backendName, Op: "generate image", Err: err}
	}

	endpoint := c.baseURL + "/v1/generation/" + c.engine + "/text-to-image"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, &provider.BackendError{Backend: backendName, Op: "generate image", Err: err}
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, &provider.BackendError{Backend: backendName, Op: "generate image", Retryable: true, Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &provider.BackendError{Backend: backendName, Op: "generate image", Retryable: true, Err: err}
	}

	if resp.StatusCode >= 300 {
		msg := strings.TrimSpace(string(raw))
		var detail apiError
		if json.Unmarshal(raw, &detail) == nil && detail.Message != "" {
			msg = detail.Message
		}
		return nil, &provider.BackendError{
			Backend:    backendName,
			Op:         "generate image",
			StatusCode: resp.StatusCode,
			Retryable:  provider.RetryableStatus(resp.StatusCode),
			Err:        errors.New(msg),
		}
	}

	var decoded generationResponse
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return nil, &provider.BackendError{Backend: backendName, Op: "generate image", Err: err}
	}
	if len(decoded.Artifacts) == 0 || decoded.Artifacts[0].Base64 == "" {
		return nil, &provider.BackendError{Backend: backendName, Op: "generate image", Err: errors.New("empty artifact")}
	}
	data, err := base64.StdEncoding.DecodeString(decoded.Artifacts[0].Base64)
	if err != nil {
		return nil, &provider.BackendError{Backend: backendName, Op: "generate image", Err: err}
	}

	return &provider.Result{
		Data:       data,
		Backend:    backendName,
		PromptUsed: req.Prompt,
	}, nil
}

// parseSize converts "1024x1024" into dimensions, falling back to 1024x1024.
func parseSize(size string) (int, int) {
	w, h, ok := strings.Cut(size, "x")
	if !ok {
		return 1024, 1024
	}
	width, err := strconv.Atoi(strings.TrimSpace(w))
	if err != nil || width <= 0 {
		return 1024, 1024
	}
	height, err := strconv.Atoi(strings.TrimSpace(h))
	if err != nil || height <= 0 {
		return 1024, 1024
	}
	return width, height
}
