package elevenlabs

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/changshize/fiction-tiktok/internal/provider"
)

const (
	backendName = "elevenlabs"

	defaultBaseURL = "https://api.elevenlabs.io"
	defaultVoiceID = "21m00Tcm4TlvDq8ikWAM" // Rachel
	defaultModelID = "eleven_multilingual_v2"

	speechCharLimit = 5000
)

// Options configures the ElevenLabs client.
type Options struct {
	APIKey     string
	BaseURL    string
	VoiceID    string
	ModelID    string
	HTTPClient *http.Client
	Timeout    time.Duration
}

// Client calls the ElevenLabs text-to-speech API. It is the preferred
// speech backend for English narration.
type Client struct {
	apiKey     string
	baseURL    string
	voiceID    string
	modelID    string
	httpClient *http.Client
}

var _ provider.SpeechBackend = (*Client)(nil)

// New constructs an ElevenLabs client with sane defaults.
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
	voiceID := opts.VoiceID
	if voiceID == "" {
		voiceID = defaultVoiceID
	}
	modelID := opts.ModelID
	if modelID == "" {
		modelID = defaultModelID
	}
	return &Client{
		apiKey:     strings.TrimSpace(opts.APIKey),
		baseURL:    baseURL,
		voiceID:    voiceID,
		modelID:    modelID,
		httpClient: httpClient,
	}
}

func (c *Client) Name() string { return backendName }

// Configured reports whether the client holds credentials.
func (c *Client) Configured() bool { return c.apiKey != "" }

type speechRequest struct {
	Text          string        `json:"text"`
	ModelID       string        `json:"model_id"`
	VoiceSettings voiceSettings `json:"voice_settings"`
}

type voiceSettings struct {
	Stability       float64 `json:"stability"`
	SimilarityBoost float64 `json:"similarity_boost"`
}

type apiError struct {
	Detail struct {
		Status  string `json:"status"`
		Message string `json:"message"`
	} `json:"detail"`
}

// Synthesize narrates the text as MP3. Long texts are split at sentence
// boundaries, synthesized in order and concatenated.
func (c *Client) Synthesize(ctx context.Context, req provider.SpeechRequest) (*provider.Result, error) {
	if !c.Configured() {
		return nil, &provider.BackendError{Backend: backendName, Op: "synthesize", Retryable: true, Err: errors.New("api key not configured")}
	}

	voice := req.Voice
	if voice == "" {
		voice = c.voiceID
	}

	chunks := provider.SplitText(req.Text, speechCharLimit)
	if len(chunks) == 0 {
		return nil, &provider.BackendError{Backend: backendName, Op: "synthesize", Err: errors.New("empty text")}
	}

	var audio bytes.Buffer
	for _, chunk := range chunks {
		payload := speechRequest{
			Text:    chunk,
			ModelID: c.modelID,
			VoiceSettings: voiceSettings{
				Stability:       0.5,
				SimilarityBoost: 0.5,
			},
		}
		data, err := c.synthesizeChunk(ctx, voice, payload)
		if err != nil {
			return nil, err
		}
		audio.Write(data)
	}

	return &provider.Result{
		Data:     audio.Bytes(),
		Backend:  backendName,
		Duration: provider.EstimateSpokenSeconds(req.Text, req.Speed),
	}, nil
}

func (c *Client) synthesizeChunk(ctx context.Context, voiceID string, payload speechRequest) ([]byte, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, &provider.BackendError{Backend: backendName, Op: "synthesize", Err: err}
	}
	endpoint := c.baseURL + "/v1/text-to-speech/" + voiceID
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, &provider.BackendError{Backend: backendName, Op: "synthesize", Err: err}
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "audio/mpeg")
	httpReq.Header.Set("xi-api-key", c.apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, &provider.BackendError{Backend: backendName, Op: "synthesize", Retryable: true, Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &provider.BackendError{Backend: backendName, Op: "synthesize", Retryable: true, Err: err}
	}

	if resp.StatusCode >= 300 {
		msg := strings.TrimSpace(string(raw))
		var detail apiError
		if json.Unmarshal(raw, &detail) == nil && detail.Detail.Message != "" {
			msg = detail.Detail.Message
		}
		return nil, &provider.BackendError{
			Backend:    backendName,
			Op:         "synthesize",
			StatusCode: resp.StatusCode,
			Retryable:  provider.RetryableStatus(resp.StatusCode),
			Err:        errors.New(msg),
		}
	}
	return raw, nil
}

type voicesResponse struct {
	Voices []struct {
		VoiceID string            `json:"voice_id"`
		Name    string            `json:"name"`
		Labels  map[string]string `json:"labels"`
	} `json:"voices"`
}

// Voices fetches the account's voice catalog.
func (c *Client) Voices(ctx context.Context) ([]provider.Voice, error) {
	if !c.Configured() {
		return nil, &provider.BackendError{Backend: backendName, Op: "list voices", Retryable: true, Err: errors.New("api key not configured")}
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/v1/voices", nil)
	if err != nil {
		return nil, &provider.BackendError{Backend: backendName, Op: "list voices", Err: err}
	}
	httpReq.Header.Set("xi-api-key", c.apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, &provider.BackendError{Backend: backendName, Op: "list voices", Retryable: true, Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &provider.BackendError{Backend: backendName, Op: "list voices", Retryable: true, Err: err}
	}
	if resp.StatusCode >= 300 {
		return nil, &provider.BackendError{
			Backend:    backendName,
			Op:         "list voices",
			StatusCode: resp.StatusCode,
			Retryable:  provider.RetryableStatus(resp.StatusCode),
			Err:        errors.New(strings.TrimSpace(string(raw))),
		}
	}

	var decoded voicesResponse
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return nil, &provider.BackendError{Backend: backendName, Op: "list voices", Err: err}
	}

	voices := make([]provider.Voice, 0, len(decoded.Voices))
	for _, v := range decoded.Voices {
		voices = append(voices, provider.Voice{
			ID:       v.VoiceID,
			Name:     v.Name,
			Backend:  backendName,
			Language: v.Labels["language"],
		})
	}
	return voices, nil
}
