package provider

import "context"

// Result is the transient outcome of a single backend call. The orchestrator
// folds it into the job's stored result after persisting the artifact bytes.
type Result struct {
	Data       []byte
	Backend    string
	Duration   float64 // seconds, speech and video only
	PromptUsed string  // image generation only
}

// ImageRequest describes one image generation call.
type ImageRequest struct {
	Prompt string
	Size   string // "WIDTHxHEIGHT"
}

// SpeechRequest describes one speech synthesis call.
// An empty Voice defers to the backend's default voice.
type SpeechRequest struct {
	Text     string
	Voice    string
	Speed    float64
	Language string
}

// ComposeRequest describes one video composition call. The clip duration is
// taken from the audio track, never requested.
type ComposeRequest struct {
	Image      []byte
	Audio      []byte
	Resolution string // "WIDTHxHEIGHT"
	FPS        int
}

// Voice describes a narration voice offered by a speech backend.
type Voice struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Backend  string `json:"backend"`
	Language string `json:"language,omitempty"`
}

// ImageBackend generates illustrations from text prompts.
type ImageBackend interface {
	Name() string
	Configured() bool
	GenerateImage(ctx context.Context, req ImageRequest) (*Result, error)
}

// SpeechBackend synthesizes narrated audio from text.
type SpeechBackend interface {
	Name() string
	Configured() bool
	Synthesize(ctx context.Context, req SpeechRequest) (*Result, error)
	Voices(ctx context.Context) ([]Voice, error)
}

// Composer renders a still image plus an audio track into a video clip.
type Composer interface {
	Name() string
	Compose(ctx context.Context, req ComposeRequest) (*Result, error)
}
