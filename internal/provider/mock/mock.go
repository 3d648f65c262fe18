package mock

import (
	"context"
	"sync"

	"github.com/changshize/fiction-tiktok/internal/provider"
)

// ---- ImageBackend mock ----

var _ provider.ImageBackend = (*ImageBackend)(nil)

// ImageBackend is a test double for provider.ImageBackend.
type ImageBackend struct {
	mu sync.Mutex

	BackendName  string
	Unconfigured bool
	GenerateFn   func(ctx context.Context, req provider.ImageRequest) (*provider.Result, error)

	Calls []provider.ImageRequest
}

func (m *ImageBackend) Name() string {
	if m.BackendName == "" {
		return "mock-image"
	}
	return m.BackendName
}

func (m *ImageBackend) Configured() bool { return !m.Unconfigured }

func (m *ImageBackend) GenerateImage(ctx context.Context, req provider.ImageRequest) (*provider.Result, error) {
	m.mu.Lock()
	m.Calls = append(m.Calls, req)
	m.mu.Unlock()
	if m.GenerateFn != nil {
		return m.GenerateFn(ctx, req)
	}
	return &provider.Result{
		Data:       []byte("png-bytes"),
		Backend:    m.Name(),
		PromptUsed: req.Prompt,
	}, nil
}

// ---- SpeechBackend mock ----

var _ provider.SpeechBackend = (*SpeechBackend)(nil)

// SpeechBackend is a test double for provider.SpeechBackend.
type SpeechBackend struct {
	mu sync.Mutex

	BackendName  string
	Unconfigured bool
	SynthesizeFn func(ctx context.Context, req provider.SpeechRequest) (*provider.Result, error)
	VoicesFn     func(ctx context.Context) ([]provider.Voice, error)

	Calls []provider.SpeechRequest
}

func (m *SpeechBackend) Name() string {
	if m.BackendName == "" {
		return "mock-speech"
	}
	return m.BackendName
}

func (m *SpeechBackend) Configured() bool { return !m.Unconfigured }

func (m *SpeechBackend) Synthesize(ctx context.Context, req provider.SpeechRequest) (*provider.Result, error) {
	m.mu.Lock()
	m.Calls = append(m.Calls, req)
	m.mu.Unlock()
	if m.SynthesizeFn != nil {
		return m.SynthesizeFn(ctx, req)
	}
	return &provider.Result{
		Data:     []byte("mp3-bytes"),
		Backend:  m.Name(),
		Duration: 2.5,
	}, nil
}

func (m *SpeechBackend) Voices(ctx context.Context) ([]provider.Voice, error) {
	if m.VoicesFn != nil {
		return m.VoicesFn(ctx)
	}
	return []provider.Voice{{ID: "v1", Name: "Test Voice", Backend: m.Name()}}, nil
}

// ---- Composer mock ----

var _ provider.Composer = (*Composer)(nil)

// Composer is a test double for provider.Composer.
type Composer struct {
	mu sync.Mutex

	BackendName string
	ComposeFn   func(ctx context.Context, req provider.ComposeRequest) (*provider.Result, error)

	Calls []provider.ComposeRequest
}

func (m *Composer) Name() string {
	if m.BackendName == "" {
		return "mock-composer"
	}
	return m.BackendName
}

func (m *Composer) Compose(ctx context.Context, req provider.ComposeRequest) (*provider.Result, error) {
	m.mu.Lock()
	m.Calls = append(m.Calls, req)
	m.mu.Unlock()
	if m.ComposeFn != nil {
		return m.ComposeFn(ctx, req)
	}
	return &provider.Result{
		Data:     []byte("mp4-bytes"),
		Backend:  m.Name(),
		Duration: 3.0,
	}, nil
}
