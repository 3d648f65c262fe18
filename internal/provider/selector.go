package provider

import (
	"fmt"
	"strings"

	"github.com/changshize/fiction-tiktok/internal/domain"
)

// speechPreference maps a source language to the speech backend that handles
// it best. Languages not listed fall through to the default.
var speechPreference = map[string]string{
	"en": "elevenlabs",
	"zh": "openai",
	"ja": "openai",
}

const defaultSpeechBackend = "openai"

// Backends enumerates the constructed provider clients. Image backends are
// given in fallback order.
type Backends struct {
	Images   []ImageBackend
	Speech   []SpeechBackend
	Composer Composer
}

// Selector picks candidate backends per capability. It is built once in the
// worker's composition root from explicit configuration and holds no global
// state.
type Selector struct {
	images   []ImageBackend
	speech   []SpeechBackend
	composer Composer
}

// NewSelector creates a selector over the given backends.
func NewSelector(b Backends) *Selector {
	return &Selector{
		images:   b.Images,
		speech:   b.Speech,
		composer: b.Composer,
	}
}

// Illustration returns the configured image backends in fallback order.
func (s *Selector) Illustration() ([]ImageBackend, error) {
	var candidates []ImageBackend
	for _, b := range s.images {
		if b.Configured() {
			candidates = append(candidates, b)
		}
	}
	if len(candidates) == 0 {
		return nil, fmt.Errorf("illustration: %w", domain.ErrNoProviderConfigured)
	}
	return candidates, nil
}

// Speech returns the configured speech backends with the language's
// preferred backend first.
func (s *Selector) Speech(language string) ([]SpeechBackend, error) {
	preferred := speechPreference[normalizeLanguage(language)]
	if preferred == "" {
		preferred = defaultSpeechBackend
	}

	var front, rest []SpeechBackend
	for _, b := range s.speech {
		if !b.Configured() {
			continue
		}
		if b.Name() == preferred {
			front = append(front, b)
		} else {
			rest = append(rest, b)
		}
	}
	candidates := append(front, rest...)
	if len(candidates) == 0 {
		return nil, fmt.Errorf("audio: %w", domain.ErrNoProviderConfigured)
	}
	return candidates, nil
}

// Composer returns the video composition backend. There is exactly one and
// no fallback.
func (s *Selector) Composer() (Composer, error) {
	if s.composer == nil {
		return nil, fmt.Errorf("video: %w", domain.ErrNoProviderConfigured)
	}
	return s.composer, nil
}

// SpeechBackends returns every configured speech backend, for voice listings.
func (s *Selector) SpeechBackends() []SpeechBackend {
	var configured []SpeechBackend
	for _, b := range s.speech {
		if b.Configured() {
			configured = append(configured, b)
		}
	}
	return configured
}

// normalizeLanguage reduces a language tag like "en-US" to its primary subtag.
func normalizeLanguage(language string) string {
	language = strings.ToLower(strings.TrimSpace(language))
	if i := strings.IndexAny(language, "-_"); i > 0 {
		language = language[:i]
	}
	return language
}
