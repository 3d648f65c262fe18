package usecase

import (
	"context"

	"go.uber.org/zap"

	"github.com/changshize/fiction-tiktok/internal/provider"
)

// ListVoicesUsecase aggregates the narration voice catalogs of every
// configured speech backend.
type ListVoicesUsecase struct {
	selector *provider.Selector
	logger   *zap.Logger
}

// NewListVoicesUsecase creates a new ListVoicesUsecase.
func NewListVoicesUsecase(selector *provider.Selector, logger *zap.Logger) *ListVoicesUsecase {
	return &ListVoicesUsecase{
		selector: selector,
		logger:   logger,
	}
}

// Execute lists available voices, optionally restricted to one backend.
// A backend whose catalog call fails is skipped with a warning; the other
// backends' voices are still returned.
func (uc *ListVoicesUsecase) Execute(ctx context.Context, backend string) ([]provider.Voice, error) {
	voices := make([]provider.Voice, 0)
	for _, b := range uc.selector.SpeechBackends() {
		if backend != "" && b.Name() != backend {
			continue
		}
		vs, err := b.Voices(ctx)
		if err != nil {
			uc.logger.Warn("Voice catalog unavailable",
				zap.String("backend", b.Name()),
				zap.Error(err),
			)
			continue
		}
		voices = append(voices, vs...)
	}
	return voices, nil
}
