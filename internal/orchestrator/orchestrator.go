package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/changshize/fiction-tiktok/internal/domain"
	"github.com/changshize/fiction-tiktok/internal/metrics"
	"github.com/changshize/fiction-tiktok/internal/prompt"
	"github.com/changshize/fiction-tiktok/internal/provider"
	"github.com/changshize/fiction-tiktok/internal/repository"
	"github.com/changshize/fiction-tiktok/internal/storage"
)

// ArtifactStore persists generated artifact bytes and returns the stored
// relative path and size.
type ArtifactStore interface {
	Save(capability domain.Capability, name string, data []byte) (string, int64, error)
}

// Orchestrator drives a dispatched job through the generation state machine:
// mark processing, resolve source text, call the capability's backend chain,
// persist the artifact, record the outcome. Every state-advancing write is
// conditional on the dispatch epoch, so runs superseded by a reset or cancel
// drop out without overwriting newer state.
type Orchestrator struct {
	jobs     repository.JobRepository
	sources  repository.SourceRepository
	cache    repository.StatusCache
	selector *provider.Selector
	store    ArtifactStore
	logger   *zap.Logger
}

// New creates an Orchestrator.
func New(
	jobs repository.JobRepository,
	sources repository.SourceRepository,
	cache repository.StatusCache,
	selector *provider.Selector,
	store ArtifactStore,
	logger *zap.Logger,
) *Orchestrator {
	return &Orchestrator{
		jobs:     jobs,
		sources:  sources,
		cache:    cache,
		selector: selector,
		store:    store,
		logger:   logger,
	}
}

// Process handles one dispatch from the queue. A nil return means the message
// is settled: the job reached a terminal state or the dispatch was stale and
// dropped. A non-nil return means the outcome could not be recorded and the
// message should be dead-lettered.
func (o *Orchestrator) Process(ctx context.Context, dispatch *domain.JobDispatch) error {
	log := o.logger.With(
		zap.String("job_id", dispatch.JobID.String()),
		zap.String("capability", string(dispatch.Capability)),
		zap.Int("epoch", dispatch.Epoch),
	)

	job, err := o.jobs.GetByID(ctx, dispatch.JobID)
	if err != nil {
		if errors.Is(err, domain.ErrJobNotFound) {
			log.Warn("Dispatch references a missing job, dropping")
			return nil
		}
		log.Error("Failed to load job", zap.Error(err))
		return err
	}
	if job.Status.IsTerminal() || job.Epoch != dispatch.Epoch {
		log.Info("Stale dispatch, dropping",
			zap.String("status", string(job.Status)),
			zap.Int("job_epoch", job.Epoch))
		metrics.StaleDispatches.Inc()
		return nil
	}

	if err := o.jobs.MarkProcessing(ctx, job.ID, dispatch.Epoch); err != nil {
		if errors.Is(err, domain.ErrStaleDispatch) {
			log.Info("Dispatch superseded before start, dropping")
			metrics.StaleDispatches.Inc()
			return nil
		}
		log.Error("Failed to mark job processing", zap.Error(err))
		return err
	}
	o.mirror(ctx, job.ID, &domain.JobStatusSnapshot{
		Status:    domain.StatusProcessing,
		Timestamp: time.Now().UTC(),
	})

	text, language, err := o.resolveSource(ctx, job)
	if err != nil {
		if errors.Is(err, domain.ErrNovelNotFound) || errors.Is(err, domain.ErrChapterNotFound) {
			// The source was deleted between create and dispatch. Permanent.
			return o.fail(ctx, job, dispatch.Epoch, err, log)
		}
		log.Error("Failed to resolve source text", zap.Error(err))
		return err
	}

	started := time.Now()

	gen, genErr := o.generate(ctx, job, text, language)
	if genErr != nil {
		return o.fail(ctx, job, dispatch.Epoch, genErr, log)
	}

	// A cancel or reset may have landed while the backend ran. Re-read so
	// an artifact nothing will reference is not written in the common case;
	// losing the race after this check just orphans one file.
	current, err := o.jobs.GetByID(ctx, job.ID)
	if err != nil {
		if errors.Is(err, domain.ErrJobNotFound) {
			log.Info("Job deleted during generation, discarding output")
			return nil
		}
		log.Error("Failed to re-read job before persist", zap.Error(err))
		return err
	}
	if current.Status != domain.StatusProcessing || current.Epoch != dispatch.Epoch {
		log.Info("Job superseded during generation, discarding output",
			zap.String("status", string(current.Status)),
			zap.Int("job_epoch", current.Epoch))
		metrics.StaleDispatches.Inc()
		return nil
	}

	name := storage.ArtifactName(job.Capability, job.ID)
	relPath, size, err := o.store.Save(job.Capability, name, gen.Data)
	if err != nil {
		return o.fail(ctx, job, dispatch.Epoch, fmt.Errorf("%s: store artifact: %w", job.Capability, err), log)
	}

	result := &domain.JobResult{
		FilePath:     relPath,
		FileSize:     size,
		Duration:     gen.Duration,
		Backend:      gen.Backend,
		PromptUsed:   gen.PromptUsed,
		ProcessingMS: time.Since(started).Milliseconds(),
	}

	if err := o.jobs.Complete(ctx, job.ID, dispatch.Epoch, result); err != nil {
		if errors.Is(err, domain.ErrStaleDispatch) {
			// A cancel or reset won the race. The stored file is orphaned;
			// regeneration writes a fresh name, so it only wastes space.
			log.Warn("Completion superseded, artifact orphaned", zap.String("path", relPath))
			metrics.StaleDispatches.Inc()
			return nil
		}
		log.Error("Failed to record completion", zap.Error(err))
		return err
	}
	o.mirror(ctx, job.ID, &domain.JobStatusSnapshot{
		Status:    domain.StatusCompleted,
		Result:    result,
		Timestamp: time.Now().UTC(),
	})

	metrics.GenerationsTotal.WithLabelValues(string(job.Capability), "completed").Inc()
	metrics.GenerationDuration.WithLabelValues(string(job.Capability)).Observe(time.Since(started).Seconds())

	log.Info("Job completed",
		zap.String("backend", result.Backend),
		zap.String("path", result.FilePath),
		zap.Int64("size", result.FileSize),
		zap.Int64("processing_ms", result.ProcessingMS),
	)
	return nil
}

// fail records a job-level failure. It returns nil when the failure was
// recorded (or superseded), and an error only when the write itself failed.
func (o *Orchestrator) fail(ctx context.Context, job *domain.ContentJob, epoch int, cause error, log *zap.Logger) error {
	detail := cause.Error()
	if err := o.jobs.Fail(ctx, job.ID, epoch, detail); err != nil {
		if errors.Is(err, domain.ErrStaleDispatch) {
			log.Info("Failure superseded, dropping")
			metrics.StaleDispatches.Inc()
			return nil
		}
		log.Error("Failed to record job failure", zap.Error(err))
		return err
	}
	o.mirror(ctx, job.ID, &domain.JobStatusSnapshot{
		Status:    domain.StatusFailed,
		Error:     detail,
		Timestamp: time.Now().UTC(),
	})
	metrics.GenerationsTotal.WithLabelValues(string(job.Capability), "failed").Inc()
	log.Warn("Job failed", zap.String("detail", detail))
	return nil
}

// mirror writes a status snapshot to the cache. Cache failures are logged
// and swallowed; the job record stays the source of truth.
func (o *Orchestrator) mirror(ctx context.Context, id uuid.UUID, snapshot *domain.JobStatusSnapshot) {
	if err := o.cache.SetStatus(ctx, id, snapshot); err != nil {
		o.logger.Warn("Status cache write failed",
			zap.Error(err),
			zap.String("job_id", id.String()))
	}
}

// resolveSource returns the text generation draws from: the chapter body when
// the job names a chapter, else the novel description, else its title. The
// novel's language rides along for speech backend selection.
func (o *Orchestrator) resolveSource(ctx context.Context, job *domain.ContentJob) (string, string, error) {
	novel, err := o.sources.GetNovel(ctx, job.NovelID)
	if err != nil {
		return "", "", err
	}
	if job.ChapterID != nil {
		chapter, err := o.sources.GetChapter(ctx, *job.ChapterID)
		if err != nil {
			return "", "", err
		}
		if text := strings.TrimSpace(chapter.Content); text != "" {
			return text, novel.Language, nil
		}
	}
	if text := strings.TrimSpace(novel.Description); text != "" {
		return text, novel.Language, nil
	}
	return strings.TrimSpace(novel.Title), novel.Language, nil
}

func (o *Orchestrator) generate(ctx context.Context, job *domain.ContentJob, text, language string) (*provider.Result, error) {
	switch job.Capability {
	case domain.CapabilityIllustration:
		return o.generateIllustration(ctx, job, text)
	case domain.CapabilityAudio:
		return o.generateAudio(ctx, job, text, language)
	case domain.CapabilityVideo:
		return o.generateVideo(ctx, job, text, language)
	}
	return nil, fmt.Errorf("%w: %q", domain.ErrInvalidCapability, job.Capability)
}

func (o *Orchestrator) generateIllustration(ctx context.Context, job *domain.ContentJob, text string) (*provider.Result, error) {
	params := domain.ExtractIllustrationParams(job.Params)

	base := strings.TrimSpace(job.Prompt)
	if base == "" {
		if text == "" {
			return nil, fmt.Errorf("illustration: %w", domain.ErrEmptySourceText)
		}
		base = prompt.FromText(text, params)
	}

	backends, err := o.selector.Illustration()
	if err != nil {
		return nil, err
	}

	result, err := o.tryImageBackends(ctx, backends, provider.ImageRequest{
		Prompt: prompt.Enhance(base, params.Style),
		Size:   params.Size,
	})
	if err != nil {
		return nil, fmt.Errorf("illustration: %w", err)
	}
	// Record the recognizable base prompt, not the decorated one.
	result.PromptUsed = base
	return result, nil
}

func (o *Orchestrator) generateAudio(ctx context.Context, job *domain.ContentJob, text, language string) (*provider.Result, error) {
	if text == "" {
		return nil, fmt.Errorf("audio: %w", domain.ErrEmptySourceText)
	}
	params := domain.ExtractAudioParams(job.Params)

	backends, err := o.selector.Speech(language)
	if err != nil {
		return nil, err
	}

	result, err := o.trySpeechBackends(ctx, backends, provider.SpeechRequest{
		Text:     text,
		Voice:    params.Voice,
		Speed:    params.Speed,
		Language: language,
	})
	if err != nil {
		return nil, fmt.Errorf("audio: %w", err)
	}
	return result, nil
}

// generateVideo produces the illustration and narration legs in memory, then
// composes them. Composition never starts before both legs finished.
func (o *Orchestrator) generateVideo(ctx context.Context, job *domain.ContentJob, text, language string) (*provider.Result, error) {
	if text == "" {
		return nil, fmt.Errorf("video: %w", domain.ErrEmptySourceText)
	}
	params := domain.ExtractVideoParams(job.Params)

	composer, err := o.selector.Composer()
	if err != nil {
		return nil, err
	}

	imageBackends, err := o.selector.Illustration()
	if err != nil {
		return nil, err
	}
	base := prompt.FromText(text, domain.ExtractIllustrationParams(job.Params))
	image, err := o.tryImageBackends(ctx, imageBackends, provider.ImageRequest{
		Prompt: prompt.Enhance(base, params.Style),
		Size:   domain.DefaultImageSize,
	})
	if err != nil {
		return nil, fmt.Errorf("video: illustration: %w", err)
	}

	speechBackends, err := o.selector.Speech(language)
	if err != nil {
		return nil, err
	}
	speech, err := o.trySpeechBackends(ctx, speechBackends, provider.SpeechRequest{
		Text:     text,
		Voice:    params.Voice,
		Speed:    params.Speed,
		Language: language,
	})
	if err != nil {
		return nil, fmt.Errorf("video: audio: %w", err)
	}

	composed, err := composer.Compose(ctx, provider.ComposeRequest{
		Image:      image.Data,
		Audio:      speech.Data,
		Resolution: params.Resolution,
		FPS:        params.FPS,
	})
	if err != nil {
		return nil, fmt.Errorf("video: %w", err)
	}

	return &provider.Result{
		Data:     composed.Data,
		Backend:  fmt.Sprintf("illustration: %s, audio: %s", image.Backend, speech.Backend),
		Duration: composed.Duration,
	}, nil
}

// tryImageBackends walks the candidate chain, falling through on capacity
// and credential failures. The last error is returned when all fail.
func (o *Orchestrator) tryImageBackends(ctx context.Context, backends []provider.ImageBackend, req provider.ImageRequest) (*provider.Result, error) {
	var lastErr error
	for i, b := range backends {
		result, err := b.GenerateImage(ctx, req)
		if err == nil {
			return result, nil
		}
		lastErr = err
		if !provider.ShouldFallback(err) || i == len(backends)-1 {
			break
		}
		metrics.ProviderFallbacks.WithLabelValues(string(domain.CapabilityIllustration), b.Name()).Inc()
		o.logger.Warn("Image backend failed, trying next",
			zap.String("backend", b.Name()),
			zap.Error(err))
	}
	return nil, lastErr
}

func (o *Orchestrator) trySpeechBackends(ctx context.Context, backends []provider.SpeechBackend, req provider.SpeechRequest) (*provider.Result, error) {
	var lastErr error
	for i, b := range backends {
		result, err := b.Synthesize(ctx, req)
		if err == nil {
			return result, nil
		}
		lastErr = err
		if !provider.ShouldFallback(err) || i == len(backends)-1 {
			break
		}
		metrics.ProviderFallbacks.WithLabelValues(string(domain.CapabilityAudio), b.Name()).Inc()
		o.logger.Warn("Speech backend failed, trying next",
			zap.String("backend", b.Name()),
			zap.Error(err))
	}
	return nil, lastErr
}
