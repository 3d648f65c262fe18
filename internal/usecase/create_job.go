package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/changshize/fiction-tiktok/internal/domain"
	"github.com/changshize/fiction-tiktok/internal/publisher"
	"github.com/changshize/fiction-tiktok/internal/repository"
)

// publishFailureDetail is recorded on jobs whose dispatch never reached the
// broker, so they do not linger as PENDING forever.
const publishFailureDetail = "failed to queue generation job"

// CreateJobUsecase handles the business logic for submitting generation jobs.
type CreateJobUsecase struct {
	jobs      repository.JobRepository
	sources   repository.SourceRepository
	cache     repository.StatusCache
	publisher publisher.Publisher
	logger    *zap.Logger
}

// NewCreateJobUsecase creates a new CreateJobUsecase.
func NewCreateJobUsecase(
	jobs repository.JobRepository,
	sources repository.SourceRepository,
	cache repository.StatusCache,
	pub publisher.Publisher,
	logger *zap.Logger,
) *CreateJobUsecase {
	return &CreateJobUsecase{
		jobs:      jobs,
		sources:   sources,
		cache:     cache,
		publisher: pub,
		logger:    logger,
	}
}

// Execute validates the request, persists a PENDING job and publishes its
// dispatch. The job is accepted once the broker confirms the publish; a
// publish failure marks the job FAILED so it cannot linger unprocessed.
func (uc *CreateJobUsecase) Execute(ctx context.Context, req *domain.CreateJobRequest) (*domain.CreateJobResponse, error) {
	if !req.Capability.IsValid() {
		return nil, domain.ErrInvalidCapability
	}

	if _, err := uc.sources.GetNovel(ctx, req.NovelID); err != nil {
		return nil, err
	}
	if req.ChapterID != nil {
		chapter, err := uc.sources.GetChapter(ctx, *req.ChapterID)
		if err != nil {
			return nil, err
		}
		if chapter.NovelID != req.NovelID {
			return nil, fmt.Errorf("%w: chapter belongs to a different novel", domain.ErrChapterNotFound)
		}
	}

	// UUIDv7 keeps job IDs time-ordered.
	jobID, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("generate UUIDv7: %w", err)
	}

	now := time.Now().UTC()
	job := &domain.ContentJob{
		ID:         jobID,
		NovelID:    req.NovelID,
		ChapterID:  req.ChapterID,
		Capability: req.Capability,
		Prompt:     req.Prompt,
		Params:     req.Parameters,
		Status:     domain.StatusPending,
		Epoch:      1,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if err := uc.jobs.Create(ctx, job); err != nil {
		uc.logger.Error("Failed to create job in database", zap.Error(err), zap.String("job_id", jobID.String()))
		return nil, fmt.Errorf("create job: %w", err)
	}

	// Best effort: pollers fall back to the job record on a miss.
	if err := uc.cache.SetStatus(ctx, jobID, job.Snapshot()); err != nil {
		uc.logger.Warn("Failed to cache job status", zap.Error(err), zap.String("job_id", jobID.String()))
	}

	dispatch := &domain.JobDispatch{JobID: jobID, Capability: job.Capability, Epoch: job.Epoch}
	if err := uc.publisher.Publish(ctx, dispatch); err != nil {
		uc.logger.Error("Failed to publish job to queue", zap.Error(err), zap.String("job_id", jobID.String()))
		// The job will never be picked up, so record the failure.
		if ferr := uc.jobs.Fail(ctx, jobID, job.Epoch, publishFailureDetail); ferr != nil {
			uc.logger.Error("Failed to mark unqueued job as failed", zap.Error(ferr), zap.String("job_id", jobID.String()))
		} else {
			job.Status = domain.StatusFailed
			job.ErrorDetail = publishFailureDetail
			_ = uc.cache.SetStatus(ctx, jobID, job.Snapshot())
		}
		return nil, domain.ErrPublishFailed
	}

	uc.logger.Info("Generation job accepted",
		zap.String("job_id", jobID.String()),
		zap.String("capability", string(job.Capability)),
		zap.String("novel_id", job.NovelID.String()),
	)

	return &domain.CreateJobResponse{JobID: jobID, Status: domain.StatusPending}, nil
}
