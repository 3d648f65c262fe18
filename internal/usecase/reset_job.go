package usecase

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/changshize/fiction-tiktok/internal/domain"
	"github.com/changshize/fiction-tiktok/internal/publisher"
	"github.com/changshize/fiction-tiktok/internal/repository"
)

// ResetJobUsecase returns a job to PENDING and re-dispatches it. The reset
// bumps the job's epoch, so a still-running prior attempt can no longer
// record an outcome.
type ResetJobUsecase struct {
	jobs      repository.JobRepository
	cache     repository.StatusCache
	publisher publisher.Publisher
	logger    *zap.Logger
}

// NewResetJobUsecase creates a new ResetJobUsecase.
func NewResetJobUsecase(
	jobs repository.JobRepository,
	cache repository.StatusCache,
	pub publisher.Publisher,
	logger *zap.Logger,
) *ResetJobUsecase {
	return &ResetJobUsecase{
		jobs:      jobs,
		cache:     cache,
		publisher: pub,
		logger:    logger,
	}
}

// Execute resets the job and publishes a fresh dispatch. Safe to call in any
// state, including while a prior run is in flight.
func (uc *ResetJobUsecase) Execute(ctx context.Context, id uuid.UUID) (*domain.ContentJob, error) {
	job, err := uc.jobs.Reset(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := uc.cache.SetStatus(ctx, id, job.Snapshot()); err != nil {
		uc.logger.Warn("Failed to cache job status", zap.Error(err), zap.String("job_id", id.String()))
	}

	dispatch := &domain.JobDispatch{JobID: job.ID, Capability: job.Capability, Epoch: job.Epoch}
	if err := uc.publisher.Publish(ctx, dispatch); err != nil {
		uc.logger.Error("Failed to publish reset job", zap.Error(err), zap.String("job_id", id.String()))
		if ferr := uc.jobs.Fail(ctx, id, job.Epoch, publishFailureDetail); ferr != nil {
			uc.logger.Error("Failed to mark unqueued job as failed", zap.Error(ferr), zap.String("job_id", id.String()))
		} else {
			job.Status = domain.StatusFailed
			job.ErrorDetail = publishFailureDetail
			_ = uc.cache.SetStatus(ctx, id, job.Snapshot())
		}
		return nil, domain.ErrPublishFailed
	}

	uc.logger.Info("Job reset and re-dispatched",
		zap.String("job_id", id.String()),
		zap.Int("epoch", job.Epoch),
	)
	return job, nil
}
