package usecase

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/changshize/fiction-tiktok/internal/domain"
	"github.com/changshize/fiction-tiktok/internal/repository"
)

// JobStatusUsecase serves the fast status-poll path. It answers from the
// cache when possible and falls back to the job record, refreshing the cache
// so subsequent polls stay cheap.
type JobStatusUsecase struct {
	jobs   repository.JobRepository
	cache  repository.StatusCache
	logger *zap.Logger
}

// NewJobStatusUsecase creates a new JobStatusUsecase.
func NewJobStatusUsecase(jobs repository.JobRepository, cache repository.StatusCache, logger *zap.Logger) *JobStatusUsecase {
	return &JobStatusUsecase{
		jobs:   jobs,
		cache:  cache,
		logger: logger,
	}
}

// Execute returns the job's status snapshot. A cache failure is treated as a
// miss: the job record is the source of truth.
func (uc *JobStatusUsecase) Execute(ctx context.Context, id uuid.UUID) (*domain.JobStatusSnapshot, error) {
	snapshot, err := uc.cache.GetStatus(ctx, id)
	if err != nil {
		uc.logger.Warn("Status cache read failed", zap.Error(err), zap.String("job_id", id.String()))
	}
	if snapshot != nil {
		return snapshot, nil
	}

	job, err := uc.jobs.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	snapshot = job.Snapshot()
	if err := uc.cache.SetStatus(ctx, id, snapshot); err != nil {
		uc.logger.Warn("Status cache refresh failed", zap.Error(err), zap.String("job_id", id.String()))
	}
	return snapshot, nil
}
