package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/changshize/fiction-tiktok/internal/domain"
	"github.com/changshize/fiction-tiktok/internal/repository"
)

// cancelDetail is recorded on jobs failed by an explicit cancel request.
const cancelDetail = "generation cancelled by user"

// CancelJobUsecase fails an in-flight job on the user's behalf. The running
// attempt is not interrupted; its late writes are rejected by the status
// condition on the job record.
type CancelJobUsecase struct {
	jobs   repository.JobRepository
	cache  repository.StatusCache
	logger *zap.Logger
}

// NewCancelJobUsecase creates a new CancelJobUsecase.
func NewCancelJobUsecase(jobs repository.JobRepository, cache repository.StatusCache, logger *zap.Logger) *CancelJobUsecase {
	return &CancelJobUsecase{
		jobs:   jobs,
		cache:  cache,
		logger: logger,
	}
}

// Execute cancels a PROCESSING job. Jobs in any other state return
// domain.ErrJobNotProcessing.
func (uc *CancelJobUsecase) Execute(ctx context.Context, id uuid.UUID) error {
	if err := uc.jobs.Cancel(ctx, id, cancelDetail); err != nil {
		return err
	}

	snapshot := &domain.JobStatusSnapshot{
		Status:    domain.StatusFailed,
		Error:     cancelDetail,
		Timestamp: time.Now().UTC(),
	}
	if err := uc.cache.SetStatus(ctx, id, snapshot); err != nil {
		uc.logger.Warn("Failed to cache job status", zap.Error(err), zap.String("job_id", id.String()))
	}

	uc.logger.Info("Job cancelled", zap.String("job_id", id.String()))
	return nil
}
