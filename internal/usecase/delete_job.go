package usecase

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/changshize/fiction-tiktok/internal/repository"
)

// ArtifactRemover removes stored artifact files by their store-relative path.
// Satisfied by storage.Store.
type ArtifactRemover interface {
	Remove(relPath string) error
}

// DeleteJobUsecase removes a job record along with its stored artifact and
// cached status.
type DeleteJobUsecase struct {
	jobs   repository.JobRepository
	cache  repository.StatusCache
	store  ArtifactRemover
	logger *zap.Logger
}

// NewDeleteJobUsecase creates a new DeleteJobUsecase.
func NewDeleteJobUsecase(
	jobs repository.JobRepository,
	cache repository.StatusCache,
	store ArtifactRemover,
	logger *zap.Logger,
) *DeleteJobUsecase {
	return &DeleteJobUsecase{
		jobs:   jobs,
		cache:  cache,
		store:  store,
		logger: logger,
	}
}

// Execute deletes the job. Artifact and cache cleanup are best effort: the
// record removal is what matters, leftovers only cost disk space.
func (uc *DeleteJobUsecase) Execute(ctx context.Context, id uuid.UUID) error {
	job, err := uc.jobs.Delete(ctx, id)
	if err != nil {
		return err
	}

	if job.Result != nil && job.Result.FilePath != "" {
		if err := uc.store.Remove(job.Result.FilePath); err != nil {
			uc.logger.Warn("Failed to remove artifact",
				zap.Error(err),
				zap.String("job_id", id.String()),
				zap.String("path", job.Result.FilePath),
			)
		}
	}
	if err := uc.cache.Delete(ctx, id); err != nil {
		uc.logger.Warn("Failed to drop cached status", zap.Error(err), zap.String("job_id", id.String()))
	}

	uc.logger.Info("Job deleted", zap.String("job_id", id.String()))
	return nil
}
