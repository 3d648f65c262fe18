package usecase

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/changshize/fiction-tiktok/internal/domain"
	"github.com/changshize/fiction-tiktok/internal/repository"
)

// GetJobUsecase handles fetching a job record.
type GetJobUsecase struct {
	jobs   repository.JobRepository
	logger *zap.Logger
}

// NewGetJobUsecase creates a new GetJobUsecase.
func NewGetJobUsecase(jobs repository.JobRepository, logger *zap.Logger) *GetJobUsecase {
	return &GetJobUsecase{
		jobs:   jobs,
		logger: logger,
	}
}

// Execute retrieves a job by its ID.
func (uc *GetJobUsecase) Execute(ctx context.Context, id uuid.UUID) (*domain.ContentJob, error) {
	job, err := uc.jobs.GetByID(ctx, id)
	if err != nil {
		uc.logger.Debug("Job lookup failed", zap.String("job_id", id.String()), zap.Error(err))
		return nil, err
	}
	return job, nil
}
