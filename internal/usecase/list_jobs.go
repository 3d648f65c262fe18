package usecase

import (
	"context"

	"go.uber.org/zap"

	"github.com/changshize/fiction-tiktok/internal/domain"
	"github.com/changshize/fiction-tiktok/internal/repository"
)

const (
	defaultListLimit = 20
	maxListLimit     = 100
)

// ListJobsUsecase handles filtered job listings.
type ListJobsUsecase struct {
	jobs   repository.JobRepository
	logger *zap.Logger
}

// NewListJobsUsecase creates a new ListJobsUsecase.
func NewListJobsUsecase(jobs repository.JobRepository, logger *zap.Logger) *ListJobsUsecase {
	return &ListJobsUsecase{
		jobs:   jobs,
		logger: logger,
	}
}

// Execute lists jobs matching the filter, newest first. The limit is clamped
// to [1, 100] with a default of 20; a negative offset is treated as zero.
func (uc *ListJobsUsecase) Execute(ctx context.Context, filter domain.JobFilter) ([]*domain.ContentJob, error) {
	if filter.Capability != nil && !filter.Capability.IsValid() {
		return nil, domain.ErrInvalidCapability
	}
	if filter.Status != nil && !filter.Status.IsValid() {
		return nil, domain.ErrInvalidStatus
	}
	if filter.Limit <= 0 {
		filter.Limit = defaultListLimit
	}
	if filter.Limit > maxListLimit {
		filter.Limit = maxListLimit
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}

	return uc.jobs.List(ctx, filter)
}
