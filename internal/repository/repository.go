package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/changshize/fiction-tiktok/internal/domain"
)

// JobRepository defines the interface for job persistence operations.
// Implementations must be safe for concurrent use.
//
// MarkProcessing, Complete and Fail are conditional transitions: they only
// apply when the job is still at the given epoch and in the expected state,
// and return domain.ErrStaleDispatch otherwise. This is what keeps runs
// superseded by a reset or cancel from overwriting newer state.
type JobRepository interface {
	// Create inserts a new job in PENDING state at epoch 1.
	Create(ctx context.Context, job *domain.ContentJob) error

	// GetByID retrieves a job by its UUID.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.ContentJob, error)

	// List retrieves jobs matching the filter, newest first.
	List(ctx context.Context, filter domain.JobFilter) ([]*domain.ContentJob, error)

	// MarkProcessing transitions PENDING → PROCESSING at the given epoch.
	MarkProcessing(ctx context.Context, id uuid.UUID, epoch int) error

	// Complete transitions PENDING/PROCESSING → COMPLETED at the given epoch
	// and stores the result.
	Complete(ctx context.Context, id uuid.UUID, epoch int, result *domain.JobResult) error

	// Fail transitions PENDING/PROCESSING → FAILED at the given epoch and
	// stores the error detail.
	Fail(ctx context.Context, id uuid.UUID, epoch int, detail string) error

	// Reset returns a job to PENDING, clears its outcome and bumps the epoch.
	// It returns the updated job.
	Reset(ctx context.Context, id uuid.UUID) (*domain.ContentJob, error)

	// Cancel transitions PROCESSING → FAILED with the given detail. It returns
	// domain.ErrJobNotProcessing when the job is not in flight.
	Cancel(ctx context.Context, id uuid.UUID, detail string) error

	// Delete removes a job record and returns it so callers can clean up
	// its stored artifact.
	Delete(ctx context.Context, id uuid.UUID) (*domain.ContentJob, error)
}

// SourceRepository reads the novel and chapter text that generation draws from.
// Ingestion of that text is owned by a separate pipeline; this service only reads.
type SourceRepository interface {
	// GetNovel retrieves a novel by its UUID.
	GetNovel(ctx context.Context, id uuid.UUID) (*domain.Novel, error)

	// GetChapter retrieves a chapter by its UUID.
	GetChapter(ctx context.Context, id uuid.UUID) (*domain.Chapter, error)

	// ListChapterIDs returns the IDs of all chapters of a novel in reading order.
	ListChapterIDs(ctx context.Context, novelID uuid.UUID) ([]uuid.UUID, error)
}

// StatusCache keeps short-lived job status snapshots for cheap polling.
// It is advisory: writes are last-writer-wins and a miss is not an error,
// the job record remains the source of truth.
type StatusCache interface {
	// SetStatus stores a snapshot under the job's key with a TTL derived
	// from the snapshot status.
	SetStatus(ctx context.Context, jobID uuid.UUID, snapshot *domain.JobStatusSnapshot) error

	// GetStatus retrieves a snapshot. A cache miss returns (nil, nil).
	GetStatus(ctx context.Context, jobID uuid.UUID) (*domain.JobStatusSnapshot, error)

	// Delete drops the snapshot for a job.
	Delete(ctx context.Context, jobID uuid.UUID) error
}
