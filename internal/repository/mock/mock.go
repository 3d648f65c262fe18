package mock

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/changshize/fiction-tiktok/internal/domain"
	"github.com/changshize/fiction-tiktok/internal/repository"
)

// ---- JobRepository mock ----

var _ repository.JobRepository = (*JobRepository)(nil)

// JobRepository is an in-memory test double for repository.JobRepository.
// Its default behavior implements the same conditional transition semantics
// as the PostgreSQL implementation, including epoch checks.
type JobRepository struct {
	mu   sync.RWMutex
	jobs map[uuid.UUID]*domain.ContentJob

	// Hook functions for injecting errors or overriding behavior.
	CreateFn         func(ctx context.Context, job *domain.ContentJob) error
	GetByIDFn        func(ctx context.Context, id uuid.UUID) (*domain.ContentJob, error)
	ListFn           func(ctx context.Context, filter domain.JobFilter) ([]*domain.ContentJob, error)
	MarkProcessingFn func(ctx context.Context, id uuid.UUID, epoch int) error
	CompleteFn       func(ctx context.Context, id uuid.UUID, epoch int, result *domain.JobResult) error
	FailFn           func(ctx context.Context, id uuid.UUID, epoch int, detail string) error
	ResetFn          func(ctx context.Context, id uuid.UUID) (*domain.ContentJob, error)
	CancelFn         func(ctx context.Context, id uuid.UUID, detail string) error
	DeleteFn         func(ctx context.Context, id uuid.UUID) (*domain.ContentJob, error)

	// Recorded calls for assertions.
	Completions []CompletionCall
	Failures    []FailureCall
}

type CompletionCall struct {
	ID     uuid.UUID
	Epoch  int
	Result *domain.JobResult
}

type FailureCall struct {
	ID     uuid.UUID
	Epoch  int
	Detail string
}

// NewJobRepository creates a new mock job repository.
func NewJobRepository() *JobRepository {
	return &JobRepository{jobs: make(map[uuid.UUID]*domain.ContentJob)}
}

// Seed stores a job directly, bypassing Create hooks.
func (m *JobRepository) Seed(job *domain.ContentJob) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.jobs[job.ID] = job
}

// Get returns a stored job for test assertions, or nil.
func (m *JobRepository) Get(id uuid.UUID) *domain.ContentJob {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.jobs[id]
}

// All returns every stored job for test assertions.
func (m *JobRepository) All() []*domain.ContentJob {
	m.mu.RLock()
	defer m.mu.RUnlock()
	jobs := make([]*domain.ContentJob, 0, len(m.jobs))
	for _, j := range m.jobs {
		jobs = append(jobs, j)
	}
	return jobs
}

func (m *JobRepository) Create(ctx context.Context, job *domain.ContentJob) error {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, job)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now().UTC()
	job.CreatedAt = now
	job.UpdatedAt = now
	m.jobs[job.ID] = job
	return nil
}

func (m *JobRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.ContentJob, error) {
	if m.GetByIDFn != nil {
		return m.GetByIDFn(ctx, id)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	job, ok := m.jobs[id]
	if !ok {
		return nil, domain.ErrJobNotFound
	}
	copied := *job
	return &copied, nil
}

func (m *JobRepository) List(ctx context.Context, filter domain.JobFilter) ([]*domain.ContentJob, error) {
	if m.ListFn != nil {
		return m.ListFn(ctx, filter)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var jobs []*domain.ContentJob
	for _, j := range m.jobs {
		if filter.NovelID != nil && j.NovelID != *filter.NovelID {
			continue
		}
		if filter.Capability != nil && j.Capability != *filter.Capability {
			continue
		}
		if filter.Status != nil && j.Status != *filter.Status {
			continue
		}
		copied := *j
		jobs = append(jobs, &copied)
	}
	return jobs, nil
}

func (m *JobRepository) MarkProcessing(ctx context.Context, id uuid.UUID, epoch int) error {
	if m.MarkProcessingFn != nil {
		return m.MarkProcessingFn(ctx, id, epoch)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	job, ok := m.jobs[id]
	if !ok || job.Status != domain.StatusPending || job.Epoch != epoch {
		return domain.ErrStaleDispatch
	}
	job.Status = domain.StatusProcessing
	job.UpdatedAt = time.Now().UTC()
	return nil
}

func (m *JobRepository) Complete(ctx context.Context, id uuid.UUID, epoch int, result *domain.JobResult) error {
	m.mu.Lock()
	m.Completions = append(m.Completions, CompletionCall{ID: id, Epoch: epoch, Result: result})
	m.mu.Unlock()
	if m.CompleteFn != nil {
		return m.CompleteFn(ctx, id, epoch, result)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	job, ok := m.jobs[id]
	if !ok || job.Status != domain.StatusProcessing || job.Epoch != epoch {
		return domain.ErrStaleDispatch
	}
	now := time.Now().UTC()
	job.Status = domain.StatusCompleted
	job.Result = result
	job.ErrorDetail = ""
	job.CompletedAt = &now
	job.UpdatedAt = now
	return nil
}

func (m *JobRepository) Fail(ctx context.Context, id uuid.UUID, epoch int, detail string) error {
	m.mu.Lock()
	m.Failures = append(m.Failures, FailureCall{ID: id, Epoch: epoch, Detail: detail})
	m.mu.Unlock()
	if m.FailFn != nil {
		return m.FailFn(ctx, id, epoch, detail)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	job, ok := m.jobs[id]
	if !ok || job.Status.IsTerminal() || job.Epoch != epoch {
		return domain.ErrStaleDispatch
	}
	now := time.Now().UTC()
	job.Status = domain.StatusFailed
	job.Result = nil
	job.ErrorDetail = detail
	job.CompletedAt = &now
	job.UpdatedAt = now
	return nil
}

func (m *JobRepository) Reset(ctx context.Context, id uuid.UUID) (*domain.ContentJob, error) {
	if m.ResetFn != nil {
		return m.ResetFn(ctx, id)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	job, ok := m.jobs[id]
	if !ok {
		return nil, domain.ErrJobNotFound
	}
	job.Status = domain.StatusPending
	job.Epoch++
	job.Result = nil
	job.ErrorDetail = ""
	job.CompletedAt = nil
	job.UpdatedAt = time.Now().UTC()
	copied := *job
	return &copied, nil
}

func (m *JobRepository) Cancel(ctx context.Context, id uuid.UUID, detail string) error {
	if m.CancelFn != nil {
		return m.CancelFn(ctx, id, detail)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	job, ok := m.jobs[id]
	if !ok {
		return domain.ErrJobNotFound
	}
	if job.Status != domain.StatusProcessing {
		return domain.ErrJobNotProcessing
	}
	now := time.Now().UTC()
	job.Status = domain.StatusFailed
	job.ErrorDetail = detail
	job.CompletedAt = &now
	job.UpdatedAt = now
	return nil
}

func (m *JobRepository) Delete(ctx context.Context, id uuid.UUID) (*domain.ContentJob, error) {
	if m.DeleteFn != nil {
		return m.DeleteFn(ctx, id)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	job, ok := m.jobs[id]
	if !ok {
		return nil, domain.ErrJobNotFound
	}
	delete(m.jobs, id)
	return job, nil
}

// ---- SourceRepository mock ----

var _ repository.SourceRepository = (*SourceRepository)(nil)

// SourceRepository is an in-memory test double for repository.SourceRepository.
type SourceRepository struct {
	mu       sync.RWMutex
	novels   map[uuid.UUID]*domain.Novel
	chapters map[uuid.UUID]*domain.Chapter

	GetNovelFn       func(ctx context.Context, id uuid.UUID) (*domain.Novel, error)
	GetChapterFn     func(ctx context.Context, id uuid.UUID) (*domain.Chapter, error)
	ListChapterIDsFn func(ctx context.Context, novelID uuid.UUID) ([]uuid.UUID, error)
}

// NewSourceRepository creates a new mock source repository.
func NewSourceRepository() *SourceRepository {
	return &SourceRepository{
		novels:   make(map[uuid.UUID]*domain.Novel),
		chapters: make(map[uuid.UUID]*domain.Chapter),
	}
}

// SeedNovel stores a novel for lookups.
func (m *SourceRepository) SeedNovel(novel *domain.Novel) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.novels[novel.ID] = novel
}

// SeedChapter stores a chapter for lookups.
func (m *SourceRepository) SeedChapter(chapter *domain.Chapter) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.chapters[chapter.ID] = chapter
}

func (m *SourceRepository) GetNovel(ctx context.Context, id uuid.UUID) (*domain.Novel, error) {
	if m.GetNovelFn != nil {
		return m.GetNovelFn(ctx, id)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	novel, ok := m.novels[id]
	if !ok {
		return nil, domain.ErrNovelNotFound
	}
	return novel, nil
}

func (m *SourceRepository) GetChapter(ctx context.Context, id uuid.UUID) (*domain.Chapter, error) {
	if m.GetChapterFn != nil {
		return m.GetChapterFn(ctx, id)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	chapter, ok := m.chapters[id]
	if !ok {
		return nil, domain.ErrChapterNotFound
	}
	return chapter, nil
}

func (m *SourceRepository) ListChapterIDs(ctx context.Context, novelID uuid.UUID) ([]uuid.UUID, error) {
	if m.ListChapterIDsFn != nil {
		return m.ListChapterIDsFn(ctx, novelID)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var ids []uuid.UUID
	for id, ch := range m.chapters {
		if ch.NovelID == novelID {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

// ---- StatusCache mock ----

var _ repository.StatusCache = (*StatusCache)(nil)

// StatusCache is an in-memory test double for repository.StatusCache.
type StatusCache struct {
	mu        sync.RWMutex
	snapshots map[uuid.UUID]*domain.JobStatusSnapshot

	SetStatusFn func(ctx context.Context, jobID uuid.UUID, snapshot *domain.JobStatusSnapshot) error
	GetStatusFn func(ctx context.Context, jobID uuid.UUID) (*domain.JobStatusSnapshot, error)
	DeleteFn    func(ctx context.Context, jobID uuid.UUID) error

	// Writes records every SetStatus call in order.
	Writes []SnapshotWrite
}

type SnapshotWrite struct {
	JobID    uuid.UUID
	Snapshot *domain.JobStatusSnapshot
}

// NewStatusCache creates a new mock status cache.
func NewStatusCache() *StatusCache {
	return &StatusCache{snapshots: make(map[uuid.UUID]*domain.JobStatusSnapshot)}
}

func (m *StatusCache) SetStatus(ctx context.Context, jobID uuid.UUID, snapshot *domain.JobStatusSnapshot) error {
	m.mu.Lock()
	m.Writes = append(m.Writes, SnapshotWrite{JobID: jobID, Snapshot: snapshot})
	m.mu.Unlock()
	if m.SetStatusFn != nil {
		return m.SetStatusFn(ctx, jobID, snapshot)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.snapshots[jobID] = snapshot
	return nil
}

func (m *StatusCache) GetStatus(ctx context.Context, jobID uuid.UUID) (*domain.JobStatusSnapshot, error) {
	if m.GetStatusFn != nil {
		return m.GetStatusFn(ctx, jobID)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.snapshots[jobID], nil
}

func (m *StatusCache) Delete(ctx context.Context, jobID uuid.UUID) error {
	if m.DeleteFn != nil {
		return m.DeleteFn(ctx, jobID)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.snapshots, jobID)
	return nil
}
