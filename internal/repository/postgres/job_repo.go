package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/changshize/fiction-tiktok/internal/domain"
	"github.com/changshize/fiction-tiktok/internal/repository"
)

// Ensure pgJobRepo implements repository.JobRepository.
var _ repository.JobRepository = (*pgJobRepo)(nil)

const jobColumns = `job_id, novel_id, chapter_id, capability, prompt, params, status, epoch,
	       file_path, file_size, duration, backend, prompt_used, processing_ms,
	       error_detail, created_at, completed_at, updated_at`

type pgJobRepo struct {
	pool *pgxpool.Pool
}

// NewJobRepository creates a new PostgreSQL-backed job repository.
func NewJobRepository(pool *pgxpool.Pool) repository.JobRepository {
	return &pgJobRepo{pool: pool}
}

func (r *pgJobRepo) Create(ctx context.Context, job *domain.ContentJob) error {
	paramsJSON, err := json.Marshal(job.Params)
	if err != nil {
		return fmt.Errorf("postgres: marshal params: %w", err)
	}

	query := `
		INSERT INTO content_jobs (job_id, novel_id, chapter_id, capability, prompt, params, status, epoch, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	now := time.Now().UTC()
	_, err = r.pool.Exec(ctx, query,
		job.ID, job.NovelID, job.ChapterID, job.Capability, job.Prompt,
		paramsJSON, job.Status, job.Epoch, now, now,
	)
	if err != nil {
		return fmt.Errorf("postgres: create job: %w", err)
	}
	job.CreatedAt = now
	job.UpdatedAt = now
	return nil
}

func (r *pgJobRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.ContentJob, error) {
	query := `SELECT ` + jobColumns + ` FROM content_jobs WHERE job_id = $1`

	job, err := scanJob(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrJobNotFound
		}
		return nil, fmt.Errorf("postgres: get job by id: %w", err)
	}
	return job, nil
}

func (r *pgJobRepo) List(ctx context.Context, filter domain.JobFilter) ([]*domain.ContentJob, error) {
	query := `SELECT ` + jobColumns + ` FROM content_jobs`

	var conds []string
	var args []any
	if filter.NovelID != nil {
		args = append(args, *filter.NovelID)
		conds = append(conds, fmt.Sprintf("novel_id = $%d", len(args)))
	}
	if filter.Capability != nil {
		args = append(args, *filter.Capability)
		conds = append(conds, fmt.Sprintf("capability = $%d", len(args)))
	}
	if filter.Status != nil {
		args = append(args, *filter.Status)
		conds = append(conds, fmt.Sprintf("status = $%d", len(args)))
	}
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}

	limit := filter.Limit
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	args = append(args, limit)
	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d", len(args))
	if filter.Offset > 0 {
		args = append(args, filter.Offset)
		query += fmt.Sprintf(" OFFSET $%d", len(args))
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("postgres: list jobs: %w", err)
	}
	defer rows.Close()

	var jobs []*domain.ContentJob
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, fmt.Errorf("postgres: scan job row: %w", err)
		}
		jobs = append(jobs, job)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: list jobs: %w", err)
	}
	return jobs, nil
}

func (r *pgJobRepo) MarkProcessing(ctx context.Context, id uuid.UUID, epoch int) error {
	query := `
		UPDATE content_jobs
		SET status = $3, updated_at = $4
		WHERE job_id = $1 AND epoch = $2 AND status = 'PENDING'`

	tag, err := r.pool.Exec(ctx, query, id, epoch, domain.StatusProcessing, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("postgres: mark processing: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrStaleDispatch
	}
	return nil
}

func (r *pgJobRepo) Complete(ctx context.Context, id uuid.UUID, epoch int, result *domain.JobResult) error {
	query := `
		UPDATE content_jobs
		SET status = $3, file_path = $4, file_size = $5, duration = $6, backend = $7,
		    prompt_used = $8, processing_ms = $9, error_detail = '',
		    completed_at = $10, updated_at = $10
		WHERE job_id = $1 AND epoch = $2 AND status = 'PROCESSING'`

	now := time.Now().UTC()
	tag, err := r.pool.Exec(ctx, query,
		id, epoch, domain.StatusCompleted,
		result.FilePath, result.FileSize, result.Duration, result.Backend,
		result.PromptUsed, result.ProcessingMS, now,
	)
	if err != nil {
		return fmt.Errorf("postgres: complete job: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrStaleDispatch
	}
	return nil
}

func (r *pgJobRepo) Fail(ctx context.Context, id uuid.UUID, epoch int, detail string) error {
	query := `
		UPDATE content_jobs
		SET status = $3, error_detail = $4, completed_at = $5, updated_at = $5
		WHERE job_id = $1 AND epoch = $2 AND status IN ('PENDING', 'PROCESSING')`

	tag, err := r.pool.Exec(ctx, query, id, epoch, domain.StatusFailed, detail, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("postgres: fail job: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrStaleDispatch
	}
	return nil
}

func (r *pgJobRepo) Reset(ctx context.Context, id uuid.UUID) (*domain.ContentJob, error) {
	query := `
		UPDATE content_jobs
		SET status = 'PENDING', epoch = epoch + 1,
		    file_path = '', file_size = 0, duration = 0, backend = '',
		    prompt_used = '', processing_ms = 0, error_detail = '',
		    completed_at = NULL, updated_at = $2
		WHERE job_id = $1
		RETURNING ` + jobColumns

	job, err := scanJob(r.pool.QueryRow(ctx, query, id, time.Now().UTC()))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrJobNotFound
		}
		return nil, fmt.Errorf("postgres: reset job: %w", err)
	}
	return job, nil
}

func (r *pgJobRepo) Cancel(ctx context.Context, id uuid.UUID, detail string) error {
	query := `
		UPDATE content_jobs
		SET status = $2, error_detail = $3, completed_at = $4, updated_at = $4
		WHERE job_id = $1 AND status = 'PROCESSING'`

	tag, err := r.pool.Exec(ctx, query, id, domain.StatusFailed, detail, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("postgres: cancel job: %w", err)
	}
	if tag.RowsAffected() > 0 {
		return nil
	}

	// Distinguish a missing job from one that is simply not in flight.
	if _, err := r.GetByID(ctx, id); err != nil {
		return err
	}
	return domain.ErrJobNotProcessing
}

func (r *pgJobRepo) Delete(ctx context.Context, id uuid.UUID) (*domain.ContentJob, error) {
	query := `DELETE FROM content_jobs WHERE job_id = $1 RETURNING ` + jobColumns

	job, err := scanJob(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrJobNotFound
		}
		return nil, fmt.Errorf("postgres: delete job: %w", err)
	}
	return job, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanJob(row rowScanner) (*domain.ContentJob, error) {
	job := &domain.ContentJob{}
	var (
		paramsRaw []byte
		result    domain.JobResult
	)
	err := row.Scan(
		&job.ID, &job.NovelID, &job.ChapterID, &job.Capability, &job.Prompt, &paramsRaw,
		&job.Status, &job.Epoch,
		&result.FilePath, &result.FileSize, &result.Duration, &result.Backend,
		&result.PromptUsed, &result.ProcessingMS,
		&job.ErrorDetail, &job.CreatedAt, &job.CompletedAt, &job.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if len(paramsRaw) > 0 && string(paramsRaw) != "null" {
		if err := json.Unmarshal(paramsRaw, &job.Params); err != nil {
			return nil, fmt.Errorf("unmarshal params: %w", err)
		}
	}
	if job.Status == domain.StatusCompleted {
		job.Result = &result
	}
	return job, nil
}
