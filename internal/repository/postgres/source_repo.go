package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/changshize/fiction-tiktok/internal/domain"
	"github.com/changshize/fiction-tiktok/internal/repository"
)

var _ repository.SourceRepository = (*pgSourceRepo)(nil)

type pgSourceRepo struct {
	pool *pgxpool.Pool
}

// NewSourceRepository creates a read-only repository over the ingested
// novels and chapters.
func NewSourceRepository(pool *pgxpool.Pool) repository.SourceRepository {
	return &pgSourceRepo{pool: pool}
}

func (r *pgSourceRepo) GetNovel(ctx context.Context, id uuid.UUID) (*domain.Novel, error) {
	query := `
		SELECT novel_id, title, author, description, language
		FROM novels
		WHERE novel_id = $1`

	novel := &domain.Novel{}
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&novel.ID, &novel.Title, &novel.Author, &novel.Description, &novel.Language,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNovelNotFound
		}
		return nil, fmt.Errorf("postgres: get novel: %w", err)
	}
	return novel, nil
}

func (r *pgSourceRepo) GetChapter(ctx context.Context, id uuid.UUID) (*domain.Chapter, error) {
	query := `
		SELECT chapter_id, novel_id, number, title, content
		FROM chapters
		WHERE chapter_id = $1`

	chapter := &domain.Chapter{}
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&chapter.ID, &chapter.NovelID, &chapter.Number, &chapter.Title, &chapter.Content,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrChapterNotFound
		}
		return nil, fmt.Errorf("postgres: get chapter: %w", err)
	}
	return chapter, nil
}

func (r *pgSourceRepo) ListChapterIDs(ctx context.Context, novelID uuid.UUID) ([]uuid.UUID, error) {
	query := `SELECT chapter_id FROM chapters WHERE novel_id = $1 ORDER BY number`

	rows, err := r.pool.Query(ctx, query, novelID)
	if err != nil {
		return nil, fmt.Errorf("postgres: list chapters: %w", err)
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("postgres: scan chapter id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: list chapters: %w", err)
	}
	return ids, nil
}
