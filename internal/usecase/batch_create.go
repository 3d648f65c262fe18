package usecase

import (
	"context"

	"go.uber.org/zap"

	"github.com/changshize/fiction-tiktok/internal/domain"
	"github.com/changshize/fiction-tiktok/internal/repository"
)

// BatchCreateUsecase fans one request out into a job per chapter and
// capability. Items are independent: a failed creation is reported in its
// slot while the rest of the batch proceeds.
type BatchCreateUsecase struct {
	create  *CreateJobUsecase
	sources repository.SourceRepository
	logger  *zap.Logger
}

// NewBatchCreateUsecase creates a new BatchCreateUsecase.
func NewBatchCreateUsecase(create *CreateJobUsecase, sources repository.SourceRepository, logger *zap.Logger) *BatchCreateUsecase {
	return &BatchCreateUsecase{
		create:  create,
		sources: sources,
		logger:  logger,
	}
}

// Execute creates one job per (chapter, capability) pair. When ChapterIDs is
// empty every chapter of the novel is used. The resulting jobs run
// concurrently with no ordering guarantee between them.
func (uc *BatchCreateUsecase) Execute(ctx context.Context, req *domain.BatchCreateRequest) (*domain.BatchCreateResponse, error) {
	if len(req.Capabilities) == 0 {
		return nil, domain.ErrInvalidCapability
	}
	for _, c := range req.Capabilities {
		if !c.IsValid() {
			return nil, domain.ErrInvalidCapability
		}
	}

	if _, err := uc.sources.GetNovel(ctx, req.NovelID); err != nil {
		return nil, err
	}

	chapterIDs := req.ChapterIDs
	if len(chapterIDs) == 0 {
		ids, err := uc.sources.ListChapterIDs(ctx, req.NovelID)
		if err != nil {
			return nil, err
		}
		chapterIDs = ids
	}

	resp := &domain.BatchCreateResponse{
		Jobs: make([]domain.BatchItem, 0, len(chapterIDs)*len(req.Capabilities)),
	}
	for _, chapterID := range chapterIDs {
		chapterID := chapterID
		for _, capability := range req.Capabilities {
			item := domain.BatchItem{ChapterID: chapterID, Capability: capability}

			created, err := uc.create.Execute(ctx, &domain.CreateJobRequest{
				NovelID:    req.NovelID,
				ChapterID:  &chapterID,
				Capability: capability,
			})
			if err != nil {
				uc.logger.Warn("Batch item failed",
					zap.String("chapter_id", chapterID.String()),
					zap.String("capability", string(capability)),
					zap.Error(err),
				)
				item.Error = err.Error()
			} else {
				item.JobID = created.JobID
				resp.Created++
			}
			resp.Jobs = append(resp.Jobs, item)
		}
	}

	uc.logger.Info("Batch submitted",
		zap.String("novel_id", req.NovelID.String()),
		zap.Int("requested", len(resp.Jobs)),
		zap.Int("created", resp.Created),
	)
	return resp, nil
}
