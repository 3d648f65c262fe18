package http

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/changshize/fiction-tiktok/internal/domain"
	"github.com/changshize/fiction-tiktok/internal/usecase"
)

// JobHandler handles HTTP requests for generation jobs.
type JobHandler struct {
	createUC *usecase.CreateJobUsecase
	batchUC  *usecase.BatchCreateUsecase
	getUC    *usecase.GetJobUsecase
	listUC   *usecase.ListJobsUsecase
	resetUC  *usecase.ResetJobUsecase
	cancelUC *usecase.CancelJobUsecase
	deleteUC *usecase.DeleteJobUsecase
	logger   *zap.Logger
}

// NewJobHandler creates a new JobHandler.
func NewJobHandler(
	createUC *usecase.CreateJobUsecase,
	batchUC *usecase.BatchCreateUsecase,
	getUC *usecase.GetJobUsecase,
	listUC *usecase.ListJobsUsecase,
	resetUC *usecase.ResetJobUsecase,
	cancelUC *usecase.CancelJobUsecase,
	deleteUC *usecase.DeleteJobUsecase,
	logger *zap.Logger,
) *JobHandler {
	return &JobHandler{
		createUC: createUC,
		batchUC:  batchUC,
		getUC:    getUC,
		listUC:   listUC,
		resetUC:  resetUC,
		cancelUC: cancelUC,
		deleteUC: deleteUC,
		logger:   logger,
	}
}

// Create handles POST /api/v1/jobs
func (h *JobHandler) Create(c *gin.Context) {
	var req domain.CreateJobRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request body: " + err.Error(),
		})
		return
	}

	resp, err := h.createUC.Execute(c.Request.Context(), &req)
	if err != nil {
		h.respondCreateError(c, err)
		return
	}

	c.JSON(http.StatusAccepted, resp)
}

// BatchCreate handles POST /api/v1/jobs/batch
func (h *JobHandler) BatchCreate(c *gin.Context) {
	var req domain.BatchCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request body: " + err.Error(),
		})
		return
	}

	resp, err := h.batchUC.Execute(c.Request.Context(), &req)
	if err != nil {
		h.respondCreateError(c, err)
		return
	}

	c.JSON(http.StatusAccepted, resp)
}

// respondCreateError maps job creation errors onto HTTP statuses.
func (h *JobHandler) respondCreateError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidCapability):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrNovelNotFound), errors.Is(err, domain.ErrChapterNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrPublishFailed):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Service temporarily unavailable"})
	default:
		h.logger.Error("Create job failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}

// GetByID handles GET /api/v1/jobs/:id
func (h *JobHandler) GetByID(c *gin.Context) {
	id, ok := h.jobID(c)
	if !ok {
		return
	}

	job, err := h.getUC.Execute(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrJobNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Job not found"})
			return
		}
		h.logger.Error("Get job failed", zap.Error(err), zap.String("job_id", id.String()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	c.JSON(http.StatusOK, job)
}

// List handles GET /api/v1/jobs
func (h *JobHandler) List(c *gin.Context) {
	filter, err := parseJobFilter(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	jobs, err := h.listUC.Execute(c.Request.Context(), filter)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidCapability), errors.Is(err, domain.ErrInvalidStatus):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			h.logger.Error("List jobs failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"jobs": jobs, "count": len(jobs)})
}

// Reset handles POST /api/v1/jobs/:id/reset
func (h *JobHandler) Reset(c *gin.Context) {
	id, ok := h.jobID(c)
	if !ok {
		return
	}

	job, err := h.resetUC.Execute(c.Request.Context(), id)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrJobNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Job not found"})
		case errors.Is(err, domain.ErrPublishFailed):
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Service temporarily unavailable"})
		default:
			h.logger.Error("Reset job failed", zap.Error(err), zap.String("job_id", id.String()))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		}
		return
	}

	c.JSON(http.StatusAccepted, &domain.CreateJobResponse{JobID: job.ID, Status: job.Status})
}

// Cancel handles POST /api/v1/jobs/:id/cancel
func (h *JobHandler) Cancel(c *gin.Context) {
	id, ok := h.jobID(c)
	if !ok {
		return
	}

	if err := h.cancelUC.Execute(c.Request.Context(), id); err != nil {
		switch {
		case errors.Is(err, domain.ErrJobNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Job not found"})
		case errors.Is(err, domain.ErrJobNotProcessing):
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		default:
			h.logger.Error("Cancel job failed", zap.Error(err), zap.String("job_id", id.String()))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"job_id": id, "status": domain.StatusFailed})
}

// Delete handles DELETE /api/v1/jobs/:id
func (h *JobHandler) Delete(c *gin.Context) {
	id, ok := h.jobID(c)
	if !ok {
		return
	}

	if err := h.deleteUC.Execute(c.Request.Context(), id); err != nil {
		if errors.Is(err, domain.ErrJobNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Job not found"})
			return
		}
		h.logger.Error("Delete job failed", zap.Error(err), zap.String("job_id", id.String()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	c.Status(http.StatusNoContent)
}

// jobID parses the :id path parameter, responding 400 on garbage.
func (h *JobHandler) jobID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid job ID format"})
		return uuid.Nil, false
	}
	return id, true
}

// parseJobFilter builds a listing filter from query parameters.
func parseJobFilter(c *gin.Context) (domain.JobFilter, error) {
	var filter domain.JobFilter

	if raw := c.Query("novel_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return filter, errors.New("invalid novel_id")
		}
		filter.NovelID = &id
	}
	if raw := c.Query("capability"); raw != "" {
		capability := domain.Capability(raw)
		filter.Capability = &capability
	}
	if raw := c.Query("status"); raw != "" {
		status := domain.JobStatus(raw)
		filter.Status = &status
	}
	if raw := c.Query("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil {
			return filter, errors.New("invalid limit")
		}
		filter.Limit = limit
	}
	if raw := c.Query("offset"); raw != "" {
		offset, err := strconv.Atoi(raw)
		if err != nil {
			return filter, errors.New("invalid offset")
		}
		filter.Offset = offset
	}

	return filter, nil
}
