package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/changshize/fiction-tiktok/internal/domain"
	"github.com/changshize/fiction-tiktok/internal/usecase"
)

// StatusHandler serves the fast status-poll endpoint.
type StatusHandler struct {
	statusUC *usecase.JobStatusUsecase
	logger   *zap.Logger
}

// NewStatusHandler creates a new StatusHandler.
func NewStatusHandler(statusUC *usecase.JobStatusUsecase, logger *zap.Logger) *StatusHandler {
	return &StatusHandler{
		statusUC: statusUC,
		logger:   logger,
	}
}

// Status handles GET /api/v1/jobs/:id/status
func (h *StatusHandler) Status(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid job ID format"})
		return
	}

	snapshot, err := h.statusUC.Execute(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrJobNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Job not found"})
			return
		}
		h.logger.Error("Get job status failed", zap.Error(err), zap.String("job_id", id.String()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	c.JSON(http.StatusOK, snapshot)
}
