package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/changshize/fiction-tiktok/internal/usecase"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins in development; restrict in production
	},
}

const streamPollInterval = 500 * time.Millisecond

// StreamHandler pushes job status snapshots over a WebSocket until the job
// reaches a terminal state.
type StreamHandler struct {
	statusUC *usecase.JobStatusUsecase
	logger   *zap.Logger
}

// NewStreamHandler creates a new StreamHandler.
func NewStreamHandler(statusUC *usecase.JobStatusUsecase, logger *zap.Logger) *StreamHandler {
	return &StreamHandler{
		statusUC: statusUC,
		logger:   logger,
	}
}

// Stream handles GET /api/v1/jobs/:id/stream (WebSocket upgrade)
func (h *StreamHandler) Stream(c *gin.Context) {
	idStr := c.Param("id")
	id, err := uuid.Parse(idStr)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid job ID format"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Error("WebSocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	h.logger.Debug("WebSocket connection opened", zap.String("job_id", idStr))

	ticker := time.NewTicker(streamPollInterval)
	defer ticker.Stop()

	for range ticker.C {
		snapshot, err := h.statusUC.Execute(c.Request.Context(), id)
		if err != nil {
			conn.WriteJSON(gin.H{"error": "Job not found"})
			return
		}

		if err := conn.WriteJSON(snapshot); err != nil {
			h.logger.Debug("WebSocket write failed (client disconnected)", zap.Error(err))
			return
		}

		// Stop streaming once the job reaches a terminal state
		if snapshot.Status.IsTerminal() {
			h.logger.Debug("Job reached terminal state, closing WebSocket", zap.String("job_id", idStr))
			return
		}
	}
}
