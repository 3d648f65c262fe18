package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/changshize/fiction-tiktok/internal/usecase"
)

// VoiceHandler handles narration voice listing requests.
type VoiceHandler struct {
	voicesUC *usecase.ListVoicesUsecase
	logger   *zap.Logger
}

// NewVoiceHandler creates a new VoiceHandler.
func NewVoiceHandler(voicesUC *usecase.ListVoicesUsecase, logger *zap.Logger) *VoiceHandler {
	return &VoiceHandler{
		voicesUC: voicesUC,
		logger:   logger,
	}
}

// List handles GET /api/v1/voices
func (h *VoiceHandler) List(c *gin.Context) {
	voices, err := h.voicesUC.Execute(c.Request.Context(), c.Query("backend"))
	if err != nil {
		h.logger.Error("List voices failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"voices": voices, "count": len(voices)})
}
