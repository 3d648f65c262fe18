package http

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const healthCheckTimeout = 2 * time.Second

// DependencyCheck probes one backing service.
type DependencyCheck struct {
	Name  string
	Check func(ctx context.Context) error
}

// HealthHandler handles health check requests.
type HealthHandler struct {
	logger *zap.Logger
	checks []DependencyCheck
}

// NewHealthHandler creates a new HealthHandler over the given dependency checks.
func NewHealthHandler(logger *zap.Logger, checks ...DependencyCheck) *HealthHandler {
	return &HealthHandler{logger: logger, checks: checks}
}

// Health handles GET /api/v1/health
func (h *HealthHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), healthCheckTimeout)
	defer cancel()

	services := gin.H{}
	healthy := true
	for _, dep := range h.checks {
		if err := dep.Check(ctx); err != nil {
			h.logger.Warn("Dependency unhealthy", zap.String("service", dep.Name), zap.Error(err))
			services[dep.Name] = err.Error()
			healthy = false
			continue
		}
		services[dep.Name] = "ok"
	}

	status := http.StatusOK
	body := gin.H{"status": "ok", "services": services}
	if !healthy {
		status = http.StatusServiceUnavailable
		body["status"] = "degraded"
	}
	c.JSON(status, body)
}
