package handler

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// HealthChecker is anything whose liveness the health endpoint reports.
type HealthChecker interface {
	Health(ctx context.Context) error
}

type HealthHandler struct {
	checks map[string]HealthChecker
	logger *zap.Logger
}

func NewHealthHandler(logger *zap.Logger) *HealthHandler {
	return &HealthHandler{
		checks: make(map[string]HealthChecker),
		logger: logger,
	}
}

// Register adds a named dependency to the report. Nil checkers are
// ignored so optional backends can be passed straight through.
func (h *HealthHandler) Register(name string, checker HealthChecker) {
	if checker != nil {
		h.checks[name] = checker
	}
}

func (h *HealthHandler) Health(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 5*time.Second)
	defer cancel()

	status := fiber.StatusOK
	deps := fiber.Map{}
	for name, checker := range h.checks {
		if err := checker.Health(ctx); err != nil {
			h.logger.Warn("Health check failed", zap.String("dependency", name), zap.Error(err))
			deps[name] = "unhealthy"
			status = fiber.StatusServiceUnavailable
			continue
		}
		deps[name] = "healthy"
	}

	state := "healthy"
	if status != fiber.StatusOK {
		state = "unhealthy"
	}

	return c.Status(status).JSON(fiber.Map{
		"status":       state,
		"dependencies": deps,
		"time":         time.Now(),
	})
}
