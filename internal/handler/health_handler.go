package handler

import (
	"context"
	"time"

	"quiz-lens/internal/domain"
	"quiz-lens/internal/dto"
	"quiz-lens/internal/logger"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type HealthHandler struct {
	cache domain.Cache
	store string
}

func NewHealthHandler(cache domain.Cache, store string) *HealthHandler {
	return &HealthHandler{cache: cache, store: store}
}

// Health godoc
// @Summary Health check
// @Description Reports whether the session store is reachable
// @Tags health
// @Produce json
// @Success 200 {object} dto.HealthResponse
// @Failure 503 {object} dto.HealthResponse
// @Router /healthz [get]
func (h *HealthHandler) Health(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
	defer cancel()
	if err := h.cache.Ping(ctx); err != nil {
		logger.Get().Warn("Health check failed", zap.String("store", h.store), zap.Error(err))
		return c.Status(fiber.StatusServiceUnavailable).JSON(dto.HealthResponse{Status: "unavailable", Store: h.store})
	}
	return c.JSON(dto.HealthResponse{Status: "ok", Store: h.store})
}
