package http

import (
	"github.com/NeuralTrust/TrustShield/pkg/domain/decision"
	"github.com/NeuralTrust/TrustShield/pkg/domain/offender"
	"github.com/NeuralTrust/TrustShield/pkg/handlers/http/response"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

type statsHandler struct {
	logger   *logrus.Logger
	registry offender.Registry
	reader   decision.Reader
}

func NewStatsHandler(logger *logrus.Logger, registry offender.Registry, reader decision.Reader) Handler {
	return &statsHandler{
		logger:   logger,
		registry: registry,
		reader:   reader,
	}
}

// Handle @Summary Detection statistics
// @Tags Admin
// @Produce json
// @Success 200 {object} response.StatsResponse
// @Failure 500 {object} response.ErrorResponse "Decision log unreadable"
// @Router /api/v1/stats [get]
func (h *statsHandler) Handle(c *fiber.Ctx) error {
	attacks, err := h.reader.Count(c.UserContext())
	if err != nil {
		h.logger.WithError(err).Error("failed to count decisions")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to read decision log"})
	}
	stats := h.registry.Stats()
	return c.Status(fiber.StatusOK).JSON(response.StatsResponse{
		Attacks:        attacks,
		Blocked:        stats.Blocked,
		TrackedOrigins: stats.Tracked,
	})
}
