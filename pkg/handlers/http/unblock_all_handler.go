package http

import (
	"github.com/NeuralTrust/TrustShield/pkg/domain/offender"
	"github.com/NeuralTrust/TrustShield/pkg/handlers/http/response"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

type unblockAllHandler struct {
	logger   *logrus.Logger
	registry offender.Registry
}

func NewUnblockAllHandler(logger *logrus.Logger, registry offender.Registry) Handler {
	return &unblockAllHandler{
		logger:   logger,
		registry: registry,
	}
}

// Handle @Summary Unblock every origin
// @Description Clears all attack counts and blocks
// @Tags Admin
// @Produce json
// @Success 200 {object} response.MessageResponse
// @Failure 500 {object} response.ErrorResponse "Reset failed"
// @Router /api/v1/unblock_all [post]
func (h *unblockAllHandler) Handle(c *fiber.Ctx) error {
	if err := h.registry.ResetAll(); err != nil {
		h.logger.WithError(err).Error("failed to reset offender registry")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to unblock origins"})
	}
	h.logger.Info("all origins unblocked")
	return c.Status(fiber.StatusOK).JSON(response.MessageResponse{Message: "All IPs unblocked"})
}
