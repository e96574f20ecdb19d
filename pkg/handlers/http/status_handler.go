package http

import (
	"github.com/NeuralTrust/TrustShield/pkg/handlers/http/response"
	"github.com/gofiber/fiber/v2"
)

const statusBanner = "AI Anomaly Detection System Running"

type statusHandler struct{}

func NewStatusHandler() Handler {
	return &statusHandler{}
}

// Handle @Summary Service banner
// @Tags Gate
// @Produce json
// @Success 200 {object} response.StatusResponse
// @Router / [get]
func (h *statusHandler) Handle(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(response.StatusResponse{Status: statusBanner})
}
