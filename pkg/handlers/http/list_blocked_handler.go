package http

import (
	"sort"

	"github.com/NeuralTrust/TrustShield/pkg/domain/offender"
	"github.com/NeuralTrust/TrustShield/pkg/handlers/http/response"
	"github.com/gofiber/fiber/v2"
)

type listBlockedHandler struct {
	registry offender.Registry
}

func NewListBlockedHandler(registry offender.Registry) Handler {
	return &listBlockedHandler{registry: registry}
}

// Handle @Summary List blocked origins
// @Tags Admin
// @Produce json
// @Success 200 {object} response.BlockedResponse
// @Router /api/v1/blocked [get]
func (h *listBlockedHandler) Handle(c *fiber.Ctx) error {
	blocked := h.registry.SnapshotBlocked()
	if blocked == nil {
		blocked = []string{}
	}
	sort.Strings(blocked)
	return c.Status(fiber.StatusOK).JSON(response.BlockedResponse{BlockedIPs: blocked})
}
