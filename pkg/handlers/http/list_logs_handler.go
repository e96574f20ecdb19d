package http

import (
	"github.com/NeuralTrust/TrustShield/pkg/domain/decision"
	"github.com/NeuralTrust/TrustShield/pkg/handlers/http/response"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

const (
	defaultLogsLimit = 100
	maxLogsLimit     = 1000
)

type listLogsHandler struct {
	logger *logrus.Logger
	reader decision.Reader
}

func NewListLogsHandler(logger *logrus.Logger, reader decision.Reader) Handler {
	return &listLogsHandler{
		logger: logger,
		reader: reader,
	}
}

// Handle @Summary List anomaly decisions
// @Description Returns the most recent anomaly records, newest first
// @Tags Admin
// @Produce json
// @Param limit query int false "Maximum number of records (default 100, max 1000)"
// @Success 200 {array} response.LogEntry
// @Failure 400 {object} response.ErrorResponse "Invalid limit"
// @Failure 500 {object} response.ErrorResponse "Decision log unreadable"
// @Router /api/v1/logs [get]
func (h *listLogsHandler) Handle(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", defaultLogsLimit)
	if limit <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "limit must be a positive integer"})
	}
	if limit > maxLogsLimit {
		limit = maxLogsLimit
	}

	records, err := h.reader.Recent(c.UserContext(), limit)
	if err != nil {
		h.logger.WithError(err).Error("failed to read decision log")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to read decision log"})
	}
	return c.Status(fiber.StatusOK).JSON(response.NewLogEntries(records))
}
