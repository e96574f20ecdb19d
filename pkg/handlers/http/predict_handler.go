package http

import (
	"context"
	"errors"

	"github.com/NeuralTrust/TrustShield/pkg/app/gate"
	"github.com/NeuralTrust/TrustShield/pkg/domain"
	"github.com/NeuralTrust/TrustShield/pkg/handlers/http/request"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

type predictHandler struct {
	logger *logrus.Logger
	gate   gate.Gate
}

func NewPredictHandler(logger *logrus.Logger, g gate.Gate) Handler {
	return &predictHandler{
		logger: logger,
		gate:   g,
	}
}

// Handle @Summary Classify a request
// @Description Scores the behavioural sample of the calling origin with the detector ensemble
// @Tags Gate
// @Accept json
// @Produce json
// @Param observation body request.PredictRequest true "Behavioural sample"
// @Success 200 {object} admission.Decision "Verdict for the origin"
// @Failure 400 {object} response.ErrorResponse "Invalid observation"
// @Failure 403 {object} response.ErrorResponse "Origin blocked"
// @Failure 503 {object} response.ErrorResponse "Classification unavailable"
// @Router /predict [post]
func (h *predictHandler) Handle(c *fiber.Ctx) error {
	var req request.PredictRequest
	if err := c.BodyParser(&req); err != nil {
		h.logger.WithError(err).Debug("failed to parse predict body")
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": ErrInvalidJsonPayload})
	}
	obs, err := req.Observation()
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	origin := c.IP()
	decision, err := h.gate.Evaluate(c.UserContext(), origin, obs)
	if err != nil {
		return h.handleError(c, origin, err)
	}
	return c.Status(fiber.StatusOK).JSON(decision)
}

func (h *predictHandler) handleError(c *fiber.Ctx, origin string, err error) error {
	switch {
	case errors.Is(err, domain.ErrOriginBlocked):
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": ErrBlockedByDefense})
	case errors.Is(err, domain.ErrInvalidObservation):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, domain.ErrModelUnavailable):
		fields := logrus.Fields{"origin": origin}
		if detector, ok := domain.FailedDetector(err); ok {
			fields["detector"] = detector
		}
		h.logger.WithFields(fields).WithError(err).Error("ensemble classification failed")
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": ErrUnavailable})
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return c.Status(fiber.StatusRequestTimeout).JSON(fiber.Map{"error": "request timed out"})
	default:
		h.logger.WithField("origin", origin).WithError(err).Error("failed to evaluate request")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": ErrInternal})
	}
}
