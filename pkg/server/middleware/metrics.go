package middleware

import (
	"errors"
	"time"

	"github.com/NeuralTrust/TrustShield/pkg/infra/metrics"
	"github.com/gofiber/fiber/v2"
)

type metricsMiddleware struct {
	server string
	worker metrics.Worker
}

// NewMetricsMiddleware reports every request served by server to the metrics
// worker, which updates prometheus off the request path.
func NewMetricsMiddleware(server string, worker metrics.Worker) Middleware {
	return &metricsMiddleware{
		server: server,
		worker: worker,
	}
}

func (m *metricsMiddleware) Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		status := c.Response().StatusCode()
		if err != nil {
			status = fiber.StatusInternalServerError
			var fiberErr *fiber.Error
			if errors.As(err, &fiberErr) {
				status = fiberErr.Code
			}
		}
		route := c.Path()
		if r := c.Route(); r != nil && r.Path != "" {
			route = r.Path
		}
		m.worker.Process(metrics.RequestSample{
			Server:  m.server,
			Method:  c.Method(),
			Route:   route,
			Status:  status,
			Latency: time.Since(start),
		})
		return err
	}
}
