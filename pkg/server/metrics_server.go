package server

import (
	"fmt"
	"time"

	"github.com/NeuralTrust/TrustShield/pkg/config"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"github.com/valyala/fasthttp/fasthttpadaptor"
)

const MetricsPath = "/metrics"

type MetricsServer struct {
	config *config.Config
	logger *logrus.Logger
	app    *fiber.App
}

func NewMetricsServer(cfg *config.Config, logger *logrus.Logger) *MetricsServer {
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
	})
	app.Use(recover.New())

	handler := fasthttpadaptor.NewFastHTTPHandler(promhttp.Handler())
	app.Get(MetricsPath, func(c *fiber.Ctx) error {
		handler(c.Context())
		return nil
	})

	return &MetricsServer{
		config: cfg,
		logger: logger,
		app:    app,
	}
}

// Run blocks serving prometheus metrics, or returns at once when metrics are disabled.
func (s *MetricsServer) Run() error {
	if !s.config.Metrics.Enabled {
		s.logger.Info("prometheus metrics are disabled by configuration")
		return nil
	}
	addr := fmt.Sprintf("%s:%d", s.config.Server.Host, s.config.Server.MetricsPort)
	s.logger.WithField("addr", addr).Info("starting metrics server")
	return s.app.Listen(addr)
}

func (s *MetricsServer) Shutdown() error {
	if !s.config.Metrics.Enabled {
		return nil
	}
	return s.app.ShutdownWithTimeout(5 * time.Second)
}
