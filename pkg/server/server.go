package server

import (
	"crypto/tls"
	"fmt"
	"net"
	"time"

	"github.com/NeuralTrust/TrustShield/pkg/config"
	"github.com/NeuralTrust/TrustShield/pkg/server/router"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

const (
	HealthPath      = "/health"
	AdminHealthPath = "/__/health"
)

type Server interface {
	Run() error
	Shutdown() error
}

type BaseServer struct {
	Config *config.Config
	Logger *logrus.Logger
	Router *fiber.App
}

func NewBaseServer(cfg *config.Config, logger *logrus.Logger) *BaseServer {
	r := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		Network:               fiber.NetworkTCP,
		EnablePrintRoutes:     false,
		BodyLimit:             64 * 1024,
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          10 * time.Second,
		IdleTimeout:           120 * time.Second,
		Concurrency:           16384,
		ProxyHeader:           cfg.Server.ProxyHeader,
	})

	r.Server().MaxConnsPerIP = 1024
	r.Server().NoDefaultServerHeader = true
	r.Server().NoDefaultDate = true

	return &BaseServer{
		Config: cfg,
		Logger: logger,
		Router: r,
	}
}

func (s *BaseServer) setupHealthCheck() {
	s.Router.Get(HealthPath, func(ctx *fiber.Ctx) error {
		return ctx.Status(fiber.StatusOK).JSON(fiber.Map{
			"status": "healthy",
			"time":   time.Now().Format(time.RFC3339),
		})
	})
	s.Router.Get(AdminHealthPath, func(ctx *fiber.Ctx) error {
		return ctx.Status(fiber.StatusOK).JSON(fiber.Map{
			"status": "ok",
			"time":   time.Now().Format(time.RFC3339),
		})
	})
}

func (s *BaseServer) WithRouters(routers ...router.ServerRouter) *BaseServer {
	for _, r := range routers {
		if err := r.BuildRoutes(s.Router); err != nil {
			s.Logger.WithError(err).Error("failed to build routes")
		}
	}
	return s
}

// listen serves the router on port, over TLS when the server TLS block is set.
func (s *BaseServer) listen(name string, port int) error {
	addr := fmt.Sprintf("%s:%d", s.Config.Server.Host, port)
	tlsCfg := s.Config.Server.TLS
	if !tlsCfg.Enabled() {
		s.Logger.WithField("addr", addr).Infof("starting %s server", name)
		return s.Router.Listen(addr)
	}

	conf, err := config.BuildServerTLSConfig(tlsCfg)
	if err != nil {
		return fmt.Errorf("failed to build TLS config for %s server: %w", name, err)
	}
	ln, err := net.Listen(fiber.NetworkTCP, addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	s.Logger.WithField("addr", addr).Infof("starting %s server with TLS", name)
	return s.Router.Listener(tls.NewListener(ln, conf))
}

func (s *BaseServer) Shutdown() error {
	return s.Router.ShutdownWithTimeout(10 * time.Second)
}
