package main

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/NeuralTrust/TrustShield/pkg/config"
	"github.com/NeuralTrust/TrustShield/pkg/dependency_container"
	infraLogger "github.com/NeuralTrust/TrustShield/pkg/infra/logger"
	"github.com/NeuralTrust/TrustShield/pkg/server"
	"github.com/NeuralTrust/TrustShield/pkg/server/router"
	"github.com/joho/godotenv"
)

const (
	modeAll   = "all"
	modeGate  = "gate"
	modeAdmin = "admin"
)

// The offender registry lives in process memory, so the admin API only works
// in the same process as the gate that fills it.
var errAdminWithoutGate = fmt.Errorf("mode '%s' cannot run alone: the admin API acts on the gate's in-process offender registry, use '%s'", modeAdmin, modeAll)

func main() {
	envFile := os.Getenv("ENV_FILE")
	if envFile == "" {
		envFile = ".env"
	}
	if err := godotenv.Load(envFile); err != nil {
		log.Println("no .env file found, using system environment variables")
	}

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "./config"
	}
	if err := config.Load(configPath); err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	cfg := config.GetConfig()

	mode, err := getServerMode(os.Args[1:])
	if err != nil {
		log.Fatalf("invalid server mode: %v", err)
	}
	logger, err := infraLogger.NewLogger("trustshield-"+mode, infraLogger.Config{
		Level:   cfg.Logging.Level,
		Dir:     cfg.Logging.Dir,
		Console: cfg.Logging.Console,
	})
	if err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}

	container, err := dependency_container.NewContainer(dependency_container.ContainerDI{
		Cfg:    cfg,
		Logger: logger.Logger,
	})
	if err != nil {
		logger.WithError(err).Error("failed to build dependencies")
		_ = logger.Close()
		os.Exit(1)
	}

	servers, err := initializeServers(mode, container)
	if err != nil {
		logger.WithError(err).Error("failed to initialize servers")
		_ = container.Close()
		_ = logger.Close()
		os.Exit(1)
	}
	errCh := make(chan error, len(servers))
	for _, srv := range servers {
		go func(srv server.Server) {
			if err := srv.Run(); err != nil {
				errCh <- err
			}
		}(srv)
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	exitCode := 0
	select {
	case sig := <-quit:
		logger.WithField("signal", sig.String()).Info("shutting down")
	case err := <-errCh:
		logger.WithError(err).Error("server failed")
		exitCode = 1
	}

	for _, srv := range servers {
		if err := srv.Shutdown(); err != nil {
			logger.WithError(err).Error("error shutting down server")
			exitCode = 1
		}
	}
	if err := container.Close(); err != nil {
		logger.WithError(err).Error("error releasing dependencies")
		exitCode = 1
	}
	logger.Info("trustshield stopped")
	_ = logger.Close()
	os.Exit(exitCode)
}

// getServerMode reads the mode from the first argument. Without one, every
// server runs.
func getServerMode(args []string) (string, error) {
	if len(args) == 0 || args[0] == "" {
		return modeAll, nil
	}
	switch args[0] {
	case modeAll, modeGate:
		return args[0], nil
	case modeAdmin:
		return "", errAdminWithoutGate
	}
	return "", fmt.Errorf("unknown mode '%s', expected '%s' or '%s'", args[0], modeAll, modeGate)
}

func initializeServers(mode string, c *dependency_container.Container) ([]server.Server, error) {
	gate := func() server.Server {
		return server.NewGateServer(server.GateServerDI{
			Config:  c.Config,
			Logger:  c.Logger,
			Routers: []router.ServerRouter{router.NewGateRouter(c.GateMiddlewareTransport, c.HandlerTransport)},
		})
	}
	admin := func() server.Server {
		return server.NewAdminServer(server.AdminServerDI{
			Config: c.Config,
			Logger: c.Logger,
			Routers: []router.ServerRouter{
				router.NewAdminRouter(c.AdminMiddlewareTransport, c.HandlerTransport, c.Config.Server.DocsURL),
			},
		})
	}
	metricsServer := server.NewMetricsServer(c.Config, c.Logger)

	switch mode {
	case modeAll:
		return []server.Server{gate(), admin(), metricsServer}, nil
	case modeGate:
		return []server.Server{gate(), metricsServer}, nil
	case modeAdmin:
		return nil, errAdminWithoutGate
	}
	return nil, fmt.Errorf("unknown mode '%s'", mode)
}
