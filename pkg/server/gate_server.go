package server

import (
	"github.com/NeuralTrust/TrustShield/pkg/config"
	"github.com/NeuralTrust/TrustShield/pkg/server/router"
	"github.com/sirupsen/logrus"
)

type (
	GateServerDI struct {
		Config  *config.Config
		Logger  *logrus.Logger
		Routers []router.ServerRouter
	}
	GateServer struct {
		*BaseServer
	}
)

// NewGateServer builds the public server that answers /predict.
func NewGateServer(di GateServerDI) *GateServer {
	s := &GateServer{
		BaseServer: NewBaseServer(di.Config, di.Logger),
	}
	s.setupHealthCheck()
	s.WithRouters(di.Routers...)
	return s
}

func (s *GateServer) Run() error {
	return s.listen("gate", s.Config.Server.GatePort)
}
