package router

import (
	handlers "github.com/NeuralTrust/TrustShield/pkg/handlers/http"
	"github.com/NeuralTrust/TrustShield/pkg/server/middleware"
	"github.com/gofiber/fiber/v2"
)

const (
	StatusPath  = "/"
	PredictPath = "/predict"
)

type gateRouter struct {
	middlewareTransport *middleware.Transport
	handlerTransport    *handlers.HandlerTransport
}

func NewGateRouter(
	middlewareTransport *middleware.Transport,
	handlerTransport *handlers.HandlerTransport,
) ServerRouter {
	return &gateRouter{
		middlewareTransport: middlewareTransport,
		handlerTransport:    handlerTransport,
	}
}

func (r *gateRouter) BuildRoutes(router *fiber.App) error {
	if r.handlerTransport == nil || r.handlerTransport.StatusHandler == nil || r.handlerTransport.PredictHandler == nil {
		return ErrInvalidHandlerTransport
	}

	gate := router.Group("")
	r.middlewareTransport.Apply(gate)

	gate.Get(StatusPath, r.handlerTransport.StatusHandler.Handle)
	gate.Post(PredictPath, r.handlerTransport.PredictHandler.Handle)
	return nil
}
