package router

import (
	handlers "github.com/NeuralTrust/TrustShield/pkg/handlers/http"
	"github.com/NeuralTrust/TrustShield/pkg/server/middleware"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/swagger"
)

type adminRouter struct {
	middlewareTransport *middleware.Transport
	handlerTransport    *handlers.HandlerTransport
	docsURL             string
	docsFile            string
}

func NewAdminRouter(
	middlewareTransport *middleware.Transport,
	handlerTransport *handlers.HandlerTransport,
	docsURL string,
) ServerRouter {
	return &adminRouter{
		middlewareTransport: middlewareTransport,
		handlerTransport:    handlerTransport,
		docsURL:             docsURL,
		docsFile:            "./docs/swagger.json",
	}
}

func (r *adminRouter) BuildRoutes(router *fiber.App) error {
	ht := r.handlerTransport
	if ht == nil || ht.ListBlockedHandler == nil || ht.ListLogsHandler == nil ||
		ht.UnblockAllHandler == nil || ht.StatsHandler == nil || ht.GetVersionHandler == nil {
		return ErrInvalidHandlerTransport
	}

	if r.docsURL != "" {
		router.Static("/swagger.json", r.docsFile)
		router.Get("/docs/*", swagger.New(swagger.Config{
			URL: r.docsURL,
		}))
	}

	router.Get("/version", ht.GetVersionHandler.Handle)

	v1 := router.Group("/api/v1")
	{
		r.middlewareTransport.Apply(v1)

		v1.Get("/blocked", ht.ListBlockedHandler.Handle)
		v1.Get("/logs", ht.ListLogsHandler.Handle)
		v1.Post("/unblock_all", ht.UnblockAllHandler.Handle)
		v1.Get("/stats", ht.StatsHandler.Handle)
	}
	return nil
}
