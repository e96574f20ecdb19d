package http

import "github.com/gofiber/fiber/v2"

const (
	ErrInvalidJsonPayload = "invalid JSON payload"
	ErrBlockedByDefense   = "Blocked by AI Defense"
	ErrUnavailable        = "classification unavailable"
	ErrInternal           = "internal server error"
)

type Handler interface {
	Handle(ctx *fiber.Ctx) error
}

type HandlerTransport struct {
	// Gate
	StatusHandler  Handler
	PredictHandler Handler

	// Admin
	ListBlockedHandler Handler
	ListLogsHandler    Handler
	UnblockAllHandler  Handler
	StatsHandler       Handler
	GetVersionHandler  Handler
}
