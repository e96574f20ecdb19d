package middleware

import "github.com/gofiber/fiber/v2"

type Middleware interface {
	Middleware() fiber.Handler
}

// Transport is the ordered middleware chain shared by a server's routes.
type Transport struct {
	Middlewares []Middleware
}

func NewTransport(middlewares ...Middleware) *Transport {
	return &Transport{
		Middlewares: middlewares,
	}
}

func (t *Transport) GetMiddlewares() []interface{} {
	handlers := make([]interface{}, 0, len(t.Middlewares))
	for _, m := range t.Middlewares {
		handlers = append(handlers, m.Middleware())
	}
	return handlers
}

// Apply registers the chain on router. An empty chain is a no-op.
func (t *Transport) Apply(router fiber.Router) {
	if t == nil || len(t.Middlewares) == 0 {
		return
	}
	router.Use(t.GetMiddlewares()...)
}
