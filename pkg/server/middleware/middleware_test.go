package middleware

import (
	"io"
	"net/http/httptest"
	"testing"

	"github.com/NeuralTrust/TrustShield/pkg/infra/metrics"
	"github.com/NeuralTrust/TrustShield/pkg/infra/metrics/mocks"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestPanicRecoverMiddleware(t *testing.T) {
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	app := fiber.New()
	NewTransport(NewPanicRecoverMiddleware(logger)).Apply(app)
	app.Get("/boom", func(c *fiber.Ctx) error {
		panic("detector exploded")
	})

	resp, err := app.Test(httptest.NewRequest("GET", "/boom", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusInternalServerError, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.JSONEq(t, `{"error":"internal server error"}`, string(body))
}

func TestMetricsMiddleware(t *testing.T) {
	worker := new(mocks.Worker)
	worker.On("Process", mock.MatchedBy(func(s metrics.RequestSample) bool {
		return s.Server == "gate" && s.Method == "POST" && s.Route == "/predict" && s.Status == fiber.StatusForbidden
	})).Once()
	worker.On("Process", mock.MatchedBy(func(s metrics.RequestSample) bool {
		return s.Server == "gate" && s.Route == "/missing" && s.Status == fiber.StatusNotFound
	})).Once()

	app := fiber.New()
	NewTransport(NewMetricsMiddleware("gate", worker)).Apply(app)
	app.Post("/predict", func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Blocked by AI Defense"})
	})
	app.Get("/missing", func(c *fiber.Ctx) error {
		return fiber.ErrNotFound
	})

	resp, err := app.Test(httptest.NewRequest("POST", "/predict", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest("GET", "/missing", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)

	worker.AssertExpectations(t)
}

func TestTransport_EmptyIsNoop(t *testing.T) {
	app := fiber.New()
	var transport *Transport
	transport.Apply(app)
	NewTransport().Apply(app)
	assert.Empty(t, NewTransport().GetMiddlewares())
}
