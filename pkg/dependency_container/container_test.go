package dependency_container

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/NeuralTrust/TrustShield/pkg/config"
	"github.com/NeuralTrust/TrustShield/pkg/domain"
	"github.com/NeuralTrust/TrustShield/pkg/domain/admission"
	"github.com/NeuralTrust/TrustShield/pkg/server/router"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	profile := map[string]interface{}{
		"means":   []interface{}{12, 300, 0.5, 0.04, 0.04},
		"stddevs": []interface{}{3, 50, 0.5, 0.05, 0.015},
	}
	wide := map[string]interface{}{"max_z": 4}
	for k, v := range profile {
		wide[k] = v
	}
	return &config.Config{
		Metrics: config.MetricsConfig{Enabled: false},
		Ensemble: config.EnsembleConfig{
			MajorityThreshold: 2,
			VoteTimeout:       time.Second,
			Detectors: []config.DetectorConfig{
				{Name: "gaussian", Type: "zscore", Settings: profile},
				{Name: "envelope", Type: "bounds", Settings: map[string]interface{}{
					"lower": []interface{}{0, 100, 0, 0, 0},
					"upper": []interface{}{30, 600, 2, 0.5, 0.2},
				}},
				{Name: "gaussian_wide", Type: "zscore", Settings: wide},
			},
		},
		Registry: config.RegistryConfig{
			BlockThreshold: 3,
			MaxOrigins:     100,
			Shards:         4,
		},
		Decisions: config.DecisionsConfig{
			Store:        config.StoreCSV,
			CSVPath:      filepath.Join(t.TempDir(), "anomaly_log.csv"),
			WriteTimeout: time.Second,
		},
	}
}

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func TestNewContainer_Validation(t *testing.T) {
	_, err := NewContainer(ContainerDI{})
	assert.ErrorIs(t, err, domain.ErrConfiguration)

	cfg := testConfig(t)
	cfg.Ensemble.Detectors[1].Type = "isolation_forest"
	_, err = NewContainer(ContainerDI{Cfg: cfg, Logger: quietLogger()})
	assert.ErrorIs(t, err, domain.ErrConfiguration)

	cfg = testConfig(t)
	cfg.Decisions.Store = "sqlite"
	_, err = NewContainer(ContainerDI{Cfg: cfg, Logger: quietLogger()})
	assert.ErrorIs(t, err, domain.ErrConfiguration)
}

func TestContainer_EndToEnd(t *testing.T) {
	c, err := NewContainer(ContainerDI{Cfg: testConfig(t), Logger: quietLogger()})
	require.NoError(t, err)
	defer func() { assert.NoError(t, c.Close()) }()

	gateApp := fiber.New()
	require.NoError(t, router.NewGateRouter(c.GateMiddlewareTransport, c.HandlerTransport).BuildRoutes(gateApp))
	adminApp := fiber.New()
	require.NoError(t, router.NewAdminRouter(c.AdminMiddlewareTransport, c.HandlerTransport, "").BuildRoutes(adminApp))

	predict := func(body string) (int, []byte) {
		req := httptest.NewRequest("POST", router.PredictPath, bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
		resp, err := gateApp.Test(req, -1)
		require.NoError(t, err)
		raw, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		return resp.StatusCode, raw
	}
	admin := func(method, path string) (int, []byte) {
		resp, err := adminApp.Test(httptest.NewRequest(method, path, nil), -1)
		require.NoError(t, err)
		raw, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		return resp.StatusCode, raw
	}

	status, body := predict(`{"requests_per_min":12,"session_duration":300,"failed_login":0}`)
	require.Equal(t, fiber.StatusOK, status)
	var normal admission.Decision
	require.NoError(t, json.Unmarshal(body, &normal))
	assert.Equal(t, admission.VerdictNormal, normal.Verdict)

	for i := 1; i <= 3; i++ {
		status, body = predict(`{"requests_per_min":80,"session_duration":20,"failed_login":5}`)
		require.Equal(t, fiber.StatusOK, status)
		var d admission.Decision
		require.NoError(t, json.Unmarshal(body, &d))
		assert.Equal(t, 3, d.AnomalyScore)
		assert.Equal(t, admission.VerdictAnomaly, d.Verdict)
		assert.Equal(t, i, d.AttackCount)
		assert.Equal(t, i == 3, d.Blocked)
	}

	status, body = predict(`{"requests_per_min":12,"session_duration":300,"failed_login":0}`)
	assert.Equal(t, fiber.StatusForbidden, status)
	assert.JSONEq(t, `{"error":"Blocked by AI Defense"}`, string(body))

	status, body = admin("GET", "/api/v1/blocked")
	assert.Equal(t, fiber.StatusOK, status)
	assert.JSONEq(t, `{"blocked_ips":["0.0.0.0"]}`, string(body))

	status, body = admin("GET", "/api/v1/stats")
	assert.Equal(t, fiber.StatusOK, status)
	assert.JSONEq(t, `{"attacks":3,"blocked":1,"tracked_origins":1}`, string(body))

	status, body = admin("GET", "/api/v1/logs?limit=2")
	assert.Equal(t, fiber.StatusOK, status)
	var logs []map[string]interface{}
	require.NoError(t, json.Unmarshal(body, &logs))
	assert.Len(t, logs, 2)

	status, _ = admin("POST", "/api/v1/unblock_all")
	assert.Equal(t, fiber.StatusOK, status)

	status, _ = predict(`{"requests_per_min":12,"session_duration":300,"failed_login":0}`)
	assert.Equal(t, fiber.StatusOK, status)
}

func TestContainer_Close(t *testing.T) {
	c, err := NewContainer(ContainerDI{Cfg: testConfig(t), Logger: quietLogger()})
	require.NoError(t, err)
	require.NoError(t, c.Close())
	require.NoError(t, c.Close())
}
